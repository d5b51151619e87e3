package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// HealthCheck returns a liveness handler. Each named check is run on every
// call; any failure turns the response into 503.
func HealthCheck(checks map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := http.StatusOK
		results := map[string]string{}
		for name, check := range checks {
			if err := check(c.Request().Context()); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}
		return c.JSON(status, map[string]interface{}{
			"status":  state,
			"service": "chat-api",
			"checks":  results,
		})
	}
}
