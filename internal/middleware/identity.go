package middleware

import (
	"strings"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// SetIdentity stores the authenticated caller on the request context.
func SetIdentity(c echo.Context, id models.Identity) {
	c.Set(identityKey, id)
}

// IdentityFromContext returns the caller set by one of the auth middlewares.
func IdentityFromContext(c echo.Context) (models.Identity, bool) {
	id, ok := c.Get(identityKey).(models.Identity)
	if !ok || id.Email == "" {
		return models.Identity{}, false
	}
	return id, true
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on EventSource or WebSocket requests, so a token query parameter
// is accepted as well.
func bearerToken(c echo.Context) (string, string) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" {
			return token, ""
		}
		return "", "Missing Authorization header"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", "Invalid Authorization header format"
	}
	return parts[1], ""
}
