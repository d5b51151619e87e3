package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/middleware"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"github.com/anonto42/nano-midea/chat/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var kindStatus = map[chat.Kind]int{
	chat.KindUnauthorized: http.StatusUnauthorized,
	chat.KindForbidden:    http.StatusForbidden,
	chat.KindNotFound:     http.StatusNotFound,
	chat.KindValidation:   http.StatusBadRequest,
	chat.KindInternal:     http.StatusInternalServerError,
}

func kindError(kind chat.Kind, message string) *echo.HTTPError {
	return echo.NewHTTPError(kindStatus[kind], echo.Map{"message": message, "kind": kind})
}

// toHTTPError maps service errors onto HTTP statuses. Internal causes are
// logged and never returned to the client.
func toHTTPError(c echo.Context, err error) error {
	var ce *chat.Error
	if !errors.As(err, &ce) {
		ce = &chat.Error{Kind: chat.KindInternal, Message: "internal error", Err: err}
	}
	if ce.Kind == chat.KindInternal {
		logger.Log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(ce.Err))
	}
	return kindError(ce.Kind, ce.Message)
}

func currentIdentity(c echo.Context) (models.Identity, error) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		return models.Identity{}, kindError(chat.KindUnauthorized, "User not authenticated")
	}
	return id, nil
}

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, kindError(chat.KindValidation, "Invalid "+name)
	}
	return uint(v), nil
}

// optionalUintQuery returns nil when the parameter is absent.
func optionalUintQuery(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, kindError(chat.KindValidation, "Invalid "+name)
	}
	u := uint(v)
	return &u, nil
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, kindError(chat.KindValidation, "Invalid "+name)
	}
	return v, nil
}

// bindAndValidate decodes the JSON body into req and runs e.Validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return kindError(chat.KindValidation, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return kindError(chat.KindValidation, validators.Describe(err))
	}
	return nil
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}
