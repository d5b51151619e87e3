package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/labstack/echo/v4"
)

// DMHandler handles direct conversations between two users
type DMHandler struct {
	service *chat.Service
}

// NewDMHandler creates a new DMHandler
func NewDMHandler(service *chat.Service) *DMHandler {
	return &DMHandler{service: service}
}

// RegisterDMRoutes registers direct-message routes
func (h *DMHandler) RegisterDMRoutes(g *echo.Group, writes ...echo.MiddlewareFunc) {
	g.GET("/dm/conversations", h.ListConversations)
	g.POST("/dm/conversations", h.OpenConversation)
	g.GET("/dm/conversations/:id/messages", h.ListMessages)
	g.POST("/dm/conversations/:id/messages", h.SendMessage, writes...)
}

// OpenConversation returns the conversation with another user, creating it
// on first contact
func (h *DMHandler) OpenConversation(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req models.OpenConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	conv, err := h.service.GetOrCreateConversation(c.Request().Context(), id, req.Email)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusOK, conv)
}

// ListConversations returns the caller's conversations, most recent first
func (h *DMHandler) ListConversations(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	convs, err := h.service.ListConversations(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"conversations": convs})
}

// ListMessages returns a page of the conversation, oldest first
func (h *DMHandler) ListMessages(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	before, err := optionalUintQuery(c, "before_id")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}
	var beforeID uint
	if before != nil {
		beforeID = *before
	}
	msgs, err := h.service.ListDirectMessages(c.Request().Context(), id, c.Param("id"), beforeID, limit)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"messages": msgs})
}

// SendMessage sends a direct message to the other participant
func (h *DMHandler) SendMessage(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req models.SendDirectMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.service.SendDirectMessage(c.Request().Context(), id, c.Param("id"), req.Body)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusCreated, msg)
}
