package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/live"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/labstack/echo/v4"
)

// RoomHandler handles rooms, their message ledger, reactions and read state
type RoomHandler struct {
	service *chat.Service
	poller  *live.Poller
	// wsInsecureSkipVerify disables the WebSocket origin check (development only)
	wsInsecureSkipVerify bool
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(service *chat.Service, poller *live.Poller, wsInsecureSkipVerify bool) *RoomHandler {
	return &RoomHandler{service: service, poller: poller, wsInsecureSkipVerify: wsInsecureSkipVerify}
}

// RegisterRoomRoutes registers room routes. writes is applied to the routes
// that append or mutate content.
func (h *RoomHandler) RegisterRoomRoutes(g *echo.Group, writes ...echo.MiddlewareFunc) {
	g.GET("/rooms", h.ListRooms)
	g.POST("/rooms", h.CreateRoom)
	g.GET("/rooms/unread", h.UnreadCounts)
	g.DELETE("/rooms/:room_id", h.DeactivateRoom)
	g.GET("/rooms/:room_id/messages", h.ListMessages)
	g.POST("/rooms/:room_id/messages", h.PostMessage, writes...)
	g.DELETE("/rooms/:room_id/messages/:message_id", h.DeleteMessage)
	g.POST("/rooms/:room_id/messages/:message_id/reactions", h.ToggleReaction, writes...)
	g.POST("/rooms/:room_id/read", h.MarkRead)
	g.GET("/rooms/:room_id/moderation", h.ModerationLog)
	g.GET("/rooms/:room_id/stream", h.Stream)
	g.GET("/rooms/:room_id/ws", h.WebSocket)
}

// ListRooms returns the active rooms
func (h *RoomHandler) ListRooms(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	rooms, err := h.service.ListRooms(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"rooms": rooms})
}

// CreateRoom creates a room (moderators only)
func (h *RoomHandler) CreateRoom(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req models.CreateRoomRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	room, err := h.service.CreateRoom(c.Request().Context(), id, req.Name, req.Topic)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusCreated, room)
}

// DeactivateRoom hides a room from the directory (moderators only)
func (h *RoomHandler) DeactivateRoom(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
	if err != nil {
		return err
	}
	if err := h.service.DeactivateRoom(c.Request().Context(), id, roomID); err != nil {
		return toHTTPError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMessages returns a page of messages, oldest first.
// Query: before_id (exclusive cursor), limit (default 50, max 200).
func (h *RoomHandler) ListMessages(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
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

	msgs, err := h.service.ListMessages(c.Request().Context(), id, roomID, beforeID, limit)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"messages": msgs})
}

// PostMessage appends a message with optional file references
func (h *RoomHandler) PostMessage(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
	if err != nil {
		return err
	}
	var req models.PostMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.service.PostMessage(c.Request().Context(), id, roomID, req.Body, req.Files)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusCreated, msg)
}

// DeleteMessage deletes a message (author or moderator)
func (h *RoomHandler) DeleteMessage(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
	if err != nil {
		return err
	}
	messageID, err := uintParam(c, "message_id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteMessage(c.Request().Context(), id, roomID, messageID); err != nil {
		return toHTTPError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleReaction adds or removes the caller's reaction and returns the
// message's full reaction summary
func (h *RoomHandler) ToggleReaction(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
	if err != nil {
		return err
	}
	messageID, err := uintParam(c, "message_id")
	if err != nil {
		return err
	}
	var req models.ToggleReactionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	summary, err := h.service.ToggleReaction(c.Request().Context(), id, roomID, messageID, req.Emoji)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"message_id": messageID, "reactions": summary})
}

// MarkRead records that the caller has read the room up to now
func (h *RoomHandler) MarkRead(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
	if err != nil {
		return err
	}
	if err := h.service.MarkRoomRead(c.Request().Context(), id, roomID); err != nil {
		return toHTTPError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnreadCounts returns mention-based unread counts for every active room
func (h *RoomHandler) UnreadCounts(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	counts, err := h.service.UnreadCountsByRoom(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"unread": counts})
}

// ModerationLog returns recent moderation actions in the room
func (h *RoomHandler) ModerationLog(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roomID, err := uintParam(c, "room_id")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}
	events, err := h.service.ModerationLog(c.Request().Context(), id, roomID, limit)
	if err != nil {
		return toHTTPError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"events": events})
}
