package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor,omitempty"`
}

func (h *NotificationHandler) enrichNotifications(c echo.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	var emails []string
	seen := map[string]bool{}
	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if n.ActorEmail != "" && !seen[n.ActorEmail] {
			seen[n.ActorEmail] = true
			emails = append(emails, n.ActorEmail)
		}
	}
	if len(emails) == 0 {
		return enriched
	}

	users, err := h.userRepository.GetUsersByEmails(c.Request().Context(), emails)
	if err != nil {
		return enriched
	}
	actors := make(map[string]models.UserCompact, len(users))
	for i := range users {
		actors[users[i].Email] = users[i].ToCompact()
	}
	for i := range enriched {
		if actor, ok := actors[enriched[i].ActorEmail]; ok {
			enriched[i].Actor = &actor
		}
	}
	return enriched
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := h.notificationRepository.GetByRecipient(c.Request().Context(), id.Email, page, limit)
	if err != nil {
		return toHTTPError(c, err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	enriched := h.enrichNotifications(c, notifications)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": enriched,
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), id.Email)
	if err != nil {
		return toHTTPError(c, err)
	}

	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	notifID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	err = h.notificationRepository.MarkAsRead(c.Request().Context(), notifID, id.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return kindError(chat.KindNotFound, "Notification not found")
	}
	if err != nil {
		return toHTTPError(c, err)
	}

	return success(c, http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), id.Email); err != nil {
		return toHTTPError(c, err)
	}

	return success(c, http.StatusOK, echo.Map{"success": true})
}
