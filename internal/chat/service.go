// Package chat implements rooms, the message ledger, reactions, read
// tracking, unread counting and direct messages on top of the repositories.
// Every operation takes the caller identity explicitly; an identity without
// an email is rejected as Unauthorized.
package chat

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"github.com/anonto42/nano-midea/chat/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	MaxAttachments  = 10
	previewLength   = 80
)

// Stores groups the repositories the service reads and writes.
type Stores struct {
	Rooms          repositories.RoomRepository
	Messages       repositories.MessageRepository
	Reactions      repositories.ReactionRepository
	ReadMarkers    repositories.ReadMarkerRepository
	Notifications  repositories.NotificationRepository
	Users          repositories.UserRepository
	Conversations  repositories.ConversationRepository
	DirectMessages repositories.DirectMessageRepository
	Moderation     repositories.ModerationRepository
}

type Service struct {
	rooms         repositories.RoomRepository
	messages      repositories.MessageRepository
	reactions     repositories.ReactionRepository
	markers       repositories.ReadMarkerRepository
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	conversations repositories.ConversationRepository
	dms           repositories.DirectMessageRepository
	moderation    repositories.ModerationRepository

	now func() time.Time
}

type Option func(*Service)

// WithClock overrides time.Now for read markers.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st Stores, opts ...Option) *Service {
	s := &Service{
		rooms:         st.Rooms,
		messages:      st.Messages,
		reactions:     st.Reactions,
		markers:       st.ReadMarkers,
		notifications: st.Notifications,
		users:         st.Users,
		conversations: st.Conversations,
		dms:           st.DirectMessages,
		moderation:    st.Moderation,
		now:           time.Now,
	}
	if s.moderation == nil {
		s.moderation = repositories.NopModerationRepository{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireIdentity(id models.Identity) error {
	if id.Email == "" {
		return unauthorized()
	}
	return nil
}

// activeRoom loads a room and rejects missing or deactivated ones.
func (s *Service) activeRoom(ctx context.Context, roomID uint) (*models.Room, error) {
	if roomID == 0 {
		return nil, invalid("room id is required")
	}
	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("room %d not found", roomID)
	}
	if err != nil {
		return nil, internal(err, "load room")
	}
	if !room.Active {
		return nil, notFound("room %d is not active", roomID)
	}
	return room, nil
}

// notify stores a best-effort notification. Failures are logged and counted,
// never returned.
func (s *Service) notify(ctx context.Context, n *models.Notification) {
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		metrics.NotificationFailures.WithLabelValues(n.Type).Inc()
		recipient := ""
		if n.RecipientEmail != nil {
			recipient = *n.RecipientEmail
		}
		logger.Log.Warn("notification dropped",
			zap.String("type", n.Type),
			zap.String("recipient", recipient),
			zap.Error(err))
	}
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

func displayName(id models.Identity) string {
	if id.Name != "" {
		return id.Name
	}
	return id.Email
}
