package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"github.com/anonto42/nano-midea/chat/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var mentionPattern = regexp.MustCompile(`(?:^|[^\w@])@([\p{L}\p{N}_.\-]{1,64})`)

// ListRooms returns the active rooms ordered by name.
func (s *Service) ListRooms(ctx context.Context, id models.Identity) ([]models.Room, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, internal(err, "list rooms")
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

func (s *Service) CreateRoom(ctx context.Context, id models.Identity, name, topic string) (*models.Room, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if !id.IsModerator() {
		return nil, forbidden("only moderators can create rooms")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("room name is required")
	}

	room := &models.Room{Name: name, Topic: strings.TrimSpace(topic)}
	err := s.rooms.Create(ctx, room)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, invalid("room %q already exists", name)
	}
	if err != nil {
		return nil, internal(err, "create room")
	}
	logger.Log.Info("room created", zap.Uint("room_id", room.ID), zap.String("by", id.Email))
	return room, nil
}

// DeactivateRoom hides a room from the directory. Its messages are kept.
func (s *Service) DeactivateRoom(ctx context.Context, id models.Identity, roomID uint) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	if !id.IsModerator() {
		return forbidden("only moderators can deactivate rooms")
	}
	err := s.rooms.Deactivate(ctx, roomID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("room %d not found", roomID)
	}
	if err != nil {
		return internal(err, "deactivate room")
	}
	logger.Log.Info("room deactivated", zap.Uint("room_id", roomID), zap.String("by", id.Email))
	return nil
}

// ListMessages pages backwards through a room. beforeID 0 means the latest
// page. The result is in ascending id order.
func (s *Service) ListMessages(ctx context.Context, id models.Identity, roomID, beforeID uint, limit int) ([]MessageView, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListBefore(ctx, roomID, beforeID, normalizeLimit(limit))
	if err != nil {
		return nil, internal(err, "list messages")
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return s.views(ctx, msgs, id.Email), nil
}

// PostMessage appends a message and its attachments as one unit and then
// notifies mentioned users.
func (s *Service) PostMessage(ctx context.Context, id models.Identity, roomID uint, body string, files []models.AttachmentInput) (*MessageView, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	body = Sanitize(body)
	if body == "" && len(files) == 0 {
		return nil, invalid("message needs a body or at least one file")
	}
	if len(files) > MaxAttachments {
		return nil, invalid("at most %d files per message", MaxAttachments)
	}
	attachments := make([]models.Attachment, 0, len(files))
	for i, f := range files {
		if strings.TrimSpace(f.FileURL) == "" || strings.TrimSpace(f.Filename) == "" {
			return nil, invalid("file %d needs a url and a filename", i+1)
		}
		if f.Size != nil && *f.Size < 0 {
			return nil, invalid("file %d has a negative size", i+1)
		}
		attachments = append(attachments, models.Attachment{
			FileURL:  f.FileURL,
			Filename: f.Filename,
			MimeType: f.MimeType,
			Size:     f.Size,
		})
	}

	msg := &models.Message{
		RoomID:      roomID,
		UserEmail:   id.Email,
		Username:    displayName(id),
		Body:        body,
		Attachments: attachments,
	}
	if err := s.messages.CreateWithAttachments(ctx, msg); err != nil {
		return nil, internal(err, "store message")
	}
	metrics.MessagesPosted.WithLabelValues("room").Inc()

	s.notifyMentions(ctx, id, room, msg)

	views := s.views(ctx, []models.Message{*msg}, id.Email)
	return &views[0], nil
}

// notifyMentions creates a chat_mention notification for every known user
// named with @name in the body, except the author.
func (s *Service) notifyMentions(ctx context.Context, author models.Identity, room *models.Room, msg *models.Message) {
	names := mentionedNames(msg.Body)
	if len(names) == 0 {
		return
	}
	users, err := s.users.FindByNames(ctx, names)
	if err != nil {
		metrics.NotificationFailures.WithLabelValues(models.NotificationChatMention).Inc()
		logger.Log.Warn("mention lookup failed", zap.Uint("room_id", room.ID), zap.Error(err))
		return
	}

	notified := map[string]bool{author.Email: true}
	for _, u := range users {
		if notified[u.Email] {
			continue
		}
		notified[u.Email] = true
		recipient := u.Email
		n := &models.Notification{
			Type:           models.NotificationChatMention,
			Title:          fmt.Sprintf("%s mentioned you in #%s", msg.Username, room.Name),
			Description:    preview(msg.Body, previewLength),
			Link:           fmt.Sprintf("/chat?room=%d&message=%d", room.ID, msg.ID),
			ActorEmail:     author.Email,
			RecipientEmail: &recipient,
		}
		n.SetTarget(models.RoomTarget(room.ID))
		s.notify(ctx, n)
	}
}

func mentionedNames(body string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range mentionPattern.FindAllStringSubmatch(body, -1) {
		name := strings.TrimRight(m[1], ".-")
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// DeleteMessage removes a message with its attachments and reactions. Only
// the author or a moderator may delete.
func (s *Service) DeleteMessage(ctx context.Context, id models.Identity, roomID, messageID uint) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return err
	}
	msg, err := s.messages.GetInRoom(ctx, roomID, messageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("message %d not found in room %d", messageID, roomID)
	}
	if err != nil {
		return internal(err, "load message")
	}
	if msg.UserEmail != id.Email && !id.IsModerator() {
		return forbidden("only the author or a moderator can delete this message")
	}

	err = s.messages.Delete(ctx, messageID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("message %d not found in room %d", messageID, roomID)
	}
	if err != nil {
		return internal(err, "delete message")
	}

	if msg.UserEmail != id.Email {
		event := &models.ModerationEvent{
			Action:      models.ModerationMessageDeleted,
			RoomID:      roomID,
			MessageID:   messageID,
			ActorEmail:  id.Email,
			AuthorEmail: msg.UserEmail,
			Body:        msg.Body,
			Attachments: len(msg.Attachments),
			CreatedAt:   s.now(),
		}
		if err := s.moderation.Record(ctx, event); err != nil {
			logger.Log.Warn("moderation audit dropped", zap.Uint("message_id", messageID), zap.Error(err))
		}
	}
	return nil
}

// MessagesSince returns up to limit messages with id greater than afterID in
// ascending order. It fails with NotFound once the room is deactivated.
func (s *Service) MessagesSince(ctx context.Context, id models.Identity, roomID, afterID uint, limit int) ([]MessageView, error) {
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListAfter(ctx, roomID, afterID, normalizeLimit(limit))
	if err != nil {
		return nil, internal(err, "poll messages")
	}
	return s.views(ctx, msgs, id.Email), nil
}

// LatestMessageID verifies the room is live and returns its newest message
// id, 0 for an empty room.
func (s *Service) LatestMessageID(ctx context.Context, id models.Identity, roomID uint) (uint, error) {
	if err := requireIdentity(id); err != nil {
		return 0, err
	}
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return 0, err
	}
	latest, err := s.messages.LatestID(ctx, roomID)
	if err != nil {
		return 0, internal(err, "latest message id")
	}
	return latest, nil
}

// ModerationLog lists recent moderation events for a room, newest first.
func (s *Service) ModerationLog(ctx context.Context, id models.Identity, roomID uint, limit int) ([]models.ModerationEvent, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if !id.IsModerator() {
		return nil, forbidden("only moderators can read the moderation log")
	}
	events, err := s.moderation.ListForRoom(ctx, roomID, int64(normalizeLimit(limit)))
	if err != nil {
		return nil, internal(err, "list moderation events")
	}
	return events, nil
}
