package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"github.com/anonto42/nano-midea/chat/pkg/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PairKey is the order-independent key of two participants.
func PairKey(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// ConversationLink is the deep link carried by dm notifications.
func ConversationLink(conversationID string) string {
	return "/messages?conversation=" + conversationID
}

// GetOrCreateConversation returns the single conversation between the
// caller and otherEmail, creating it on first contact, with its full
// history oldest first.
func (s *Service) GetOrCreateConversation(ctx context.Context, me models.Identity, otherEmail string) (*ConversationView, error) {
	if err := requireIdentity(me); err != nil {
		return nil, err
	}
	otherEmail = strings.TrimSpace(otherEmail)
	if otherEmail == "" {
		return nil, invalid("recipient email is required")
	}
	if strings.EqualFold(otherEmail, me.Email) {
		return nil, invalid("cannot start a conversation with yourself")
	}
	other, err := s.users.GetUserByEmail(ctx, otherEmail)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("user %s not found", otherEmail)
	}
	if err != nil {
		return nil, internal(err, "load recipient")
	}

	convID, err := s.findConversation(ctx, me.Email, other.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		convID, err = s.createConversation(ctx, me.Email, other.Email)
	}
	if err != nil {
		return nil, internal(err, "open conversation")
	}

	history, err := s.dms.ListAll(ctx, convID)
	if err != nil {
		return nil, internal(err, "load conversation history")
	}
	if history == nil {
		history = []models.DirectMessage{}
	}
	return &ConversationView{ConversationID: convID, Other: publicUser(other), Messages: history}, nil
}

func (s *Service) findConversation(ctx context.Context, me, other string) (string, error) {
	ids, err := s.conversations.ConversationIDsFor(ctx, me)
	if err != nil {
		return "", err
	}
	return s.conversations.FindWithParticipant(ctx, ids, other)
}

// createConversation inserts the conversation and both participants. When a
// concurrent request created the same pair first, the unique pair key
// rejects this insert and the winner is read back.
func (s *Service) createConversation(ctx context.Context, me, other string) (string, error) {
	conv := &models.Conversation{ID: uuid.NewString(), PairKey: PairKey(me, other)}
	err := s.conversations.CreateWithParticipants(ctx, conv, me, other)
	if errors.Is(err, repositories.ErrDuplicate) {
		return s.findConversation(ctx, me, other)
	}
	if err != nil {
		return "", err
	}
	logger.Log.Debug("conversation created", zap.String("conversation_id", conv.ID))
	return conv.ID, nil
}

// otherParticipant loads a conversation's participants and returns the one
// that is not me. Non-participants get Forbidden.
func (s *Service) otherParticipant(ctx context.Context, me models.Identity, conversationID string) (string, error) {
	parts, err := s.conversations.Participants(ctx, conversationID)
	if err != nil {
		return "", internal(err, "load participants")
	}
	if len(parts) == 0 {
		return "", notFound("conversation %s not found", conversationID)
	}
	member := false
	other := ""
	for _, p := range parts {
		if p.UserEmail == me.Email {
			member = true
		} else {
			other = p.UserEmail
		}
	}
	if !member {
		return "", forbidden("not a participant of this conversation")
	}
	return other, nil
}

// SendDirectMessage stores a message from the caller and notifies the other
// participant.
func (s *Service) SendDirectMessage(ctx context.Context, me models.Identity, conversationID, body string) (*models.DirectMessage, error) {
	if err := requireIdentity(me); err != nil {
		return nil, err
	}
	recipient, err := s.otherParticipant(ctx, me, conversationID)
	if err != nil {
		return nil, err
	}
	body = Sanitize(body)
	if body == "" {
		return nil, invalid("message body is required")
	}

	msg := &models.DirectMessage{
		ConversationID: conversationID,
		SenderEmail:    me.Email,
		SenderName:     displayName(me),
		Body:           body,
	}
	if err := s.dms.Create(ctx, msg); err != nil {
		return nil, internal(err, "store direct message")
	}
	metrics.MessagesPosted.WithLabelValues("dm").Inc()

	if recipient != "" {
		n := &models.Notification{
			Type:           models.NotificationDM,
			Title:          fmt.Sprintf("New message from %s", msg.SenderName),
			Description:    preview(body, previewLength),
			Link:           ConversationLink(conversationID),
			ActorEmail:     me.Email,
			RecipientEmail: &recipient,
		}
		n.SetTarget(models.ConversationTarget(conversationID))
		s.notify(ctx, n)
	}
	return msg, nil
}

// ListConversations returns one row per conversation of the caller with the
// latest message, most recent activity first. Conversations without
// messages sort last, newest first among themselves.
func (s *Service) ListConversations(ctx context.Context, me models.Identity) ([]ConversationSummary, error) {
	if err := requireIdentity(me); err != nil {
		return nil, err
	}
	convs, err := s.conversations.ListForUser(ctx, me.Email)
	if err != nil {
		return nil, internal(err, "list conversations")
	}
	ids := make([]string, 0, len(convs))
	otherEmails := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
		for _, p := range c.Participants {
			if p.UserEmail != me.Email {
				otherEmails = append(otherEmails, p.UserEmail)
			}
		}
	}

	latest, err := s.dms.LatestFor(ctx, ids)
	if err != nil {
		return nil, internal(err, "load latest messages")
	}
	profiles := map[string]models.User{}
	users, err := s.users.GetUsersByEmails(ctx, otherEmails)
	if err != nil {
		logger.Log.Warn("participant profiles unavailable", zap.Error(err))
	}
	for _, u := range users {
		profiles[u.Email] = u
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		row := ConversationSummary{ConversationID: c.ID, CreatedAt: c.CreatedAt}
		for _, p := range c.Participants {
			if p.UserEmail == me.Email {
				continue
			}
			row.Other = PublicUser{Email: p.UserEmail}
			if u, ok := profiles[p.UserEmail]; ok {
				row.Other = publicUser(&u)
			}
		}
		if m, ok := latest[c.ID]; ok {
			row.LastMessage = &m
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessage, out[j].LastMessage
		switch {
		case a != nil && b != nil:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListDirectMessages pages backwards through a conversation the caller
// participates in. The result is in ascending id order.
func (s *Service) ListDirectMessages(ctx context.Context, me models.Identity, conversationID string, beforeID uint, limit int) ([]models.DirectMessage, error) {
	if err := requireIdentity(me); err != nil {
		return nil, err
	}
	if _, err := s.otherParticipant(ctx, me, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.dms.ListBefore(ctx, conversationID, beforeID, normalizeLimit(limit))
	if err != nil {
		return nil, internal(err, "list direct messages")
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []models.DirectMessage{}
	}
	return msgs, nil
}
