package chat

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"go.uber.org/zap"
)

// ReactionSummary is one emoji's tally relative to the requesting user.
type ReactionSummary struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"`
}

// MessageView is a ledger message as delivered to clients. Username and Body
// are frozen at send time; Avatar and Role are joined from the author's
// current profile.
type MessageView struct {
	ID          uint                `json:"id"`
	RoomID      uint                `json:"room_id"`
	UserEmail   string              `json:"user_email"`
	Username    string              `json:"username"`
	Body        string              `json:"body"`
	CreatedAt   time.Time           `json:"created_at"`
	Avatar      string              `json:"avatar,omitempty"`
	Role        string              `json:"role,omitempty"`
	Attachments []models.Attachment `json:"attachments"`
	Reactions   []ReactionSummary   `json:"reactions"`
}

// PublicUser is the part of a profile shown to the other side of a DM.
type PublicUser struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ConversationView is the result of opening a conversation.
type ConversationView struct {
	ConversationID string                 `json:"conversation_id"`
	Other          PublicUser             `json:"other"`
	Messages       []models.DirectMessage `json:"messages"`
}

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	ConversationID string                `json:"conversation_id"`
	Other          PublicUser            `json:"other"`
	LastMessage    *models.DirectMessage `json:"last_message"`
	CreatedAt      time.Time             `json:"created_at"`
}

// summarize tallies reactions in allow-list order, omitting zero counts.
// Stored emoji outside the allow-list are appended in first-seen order.
func summarize(reactions []models.Reaction, viewer string) []ReactionSummary {
	byEmoji := map[string]*ReactionSummary{}
	var extra []string
	for _, r := range reactions {
		sum, ok := byEmoji[r.Emoji]
		if !ok {
			sum = &ReactionSummary{Emoji: r.Emoji}
			byEmoji[r.Emoji] = sum
			if allowedIndex(r.Emoji) < 0 {
				extra = append(extra, r.Emoji)
			}
		}
		sum.Count++
		if r.UserEmail == viewer {
			sum.Reacted = true
		}
	}

	out := []ReactionSummary{}
	for _, e := range append(append([]string{}, AllowedEmoji...), extra...) {
		if sum, ok := byEmoji[e]; ok {
			out = append(out, *sum)
		}
	}
	return out
}

// views joins current author profiles onto msgs. A failed profile lookup
// degrades to views without avatar and role.
func (s *Service) views(ctx context.Context, msgs []models.Message, viewer string) []MessageView {
	profiles := map[string]models.User{}
	if len(msgs) > 0 {
		emails := make([]string, 0, len(msgs))
		seen := map[string]bool{}
		for _, m := range msgs {
			if !seen[m.UserEmail] {
				seen[m.UserEmail] = true
				emails = append(emails, m.UserEmail)
			}
		}
		users, err := s.users.GetUsersByEmails(ctx, emails)
		if err != nil {
			logger.Log.Warn("author profiles unavailable", zap.Error(err))
		}
		for _, u := range users {
			profiles[u.Email] = u
		}
	}

	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		v := MessageView{
			ID:          m.ID,
			RoomID:      m.RoomID,
			UserEmail:   m.UserEmail,
			Username:    m.Username,
			Body:        m.Body,
			CreatedAt:   m.CreatedAt,
			Attachments: m.Attachments,
			Reactions:   summarize(m.Reactions, viewer),
		}
		if v.Attachments == nil {
			v.Attachments = []models.Attachment{}
		}
		if u, ok := profiles[m.UserEmail]; ok {
			v.Avatar = u.AvatarURL
			v.Role = u.Role
		}
		out = append(out, v)
	}
	return out
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{Email: u.Email, Name: u.Name, Avatar: u.AvatarURL}
}
