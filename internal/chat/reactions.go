package chat

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
	"github.com/anonto42/nano-midea/chat/pkg/metrics"
	"github.com/pkg/errors"
)

// ToggleReaction adds the caller's emoji reaction to a message, or removes it
// if already present, and returns the recomputed summary for the message.
func (s *Service) ToggleReaction(ctx context.Context, id models.Identity, roomID, messageID uint, emoji string) ([]ReactionSummary, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	emoji, err := canonicalEmoji(emoji)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return nil, err
	}
	if _, err := s.messages.GetInRoom(ctx, roomID, messageID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFound("message %d not found in room %d", messageID, roomID)
		}
		return nil, internal(err, "load message")
	}

	added, err := s.reactions.Toggle(ctx, messageID, id.Email, emoji)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("message %d not found in room %d", messageID, roomID)
	}
	if err != nil {
		return nil, internal(err, "toggle reaction")
	}
	if added {
		metrics.ReactionToggles.WithLabelValues("added").Inc()
	} else {
		metrics.ReactionToggles.WithLabelValues("removed").Inc()
	}

	reactions, err := s.reactions.ListForMessage(ctx, messageID)
	if err != nil {
		return nil, internal(err, "list reactions")
	}
	return summarize(reactions, id.Email), nil
}
