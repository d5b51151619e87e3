package memstore

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
)

type reactionRepo struct{ s *Store }

func (r reactionRepo) Toggle(ctx context.Context, messageID uint, userEmail, emoji string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("reactions.toggle"); err != nil {
		return false, err
	}
	if _, ok := r.s.messages[messageID]; !ok {
		return false, repositories.ErrNotFound
	}
	for id, re := range r.s.reactions {
		if re.MessageID == messageID && re.UserEmail == userEmail && re.Emoji == emoji {
			delete(r.s.reactions, id)
			return false, nil
		}
	}
	id := r.s.next("reactions")
	r.s.reactions[id] = models.Reaction{
		ID:        id,
		MessageID: messageID,
		UserEmail: userEmail,
		Emoji:     emoji,
		CreatedAt: r.s.clock(),
	}
	return true, nil
}

func (r reactionRepo) ListForMessage(ctx context.Context, messageID uint) ([]models.Reaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("reactions.list"); err != nil {
		return nil, err
	}
	out := []models.Reaction{}
	for _, id := range sortedKeys(r.s.reactions) {
		if re := r.s.reactions[id]; re.MessageID == messageID {
			out = append(out, re)
		}
	}
	return out, nil
}
