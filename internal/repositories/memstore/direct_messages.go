package memstore

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
)

type directMessageRepo struct{ s *Store }

func (r directMessageRepo) Create(ctx context.Context, msg *models.DirectMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("dms.create"); err != nil {
		return err
	}
	msg.ID = r.s.next("dms")
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.s.clock()
	}
	r.s.dms[msg.ID] = *msg
	return nil
}

func (r directMessageRepo) ListAll(ctx context.Context, conversationID string) ([]models.DirectMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.DirectMessage{}
	for _, id := range sortedKeys(r.s.dms) {
		if m := r.s.dms[id]; m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r directMessageRepo) ListBefore(ctx context.Context, conversationID string, beforeID uint, limit int) ([]models.DirectMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := sortedKeys(r.s.dms)
	out := []models.DirectMessage{}
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.s.dms[ids[i]]
		if m.ConversationID == conversationID && (beforeID == 0 || m.ID < beforeID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r directMessageRepo) LatestFor(ctx context.Context, conversationIDs []string) (map[string]models.DirectMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]models.DirectMessage{}
	for _, id := range sortedKeys(r.s.dms) {
		m := r.s.dms[id]
		if contains(conversationIDs, m.ConversationID) {
			out[m.ConversationID] = m
		}
	}
	return out, nil
}
