package memstore

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
)

type conversationRepo struct{ s *Store }

func (r conversationRepo) ConversationIDsFor(ctx context.Context, userEmail string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("conversations.ids"); err != nil {
		return nil, err
	}
	var ids []string
	for _, id := range sortedKeys(r.s.participants) {
		if p := r.s.participants[id]; p.UserEmail == userEmail {
			ids = append(ids, p.ConversationID)
		}
	}
	return ids, nil
}

func (r conversationRepo) FindWithParticipant(ctx context.Context, conversationIDs []string, userEmail string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range sortedKeys(r.s.participants) {
		p := r.s.participants[id]
		if p.UserEmail == userEmail && contains(conversationIDs, p.ConversationID) {
			return p.ConversationID, nil
		}
	}
	return "", repositories.ErrNotFound
}

func (r conversationRepo) CreateWithParticipants(ctx context.Context, conv *models.Conversation, first, second string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("conversations.create"); err != nil {
		return err
	}
	for _, existing := range r.s.conversations {
		if existing.PairKey == conv.PairKey || existing.ID == conv.ID {
			return repositories.ErrDuplicate
		}
	}
	conv.CreatedAt = r.s.clock()
	conv.Participants = nil
	for _, email := range []string{first, second} {
		p := models.Participant{
			ID:             r.s.next("participants"),
			ConversationID: conv.ID,
			UserEmail:      email,
			CreatedAt:      conv.CreatedAt,
		}
		r.s.participants[p.ID] = p
		conv.Participants = append(conv.Participants, p)
	}
	row := *conv
	row.Participants = nil
	r.s.conversations[conv.ID] = row
	return nil
}

func (r conversationRepo) Participants(ctx context.Context, conversationID string) ([]models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.participantsOf(conversationID), nil
}

func (r conversationRepo) ListForUser(ctx context.Context, userEmail string) ([]models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Conversation{}
	seen := map[string]bool{}
	for _, id := range sortedKeys(r.s.participants) {
		p := r.s.participants[id]
		if p.UserEmail != userEmail || seen[p.ConversationID] {
			continue
		}
		seen[p.ConversationID] = true
		conv := r.s.conversations[p.ConversationID]
		conv.Participants = r.participantsOf(conv.ID)
		out = append(out, conv)
	}
	return out, nil
}

func (r conversationRepo) participantsOf(conversationID string) []models.Participant {
	var out []models.Participant
	for _, id := range sortedKeys(r.s.participants) {
		if p := r.s.participants[id]; p.ConversationID == conversationID {
			out = append(out, p)
		}
	}
	return out
}
