package memstore

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
)

type messageRepo struct{ s *Store }

func (r messageRepo) CreateWithAttachments(ctx context.Context, msg *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("messages.create"); err != nil {
		return err
	}
	// Attachment failure is checked before any write so a failed unit
	// leaves nothing behind, matching the SQL transaction.
	if len(msg.Attachments) > 0 {
		if err := r.s.injected("attachments.create"); err != nil {
			return err
		}
	}

	msg.ID = r.s.next("messages")
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.s.clock()
	}
	for i := range msg.Attachments {
		msg.Attachments[i].ID = r.s.next("attachments")
		msg.Attachments[i].MessageID = msg.ID
		r.s.attachments[msg.Attachments[i].ID] = msg.Attachments[i]
	}
	row := *msg
	row.Attachments, row.Reactions = nil, nil
	r.s.messages[msg.ID] = row
	return nil
}

func (r messageRepo) GetInRoom(ctx context.Context, roomID, messageID uint) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("messages.get"); err != nil {
		return nil, err
	}
	m, ok := r.s.messages[messageID]
	if !ok || m.RoomID != roomID {
		return nil, repositories.ErrNotFound
	}
	m = r.withChildren(m)
	return &m, nil
}

func (r messageRepo) ListBefore(ctx context.Context, roomID, beforeID uint, limit int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("messages.list"); err != nil {
		return nil, err
	}
	ids := sortedKeys(r.s.messages)
	out := []models.Message{}
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.s.messages[ids[i]]
		if m.RoomID != roomID || (beforeID > 0 && m.ID >= beforeID) {
			continue
		}
		out = append(out, r.withChildren(m))
	}
	return out, nil
}

func (r messageRepo) ListAfter(ctx context.Context, roomID, afterID uint, limit int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("messages.since"); err != nil {
		return nil, err
	}
	out := []models.Message{}
	for _, id := range sortedKeys(r.s.messages) {
		if len(out) >= limit {
			break
		}
		m := r.s.messages[id]
		if m.RoomID == roomID && m.ID > afterID {
			out = append(out, r.withChildren(m))
		}
	}
	return out, nil
}

func (r messageRepo) LatestID(ctx context.Context, roomID uint) (uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest uint
	for id, m := range r.s.messages {
		if m.RoomID == roomID && id > latest {
			latest = id
		}
	}
	return latest, nil
}

func (r messageRepo) AttachmentsFor(ctx context.Context, messageID uint) ([]models.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.attachmentsOf(messageID), nil
}

func (r messageRepo) Delete(ctx context.Context, messageID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("messages.delete"); err != nil {
		return err
	}
	if _, ok := r.s.messages[messageID]; !ok {
		return repositories.ErrNotFound
	}
	for id, a := range r.s.attachments {
		if a.MessageID == messageID {
			delete(r.s.attachments, id)
		}
	}
	for id, re := range r.s.reactions {
		if re.MessageID == messageID {
			delete(r.s.reactions, id)
		}
	}
	delete(r.s.messages, messageID)
	return nil
}

// withChildren attaches copies of the child rows. Caller holds s.mu.
func (r messageRepo) withChildren(m models.Message) models.Message {
	m.Attachments = r.attachmentsOf(m.ID)
	m.Reactions = []models.Reaction{}
	for _, id := range sortedKeys(r.s.reactions) {
		if re := r.s.reactions[id]; re.MessageID == m.ID {
			m.Reactions = append(m.Reactions, re)
		}
	}
	return m
}

func (r messageRepo) attachmentsOf(messageID uint) []models.Attachment {
	out := []models.Attachment{}
	for _, id := range sortedKeys(r.s.attachments) {
		if a := r.s.attachments[id]; a.MessageID == messageID {
			out = append(out, a)
		}
	}
	return out
}
