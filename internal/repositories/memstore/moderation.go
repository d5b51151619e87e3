package memstore

import (
	"context"
	"sync"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModerationLog keeps audit events in memory, newest last.
type ModerationLog struct {
	mu     sync.Mutex
	events []models.ModerationEvent
	fail   error
}

func NewModerationLog() *ModerationLog { return &ModerationLog{} }

// FailWith makes every Record call return err until reset with nil.
func (l *ModerationLog) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = err
}

func (l *ModerationLog) Record(ctx context.Context, event *models.ModerationEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return l.fail
	}
	event.ID = primitive.NewObjectID()
	l.events = append(l.events, *event)
	return nil
}

func (l *ModerationLog) ListForRoom(ctx context.Context, roomID uint, limit int64) ([]models.ModerationEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.ModerationEvent{}
	for i := len(l.events) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if l.events[i].RoomID == roomID {
			out = append(out, l.events[i])
		}
	}
	return out, nil
}
