package memstore

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/models"
)

type markerRepo struct{ s *Store }

func (r markerRepo) Upsert(ctx context.Context, userEmail string, roomID uint, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("markers.upsert"); err != nil {
		return err
	}
	for id, m := range r.s.markers {
		if m.UserEmail == userEmail && m.RoomID == roomID {
			m.LastReadAt = at
			r.s.markers[id] = m
			return nil
		}
	}
	id := r.s.next("markers")
	r.s.markers[id] = models.ReadMarker{ID: id, UserEmail: userEmail, RoomID: roomID, LastReadAt: at}
	return nil
}

func (r markerRepo) ListForUser(ctx context.Context, userEmail string) ([]models.ReadMarker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("markers.list"); err != nil {
		return nil, err
	}
	var out []models.ReadMarker
	for _, id := range sortedKeys(r.s.markers) {
		if m := r.s.markers[id]; m.UserEmail == userEmail {
			out = append(out, m)
		}
	}
	return out, nil
}
