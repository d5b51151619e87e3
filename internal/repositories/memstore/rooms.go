package memstore

import (
	"context"
	"sort"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
)

type roomRepo struct{ s *Store }

func (r roomRepo) ListActive(ctx context.Context) ([]models.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("rooms.list"); err != nil {
		return nil, err
	}
	out := []models.Room{}
	for _, room := range r.s.rooms {
		if room.Active {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r roomRepo) ActiveIDs(ctx context.Context) ([]uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("rooms.ids"); err != nil {
		return nil, err
	}
	var ids []uint
	for _, id := range sortedKeys(r.s.rooms) {
		if r.s.rooms[id].Active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r roomRepo) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("rooms.get"); err != nil {
		return nil, err
	}
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &room, nil
}

func (r roomRepo) Create(ctx context.Context, room *models.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("rooms.create"); err != nil {
		return err
	}
	for _, existing := range r.s.rooms {
		if existing.Name == room.Name {
			return repositories.ErrDuplicate
		}
	}
	room.ID = r.s.next("rooms")
	room.Active = true
	room.CreatedAt = r.s.clock()
	r.s.rooms[room.ID] = *room
	return nil
}

func (r roomRepo) Deactivate(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return repositories.ErrNotFound
	}
	room.Active = false
	r.s.rooms[id] = room
	return nil
}
