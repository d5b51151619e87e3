package memstore

import (
	"context"
	"sort"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
)

type notificationRepo struct{ s *Store }

func (r notificationRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("notifications.create"); err != nil {
		return err
	}
	n.ID = r.s.next("notifications")
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.clock()
	}
	r.s.notifications[n.ID] = *n
	return nil
}

// addressedTo returns rows for recipient newest first. Caller holds s.mu.
func (r notificationRepo) addressedTo(recipient string, keep func(models.Notification) bool) []models.Notification {
	out := []models.Notification{}
	for _, n := range r.s.notifications {
		if n.RecipientEmail != nil && *n.RecipientEmail == recipient && keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r notificationRepo) GetByRecipient(ctx context.Context, recipient string, page, limit int) ([]models.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.addressedTo(recipient, func(models.Notification) bool { return true })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r notificationRepo) ListByType(ctx context.Context, recipient, notificationType string) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("notifications.list"); err != nil {
		return nil, err
	}
	return r.addressedTo(recipient, func(n models.Notification) bool { return n.Type == notificationType }), nil
}

func (r notificationRepo) GetUnreadCount(ctx context.Context, recipient string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.addressedTo(recipient, func(n models.Notification) bool { return !n.IsRead }))), nil
}

func (r notificationRepo) MarkAsRead(ctx context.Context, id uint, recipient string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientEmail == nil || *n.RecipientEmail != recipient {
		return repositories.ErrNotFound
	}
	n.IsRead = true
	r.s.notifications[id] = n
	return nil
}

func (r notificationRepo) MarkAllAsRead(ctx context.Context, recipient string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, n := range r.s.notifications {
		if n.RecipientEmail != nil && *n.RecipientEmail == recipient {
			n.IsRead = true
			r.s.notifications[id] = n
		}
	}
	return nil
}
