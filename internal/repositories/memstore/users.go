package memstore

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
)

type userRepo struct{ s *Store }

func (r userRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range sortedKeys(r.s.users) {
		if u := r.s.users[id]; match(u) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r userRepo) filter(match func(models.User) bool) []models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, id := range sortedKeys(r.s.users) {
		if u := r.s.users[id]; match(u) {
			out = append(out, u)
		}
	}
	return out
}

func (r userRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r userRepo) GetUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid })
}

func (r userRepo) GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	return r.filter(func(u models.User) bool { return contains(emails, u.Email) }), nil
}

func (r userRepo) FindByNames(ctx context.Context, names []string) ([]models.User, error) {
	return r.filter(func(u models.User) bool { return containsFold(names, u.Name) }), nil
}
