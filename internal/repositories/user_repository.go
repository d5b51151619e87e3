package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the read side of the user profile table that chat
// depends on. Profiles are owned by the account service.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error)
	FindByNames(ctx context.Context, names []string) ([]models.User, error)
}

// SQLUserRepository implements UserRepository with GORM
type SQLUserRepository struct {
	db *gorm.DB
}

// NewSQLUserRepository creates a new SQLUserRepository
func NewSQLUserRepository(db *gorm.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

// GetUserByEmail retrieves a user by email
func (r *SQLUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID
func (r *SQLUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUsersByEmails loads the profiles for a batch of emails in one query
func (r *SQLUserRepository) GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).Where("email IN ?", emails).Find(&users).Error
	return users, translate(err)
}

// FindByNames matches display names case-insensitively
func (r *SQLUserRepository) FindByNames(ctx context.Context, names []string) ([]models.User, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	var users []models.User
	err := r.db.WithContext(ctx).Where("LOWER(name) IN ?", lowered).Find(&users).Error
	return users, translate(err)
}
