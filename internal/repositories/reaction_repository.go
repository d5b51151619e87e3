package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines the interface for reaction operations
type ReactionRepository interface {
	Toggle(ctx context.Context, messageID uint, userEmail, emoji string) (added bool, err error)
	ListForMessage(ctx context.Context, messageID uint) ([]models.Reaction, error)
}

// SQLReactionRepository implements ReactionRepository with GORM
type SQLReactionRepository struct {
	db *gorm.DB
}

// NewSQLReactionRepository creates a new SQLReactionRepository
func NewSQLReactionRepository(db *gorm.DB) *SQLReactionRepository {
	return &SQLReactionRepository{db: db}
}

// Toggle deletes the (message, user, emoji) triple if present, otherwise
// inserts it. A concurrent insert of the same triple is absorbed by the
// unique index.
func (r *SQLReactionRepository) Toggle(ctx context.Context, messageID uint, userEmail, emoji string) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("message_id = ? AND user_email = ? AND emoji = ?", messageID, userEmail, emoji).
			Delete(&models.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		added = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Reaction{
			MessageID: messageID,
			UserEmail: userEmail,
			Emoji:     emoji,
		}).Error
	})
	return added, translate(err)
}

func (r *SQLReactionRepository) ListForMessage(ctx context.Context, messageID uint) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Order("id ASC").Find(&reactions).Error
	return reactions, translate(err)
}
