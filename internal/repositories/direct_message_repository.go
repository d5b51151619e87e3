package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"gorm.io/gorm"
)

// DirectMessageRepository defines the interface for direct message storage
type DirectMessageRepository interface {
	Create(ctx context.Context, msg *models.DirectMessage) error
	ListAll(ctx context.Context, conversationID string) ([]models.DirectMessage, error)
	ListBefore(ctx context.Context, conversationID string, beforeID uint, limit int) ([]models.DirectMessage, error)
	LatestFor(ctx context.Context, conversationIDs []string) (map[string]models.DirectMessage, error)
}

type sqlDirectMessageRepository struct {
	db *gorm.DB
}

func NewSQLDirectMessageRepository(db *gorm.DB) DirectMessageRepository {
	return &sqlDirectMessageRepository{db: db}
}

func (r *sqlDirectMessageRepository) Create(ctx context.Context, msg *models.DirectMessage) error {
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

// ListAll returns the full history oldest first
func (r *sqlDirectMessageRepository) ListAll(ctx context.Context, conversationID string) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("id ASC").Find(&msgs).Error
	return msgs, translate(err)
}

// ListBefore returns up to limit messages newest-first
func (r *sqlDirectMessageRepository) ListBefore(ctx context.Context, conversationID string, beforeID uint, limit int) ([]models.DirectMessage, error) {
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []models.DirectMessage
	err := q.Order("id DESC").Limit(limit).Find(&msgs).Error
	return msgs, translate(err)
}

// LatestFor returns the single most recent message of each conversation
func (r *sqlDirectMessageRepository) LatestFor(ctx context.Context, conversationIDs []string) (map[string]models.DirectMessage, error) {
	out := make(map[string]models.DirectMessage, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	var msgs []models.DirectMessage
	err := r.db.WithContext(ctx).
		Where("id IN (?)",
			r.db.WithContext(ctx).Model(&models.DirectMessage{}).
				Select("MAX(id)").
				Where("conversation_id IN ?", conversationIDs).
				Group("conversation_id"),
		).
		Find(&msgs).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, m := range msgs {
		out[m.ConversationID] = m
	}
	return out, nil
}
