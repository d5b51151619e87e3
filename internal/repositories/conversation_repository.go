package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"gorm.io/gorm"
)

// ConversationRepository defines the interface for direct conversations
type ConversationRepository interface {
	ConversationIDsFor(ctx context.Context, userEmail string) ([]string, error)
	FindWithParticipant(ctx context.Context, conversationIDs []string, userEmail string) (string, error)
	CreateWithParticipants(ctx context.Context, conv *models.Conversation, first, second string) error
	Participants(ctx context.Context, conversationID string) ([]models.Participant, error)
	ListForUser(ctx context.Context, userEmail string) ([]models.Conversation, error)
}

// SQLConversationRepository implements ConversationRepository with GORM
type SQLConversationRepository struct {
	db *gorm.DB
}

// NewSQLConversationRepository creates a new SQLConversationRepository
func NewSQLConversationRepository(db *gorm.DB) *SQLConversationRepository {
	return &SQLConversationRepository{db: db}
}

func (r *SQLConversationRepository) ConversationIDsFor(ctx context.Context, userEmail string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("user_email = ?", userEmail).
		Pluck("conversation_id", &ids).Error
	return ids, translate(err)
}

// FindWithParticipant returns the first of conversationIDs that userEmail
// also participates in.
func (r *SQLConversationRepository) FindWithParticipant(ctx context.Context, conversationIDs []string, userEmail string) (string, error) {
	if len(conversationIDs) == 0 {
		return "", ErrNotFound
	}
	var p models.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id IN ? AND user_email = ?", conversationIDs, userEmail).
		Order("id ASC").
		First(&p).Error
	if err != nil {
		return "", translate(err)
	}
	return p.ConversationID, nil
}

// CreateWithParticipants inserts the conversation and both participant rows
// atomically.
func (r *SQLConversationRepository) CreateWithParticipants(ctx context.Context, conv *models.Conversation, first, second string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv.Participants = nil
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		parts := []models.Participant{
			{ConversationID: conv.ID, UserEmail: first},
			{ConversationID: conv.ID, UserEmail: second},
		}
		if err := tx.Create(&parts).Error; err != nil {
			return err
		}
		conv.Participants = parts
		return nil
	}))
}

func (r *SQLConversationRepository) Participants(ctx context.Context, conversationID string) ([]models.Participant, error) {
	var parts []models.Participant
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("id ASC").Find(&parts).Error
	return parts, translate(err)
}

// ListForUser returns the user's conversations with both participants loaded
func (r *SQLConversationRepository) ListForUser(ctx context.Context, userEmail string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN (?)",
			r.db.WithContext(ctx).Model(&models.Participant{}).Select("conversation_id").Where("user_email = ?", userEmail),
		).
		Find(&convs).Error
	return convs, translate(err)
}
