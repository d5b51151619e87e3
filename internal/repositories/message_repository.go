package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository defines the interface for the room message ledger
type MessageRepository interface {
	CreateWithAttachments(ctx context.Context, msg *models.Message) error
	GetInRoom(ctx context.Context, roomID, messageID uint) (*models.Message, error)
	ListBefore(ctx context.Context, roomID, beforeID uint, limit int) ([]models.Message, error)
	ListAfter(ctx context.Context, roomID, afterID uint, limit int) ([]models.Message, error)
	LatestID(ctx context.Context, roomID uint) (uint, error)
	AttachmentsFor(ctx context.Context, messageID uint) ([]models.Attachment, error)
	Delete(ctx context.Context, messageID uint) error
}

// SQLMessageRepository implements MessageRepository with GORM
type SQLMessageRepository struct {
	db *gorm.DB
}

// NewSQLMessageRepository creates a new SQLMessageRepository
func NewSQLMessageRepository(db *gorm.DB) *SQLMessageRepository {
	return &SQLMessageRepository{db: db}
}

// CreateWithAttachments inserts the message and its attachment rows in one
// transaction; on any failure nothing is left behind.
func (r *SQLMessageRepository) CreateWithAttachments(ctx context.Context, msg *models.Message) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		files := msg.Attachments
		msg.Attachments = nil
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}
		for i := range files {
			files[i].MessageID = msg.ID
		}
		if len(files) > 0 {
			if err := tx.Create(&files).Error; err != nil {
				return err
			}
		}
		msg.Attachments = files
		return nil
	}))
}

func (r *SQLMessageRepository) GetInRoom(ctx context.Context, roomID, messageID uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("id = ? AND room_id = ?", messageID, roomID).
		First(&msg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

// ListBefore returns up to limit messages newest-first. beforeID 0 means
// "from the latest message".
func (r *SQLMessageRepository) ListBefore(ctx context.Context, roomID, beforeID uint, limit int) ([]models.Message, error) {
	q := r.withChildren(ctx).Where("room_id = ?", roomID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []models.Message
	err := q.Order("id DESC").Limit(limit).Find(&msgs).Error
	return msgs, translate(err)
}

// ListAfter returns up to limit messages with id > afterID, oldest first.
// Attachments and reactions are batch-loaded, one query per relation.
func (r *SQLMessageRepository) ListAfter(ctx context.Context, roomID, afterID uint, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.withChildren(ctx).
		Where("room_id = ? AND id > ?", roomID, afterID).
		Order("id ASC").Limit(limit).
		Find(&msgs).Error
	return msgs, translate(err)
}

func (r *SQLMessageRepository) LatestID(ctx context.Context, roomID uint) (uint, error) {
	var id *uint
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("room_id = ?", roomID).
		Select("MAX(id)").Scan(&id).Error
	if err != nil || id == nil {
		return 0, translate(err)
	}
	return *id, nil
}

func (r *SQLMessageRepository) AttachmentsFor(ctx context.Context, messageID uint) ([]models.Attachment, error) {
	var files []models.Attachment
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Order("id ASC").Find(&files).Error
	return files, translate(err)
}

// Delete removes a message with its reactions and attachments. The child
// rows are deleted explicitly so the result does not depend on the dialect
// enforcing ON DELETE CASCADE.
func (r *SQLMessageRepository) Delete(ctx context.Context, messageID uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Message{}, messageID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}

func (r *SQLMessageRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Reactions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}
