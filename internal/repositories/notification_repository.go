package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByRecipient(ctx context.Context, recipientEmail string, page, limit int) ([]models.Notification, int64, error)
	ListByType(ctx context.Context, recipientEmail, notificationType string) ([]models.Notification, error)
	GetUnreadCount(ctx context.Context, recipientEmail string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID uint, recipientEmail string) error
	MarkAllAsRead(ctx context.Context, recipientEmail string) error
}

type sqlNotificationRepository struct {
	db *gorm.DB
}

func NewSQLNotificationRepository(db *gorm.DB) NotificationRepository {
	return &sqlNotificationRepository{db: db}
}

func (r *sqlNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return translate(r.db.WithContext(ctx).Create(notification).Error)
}

func (r *sqlNotificationRepository) GetByRecipient(ctx context.Context, recipientEmail string, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Notification{}).Where("recipient_email = ?", recipientEmail).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	offset := (page - 1) * limit
	err := db.Where("recipient_email = ?", recipientEmail).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, translate(err)
}

// ListByType returns every notification of one type addressed to the
// recipient, newest first. Broadcast rows are not included.
func (r *sqlNotificationRepository) ListByType(ctx context.Context, recipientEmail, notificationType string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_email = ? AND type = ?", recipientEmail, notificationType).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, translate(err)
}

func (r *sqlNotificationRepository) GetUnreadCount(ctx context.Context, recipientEmail string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_email = ? AND is_read = ?", recipientEmail, false).
		Count(&count).Error
	return count, translate(err)
}

func (r *sqlNotificationRepository) MarkAsRead(ctx context.Context, notificationID uint, recipientEmail string) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_email = ?", notificationID, recipientEmail).
		Update("is_read", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports unchanged rows as unaffected, so a second mark is not a miss.
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_email = ?", notificationID, recipientEmail).
		Count(&count).Error
	if err != nil {
		return translate(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlNotificationRepository) MarkAllAsRead(ctx context.Context, recipientEmail string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_email = ? AND is_read = ?", recipientEmail, false).
		Update("is_read", true).Error)
}
