package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadMarkerRepository defines the interface for per-room read markers
type ReadMarkerRepository interface {
	Upsert(ctx context.Context, userEmail string, roomID uint, at time.Time) error
	ListForUser(ctx context.Context, userEmail string) ([]models.ReadMarker, error)
}

type sqlReadMarkerRepository struct {
	db *gorm.DB
}

func NewSQLReadMarkerRepository(db *gorm.DB) ReadMarkerRepository {
	return &sqlReadMarkerRepository{db: db}
}

func (r *sqlReadMarkerRepository) Upsert(ctx context.Context, userEmail string, roomID uint, at time.Time) error {
	marker := models.ReadMarker{UserEmail: userEmail, RoomID: roomID, LastReadAt: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_email"}, {Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read_at"}),
	}).Create(&marker).Error
	return translate(err)
}

func (r *sqlReadMarkerRepository) ListForUser(ctx context.Context, userEmail string) ([]models.ReadMarker, error) {
	var markers []models.ReadMarker
	err := r.db.WithContext(ctx).Where("user_email = ?", userEmail).Find(&markers).Error
	return markers, translate(err)
}
