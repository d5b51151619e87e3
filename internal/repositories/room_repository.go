package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"gorm.io/gorm"
)

// RoomRepository defines the interface for room directory operations
type RoomRepository interface {
	ListActive(ctx context.Context) ([]models.Room, error)
	ActiveIDs(ctx context.Context) ([]uint, error)
	GetByID(ctx context.Context, id uint) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Deactivate(ctx context.Context, id uint) error
}

// SQLRoomRepository implements RoomRepository with GORM
type SQLRoomRepository struct {
	db *gorm.DB
}

// NewSQLRoomRepository creates a new SQLRoomRepository
func NewSQLRoomRepository(db *gorm.DB) *SQLRoomRepository {
	return &SQLRoomRepository{db: db}
}

// ListActive returns active rooms ordered by name
func (r *SQLRoomRepository) ListActive(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&rooms).Error
	return rooms, translate(err)
}

func (r *SQLRoomRepository) ActiveIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("active = ?", true).Order("id ASC").Pluck("id", &ids).Error
	return ids, translate(err)
}

// GetByID returns a room regardless of its active flag
func (r *SQLRoomRepository) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (r *SQLRoomRepository) Create(ctx context.Context, room *models.Room) error {
	room.Active = true
	return translate(r.db.WithContext(ctx).Create(room).Error)
}

func (r *SQLRoomRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
