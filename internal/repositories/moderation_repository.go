package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ModerationRepository stores the moderation audit trail
type ModerationRepository interface {
	Record(ctx context.Context, event *models.ModerationEvent) error
	ListForRoom(ctx context.Context, roomID uint, limit int64) ([]models.ModerationEvent, error)
}

// MongoModerationRepository implements ModerationRepository for MongoDB
type MongoModerationRepository struct {
	collection *mongo.Collection
}

// NewMongoModerationRepository creates a new MongoModerationRepository
func NewMongoModerationRepository(db *mongo.Database) *MongoModerationRepository {
	return &MongoModerationRepository{collection: db.Collection("moderation_events")}
}

func (r *MongoModerationRepository) Record(ctx context.Context, event *models.ModerationEvent) error {
	event.ID = primitive.NewObjectID()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

func (r *MongoModerationRepository) ListForRoom(ctx context.Context, roomID uint, limit int64) ([]models.ModerationEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []models.ModerationEvent{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// NopModerationRepository discards events; used when MongoDB is not configured.
type NopModerationRepository struct{}

func (NopModerationRepository) Record(context.Context, *models.ModerationEvent) error { return nil }

func (NopModerationRepository) ListForRoom(context.Context, uint, int64) ([]models.ModerationEvent, error) {
	return []models.ModerationEvent{}, nil
}
