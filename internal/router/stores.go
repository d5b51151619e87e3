package router

import (
	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/models"
	"github.com/anonto42/nano-midea/chat/internal/repositories"
	"github.com/anonto42/nano-midea/chat/internal/repositories/memstore"
	"github.com/anonto42/nano-midea/chat/pkg/config"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"go.uber.org/zap"
)

// buildStores picks the repository implementations for the configured
// drivers and migrates the relational schema.
func buildStores(cfg *config.Config, db *config.DB) (chat.Stores, error) {
	var st chat.Stores

	if db.SQL != nil {
		// AutoMigrate relational models
		err := db.SQL.AutoMigrate(
			&models.User{},
			&models.Room{},
			&models.Message{},
			&models.Attachment{},
			&models.Reaction{},
			&models.ReadMarker{},
			&models.Conversation{},
			&models.Participant{},
			&models.DirectMessage{},
			&models.Notification{},
		)
		if err != nil {
			return st, err
		}
		logger.Log.Info("Auto-migrations completed for all models.", zap.String("driver", cfg.DBDriver))

		st = chat.Stores{
			Rooms:          repositories.NewSQLRoomRepository(db.SQL),
			Messages:       repositories.NewSQLMessageRepository(db.SQL),
			Reactions:      repositories.NewSQLReactionRepository(db.SQL),
			ReadMarkers:    repositories.NewSQLReadMarkerRepository(db.SQL),
			Notifications:  repositories.NewSQLNotificationRepository(db.SQL),
			Users:          repositories.NewSQLUserRepository(db.SQL),
			Conversations:  repositories.NewSQLConversationRepository(db.SQL),
			DirectMessages: repositories.NewSQLDirectMessageRepository(db.SQL),
		}
	} else {
		mem := memstore.New()
		st = chat.Stores{
			Rooms:          mem.Rooms(),
			Messages:       mem.Messages(),
			Reactions:      mem.Reactions(),
			ReadMarkers:    mem.ReadMarkers(),
			Notifications:  mem.Notifications(),
			Users:          mem.Users(),
			Conversations:  mem.Conversations(),
			DirectMessages: mem.DirectMessages(),
		}
		logger.Log.Warn("Using in-memory store, data is lost on restart.")
	}

	switch {
	case db.Mongo != nil:
		st.Moderation = repositories.NewMongoModerationRepository(db.Mongo.Database(cfg.MongoDatabase))
	case db.SQL == nil:
		st.Moderation = memstore.NewModerationLog()
	default:
		st.Moderation = repositories.NopModerationRepository{}
	}
	return st, nil
}
