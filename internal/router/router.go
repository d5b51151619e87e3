package router

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/chat"
	"github.com/anonto42/nano-midea/chat/internal/handlers"
	"github.com/anonto42/nano-midea/chat/internal/live"
	"github.com/anonto42/nano-midea/chat/internal/middleware"
	"github.com/anonto42/nano-midea/chat/pkg/config"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"github.com/labstack/echo/v4"
)

const (
	limiterSweepEvery = time.Minute
	limiterIdle       = 10 * time.Minute
)

// SetupRoutes configures all application routes and injects dependencies.
// verifier is only used when AUTH_PROVIDER=firebase. Background work started
// here stops when ctx is cancelled.
func SetupRoutes(ctx context.Context, e *echo.Echo, cfg *config.Config, db *config.DB, verifier middleware.TokenVerifier) error {
	stores, err := buildStores(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to prepare stores: %w", err)
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck(healthChecks(db)))

	// --- Services ---
	service := chat.NewService(stores)
	poller := live.NewPoller(service, cfg.StreamPollInterval)
	limiter := middleware.NewRateLimiter(cfg.PostRatePerSec, cfg.PostRateBurst)
	go limiter.RunCleanup(ctx, limiterSweepEvery, limiterIdle)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	switch cfg.AuthProvider {
	case "firebase":
		if verifier == nil {
			return fmt.Errorf("firebase auth selected but no token verifier configured")
		}
		api.Use(middleware.FirebaseAuthMiddleware(verifier, stores.Users))
		logger.Log.Info("Firebase authentication middleware applied to /api/v1 group.")
	default:
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		logger.Log.Info("JWT authentication middleware applied to /api/v1 group.")
	}

	// Room routes
	roomHandler := handlers.NewRoomHandler(service, poller, cfg.WSInsecureSkipVerify)
	roomHandler.RegisterRoomRoutes(api, limiter.Middleware())
	logger.Log.Info("Room routes configured.")

	// Direct message routes
	dmHandler := handlers.NewDMHandler(service)
	dmHandler.RegisterDMRoutes(api, limiter.Middleware())
	logger.Log.Info("Direct message routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(stores.Notifications, stores.Users)
	notificationHandler.RegisterNotificationRoutes(api)
	logger.Log.Info("Notification routes configured.")

	logger.Log.Info("All routes configured.")
	return nil
}

func healthChecks(db *config.DB) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if db.SQL != nil {
		checks["sql"] = func(ctx context.Context) error {
			sqlDB, err := db.SQL.DB()
			if err != nil {
				return err
			}
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(pctx)
		}
	}
	if db.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error {
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return db.Mongo.Ping(pctx, nil)
		}
	}
	return checks
}
