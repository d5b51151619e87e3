package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/chat/internal/middleware"
	"github.com/anonto42/nano-midea/chat/internal/router"
	"github.com/anonto42/nano-midea/chat/pkg/config"
	"github.com/anonto42/nano-midea/chat/pkg/firebase"
	"github.com/anonto42/nano-midea/chat/pkg/logger"
	"github.com/anonto42/nano-midea/chat/pkg/metrics"
	"github.com/anonto42/nano-midea/chat/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase
	var verifier middleware.TokenVerifier
	if cfg.AuthProvider == "firebase" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Log.Fatal("Failed to initialize Firebase", zap.Error(err))
		}
		verifier = firebaseApp.AuthClient
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	// Request contexts derive from ctx so open streams end on shutdown.
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	// Validator
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	if err := router.SetupRoutes(ctx, e, cfg, db, verifier); err != nil {
		logger.Log.Fatal("Failed to set up routes", zap.Error(err))
	}

	// Metrics on their own port
	m := echo.New()
	m.HideBanner = true
	m.HidePort = true
	m.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	go func() {
		if err := m.Start(":" + cfg.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	// Start server
	go func() {
		logger.Log.Info("Starting chat server", zap.String("port", cfg.Port), zap.String("db", cfg.DBDriver))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server shutdown", zap.Error(err))
	}
	if err := m.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Metrics shutdown", zap.Error(err))
	}
}
