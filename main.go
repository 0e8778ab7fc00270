package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/huxley-dev/account-be/internal/api"
	"github.com/huxley-dev/account-be/internal/auth"
	"github.com/huxley-dev/account-be/internal/config"
	"github.com/huxley-dev/account-be/internal/database"
	"github.com/huxley-dev/account-be/internal/logger"
	"github.com/huxley-dev/account-be/internal/services"
	"github.com/huxley-dev/account-be/internal/upload"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Ensure the directory for profile image uploads exists
	if err := os.MkdirAll(filepath.Join(cfg.UploadDir, "profiles"), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	userService := services.NewUserService(db)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	uploads := upload.NewStore(cfg.UploadDir)

	// Set up router
	router := api.NewRouter(userService, tokens, uploads)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
