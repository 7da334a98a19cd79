package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/amaumene/showsync/internal/api"
	"github.com/amaumene/showsync/internal/config"
	"github.com/amaumene/showsync/internal/controllers"
	"github.com/amaumene/showsync/internal/models"
	"github.com/amaumene/showsync/internal/scheduler"
	"github.com/amaumene/showsync/internal/services/trakt"
	"github.com/amaumene/showsync/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting showsync")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize Trakt client
	traktClient, err := trakt.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Trakt client: %w", err)
	}
	logger.Info("Trakt client initialized")

	// Check if we need to authenticate
	_, err = traktClient.GetToken()
	if err != nil {
		logger.Info("Trakt authentication required")
		ctx := context.Background()
		if err := traktClient.Authenticate(ctx); err != nil {
			return fmt.Errorf("failed to authenticate with Trakt: %w", err)
		}
	}

	// 5. Initialize controllers
	showsCtrl := controllers.NewShowsController(db, traktClient, logger)
	watchedCtrl := controllers.NewWatchedController(db, traktClient, showsCtrl, logger)
	trendingCtrl := controllers.NewTrendingController(db, traktClient, showsCtrl, cfg.TrendingPageSize, logger)
	episodesCtrl := controllers.NewEpisodesController(db, traktClient, logger)
	logger.Info("Controllers initialized")

	// 6. Initialize scheduler
	sched := scheduler.NewScheduler(watchedCtrl, trendingCtrl, episodesCtrl, cfg, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 7. Initialize HTTP server
	server := api.NewServer(cfg, db, watchedCtrl, trendingCtrl, logger)

	// Start server in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("showsync is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("showsync stopped")
	return nil
}
