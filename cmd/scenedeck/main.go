package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scenedeck/scenedeck/internal/api"
	"github.com/scenedeck/scenedeck/internal/backend"
	"github.com/scenedeck/scenedeck/internal/catalog"
	"github.com/scenedeck/scenedeck/internal/config"
	"github.com/scenedeck/scenedeck/internal/db"
	"github.com/scenedeck/scenedeck/internal/events"
	"github.com/scenedeck/scenedeck/internal/jobs"
	"github.com/scenedeck/scenedeck/internal/logging"
	"github.com/scenedeck/scenedeck/internal/playback"
	"github.com/scenedeck/scenedeck/internal/player"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ThumbnailDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create thumbnail dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting scenedeck",
		"version", Version,
		"data_dir", cfg.DataDir,
		"backend_url", cfg.BackendURL,
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())
	client := backend.NewHTTPClient(cfg.BackendURL, logging.WithComponent(logger, "backend"))

	bus := events.NewBus()

	catalogSvc := catalog.NewService(repo, client, logging.WithComponent(logger, "catalog"))
	catalogSvc.SubscribeTo(bus)

	jobManager := jobs.NewManager(client, bus, cfg.ParamLimits(), logging.WithComponent(logger, "jobs"))
	jobManager.SetSettleDelay(cfg.SettleDelay())

	sessions := player.NewStore()
	thumbnails := playback.NewCache(cfg.ThumbnailDir(), client, logging.WithComponent(logger, "playback"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port,
		Version:    Version,
		Catalog:    catalogSvc,
		Backend:    client,
		Jobs:       jobManager,
		Sessions:   sessions,
		Thumbnails: thumbnails,
		Bus:        bus,
		Limits:     cfg.ParamLimits(),
		Logger:     logging.WithComponent(logger, "api"),
		StartTime:  startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
