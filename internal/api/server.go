// Package api exposes the gateway's HTTP surface: proxy and cached browse
// endpoints, player session control, and a websocket push channel for the
// display.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scenedeck/scenedeck/internal/backend"
	"github.com/scenedeck/scenedeck/internal/catalog"
	"github.com/scenedeck/scenedeck/internal/events"
	"github.com/scenedeck/scenedeck/internal/jobs"
	"github.com/scenedeck/scenedeck/internal/playback"
	"github.com/scenedeck/scenedeck/internal/player"
	"github.com/scenedeck/scenedeck/internal/timeline"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// CatalogService is the slice of the catalog the API consumes.
type CatalogService interface {
	Folders(ctx context.Context) ([]string, error)
	Videos(ctx context.Context, folder string) ([]catalog.Video, error)
	LoadTimeline(ctx context.Context, folder, filename string) (timeline.Timeline, error)
}

type ServerConfig struct {
	Port       int
	Version    string
	Catalog    CatalogService
	Backend    backend.Client
	Jobs       *jobs.Manager
	Sessions   *player.Store
	Thumbnails *playback.Cache
	Bus        *events.Bus
	Limits     backend.ParamLimits
	Logger     *slog.Logger
	StartTime  time.Time
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      NewRouter(cfg),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
