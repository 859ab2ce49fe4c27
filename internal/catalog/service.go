package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/scenedeck/scenedeck/internal/backend"
	"github.com/scenedeck/scenedeck/internal/events"
	"github.com/scenedeck/scenedeck/internal/timeline"
)

// Service answers browse queries cache-aside: the backend is authoritative,
// the local database is the fallback when it is unreachable. Re-requesting a
// resource that is already being fetched cancels the stale fetch.
type Service struct {
	repo   Repository
	client backend.Client
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]*fetch
}

// fetch identifies one in-flight request for a logical resource.
type fetch struct {
	cancel context.CancelFunc
}

func NewService(repo Repository, client backend.Client, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		client:   client,
		logger:   logger,
		inflight: make(map[string]*fetch),
	}
}

// SubscribeTo refreshes cached state when a processing job settles: the
// stale scene payload is dropped and, on success, the video is marked as
// analyzed.
func (s *Service) SubscribeTo(bus *events.Bus) {
	bus.Subscribe(func(e events.Event) {
		done, ok := e.(events.ProcessingCompleted)
		if !ok {
			return
		}
		ctx := context.Background()
		if err := s.repo.DeleteScenePayload(ctx, done.Folder, done.Filename); err != nil {
			s.logger.Warn("failed to invalidate scene cache", "error", err)
		}
		if !done.Failed {
			if err := s.repo.SetHasScenes(ctx, done.Folder, done.Filename, true); err != nil {
				s.logger.Warn("failed to mark video analyzed", "error", err)
			}
		}
	})
}

// begin registers an in-flight fetch for a logical resource, canceling any
// previous fetch for the same key. The returned cleanup only unregisters the
// fetch it started, so a late finisher cannot evict a newer request.
func (s *Service) begin(ctx context.Context, key string) (context.Context, func()) {
	fetchCtx, cancel := context.WithCancel(ctx)
	f := &fetch{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}
	s.inflight[key] = f
	s.mu.Unlock()

	return fetchCtx, func() {
		s.mu.Lock()
		if s.inflight[key] == f {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
		cancel()
	}
}

// Folders lists the backend's folders, falling back to the cache when the
// backend is unreachable.
func (s *Service) Folders(ctx context.Context) ([]string, error) {
	fetchCtx, done := s.begin(ctx, "folders")
	defer done()

	folders, err := s.client.ListFolders(fetchCtx)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.Canceled) && ctx.Err() == nil {
			return nil, context.Canceled
		}
		s.logger.Warn("folder fetch failed, serving cache", "error", err)
		cached, cacheErr := s.repo.ListFolders(ctx)
		if cacheErr != nil || len(cached) == 0 {
			return nil, err
		}
		return cached, nil
	}

	if err := s.repo.ReplaceFolders(ctx, folders); err != nil {
		s.logger.Warn("failed to cache folders", "error", err)
	}
	return folders, nil
}

// Videos lists the videos of one folder, cache-aside like Folders.
func (s *Service) Videos(ctx context.Context, folder string) ([]Video, error) {
	fetchCtx, done := s.begin(ctx, "videos/"+folder)
	defer done()

	listed, err := s.client.ListVideos(fetchCtx, folder)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.Canceled) && ctx.Err() == nil {
			return nil, context.Canceled
		}
		s.logger.Warn("video fetch failed, serving cache", "folder", folder, "error", err)
		cached, cacheErr := s.repo.ListVideos(ctx, folder)
		if cacheErr != nil || len(cached) == 0 {
			return nil, err
		}
		return cached, nil
	}

	videos := make([]Video, len(listed))
	for i, v := range listed {
		videos[i] = Video{Folder: folder, Filename: v.Filename, HasScenesJSON: v.HasScenesJSON}
	}
	if err := s.repo.ReplaceVideos(ctx, folder, videos); err != nil {
		s.logger.Warn("failed to cache videos", "folder", folder, "error", err)
	}
	return videos, nil
}

// LoadTimeline fetches a video's scene data and builds its timeline. A video
// without scene data (never analyzed, or backend error with a cold cache)
// loads as an empty timeline — that is a renderable state, not an error.
func (s *Service) LoadTimeline(ctx context.Context, folder, filename string) (timeline.Timeline, error) {
	videoID := VideoID(folder, filename)

	fetchCtx, done := s.begin(ctx, "scenes/"+videoID)
	defer done()

	payload, err := s.client.GetScenes(fetchCtx, folder, filename)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.Canceled) && ctx.Err() == nil {
			return timeline.Timeline{}, context.Canceled
		}
		s.logger.Warn("scene fetch failed, trying cache", "video", videoID, "error", err)
		cached, found, cacheErr := s.repo.GetScenePayload(ctx, folder, filename)
		if cacheErr != nil || !found {
			return timeline.Empty(videoID), nil
		}
		if jsonErr := json.Unmarshal([]byte(cached), &payload); jsonErr != nil {
			return timeline.Empty(videoID), nil
		}
		return buildTimeline(videoID, payload)
	}

	if raw, jsonErr := json.Marshal(payload); jsonErr == nil {
		if cacheErr := s.repo.PutScenePayload(ctx, folder, filename, string(raw)); cacheErr != nil {
			s.logger.Warn("failed to cache scene payload", "video", videoID, "error", cacheErr)
		}
	}
	return buildTimeline(videoID, payload)
}

func buildTimeline(videoID string, payload backend.ScenesPayload) (timeline.Timeline, error) {
	tl, err := timeline.New(videoID, payload.Scenes, payload.Duration)
	if err != nil {
		// Malformed scene data renders as no timeline rather than failing
		// the whole player.
		return timeline.Empty(videoID), nil
	}
	return tl, nil
}
