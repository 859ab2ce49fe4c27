// Package backend is the client for the external video analysis service: the
// REST surface for browsing, scene data, search and library management, plus
// the per-job websocket progress channel.
package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/scenedeck/scenedeck/internal/timeline"
)

// Video is one entry of a folder listing.
type Video struct {
	Filename      string `json:"filename"`
	Folder        string `json:"folder"`
	HasScenesJSON bool   `json:"has_scenes_json"`
}

// ScenesPayload is the scene data for one video. Duration is the
// data-supplied value; the media element's duration overrides it later.
type ScenesPayload struct {
	Scenes   []timeline.Scene `json:"scenes"`
	Duration float64          `json:"duration"`
}

// ProcessParams configures an analysis run. Each value must fall within the
// configured range before submission; Validate enforces that precondition.
type ProcessParams struct {
	FPS                 float64 `json:"fps"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	BatchSize           int     `json:"batch_size"`
}

// ParamLimits is the allowed range for each processing parameter.
type ParamLimits struct {
	FPSMin, FPSMax             float64
	ThresholdMin, ThresholdMax float64
	BatchMin, BatchMax         int
}

// Validate checks the params against the limits.
func (p ProcessParams) Validate(l ParamLimits) error {
	if p.FPS < l.FPSMin || p.FPS > l.FPSMax {
		return fmt.Errorf("fps %g out of range [%g, %g]", p.FPS, l.FPSMin, l.FPSMax)
	}
	if p.SimilarityThreshold < l.ThresholdMin || p.SimilarityThreshold > l.ThresholdMax {
		return fmt.Errorf("similarity_threshold %g out of range [%g, %g]",
			p.SimilarityThreshold, l.ThresholdMin, l.ThresholdMax)
	}
	if p.BatchSize < l.BatchMin || p.BatchSize > l.BatchMax {
		return fmt.Errorf("batch_size %d out of range [%d, %d]", p.BatchSize, l.BatchMin, l.BatchMax)
	}
	return nil
}

// SearchRequest selects videos by scene tags and duration.
type SearchRequest struct {
	IncludeTags []string `json:"include_tags"`
	ExcludeTags []string `json:"exclude_tags"`
	MinDuration *float64 `json:"min_duration"`
}

// SearchResult is one video matched by a search, with the ids of its
// matching scenes for highlight/navigation criteria.
type SearchResult struct {
	VideoID          string   `json:"video_id"`
	Folder           string   `json:"folder"`
	Filename         string   `json:"filename"`
	MatchCount       int      `json:"match_count"`
	MatchingSceneIDs []string `json:"matching_scene_ids"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// ManagementStatus reports drift between the backend's database and its
// filesystem.
type ManagementStatus struct {
	OrphanRecords  []string `json:"orphan_records"`
	UntrackedFiles []string `json:"untracked_files"`
}

// Client is the analysis backend as consumed by the gateway.
type Client interface {
	ListFolders(ctx context.Context) ([]string, error)
	ListVideos(ctx context.Context, folder string) ([]Video, error)
	GetScenes(ctx context.Context, folder, filename string) (ScenesPayload, error)
	StartProcessing(ctx context.Context, folder, filename string, params ProcessParams) (jobID string, err error)
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	ManagementStatus(ctx context.Context) (ManagementStatus, error)
	Cleanup(ctx context.Context, paths []string) (deleted int, err error)
	ScanNew(ctx context.Context, paths []string) (message string, err error)

	// OpenProgress dials the push channel for one job. The caller owns the
	// returned stream and closes it on the terminal event.
	OpenProgress(ctx context.Context, jobID string) (ProgressStream, error)

	// Fetch performs a raw media request (stream or thumbnail) with the
	// given Range header passed through. The caller closes the response.
	Fetch(ctx context.Context, kind, folder, filename, rangeHeader string) (*http.Response, error)
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether the failure is a server-side condition.
// Client errors (4xx) are permanent; nothing retries automatically either
// way.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}
