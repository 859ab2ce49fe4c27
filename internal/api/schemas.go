package api

import (
	"github.com/scenedeck/scenedeck/internal/backend"
	"github.com/scenedeck/scenedeck/internal/player"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	SessionsOpen     int                       `json:"sessions_open"`
	JobsRunning      int                       `json:"jobs_running"`
	BackendReachable bool                      `json:"backend_reachable"`
	Backend          *backend.ManagementStatus `json:"backend,omitempty"`
	Limits           LimitsResponse            `json:"limits"`
}

type LimitsResponse struct {
	FPSMin       float64 `json:"fps_min"`
	FPSMax       float64 `json:"fps_max"`
	ThresholdMin float64 `json:"threshold_min"`
	ThresholdMax float64 `json:"threshold_max"`
	BatchMin     int     `json:"batch_min"`
	BatchMax     int     `json:"batch_max"`
}

type FoldersResponse struct {
	Folders []string `json:"folders"`
}

type VideoResponse struct {
	Filename      string `json:"filename"`
	HasScenesJSON bool   `json:"has_scenes_json"`
}

type VideosResponse struct {
	Folder string          `json:"folder"`
	Videos []VideoResponse `json:"videos"`
}

type ProcessResponse struct {
	JobID string `json:"job_id"`
}

type CleanupRequest struct {
	Folders []string `json:"folders,omitempty"`
}

type CleanupResponse struct {
	Removed int `json:"removed"`
}

type ScanNewRequest struct {
	Folders []string `json:"folders,omitempty"`
}

type ScanNewResponse struct {
	Message string `json:"message"`
}

// OpenSessionRequest opens a video. Tag or SceneIDs (from a search hit)
// seed the highlight criteria; both empty opens unfiltered.
type OpenSessionRequest struct {
	Folder   string   `json:"folder"`
	Filename string   `json:"filename"`
	Tag      string   `json:"tag,omitempty"`
	SceneIDs []string `json:"scene_ids,omitempty"`
}

type SessionResponse struct {
	SessionID string        `json:"session_id"`
	State     player.State  `json:"state"`
	Effect    player.Effect `json:"effect"`
}

type DurationRequest struct {
	Duration float64 `json:"duration"`
}

type TickRequest struct {
	CurrentTime float64 `json:"current_time"`
}

type CursorResponse struct {
	Cursor player.Cursor `json:"cursor"`
}

type SeekRequest struct {
	Fraction float64 `json:"fraction"`
}

type FilterRequest struct {
	Tag string `json:"tag"`
}

type EffectResponse struct {
	Effect player.Effect `json:"effect"`
	State  player.State  `json:"state"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
