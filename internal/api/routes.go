package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scenedeck/scenedeck/internal/backend"
	"github.com/scenedeck/scenedeck/internal/export"
	"github.com/scenedeck/scenedeck/internal/highlight"
	"github.com/scenedeck/scenedeck/internal/jobs"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))

	r.Get("/folders", listFoldersHandler(cfg))
	r.Get("/videos/{folder}", listVideosHandler(cfg))
	r.Get("/scenes/{folder}/{filename}", scenesHandler(cfg))
	r.Post("/process/{folder}/{filename}", processHandler(cfg))
	r.Get("/jobs/{folder}/{filename}", jobHandler(cfg))
	r.Post("/search", searchHandler(cfg))

	r.Get("/management/status", managementStatusHandler(cfg))
	r.Post("/management/cleanup", cleanupHandler(cfg))
	r.Post("/management/scan_new", scanNewHandler(cfg))

	r.Get("/stream/{folder}/{filename}", streamHandler(cfg))
	r.Get("/thumbnail/{folder}/{filename}", thumbnailHandler(cfg))
	r.Get("/export/{folder}/{filename}", exportHandler(cfg))

	r.Post("/sessions", openSessionHandler(cfg))
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", getSessionHandler(cfg))
		r.Delete("/", closeSessionHandler(cfg))
		r.Post("/duration", durationHandler(cfg))
		r.Post("/tick", tickHandler(cfg))
		r.Post("/seek", seekHandler(cfg))
		r.Post("/next", nextHandler(cfg))
		r.Post("/previous", previousHandler(cfg))
		r.Post("/filter", filterHandler(cfg))
	})
	r.Get("/ws/sessions/{id}", sessionSocketHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			SessionsOpen: cfg.Sessions.Count(),
			JobsRunning:  cfg.Jobs.Running(),
			Limits: LimitsResponse{
				FPSMin: cfg.Limits.FPSMin, FPSMax: cfg.Limits.FPSMax,
				ThresholdMin: cfg.Limits.ThresholdMin, ThresholdMax: cfg.Limits.ThresholdMax,
				BatchMin: cfg.Limits.BatchMin, BatchMax: cfg.Limits.BatchMax,
			},
		}
		if ms, err := cfg.Backend.ManagementStatus(r.Context()); err == nil {
			resp.BackendReachable = true
			resp.Backend = &ms
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listFoldersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folders, err := cfg.Catalog.Folders(r.Context())
		if err != nil {
			WriteError(w, http.StatusBadGateway, "backend unavailable", "BACKEND_UNAVAILABLE")
			return
		}
		if folders == nil {
			folders = []string{}
		}
		WriteJSON(w, http.StatusOK, FoldersResponse{Folders: folders})
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := chi.URLParam(r, "folder")
		videos, err := cfg.Catalog.Videos(r.Context(), folder)
		if err != nil {
			WriteError(w, http.StatusBadGateway, "backend unavailable", "BACKEND_UNAVAILABLE")
			return
		}
		resp := VideosResponse{Folder: folder, Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoResponse{Filename: v.Filename, HasScenesJSON: v.HasScenesJSON}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func scenesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tl, err := cfg.Catalog.LoadTimeline(r.Context(), chi.URLParam(r, "folder"), chi.URLParam(r, "filename"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, tl)
	}
}

func processHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := chi.URLParam(r, "folder")
		filename := chi.URLParam(r, "filename")

		var params backend.ProcessParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := params.Validate(cfg.Limits); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		jobID, err := cfg.Jobs.Start(r.Context(), folder, filename, params)
		if err != nil {
			if errors.Is(err, jobs.ErrJobInFlight) {
				WriteError(w, http.StatusConflict, err.Error(), "JOB_IN_FLIGHT")
				return
			}
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_UNAVAILABLE")
			return
		}
		WriteJSON(w, http.StatusAccepted, ProcessResponse{JobID: jobID})
	}
}

func jobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job := cfg.Jobs.Get(chi.URLParam(r, "folder"), chi.URLParam(r, "filename"))
		if job == nil {
			WriteError(w, http.StatusNotFound, "no job for this video", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, job)
	}
}

func searchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req backend.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		resp, err := cfg.Backend.Search(r.Context(), req)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_UNAVAILABLE")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func managementStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := cfg.Backend.ManagementStatus(r.Context())
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_UNAVAILABLE")
			return
		}
		WriteJSON(w, http.StatusOK, status)
	}
}

func cleanupHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CleanupRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}
		removed, err := cfg.Backend.Cleanup(r.Context(), req.Folders)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_UNAVAILABLE")
			return
		}
		WriteJSON(w, http.StatusOK, CleanupResponse{Removed: removed})
	}
}

func scanNewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScanNewRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}
		message, err := cfg.Backend.ScanNew(r.Context(), req.Folders)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_UNAVAILABLE")
			return
		}
		WriteJSON(w, http.StatusAccepted, ScanNewResponse{Message: message})
	}
}

// streamHandler proxies media straight through to the backend, forwarding the
// Range header both ways so the display can scrub.
func streamHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := chi.URLParam(r, "folder")
		filename := chi.URLParam(r, "filename")

		resp, err := cfg.Backend.Fetch(r.Context(), "stream", folder, filename, r.Header.Get("Range"))
		if err != nil {
			var apiErr *backend.APIError
			if errors.As(err, &apiErr) {
				WriteError(w, apiErr.StatusCode, "stream unavailable", "BACKEND_ERROR")
				return
			}
			WriteError(w, http.StatusBadGateway, "backend unavailable", "BACKEND_UNAVAILABLE")
			return
		}
		defer resp.Body.Close()

		for _, h := range []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges"} {
			if v := resp.Header.Get(h); v != "" {
				w.Header().Set(h, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		io.Copy(w, resp.Body)
	}
}

func thumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Thumbnails.ServeThumbnail(w, r, chi.URLParam(r, "folder"), chi.URLParam(r, "filename"))
	}
}

// exportHandler renders the video's scene list as an EDL download. An
// optional tag query narrows the cut to matching scenes.
func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := chi.URLParam(r, "folder")
		filename := chi.URLParam(r, "filename")

		tl, err := cfg.Catalog.LoadTimeline(r.Context(), folder, filename)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if tl.IsEmpty() {
			WriteError(w, http.StatusNotFound, "no scene data for this video", "NOT_FOUND")
			return
		}

		var criteria *highlight.Criteria
		if tag := r.URL.Query().Get("tag"); tag != "" {
			criteria = highlight.ByTag(tag)
		}
		frameRate := 30.0
		if v := r.URL.Query().Get("fps"); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
				frameRate = parsed
			}
		}

		title := export.SanitizeName(filename, 64)
		clips := export.FromTimeline(tl, criteria, "/stream/"+folder+"/"+filename)
		edl := export.GenerateEDL(clips, title, frameRate)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", title+".edl"))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, edl)
	}
}
