package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scenedeck/scenedeck/internal/events"
	"github.com/scenedeck/scenedeck/internal/highlight"
	"github.com/scenedeck/scenedeck/internal/player"
)

func openSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Folder == "" || req.Filename == "" {
			WriteError(w, http.StatusBadRequest, "folder and filename are required", "BAD_REQUEST")
			return
		}

		tl, err := cfg.Catalog.LoadTimeline(r.Context(), req.Folder, req.Filename)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		var criteria *highlight.Criteria
		switch {
		case len(req.SceneIDs) > 0:
			criteria = highlight.BySceneIDs(req.SceneIDs)
		case req.Tag != "":
			criteria = highlight.ByTag(req.Tag)
		}

		session := cfg.Sessions.Open(req.Folder, req.Filename, tl, criteria)
		cfg.Bus.Publish(events.VideoSelected{
			SessionID: session.ID,
			Folder:    req.Folder,
			Filename:  req.Filename,
		})

		WriteJSON(w, http.StatusCreated, SessionResponse{
			SessionID: session.ID,
			State:     session.State(),
		})
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := cfg.Sessions.Get(chi.URLParam(r, "id"))
		if session == nil {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, SessionResponse{SessionID: session.ID, State: session.State()})
	}
}

func closeSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sessions.Close(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func durationHandler(cfg ServerConfig) http.HandlerFunc {
	return withSession(cfg, func(w http.ResponseWriter, r *http.Request, session *player.Session) {
		var req DurationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		effect := session.SetDuration(req.Duration)
		WriteJSON(w, http.StatusOK, EffectResponse{Effect: effect, State: session.State()})
	})
}

func tickHandler(cfg ServerConfig) http.HandlerFunc {
	return withSession(cfg, func(w http.ResponseWriter, r *http.Request, session *player.Session) {
		var req TickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, CursorResponse{Cursor: session.Tick(req.CurrentTime)})
	})
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return withSession(cfg, func(w http.ResponseWriter, r *http.Request, session *player.Session) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		effect := session.Seek(req.Fraction)
		WriteJSON(w, http.StatusOK, EffectResponse{Effect: effect, State: session.State()})
	})
}

func nextHandler(cfg ServerConfig) http.HandlerFunc {
	return withSession(cfg, func(w http.ResponseWriter, r *http.Request, session *player.Session) {
		effect := session.Next()
		WriteJSON(w, http.StatusOK, EffectResponse{Effect: effect, State: session.State()})
	})
}

func previousHandler(cfg ServerConfig) http.HandlerFunc {
	return withSession(cfg, func(w http.ResponseWriter, r *http.Request, session *player.Session) {
		effect := session.Previous()
		WriteJSON(w, http.StatusOK, EffectResponse{Effect: effect, State: session.State()})
	})
}

func filterHandler(cfg ServerConfig) http.HandlerFunc {
	return withSession(cfg, func(w http.ResponseWriter, r *http.Request, session *player.Session) {
		var req FilterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Tag == "" {
			WriteError(w, http.StatusBadRequest, "tag is required", "BAD_REQUEST")
			return
		}
		session.ToggleTag(req.Tag)
		WriteJSON(w, http.StatusOK, EffectResponse{State: session.State()})
	})
}

func withSession(cfg ServerConfig, h func(http.ResponseWriter, *http.Request, *player.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := cfg.Sessions.Get(chi.URLParam(r, "id"))
		if session == nil {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}
		h(w, r, session)
	}
}
