package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/scenedeck/scenedeck/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon binds to loopback only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type     string `json:"type"`
	JobID    string `json:"job_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Message  string `json:"message,omitempty"`
	Failed   bool   `json:"failed,omitempty"`
}

// sessionSocketHandler pushes job progress and completion events for the
// session's video over a websocket, so the display does not poll.
func sessionSocketHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := cfg.Sessions.Get(chi.URLParam(r, "id"))
		if session == nil {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.Logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		// A slow or dead display drops events rather than blocking the bus.
		send := make(chan wsMessage, 32)
		unsub := cfg.Bus.Subscribe(func(e events.Event) {
			var msg wsMessage
			switch ev := e.(type) {
			case events.JobProgress:
				if ev.Folder != session.Folder || ev.Filename != session.Filename {
					return
				}
				msg = wsMessage{
					Type:     "job_progress",
					JobID:    ev.JobID,
					Status:   ev.Status,
					Progress: ev.Progress,
					Message:  ev.Message,
				}
			case events.ProcessingCompleted:
				if ev.Folder != session.Folder || ev.Filename != session.Filename {
					return
				}
				msg = wsMessage{Type: "processing_completed", JobID: ev.JobID, Failed: ev.Failed}
			default:
				return
			}
			select {
			case send <- msg:
			default:
			}
		})
		defer unsub()

		// Reader only detects disconnect; the display sends nothing.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case msg := <-send:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
