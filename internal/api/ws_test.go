package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scenedeck/scenedeck/internal/events"
)

func TestSessionSocket_PushesJobEvents(t *testing.T) {
	cfg := newTestConfig(t, &fakeBackend{}, &fakeCatalog{timeline: testTimeline(t)})
	router := NewRouter(cfg)
	srv := httptest.NewServer(router)
	defer srv.Close()

	rec := doJSON(t, router, http.MethodPost, "/sessions", OpenSessionRequest{
		Folder: "beach", Filename: "v.mp4",
	})
	var opened SessionResponse
	json.Unmarshal(rec.Body.Bytes(), &opened)

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws/sessions/" + opened.SessionID
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	resp.Body.Close()

	// Give the handler a moment to subscribe before publishing.
	time.Sleep(20 * time.Millisecond)

	// An event for another video must not reach this socket.
	cfg.Bus.Publish(events.JobProgress{JobID: "other", Folder: "city", Filename: "x.mp4", Status: "running"})
	cfg.Bus.Publish(events.JobProgress{
		JobID: "job-1", Folder: "beach", Filename: "v.mp4",
		Status: "running", Progress: 40, Message: "analyzing",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != "job_progress" || msg.JobID != "job-1" || msg.Progress != 40 {
		t.Fatalf("message = %+v", msg)
	}

	cfg.Bus.Publish(events.ProcessingCompleted{JobID: "job-1", Folder: "beach", Filename: "v.mp4"})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Type != "processing_completed" || msg.Failed {
		t.Fatalf("message = %+v", msg)
	}
}

func TestSessionSocket_UnknownSession(t *testing.T) {
	router := NewRouter(newTestConfig(t, &fakeBackend{}, &fakeCatalog{}))
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws/sessions/nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown session")
	}
	if resp != nil {
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
		resp.Body.Close()
	}
}
