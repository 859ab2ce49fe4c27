package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/scenedeck/scenedeck/internal/timeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHTTPClient_ListFolders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/folders" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string][]string{"folders": {"beach", "city"}})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	folders, err := client.ListFolders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(folders) != 2 || folders[0] != "beach" {
		t.Errorf("folders = %v, want [beach city]", folders)
	}
}

func TestHTTPClient_GetScenes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/scenes/beach/day%201.mp4" {
			t.Errorf("unexpected path: %s", r.URL.EscapedPath())
		}
		json.NewEncoder(w).Encode(ScenesPayload{
			Scenes: []timeline.Scene{
				{ID: "s1", Index: 0, StartTime: 0, EndTime: 10, Tags: []string{"kiss"}},
			},
			Duration: 40,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	payload, err := client.GetScenes(context.Background(), "beach", "day 1.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.Scenes) != 1 || payload.Scenes[0].ID != "s1" {
		t.Errorf("scenes = %v", payload.Scenes)
	}
	if payload.Duration != 40 {
		t.Errorf("duration = %f, want 40", payload.Duration)
	}
}

func TestHTTPClient_StartProcessing(t *testing.T) {
	var received ProcessParams

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]string{"job_id": "job-42"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	jobID, err := client.StartProcessing(context.Background(), "beach", "v.mp4", ProcessParams{
		FPS: 1, SimilarityThreshold: 0.4, BatchSize: 32,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID != "job-42" {
		t.Errorf("job id = %q, want job-42", jobID)
	}
	if received.BatchSize != 32 {
		t.Errorf("batch_size = %d, want 32", received.BatchSize)
	}
}

func TestHTTPClient_StartProcessing_EmptyJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())
	if _, err := client.StartProcessing(context.Background(), "f", "v.mp4", ProcessParams{}); err == nil {
		t.Error("expected error for missing job id")
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	_, err := client.ListFolders(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", apiErr.StatusCode)
	}
	if !apiErr.IsRetryable() {
		t.Error("5xx should report retryable")
	}
}

func TestHTTPClient_Fetch_RangePassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Range"); got != "bytes=0-99" {
			t.Errorf("range header = %q, want bytes=0-99", got)
		}
		w.Header().Set("Content-Range", "bytes 0-99/1000")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(make([]byte, 100))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	resp, err := client.Fetch(context.Background(), "stream", "beach", "v.mp4", "bytes=0-99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 100 {
		t.Errorf("body length = %d, want 100", len(body))
	}
}

func TestProcessParams_Validate(t *testing.T) {
	limits := ParamLimits{
		FPSMin: 0.5, FPSMax: 15,
		ThresholdMin: 0.1, ThresholdMax: 0.9,
		BatchMin: 4, BatchMax: 128,
	}

	tests := []struct {
		name    string
		params  ProcessParams
		wantErr bool
	}{
		{"defaults", ProcessParams{FPS: 1, SimilarityThreshold: 0.4, BatchSize: 32}, false},
		{"boundary low", ProcessParams{FPS: 0.5, SimilarityThreshold: 0.1, BatchSize: 4}, false},
		{"boundary high", ProcessParams{FPS: 15, SimilarityThreshold: 0.9, BatchSize: 128}, false},
		{"fps too low", ProcessParams{FPS: 0.1, SimilarityThreshold: 0.4, BatchSize: 32}, true},
		{"threshold too high", ProcessParams{FPS: 1, SimilarityThreshold: 0.95, BatchSize: 32}, true},
		{"batch too large", ProcessParams{FPS: 1, SimilarityThreshold: 0.4, BatchSize: 256}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate(limits)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenProgress(t *testing.T) {
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/progress/job-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		conn.WriteJSON(ProgressEvent{Status: StatusRunning, Progress: 10, Message: "extracting"})
		conn.WriteJSON(ProgressEvent{Status: StatusCompleted, Progress: 100, Message: "done"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, testLogger())

	stream, err := client.OpenProgress(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("OpenProgress error: %v", err)
	}
	defer stream.Close()

	ev, err := stream.Next()
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if ev.Status != StatusRunning || ev.Progress != 10 {
		t.Errorf("first event = %+v", ev)
	}

	ev, err = stream.Next()
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if !ev.IsTerminal() {
		t.Errorf("second event should be terminal, got %+v", ev)
	}
}
