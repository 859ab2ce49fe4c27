// Package jobs drives one asynchronous analysis run per video: submit the
// processing request, follow the progress channel to a terminal status, and
// fire exactly one refresh notification after a settle delay.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scenedeck/scenedeck/internal/backend"
	"github.com/scenedeck/scenedeck/internal/events"
)

// DefaultSettleDelay buffers the refresh after a terminal event so the
// backend's filesystem writes have landed before the video list reloads.
const DefaultSettleDelay = 1500 * time.Millisecond

// ErrJobInFlight rejects a second start while a job is live for the video.
var ErrJobInFlight = errors.New("a processing job is already running for this video")

// Job is the observable state of one analysis run.
type Job struct {
	ID       string `json:"job_id"`
	Folder   string `json:"folder"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// Manager tracks at most one live job per video. There is no retry: a failed
// job stays failed until the user starts a new one.
type Manager struct {
	client      backend.Client
	bus         *events.Bus
	limits      backend.ParamLimits
	settleDelay time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	jobs map[string]*Job // keyed by folder/filename
}

func NewManager(client backend.Client, bus *events.Bus, limits backend.ParamLimits, logger *slog.Logger) *Manager {
	return &Manager{
		client:      client,
		bus:         bus,
		limits:      limits,
		settleDelay: DefaultSettleDelay,
		logger:      logger,
		jobs:        make(map[string]*Job),
	}
}

// SetSettleDelay overrides the refresh delay. Tests shrink it.
func (m *Manager) SetSettleDelay(d time.Duration) {
	m.settleDelay = d
}

func videoKey(folder, filename string) string {
	return folder + "/" + filename
}

// Get returns a snapshot of the job for a video, or nil when none exists.
func (m *Manager) Get(folder, filename string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[videoKey(folder, filename)]; ok {
		snapshot := *j
		return &snapshot
	}
	return nil
}

// Running reports the number of live (non-terminal) jobs.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, j := range m.jobs {
		if j.Status == backend.StatusPending || j.Status == backend.StatusRunning {
			n++
		}
	}
	return n
}

// Start validates the parameters, submits the processing request and begins
// following the progress channel. It returns once the job is accepted; the
// channel is consumed on a separate goroutine for the lifetime of the job.
func (m *Manager) Start(ctx context.Context, folder, filename string, params backend.ProcessParams) (string, error) {
	if err := params.Validate(m.limits); err != nil {
		return "", fmt.Errorf("invalid processing parameters: %w", err)
	}

	key := videoKey(folder, filename)

	m.mu.Lock()
	if j, ok := m.jobs[key]; ok && (j.Status == backend.StatusPending || j.Status == backend.StatusRunning) {
		m.mu.Unlock()
		return "", ErrJobInFlight
	}
	// Reserve the slot before the submission round trip so two concurrent
	// starts cannot both pass the liveness check.
	m.jobs[key] = &Job{Folder: folder, Filename: filename, Status: backend.StatusPending, Message: "submitting"}
	m.mu.Unlock()

	jobID, err := m.client.StartProcessing(ctx, folder, filename, params)
	if err != nil {
		m.failSubmission(key, fmt.Sprintf("failed to start processing: %v", err))
		return "", err
	}

	m.mu.Lock()
	job := m.jobs[key]
	job.ID = jobID
	m.mu.Unlock()

	stream, err := m.client.OpenProgress(ctx, jobID)
	if err != nil {
		// The channel never opened; mark the job failed and still schedule
		// the refresh so the video card does not hang on a spinner.
		m.logger.Error("progress channel dial failed", "job_id", jobID, "error", err)
		m.terminate(key, backend.ProgressEvent{
			Status:  backend.StatusError,
			Message: fmt.Sprintf("progress channel unavailable: %v", err),
		})
		return jobID, nil
	}

	go m.follow(key, jobID, stream)
	return jobID, nil
}

// follow consumes the progress channel until a terminal event or a channel
// failure, whichever comes first.
func (m *Manager) follow(key, jobID string, stream backend.ProgressStream) {
	defer stream.Close()

	for {
		ev, err := stream.Next()
		if err != nil {
			m.logger.Warn("progress channel closed early", "job_id", jobID, "error", err)
			m.terminate(key, backend.ProgressEvent{
				Status:  backend.StatusError,
				Message: fmt.Sprintf("progress channel lost: %v", err),
			})
			return
		}

		if ev.IsTerminal() {
			m.terminate(key, ev)
			return
		}
		m.apply(key, ev)
	}
}

// apply records a non-terminal event. The latest received values win, even
// when a percent arrives out of order.
func (m *Manager) apply(key string, ev backend.ProgressEvent) {
	m.mu.Lock()
	job, ok := m.jobs[key]
	if !ok || job.Status == backend.StatusCompleted || job.Status == backend.StatusError {
		m.mu.Unlock()
		return
	}
	job.Status = ev.Status
	job.Progress = ev.Progress
	job.Message = ev.Message
	snapshot := *job
	m.mu.Unlock()

	m.publishProgress(snapshot)
}

// terminate applies the terminal event and schedules the single refresh
// notification. Later events for the job are ignored.
func (m *Manager) terminate(key string, ev backend.ProgressEvent) {
	m.mu.Lock()
	job, ok := m.jobs[key]
	if !ok || job.Status == backend.StatusCompleted || job.Status == backend.StatusError {
		m.mu.Unlock()
		return
	}
	job.Status = ev.Status
	if ev.Progress > 0 {
		job.Progress = ev.Progress
	}
	job.Message = ev.Message
	snapshot := *job
	m.mu.Unlock()

	m.publishProgress(snapshot)
	m.logger.Info("job finished",
		"job_id", snapshot.ID,
		"status", snapshot.Status,
		"folder", snapshot.Folder,
		"filename", snapshot.Filename,
	)

	time.AfterFunc(m.settleDelay, func() {
		m.bus.Publish(events.ProcessingCompleted{
			JobID:    snapshot.ID,
			Folder:   snapshot.Folder,
			Filename: snapshot.Filename,
			Failed:   snapshot.Status == backend.StatusError,
		})
	})
}

// failSubmission marks a job that never reached the backend. No channel was
// opened, so no refresh is scheduled; the error state alone is surfaced.
func (m *Manager) failSubmission(key, message string) {
	m.mu.Lock()
	job, ok := m.jobs[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	job.Status = backend.StatusError
	job.Message = message
	snapshot := *job
	m.mu.Unlock()

	m.publishProgress(snapshot)
}

func (m *Manager) publishProgress(j Job) {
	m.bus.Publish(events.JobProgress{
		JobID:    j.ID,
		Folder:   j.Folder,
		Filename: j.Filename,
		Status:   j.Status,
		Progress: j.Progress,
		Message:  j.Message,
	})
}
