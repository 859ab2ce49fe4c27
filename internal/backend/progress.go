package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Progress statuses as delivered by the channel.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// ProgressEvent is one message from the job progress channel.
type ProgressEvent struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// IsTerminal reports whether the event ends the job.
func (e ProgressEvent) IsTerminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusError
}

// ProgressStream delivers the ordered progress events for one job.
type ProgressStream interface {
	Next() (ProgressEvent, error)
	Close() error
}

// ProgressChannel is one open websocket connection for one job. The client
// closes it after the terminal event; closing does not cancel backend work.
type ProgressChannel struct {
	conn *websocket.Conn
}

// OpenProgress dials /ws/progress/{job_id}.
func (c *HTTPClient) OpenProgress(ctx context.Context, jobID string) (ProgressStream, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/progress/" + url.PathEscape(jobID)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Body: err.Error()}
		}
		return nil, fmt.Errorf("dial progress channel: %w", err)
	}
	return &ProgressChannel{conn: conn}, nil
}

// Next blocks until the next progress event arrives. It returns an error
// when the connection fails or closes early.
func (p *ProgressChannel) Next() (ProgressEvent, error) {
	var ev ProgressEvent
	if err := p.conn.ReadJSON(&ev); err != nil {
		return ProgressEvent{}, fmt.Errorf("read progress event: %w", err)
	}
	return ev, nil
}

// Close shuts the channel down.
func (p *ProgressChannel) Close() error {
	return p.conn.Close()
}
