package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 4096

// HTTPClient talks to the analysis backend over HTTP and websocket.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	// mediaClient has no timeout: a stream lives as long as the display
	// plays it.
	mediaClient *http.Client
	logger      *slog.Logger
}

func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		mediaClient: &http.Client{},
		logger:      logger,
	}
}

func (c *HTTPClient) ListFolders(ctx context.Context) ([]string, error) {
	var out struct {
		Folders []string `json:"folders"`
	}
	if err := c.getJSON(ctx, "/folders", &out); err != nil {
		return nil, err
	}
	return out.Folders, nil
}

func (c *HTTPClient) ListVideos(ctx context.Context, folder string) ([]Video, error) {
	var out struct {
		Videos []Video `json:"videos"`
	}
	if err := c.getJSON(ctx, "/videos/"+url.PathEscape(folder), &out); err != nil {
		return nil, err
	}
	return out.Videos, nil
}

func (c *HTTPClient) GetScenes(ctx context.Context, folder, filename string) (ScenesPayload, error) {
	var out ScenesPayload
	path := "/scenes/" + url.PathEscape(folder) + "/" + url.PathEscape(filename)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return ScenesPayload{}, err
	}
	return out, nil
}

func (c *HTTPClient) StartProcessing(ctx context.Context, folder, filename string, params ProcessParams) (string, error) {
	var out struct {
		JobID string `json:"job_id"`
	}
	path := "/process/" + url.PathEscape(folder) + "/" + url.PathEscape(filename)
	if err := c.postJSON(ctx, path, params, &out); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", fmt.Errorf("backend accepted processing request but returned no job id")
	}

	c.logger.Info("processing started",
		"folder", folder,
		"filename", filename,
		"job_id", out.JobID,
	)
	return out.JobID, nil
}

func (c *HTTPClient) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var out SearchResponse
	if err := c.postJSON(ctx, "/search", req, &out); err != nil {
		return SearchResponse{}, err
	}
	return out, nil
}

func (c *HTTPClient) ManagementStatus(ctx context.Context) (ManagementStatus, error) {
	var out ManagementStatus
	if err := c.getJSON(ctx, "/management/status", &out); err != nil {
		return ManagementStatus{}, err
	}
	return out, nil
}

func (c *HTTPClient) Cleanup(ctx context.Context, paths []string) (int, error) {
	body := struct {
		Paths []string `json:"paths"`
	}{Paths: paths}
	var out struct {
		DeletedCount int `json:"deleted_count"`
	}
	if err := c.postJSON(ctx, "/management/cleanup", body, &out); err != nil {
		return 0, err
	}
	return out.DeletedCount, nil
}

func (c *HTTPClient) ScanNew(ctx context.Context, paths []string) (string, error) {
	body := struct {
		Paths []string `json:"paths"`
	}{Paths: paths}
	var out struct {
		Message string `json:"message"`
	}
	if err := c.postJSON(ctx, "/management/scan_new", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Fetch forwards a media request. kind is "stream" or "thumbnail". The
// response body is returned unread so byte ranges pass straight through.
func (c *HTTPClient) Fetch(ctx context.Context, kind, folder, filename, rangeHeader string) (*http.Response, error) {
	u := c.baseURL + "/" + kind + "/" + url.PathEscape(folder) + "/" + url.PathEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
