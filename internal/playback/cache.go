package playback

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/scenedeck/scenedeck/internal/backend"
)

// Cache stores thumbnails fetched from the analysis backend on disk and
// serves them with byte-range support. Thumbnails are immutable per video, so
// a cached copy never needs revalidation.
type Cache struct {
	root   string
	client backend.Client
	logger *slog.Logger

	mu      sync.Mutex
	filling map[string]chan struct{}
}

func NewCache(root string, client backend.Client, logger *slog.Logger) *Cache {
	return &Cache{
		root:    root,
		client:  client,
		logger:  logger,
		filling: make(map[string]chan struct{}),
	}
}

// cachePath flattens folder/filename into one escaped path component so a
// crafted name cannot escape the cache root.
func (c *Cache) cachePath(folder, filename string) string {
	return filepath.Join(c.root, url.PathEscape(folder)+"__"+url.PathEscape(filename)+".jpg")
}

// ServeThumbnail serves the cached thumbnail for a video, filling the cache
// from the backend on a miss. Concurrent misses for the same video share one
// backend fetch.
func (c *Cache) ServeThumbnail(w http.ResponseWriter, r *http.Request, folder, filename string) {
	path := c.cachePath(folder, filename)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := c.fill(r, folder, filename, path); err != nil {
			c.logger.Warn("thumbnail fetch failed", "folder", folder, "filename", filename, "error", err)
			http.Error(w, "thumbnail unavailable", http.StatusBadGateway)
			return
		}
	}

	c.serveLocal(w, r, path)
}

func (c *Cache) fill(r *http.Request, folder, filename, path string) error {
	key := folder + "/" + filename

	c.mu.Lock()
	if wait, ok := c.filling[key]; ok {
		c.mu.Unlock()
		select {
		case <-wait:
		case <-r.Context().Done():
			return r.Context().Err()
		}
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		return fmt.Errorf("concurrent thumbnail fetch for %s failed", key)
	}
	done := make(chan struct{})
	c.filling[key] = done
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.filling, key)
		c.mu.Unlock()
		close(done)
	}()

	resp, err := c.client.Fetch(r.Context(), "thumbnail", folder, filename, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return err
	}

	// Write to a temp file and rename so a partial download never serves.
	tmp, err := os.CreateTemp(c.root, "thumb-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (c *Cache) serveLocal(w http.ResponseWriter, r *http.Request, path string) {
	file, err := os.Open(path)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	br, partial, err := ParseByteRange(r.Header.Get("Range"), size)
	switch {
	case err == ErrUnsatisfiable:
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	case err == ErrInvalidRange:
		// A malformed Range header degrades to a full response.
		partial = false
	}

	if !partial {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	w.Header().Set("Content-Range", br.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := file.Seek(br.Start, io.SeekStart); err != nil {
		return
	}
	io.CopyN(w, file, br.Length())
}
