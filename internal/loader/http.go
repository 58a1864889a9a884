package loader

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"hlswalk/internal/logger"
)

// HTTPLoader fetches playlists and subresources over HTTP(S). Retries
// are the loader's responsibility per spec §7 ("There is no retry
// policy"); this one retries any failed attempt (network error or
// non-200 status) a bounded number of times before giving up, the way
// the teacher's dash.Downloader does for segment downloads.
type HTTPLoader struct {
	Client     *http.Client
	UserAgent  string
	Logger     logger.Logger
	MaxRetries int
	RetryDelay time.Duration
}

// NewHTTPLoader builds an HTTPLoader with sane defaults: a 10s
// response-header timeout, up to 3 attempts 200ms apart, and redirects
// followed transparently by the underlying client.
func NewHTTPLoader(userAgent string, log logger.Logger) *HTTPLoader {
	if log == nil {
		log = logger.Discard
	}
	return &HTTPLoader{
		Client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
		UserAgent:  userAgent,
		Logger:     log,
		MaxRetries: 3,
		RetryDelay: 200 * time.Millisecond,
	}
}

// Load implements Loader. The callback always runs on the calling
// goroutine synchronously in this implementation — callers that need
// asynchrony (the walk engine's fetch pool) run Load from a worker
// goroutine themselves.
func (h *HTTPLoader) Load(ctx context.Context, url string, opts Options, cb func(Result, error)) {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= h.maxRetries(); attempt++ {
		attempts = attempt
		data, mimeType, err := h.fetchOnce(ctx, url)
		if err == nil {
			cb(Result{Data: data, MimeType: mimeType}, nil)
			return
		}

		lastErr = err
		h.Logger.Warnf("fetch attempt %d/%d for %s failed: %v", attempt, h.maxRetries(), url, err)
		if ctx.Err() != nil {
			break
		}
		if attempt < h.maxRetries() {
			select {
			case <-time.After(h.retryDelay()):
			case <-ctx.Done():
			}
		}
	}

	cb(Result{}, fmt.Errorf("fetch %s failed after %d attempts: %w", url, attempts, lastErr))
}

func (h *HTTPLoader) maxRetries() int {
	if h.MaxRetries <= 0 {
		return 1
	}
	return h.MaxRetries
}

func (h *HTTPLoader) retryDelay() time.Duration {
	if h.RetryDelay <= 0 {
		return 200 * time.Millisecond
	}
	return h.RetryDelay
}

func (h *HTTPLoader) fetchOnce(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request for %s: %w", url, err)
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body of %s: %w", url, err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = guessMimeType(url)
	}
	return data, mimeType, nil
}

func guessMimeType(url string) string {
	ext := path.Ext(strings.SplitN(url, "?", 2)[0])
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}
