package httputil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vizgrid/pkg/errors"
	"github.com/matzehuels/vizgrid/pkg/grid"
	"github.com/matzehuels/vizgrid/pkg/observability"
)

// Fetch defaults.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultAttempts = 3
	DefaultMaxBytes = 1 << 20
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "remote matrix not found")

// Fetcher downloads matrix documents over HTTP with retries and an
// optional revalidating disk cache.
type Fetcher struct {
	Client   *http.Client
	Cache    *Cache
	Attempts int
	Delay    time.Duration
	MaxBytes int64
	Logger   *log.Logger
}

// NewFetcher returns a Fetcher with default settings. A nil cache disables
// caching.
func NewFetcher(cache *Cache, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{
		Client:   &http.Client{Timeout: DefaultTimeout},
		Cache:    cache,
		Attempts: DefaultAttempts,
		Delay:    time.Second,
		MaxBytes: DefaultMaxBytes,
		Logger:   logger,
	}
}

type cachedBody struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	Body         []byte `json:"body"`
}

// Fetch returns the body at rawURL. A fresh cache entry is returned
// without contacting the server; a stale one is revalidated with
// If-None-Match / If-Modified-Since.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	var stale *cachedBody
	if f.Cache != nil {
		var entry cachedBody
		ok, err := f.Cache.Get(rawURL, &entry)
		switch {
		case ok:
			f.Logger.Debug("matrix cache hit", "url", rawURL)
			return entry.Body, nil
		case stderrors.Is(err, ErrExpired):
			stale = &entry
		}
	}

	var body []byte
	err := Retry(ctx, f.Attempts, f.Delay, func() error {
		b, notModified, err := f.get(ctx, rawURL, stale)
		if err != nil {
			return err
		}
		if notModified {
			f.Logger.Debug("matrix not modified", "url", rawURL)
			body = stale.Body
			if f.Cache != nil {
				_ = f.Cache.Touch(rawURL)
			}
			return nil
		}
		body = b.Body
		if f.Cache != nil {
			_ = f.Cache.Set(rawURL, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, stale *cachedBody) (*cachedBody, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json, application/yaml, application/toml, text/plain")
	if stale != nil {
		if stale.ETag != "" {
			req.Header.Set("If-None-Match", stale.ETag)
		}
		if stale.LastModified != "" {
			req.Header.Set("If-Modified-Since", stale.LastModified)
		}
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, &RetryableError{Err: fmt.Errorf("get %s: %w", rawURL, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotModified && stale != nil:
		return nil, true, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, false, &RetryableError{Err: fmt.Errorf("get %s: %s", rawURL, resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("get %s: %s", rawURL, resp.Status)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, false, &RetryableError{Err: fmt.Errorf("read %s: %w", rawURL, err)}
	}
	if int64(len(data)) > limit {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "remote matrix exceeds %d bytes", limit)
	}
	return &cachedBody{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		Body:         data,
	}, false, nil
}

// FetchMatrix downloads and parses a matrix. The format follows the URL
// path extension and defaults to JSON.
func (f *Fetcher) FetchMatrix(ctx context.Context, rawURL string) (grid.Matrix, error) {
	data, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	format := grid.FormatJSON
	if u, err := url.Parse(rawURL); err == nil {
		format = grid.FormatFromPath(path.Base(u.Path))
	}
	m, err := grid.ReadMatrix(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rawURL, err)
	}
	return m, nil
}
