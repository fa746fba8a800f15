package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher defaults
const (
	DefaultFetchTimeout = 60 * time.Second
	DefaultUserAgent    = "storyviewer/1.0"
)

// HTTPFetcher fetches media over plain HTTP(S)
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given overall request timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}
}

// Fetch issues a GET and returns the body on a 2xx response
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
