package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ytget/storyviewer/internal/model"
)

const testURL = "https://cdn.example.com/stories/a.jpg"

// countingFetcher counts Fetch calls. When gate is set, Fetch blocks until it
// is closed or ctx is done. failures makes the first n calls fail.
type countingFetcher struct {
	calls    int32
	gate     chan struct{}
	failures int32
	body     string
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= atomic.LoadInt32(&f.failures) {
		return nil, errors.New("connection reset")
	}
	body := f.body
	if body == "" {
		body = "media:" + url
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *countingFetcher) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

func newTestCache(t *testing.T, dir string, fetcher Fetcher) *Cache {
	t.Helper()
	cache := NewCache(dir, fetcher, 2)
	if err := cache.Init(); err != nil {
		t.Fatalf("Expected no error from Init, got %v", err)
	}
	t.Cleanup(cache.Close)
	return cache
}

func wait(t *testing.T, f *Future) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Wait(ctx)
}

func TestNewCache(t *testing.T) {
	cache := NewCache("/tmp/mirror", nil, 0)

	if cache.Dir() != "/tmp/mirror" {
		t.Errorf("Expected dir to be '/tmp/mirror', got '%s'", cache.Dir())
	}
	if cache.maxParallel != DefaultMaxParallel {
		t.Errorf("Expected maxParallel to be %d, got %d", DefaultMaxParallel, cache.maxParallel)
	}
	if cache.fetcher == nil {
		t.Error("Expected default fetcher")
	}
}

func TestEnsureBeforeInit(t *testing.T) {
	cache := NewCache(t.TempDir(), &countingFetcher{}, 1)

	_, err := wait(t, cache.Ensure(testURL))
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestEnsureDeduplicatesConcurrentCalls(t *testing.T) {
	fetcher := &countingFetcher{gate: make(chan struct{})}
	cache := newTestCache(t, t.TempDir(), fetcher)

	const callers = 16
	futures := make([]*Future, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			futures[i] = cache.Ensure(testURL)
		}(i)
	}
	wg.Wait()

	if state := cache.Entry(testURL).State; state != model.CacheFetching {
		t.Errorf("Expected state Fetching while gated, got %s", state)
	}
	if path := cache.Resolve(testURL); path != "" {
		t.Errorf("Expected empty Resolve while fetching, got '%s'", path)
	}

	close(fetcher.gate)

	expected := cache.PathFor(testURL)
	for i, f := range futures {
		if f != futures[0] {
			t.Errorf("Expected caller %d to share the in-flight future", i)
		}
		path, err := wait(t, f)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if path != expected {
			t.Errorf("Expected path '%s', got '%s'", expected, path)
		}
	}

	if fetcher.Calls() != 1 {
		t.Errorf("Expected exactly 1 fetch, got %d", fetcher.Calls())
	}
}

func TestEnsureHitIsResolvedImmediately(t *testing.T) {
	fetcher := &countingFetcher{}
	cache := newTestCache(t, t.TempDir(), fetcher)

	first, err := wait(t, cache.Ensure(testURL))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	path, ok, err := cache.Ensure(testURL).Peek()
	if !ok {
		t.Fatal("Expected resolved future for a Hit entry")
	}
	if err != nil || path != first {
		t.Errorf("Expected '%s', got '%s' (%v)", first, path, err)
	}
	if fetcher.Calls() != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.Calls())
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	first := NewCache(dir, &countingFetcher{body: "jpeg bytes"}, 1)
	if err := first.Init(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	path, err := wait(t, first.Ensure(testURL))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected mirrored file, got %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("Expected 'jpeg bytes', got '%s'", string(data))
	}

	fetcher := &countingFetcher{}
	second := newTestCache(t, dir, fetcher)

	if resolved := second.Resolve(testURL); resolved != path {
		t.Errorf("Expected Resolve to find '%s', got '%s'", path, resolved)
	}
	again, err := wait(t, second.Ensure(testURL))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if again != path {
		t.Errorf("Expected '%s', got '%s'", path, again)
	}
	if fetcher.Calls() != 0 {
		t.Errorf("Expected 0 fetches after restart, got %d", fetcher.Calls())
	}
}

func TestFailedEntryIsRetried(t *testing.T) {
	fetcher := &countingFetcher{failures: 1}
	cache := newTestCache(t, t.TempDir(), fetcher)

	_, err := wait(t, cache.Ensure(testURL))
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Fatalf("Expected ErrFetchFailed, got %v", err)
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.URL != testURL {
		t.Errorf("Expected FetchError for %s, got %v", testURL, err)
	}

	entry := cache.Entry(testURL)
	if entry.State != model.CacheFailed {
		t.Errorf("Expected state Failed, got %s", entry.State)
	}
	if entry.Err == nil {
		t.Error("Expected entry error to be recorded")
	}

	path, err := wait(t, cache.Ensure(testURL))
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if path == "" {
		t.Error("Expected local path after retry")
	}
	if fetcher.Calls() != 2 {
		t.Errorf("Expected 2 fetches, got %d", fetcher.Calls())
	}
}

func TestPurge(t *testing.T) {
	fetcher := &countingFetcher{}
	cache := newTestCache(t, t.TempDir(), fetcher)

	path, err := wait(t, cache.Ensure(testURL))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	removed, err := cache.Purge(time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected fresh file to survive, removed %d", removed)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	removed, err = cache.Purge(time.Hour)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected file to be deleted, got %v", err)
	}
	if state := cache.Entry(testURL).State; state != model.CacheMiss {
		t.Errorf("Expected state Miss after purge, got %s", state)
	}

	if _, err := wait(t, cache.Ensure(testURL)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetcher.Calls() != 2 {
		t.Errorf("Expected purge to force a new fetch, got %d fetches", fetcher.Calls())
	}
}

func TestSizeHint(t *testing.T) {
	cache := newTestCache(t, t.TempDir(), &countingFetcher{body: "0123456789"})

	size, err := cache.SizeHint()
	if err != nil || size != 0 {
		t.Errorf("Expected empty cache, got %d (%v)", size, err)
	}

	if _, err := wait(t, cache.Ensure(testURL)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	size, err = cache.SizeHint()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if size != 10 {
		t.Errorf("Expected size 10, got %d", size)
	}
}

func TestCloseResolvesPendingFutures(t *testing.T) {
	fetcher := &countingFetcher{gate: make(chan struct{})}
	cache := NewCache(t.TempDir(), fetcher, 1)
	if err := cache.Init(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	pending := cache.Ensure(testURL)
	cache.Close()

	if _, err := wait(t, pending); !errors.Is(err, model.ErrClosed) {
		t.Errorf("Expected ErrClosed for in-flight fetch, got %v", err)
	}
	if _, err := wait(t, cache.Ensure(testURL)); !errors.Is(err, model.ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}

	// Close is idempotent
	cache.Close()
}

func TestInitAfterClose(t *testing.T) {
	dir := t.TempDir()
	fetcher := &countingFetcher{}
	cache := NewCache(dir, fetcher, 1)
	if err := cache.Init(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	cache.Close()

	if err := cache.Init(); err != nil {
		t.Fatalf("Expected Init after Close to succeed, got %v", err)
	}
	defer cache.Close()

	path, err := wait(t, cache.Ensure(testURL))
	if err != nil {
		t.Fatalf("Expected fetch after reopening, got %v", err)
	}
	if path != cache.PathFor(testURL) {
		t.Errorf("Expected path %s, got %s", cache.PathFor(testURL), path)
	}
	if fetcher.Calls() != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.Calls())
	}
}

func TestPrefetch(t *testing.T) {
	fetcher := &countingFetcher{}
	cache := newTestCache(t, t.TempDir(), fetcher)

	refs := []model.MediaRef{
		{ID: "1", RemoteURL: "https://cdn.example.com/1.jpg", Kind: model.KindImage},
		{ID: "2", RemoteURL: "https://cdn.example.com/2.mp4", Kind: model.KindVideo},
		{ID: "3"},
	}
	cache.Prefetch(refs...)

	for _, ref := range refs[:2] {
		if _, err := wait(t, cache.Ensure(ref.RemoteURL)); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if fetcher.Calls() != 2 {
		t.Errorf("Expected 2 fetches, got %d", fetcher.Calls())
	}
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("Expected User-Agent '%s', got '%s'", DefaultUserAgent, ua)
		}
		_, _ = w.Write([]byte("remote image"))
	}))
	defer server.Close()

	cache := newTestCache(t, t.TempDir(), NewHTTPFetcher(5*time.Second))

	path, err := wait(t, cache.Ensure(server.URL+"/ok.jpg"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "remote image" {
		t.Errorf("Expected 'remote image', got '%s' (%v)", string(data), err)
	}

	_, err = wait(t, cache.Ensure(server.URL+"/missing.jpg"))
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Errorf("Expected ErrFetchFailed for 404, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url string
		ext string
	}{
		{"https://cdn.example.com/a.jpg", ".jpg"},
		{"https://cdn.example.com/clip.MP4?token=1", ".mp4"},
		{"https://cdn.example.com/noext", ""},
		{"https://cdn.example.com/weird.j$g", ""},
		{"https://cdn.example.com/long.verylongextension", ""},
	}

	for _, test := range tests {
		name := FileName(test.url)
		if !strings.HasSuffix(name, test.ext) {
			t.Errorf("FileName(%s) = %s, expected suffix '%s'", test.url, name, test.ext)
		}
		if len(name) != 64+len(test.ext) {
			t.Errorf("FileName(%s) = %s, expected 64 hex chars plus extension", test.url, name)
		}
		if FileName(test.url) != name {
			t.Errorf("FileName(%s) is not deterministic", test.url)
		}
	}

	if FileName("https://a.example/x.jpg") == FileName("https://b.example/x.jpg") {
		t.Error("Expected different URLs to map to different files")
	}
}
