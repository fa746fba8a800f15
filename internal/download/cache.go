package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Jeffail/tunny"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/logging"
	"github.com/ytget/storyviewer/internal/metrics"
	"github.com/ytget/storyviewer/internal/model"
	"github.com/ytget/storyviewer/internal/platform"
)

// Cache defaults
const (
	DefaultMaxParallel = 4
)

// Request outcomes reported to metrics
const (
	outcomeHit   = "hit"
	outcomeDisk  = "disk"
	outcomeDedup = "dedup"
	outcomeFetch = "fetch"
)

// Entry is a snapshot of the cache state of one URL
type Entry struct {
	RemoteURL string
	LocalPath string
	State     model.CacheState
	Err       error
}

type entry struct {
	state     model.CacheState
	localPath string
	future    *Future
	lastErr   error
}

type fetchJob struct {
	url  string
	name string
}

type fetchResult struct {
	size int64
	err  error
}

// Cache mirrors remote media into a directory. Entry state flips are
// serialized by entriesMutex; network and disk work runs outside of it on a
// bounded worker pool.
type Cache struct {
	dir          string
	maxParallel  int
	fetcher      Fetcher
	entries      map[string]*entry
	entriesMutex sync.Mutex
	pool         *tunny.Pool
	ctx          context.Context
	cancel       context.CancelFunc
	closed       bool
	workers      sync.WaitGroup
	log          *logrus.Entry
}

// NewCache creates a cache over dir. Call Init before use.
func NewCache(dir string, fetcher Fetcher, maxParallel int) *Cache {
	if maxParallel < 1 {
		maxParallel = DefaultMaxParallel
	}
	if fetcher == nil {
		fetcher = NewHTTPFetcher(DefaultFetchTimeout)
	}
	return &Cache{
		dir:         dir,
		maxParallel: maxParallel,
		fetcher:     fetcher,
		entries:     make(map[string]*entry),
		log:         logging.Component(nil, "cache"),
	}
}

// SetLogger replaces the logger entry used by the cache
func (c *Cache) SetLogger(log *logrus.Entry) {
	c.log = logging.Component(log, "cache")
}

// Dir returns the mirror directory
func (c *Cache) Dir() string {
	return c.dir
}

// Init creates the mirror directory and starts the fetch workers. A closed
// cache may be initialized again.
func (c *Cache) Init() error {
	if err := platform.CreateDirectoryIfNotExists(c.dir); err != nil {
		return err
	}

	c.entriesMutex.Lock()
	defer c.entriesMutex.Unlock()
	if c.pool != nil {
		if c.closed {
			// Close is still draining the workers
			return model.ErrClosed
		}
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.pool = tunny.NewFunc(c.maxParallel, c.work)
	c.closed = false

	c.log.WithFields(logrus.Fields{"dir": c.dir, "workers": c.maxParallel}).Info("Media cache ready")
	return nil
}

// Close cancels in-flight fetches and stops the workers. Pending futures
// resolve with model.ErrClosed and later calls to Ensure fail the same way.
func (c *Cache) Close() {
	c.entriesMutex.Lock()
	if c.closed || c.pool == nil {
		c.closed = true
		c.entriesMutex.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	c.entriesMutex.Unlock()

	c.workers.Wait()
	c.pool.Close()

	c.entriesMutex.Lock()
	c.pool = nil
	c.entriesMutex.Unlock()
}

// PathFor returns the deterministic mirror path of a URL
func (c *Cache) PathFor(url string) string {
	return filepath.Join(c.dir, FileName(url))
}

// Resolve returns the local path of an already mirrored URL without blocking
// on the network. A file left on disk by an earlier run counts as mirrored.
func (c *Cache) Resolve(url string) string {
	c.entriesMutex.Lock()
	e := c.entries[url]
	if e != nil && e.state == model.CacheHit {
		path := e.localPath
		c.entriesMutex.Unlock()
		return path
	}
	if e != nil && e.state == model.CacheFetching {
		c.entriesMutex.Unlock()
		return ""
	}
	c.entriesMutex.Unlock()

	path := c.PathFor(url)
	if !fileExists(path) {
		return ""
	}

	c.entriesMutex.Lock()
	defer c.entriesMutex.Unlock()
	e = c.entryLocked(url)
	if e.state == model.CacheMiss || e.state == model.CacheFailed {
		e.state = model.CacheHit
		e.localPath = path
		e.lastErr = nil
	}
	if e.state == model.CacheHit {
		return e.localPath
	}
	return ""
}

// Ensure returns the local path of url, fetching it if necessary. Concurrent
// calls for the same URL share one fetch and one Future.
func (c *Cache) Ensure(url string) *Future {
	c.entriesMutex.Lock()
	if c.closed {
		c.entriesMutex.Unlock()
		return resolvedFuture("", model.ErrClosed)
	}
	if c.pool == nil {
		c.entriesMutex.Unlock()
		return resolvedFuture("", ErrNotInitialized)
	}

	e := c.entryLocked(url)
	switch e.state {
	case model.CacheHit:
		path := e.localPath
		c.entriesMutex.Unlock()
		metrics.CacheRequests.WithLabelValues(outcomeHit).Inc()
		return resolvedFuture(path, nil)
	case model.CacheFetching:
		f := e.future
		c.entriesMutex.Unlock()
		metrics.CacheRequests.WithLabelValues(outcomeDedup).Inc()
		return f
	}

	// Miss or Failed: a Failed entry is retried rather than memoized
	f := newFuture()
	e.state = model.CacheFetching
	e.future = f
	e.lastErr = nil
	c.workers.Add(1)
	c.entriesMutex.Unlock()

	go c.load(url, f)
	return f
}

// Entry returns a snapshot of the state of url
func (c *Cache) Entry(url string) Entry {
	c.entriesMutex.Lock()
	defer c.entriesMutex.Unlock()

	e, ok := c.entries[url]
	if !ok {
		return Entry{RemoteURL: url, State: model.CacheMiss}
	}
	return Entry{
		RemoteURL: url,
		LocalPath: e.localPath,
		State:     e.state,
		Err:       e.lastErr,
	}
}

// Prefetch starts mirroring the given items without waiting for them
func (c *Cache) Prefetch(refs ...model.MediaRef) {
	for _, ref := range refs {
		if ref.RemoteURL == "" {
			continue
		}
		c.Ensure(ref.Key())
	}
}

// SizeHint reports the bytes held by mirrored files
func (c *Cache) SizeHint() (int64, error) {
	return platform.DirSize(c.dir)
}

// Purge deletes mirrored files whose modification time is older than
// olderThan, plus any leftover temporary files, and resets their entries to
// Miss. Entries with a fetch in flight are left alone.
func (c *Cache) Purge(olderThan time.Duration) (int, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	c.entriesMutex.Lock()
	defer c.entriesMutex.Unlock()

	byPath := make(map[string]*entry, len(c.entries))
	for url, e := range c.entries {
		byPath[c.PathFor(url)] = e
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		e := byPath[path]
		if e != nil && e.state == model.CacheFetching {
			continue
		}
		if !platform.IsTempFile(f.Name()) {
			info, err := f.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.log.WithError(err).WithField("path", path).Warn("Failed to purge mirror file")
			continue
		}
		if e != nil {
			e.state = model.CacheMiss
			e.localPath = ""
			e.lastErr = nil
		}
		removed++
	}

	if removed > 0 {
		metrics.CachePurged.Add(float64(removed))
		c.log.WithField("files", removed).Info("Purged media cache")
	}
	return removed, nil
}

func (c *Cache) entryLocked(url string) *entry {
	e, ok := c.entries[url]
	if !ok {
		e = &entry{state: model.CacheMiss}
		c.entries[url] = e
	}
	return e
}

// load resolves a Fetching entry: reuse the file on disk, or download it
func (c *Cache) load(url string, f *Future) {
	defer c.workers.Done()

	path := c.PathFor(url)
	if fileExists(path) {
		metrics.CacheRequests.WithLabelValues(outcomeDisk).Inc()
		c.settle(url, f, path, nil)
		return
	}

	metrics.CacheRequests.WithLabelValues(outcomeFetch).Inc()
	metrics.CacheInFlight.Inc()
	res, err := c.pool.ProcessCtx(c.ctx, fetchJob{url: url, name: filepath.Base(path)})
	metrics.CacheInFlight.Dec()

	if err == nil {
		r := res.(fetchResult)
		err = r.err
		if err == nil {
			metrics.CacheBytesMirrored.Add(float64(r.size))
			c.log.WithFields(logrus.Fields{
				"url":  url,
				"size": humanize.Bytes(uint64(r.size)),
			}).Debug("Mirrored media")
		}
	}

	if err != nil {
		if c.ctx.Err() != nil {
			err = model.ErrClosed
		} else {
			err = &FetchError{URL: url, Err: err}
			metrics.CacheFetchFailures.Inc()
			c.log.WithError(err).WithField("url", url).Warn("Media fetch failed")
		}
		c.settle(url, f, "", err)
		return
	}
	c.settle(url, f, path, nil)
}

func (c *Cache) settle(url string, f *Future, path string, err error) {
	c.entriesMutex.Lock()
	if e := c.entries[url]; e != nil && e.future == f {
		e.future = nil
		if err != nil {
			e.state = model.CacheFailed
			e.localPath = ""
			e.lastErr = err
		} else {
			e.state = model.CacheHit
			e.localPath = path
			e.lastErr = nil
		}
	}
	c.entriesMutex.Unlock()

	f.resolve(path, err)
}

// work runs on a pool worker
func (c *Cache) work(payload interface{}) interface{} {
	job := payload.(fetchJob)

	body, err := c.fetcher.Fetch(c.ctx, job.url)
	if err != nil {
		return fetchResult{err: err}
	}
	defer body.Close()

	n, err := platform.WriteFileAtomic(c.dir, job.name, body)
	return fetchResult{size: n, err: err}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
