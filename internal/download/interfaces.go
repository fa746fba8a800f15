package download

import (
	"context"
	"io"
	"time"

	"github.com/ytget/storyviewer/internal/model"
)

// Fetcher opens the remote body of a media URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Mirror defines the interface for the media cache.
type Mirror interface {
	// Resolve returns the local path if the URL is already mirrored, or "" otherwise.
	Resolve(url string) string

	// Ensure returns a future resolving to the local path, fetching if needed.
	Ensure(url string) *Future

	Entry(url string) Entry
	Prefetch(refs ...model.MediaRef)

	// SizeHint reports the bytes currently held in the cache directory.
	SizeHint() (int64, error)

	// Purge deletes mirrored files older than the given age and resets their entries.
	Purge(olderThan time.Duration) (int, error)
}
