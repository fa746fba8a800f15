package download

import (
	"context"
	"sync"
)

// Future is the shared result of one Ensure. Every caller that asked for the
// same URL while the fetch was in flight holds the same Future.
type Future struct {
	done chan struct{}
	once sync.Once
	path string
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(path string, err error) *Future {
	f := newFuture()
	f.resolve(path, err)
	return f
}

func (f *Future) resolve(path string, err error) {
	f.once.Do(func() {
		f.path = path
		f.err = err
		close(f.done)
	})
}

// Done is closed once the result is available
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx is done
func (f *Future) Wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.path, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Peek returns the outcome without blocking. done is false while pending.
func (f *Future) Peek() (path string, done bool, err error) {
	select {
	case <-f.done:
		return f.path, true, f.err
	default:
		return "", false, nil
	}
}
