package model

import "errors"

// Failure taxonomy of the engine. None of these escape to the feed as panics:
// they are turned into states and events.
var (
	// ErrFetchFailed indicates a network or storage error while mirroring media
	ErrFetchFailed = errors.New("media fetch failed")

	// ErrDecodeFailed indicates the playback primitive cannot render the mirrored file
	ErrDecodeFailed = errors.New("media decode failed")

	// ErrTimeout indicates the item did not become ready within the timeout window
	ErrTimeout = errors.New("media load timed out")

	// ErrGeometryUnavailable indicates a thumbnail could not be measured
	ErrGeometryUnavailable = errors.New("thumbnail geometry unavailable")

	// ErrClosed indicates the cache was disposed
	ErrClosed = errors.New("media cache closed")
)
