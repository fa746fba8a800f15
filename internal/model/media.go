package model

import (
	"path"
	"strings"
)

// MediaKind tells the engine how an item is presented
type MediaKind string

const (
	// KindImage is a still image shown for a fixed duration
	KindImage MediaKind = "image"

	// KindVideo is continuously playing media driven by the playback clock
	KindVideo MediaKind = "video"
)

// String returns the string representation of MediaKind
func (k MediaKind) String() string {
	return string(k)
}

// IsFixedDuration reports whether progress for this kind comes from a local tick
// rather than from a playback clock.
func (k MediaKind) IsFixedDuration() bool {
	return k != KindVideo
}

// MediaRef is one record of the feed stream. Identity is RemoteURL.
type MediaRef struct {
	ID             string    `json:"id"`
	RemoteURL      string    `json:"remote_url"`
	Kind           MediaKind `json:"kind"`
	DurationHintMs int64     `json:"duration_hint_ms,omitempty"`
	Title          string    `json:"title,omitempty"`
}

// Key returns the cache identity of the reference
func (r MediaRef) Key() string {
	return r.RemoteURL
}

// KindFromURL guesses the media kind from the URL path extension.
// Unknown extensions are treated as images.
func KindFromURL(rawURL string) MediaKind {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".mp4", ".m4v", ".mov", ".webm", ".mkv", ".m3u8":
		return KindVideo
	default:
		return KindImage
	}
}
