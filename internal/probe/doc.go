package probe

// Package probe checks that a mirrored file can be rendered as the media kind
// the feed announced, and reads video durations through ffprobe.
