package model

// Package model defines the data shared by the media presentation engine:
// media references coming from the feed, cache and load states, progress
// snapshots, overlay frames, and the events reported back to the feed.
// Structures are plain values so they can be copied across goroutines.
