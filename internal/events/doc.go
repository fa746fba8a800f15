package events

// Package events publishes the engine's item events (ready, timeout,
// completed, dismissed, advanced) to the surrounding screen.
