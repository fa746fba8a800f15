package metrics

// Package metrics holds the prometheus collectors of the presentation engine.
