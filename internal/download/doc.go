package download

// Package download mirrors remote media to a local cache directory. Each
// distinct URL maps to one file at a deterministic path, concurrent requests
// for the same URL share a single in-flight fetch, and files found on disk
// are reused across process restarts.
