package platform

// Package platform contains OS integration and external source glue:
// cache directory location, atomic mirror writes, and feed sources that turn
// playlists or URL lists into media references.
