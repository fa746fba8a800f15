package viewer

// Package viewer is the host side of the media presentation engine. An
// Engine holds the feed's MediaRef stream and focus, and wires the media
// cache, the load lifecycle, playback progress and the transition overlay
// into one unit the UI drives with thumbnails, taps and pointer events.
