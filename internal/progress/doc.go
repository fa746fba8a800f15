package progress

// Package progress keeps elapsed/duration for the focused media item and
// implements scrub-to-seek. Videos report positions from their player; still
// images use a Slideshow clock, and both feed the same Update contract.
