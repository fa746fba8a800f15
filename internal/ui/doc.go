package ui

// Package ui contains the Fyne user interface of the story viewer: a grid of
// thumbnails, the full-screen overlay driven by the transition loop, the scrub
// bar and the loading indicator. All UI strings are localized via Localization.
