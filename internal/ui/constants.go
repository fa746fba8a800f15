package ui

import "time"

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconPlay     = "▶"
	IconClose    = "×"
	IconError    = "❌"
	IconVideo    = "🎬"
	IconRetry    = "↻"
)

// Feed grid sizing
const (
	ThumbnailSize       float32 = 120
	MobileThumbnailSize float32 = 96
	ThumbnailRadius     float32 = 8
	TitleMaxRunes               = 24
)

// Overlay sizing
const (
	ScrubBarHeight      float32 = 24
	ScrubTrackHeight    float32 = 4
	ScrubBarMargin      float32 = 16
	CloseButtonSize     float32 = 44
	BackdropMaxAlpha            = 230
	MinTouchTargetSize  float32 = 44
	LoadingIndicatorMin float32 = 160
)

// Notification behavior
const (
	NotificationAutoHide = 4 * time.Second
)

// URLs / parsing
const (
	PlaylistQueryParam = "list="
)

// Cache maintenance
const (
	PurgeOlderThan = 7 * 24 * time.Hour
)
