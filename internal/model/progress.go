package model

// ProgressState is the playback position of the focused item.
// Invariant: 0 <= PositionMs <= DurationMs once DurationMs > 0.
type ProgressState struct {
	ItemID     string
	PositionMs int64
	DurationMs int64
	Scrubbing  bool
}

// Ratio returns position/duration in [0,1], or 0 while the duration is unknown
func (p ProgressState) Ratio() float64 {
	if p.DurationMs <= 0 {
		return 0
	}
	r := float64(p.PositionMs) / float64(p.DurationMs)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Clamp returns pos limited to [0, DurationMs] when the duration is known
func (p ProgressState) Clamp(pos int64) int64 {
	if pos < 0 {
		return 0
	}
	if p.DurationMs > 0 && pos > p.DurationMs {
		return p.DurationMs
	}
	return pos
}
