package transition

import (
	"time"

	"github.com/ytget/storyviewer/internal/model"
)

// Gesture thresholds constants
const (
	DefaultSlop           float32 = 10.0
	DefaultVerticalBias   float32 = 1.5
	DefaultVelocityWindow         = 100 * time.Millisecond
)

// Classifier picks the mode of one pointer gesture from its first sufficient
// movement. Vertical wins unless horizontal movement exceeds the vertical one
// by the bias factor. The mode never changes until the gesture ends.
type Classifier struct {
	slop         float32
	verticalBias float32

	active bool
	start  model.Point
	mode   model.GestureMode
}

// NewClassifier creates a classifier with the given slop and vertical bias
func NewClassifier(slop, verticalBias float32) *Classifier {
	if slop <= 0 {
		slop = DefaultSlop
	}
	if verticalBias <= 0 {
		verticalBias = DefaultVerticalBias
	}
	return &Classifier{slop: slop, verticalBias: verticalBias}
}

// Begin starts a gesture at p in Idle mode
func (c *Classifier) Begin(p model.Point) {
	c.active = true
	c.start = p
	c.mode = model.GestureIdle
}

// Move feeds a pointer position and returns the mode and the displacement
// from the gesture start. Before classification the mode is Idle.
func (c *Classifier) Move(p model.Point) (model.GestureMode, float32, float32) {
	if !c.active {
		return model.GestureIdle, 0, 0
	}
	dx := p.X - c.start.X
	dy := p.Y - c.start.Y

	if c.mode == model.GestureIdle && dx*dx+dy*dy >= c.slop*c.slop {
		if abs32(dy)*c.verticalBias >= abs32(dx) {
			c.mode = model.GestureVertical
		} else {
			c.mode = model.GestureHorizontal
		}
	}
	return c.mode, dx, dy
}

// End finishes the gesture and returns its final mode
func (c *Classifier) End() model.GestureMode {
	mode := c.mode
	c.active = false
	c.mode = model.GestureIdle
	return mode
}

// Active reports whether a gesture is in progress
func (c *Classifier) Active() bool {
	return c.active
}

// Mode returns the mode of the current gesture
func (c *Classifier) Mode() model.GestureMode {
	return c.mode
}

type sample struct {
	at time.Time
	p  model.Point
}

// VelocityTracker estimates pointer velocity in pixels per second from the
// samples inside a short trailing window.
type VelocityTracker struct {
	window  time.Duration
	samples []sample
}

// NewVelocityTracker creates a tracker over the given window
func NewVelocityTracker(window time.Duration) *VelocityTracker {
	if window <= 0 {
		window = DefaultVelocityWindow
	}
	return &VelocityTracker{window: window}
}

// Reset drops every sample
func (v *VelocityTracker) Reset() {
	v.samples = v.samples[:0]
}

// Add records a pointer position
func (v *VelocityTracker) Add(at time.Time, p model.Point) {
	v.samples = append(v.samples, sample{at: at, p: p})
	cutoff := at.Add(-v.window)
	i := 0
	for i < len(v.samples)-1 && v.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		v.samples = append(v.samples[:0], v.samples[i:]...)
	}
}

// Velocity returns the average velocity across the window
func (v *VelocityTracker) Velocity() model.Point {
	if len(v.samples) < 2 {
		return model.Point{}
	}
	first, last := v.samples[0], v.samples[len(v.samples)-1]
	dt := float32(last.at.Sub(first.at).Seconds())
	if dt <= 0 {
		return model.Point{}
	}
	return model.Point{X: (last.p.X - first.p.X) / dt, Y: (last.p.Y - first.p.Y) / dt}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sign32(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
