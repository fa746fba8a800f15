package model

import "fmt"

// Frame is a rectangle in window coordinates with a corner radius.
// It describes either a thumbnail anchor or the current overlay bounds.
type Frame struct {
	X            float32
	Y            float32
	Width        float32
	Height       float32
	CornerRadius float32
}

// NewFrame creates a frame without rounded corners
func NewFrame(x, y, w, h float32) Frame {
	return Frame{X: x, Y: y, Width: w, Height: h}
}

// IsEmpty returns true for frames that cannot anchor an animation
func (f Frame) IsEmpty() bool {
	return f.Width <= 0 || f.Height <= 0
}

// Intersects reports whether f overlaps the viewport of size w x h
func (f Frame) Intersects(w, h float32) bool {
	if f.IsEmpty() {
		return false
	}
	return f.X < w && f.Y < h && f.X+f.Width > 0 && f.Y+f.Height > 0
}

// Center returns the midpoint of the frame
func (f Frame) Center() Point {
	return Point{X: f.X + f.Width/2, Y: f.Y + f.Height/2}
}

// Lerp interpolates between a (t=0) and b (t=1). All fields move together.
func Lerp(a, b Frame, t float32) Frame {
	return Frame{
		X:            a.X + (b.X-a.X)*t,
		Y:            a.Y + (b.Y-a.Y)*t,
		Width:        a.Width + (b.Width-a.Width)*t,
		Height:       a.Height + (b.Height-a.Height)*t,
		CornerRadius: a.CornerRadius + (b.CornerRadius-a.CornerRadius)*t,
	}
}

// Scale shrinks or grows the frame around its center
func (f Frame) Scale(s float32) Frame {
	c := f.Center()
	w, h := f.Width*s, f.Height*s
	return Frame{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h, CornerRadius: f.CornerRadius * s}
}

// Offset translates the frame
func (f Frame) Offset(dx, dy float32) Frame {
	f.X += dx
	f.Y += dy
	return f
}

func (f Frame) String() string {
	return fmt.Sprintf("{x:%.1f y:%.1f w:%.1f h:%.1f r:%.1f}", f.X, f.Y, f.Width, f.Height, f.CornerRadius)
}

// Point is a position in window coordinates
type Point struct {
	X float32
	Y float32
}

// GestureMode is chosen once per gesture from the first movement's dominant axis
type GestureMode int

const (
	GestureIdle GestureMode = iota
	GestureVertical
	GestureHorizontal
)

// String returns a short label for the mode
func (m GestureMode) String() string {
	switch m {
	case GestureIdle:
		return "Idle"
	case GestureVertical:
		return "Vertical"
	case GestureHorizontal:
		return "Horizontal"
	default:
		return "Unknown"
	}
}

// Direction is the paging direction through the feed
type Direction int

const (
	DirectionNext Direction = 1
	DirectionPrev Direction = -1
)

// String returns "next" or "previous"
func (d Direction) String() string {
	if d == DirectionPrev {
		return "previous"
	}
	return "next"
}
