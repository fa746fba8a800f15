package ui

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/mobile"

	"github.com/ytget/storyviewer/internal/model"
)

// PointerSink receives raw pointer input in overlay coordinates
type PointerSink interface {
	PointerDown(p model.Point, at time.Time)
	PointerMove(p model.Point, at time.Time)
	PointerUp(p model.Point, at time.Time)
	PointerCancel()
	Now() time.Time
}

// PointerTracker folds fyne drag and touch callbacks into one down/move/up
// sequence. Desktop drivers only report drags, mobile drivers report both
// touches and drags, so a pointer is started by whichever arrives first.
type PointerTracker struct {
	sink PointerSink
	down bool
	last model.Point
}

// NewPointerTracker creates a tracker forwarding to sink
func NewPointerTracker(sink PointerSink) *PointerTracker {
	return &PointerTracker{sink: sink}
}

// Down starts a pointer at p unless one is already down
func (pt *PointerTracker) Down(p fyne.Position) {
	if pt.down || pt.sink == nil {
		return
	}
	pt.down = true
	pt.last = toPoint(p)
	pt.sink.PointerDown(pt.last, pt.sink.Now())
}

// Drag moves the pointer. The first drag of a gesture starts it where the
// drag began.
func (pt *PointerTracker) Drag(ev *fyne.DragEvent) {
	if pt.sink == nil {
		return
	}
	if !pt.down {
		pt.Down(ev.Position.Subtract(ev.Dragged))
	}
	pt.last = toPoint(ev.Position)
	pt.sink.PointerMove(pt.last, pt.sink.Now())
}

// Up releases the pointer at its last position
func (pt *PointerTracker) Up() {
	if !pt.down {
		return
	}
	pt.down = false
	pt.sink.PointerUp(pt.last, pt.sink.Now())
}

// Cancel aborts the pointer without a release decision
func (pt *PointerTracker) Cancel() {
	if !pt.down {
		return
	}
	pt.down = false
	pt.sink.PointerCancel()
}

// Active reports whether a pointer is down
func (pt *PointerTracker) Active() bool {
	return pt.down
}

// TouchDown implements mobile.Touchable
func (pt *PointerTracker) TouchDown(event *mobile.TouchEvent) {
	pt.Down(event.Position)
}

// TouchUp implements mobile.Touchable
func (pt *PointerTracker) TouchUp(event *mobile.TouchEvent) {
	if pt.down {
		pt.last = toPoint(event.Position)
	}
	pt.Up()
}

// TouchCancel implements mobile.Touchable
func (pt *PointerTracker) TouchCancel(_ *mobile.TouchEvent) {
	pt.Cancel()
}

func toPoint(p fyne.Position) model.Point {
	return model.Point{X: p.X, Y: p.Y}
}
