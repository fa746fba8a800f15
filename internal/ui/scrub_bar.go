package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/storyviewer/internal/model"
)

// Scrubber is the part of the progress controller the scrub bar drives
type Scrubber interface {
	BeginScrub(itemID string)
	MoveScrub(itemID string, ratio float64)
	EndScrub(itemID string)
}

// ScrubBar shows the playback position of the focused item and turns drags
// and taps into scrub calls. While the user drags, the bar follows the finger
// rather than the playback clock.
type ScrubBar struct {
	widget.BaseWidget

	scrubber Scrubber
	itemID   string
	ratio    float64
	dragging bool

	track *canvas.Rectangle
	fill  *canvas.Rectangle
}

// NewScrubBar creates a scrub bar bound to scrubber
func NewScrubBar(scrubber Scrubber) *ScrubBar {
	sb := &ScrubBar{scrubber: scrubber}
	sb.ExtendBaseWidget(sb)
	sb.track = canvas.NewRectangle(themeColor(ColorNameScrubRest))
	sb.track.CornerRadius = ScrubTrackHeight / 2
	sb.fill = canvas.NewRectangle(themeColor(ColorNameScrubFill))
	sb.fill.CornerRadius = ScrubTrackHeight / 2
	return sb
}

// SetState shows a progress snapshot; it must run on the UI goroutine
func (sb *ScrubBar) SetState(state model.ProgressState) {
	if state.ItemID != sb.itemID {
		sb.itemID = state.ItemID
		sb.dragging = false
	}
	if sb.dragging {
		return
	}
	sb.ratio = state.Ratio()
	sb.Refresh()
}

// Ratio returns the displayed position in [0,1]
func (sb *ScrubBar) Ratio() float64 {
	return sb.ratio
}

// Dragged implements fyne.Draggable
func (sb *ScrubBar) Dragged(ev *fyne.DragEvent) {
	if sb.itemID == "" {
		return
	}
	if !sb.dragging {
		sb.dragging = true
		sb.scrubber.BeginScrub(sb.itemID)
	}
	sb.moveTo(ev.Position.X)
}

// DragEnd implements fyne.Draggable
func (sb *ScrubBar) DragEnd() {
	if !sb.dragging {
		return
	}
	sb.dragging = false
	sb.scrubber.EndScrub(sb.itemID)
}

// Tapped seeks straight to the tapped position
func (sb *ScrubBar) Tapped(ev *fyne.PointEvent) {
	if sb.itemID == "" {
		return
	}
	sb.scrubber.BeginScrub(sb.itemID)
	sb.moveTo(ev.Position.X)
	sb.scrubber.EndScrub(sb.itemID)
}

func (sb *ScrubBar) moveTo(x float32) {
	width := sb.Size().Width
	if width <= 0 {
		return
	}
	ratio := float64(x / width)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	sb.ratio = ratio
	sb.scrubber.MoveScrub(sb.itemID, ratio)
	sb.Refresh()
}

// MinSize keeps the bar a comfortable touch target
func (sb *ScrubBar) MinSize() fyne.Size {
	return fyne.NewSize(MinTouchTargetSize, ScrubBarHeight)
}

// CreateRenderer implements fyne.Widget
func (sb *ScrubBar) CreateRenderer() fyne.WidgetRenderer {
	return &scrubBarRenderer{bar: sb}
}

type scrubBarRenderer struct {
	bar *ScrubBar
}

func (r *scrubBarRenderer) Layout(size fyne.Size) {
	y := (size.Height - ScrubTrackHeight) / 2
	r.bar.track.Move(fyne.NewPos(0, y))
	r.bar.track.Resize(fyne.NewSize(size.Width, ScrubTrackHeight))
	r.bar.fill.Move(fyne.NewPos(0, y))
	r.bar.fill.Resize(fyne.NewSize(size.Width*float32(r.bar.ratio), ScrubTrackHeight))
}

func (r *scrubBarRenderer) MinSize() fyne.Size {
	return r.bar.MinSize()
}

func (r *scrubBarRenderer) Refresh() {
	r.Layout(r.bar.Size())
	r.bar.track.Refresh()
	r.bar.fill.Refresh()
}

func (r *scrubBarRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bar.track, r.bar.fill}
}

func (r *scrubBarRenderer) Destroy() {}
