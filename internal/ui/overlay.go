package ui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/storyviewer/internal/model"
	"github.com/ytget/storyviewer/internal/transition"
)

// Overlay is the full-window viewer layer. It draws the scenes produced by
// the transition loop and forwards pointer input back to it. While the scene
// is Closed the overlay is hidden and lets input through to the feed.
type Overlay struct {
	widget.BaseWidget

	localization *Localization
	tracker      *PointerTracker

	backdrop    *canvas.Rectangle
	card        *canvas.Rectangle
	image       *canvas.Image
	placeholder *widget.Label
	scrub       *ScrubBar
	loading     *LoadingIndicator
	closeBtn    *widget.Button

	// written by the render goroutine, read on the UI goroutine
	mutex   sync.Mutex
	latest  transition.Scene
	pending bool

	shown  transition.Scene
	item   model.MediaRef
	source string
}

// NewOverlay creates a hidden overlay
func NewOverlay(localization *Localization, sink PointerSink, scrubber Scrubber, onRetry func(itemID string), onClose func()) *Overlay {
	o := &Overlay{
		localization: localization,
		tracker:      NewPointerTracker(sink),
		shown:        transition.Scene{State: transition.StateClosed, Scale: 1},
	}
	o.ExtendBaseWidget(o)

	o.backdrop = canvas.NewRectangle(color.Transparent)
	o.card = canvas.NewRectangle(color.Transparent)
	o.image = &canvas.Image{FillMode: canvas.ImageFillContain, ScaleMode: canvas.ImageScaleSmooth}
	o.image.Hide()
	o.placeholder = widget.NewLabel("")
	o.placeholder.Alignment = fyne.TextAlignCenter
	o.placeholder.Wrapping = fyne.TextWrapWord
	o.placeholder.Hide()
	o.scrub = NewScrubBar(scrubber)
	o.loading = NewLoadingIndicator(localization, onRetry)
	o.closeBtn = widget.NewButton(IconClose, onClose)
	o.closeBtn.Importance = widget.LowImportance

	o.Hide()
	return o
}

// Apply queues a scene for drawing. It is safe to call from any goroutine;
// scenes arriving faster than the UI draws are coalesced to the latest.
func (o *Overlay) Apply(scene transition.Scene) {
	o.mutex.Lock()
	o.latest = scene
	schedule := !o.pending
	o.pending = true
	o.mutex.Unlock()

	if schedule {
		fyne.Do(o.flush)
	}
}

func (o *Overlay) flush() {
	o.mutex.Lock()
	scene := o.latest
	o.pending = false
	o.mutex.Unlock()
	o.draw(scene)
}

// draw shows scene; it must run on the UI goroutine
func (o *Overlay) draw(scene transition.Scene) {
	o.shown = scene
	if scene.State == transition.StateClosed {
		if o.tracker.Active() {
			o.tracker.Cancel()
		}
		o.Hide()
		return
	}
	if !o.Visible() {
		o.Show()
	}
	o.Refresh()
}

// Scene returns the last drawn scene
func (o *Overlay) Scene() transition.Scene {
	return o.shown
}

// ShowItem switches the overlay content to ref. source is the local mirror
// path when the item is cached, the remote URL otherwise.
func (o *Overlay) ShowItem(ref model.MediaRef, source string, status model.LoadStatus) {
	o.item = ref
	o.source = ""
	if source != "" && source != ref.RemoteURL {
		o.source = source
	}
	o.scrub.SetState(model.ProgressState{ItemID: ref.ID, DurationMs: ref.DurationHintMs})
	o.applyContent(status)
}

// SetStatus applies a load status of the shown item
func (o *Overlay) SetStatus(status model.LoadStatus, source string) {
	if status.ItemID == "" || status.ItemID != o.item.ID {
		return
	}
	if source != "" && source != o.item.RemoteURL {
		o.source = source
	}
	o.applyContent(status)
}

// SetProgress applies a progress snapshot of the shown item
func (o *Overlay) SetProgress(state model.ProgressState) {
	if state.ItemID != o.item.ID {
		return
	}
	o.scrub.SetState(state)
}

// ItemID returns the id of the shown item
func (o *Overlay) ItemID() string {
	return o.item.ID
}

// RefreshTexts re-reads localized strings
func (o *Overlay) RefreshTexts() {
	o.loading.RefreshTexts()
	if o.item.Kind == model.KindVideo {
		o.placeholder.SetText(o.videoText())
	}
}

func (o *Overlay) applyContent(status model.LoadStatus) {
	o.loading.SetStatus(status)

	if o.item.Kind == model.KindVideo {
		o.image.Hide()
		o.placeholder.SetText(o.videoText())
		o.placeholder.Show()
		return
	}

	o.placeholder.Hide()
	if status.State == model.LoadReady && o.source != "" {
		if o.image.File != o.source {
			o.image.File = o.source
			o.image.Refresh()
		}
		o.image.Show()
		return
	}
	o.image.Hide()
}

func (o *Overlay) videoText() string {
	text := IconVideo + " " + o.localization.GetText(KeyVideoUnavailable)
	if o.item.Title != "" {
		text = o.item.Title + "\n" + text
	}
	return text
}

// Dragged implements fyne.Draggable
func (o *Overlay) Dragged(ev *fyne.DragEvent) {
	o.tracker.Drag(ev)
}

// DragEnd implements fyne.Draggable
func (o *Overlay) DragEnd() {
	o.tracker.Up()
}

// TouchDown implements mobile.Touchable
func (o *Overlay) TouchDown(ev *mobile.TouchEvent) {
	o.tracker.TouchDown(ev)
}

// TouchUp implements mobile.Touchable
func (o *Overlay) TouchUp(ev *mobile.TouchEvent) {
	o.tracker.TouchUp(ev)
}

// TouchCancel implements mobile.Touchable
func (o *Overlay) TouchCancel(ev *mobile.TouchEvent) {
	o.tracker.TouchCancel(ev)
}

// CreateRenderer implements fyne.Widget
func (o *Overlay) CreateRenderer() fyne.WidgetRenderer {
	return &overlayRenderer{overlay: o}
}

type overlayRenderer struct {
	overlay *Overlay
}

func (r *overlayRenderer) Layout(size fyne.Size) {
	o := r.overlay
	scene := o.shown
	f := scene.Frame

	o.backdrop.Move(fyne.NewPos(0, 0))
	o.backdrop.Resize(size)

	pos := fyne.NewPos(f.X, f.Y)
	frameSize := fyne.NewSize(f.Width, f.Height)
	o.card.Move(pos)
	o.card.Resize(frameSize)
	o.image.Move(pos)
	o.image.Resize(frameSize)

	inner := fyne.NewSize(maxf(f.Width-2*ScrubBarMargin, 0), f.Height)
	ph := o.placeholder.MinSize()
	o.placeholder.Resize(fyne.NewSize(inner.Width, ph.Height))
	o.placeholder.Move(fyne.NewPos(f.X+ScrubBarMargin, f.Y+(f.Height-ph.Height)/2))

	lw := maxf(LoadingIndicatorMin, o.loading.MinSize().Width)
	lh := o.loading.MinSize().Height
	o.loading.Resize(fyne.NewSize(lw, lh))
	o.loading.Move(fyne.NewPos(f.X+(f.Width-lw)/2, f.Y+(f.Height-lh)/2))

	o.scrub.Resize(fyne.NewSize(inner.Width, ScrubBarHeight))
	o.scrub.Move(fyne.NewPos(f.X+ScrubBarMargin, f.Y+f.Height-ScrubBarMargin-ScrubBarHeight))

	o.closeBtn.Resize(fyne.NewSize(CloseButtonSize, CloseButtonSize))
	o.closeBtn.Move(fyne.NewPos(f.X+f.Width-CloseButtonSize-ScrubBarMargin/2, f.Y+ScrubBarMargin/2))
}

func (r *overlayRenderer) MinSize() fyne.Size {
	return fyne.NewSize(0, 0)
}

func (r *overlayRenderer) Refresh() {
	o := r.overlay
	scene := o.shown

	o.backdrop.FillColor = withAlpha(themeColor(ColorNameBackdrop), float32(BackdropMaxAlpha)/255*scene.BackdropOpacity)
	o.card.FillColor = withAlpha(themeColor(ColorNameBackdrop), scene.ContentOpacity)
	o.card.CornerRadius = scene.Frame.CornerRadius
	o.image.Translucency = float64(1 - scene.ContentOpacity)

	// controls only while the overlay is settled
	settled := scene.State == transition.StateOpen && scene.DragX == 0 && scene.DragY == 0
	if settled {
		o.scrub.Show()
		o.closeBtn.Show()
	} else {
		o.scrub.Hide()
		o.closeBtn.Hide()
	}

	r.Layout(o.Size())
	o.backdrop.Refresh()
	o.card.Refresh()
	o.image.Refresh()
	o.placeholder.Refresh()
	o.loading.Refresh()
	o.scrub.Refresh()
	o.closeBtn.Refresh()
}

func (r *overlayRenderer) Objects() []fyne.CanvasObject {
	o := r.overlay
	return []fyne.CanvasObject{o.backdrop, o.card, o.image, o.placeholder, o.loading, o.scrub, o.closeBtn}
}

func (r *overlayRenderer) Destroy() {}

func withAlpha(c color.Color, opacity float32) color.Color {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	nc.A = uint8(float32(nc.A) * opacity)
	return nc
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
