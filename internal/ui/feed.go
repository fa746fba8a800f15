package ui

import (
	"fmt"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/storyviewer/internal/model"
)

// FeedCallbacks connect the grid to the viewer engine
type FeedCallbacks struct {
	Visible func(itemIDs ...string)
	Hidden  func(itemIDs ...string)
	Open    func(itemID string)
	Source  func(itemID string) string
	Status  func(itemID string) model.LoadStatus
}

// Feed is the scrolling grid of thumbnails the viewer opens from and closes
// into. It reports which items are bound to on-screen tiles and measures
// their rects for the transition.
type Feed struct {
	widget.BaseWidget

	grid      *widget.GridWrap
	callbacks FeedCallbacks
	tileSize  float32

	// origin is the object whose top-left corner is (0,0) for measured rects
	origin fyne.CanvasObject

	mutex sync.Mutex
	items []model.MediaRef
	bound map[string]*thumbnailTile
}

// NewFeed creates an empty feed
func NewFeed(tileSize float32) *Feed {
	f := &Feed{
		tileSize: tileSize,
		bound:    make(map[string]*thumbnailTile),
	}
	f.ExtendBaseWidget(f)
	f.grid = widget.NewGridWrap(f.length, f.createTile, f.updateTile)
	return f
}

// SetCallbacks connects the feed; it must be called before the feed is shown
func (f *Feed) SetCallbacks(callbacks FeedCallbacks) {
	f.callbacks = callbacks
}

// SetOrigin sets the object that measured rects are relative to
func (f *Feed) SetOrigin(origin fyne.CanvasObject) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.origin = origin
}

// SetItems replaces the feed content; it must run on the UI goroutine
func (f *Feed) SetItems(refs []model.MediaRef) {
	keep := make(map[string]bool, len(refs))
	for _, ref := range refs {
		keep[ref.ID] = true
	}

	f.mutex.Lock()
	f.items = append([]model.MediaRef(nil), refs...)
	var gone []string
	for id, tile := range f.bound {
		if !keep[id] {
			gone = append(gone, id)
			tile.unbind()
			delete(f.bound, id)
		}
	}
	f.mutex.Unlock()

	if len(gone) > 0 && f.callbacks.Hidden != nil {
		f.callbacks.Hidden(gone...)
	}
	f.grid.Refresh()
	if len(refs) > 0 {
		f.grid.ScrollToTop()
	}
}

// Items returns the current feed
func (f *Feed) Items() []model.MediaRef {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]model.MediaRef(nil), f.items...)
}

// Measure returns the on-screen rect of the item's thumbnail. The widget
// tree is read on the UI goroutine, so Measure must be called off it.
func (f *Feed) Measure(itemID string) (model.Frame, error) {
	f.mutex.Lock()
	tile := f.bound[itemID]
	origin := f.origin
	f.mutex.Unlock()

	if tile == nil {
		return model.Frame{}, fmt.Errorf("%w: %s is not on screen", model.ErrGeometryUnavailable, itemID)
	}
	app := fyne.CurrentApp()
	if app == nil {
		return model.Frame{}, model.ErrGeometryUnavailable
	}

	var (
		visible bool
		pos     fyne.Position
		size    fyne.Size
	)
	fyne.DoAndWait(func() {
		visible = tile.Visible()
		if !visible {
			return
		}
		driver := app.Driver()
		pos = driver.AbsolutePositionForObject(tile)
		if origin != nil {
			pos = pos.Subtract(driver.AbsolutePositionForObject(origin))
		}
		size = tile.Size()
	})

	if !visible {
		return model.Frame{}, fmt.Errorf("%w: %s is not on screen", model.ErrGeometryUnavailable, itemID)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return model.Frame{}, fmt.Errorf("%w: %s has no size", model.ErrGeometryUnavailable, itemID)
	}
	return model.Frame{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height, CornerRadius: ThumbnailRadius}, nil
}

// Reveal scrolls the grid so that the item's tile is on screen
func (f *Feed) Reveal(itemID string) {
	f.mutex.Lock()
	index := -1
	for i, ref := range f.items {
		if ref.ID == itemID {
			index = i
			break
		}
	}
	f.mutex.Unlock()
	if index >= 0 {
		f.grid.ScrollTo(index)
	}
}

// StatusChanged updates the tile bound to the status' item, if any
func (f *Feed) StatusChanged(status model.LoadStatus) {
	f.mutex.Lock()
	tile := f.bound[status.ItemID]
	f.mutex.Unlock()
	if tile == nil {
		return
	}
	tile.setStatus(status, f.source(status.ItemID))
}

// BoundIDs returns the ids of items that currently have a tile
func (f *Feed) BoundIDs() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	ids := make([]string, 0, len(f.bound))
	for id := range f.bound {
		ids = append(ids, id)
	}
	return ids
}

func (f *Feed) length() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.items)
}

func (f *Feed) createTile() fyne.CanvasObject {
	return newThumbnailTile(f)
}

// updateTile rebinds a recycled tile. The item it showed before scrolled off
// and is reported hidden; the new one is reported visible.
func (f *Feed) updateTile(id widget.GridWrapItemID, o fyne.CanvasObject) {
	tile, ok := o.(*thumbnailTile)
	if !ok {
		return
	}

	f.mutex.Lock()
	if id < 0 || id >= len(f.items) {
		f.mutex.Unlock()
		return
	}
	ref := f.items[id]
	previous := tile.ref.ID
	if previous == ref.ID {
		f.mutex.Unlock()
		tile.bind(ref, f.status(ref.ID), f.source(ref.ID))
		return
	}
	if previous != "" && f.bound[previous] == tile {
		delete(f.bound, previous)
	} else {
		previous = ""
	}
	f.bound[ref.ID] = tile
	f.mutex.Unlock()

	tile.bind(ref, f.status(ref.ID), f.source(ref.ID))
	if previous != "" && f.callbacks.Hidden != nil {
		f.callbacks.Hidden(previous)
	}
	if f.callbacks.Visible != nil {
		f.callbacks.Visible(ref.ID)
	}
}

func (f *Feed) open(itemID string) {
	if f.callbacks.Open != nil {
		f.callbacks.Open(itemID)
	}
}

func (f *Feed) source(itemID string) string {
	if f.callbacks.Source == nil {
		return ""
	}
	return f.callbacks.Source(itemID)
}

func (f *Feed) status(itemID string) model.LoadStatus {
	if f.callbacks.Status == nil {
		return model.LoadStatus{ItemID: itemID}
	}
	return f.callbacks.Status(itemID)
}

// CreateRenderer implements fyne.Widget
func (f *Feed) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(f.grid)
}

// thumbnailTile is one recycled grid cell
type thumbnailTile struct {
	widget.BaseWidget

	feed *Feed
	ref  model.MediaRef

	background *canvas.Rectangle
	ring       *canvas.Rectangle
	image      *canvas.Image
	badge      *canvas.Text
	title      *widget.Label
}

func newThumbnailTile(feed *Feed) *thumbnailTile {
	t := &thumbnailTile{feed: feed}
	t.ExtendBaseWidget(t)

	t.background = canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground))
	t.background.CornerRadius = ThumbnailRadius
	t.ring = canvas.NewRectangle(color.Transparent)
	t.ring.CornerRadius = ThumbnailRadius
	t.ring.StrokeWidth = 2
	t.image = &canvas.Image{FillMode: canvas.ImageFillCover, ScaleMode: canvas.ImageScaleFastest}
	t.image.Hide()
	t.badge = canvas.NewText("", theme.Color(theme.ColorNameForeground))
	t.badge.Alignment = fyne.TextAlignCenter
	t.badge.TextSize = theme.TextHeadingSize()
	t.title = widget.NewLabel("")
	t.title.Alignment = fyne.TextAlignCenter
	t.title.Truncation = fyne.TextTruncateEllipsis
	return t
}

func (t *thumbnailTile) bind(ref model.MediaRef, status model.LoadStatus, source string) {
	t.ref = ref
	t.title.SetText(shortTitle(ref))
	t.setStatus(status, source)
}

func (t *thumbnailTile) unbind() {
	t.ref = model.MediaRef{}
}

func (t *thumbnailTile) setStatus(status model.LoadStatus, source string) {
	local := source != "" && source != t.ref.RemoteURL

	switch {
	case status.State == model.LoadTimeout:
		t.badge.Text = IconError
		t.ring.StrokeColor = theme.Color(theme.ColorNameError)
	case status.State == model.LoadPendingVisible:
		t.badge.Text = ""
		t.ring.StrokeColor = theme.Color(theme.ColorNameDisabled)
	case t.ref.Kind == model.KindVideo:
		t.badge.Text = IconVideo
		t.ring.StrokeColor = theme.Color(theme.ColorNamePrimary)
	default:
		t.badge.Text = ""
		t.ring.StrokeColor = theme.Color(theme.ColorNamePrimary)
	}

	if t.ref.Kind != model.KindVideo && local && status.State == model.LoadReady {
		if t.image.File != source {
			t.image.File = source
			t.image.Refresh()
		}
		t.image.Show()
	} else {
		t.image.File = ""
		t.image.Hide()
	}
	t.Refresh()
}

// Tapped opens the viewer on this tile's item
func (t *thumbnailTile) Tapped(_ *fyne.PointEvent) {
	if t.ref.ID != "" {
		t.feed.open(t.ref.ID)
	}
}

func (t *thumbnailTile) MinSize() fyne.Size {
	titleHeight := t.title.MinSize().Height
	return fyne.NewSize(t.feed.tileSize, t.feed.tileSize+titleHeight)
}

func (t *thumbnailTile) CreateRenderer() fyne.WidgetRenderer {
	return &thumbnailRenderer{tile: t}
}

type thumbnailRenderer struct {
	tile *thumbnailTile
}

func (r *thumbnailRenderer) Layout(size fyne.Size) {
	t := r.tile
	titleHeight := t.title.MinSize().Height
	square := fyne.NewSize(size.Width, size.Height-titleHeight)

	for _, o := range []fyne.CanvasObject{t.background, t.image, t.ring} {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(square)
	}
	badge := t.badge.MinSize()
	t.badge.Move(fyne.NewPos((square.Width-badge.Width)/2, (square.Height-badge.Height)/2))
	t.badge.Resize(badge)
	t.title.Move(fyne.NewPos(0, square.Height))
	t.title.Resize(fyne.NewSize(size.Width, titleHeight))
}

func (r *thumbnailRenderer) MinSize() fyne.Size {
	return r.tile.MinSize()
}

func (r *thumbnailRenderer) Refresh() {
	r.Layout(r.tile.Size())
	for _, o := range r.Objects() {
		o.Refresh()
	}
}

func (r *thumbnailRenderer) Objects() []fyne.CanvasObject {
	t := r.tile
	return []fyne.CanvasObject{t.background, t.image, t.ring, t.badge, t.title}
}

func (r *thumbnailRenderer) Destroy() {}

// shortTitle limits a tile caption to TitleMaxRunes
func shortTitle(ref model.MediaRef) string {
	title := ref.Title
	if title == "" {
		title = ref.ID
	}
	runes := []rune(title)
	if len(runes) > TitleMaxRunes {
		return string(runes[:TitleMaxRunes-1]) + "…"
	}
	return title
}
