package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/download"
	"github.com/ytget/storyviewer/internal/events"
	"github.com/ytget/storyviewer/internal/lifecycle"
	"github.com/ytget/storyviewer/internal/logging"
	"github.com/ytget/storyviewer/internal/model"
	"github.com/ytget/storyviewer/internal/probe"
	"github.com/ytget/storyviewer/internal/progress"
	"github.com/ytget/storyviewer/internal/transition"
)

// Engine defaults
const (
	DefaultPrefetchAhead = 2
	noFocus              = -1
)

// Geometry measures the on-screen rectangle of an item's thumbnail. It is
// asked when the viewer opens and again when it closes, since the feed may
// have scrolled in between.
type Geometry interface {
	Measure(itemID string) (model.Frame, error)
}

// GeometryFunc adapts a function to Geometry
type GeometryFunc func(itemID string) (model.Frame, error)

// Measure calls f
func (f GeometryFunc) Measure(itemID string) (model.Frame, error) {
	return f(itemID)
}

// Options configures every controller of the engine
type Options struct {
	Lifecycle     lifecycle.Options
	Progress      progress.Options
	Transition    transition.Options
	FrameInterval time.Duration // zero disables the render ticker
	PrefetchAhead int
	EventBuffer   uint
}

// DefaultOptions returns the stock options
func DefaultOptions() Options {
	return Options{
		Lifecycle:     lifecycle.DefaultOptions(),
		Progress:      progress.DefaultOptions(),
		Transition:    transition.DefaultOptions(),
		FrameInterval: transition.DefaultFrameInterval,
		PrefetchAhead: DefaultPrefetchAhead,
		EventBuffer:   events.DefaultCapacity,
	}
}

// Engine drives one full-screen viewer over a feed
type Engine struct {
	mutex   sync.Mutex
	items   []model.MediaRef
	index   map[string]int
	focus   int
	open    bool
	closing bool
	show    *progress.Slideshow

	clock     clock.Clock
	opts      Options
	cache     download.Mirror
	geometry  Geometry
	prober    *probe.Prober
	lifecycle *lifecycle.Controller
	progress  *progress.Controller
	loop      *transition.Loop
	bus       *events.Bus

	renderer      func(transition.Scene)
	statusChanged func(model.LoadStatus)
	focusChanged  func(model.MediaRef)

	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Entry
}

// NewEngine creates an engine over cache. A nil clock uses the wall clock.
func NewEngine(cache download.Mirror, geometry Geometry, clk clock.Clock, opts Options) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	if opts.PrefetchAhead < 0 {
		opts.PrefetchAhead = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	log := logging.Component(nil, "viewer").WithField("session", uuid.NewString())

	e := &Engine{
		index:    make(map[string]int),
		focus:    noFocus,
		clock:    clk,
		opts:     opts,
		cache:    cache,
		geometry: geometry,
		bus:      events.NewBus(opts.EventBuffer, log),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	e.lifecycle = lifecycle.NewController(clk, retryEnsurer{e}, opts.Lifecycle)
	e.lifecycle.SetLogger(log)
	e.lifecycle.SetEventHandler(e.bus.Publish)
	e.lifecycle.SetObserver(e.onStatus)

	e.progress = progress.NewController(clk, opts.Progress)
	e.progress.SetEventHandler(e.onProgressEvent)

	e.loop = transition.NewLoop(clk, opts.FrameInterval, opts.Transition, e, e.render)
	return e
}

// SetProber enables decode probing of mirrored files before an item is ready
func (e *Engine) SetProber(p *probe.Prober) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.prober = p
}

// SetRenderer sets the callback receiving every overlay scene. It runs on
// the render goroutine and must not call back into the engine.
func (e *Engine) SetRenderer(fn func(transition.Scene)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.renderer = fn
}

// SetStatusObserver sets the callback receiving load status changes
func (e *Engine) SetStatusObserver(fn func(model.LoadStatus)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.statusChanged = fn
}

// SetFocusObserver sets the callback receiving the newly focused item
func (e *Engine) SetFocusObserver(fn func(model.MediaRef)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.focusChanged = fn
}

// Events subscribes to engine events of the given kinds, or all of them
func (e *Engine) Events(kinds ...model.EventKind) *events.Subscription {
	return e.bus.Subscribe(kinds...)
}

// Progress exposes the progress controller for players and the scrub bar
func (e *Engine) Progress() *progress.Controller {
	return e.progress
}

// Loop exposes the overlay loop for pointer input and manual stepping
func (e *Engine) Loop() *transition.Loop {
	return e.loop
}

// Start launches the overlay render loop
func (e *Engine) Start() {
	e.loop.Start()
}

// Stop halts the render loop, every timer and every pending probe
func (e *Engine) Stop() {
	e.cancel()
	e.loop.Stop()
	e.lifecycle.CancelAll()

	e.mutex.Lock()
	id := e.focusedIDLocked()
	e.show = nil
	e.mutex.Unlock()
	if id != "" {
		e.progress.Blur(id)
	}
}

// SetViewport sets the full-screen bounds of the overlay
func (e *Engine) SetViewport(width, height float32) {
	e.loop.SetViewport(width, height)
}

// SetItems replaces the feed. The focus survives if the focused item is
// still present.
func (e *Engine) SetItems(refs []model.MediaRef) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	focusedID := e.focusedIDLocked()
	e.items = append([]model.MediaRef(nil), refs...)
	e.index = make(map[string]int, len(refs))
	for i, ref := range e.items {
		e.index[ref.ID] = i
	}
	e.focus = noFocus
	if i, ok := e.index[focusedID]; ok {
		e.focus = i
	}
	e.log.WithField("items", len(refs)).Debug("Feed replaced")
}

// Items returns a copy of the feed
func (e *Engine) Items() []model.MediaRef {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return append([]model.MediaRef(nil), e.items...)
}

// Focused returns the item shown in the viewer
func (e *Engine) Focused() (model.MediaRef, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.focus == noFocus {
		return model.MediaRef{}, false
	}
	return e.items[e.focus], true
}

// Source returns what a renderer should display for the item: the local
// mirror when present, the remote URL while fetching.
func (e *Engine) Source(itemID string) string {
	ref, ok := e.ref(itemID)
	if !ok {
		return ""
	}
	if local := e.cache.Resolve(ref.RemoteURL); local != "" {
		return local
	}
	return ref.RemoteURL
}

// Status returns the load status of an item
func (e *Engine) Status(itemID string) model.LoadStatus {
	return e.lifecycle.Status(itemID)
}

// Visible starts a load lifecycle for every item that scrolled on screen and
// prefetches the items that follow the last of them.
func (e *Engine) Visible(itemIDs ...string) {
	last := -1
	for _, id := range itemIDs {
		ref, ok := e.ref(id)
		if !ok {
			continue
		}
		e.load(ref)
		if i := e.indexOf(id); i > last {
			last = i
		}
	}
	if last >= 0 {
		e.prefetchAfter(last)
	}
}

// Hidden stops the lifecycle of items that scrolled off screen
func (e *Engine) Hidden(itemIDs ...string) {
	for _, id := range itemIDs {
		e.lifecycle.Cancel(id)
	}
}

// Retry is the manual retry behind the retry affordance
func (e *Engine) Retry(itemID string) {
	e.lifecycle.Retry(itemID)
}

// MediaReady is called by a playback primitive once the item renders
func (e *Engine) MediaReady(itemID string) {
	e.lifecycle.Complete(itemID)

	e.mutex.Lock()
	show := e.show
	focused := e.focusedIDLocked() == itemID
	e.mutex.Unlock()
	if focused && show != nil && !show.Playing() {
		show.Play()
	}
}

// MediaFailed is called by a playback primitive that cannot render the item
func (e *Engine) MediaFailed(itemID string, err error) {
	if err == nil {
		err = model.ErrDecodeFailed
	}
	e.log.WithError(err).WithField("item", itemID).Warn("Media failed")
	e.lifecycle.Fail(itemID, err)
}

// Open expands the item's thumbnail into the full-screen viewer. It returns
// false when the item is unknown or the viewer is busy.
func (e *Engine) Open(itemID string) bool {
	ref, ok := e.ref(itemID)
	if !ok {
		return false
	}

	e.mutex.Lock()
	if e.open {
		e.mutex.Unlock()
		return false
	}
	e.mutex.Unlock()

	origin := e.measure(itemID)
	if !e.loop.Open(origin, itemID) {
		return false
	}

	e.mutex.Lock()
	e.open = true
	e.closing = false
	e.mutex.Unlock()

	e.log.WithFields(logrus.Fields{"item": itemID, "origin": origin.String()}).Info("Opening viewer")
	e.load(ref)
	e.setFocus(e.indexOf(itemID))
	return true
}

// Close collapses the viewer into the focused item's current thumbnail
func (e *Engine) Close() {
	e.closeFocused()
}

// CanAdvance reports whether the feed has an item in direction dir
func (e *Engine) CanAdvance(dir model.Direction) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.focus == noFocus {
		return false
	}
	next := e.focus + int(dir)
	return next >= 0 && next < len(e.items)
}

// Advance moves the focus after the overlay paged out
func (e *Engine) Advance(dir model.Direction) {
	e.mutex.Lock()
	if e.focus == noFocus || !e.open {
		e.mutex.Unlock()
		return
	}
	from := e.items[e.focus].ID
	next := e.focus + int(dir)
	if next < 0 || next >= len(e.items) {
		e.mutex.Unlock()
		return
	}
	ref := e.items[next]
	e.mutex.Unlock()

	e.load(ref)
	e.setFocus(next)
	e.bus.Publish(model.Event{ItemID: from, Kind: model.EventAdvanced, Direction: dir})
}

// RequestClose answers a committed dismiss gesture
func (e *Engine) RequestClose() {
	e.closeFocused()
}

func (e *Engine) closeFocused() {
	e.mutex.Lock()
	if !e.open || e.closing {
		e.mutex.Unlock()
		return
	}
	e.closing = true
	id := e.focusedIDLocked()
	e.mutex.Unlock()

	var target *model.Frame
	if id != "" {
		f := e.measure(id)
		target = &f
	}
	done := e.loop.CloseToFrame(target)

	go func() {
		<-done
		e.finishClose(id)
	}()
}

func (e *Engine) finishClose(id string) {
	e.mutex.Lock()
	e.open = false
	e.closing = false
	e.focus = noFocus
	e.show = nil
	e.mutex.Unlock()

	if id != "" {
		e.progress.Blur(id)
	}
	e.log.WithField("item", id).Info("Viewer closed")
	e.bus.Publish(model.Event{ItemID: id, Kind: model.EventDismissed})
}

// measure returns the thumbnail rect, or an empty frame that the overlay
// replaces with its centered fallback.
func (e *Engine) measure(itemID string) model.Frame {
	if e.geometry == nil {
		return model.Frame{}
	}
	f, err := e.geometry.Measure(itemID)
	if err != nil {
		if !errors.Is(err, model.ErrGeometryUnavailable) {
			err = errors.Join(model.ErrGeometryUnavailable, err)
		}
		e.log.WithError(err).WithField("item", itemID).Warn("Thumbnail not measurable")
		return model.Frame{}
	}
	return f
}

// setFocus moves progress tracking to the item at index i
func (e *Engine) setFocus(i int) {
	e.mutex.Lock()
	prev := e.focusedIDLocked()
	if i < 0 || i >= len(e.items) {
		e.mutex.Unlock()
		return
	}
	e.focus = i
	ref := e.items[i]
	e.show = nil
	onFocus := e.focusChanged
	e.mutex.Unlock()

	if prev != "" && prev != ref.ID {
		e.progress.Blur(prev)
	}

	ready := e.lifecycle.Status(ref.ID).State == model.LoadReady
	if ref.Kind.IsFixedDuration() {
		show := e.progress.FocusSlideshow(ref.ID, ref.DurationHintMs, nil)
		e.mutex.Lock()
		if e.focusedIDLocked() == ref.ID {
			e.show = show
		}
		e.mutex.Unlock()
		if ready {
			show.Play()
		}
	} else {
		e.progress.Focus(ref.ID, ref.Kind, ref.DurationHintMs, nil)
	}

	e.prefetchAfter(i)
	if onFocus != nil {
		onFocus(ref)
	}
}

// load starts the item's lifecycle and waits for its mirror in the background
func (e *Engine) load(ref model.MediaRef) {
	switch e.lifecycle.Status(ref.ID).State {
	case model.LoadPendingVisible:
		return
	case model.LoadReady:
		if e.cache.Resolve(ref.RemoteURL) != "" {
			return
		}
	}
	e.lifecycle.Start(ref.ID, ref.RemoteURL)
	e.await(ref, e.cache.Ensure(ref.RemoteURL))
}

func (e *Engine) await(ref model.MediaRef, f *download.Future) {
	if f == nil {
		return
	}
	go func() {
		path, err := f.Wait(e.ctx)
		if err != nil {
			if e.ctx.Err() != nil {
				return
			}
			e.lifecycle.Fail(ref.ID, err)
			return
		}

		e.mutex.Lock()
		prober := e.prober
		e.mutex.Unlock()
		if prober != nil {
			res, err := prober.Probe(e.ctx, path, ref.Kind)
			if err != nil {
				e.MediaFailed(ref.ID, err)
				return
			}
			if res.DurationMs > 0 && ref.Kind == model.KindVideo {
				e.updateDuration(ref.ID, res.DurationMs)
			}
		}
		e.MediaReady(ref.ID)
	}()
}

func (e *Engine) updateDuration(itemID string, durationMs int64) {
	state, ok := e.progress.State(itemID)
	if !ok || state.DurationMs > 0 {
		return
	}
	e.progress.Update(itemID, state.PositionMs, durationMs)
}

func (e *Engine) prefetchAfter(i int) {
	e.mutex.Lock()
	end := i + 1 + e.opts.PrefetchAhead
	if end > len(e.items) {
		end = len(e.items)
	}
	var refs []model.MediaRef
	if i+1 < end {
		refs = append(refs, e.items[i+1:end]...)
	}
	e.mutex.Unlock()

	if len(refs) > 0 {
		e.cache.Prefetch(refs...)
	}
}

func (e *Engine) onStatus(status model.LoadStatus) {
	e.mutex.Lock()
	fn := e.statusChanged
	e.mutex.Unlock()
	if fn != nil {
		fn(status)
	}
}

// onProgressEvent pages to the next item once a fixed-duration item
// completed, or closes the viewer after the last one. A completion during a
// drag or the open animation pages once the overlay is idle again.
func (e *Engine) onProgressEvent(ev model.Event) {
	e.bus.Publish(ev)
	if ev.Kind != model.EventCompleted {
		return
	}

	e.mutex.Lock()
	focused := e.focusedIDLocked() == ev.ItemID && e.open && !e.closing
	e.mutex.Unlock()
	if !focused {
		return
	}

	if !e.loop.PageWhenIdle(model.DirectionNext) && !e.CanAdvance(model.DirectionNext) {
		e.closeFocused()
	}
}

func (e *Engine) render(scene transition.Scene) {
	e.mutex.Lock()
	fn := e.renderer
	e.mutex.Unlock()
	if fn != nil {
		fn(scene)
	}
}

func (e *Engine) ref(itemID string) (model.MediaRef, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	i, ok := e.index[itemID]
	if !ok {
		return model.MediaRef{}, false
	}
	return e.items[i], true
}

func (e *Engine) indexOf(itemID string) int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if i, ok := e.index[itemID]; ok {
		return i
	}
	return noFocus
}

func (e *Engine) focusedIDLocked() string {
	if e.focus == noFocus || e.focus >= len(e.items) {
		return ""
	}
	return e.items[e.focus].ID
}

// retryEnsurer routes the lifecycle's retries through the engine so the
// refetched media completes the item like the first attempt.
type retryEnsurer struct {
	e *Engine
}

func (r retryEnsurer) Ensure(url string) *download.Future {
	f := r.e.cache.Ensure(url)

	r.e.mutex.Lock()
	var refs []model.MediaRef
	for _, ref := range r.e.items {
		if ref.RemoteURL == url {
			refs = append(refs, ref)
		}
	}
	r.e.mutex.Unlock()

	for _, ref := range refs {
		r.e.await(ref, f)
	}
	return f
}
