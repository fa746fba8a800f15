package progress

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/logging"
	"github.com/ytget/storyviewer/internal/model"
)

// Progress defaults
const (
	DefaultEpsilon       = 25 * time.Millisecond
	DefaultSlideDuration = 5 * time.Second
	DefaultTickInterval  = 50 * time.Millisecond
)

// Player is the playback primitive the controller drives while scrubbing
type Player interface {
	Play()
	Pause()
	Seek(positionMs int64)
	Playing() bool
}

// Options tunes the controller
type Options struct {
	Epsilon       time.Duration // position changes below this are coalesced
	SlideDuration time.Duration // duration of fixed-duration items without a hint
	TickInterval  time.Duration // slideshow polling interval
}

// DefaultOptions returns the stock options
func DefaultOptions() Options {
	return Options{
		Epsilon:       DefaultEpsilon,
		SlideDuration: DefaultSlideDuration,
		TickInterval:  DefaultTickInterval,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Epsilon < 0 {
		o.Epsilon = 0
	}
	if o.SlideDuration <= 0 {
		o.SlideDuration = d.SlideDuration
	}
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	return o
}

type item struct {
	state      model.ProgressState
	kind       model.MediaKind
	player     Player
	wasPlaying bool
	completed  bool
	reported   bool
}

// Controller tracks the playback position of focused items. While an item is
// being scrubbed its position comes only from pointer input.
type Controller struct {
	mutex    sync.Mutex
	clock    clock.Clock
	opts     Options
	items    map[string]*item
	observer func(model.ProgressState)
	onEvent  func(model.Event)
	log      *logrus.Entry
}

// NewController creates a progress controller. A nil clock uses the wall clock.
func NewController(clk clock.Clock, opts Options) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	return &Controller{
		clock: clk,
		opts:  opts.withDefaults(),
		items: make(map[string]*item),
		log:   logging.Component(nil, "progress"),
	}
}

// SetObserver sets the callback receiving every position change
func (c *Controller) SetObserver(observer func(model.ProgressState)) {
	c.mutex.Lock()
	c.observer = observer
	c.mutex.Unlock()
}

// SetEventHandler sets the callback receiving completed events
func (c *Controller) SetEventHandler(handler func(model.Event)) {
	c.mutex.Lock()
	c.onEvent = handler
	c.mutex.Unlock()
}

// Focus creates the progress state of an item that became active. For
// fixed-duration kinds durationMs is the constant slide duration; zero means
// the configured default. For videos it may be zero until the player knows.
func (c *Controller) Focus(itemID string, kind model.MediaKind, durationMs int64, player Player) {
	if kind.IsFixedDuration() && durationMs <= 0 {
		durationMs = c.opts.SlideDuration.Milliseconds()
	}
	if durationMs < 0 {
		durationMs = 0
	}

	c.mutex.Lock()
	it := &item{
		state:  model.ProgressState{ItemID: itemID, DurationMs: durationMs},
		kind:   kind,
		player: player,
	}
	c.items[itemID] = it
	state := it.state
	c.mutex.Unlock()

	c.notify(&state, nil)
}

// FocusSlideshow focuses a fixed-duration item driven by its own Slideshow
// clock. audio, if not nil, plays along with the slideshow.
func (c *Controller) FocusSlideshow(itemID string, durationMs int64, audio Player) *Slideshow {
	if durationMs <= 0 {
		durationMs = c.opts.SlideDuration.Milliseconds()
	}
	show := NewSlideshow(c.clock, durationMs, c.opts.TickInterval, func(pos, dur int64) {
		c.Update(itemID, pos, dur)
	})
	show.SetAudio(audio)
	c.Focus(itemID, model.KindImage, durationMs, show)
	return show
}

// Blur destroys the progress state of an item that lost focus
func (c *Controller) Blur(itemID string) {
	c.mutex.Lock()
	it := c.items[itemID]
	delete(c.items, itemID)
	c.mutex.Unlock()

	if it == nil {
		return
	}
	if show, ok := it.player.(*Slideshow); ok {
		show.Pause()
	}
}

// State returns the current progress of an item
func (c *Controller) State(itemID string) (model.ProgressState, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	it := c.items[itemID]
	if it == nil {
		return model.ProgressState{}, false
	}
	return it.state, true
}

// Update reports a position from the playback clock. It is ignored while the
// item is being scrubbed. Changes smaller than the epsilon are coalesced,
// except the one that reaches the end.
func (c *Controller) Update(itemID string, positionMs, durationMs int64) {
	c.mutex.Lock()
	it := c.items[itemID]
	if it == nil || it.state.Scrubbing {
		c.mutex.Unlock()
		return
	}

	durationChanged := false
	if durationMs > 0 && durationMs != it.state.DurationMs && !(it.kind.IsFixedDuration() && it.state.DurationMs > 0) {
		it.state.DurationMs = durationMs
		durationChanged = true
	}

	pos := it.state.Clamp(positionMs)
	atEnd := it.state.DurationMs > 0 && pos == it.state.DurationMs
	delta := pos - it.state.PositionMs
	if delta < 0 {
		delta = -delta
	}
	if it.reported && !durationChanged && time.Duration(delta)*time.Millisecond < c.opts.Epsilon &&
		!(atEnd && it.state.PositionMs != pos) {
		c.mutex.Unlock()
		return
	}

	it.state.PositionMs = pos
	it.reported = true

	var ev *model.Event
	if !atEnd {
		it.completed = false
	} else if it.kind.IsFixedDuration() && !it.completed {
		it.completed = true
		ev = &model.Event{ItemID: itemID, Kind: model.EventCompleted}
	}
	state := it.state
	c.mutex.Unlock()

	c.notify(&state, ev)
}

// BeginScrub pauses playback and hands position control to the pointer.
// Once it returns no Update can move the position until EndScrub.
func (c *Controller) BeginScrub(itemID string) {
	c.mutex.Lock()
	it := c.items[itemID]
	if it == nil || it.state.Scrubbing {
		c.mutex.Unlock()
		return
	}
	it.state.Scrubbing = true
	it.wasPlaying = false
	player := it.player
	state := it.state
	c.mutex.Unlock()

	if player != nil && player.Playing() {
		player.Pause()
		c.mutex.Lock()
		it.wasPlaying = true
		c.mutex.Unlock()
	}

	c.notify(&state, nil)
}

// MoveScrub positions the item at ratio of its duration, clamped to [0,1]
func (c *Controller) MoveScrub(itemID string, ratio float64) {
	if math.IsNaN(ratio) {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	c.mutex.Lock()
	it := c.items[itemID]
	if it == nil || !it.state.Scrubbing {
		c.mutex.Unlock()
		return
	}
	it.state.PositionMs = it.state.Clamp(int64(math.Round(ratio * float64(it.state.DurationMs))))
	state := it.state
	c.mutex.Unlock()

	c.notify(&state, nil)
}

// EndScrub seeks once to the last scrub position, resumes playback if it was
// playing before the scrub, and returns position control to the player.
func (c *Controller) EndScrub(itemID string) {
	c.mutex.Lock()
	it := c.items[itemID]
	if it == nil || !it.state.Scrubbing {
		c.mutex.Unlock()
		return
	}
	pos := it.state.PositionMs
	player := it.player
	resume := it.wasPlaying
	c.mutex.Unlock()

	if player != nil {
		player.Seek(pos)
	}

	c.mutex.Lock()
	it.state.Scrubbing = false
	it.wasPlaying = false
	var ev *model.Event
	if pos < it.state.DurationMs {
		it.completed = false
	} else if it.kind.IsFixedDuration() && it.state.DurationMs > 0 && !it.completed {
		// a slideshow at its end never ticks again
		it.completed = true
		ev = &model.Event{ItemID: itemID, Kind: model.EventCompleted}
	}
	state := it.state
	c.mutex.Unlock()

	c.log.WithFields(logrus.Fields{"item": itemID, "position_ms": pos}).Debug("Scrub ended")

	if resume {
		player.Play()
	}
	c.notify(&state, ev)
}

func (c *Controller) notify(state *model.ProgressState, ev *model.Event) {
	c.mutex.Lock()
	observer, onEvent := c.observer, c.onEvent
	c.mutex.Unlock()

	if observer != nil && state != nil {
		observer(*state)
	}
	if onEvent != nil && ev != nil {
		onEvent(*ev)
	}
}
