package transition

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ytget/storyviewer/internal/model"
)

// Loop defaults
const (
	DefaultFrameInterval = time.Second / 60
	commandBuffer        = 64
	hostQueueBuffer      = 64
)

// Loop owns a Controller on a dedicated goroutine. Commands and ticks are
// serialized there, so gesture tracking and interpolation keep their frame
// rate while the application goroutine is busy. Host callbacks are queued to
// a separate goroutine in order and never run on the render goroutine.
type Loop struct {
	ctrl     *Controller
	clock    clock.Clock
	interval time.Duration
	render   func(Scene)

	commands  chan func()
	hostQueue chan func()
	stop      chan struct{}
	done      chan struct{}
	hostDone  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewLoop creates a loop around a new controller. A zero interval disables
// the automatic ticker; ticks then only happen through Step. render, if not
// nil, receives every scene on the render goroutine.
func NewLoop(clk clock.Clock, interval time.Duration, opts Options, host Host, render func(Scene)) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	l := &Loop{
		clock:     clk,
		interval:  interval,
		render:    render,
		commands:  make(chan func(), commandBuffer),
		hostQueue: make(chan func(), hostQueueBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		hostDone:  make(chan struct{}),
	}
	l.ctrl = NewController(opts, nil)
	if host != nil {
		l.ctrl.SetHost(&queuedHost{loop: l, host: host})
	}
	return l
}

// SetHost replaces the host; it must be called before Start
func (l *Loop) SetHost(host Host) {
	if host == nil {
		l.ctrl.SetHost(nil)
		return
	}
	l.ctrl.SetHost(&queuedHost{loop: l, host: host})
}

// Start launches the render and host goroutines
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		go l.run()
		go l.runHost()
	})
}

// Stop terminates both goroutines and waits for them
func (l *Loop) Stop() {
	l.Start()
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
	<-l.hostDone
}

// Do runs fn on the render goroutine with exclusive access to the controller
// and waits for it to return. The loop is started on first use.
func (l *Loop) Do(fn func(c *Controller)) {
	l.Start()
	finished := make(chan struct{})
	select {
	case l.commands <- func() { fn(l.ctrl); close(finished) }:
	case <-l.done:
		return
	}
	select {
	case <-finished:
	case <-l.done:
	}
}

// Step advances the controller by dt on the render goroutine
func (l *Loop) Step(dt time.Duration) Scene {
	var scene Scene
	l.Do(func(c *Controller) {
		scene = c.Tick(dt)
		l.emit(scene)
	})
	return scene
}

// Open requests an open animation and reports whether it was accepted
func (l *Loop) Open(origin model.Frame, itemID string) bool {
	var ok bool
	l.Do(func(c *Controller) { ok = c.Open(origin, itemID) })
	return ok
}

// CloseToFrame requests a close animation into target
func (l *Loop) CloseToFrame(target *model.Frame) <-chan struct{} {
	var done <-chan struct{}
	l.Do(func(c *Controller) { done = c.CloseToFrame(target) })
	if done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return done
}

// Page requests a programmatic page-out
func (l *Loop) Page(dir model.Direction) bool {
	var ok bool
	l.Do(func(c *Controller) { ok = c.Page(dir) })
	return ok
}

// PageWhenIdle requests a page-out that waits for the overlay to be idle
func (l *Loop) PageWhenIdle(dir model.Direction) bool {
	var ok bool
	l.Do(func(c *Controller) { ok = c.PageWhenIdle(dir) })
	return ok
}

// State returns the controller state
func (l *Loop) State() State {
	var s State
	l.Do(func(c *Controller) { s = c.State() })
	return s
}

// Scene returns the latest scene
func (l *Loop) Scene() Scene {
	var s Scene
	l.Do(func(c *Controller) { s = c.LastScene() })
	return s
}

// SetViewport updates the full-screen bounds
func (l *Loop) SetViewport(width, height float32) {
	l.Do(func(c *Controller) { c.SetViewport(width, height) })
}

// PointerDown forwards a pointer event without waiting
func (l *Loop) PointerDown(p model.Point, at time.Time) {
	l.post(func() { l.ctrl.PointerDown(p, at) })
}

// PointerMove forwards a pointer event without waiting
func (l *Loop) PointerMove(p model.Point, at time.Time) {
	l.post(func() { l.ctrl.PointerMove(p, at) })
}

// PointerUp forwards a pointer event without waiting
func (l *Loop) PointerUp(p model.Point, at time.Time) {
	l.post(func() { l.ctrl.PointerUp(p, at) })
}

// PointerCancel forwards a pointer event without waiting
func (l *Loop) PointerCancel() {
	l.post(func() { l.ctrl.PointerCancel() })
}

// Now returns the loop clock time, used to stamp pointer events
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

func (l *Loop) post(fn func()) {
	select {
	case l.commands <- fn:
	case <-l.done:
	}
}

func (l *Loop) emit(scene Scene) {
	if l.render != nil {
		l.render(scene)
	}
}

func (l *Loop) run() {
	defer close(l.done)

	var tick <-chan time.Time
	if l.interval > 0 {
		ticker := l.clock.Ticker(l.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	last := l.clock.Now()

	for {
		select {
		case <-l.stop:
			return
		case fn := <-l.commands:
			fn()
		case now := <-tick:
			dt := now.Sub(last)
			last = now
			if l.ctrl.State() == StateClosed {
				continue
			}
			l.emit(l.ctrl.Tick(dt))
		}
	}
}

func (l *Loop) runHost() {
	defer close(l.hostDone)
	for {
		select {
		case fn := <-l.hostQueue:
			fn()
		case <-l.done:
			for {
				select {
				case fn := <-l.hostQueue:
					fn()
				default:
					return
				}
			}
		}
	}
}

// queuedHost moves host callbacks off the render goroutine. CanAdvance is
// answered synchronously because the gesture decision depends on it.
type queuedHost struct {
	loop *Loop
	host Host
}

func (h *queuedHost) CanAdvance(dir model.Direction) bool {
	return h.host.CanAdvance(dir)
}

func (h *queuedHost) Advance(dir model.Direction) {
	h.enqueue(func() { h.host.Advance(dir) })
}

func (h *queuedHost) RequestClose() {
	h.enqueue(h.host.RequestClose)
}

func (h *queuedHost) enqueue(fn func()) {
	select {
	case h.loop.hostQueue <- fn:
	case <-h.loop.stop:
	}
}
