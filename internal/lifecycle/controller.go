package lifecycle

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/download"
	"github.com/ytget/storyviewer/internal/logging"
	"github.com/ytget/storyviewer/internal/metrics"
	"github.com/ytget/storyviewer/internal/model"
)

// Timer defaults
const (
	DefaultShowDelay  = 250 * time.Millisecond
	DefaultTimeout    = 30 * time.Second
	DefaultMinVisible = 500 * time.Millisecond
	DefaultRetryDelay = 1 * time.Second
)

// Metric event labels
const (
	eventStart   = "start"
	eventSpinner = "spinner"
	eventReady   = "ready"
	eventTimeout = "timeout"
	eventFailed  = "failed"
	eventRetry   = "retry"
)

// Options holds the lifecycle timer durations
type Options struct {
	ShowDelay  time.Duration
	Timeout    time.Duration
	MinVisible time.Duration
	RetryDelay time.Duration
}

// DefaultOptions returns the stock timer durations
func DefaultOptions() Options {
	return Options{
		ShowDelay:  DefaultShowDelay,
		Timeout:    DefaultTimeout,
		MinVisible: DefaultMinVisible,
		RetryDelay: DefaultRetryDelay,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ShowDelay <= 0 {
		o.ShowDelay = d.ShowDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.MinVisible < 0 {
		o.MinVisible = 0
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	return o
}

// Ensurer is the part of the media cache the lifecycle needs for retries
type Ensurer interface {
	Ensure(url string) *download.Future
}

type record struct {
	gen     uint64
	url     string
	status  model.LoadStatus
	shownAt time.Time
	retried bool // automatic retry spent for the current attempt chain
	// retryErr holds a failure of the retry fetch that arrived before the
	// retry attempt started
	retryErr error

	showTimer       *clock.Timer
	timeoutTimer    *clock.Timer
	minVisibleTimer *clock.Timer
	retryTimer      *clock.Timer
}

func (r *record) stopTimers() {
	for _, t := range []*clock.Timer{r.showTimer, r.timeoutTimer, r.minVisibleTimer, r.retryTimer} {
		if t != nil {
			t.Stop()
		}
	}
	r.showTimer, r.timeoutTimer, r.minVisibleTimer, r.retryTimer = nil, nil, nil, nil
}

// pending collects callbacks to run once the lock is released
type pending struct {
	statuses []model.LoadStatus
	events   []model.Event
	ensure   string
}

// Controller runs one load lifecycle per on-screen item id. Every timer
// captures the generation of the lifecycle that armed it and does nothing if
// that lifecycle has since been restarted or cancelled.
type Controller struct {
	mutex    sync.Mutex
	clock    clock.Clock
	opts     Options
	ensurer  Ensurer
	records  map[string]*record
	nextGen  uint64
	observer func(model.LoadStatus)
	onEvent  func(model.Event)
	log      *logrus.Entry
}

// NewController creates a lifecycle controller. A nil clock uses the wall clock.
func NewController(clk clock.Clock, ensurer Ensurer, opts Options) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	return &Controller{
		clock:   clk,
		opts:    opts.withDefaults(),
		ensurer: ensurer,
		records: make(map[string]*record),
		log:     logging.Component(nil, "lifecycle"),
	}
}

// SetLogger replaces the logger entry
func (c *Controller) SetLogger(log *logrus.Entry) {
	c.log = logging.Component(log, "lifecycle")
}

// SetObserver sets the callback receiving every status change
func (c *Controller) SetObserver(observer func(model.LoadStatus)) {
	c.mutex.Lock()
	c.observer = observer
	c.mutex.Unlock()
}

// SetEventHandler sets the callback receiving ready and timeout events
func (c *Controller) SetEventHandler(handler func(model.Event)) {
	c.mutex.Lock()
	c.onEvent = handler
	c.mutex.Unlock()
}

// Start begins a new load attempt for itemID. Any lifecycle already running
// for the id is replaced, and the automatic retry allowance is restored.
func (c *Controller) Start(itemID, url string) {
	c.mutex.Lock()
	rec := c.records[itemID]
	if rec == nil {
		rec = &record{}
		c.records[itemID] = rec
	}
	rec.retried = false
	rec.status.Attempts = 0
	rec.status.RetryAffordance = false
	p := c.startLocked(itemID, url, rec)
	c.mutex.Unlock()

	c.flush(p)
}

// Complete signals that the item's media is decoded and showing
func (c *Controller) Complete(itemID string) {
	c.mutex.Lock()
	rec := c.records[itemID]
	if rec == nil || rec.status.State == model.LoadReady || rec.status.State == model.LoadIdle {
		c.mutex.Unlock()
		return
	}

	if rec.showTimer != nil {
		rec.showTimer.Stop()
		rec.showTimer = nil
	}
	if rec.timeoutTimer != nil {
		rec.timeoutTimer.Stop()
		rec.timeoutTimer = nil
	}
	if rec.retryTimer != nil {
		rec.retryTimer.Stop()
		rec.retryTimer = nil
	}

	rec.status.State = model.LoadReady
	rec.status.RetryAffordance = false
	rec.status.LastError = ""

	if rec.status.SpinnerVisible {
		remaining := c.opts.MinVisible - c.clock.Since(rec.shownAt)
		if remaining > 0 {
			gen := rec.gen
			rec.minVisibleTimer = c.clock.AfterFunc(remaining, func() { c.hideSpinner(itemID, rec, gen) })
		} else {
			rec.status.SpinnerVisible = false
		}
	}

	metrics.LifecycleEvents.WithLabelValues(eventReady).Inc()
	p := &pending{
		statuses: []model.LoadStatus{rec.status},
		events:   []model.Event{{ItemID: itemID, Kind: model.EventReady}},
	}
	c.mutex.Unlock()

	c.flush(p)
}

// Fail reports that fetching or decoding the item failed. It is handled like
// a timeout that happened right now.
func (c *Controller) Fail(itemID string, err error) {
	c.mutex.Lock()
	rec := c.records[itemID]
	if rec == nil {
		c.mutex.Unlock()
		return
	}
	if err == nil {
		err = model.ErrFetchFailed
	}
	if !rec.status.State.IsActive() {
		if rec.status.State == model.LoadTimeout && rec.retryTimer != nil {
			rec.retryErr = err
		}
		c.mutex.Unlock()
		return
	}
	metrics.LifecycleEvents.WithLabelValues(eventFailed).Inc()
	p := c.expireLocked(itemID, rec, err)
	c.mutex.Unlock()

	c.flush(p)
}

// Retry is the manual retry behind the persistent retry affordance. It asks
// the cache again and starts a fresh attempt with a new automatic retry.
func (c *Controller) Retry(itemID string) {
	c.mutex.Lock()
	rec := c.records[itemID]
	if rec == nil || rec.status.State != model.LoadTimeout {
		c.mutex.Unlock()
		return
	}
	rec.retried = false
	rec.status.Attempts = 0
	rec.status.RetryAffordance = false
	p := c.startLocked(itemID, rec.url, rec)
	p.ensure = rec.url
	c.mutex.Unlock()

	c.flush(p)
}

// Cancel stops every timer of the item and forgets it. Calling it for an
// unknown or already cancelled id does nothing.
func (c *Controller) Cancel(itemID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	rec := c.records[itemID]
	if rec == nil {
		return
	}
	rec.stopTimers()
	delete(c.records, itemID)
}

// CancelAll cancels every item
func (c *Controller) CancelAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for id, rec := range c.records {
		rec.stopTimers()
		delete(c.records, id)
	}
}

// Status returns the current snapshot for the item
func (c *Controller) Status(itemID string) model.LoadStatus {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	rec := c.records[itemID]
	if rec == nil {
		return model.LoadStatus{ItemID: itemID, State: model.LoadIdle}
	}
	return rec.status
}

// startLocked arms a fresh lifecycle on rec, replacing the running one
func (c *Controller) startLocked(itemID, url string, rec *record) *pending {
	rec.stopTimers()

	c.nextGen++
	gen := c.nextGen
	rec.gen = gen
	rec.url = url
	rec.shownAt = time.Time{}
	rec.status.ItemID = itemID
	rec.status.State = model.LoadPendingVisible
	rec.status.SpinnerVisible = false
	rec.status.LastError = ""
	rec.status.Attempts++
	rec.retryErr = nil

	rec.showTimer = c.clock.AfterFunc(c.opts.ShowDelay, func() { c.showSpinner(itemID, rec, gen) })
	rec.timeoutTimer = c.clock.AfterFunc(c.opts.Timeout, func() { c.timeout(itemID, rec, gen) })

	metrics.LifecycleEvents.WithLabelValues(eventStart).Inc()
	c.log.WithFields(logrus.Fields{"item": itemID, "attempt": rec.status.Attempts}).Debug("Load lifecycle started")

	return &pending{statuses: []model.LoadStatus{rec.status}}
}

// current reports whether a timer armed for gen still belongs to the live
// lifecycle of itemID. The caller holds the lock.
func (c *Controller) current(itemID string, rec *record, gen uint64) bool {
	return c.records[itemID] == rec && rec.gen == gen
}

func (c *Controller) showSpinner(itemID string, rec *record, gen uint64) {
	c.mutex.Lock()
	if !c.current(itemID, rec, gen) || rec.status.State != model.LoadPendingVisible {
		c.mutex.Unlock()
		return
	}
	rec.showTimer = nil
	rec.status.SpinnerVisible = true
	rec.shownAt = c.clock.Now()
	metrics.LifecycleEvents.WithLabelValues(eventSpinner).Inc()
	p := &pending{statuses: []model.LoadStatus{rec.status}}
	c.mutex.Unlock()

	c.flush(p)
}

func (c *Controller) hideSpinner(itemID string, rec *record, gen uint64) {
	c.mutex.Lock()
	if !c.current(itemID, rec, gen) || !rec.status.SpinnerVisible {
		c.mutex.Unlock()
		return
	}
	rec.minVisibleTimer = nil
	rec.status.SpinnerVisible = false
	p := &pending{statuses: []model.LoadStatus{rec.status}}
	c.mutex.Unlock()

	c.flush(p)
}

func (c *Controller) timeout(itemID string, rec *record, gen uint64) {
	c.mutex.Lock()
	if !c.current(itemID, rec, gen) || rec.status.State != model.LoadPendingVisible {
		c.mutex.Unlock()
		return
	}
	rec.timeoutTimer = nil
	metrics.LifecycleEvents.WithLabelValues(eventTimeout).Inc()
	p := c.expireLocked(itemID, rec, model.ErrTimeout)
	c.mutex.Unlock()

	c.flush(p)
}

// expireLocked moves rec to Timeout and either schedules the single automatic
// retry or raises the persistent retry affordance.
func (c *Controller) expireLocked(itemID string, rec *record, cause error) *pending {
	rec.stopTimers()
	rec.status.State = model.LoadTimeout
	rec.status.SpinnerVisible = false
	rec.status.LastError = cause.Error()

	p := &pending{events: []model.Event{{ItemID: itemID, Kind: model.EventTimeout, Err: cause}}}

	entry := c.log.WithFields(logrus.Fields{"item": itemID, "url": rec.url}).WithError(cause)
	if !rec.retried {
		rec.retried = true
		gen := rec.gen
		rec.retryTimer = c.clock.AfterFunc(c.opts.RetryDelay, func() { c.restart(itemID, rec, gen) })
		p.ensure = rec.url
		metrics.LifecycleEvents.WithLabelValues(eventRetry).Inc()
		entry.Warn("Media load expired, retrying once")
	} else {
		rec.status.RetryAffordance = true
		entry.Warn("Media load expired again, waiting for manual retry")
	}

	p.statuses = append(p.statuses, rec.status)
	return p
}

func (c *Controller) restart(itemID string, rec *record, gen uint64) {
	c.mutex.Lock()
	if !c.current(itemID, rec, gen) || rec.status.State != model.LoadTimeout {
		c.mutex.Unlock()
		return
	}
	failed := rec.retryErr
	p := c.startLocked(itemID, rec.url, rec)
	if failed != nil {
		// the retry fetch already failed, so the new attempt expires at once
		metrics.LifecycleEvents.WithLabelValues(eventFailed).Inc()
		q := c.expireLocked(itemID, rec, failed)
		p.statuses = append(p.statuses, q.statuses...)
		p.events = append(p.events, q.events...)
	}
	c.mutex.Unlock()

	c.flush(p)
}

// flush runs callbacks outside the lock so observers may call back in
func (c *Controller) flush(p *pending) {
	if p == nil {
		return
	}

	c.mutex.Lock()
	observer, onEvent, ensurer := c.observer, c.onEvent, c.ensurer
	c.mutex.Unlock()

	if p.ensure != "" && ensurer != nil {
		// the outcome surfaces through Complete or Fail on the next lifecycle
		f := ensurer.Ensure(p.ensure)
		if f != nil {
			go c.logRetryOutcome(p.ensure, f)
		}
	}
	if observer != nil {
		for _, s := range p.statuses {
			observer(s)
		}
	}
	if onEvent != nil {
		for _, ev := range p.events {
			onEvent(ev)
		}
	}
}

func (c *Controller) logRetryOutcome(url string, f *download.Future) {
	<-f.Done()
	if _, _, err := f.Peek(); err != nil && !errors.Is(err, model.ErrClosed) {
		c.log.WithError(err).WithField("url", url).Debug("Retry fetch failed")
	}
}
