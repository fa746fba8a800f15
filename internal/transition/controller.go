package transition

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/logging"
	"github.com/ytget/storyviewer/internal/metrics"
	"github.com/ytget/storyviewer/internal/model"
)

// State of the overlay
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StatePaging
	StateDismissing
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpening:
		return "Opening"
	case StateOpen:
		return "Open"
	case StatePaging:
		return "Paging"
	case StateDismissing:
		return "Dismissing"
	default:
		return "Unknown"
	}
}

// Animation defaults
const (
	DefaultOmega                 = 20.0
	DefaultDismissDistanceRatio  = 0.12
	DefaultPageDistanceRatio     = 0.20
	DefaultVelocityThreshold     = 800.0
	DefaultMinDragScale          = 0.8
	DefaultFadeDistance          = 0.5
	DefaultFallbackSize          = 24.0
	DefaultFlyOffDuration        = 150 * time.Millisecond
	DefaultFlyOffMinSpeed        = 1500.0
	pixelUnit                    = 100.0
	pagingSettleDistance float64 = 0.5
)

// Transition kinds reported to metrics
const (
	kindOpen    = "open"
	kindPage    = "page"
	kindDismiss = "dismiss"
	kindClose   = "close"
)

// Host receives the requests the overlay cannot fulfil itself
type Host interface {
	// CanAdvance reports whether there is an item in direction dir
	CanAdvance(dir model.Direction) bool

	// Advance moves the feed focus after the page-out animation finished
	Advance(dir model.Direction)

	// RequestClose asks the host to close the item; it answers with CloseToFrame
	RequestClose()
}

// Options tunes the overlay physics and gesture thresholds
type Options struct {
	Omega                float64 // spring natural frequency, rad/s
	DismissDistanceRatio float32 // share of the height that commits a dismiss
	PageDistanceRatio    float32 // share of the width that commits a page
	VelocityThreshold    float32 // px/s that commits either gesture
	Slop                 float32
	VerticalBias         float32
	MinDragScale         float32
	FadeDistance         float32
	FallbackSize         float32
	FlyOffDuration       time.Duration
	FlyOffMinSpeed       float32
	SwipeRightAdvances   bool // a rightward swipe pages to the next item
}

// DefaultOptions returns the stock options
func DefaultOptions() Options {
	return Options{
		Omega:                DefaultOmega,
		DismissDistanceRatio: DefaultDismissDistanceRatio,
		PageDistanceRatio:    DefaultPageDistanceRatio,
		VelocityThreshold:    DefaultVelocityThreshold,
		Slop:                 DefaultSlop,
		VerticalBias:         DefaultVerticalBias,
		MinDragScale:         DefaultMinDragScale,
		FadeDistance:         DefaultFadeDistance,
		FallbackSize:         DefaultFallbackSize,
		FlyOffDuration:       DefaultFlyOffDuration,
		FlyOffMinSpeed:       DefaultFlyOffMinSpeed,
		SwipeRightAdvances:   true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Omega <= 0 {
		o.Omega = d.Omega
	}
	if o.DismissDistanceRatio <= 0 {
		o.DismissDistanceRatio = d.DismissDistanceRatio
	}
	if o.PageDistanceRatio <= 0 {
		o.PageDistanceRatio = d.PageDistanceRatio
	}
	if o.VelocityThreshold <= 0 {
		o.VelocityThreshold = d.VelocityThreshold
	}
	if o.MinDragScale <= 0 {
		o.MinDragScale = d.MinDragScale
	}
	if o.FadeDistance <= 0 {
		o.FadeDistance = d.FadeDistance
	}
	if o.FallbackSize <= 0 {
		o.FallbackSize = d.FallbackSize
	}
	if o.FlyOffDuration <= 0 {
		o.FlyOffDuration = d.FlyOffDuration
	}
	if o.FlyOffMinSpeed <= 0 {
		o.FlyOffMinSpeed = d.FlyOffMinSpeed
	}
	return o
}

// Controller is the overlay state machine
// Closed -> Opening -> Open -> (Paging | Dismissing) -> Closed.
// It is not safe for concurrent use; Loop confines it to one goroutine.
type Controller struct {
	opts     Options
	host     Host
	state    State
	itemID   string
	viewport model.Frame
	anchor   model.Frame

	progress Spring
	dragX    Spring
	dragY    Spring
	dragging bool

	classifier *Classifier
	velocity   *VelocityTracker

	pageDir     model.Direction
	pagePending bool // a page-out waits for the overlay to be Open and idle
	pendingDir  model.Direction

	flyElapsed     time.Duration
	flyVelocity    float32
	closeRequested bool

	closing       bool
	closeTarget   model.Frame
	closeFrom     model.Frame
	closeStart    float64
	closeOpacity  float32
	closeBackdrop float32
	closeDone     chan struct{}

	scene         Scene
	onStateChange func(from, to State)
	log           *logrus.Entry
}

// NewController creates a closed overlay
func NewController(opts Options, host Host) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		opts:       opts,
		host:       host,
		classifier: NewClassifier(opts.Slop, opts.VerticalBias),
		velocity:   NewVelocityTracker(DefaultVelocityWindow),
		log:        logging.Component(nil, "transition"),
	}
	c.progress = Spring{Omega: opts.Omega, Unit: 1}
	c.dragX = Spring{Omega: opts.Omega, Unit: pixelUnit}
	c.dragY = Spring{Omega: opts.Omega, Unit: pixelUnit}
	c.scene = Scene{State: StateClosed, Scale: 1}
	return c
}

// SetHost replaces the host
func (c *Controller) SetHost(host Host) {
	c.host = host
}

// SetLogger replaces the logger entry
func (c *Controller) SetLogger(log *logrus.Entry) {
	c.log = logging.Component(log, "transition")
}

// OnStateChange registers a callback for every state transition
func (c *Controller) OnStateChange(fn func(from, to State)) {
	c.onStateChange = fn
}

// SetViewport sets the full-screen bounds
func (c *Controller) SetViewport(width, height float32) {
	c.viewport = model.NewFrame(0, 0, width, height)
}

// Viewport returns the full-screen bounds
func (c *Controller) Viewport() model.Frame {
	return c.viewport
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// ItemID returns the id the overlay was opened for
func (c *Controller) ItemID() string {
	return c.itemID
}

// LastScene returns the scene computed by the latest Tick
func (c *Controller) LastScene() Scene {
	return c.scene
}

// Open starts growing the overlay out of origin. It does nothing and returns
// false unless the overlay is Closed. An unusable origin is replaced by the
// centered fallback frame.
func (c *Controller) Open(origin model.Frame, itemID string) bool {
	if c.state != StateClosed {
		c.log.WithField("state", c.state).Debug("Open ignored, overlay busy")
		return false
	}
	if c.viewport.IsEmpty() {
		c.log.Warn("Open ignored, viewport not set")
		return false
	}

	c.anchor = c.usableFrame(origin)
	c.itemID = itemID
	c.progress.SnapTo(0)
	c.progress.Target = 1
	c.dragX.SnapTo(0)
	c.dragY.SnapTo(0)
	c.dragging = false
	c.closing = false
	c.closeRequested = false
	c.pagePending = false
	c.classifier.End()
	c.velocity.Reset()
	c.setState(StateOpening)
	c.scene = c.computeScene()
	return true
}

// CloseToFrame shrinks the overlay into target, which the caller measures at
// close time. A nil or unusable target falls back to a small centered frame.
// It works from any state but Closed, including mid-open, and the returned
// channel is closed once the overlay reaches Closed. While a close is already
// running the existing channel is returned and target is ignored.
func (c *Controller) CloseToFrame(target *model.Frame) <-chan struct{} {
	if c.state == StateClosed {
		done := make(chan struct{})
		close(done)
		return done
	}
	if c.closing {
		return c.closeDone
	}

	var resolved model.Frame
	if target == nil {
		resolved = c.usableFrame(model.Frame{})
	} else {
		resolved = c.usableFrame(*target)
	}

	current := c.computeScene()
	c.closing = true
	c.closeTarget = resolved
	c.closeFrom = current.Frame
	c.closeOpacity = current.ContentOpacity
	c.closeBackdrop = current.BackdropOpacity
	c.closeStart = c.progress.Value
	c.closeDone = make(chan struct{})
	c.dragging = false
	c.pagePending = false
	c.classifier.End()

	if c.closeStart <= 0 {
		c.closeStart = 0
	}
	// retarget the same spring; drop any outward velocity of an open in flight
	c.progress.Target = 0
	if c.progress.Velocity > 0 {
		c.progress.Velocity = 0
	}

	c.setState(StateDismissing)
	if c.closeStart == 0 {
		c.progress.SnapTo(0)
		c.finishClose()
	}
	c.scene = c.computeScene()
	return c.closeDone
}

// Page animates the current item off-screen and then asks the host to advance.
// It is the programmatic counterpart of a horizontal swipe and only works
// while Open.
func (c *Controller) Page(dir model.Direction) bool {
	if c.state != StateOpen || c.dragging {
		return false
	}
	if c.host == nil || !c.host.CanAdvance(dir) {
		return false
	}
	c.startPaging(dir, c.swipeSignFor(dir), 0)
	return true
}

// PageWhenIdle pages like Page. While the overlay is still opening or a
// finger is down the page-out is deferred until the overlay is Open with no
// gesture in progress. A gesture that commits on its own cancels it. It
// returns false when the page can neither start nor be deferred.
func (c *Controller) PageWhenIdle(dir model.Direction) bool {
	if c.host == nil || !c.host.CanAdvance(dir) {
		return false
	}
	switch {
	case c.state == StateOpen && !c.dragging:
		c.startPaging(dir, c.swipeSignFor(dir), 0)
	case c.state == StateOpening || c.state == StateOpen:
		c.pagePending = true
		c.pendingDir = dir
		c.log.WithFields(logrus.Fields{"item": c.itemID, "direction": dir}).Debug("Page deferred")
	default:
		return false
	}
	return true
}

// PagePending reports whether a deferred page-out is waiting
func (c *Controller) PagePending() bool {
	return c.pagePending
}

// PointerDown starts a gesture. Gestures are only tracked while Open.
func (c *Controller) PointerDown(p model.Point, at time.Time) {
	if c.state != StateOpen {
		return
	}
	c.dragging = true
	c.classifier.Begin(p)
	c.velocity.Reset()
	c.velocity.Add(at, p)
	c.dragX.SnapTo(c.dragX.Value)
	c.dragY.SnapTo(c.dragY.Value)
}

// PointerMove feeds a pointer position of the active gesture
func (c *Controller) PointerMove(p model.Point, at time.Time) {
	if !c.dragging || c.state != StateOpen {
		return
	}
	c.velocity.Add(at, p)
	mode, dx, dy := c.classifier.Move(p)
	switch mode {
	case model.GestureVertical:
		c.dragX.SnapTo(0)
		c.dragY.SnapTo(float64(dy))
	case model.GestureHorizontal:
		c.dragX.SnapTo(float64(dx))
		c.dragY.SnapTo(0)
	}
	c.scene = c.computeScene()
}

// PointerUp ends the gesture and commits or springs back
func (c *Controller) PointerUp(p model.Point, at time.Time) {
	if !c.dragging || c.state != StateOpen {
		return
	}
	c.PointerMove(p, at)
	c.dragging = false
	mode := c.classifier.End()
	v := c.velocity.Velocity()

	switch mode {
	case model.GestureVertical:
		dy := float32(c.dragY.Value)
		commit := abs32(dy) > c.opts.DismissDistanceRatio*c.viewport.Height || abs32(v.Y) > c.opts.VelocityThreshold
		if commit {
			dir := sign32(dy)
			if abs32(v.Y) > c.opts.VelocityThreshold {
				dir = sign32(v.Y)
			}
			speed := abs32(v.Y)
			if speed < c.opts.FlyOffMinSpeed {
				speed = c.opts.FlyOffMinSpeed
			}
			c.startDismiss(dir * speed)
			return
		}
		c.dragY.Target = 0
		c.dragY.Velocity = float64(v.Y)

	case model.GestureHorizontal:
		dx := float32(c.dragX.Value)
		fast := abs32(v.X) > c.opts.VelocityThreshold
		if abs32(dx) > c.opts.PageDistanceRatio*c.viewport.Width || fast {
			swipe := sign32(dx)
			if fast {
				swipe = sign32(v.X)
			}
			dir := c.directionFor(swipe)
			if c.host != nil && c.host.CanAdvance(dir) {
				c.startPaging(dir, swipe, float64(v.X))
				return
			}
		}
		c.dragX.Target = 0
		c.dragX.Velocity = float64(v.X)
	}
	c.scene = c.computeScene()
}

// PointerCancel abandons the gesture and springs back
func (c *Controller) PointerCancel() {
	if !c.dragging {
		return
	}
	c.dragging = false
	c.classifier.End()
	c.dragX.Target = 0
	c.dragY.Target = 0
}

// Tick advances every animation by dt and returns the resulting scene
func (c *Controller) Tick(dt time.Duration) Scene {
	switch c.state {
	case StateOpening:
		c.progress.Step(dt)
		if c.progress.Settled() {
			metrics.TransitionsCompleted.WithLabelValues(kindOpen).Inc()
			c.setState(StateOpen)
		}

	case StateOpen:
		if c.pagePending && !c.dragging {
			c.pagePending = false
			if c.host != nil {
				if c.host.CanAdvance(c.pendingDir) {
					c.startPaging(c.pendingDir, c.swipeSignFor(c.pendingDir), 0)
					break
				}
				// the feed lost the next item meanwhile
				c.host.RequestClose()
			}
		}
		if !c.dragging {
			c.dragX.Step(dt)
			c.dragY.Step(dt)
		}

	case StatePaging:
		c.dragX.Step(dt)
		if c.dragX.Settled() || abs64(c.dragX.Value-c.dragX.Target) < pagingSettleDistance {
			dir := c.pageDir
			c.dragX.SnapTo(0)
			c.dragY.SnapTo(0)
			metrics.TransitionsCompleted.WithLabelValues(kindPage).Inc()
			c.setState(StateOpen)
			if c.host != nil {
				c.host.Advance(dir)
			}
		}

	case StateDismissing:
		if c.closing {
			c.progress.Step(dt)
			if c.progress.Settled() {
				c.finishClose()
			}
		} else {
			c.flyElapsed += dt
			c.dragY.SnapTo(c.dragY.Value + float64(c.flyVelocity)*dt.Seconds())
			if c.flyElapsed >= c.opts.FlyOffDuration && !c.closeRequested {
				c.closeRequested = true
				metrics.TransitionsCompleted.WithLabelValues(kindDismiss).Inc()
				if c.host != nil {
					c.host.RequestClose()
				}
			}
		}
	}

	c.scene = c.computeScene()
	return c.scene
}

func (c *Controller) startDismiss(velocity float32) {
	c.pagePending = false
	c.flyElapsed = 0
	c.flyVelocity = velocity
	c.closeRequested = false
	c.setState(StateDismissing)
	c.scene = c.computeScene()
}

func (c *Controller) startPaging(dir model.Direction, swipe float32, velocity float64) {
	c.pageDir = dir
	c.pagePending = false
	c.dragY.SnapTo(0)
	c.dragX.Target = float64(swipe * c.viewport.Width)
	c.dragX.Velocity = velocity
	c.setState(StatePaging)
	c.scene = c.computeScene()
}

// directionFor maps the sign of a horizontal swipe to a feed direction
func (c *Controller) directionFor(swipe float32) model.Direction {
	if (swipe > 0) == c.opts.SwipeRightAdvances {
		return model.DirectionNext
	}
	return model.DirectionPrev
}

func (c *Controller) swipeSignFor(dir model.Direction) float32 {
	if (dir == model.DirectionNext) == c.opts.SwipeRightAdvances {
		return 1
	}
	return -1
}

func (c *Controller) finishClose() {
	c.closing = false
	c.flyElapsed = 0
	c.flyVelocity = 0
	c.closeRequested = false
	c.pagePending = false
	c.dragX.SnapTo(0)
	c.dragY.SnapTo(0)
	metrics.TransitionsCompleted.WithLabelValues(kindClose).Inc()
	c.setState(StateClosed)
	if c.closeDone != nil {
		close(c.closeDone)
	}
}

// usableFrame returns f, or the centered fallback when f cannot anchor
// an animation because it is empty or entirely off-screen.
func (c *Controller) usableFrame(f model.Frame) model.Frame {
	if f.Intersects(c.viewport.Width, c.viewport.Height) {
		return f
	}
	c.log.WithFields(logrus.Fields{"item": c.itemID, "frame": f.String()}).
		WithError(model.ErrGeometryUnavailable).Warn("Using centered fallback frame")
	return FallbackFrame(c.viewport, c.opts.FallbackSize)
}

func (c *Controller) layout() Layout {
	return Layout{
		Anchor:       c.anchor,
		Viewport:     c.viewport,
		MinDragScale: c.opts.MinDragScale,
		FadeDistance: c.opts.FadeDistance,
	}
}

func (c *Controller) computeScene() Scene {
	switch c.state {
	case StateClosed:
		return Scene{State: StateClosed, Frame: c.closeTarget, Scale: 1}
	case StateDismissing:
		if c.closing {
			t := float32(0)
			if c.closeStart > 0 {
				t = float32(c.progress.Value / c.closeStart)
			}
			return closeScene(c.closeTarget, c.closeFrom, t, c.closeOpacity, c.closeBackdrop)
		}
		fade := float32(1)
		if c.opts.FlyOffDuration > 0 {
			fade = 1 - clamp01(float32(c.flyElapsed)/float32(c.opts.FlyOffDuration))
		}
		return c.layout().Scene(c.state, float32(c.progress.Value), float32(c.dragX.Value), float32(c.dragY.Value), fade)
	default:
		return c.layout().Scene(c.state, float32(c.progress.Value), float32(c.dragX.Value), float32(c.dragY.Value), 1)
	}
}

func (c *Controller) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.log.WithFields(logrus.Fields{"item": c.itemID, "from": from, "to": to}).Debug("Overlay state changed")
	if c.onStateChange != nil {
		c.onStateChange(from, to)
	}
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
