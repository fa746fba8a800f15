package transition

import (
	"testing"
	"time"

	"github.com/ytget/storyviewer/internal/model"
)

const testFrame = 16 * time.Millisecond

var (
	gestureStart = time.Unix(1700000000, 0)
	thumbA       = model.Frame{X: 20, Y: 40, Width: 80, Height: 80, CornerRadius: 8}
	thumbB       = model.Frame{X: 120, Y: 40, Width: 80, Height: 80, CornerRadius: 8}
)

type fakeHost struct {
	canAdvance    bool
	advanced      []model.Direction
	closeRequests int
}

func (h *fakeHost) CanAdvance(model.Direction) bool {
	return h.canAdvance
}

func (h *fakeHost) Advance(dir model.Direction) {
	h.advanced = append(h.advanced, dir)
}

func (h *fakeHost) RequestClose() {
	h.closeRequests++
}

type stateChange struct {
	from, to State
}

func newTestController(host Host) (*Controller, *[]stateChange) {
	c := NewController(DefaultOptions(), host)
	c.SetViewport(400, 800)
	changes := &[]stateChange{}
	c.OnStateChange(func(from, to State) {
		*changes = append(*changes, stateChange{from, to})
	})
	return c, changes
}

// tickUntil advances the controller frame by frame until cond holds
func tickUntil(t *testing.T, c *Controller, cond func() bool) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if cond() {
			return
		}
		c.Tick(testFrame)
	}
	t.Fatalf("Condition not reached, state %s, scene %+v", c.State(), c.LastScene())
}

func openController(t *testing.T, host Host) *Controller {
	t.Helper()
	c, _ := newTestController(host)
	if !c.Open(thumbA, "a") {
		t.Fatal("Expected Open to be accepted")
	}
	tickUntil(t, c, func() bool { return c.State() == StateOpen })
	return c
}

// drag feeds a straight pointer path of steps moves spread over d
func drag(c *Controller, from, to model.Point, steps int, d time.Duration) {
	c.PointerDown(from, gestureStart)
	for i := 1; i <= steps; i++ {
		f := float32(i) / float32(steps)
		p := model.Point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f}
		at := gestureStart.Add(d * time.Duration(i) / time.Duration(steps))
		if i == steps {
			c.PointerUp(p, at)
		} else {
			c.PointerMove(p, at)
		}
	}
}

func TestOpenRunsOnce(t *testing.T) {
	c, changes := newTestController(&fakeHost{})

	if !c.Open(thumbA, "a") {
		t.Fatal("Expected Open to be accepted")
	}
	if f := c.LastScene().Frame; f != thumbA {
		t.Errorf("Expected the first frame to match the thumbnail, got %v", f)
	}
	if c.Open(thumbB, "b") {
		t.Error("Expected a second Open to be ignored")
	}

	tickUntil(t, c, func() bool { return c.State() == StateOpen })
	if c.Open(thumbB, "b") {
		t.Error("Expected Open to be ignored while open")
	}

	expected := []stateChange{{StateClosed, StateOpening}, {StateOpening, StateOpen}}
	if len(*changes) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, *changes)
	}
	for i := range expected {
		if (*changes)[i] != expected[i] {
			t.Errorf("Transition %d: expected %v, got %v", i, expected[i], (*changes)[i])
		}
	}

	scene := c.LastScene()
	if scene.Frame != model.NewFrame(0, 0, 400, 800) {
		t.Errorf("Expected full-screen frame, got %v", scene.Frame)
	}
	if scene.ContentOpacity != 1 || scene.BackdropOpacity != 1 {
		t.Errorf("Expected opaque scene, got %+v", scene)
	}
	if c.ItemID() != "a" {
		t.Errorf("Expected item a, got %s", c.ItemID())
	}
}

func TestOpenRequiresViewport(t *testing.T) {
	c := NewController(DefaultOptions(), nil)
	if c.Open(thumbA, "a") {
		t.Error("Expected Open without a viewport to be ignored")
	}
	if c.State() != StateClosed {
		t.Errorf("Expected Closed, got %s", c.State())
	}
}

func TestOpenFromUnusableOrigin(t *testing.T) {
	fallback := FallbackFrame(model.NewFrame(0, 0, 400, 800), DefaultFallbackSize)
	tests := []struct {
		name   string
		origin model.Frame
	}{
		{"empty", model.Frame{}},
		{"off-screen", model.NewFrame(-500, 40, 80, 80)},
		{"below viewport", model.NewFrame(20, 900, 80, 80)},
	}

	for _, test := range tests {
		c, _ := newTestController(nil)
		c.Open(test.origin, "a")
		if f := c.LastScene().Frame; f != fallback {
			t.Errorf("%s: expected fallback %v, got %v", test.name, fallback, f)
		}
	}
}

func TestCloseLandsOnRemeasuredFrame(t *testing.T) {
	c := openController(t, &fakeHost{})

	done := c.CloseToFrame(&thumbB)
	if c.State() != StateDismissing {
		t.Fatalf("Expected Dismissing, got %s", c.State())
	}

	faded := false
	tickUntil(t, c, func() bool {
		if c.State() == StateDismissing && c.LastScene().ContentOpacity == 0 {
			faded = true
		}
		return c.State() == StateClosed
	})

	select {
	case <-done:
	default:
		t.Error("Expected the close channel to be closed")
	}
	if !faded {
		t.Error("Expected content to fade out before the frame landed")
	}
	if f := c.LastScene().Frame; f != thumbB {
		t.Errorf("Expected final frame %v, got %v", thumbB, f)
	}
}

func TestCloseWithoutTarget(t *testing.T) {
	fallback := FallbackFrame(model.NewFrame(0, 0, 400, 800), DefaultFallbackSize)
	offscreen := model.NewFrame(20, -300, 80, 80)

	for _, target := range []*model.Frame{nil, &offscreen} {
		c := openController(t, &fakeHost{})
		c.CloseToFrame(target)
		tickUntil(t, c, func() bool { return c.State() == StateClosed })

		if f := c.LastScene().Frame; f != fallback {
			t.Errorf("Expected fallback %v, got %v", fallback, f)
		}
	}
}

func TestCloseWhileClosed(t *testing.T) {
	c, changes := newTestController(&fakeHost{})

	done := c.CloseToFrame(&thumbB)
	select {
	case <-done:
	default:
		t.Error("Expected an already closed channel")
	}
	if c.State() != StateClosed || len(*changes) != 0 {
		t.Errorf("Expected no state change, got %v", *changes)
	}
}

func TestCloseTwiceKeepsFirstTarget(t *testing.T) {
	c := openController(t, &fakeHost{})

	first := c.CloseToFrame(&thumbB)
	second := c.CloseToFrame(&thumbA)
	if first != second {
		t.Error("Expected the running close to be returned")
	}

	tickUntil(t, c, func() bool { return c.State() == StateClosed })
	if f := c.LastScene().Frame; f != thumbB {
		t.Errorf("Expected the first target %v, got %v", thumbB, f)
	}
}

func TestCloseMidOpen(t *testing.T) {
	c, changes := newTestController(&fakeHost{})
	c.Open(thumbA, "a")
	for i := 0; i < 3; i++ {
		c.Tick(testFrame)
	}
	before := c.LastScene().Frame

	c.CloseToFrame(&thumbB)
	after := c.LastScene().Frame
	if !near(before.X, after.X) || !near(before.Y, after.Y) || !near(before.Width, after.Width) || !near(before.Height, after.Height) {
		t.Errorf("Expected the close to continue from %v, got %v", before, after)
	}

	tickUntil(t, c, func() bool { return c.State() == StateClosed })
	if f := c.LastScene().Frame; f != thumbB {
		t.Errorf("Expected final frame %v, got %v", thumbB, f)
	}
	for _, ch := range *changes {
		if ch.to == StateOpen {
			t.Error("Expected the interrupted open never to reach Open")
		}
	}
}

func TestPointerIgnoredWhileOpening(t *testing.T) {
	c, _ := newTestController(&fakeHost{canAdvance: true})
	c.Open(thumbA, "a")

	drag(c, model.Point{X: 100, Y: 400}, model.Point{X: 100, Y: 700}, 4, 40*time.Millisecond)
	if c.State() != StateOpening {
		t.Errorf("Expected Opening, got %s", c.State())
	}
}

func TestVerticalDragSpringsBack(t *testing.T) {
	host := &fakeHost{}
	c := openController(t, host)

	drag(c, model.Point{X: 200, Y: 300}, model.Point{X: 200, Y: 350}, 10, 500*time.Millisecond)
	if c.State() != StateOpen {
		t.Fatalf("Expected Open after a short slow drag, got %s", c.State())
	}

	tickUntil(t, c, func() bool { return c.LastScene().DragY == 0 })
	if f := c.LastScene().Frame; f != model.NewFrame(0, 0, 400, 800) {
		t.Errorf("Expected full-screen frame after spring-back, got %v", f)
	}
	if host.closeRequests != 0 {
		t.Errorf("Expected no close request, got %d", host.closeRequests)
	}
}

func TestVerticalDragShrinksAndFades(t *testing.T) {
	c := openController(t, &fakeHost{})

	c.PointerDown(model.Point{X: 200, Y: 100}, gestureStart)
	c.PointerMove(model.Point{X: 200, Y: 500}, gestureStart.Add(time.Second))

	scene := c.LastScene()
	if scene.DragY != 400 {
		t.Errorf("Expected drag 400, got %v", scene.DragY)
	}
	if scene.Scale >= 1 || scene.BackdropOpacity >= 1 {
		t.Errorf("Expected shrink and backdrop fade, got %+v", scene)
	}
	if scene.ContentOpacity != 1 {
		t.Errorf("Expected opaque content while dragging, got %v", scene.ContentOpacity)
	}
}

func TestVerticalDismiss(t *testing.T) {
	tests := []struct {
		name  string
		to    model.Point
		steps int
		d     time.Duration
	}{
		{"by distance", model.Point{X: 200, Y: 420}, 8, 400 * time.Millisecond},
		{"by velocity", model.Point{X: 200, Y: 260}, 2, 20 * time.Millisecond},
	}

	for _, test := range tests {
		host := &fakeHost{}
		c := openController(t, host)

		drag(c, model.Point{X: 200, Y: 300}, test.to, test.steps, test.d)
		if c.State() != StateDismissing {
			t.Errorf("%s: expected Dismissing, got %s", test.name, c.State())
			continue
		}

		tickUntil(t, c, func() bool { return host.closeRequests > 0 })
		if o := c.LastScene().ContentOpacity; o != 0 {
			t.Errorf("%s: expected content faded at close request, got %v", test.name, o)
		}
		for i := 0; i < 10; i++ {
			c.Tick(testFrame)
		}
		if host.closeRequests != 1 {
			t.Errorf("%s: expected 1 close request, got %d", test.name, host.closeRequests)
		}

		c.CloseToFrame(&thumbB)
		tickUntil(t, c, func() bool { return c.State() == StateClosed })
		if f := c.LastScene().Frame; f != thumbB {
			t.Errorf("%s: expected final frame %v, got %v", test.name, thumbB, f)
		}
	}
}

func TestHorizontalSwipePages(t *testing.T) {
	tests := []struct {
		name         string
		rightAdvance bool
		to           model.Point
		expected     model.Direction
	}{
		{"right is next", true, model.Point{X: 300, Y: 400}, model.DirectionNext},
		{"left is previous", true, model.Point{X: 100, Y: 400}, model.DirectionPrev},
		{"right is previous when flipped", false, model.Point{X: 300, Y: 400}, model.DirectionPrev},
	}

	for _, test := range tests {
		host := &fakeHost{canAdvance: true}
		opts := DefaultOptions()
		opts.SwipeRightAdvances = test.rightAdvance
		c := NewController(opts, host)
		c.SetViewport(400, 800)
		c.Open(thumbA, "a")
		tickUntil(t, c, func() bool { return c.State() == StateOpen })

		drag(c, model.Point{X: 200, Y: 400}, test.to, 8, 400*time.Millisecond)
		if c.State() != StatePaging {
			t.Errorf("%s: expected Paging, got %s", test.name, c.State())
			continue
		}

		tickUntil(t, c, func() bool { return len(host.advanced) > 0 })
		if host.advanced[0] != test.expected {
			t.Errorf("%s: expected %s, got %s", test.name, test.expected, host.advanced[0])
		}
		if c.State() != StateOpen || c.LastScene().DragX != 0 {
			t.Errorf("%s: expected a reset Open overlay, got %+v", test.name, c.LastScene())
		}
	}
}

func TestHorizontalFlickPages(t *testing.T) {
	host := &fakeHost{canAdvance: true}
	c := openController(t, host)

	// 40px is under the distance threshold but the flick is fast
	drag(c, model.Point{X: 200, Y: 400}, model.Point{X: 240, Y: 400}, 2, 20*time.Millisecond)
	if c.State() != StatePaging {
		t.Errorf("Expected Paging, got %s", c.State())
	}
}

func TestHorizontalSwipeWithoutNeighbor(t *testing.T) {
	host := &fakeHost{canAdvance: false}
	c := openController(t, host)

	drag(c, model.Point{X: 100, Y: 400}, model.Point{X: 300, Y: 400}, 8, 400*time.Millisecond)
	if c.State() != StateOpen {
		t.Fatalf("Expected Open, got %s", c.State())
	}
	tickUntil(t, c, func() bool { return c.LastScene().DragX == 0 })
	if len(host.advanced) != 0 {
		t.Errorf("Expected no advance, got %v", host.advanced)
	}
}

func TestGestureAxisLocked(t *testing.T) {
	c := openController(t, &fakeHost{canAdvance: true})

	c.PointerDown(model.Point{X: 200, Y: 300}, gestureStart)
	c.PointerMove(model.Point{X: 200, Y: 330}, gestureStart.Add(50*time.Millisecond))
	c.PointerMove(model.Point{X: 380, Y: 335}, gestureStart.Add(100*time.Millisecond))

	scene := c.LastScene()
	if scene.DragX != 0 || scene.DragY != 35 {
		t.Errorf("Expected vertical-only drag of 35, got x %v y %v", scene.DragX, scene.DragY)
	}
}

func TestPointerCancelSpringsBack(t *testing.T) {
	c := openController(t, &fakeHost{})

	c.PointerDown(model.Point{X: 200, Y: 300}, gestureStart)
	c.PointerMove(model.Point{X: 200, Y: 600}, gestureStart.Add(time.Second))
	c.PointerCancel()

	tickUntil(t, c, func() bool { return c.LastScene().DragY == 0 })
	if c.State() != StateOpen {
		t.Errorf("Expected Open, got %s", c.State())
	}
}

func TestProgrammaticPage(t *testing.T) {
	host := &fakeHost{canAdvance: true}
	c, _ := newTestController(host)

	if c.Page(model.DirectionNext) {
		t.Error("Expected Page to be ignored while closed")
	}

	c.Open(thumbA, "a")
	tickUntil(t, c, func() bool { return c.State() == StateOpen })
	if !c.Page(model.DirectionNext) {
		t.Fatal("Expected Page to be accepted")
	}
	tickUntil(t, c, func() bool { return len(host.advanced) > 0 })
	if host.advanced[0] != model.DirectionNext {
		t.Errorf("Expected next, got %s", host.advanced[0])
	}

	host.canAdvance = false
	if c.Page(model.DirectionNext) {
		t.Error("Expected Page to be refused at the end of the feed")
	}
}

func TestPageWhenIdleWaitsForRelease(t *testing.T) {
	host := &fakeHost{canAdvance: true}
	c := openController(t, host)

	c.PointerDown(model.Point{X: 200, Y: 400}, gestureStart)
	if !c.PageWhenIdle(model.DirectionNext) {
		t.Fatal("Expected the page to be deferred while dragging")
	}
	if !c.PagePending() || c.State() != StateOpen {
		t.Fatalf("Expected a pending page in Open, got pending %v in %s", c.PagePending(), c.State())
	}

	c.Tick(testFrame)
	if c.State() != StateOpen {
		t.Errorf("Expected Open while the finger is down, got %s", c.State())
	}

	c.PointerUp(model.Point{X: 200, Y: 400}, gestureStart.Add(50*time.Millisecond))
	tickUntil(t, c, func() bool { return len(host.advanced) > 0 })
	if host.advanced[0] != model.DirectionNext {
		t.Errorf("Expected next, got %s", host.advanced[0])
	}
	if c.PagePending() {
		t.Error("Expected the pending page to be consumed")
	}
}

func TestPageWhenIdleWaitsForOpen(t *testing.T) {
	host := &fakeHost{canAdvance: true}
	c, changes := newTestController(host)
	c.Open(thumbA, "a")
	c.Tick(testFrame)

	if !c.PageWhenIdle(model.DirectionNext) {
		t.Fatal("Expected the page to be deferred while opening")
	}
	tickUntil(t, c, func() bool { return len(host.advanced) > 0 })

	sawPaging := false
	for _, ch := range *changes {
		if ch.from == StateOpen && ch.to == StatePaging {
			sawPaging = true
		}
	}
	if !sawPaging {
		t.Errorf("Expected Open -> Paging, got %v", *changes)
	}
}

func TestPageWhenIdleCancelledByDismiss(t *testing.T) {
	host := &fakeHost{canAdvance: true}
	c := openController(t, host)

	c.PointerDown(model.Point{X: 200, Y: 100}, gestureStart)
	c.PageWhenIdle(model.DirectionNext)
	c.PointerMove(model.Point{X: 200, Y: 300}, gestureStart.Add(100*time.Millisecond))
	c.PointerUp(model.Point{X: 200, Y: 500}, gestureStart.Add(200*time.Millisecond))

	if c.State() != StateDismissing {
		t.Fatalf("Expected Dismissing, got %s", c.State())
	}
	if c.PagePending() {
		t.Error("Expected the dismiss to cancel the pending page")
	}
	for i := 0; i < 60; i++ {
		c.Tick(testFrame)
	}
	if len(host.advanced) != 0 {
		t.Errorf("Expected no advance, got %v", host.advanced)
	}
}

func TestPageWhenIdleRefused(t *testing.T) {
	c, _ := newTestController(&fakeHost{canAdvance: true})
	if c.PageWhenIdle(model.DirectionNext) {
		t.Error("Expected a refusal while closed")
	}

	c = openController(t, &fakeHost{})
	if c.PageWhenIdle(model.DirectionNext) {
		t.Error("Expected a refusal at the end of the feed")
	}
}

func TestPageWhenIdleClosesWhenFeedShrank(t *testing.T) {
	host := &fakeHost{canAdvance: true}
	c := openController(t, host)

	c.PointerDown(model.Point{X: 200, Y: 400}, gestureStart)
	c.PageWhenIdle(model.DirectionNext)
	host.canAdvance = false
	c.PointerUp(model.Point{X: 200, Y: 400}, gestureStart.Add(50*time.Millisecond))
	c.Tick(testFrame)

	if host.closeRequests != 1 {
		t.Errorf("Expected 1 close request, got %d", host.closeRequests)
	}
	if len(host.advanced) != 0 {
		t.Errorf("Expected no advance, got %v", host.advanced)
	}
}
