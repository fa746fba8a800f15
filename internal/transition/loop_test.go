package transition

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ytget/storyviewer/internal/model"
)

// loopHost runs on the loop's host goroutine and queries the loop back,
// which would deadlock if callbacks ran on the render goroutine.
type loopHost struct {
	loop     *Loop
	mutex    sync.Mutex
	calls    []string
	advanced chan State
	closed   chan struct{}
}

func (h *loopHost) CanAdvance(model.Direction) bool {
	return true
}

func (h *loopHost) Advance(dir model.Direction) {
	h.record("advance:" + dir.String())
	h.advanced <- h.loop.State()
}

func (h *loopHost) RequestClose() {
	h.record("close")
	<-h.loop.CloseToFrame(&thumbB)
	close(h.closed)
}

func (h *loopHost) record(call string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.calls = append(h.calls, call)
}

func newTestLoop(t *testing.T) (*Loop, *loopHost, *[]Scene) {
	t.Helper()
	host := &loopHost{advanced: make(chan State, 4), closed: make(chan struct{})}
	var mutex sync.Mutex
	scenes := &[]Scene{}
	l := NewLoop(clock.NewMock(), 0, DefaultOptions(), host, func(s Scene) {
		mutex.Lock()
		defer mutex.Unlock()
		*scenes = append(*scenes, s)
	})
	host.loop = l
	l.Start()
	t.Cleanup(l.Stop)
	l.SetViewport(400, 800)
	return l, host, scenes
}

func stepUntil(t *testing.T, l *Loop, cond func() bool) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if cond() {
			return
		}
		l.Step(testFrame)
	}
	t.Fatalf("Condition not reached, state %s", l.State())
}

func TestLoopOpen(t *testing.T) {
	l, _, scenes := newTestLoop(t)

	if !l.Open(thumbA, "a") {
		t.Fatal("Expected Open to be accepted")
	}
	if l.Open(thumbA, "a") {
		t.Error("Expected a second Open to be ignored")
	}
	stepUntil(t, l, func() bool { return l.State() == StateOpen })

	if len(*scenes) == 0 {
		t.Fatal("Expected rendered scenes")
	}
	if f := l.Scene().Frame; f != model.NewFrame(0, 0, 400, 800) {
		t.Errorf("Expected full-screen frame, got %v", f)
	}
}

func TestLoopHostCallbacks(t *testing.T) {
	l, host, _ := newTestLoop(t)
	l.Open(thumbA, "a")
	stepUntil(t, l, func() bool { return l.State() == StateOpen })

	// horizontal swipe; pointer events are queued ahead of the next step
	at := l.Now()
	l.PointerDown(model.Point{X: 100, Y: 400}, at)
	l.PointerMove(model.Point{X: 200, Y: 400}, at.Add(100*time.Millisecond))
	l.PointerUp(model.Point{X: 250, Y: 400}, at.Add(200*time.Millisecond))

	var state State
	stepUntil(t, l, func() bool {
		select {
		case state = <-host.advanced:
			return true
		default:
			return false
		}
	})
	if state != StateOpen {
		t.Errorf("Expected Open after paging, got %s", state)
	}

	// vertical dismiss; the host closes into a remeasured frame
	at = l.Now()
	l.PointerDown(model.Point{X: 200, Y: 300}, at)
	l.PointerMove(model.Point{X: 200, Y: 360}, at.Add(100*time.Millisecond))
	l.PointerUp(model.Point{X: 200, Y: 450}, at.Add(200*time.Millisecond))

	stepUntil(t, l, func() bool {
		select {
		case <-host.closed:
			return true
		default:
			return false
		}
	})
	if f := l.Scene().Frame; f != thumbB {
		t.Errorf("Expected final frame %v, got %v", thumbB, f)
	}

	host.mutex.Lock()
	defer host.mutex.Unlock()
	expected := []string{"advance:next", "close"}
	if len(host.calls) != len(expected) {
		t.Fatalf("Expected calls %v, got %v", expected, host.calls)
	}
	for i := range expected {
		if host.calls[i] != expected[i] {
			t.Errorf("Call %d: expected %s, got %s", i, expected[i], host.calls[i])
		}
	}
}

func TestLoopTicker(t *testing.T) {
	mock := clock.NewMock()
	l := NewLoop(mock, DefaultFrameInterval, DefaultOptions(), nil, nil)
	l.Start()
	defer l.Stop()
	l.SetViewport(400, 800)
	l.Open(thumbA, "a")

	for i := 0; i < 1000 && l.State() != StateOpen; i++ {
		mock.Add(DefaultFrameInterval)
	}
	if l.State() != StateOpen {
		t.Errorf("Expected the ticker to drive the open, got %s", l.State())
	}
}

func TestLoopStop(t *testing.T) {
	l := NewLoop(clock.NewMock(), 0, DefaultOptions(), nil, nil)
	l.Start()
	l.Stop()
	l.Stop()

	// calls after stop return instead of blocking
	if l.Open(thumbA, "a") {
		t.Error("Expected Open after Stop to be refused")
	}
}
