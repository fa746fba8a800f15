package transition

import (
	"testing"

	"github.com/ytget/storyviewer/internal/model"
)

func testLayout() Layout {
	return Layout{
		Anchor:       model.Frame{X: 20, Y: 40, Width: 80, Height: 80, CornerRadius: 8},
		Viewport:     model.NewFrame(0, 0, 400, 800),
		MinDragScale: 0.8,
		FadeDistance: 0.5,
	}
}

func TestLayoutFrameEndpoints(t *testing.T) {
	l := testLayout()

	if f := l.Frame(0, 0, 0); f != l.Anchor {
		t.Errorf("Expected anchor at progress 0, got %v", f)
	}
	if f := l.Frame(1, 0, 0); f != l.Viewport {
		t.Errorf("Expected viewport at progress 1, got %v", f)
	}
	if f := l.Frame(1.7, 0, 0); f != l.Viewport {
		t.Errorf("Expected progress to be clamped, got %v", f)
	}
}

func TestLayoutFrameDerivesFromOneScalar(t *testing.T) {
	l := testLayout()

	// position, size and corner radius all sit at the same interpolation point
	for _, p := range []float32{0.1, 0.25, 0.5, 0.9} {
		f := l.Frame(p, 0, 0)
		tx := (f.X - l.Anchor.X) / (l.Viewport.X - l.Anchor.X)
		tw := (f.Width - l.Anchor.Width) / (l.Viewport.Width - l.Anchor.Width)
		tr := (f.CornerRadius - l.Anchor.CornerRadius) / (l.Viewport.CornerRadius - l.Anchor.CornerRadius)
		if abs32(tx-p) > 1e-4 || abs32(tw-p) > 1e-4 || abs32(tr-p) > 1e-4 {
			t.Errorf("Progress %v: got x %v, width %v, radius %v", p, tx, tw, tr)
		}
	}
}

func TestLayoutVerticalDrag(t *testing.T) {
	l := testLayout()

	f := l.Frame(1, 0, 400)
	if s := l.DragScale(400); !near(s, 0.9) {
		t.Errorf("Expected scale 0.9 at half-height drag, got %v", s)
	}
	if !near(f.Width, 360) || !near(f.Height, 720) {
		t.Errorf("Expected shrunk 360x720 frame, got %v", f)
	}
	if c := f.Center(); !near(c.X, 200) || !near(c.Y, 800) {
		t.Errorf("Expected center translated by the drag, got %v", c)
	}

	if o := l.BackdropOpacity(1, 200); o != 0.5 {
		t.Errorf("Expected backdrop 0.5 at a quarter-height drag, got %v", o)
	}
	if o := l.BackdropOpacity(1, 800); o != 0 {
		t.Errorf("Expected transparent backdrop, got %v", o)
	}
}

func TestLayoutHorizontalDragTranslatesOnly(t *testing.T) {
	l := testLayout()

	f := l.Frame(1, -120, 0)
	expected := model.NewFrame(-120, 0, 400, 800)
	if f != expected {
		t.Errorf("Expected %v, got %v", expected, f)
	}
}

func TestCloseScene(t *testing.T) {
	target := model.NewFrame(200, 300, 80, 80)
	from := model.NewFrame(0, 0, 400, 800)

	start := closeScene(target, from, 1, 1, 1)
	if start.Frame != from || start.ContentOpacity != 1 {
		t.Errorf("Expected close to start at the captured frame, got %+v", start)
	}

	early := closeScene(target, from, 0.25, 1, 1)
	if early.ContentOpacity != 0 {
		t.Errorf("Expected content gone before the frame lands, got %v", early.ContentOpacity)
	}

	end := closeScene(target, from, 0, 1, 1)
	if end.Frame != target {
		t.Errorf("Expected exact target at the end, got %v", end.Frame)
	}
	if end.BackdropOpacity != 0 {
		t.Errorf("Expected transparent backdrop at the end, got %v", end.BackdropOpacity)
	}
}

func TestFallbackFrame(t *testing.T) {
	f := FallbackFrame(model.NewFrame(0, 0, 400, 800), 24)
	expected := model.Frame{X: 188, Y: 388, Width: 24, Height: 24, CornerRadius: 12}
	if f != expected {
		t.Errorf("Expected %v, got %v", expected, f)
	}
}

func near(a, b float32) bool {
	return abs32(a-b) < 1e-3
}
