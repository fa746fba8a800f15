package model

import "testing"

func TestLerp(t *testing.T) {
	a := Frame{X: 20, Y: 40, Width: 80, Height: 80, CornerRadius: 8}
	b := Frame{X: 0, Y: 0, Width: 400, Height: 800}

	if got := Lerp(a, b, 0); got != a {
		t.Errorf("Expected Lerp at 0 to be %v, got %v", a, got)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Errorf("Expected Lerp at 1 to be %v, got %v", b, got)
	}

	mid := Lerp(a, b, 0.5)
	expected := Frame{X: 10, Y: 20, Width: 240, Height: 440, CornerRadius: 4}
	if mid != expected {
		t.Errorf("Expected midpoint %v, got %v", expected, mid)
	}
}

func TestFrame_Scale(t *testing.T) {
	f := NewFrame(0, 0, 100, 200)
	s := f.Scale(0.5)
	if s.Center() != f.Center() {
		t.Errorf("Expected scaling to keep the center %v, got %v", f.Center(), s.Center())
	}
	if s.Width != 50 || s.Height != 100 {
		t.Errorf("Expected 50x100, got %vx%v", s.Width, s.Height)
	}
}

func TestFrame_Intersects(t *testing.T) {
	tests := []struct {
		frame    Frame
		expected bool
	}{
		{NewFrame(20, 40, 80, 80), true},
		{NewFrame(-200, 40, 80, 80), false},
		{NewFrame(20, 900, 80, 80), false},
		{NewFrame(20, 40, 0, 80), false},
		{NewFrame(-40, -40, 80, 80), true},
	}

	for _, test := range tests {
		if result := test.frame.Intersects(400, 800); result != test.expected {
			t.Errorf("Frame%v.Intersects(400, 800) = %v, expected %v", test.frame, result, test.expected)
		}
	}
}

func TestProgressState_Clamp(t *testing.T) {
	p := ProgressState{DurationMs: 5000}
	tests := []struct {
		pos      int64
		expected int64
	}{
		{-10, 0},
		{0, 0},
		{2500, 2500},
		{5000, 5000},
		{7000, 5000},
	}

	for _, test := range tests {
		if result := p.Clamp(test.pos); result != test.expected {
			t.Errorf("Clamp(%d) = %d, expected %d", test.pos, result, test.expected)
		}
	}

	unknown := ProgressState{}
	if result := unknown.Clamp(7000); result != 7000 {
		t.Errorf("Expected unclamped position while duration unknown, got %d", result)
	}
}
