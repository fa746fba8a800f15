package transition

import (
	"math"
	"time"
)

// Spring settle thresholds
const (
	settleDistance = 1e-3
	settleVelocity = 1e-2
)

// Spring is a critically damped spring on one scalar. Omega is the natural
// frequency in radians per second; larger values settle faster. Unit scales
// the rest thresholds (1 for a unit progress, larger for pixel offsets).
type Spring struct {
	Value    float64
	Velocity float64
	Target   float64
	Omega    float64
	Unit     float64
}

// Step advances the spring by dt using the closed-form solution, so large
// steps never overshoot or explode.
func (s *Spring) Step(dt time.Duration) {
	t := dt.Seconds()
	if t <= 0 {
		return
	}
	w := s.Omega
	x := s.Value - s.Target
	v := s.Velocity
	decay := math.Exp(-w * t)

	s.Value = s.Target + (x+(v+w*x)*t)*decay
	s.Velocity = (v - w*(v+w*x)*t) * decay

	if s.nearRest() {
		s.Value = s.Target
		s.Velocity = 0
	}
}

// Settled reports whether the spring has come to rest on its target
func (s *Spring) Settled() bool {
	return s.Value == s.Target && s.Velocity == 0
}

// SnapTo puts the spring at rest on v
func (s *Spring) SnapTo(v float64) {
	s.Value, s.Target, s.Velocity = v, v, 0
}

func (s *Spring) nearRest() bool {
	unit := s.Unit
	if unit <= 0 {
		unit = 1
	}
	return math.Abs(s.Value-s.Target) < settleDistance*unit && math.Abs(s.Velocity) < settleVelocity*unit
}
