package progress

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Slideshow is the playback primitive of a fixed-duration item. While
// playing it polls the clock every interval and reports the elapsed
// position; it pauses itself at the end.
type Slideshow struct {
	mutex      sync.Mutex
	clock      clock.Clock
	interval   time.Duration
	durationMs int64
	positionMs int64
	playing    bool
	lastTick   time.Time
	stop       chan struct{}
	onTick     func(positionMs, durationMs int64)
	audio      Player
}

// NewSlideshow creates a paused slideshow of durationMs
func NewSlideshow(clk clock.Clock, durationMs int64, interval time.Duration, onTick func(positionMs, durationMs int64)) *Slideshow {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Slideshow{
		clock:      clk,
		interval:   interval,
		durationMs: durationMs,
		onTick:     onTick,
	}
}

// SetAudio attaches a background audio track that follows play, pause and seek
func (s *Slideshow) SetAudio(audio Player) {
	s.mutex.Lock()
	s.audio = audio
	s.mutex.Unlock()
}

// Play starts or resumes the slideshow
func (s *Slideshow) Play() {
	s.mutex.Lock()
	if s.playing || s.positionMs >= s.durationMs {
		s.mutex.Unlock()
		return
	}
	s.playing = true
	s.lastTick = s.clock.Now()
	s.stop = make(chan struct{})
	ticker := s.clock.Ticker(s.interval)
	go s.run(ticker, s.stop)
	audio := s.audio
	s.mutex.Unlock()

	if audio != nil {
		audio.Play()
	}
}

// Pause stops the slideshow at its current position
func (s *Slideshow) Pause() {
	s.mutex.Lock()
	if !s.playing {
		s.mutex.Unlock()
		return
	}
	s.advanceLocked()
	s.haltLocked()
	audio := s.audio
	s.mutex.Unlock()

	if audio != nil {
		audio.Pause()
	}
}

// Seek moves the slideshow to positionMs, clamped to its duration
func (s *Slideshow) Seek(positionMs int64) {
	s.mutex.Lock()
	if positionMs < 0 {
		positionMs = 0
	}
	if positionMs > s.durationMs {
		positionMs = s.durationMs
	}
	s.positionMs = positionMs
	s.lastTick = s.clock.Now()
	audio := s.audio
	s.mutex.Unlock()

	if audio != nil {
		audio.Seek(positionMs)
	}
}

// Playing reports whether the slideshow is running
func (s *Slideshow) Playing() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playing
}

// Position returns the current position in milliseconds
func (s *Slideshow) Position() int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.positionMs
}

// Tick folds the time elapsed since the last tick into the position and
// reports it. The ticker goroutine calls it; tests may call it directly.
func (s *Slideshow) Tick() {
	s.mutex.Lock()
	if !s.playing {
		s.mutex.Unlock()
		return
	}
	s.advanceLocked()
	pos, dur := s.positionMs, s.durationMs
	var audio Player
	if pos >= dur {
		s.haltLocked()
		audio = s.audio
	}
	onTick := s.onTick
	s.mutex.Unlock()

	if audio != nil {
		audio.Pause()
	}
	if onTick != nil {
		onTick(pos, dur)
	}
}

func (s *Slideshow) run(ticker *clock.Ticker, stop chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

func (s *Slideshow) advanceLocked() {
	elapsed := s.clock.Now().Sub(s.lastTick).Milliseconds()
	s.positionMs += elapsed
	// the sub-millisecond remainder carries over to the next tick
	s.lastTick = s.lastTick.Add(time.Duration(elapsed) * time.Millisecond)
	if s.positionMs > s.durationMs {
		s.positionMs = s.durationMs
	}
}

func (s *Slideshow) haltLocked() {
	s.playing = false
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
