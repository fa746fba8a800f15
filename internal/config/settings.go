package config

import (
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"

	"github.com/ytget/storyviewer/internal/lifecycle"
	"github.com/ytget/storyviewer/internal/platform"
	"github.com/ytget/storyviewer/internal/progress"
	"github.com/ytget/storyviewer/internal/transition"
	"github.com/ytget/storyviewer/internal/viewer"
)

// Settings keys for Fyne preferences
const (
	KeyCacheDir             = "cache_directory"
	KeyShowDelay            = "show_delay_ms"
	KeyLoadTimeout          = "load_timeout_ms"
	KeyMinVisible           = "min_visible_ms"
	KeyRetryDelay           = "retry_delay_ms"
	KeySlideDuration        = "slide_duration_ms"
	KeyDismissDistanceRatio = "dismiss_distance_ratio"
	KeyPageDistanceRatio    = "page_distance_ratio"
	KeyVelocityThreshold    = "velocity_threshold"
	KeySwipeRightAdvances   = "swipe_right_advances"
	KeyMaxParallel          = "max_parallel_fetches"
	KeyProbeMedia           = "probe_media"
	KeyLogLevel             = "log_level"
	KeyMetricsAddress       = "metrics_address"
	KeyLanguage             = "app_language"
)

// Default values
const (
	DefaultMaxParallel        = 4
	DefaultLogLevel           = "info"
	DefaultLanguage           = "system"
	DefaultSwipeRightAdvances = true
	DefaultProbeMedia         = true
	DefaultMetricsAddress     = ""
)

// Bounds and fallbacks
const (
	fallbackCacheDir     = "storyviewer-media"
	maxParallelLimit     = 10
	maxTimerMs           = int(time.Minute / time.Millisecond)
	maxVelocityThreshold = 10000.0
	minRatio             = 0.01
	maxRatio             = 0.9
)

var (
	defaultShowDelayMs       = int(lifecycle.DefaultShowDelay / time.Millisecond)
	defaultLoadTimeoutMs     = int(lifecycle.DefaultTimeout / time.Millisecond)
	defaultMinVisibleMs      = int(lifecycle.DefaultMinVisible / time.Millisecond)
	defaultRetryDelayMs      = int(lifecycle.DefaultRetryDelay / time.Millisecond)
	defaultSlideDurationMs   = int(progress.DefaultSlideDuration / time.Millisecond)
	defaultDismissDistance   = float64(transition.DefaultDismissDistanceRatio)
	defaultPageDistance      = float64(transition.DefaultPageDistanceRatio)
	defaultVelocityThreshold = float64(transition.DefaultVelocityThreshold)
)

// Log levels offered in the settings dialog
var LogLevels = []string{"debug", "info", "warn", "error"}

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetCacheDirectory returns the media mirror directory
func (s *Settings) GetCacheDirectory() string {
	dir := s.app.Preferences().String(KeyCacheDir)
	if dir == "" {
		defaultDir, err := platform.GetDefaultCacheDir()
		if err != nil {
			defaultDir = filepath.Join(os.TempDir(), fallbackCacheDir)
		}
		s.SetCacheDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetCacheDirectory sets the media mirror directory
func (s *Settings) SetCacheDirectory(dir string) {
	s.app.Preferences().SetString(KeyCacheDir, dir)
}

// GetShowDelay returns how long a load may run before the spinner appears
func (s *Settings) GetShowDelay() time.Duration {
	return s.duration(KeyShowDelay, defaultShowDelayMs, 0)
}

// SetShowDelay sets the spinner show delay
func (s *Settings) SetShowDelay(d time.Duration) {
	s.setDuration(KeyShowDelay, d, 0)
}

// GetLoadTimeout returns how long a load may run before it times out
func (s *Settings) GetLoadTimeout() time.Duration {
	return s.duration(KeyLoadTimeout, defaultLoadTimeoutMs, 1)
}

// SetLoadTimeout sets the load timeout
func (s *Settings) SetLoadTimeout(d time.Duration) {
	s.setDuration(KeyLoadTimeout, d, 1)
}

// GetMinVisible returns the minimum time a shown spinner stays up
func (s *Settings) GetMinVisible() time.Duration {
	return s.duration(KeyMinVisible, defaultMinVisibleMs, 0)
}

// SetMinVisible sets the minimum spinner visibility
func (s *Settings) SetMinVisible(d time.Duration) {
	s.setDuration(KeyMinVisible, d, 0)
}

// GetRetryDelay returns the pause before the automatic retry
func (s *Settings) GetRetryDelay() time.Duration {
	return s.duration(KeyRetryDelay, defaultRetryDelayMs, 0)
}

// SetRetryDelay sets the automatic retry delay
func (s *Settings) SetRetryDelay(d time.Duration) {
	s.setDuration(KeyRetryDelay, d, 0)
}

// GetSlideDuration returns how long an image stays on screen
func (s *Settings) GetSlideDuration() time.Duration {
	return s.duration(KeySlideDuration, defaultSlideDurationMs, 1)
}

// SetSlideDuration sets the fixed image duration
func (s *Settings) SetSlideDuration(d time.Duration) {
	s.setDuration(KeySlideDuration, d, 1)
}

// GetDismissDistanceRatio returns the share of the height that commits a dismiss
func (s *Settings) GetDismissDistanceRatio() float64 {
	return s.ratio(KeyDismissDistanceRatio, defaultDismissDistance)
}

// SetDismissDistanceRatio sets the dismiss distance ratio
func (s *Settings) SetDismissDistanceRatio(r float64) {
	s.app.Preferences().SetFloat(KeyDismissDistanceRatio, clampFloat(r, minRatio, maxRatio))
}

// GetPageDistanceRatio returns the share of the width that commits a page
func (s *Settings) GetPageDistanceRatio() float64 {
	return s.ratio(KeyPageDistanceRatio, defaultPageDistance)
}

// SetPageDistanceRatio sets the page distance ratio
func (s *Settings) SetPageDistanceRatio(r float64) {
	s.app.Preferences().SetFloat(KeyPageDistanceRatio, clampFloat(r, minRatio, maxRatio))
}

// GetVelocityThreshold returns the flick speed in px/s that commits a gesture
func (s *Settings) GetVelocityThreshold() float64 {
	v := s.app.Preferences().Float(KeyVelocityThreshold)
	if v <= 0 {
		s.SetVelocityThreshold(defaultVelocityThreshold)
		return defaultVelocityThreshold
	}
	return v
}

// SetVelocityThreshold sets the flick threshold
func (s *Settings) SetVelocityThreshold(v float64) {
	s.app.Preferences().SetFloat(KeyVelocityThreshold, clampFloat(v, 1, maxVelocityThreshold))
}

// GetSwipeRightAdvances returns whether a rightward swipe shows the next item
func (s *Settings) GetSwipeRightAdvances() bool {
	return s.app.Preferences().BoolWithFallback(KeySwipeRightAdvances, DefaultSwipeRightAdvances)
}

// SetSwipeRightAdvances sets the swipe direction mapping
func (s *Settings) SetSwipeRightAdvances(v bool) {
	s.app.Preferences().SetBool(KeySwipeRightAdvances, v)
}

// GetMaxParallelFetches returns the maximum number of parallel fetches
func (s *Settings) GetMaxParallelFetches() int {
	value := s.app.Preferences().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallelFetches(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return value
}

// SetMaxParallelFetches sets the maximum number of parallel fetches
func (s *Settings) SetMaxParallelFetches(count int) {
	if count < 1 {
		count = 1
	}
	if count > maxParallelLimit {
		count = maxParallelLimit
	}
	s.app.Preferences().SetInt(KeyMaxParallel, count)
}

// GetProbeMedia returns whether mirrored files are probed before display
func (s *Settings) GetProbeMedia() bool {
	return s.app.Preferences().BoolWithFallback(KeyProbeMedia, DefaultProbeMedia)
}

// SetProbeMedia sets whether mirrored files are probed
func (s *Settings) SetProbeMedia(v bool) {
	s.app.Preferences().SetBool(KeyProbeMedia, v)
}

// GetLogLevel returns the configured log level
func (s *Settings) GetLogLevel() string {
	level := s.app.Preferences().String(KeyLogLevel)
	if level == "" {
		s.SetLogLevel(DefaultLogLevel)
		return DefaultLogLevel
	}
	return level
}

// SetLogLevel sets the log level; unknown levels fall back to the default
func (s *Settings) SetLogLevel(level string) {
	for _, l := range LogLevels {
		if l == level {
			s.app.Preferences().SetString(KeyLogLevel, level)
			return
		}
	}
	s.app.Preferences().SetString(KeyLogLevel, DefaultLogLevel)
}

// GetMetricsAddress returns the listen address of the metrics endpoint, or
// "" when it is disabled
func (s *Settings) GetMetricsAddress() string {
	return s.app.Preferences().StringWithFallback(KeyMetricsAddress, DefaultMetricsAddress)
}

// SetMetricsAddress sets the metrics listen address
func (s *Settings) SetMetricsAddress(addr string) {
	s.app.Preferences().SetString(KeyMetricsAddress, addr)
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	lang := s.app.Preferences().String(KeyLanguage)
	if lang == "" {
		s.SetLanguage(DefaultLanguage)
		return DefaultLanguage
	}
	return lang
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"system": "System Default",
		"en":     "English",
		"ru":     "Русский",
		"pt":     "Português",
	}
}

// EngineOptions builds the controller options from the stored settings
func (s *Settings) EngineOptions() viewer.Options {
	opts := viewer.DefaultOptions()

	opts.Lifecycle.ShowDelay = s.GetShowDelay()
	opts.Lifecycle.Timeout = s.GetLoadTimeout()
	opts.Lifecycle.MinVisible = s.GetMinVisible()
	opts.Lifecycle.RetryDelay = s.GetRetryDelay()

	opts.Progress.SlideDuration = s.GetSlideDuration()

	opts.Transition.DismissDistanceRatio = float32(s.GetDismissDistanceRatio())
	opts.Transition.PageDistanceRatio = float32(s.GetPageDistanceRatio())
	opts.Transition.VelocityThreshold = float32(s.GetVelocityThreshold())
	opts.Transition.SwipeRightAdvances = s.GetSwipeRightAdvances()

	return opts
}

// duration reads a millisecond preference. A missing key yields def; stored
// values are clamped to [lo, maxTimerMs].
func (s *Settings) duration(key string, def, lo int) time.Duration {
	ms := s.app.Preferences().IntWithFallback(key, -1)
	if ms < 0 {
		s.app.Preferences().SetInt(key, def)
		ms = def
	}
	return time.Duration(clampInt(ms, lo, maxTimerMs)) * time.Millisecond
}

func (s *Settings) setDuration(key string, d time.Duration, lo int) {
	s.app.Preferences().SetInt(key, clampInt(int(d/time.Millisecond), lo, maxTimerMs))
}

func (s *Settings) ratio(key string, def float64) float64 {
	r := s.app.Preferences().Float(key)
	if r <= 0 {
		s.app.Preferences().SetFloat(key, def)
		return def
	}
	return clampFloat(r, minRatio, maxRatio)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
