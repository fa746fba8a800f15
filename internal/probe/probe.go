package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/ytget/storyviewer/internal/logging"
	"github.com/ytget/storyviewer/internal/model"
)

// FFprobe invocation constants
const (
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
)

// MIME prefixes and playlist types accepted per kind
const (
	ImageMIMEPrefix = "image/"
	VideoMIMEPrefix = "video/"
	AudioMIMEPrefix = "audio/"
	HLSMIMEType     = "application/vnd.apple.mpegurl"
	HLSAltMIMEType  = "application/x-mpegurl"
)

// Result describes a probed file
type Result struct {
	Path       string
	MIME       string
	Kind       model.MediaKind
	DurationMs int64 // 0 when unknown
}

// Runner runs an external command and returns its stdout
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Prober inspects mirrored files
type Prober struct {
	run Runner
	log *logrus.Entry
}

// NewProber creates a prober that shells out to ffprobe
func NewProber() *Prober {
	return &Prober{
		run: execRunner,
		log: logging.Component(nil, "probe"),
	}
}

// SetRunner replaces the command runner
func (p *Prober) SetRunner(run Runner) {
	p.run = run
}

// Probe sniffs the file at path and checks it against the expected kind. A
// file that is not of that kind, or that ffprobe rejects, is reported as
// model.ErrDecodeFailed.
func (p *Prober) Probe(ctx context.Context, path string, expected model.MediaKind) (Result, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", model.ErrDecodeFailed, err)
	}

	res := Result{Path: path, MIME: mtype.String(), Kind: expected}
	kind, ok := KindForMIME(res.MIME)
	if !ok || kind != expected {
		p.log.WithFields(logrus.Fields{"path": path, "mime": res.MIME, "expected": expected}).Warn("Media type mismatch")
		return res, fmt.Errorf("%w: %s is not %s", model.ErrDecodeFailed, res.MIME, expected)
	}

	if expected != model.KindVideo {
		return res, nil
	}

	duration, err := p.duration(ctx, path)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			// no ffprobe on this host; the player reports the duration
			return res, nil
		}
		return res, fmt.Errorf("%w: %v", model.ErrDecodeFailed, err)
	}
	res.DurationMs = duration
	return res, nil
}

// KindForMIME maps a detected MIME type to a media kind
func KindForMIME(mime string) (model.MediaKind, bool) {
	mime = strings.ToLower(mime)
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch {
	case strings.HasPrefix(mime, ImageMIMEPrefix):
		return model.KindImage, true
	case strings.HasPrefix(mime, VideoMIMEPrefix),
		strings.HasPrefix(mime, AudioMIMEPrefix),
		mime == HLSMIMEType, mime == HLSAltMIMEType:
		return model.KindVideo, true
	}
	return "", false
}

// BuildFFprobeArgs builds the ffprobe arguments that print the container duration
func BuildFFprobeArgs(path string) []string {
	return []string{
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		path,
	}
}

// ParseDuration parses ffprobe's seconds output into milliseconds
func ParseDuration(output string) (int64, error) {
	s := strings.TrimSpace(output)
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration: %s", s)
	}
	return int64(seconds * 1000), nil
}

func (p *Prober) duration(ctx context.Context, path string) (int64, error) {
	out, err := p.run(ctx, FFprobeCommand, BuildFFprobeArgs(path)...)
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}
	return ParseDuration(string(out))
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
