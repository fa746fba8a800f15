package platform

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ytget/storyviewer/internal/model"
	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultParseTimeout = 60 * time.Second
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

// URL templates
const (
	ThumbnailURLTemplate = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
	ItemIDPrefix         = "item-"
)

// PlaylistSource turns a YouTube playlist into a stream of fixed-duration
// image stories built from the video thumbnails.
type PlaylistSource struct {
	timeout time.Duration
}

// NewPlaylistSource creates a new playlist source
func NewPlaylistSource() *PlaylistSource {
	return &PlaylistSource{
		timeout: DefaultParseTimeout,
	}
}

// SetTimeout sets the timeout for parsing operations
func (y *PlaylistSource) SetTimeout(timeout time.Duration) {
	y.timeout = timeout
}

// Load fetches the playlist items and maps them to media references
func (y *PlaylistSource) Load(ctx context.Context, url string) ([]model.MediaRef, error) {
	playlistID := ExtractPlaylistID(url)
	if playlistID == "" {
		return nil, fmt.Errorf("invalid playlist URL: %s", url)
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	refs := make([]model.MediaRef, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		refs = append(refs, model.MediaRef{
			ID:        ItemIDPrefix + it.VideoID,
			RemoteURL: fmt.Sprintf(ThumbnailURLTemplate, it.VideoID),
			Kind:      model.KindImage,
			Title:     it.Title,
		})
	}
	return refs, nil
}

// ExtractPlaylistID extracts the playlist ID from a playlist URL
func ExtractPlaylistID(url string) string {
	if !strings.Contains(url, PlaylistParam) {
		return ""
	}
	parts := strings.SplitN(url, PlaylistParam, 2)
	id := parts[1]
	if i := strings.Index(id, ParamSeparator); i >= 0 {
		id = id[:i]
	}
	return id
}

// ReadURLList reads one media URL per line. Blank lines and lines starting
// with '#' are skipped. Item ids follow line order.
func ReadURLList(r io.Reader) ([]model.MediaRef, error) {
	var refs []model.MediaRef
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, model.MediaRef{
			ID:        fmt.Sprintf("%s%d", ItemIDPrefix, len(refs)+1),
			RemoteURL: line,
			Kind:      model.KindFromURL(line),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}
	return refs, nil
}
