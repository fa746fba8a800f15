package download

import (
	"errors"
	"fmt"

	"github.com/ytget/storyviewer/internal/model"
)

// ErrNotInitialized is returned by Ensure before Init was called
var ErrNotInitialized = errors.New("media cache not initialized")

// FetchError describes a failed mirror attempt for one URL. It matches
// model.ErrFetchFailed with errors.Is.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == model.ErrFetchFailed
}
