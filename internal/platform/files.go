package platform

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// Operating system constants
const (
	OSWindows = "windows"
	OSAndroid = "android"
)

// File permissions
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Cache layout
const (
	CacheSubdir   = "media"
	AppCacheName  = "storyviewer"
	TempFileInfix = ".tmp-"
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// IsAndroid reports whether we run inside a Fyne Android package
func IsAndroid() bool {
	return runtime.GOOS == OSAndroid ||
		os.Getenv("ANDROID_DATA") != "" ||
		filepath.Base(os.Args[0]) == "libdist.so"
}

// GetDefaultCacheDir returns the dedicated media mirror directory
func GetDefaultCacheDir() (string, error) {
	if IsAndroid() {
		if dir := os.Getenv("TMPDIR"); dir != "" {
			return filepath.Join(dir, AppCacheName, CacheSubdir), nil
		}
	}

	base, err := os.UserCacheDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to get user cache directory: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, AppCacheName, CacheSubdir), nil
}

// WriteFileAtomic streams r into dir/name through a temporary file in the
// same directory and renames it into place, so readers never observe a
// partially written file. It returns the number of bytes written.
func WriteFileAtomic(dir, name string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return 0, err
	}

	tmpName := filepath.Join(dir, "."+name+TempFileInfix+uuid.NewString())
	tmp, err := os.OpenFile(tmpName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, DefaultFilePermissions)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return n, err
	}
	if err := tmp.Sync(); err != nil {
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return n, err
	}

	syncDirBestEffort(dir)
	return n, nil
}

func syncDirBestEffort(dir string) {
	if runtime.GOOS == OSWindows {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}

// IsTempFile reports whether name is a leftover of an interrupted atomic write
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, TempFileInfix)
}

// DirSize sums the size of regular, non-temporary files directly inside dir.
// A missing directory has size zero.
func DirSize(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var total int64
	for _, e := range entries {
		if !e.Type().IsRegular() || IsTempFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
