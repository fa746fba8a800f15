package download

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// MaxExtensionLength bounds the extension kept from the URL path
const MaxExtensionLength = 8

// FileName derives the mirror file name from the remote URL: the hex sha256
// of the URL plus the lowercased path extension when it looks sane.
func FileName(remoteURL string) string {
	sum := sha256.Sum256([]byte(remoteURL))
	return hex.EncodeToString(sum[:]) + extensionOf(remoteURL)
}

func extensionOf(remoteURL string) string {
	p := remoteURL
	if u, err := url.Parse(remoteURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if len(ext) < 2 || len(ext) > MaxExtensionLength {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
