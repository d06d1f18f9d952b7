// Package blob stores uploaded product images and returns browser-reachable URLs.
package blob

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Prefix is the logical folder every product image is stored under.
const Prefix = "products"

// DefaultExt is used when the caller has no usable format hint.
const DefaultExt = "jpg"

var ErrEmptyData = errors.New("blob: no data to store")

// Store persists image bytes under a fresh unique name and returns its absolute URL.
type Store interface {
	Put(ctx context.Context, data []byte, ext string) (string, error)
}

// SanitizeExt lowercases ext, drops a leading dot and anything outside [a-z0-9].
// An empty result falls back to DefaultExt.
func SanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return DefaultExt
	}
	return b.String()
}

func objectName(ext string) string {
	return Prefix + "/" + uuid.NewString() + "." + SanitizeExt(ext)
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		out += "/" + p
	}
	return out
}
