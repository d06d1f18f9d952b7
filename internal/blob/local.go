package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes images below a media root directory that the HTTP server
// also serves under urlPrefix.
type LocalStore struct {
	root      string
	baseURL   string
	urlPrefix string
}

func NewLocalStore(root, baseURL, urlPrefix string) *LocalStore {
	return &LocalStore{root: root, baseURL: baseURL, urlPrefix: urlPrefix}
}

func (s *LocalStore) Put(ctx context.Context, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(ext)
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blob: create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob: write %s: %w", name, err)
	}
	return joinURL(s.baseURL, s.urlPrefix, name), nil
}
