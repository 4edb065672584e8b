package storage_files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/configs"
)

// localStorage writes blobs under a root directory. Intended for development
// and single-node deployments; the HTTP engine serves the directory at the
// configured base URL.
type localStorage struct {
	logger  commons.Logger
	root    string
	baseURL string
}

func newLocalStorage(cfg configs.AssetStoreConfig, logger commons.Logger) (Storage, error) {
	root := cfg.LocalPath
	if root == "" {
		root = "assets"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset root %s: %w", root, err)
	}
	return &localStorage{logger: logger, root: root, baseURL: cfg.BaseURL}, nil
}

func (s *localStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return publicURL(s.baseURL, key), nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *localStorage) KeyFromURL(url string) string {
	return keyFromURL(s.baseURL, url)
}

// resolve rejects keys that would escape the asset root.
func (s *localStorage) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("illegal blob key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Root returns the directory the blobs live in, for static file serving.
func (s *localStorage) Root() string {
	return s.root
}
