package storage_files

import (
	"context"
	"fmt"
	"strings"

	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/configs"
)

// Storage persists opaque blobs under hierarchical keys and serves them back
// at stable public URLs.
type Storage interface {
	// Put stores data under key and returns the public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the blob stored under key.
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a public URL issued by Put back to its storage key.
	// Returns an empty string for foreign URLs.
	KeyFromURL(url string) string
}

// NewStorage selects the backend from config. Unknown providers fall back to
// local storage with a logged warning.
func NewStorage(cfg configs.AssetStoreConfig, logger commons.Logger) (Storage, error) {
	switch strings.ToLower(cfg.Provider) {
	case "s3":
		return newS3Storage(cfg, logger)
	case "local", "":
		return newLocalStorage(cfg, logger)
	default:
		logger.Warnf("unknown asset store provider %q, using local", cfg.Provider)
		return newLocalStorage(cfg, logger)
	}
}

func keyFromURL(baseURL, url string) string {
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

func publicURL(baseURL, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(baseURL, "/"), key)
}
