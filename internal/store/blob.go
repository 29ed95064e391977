// Package store persists the board. The board itself is one JSON blob kept in
// a small key/value BlobStore; the ProjectStore turns that blob into projects.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kingrea/creatorflow/internal/config"
)

var (
	// ErrNotFound is returned by BlobStore.Get when the key has never been set.
	ErrNotFound = errors.New("store: blob not found")
	// ErrCorrupt marks a stored blob that could not be decoded.
	ErrCorrupt = errors.New("store: corrupt data")
)

// BlobStore is a get/set store of opaque values.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) || strings.Trim(key, ".") == "" {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}

// OpenBlobStore opens the backend selected in cfg.
func OpenBlobStore(cfg *config.Config) (BlobStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store: config is required")
	}
	switch cfg.StorageDriver() {
	case config.DriverSQLite:
		return NewSQLiteBlobStore(cfg.StoragePath())
	case config.DriverFile:
		return NewFileBlobStore(cfg.StoragePath())
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.StorageDriver())
	}
}

// Describe returns a short human label for where blobs live.
func Describe(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return fmt.Sprintf("%s:%s", cfg.StorageDriver(), filepath.Clean(cfg.StoragePath()))
}
