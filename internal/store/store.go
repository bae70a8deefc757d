package store

import (
	"context"
	"errors"
)

// Keys used in the local cache.
const (
	KeyDocument = "data"
	KeySession  = "session"
	KeyTheme    = "theme"
	KeyColor    = "color"
	KeyDarkMode = "darkMode"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("cache key not found")

// Cache is the local durable key→string store. It holds the last known
// document, the active session and display preferences.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// HistoryReader is implemented by caches that keep past values of a key.
type HistoryReader interface {
	History(ctx context.Context, key string, limit int) ([]Entry, error)
}
