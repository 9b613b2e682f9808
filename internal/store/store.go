// ABOUTME: Store interface for the widget's durable key/value scope
// ABOUTME: Defines the backend-neutral contract plus the Open factory used by the widget

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("not found")

// ErrUnknownDriver is returned by Open for a driver name it does not recognise
var ErrUnknownDriver = errors.New("unknown storage driver")

// Driver names accepted by Open.
const (
	DriverSQLite  = "sqlite"  // modernc.org/sqlite, pure Go
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3, requires cgo
	DriverFile    = "file"    // single JSON document on disk
	DriverMemory  = "memory"  // process lifetime only
)

// Store is a durable key/value scope. Values are opaque bytes.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set creates or overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the store.
	Close() error
}

// Open creates a Store for the named driver rooted at path.
// The memory driver ignores path.
func Open(driver, path string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch driver {
	case "", DriverSQLite:
		return NewSQLiteStoreWithDriver(DriverSQLite, path, logger)
	case DriverSQLite3:
		return NewSQLiteStoreWithDriver(DriverSQLite3, path, logger)
	case DriverFile:
		return NewFileStore(path, logger), nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
