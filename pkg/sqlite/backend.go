// Package sqlite provides the public API for the SQLite recipe store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/recipes/internal/sqlite"
	"github.com/mesh-intelligence/recipes/pkg/types"
)

// Backend is the SQLite store. Beyond types.Store it offers JSONL export
// and import, index checks and rebuilds, and Reset.
type Backend = sqlite.Backend

// ImportResult reports the outcome of Backend.Import.
type ImportResult = sqlite.ImportResult

// NewBackend creates a new SQLite backend instance that logs to log, or
// nowhere when log is nil. The backend is not attached; call Attach with a
// Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".",
//	})
//	defer store.Detach()
func NewBackend(log *slog.Logger) *Backend {
	return sqlite.NewBackend(sqlite.WithLogger(log))
}

var _ types.Store = (*Backend)(nil)
