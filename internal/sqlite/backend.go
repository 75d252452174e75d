// Package sqlite implements the SQLite storage backend for recipes.
//
// The backend keeps four source tables (recipes, recipe_keywords,
// recipe_addendums, recipe_snippets) and one FTS5 shadow index per table.
// Shadow indexes are written only by the hooks in index.go, inside the same
// transaction as the source change they mirror.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a single SQLite database file.
// Mutations hold the write lock for their whole transaction, so at most one
// multi-step mutation runs at a time; queries share the read lock.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	path     string
	db       *sql.DB

	log *slog.Logger
	now func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.log = l
		}
	}
}

// WithClock replaces time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens the database file named by config, creating its directory
// if needed, and provisions the schema. Existing data is kept. When the
// store is empty and config.SeedFile is set, the seed file is imported.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	path := config.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dataSourceName(path, config.BusyTimeout()))
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", types.ErrStorage, path, err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: opening %s: %w", types.ErrStorage, path, err)
	}
	if err := provisionDB(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("%w: provisioning schema: %w", types.ErrStorage, err)
	}

	b.db = db
	b.path = path
	b.config = config
	b.attached = true
	b.log.Info("store attached", "path", path)

	if config.SeedFile != "" {
		if err := b.seedLocked(ctx, config.SeedFile); err != nil {
			b.detachLocked()
			return fmt.Errorf("seeding from %s: %w", config.SeedFile, err)
		}
	}
	return nil
}

// uriPathEscaper escapes the characters that would end the path part of
// an SQLite URI filename early.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// dataSourceName returns the SQLite URI for path with the connection
// pragmas every store runs with.
func dataSourceName(path string, busyTimeout int) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout))
	q.Add("_pragma", "journal_mode(WAL)")
	u := url.URL{Scheme: "file", Opaque: uriPathEscaper.Replace(path), RawQuery: q.Encode()}
	return u.String()
}

// Detach closes the database. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detachLocked()
}

func (b *Backend) detachLocked() error {
	if !b.attached {
		return nil
	}
	b.attached = false
	db := b.db
	b.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("%w: closing database: %w", types.ErrStorage, err)
	}
	b.log.Info("store detached", "path", b.path)
	return nil
}

// Path returns the database file of the attached store.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Reset drops every table, shadow index and legacy sync trigger and
// provisions an empty schema. It destroys all data and is only run on
// explicit request.
func (b *Backend) Reset(ctx context.Context) error {
	err := b.write(ctx, "reset", func(tx *sql.Tx) error {
		return reset(ctx, tx)
	})
	if err != nil {
		return err
	}
	b.log.Warn("store reset", "path", b.Path())
	return nil
}

// timestamp returns the current time in the stored created_at form.
func (b *Backend) timestamp() string {
	return formatTime(b.now())
}
