package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

// write runs fn in a transaction under the backend write lock. Any error
// from fn, or a failed commit, rolls back every statement fn issued.
func (b *Backend) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}
	return b.inTx(ctx, op, fn)
}

// read runs fn in a transaction under the backend read lock so multi-query
// reads see one consistent snapshot.
func (b *Backend) read(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}
	return b.inTx(ctx, op, fn)
}

func (b *Backend) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	start := time.Now()
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		err = classify(op, err)
		b.log.Debug("transaction rolled back", "op", op, "kind", types.ErrorKind(err), "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	b.log.Debug("transaction committed", "op", op, "duration", time.Since(start))
	return nil
}

// classify leaves taxonomy errors untouched, turns unique constraint
// violations into ErrConflict and FTS5 query syntax errors into
// ErrValidation, and wraps everything else as ErrStorage.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if types.IsUserError(err) || errors.Is(err, types.ErrStorage) || errors.Is(err, types.ErrDetached) {
		return err
	}
	var se *sqlitedrv.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %s: %w", types.ErrConflict, op, err)
	}
	if strings.Contains(err.Error(), "fts5: syntax error") {
		return fmt.Errorf("%w: invalid search query: %w", types.ErrValidation, err)
	}
	return fmt.Errorf("%w: %s: %w", types.ErrStorage, op, err)
}

// timeLayout is fixed width so that text order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the stored layout plus the forms written by older
// stores (RFC 3339 and SQLite CURRENT_TIMESTAMP).
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", types.ErrStorage, s)
}

// queryer is satisfied by *sql.Tx and *sql.DB.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// recipeExists reports whether a recipe row with id exists.
func recipeExists(ctx context.Context, q queryer, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM recipes WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking recipe existence: %w", err)
	}
	return true, nil
}
