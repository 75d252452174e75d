package sqlite

import (
	"context"
	"fmt"
	"os"
)

// seedLocked imports the seed file into an empty store. A store that
// already holds recipes is left alone, so seeding runs at most once per
// database. The caller holds the write lock.
func (b *Backend) seedLocked(ctx context.Context, path string) error {
	var count int
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipes").Scan(&count); err != nil {
		return classify("seed", fmt.Errorf("counting recipes: %w", err))
	}
	if count > 0 {
		b.log.Debug("seed skipped, store not empty", "recipes", count)
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if isMissingFile(err) {
			b.log.Warn("seed file not found", "path", path)
			return nil
		}
		return classify("seed", err)
	}

	res, err := b.importLocked(ctx, path)
	if err != nil {
		return err
	}
	for _, s := range res.Skipped {
		b.log.Warn("seed line skipped", "line", s.Line, "title", s.Title, "reason", s.Reason)
	}
	return nil
}
