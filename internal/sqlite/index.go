// This file implements the Index Synchronizer. Each source table has an
// FTS5 shadow index keyed by the source row id. The hooks below take a
// *sql.Tx, so a shadow change can only happen inside the transaction of
// the source change it mirrors.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

// shadowIndex mirrors the text columns of one source table.
type shadowIndex struct {
	source  string
	fts     string
	columns []string
}

var (
	recipesIndex   = shadowIndex{source: tableRecipes, fts: "recipes_fts", columns: []string{"title", "description", "content"}}
	keywordsIndex  = shadowIndex{source: tableKeywords, fts: "recipe_keywords_fts", columns: []string{"keyword"}}
	addendumsIndex = shadowIndex{source: tableAddendums, fts: "recipe_addendums_fts", columns: []string{"content"}}
	snippetsIndex  = shadowIndex{source: tableSnippets, fts: "recipe_snippets_fts", columns: []string{"ref", "snippet", "language", "description"}}
)

// shadowIndexes lists every shadow index, parent table first.
var shadowIndexes = []shadowIndex{recipesIndex, keywordsIndex, addendumsIndex, snippetsIndex}

// sourceExprs returns the source column expressions with NULL read as
// empty text, qualified by prefix.
func (s shadowIndex) sourceExprs(prefix string) []string {
	exprs := make([]string, len(s.columns))
	for i, c := range s.columns {
		exprs[i] = fmt.Sprintf("COALESCE(%s%s, '')", prefix, c)
	}
	return exprs
}

func (s shadowIndex) createDDL() string {
	return fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts5(%s)", s.fts, strings.Join(s.columns, ", "))
}

// add indexes a newly inserted source row. values follow s.columns.
func (s shadowIndex) add(ctx context.Context, tx *sql.Tx, rowid int64, values ...string) error {
	if len(values) != len(s.columns) {
		return fmt.Errorf("%s: got %d values for %d columns", s.fts, len(values), len(s.columns))
	}
	args := make([]any, 0, len(values)+1)
	args = append(args, rowid)
	for _, v := range values {
		args = append(args, v)
	}
	query := fmt.Sprintf("INSERT INTO %s (rowid, %s) VALUES (?%s)",
		s.fts, strings.Join(s.columns, ", "), strings.Repeat(", ?", len(values)))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("indexing %s row %d: %w", s.source, rowid, err)
	}
	return nil
}

// remove drops the entry of a deleted source row.
func (s shadowIndex) remove(ctx context.Context, tx *sql.Tx, rowid int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.fts+" WHERE rowid = ?", rowid); err != nil {
		return fmt.Errorf("unindexing %s row %d: %w", s.source, rowid, err)
	}
	return nil
}

// replace re-indexes an updated source row as delete then insert. It is the
// update hook for in-place edits; records are append-only today.
func (s shadowIndex) replace(ctx context.Context, tx *sql.Tx, rowid int64, values ...string) error {
	if err := s.remove(ctx, tx, rowid); err != nil {
		return err
	}
	return s.add(ctx, tx, rowid, values...)
}

// removeForRecipe drops the entries of every child row of a recipe. It must
// run before the child rows themselves are deleted.
func (s shadowIndex) removeForRecipe(ctx context.Context, tx *sql.Tx, recipeID int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE rowid IN (SELECT id FROM %s WHERE recipe_id = ?)", s.fts, s.source)
	if _, err := tx.ExecContext(ctx, query, recipeID); err != nil {
		return fmt.Errorf("unindexing %s of recipe %d: %w", s.source, recipeID, err)
	}
	return nil
}

// rebuild replaces the whole index with the current source rows.
func (s shadowIndex) rebuild(ctx context.Context, tx execer) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.fts); err != nil {
		return fmt.Errorf("clearing %s: %w", s.fts, err)
	}
	query := fmt.Sprintf("INSERT INTO %s (rowid, %s) SELECT id, %s FROM %s",
		s.fts, strings.Join(s.columns, ", "), strings.Join(s.sourceExprs(""), ", "), s.source)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("rebuilding %s: %w", s.fts, err)
	}
	return nil
}

// check compares the index with its source table.
func (s shadowIndex) check(ctx context.Context, tx *sql.Tx) (types.IndexReport, error) {
	r := types.IndexReport{Table: s.source, Index: s.fts}

	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.source).Scan(&r.Rows); err != nil {
		return r, fmt.Errorf("counting %s: %w", s.source, err)
	}
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.fts).Scan(&r.Entries); err != nil {
		return r, fmt.Errorf("counting %s: %w", s.fts, err)
	}

	missing := fmt.Sprintf("SELECT COUNT(*) FROM %s t WHERE NOT EXISTS (SELECT 1 FROM %s f WHERE f.rowid = t.id)", s.source, s.fts)
	if err := tx.QueryRowContext(ctx, missing).Scan(&r.Missing); err != nil {
		return r, fmt.Errorf("checking %s for missing rows: %w", s.fts, err)
	}

	exprs := s.sourceExprs("t.")
	diffs := make([]string, len(s.columns))
	for i, c := range s.columns {
		diffs[i] = fmt.Sprintf("f.%s IS NOT %s", c, exprs[i])
	}
	stale := fmt.Sprintf("SELECT COUNT(*) FROM %s f LEFT JOIN %s t ON t.id = f.rowid WHERE t.id IS NULL OR %s",
		s.fts, s.source, strings.Join(diffs, " OR "))
	if err := tx.QueryRowContext(ctx, stale).Scan(&r.Stale); err != nil {
		return r, fmt.Errorf("checking %s for stale entries: %w", s.fts, err)
	}
	return r, nil
}

// CheckIndexes reports, for each shadow index, how it differs from its
// source table.
func (b *Backend) CheckIndexes(ctx context.Context) ([]types.IndexReport, error) {
	var reports []types.IndexReport
	err := b.read(ctx, "check indexes", func(tx *sql.Tx) error {
		for _, idx := range shadowIndexes {
			r, err := idx.check(ctx, tx)
			if err != nil {
				return err
			}
			reports = append(reports, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Reindex rebuilds every shadow index from its source table in one
// transaction.
func (b *Backend) Reindex(ctx context.Context) error {
	err := b.write(ctx, "reindex", func(tx *sql.Tx) error {
		for _, idx := range shadowIndexes {
			if err := idx.rebuild(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.log.Info("shadow indexes rebuilt", "indexes", len(shadowIndexes))
	return nil
}
