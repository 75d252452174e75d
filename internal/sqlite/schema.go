// Package sqlite implements the SQLite backend for the recipes store.
// This file defines the schema and the Schema Manager: idempotent
// provisioning and the explicit, destructive reset.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Table DDL. Child tables reference recipes without ON DELETE CASCADE:
// deletion is done by the store so that shadow index entries are removed
// in the same transaction.
const (
	createRecipes = `CREATE TABLE IF NOT EXISTS recipes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createKeywords = `CREATE TABLE IF NOT EXISTS recipe_keywords (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recipe_id INTEGER NOT NULL,
    keyword TEXT NOT NULL,
    FOREIGN KEY (recipe_id) REFERENCES recipes(id)
);`

	createAddendums = `CREATE TABLE IF NOT EXISTS recipe_addendums (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recipe_id INTEGER NOT NULL,
    content TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (recipe_id) REFERENCES recipes(id)
);`

	createSnippets = `CREATE TABLE IF NOT EXISTS recipe_snippets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recipe_id INTEGER NOT NULL,
    ref TEXT NOT NULL,
    snippet TEXT NOT NULL,
    language TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    FOREIGN KEY (recipe_id) REFERENCES recipes(id),
    UNIQUE (recipe_id, ref)
);`
)

// Index DDL for child lookups by recipe.
const (
	idxKeywordsRecipe  = `CREATE INDEX IF NOT EXISTS idx_recipe_keywords_recipe ON recipe_keywords(recipe_id);`
	idxAddendumsRecipe = `CREATE INDEX IF NOT EXISTS idx_recipe_addendums_recipe ON recipe_addendums(recipe_id);`
	idxRecipesCreated  = `CREATE INDEX IF NOT EXISTS idx_recipes_created ON recipes(created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createRecipes,
	createKeywords,
	createAddendums,
	createSnippets,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxKeywordsRecipe,
	idxAddendumsRecipe,
	idxRecipesCreated,
}

// legacyTriggers are the trigger names older stores used to keep the
// full-text tables in sync. Provision drops them, leaving the shadow index
// hooks in index.go as the only writers of *_fts tables.
var legacyTriggers = []string{
	"recipes_ai", "recipes_ad", "recipes_au",
	"recipe_keywords_ai", "recipe_keywords_ad", "recipe_keywords_au",
	"recipe_addendums_ai", "recipe_addendums_ad", "recipe_addendums_au",
	"recipe_snippets_ai", "recipe_snippets_ad", "recipe_snippets_au",
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// schemaConn is what provisioning needs: statements plus single-row
// lookups in sqlite_master.
type schemaConn interface {
	execer
	queryer
}

// provisionDB provisions the schema in one transaction, so a store
// upgraded from the older layout is either fully migrated or untouched.
func provisionDB(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := provision(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// provision brings the database to the current schema. It only creates
// what is missing, so it runs on every attach and never loses data.
func provision(ctx context.Context, db schemaConn) error {
	for _, name := range legacyTriggers {
		if _, err := db.ExecContext(ctx, "DROP TRIGGER IF EXISTS "+name); err != nil {
			return fmt.Errorf("dropping trigger %s: %w", name, err)
		}
	}
	stale, err := migrateLegacy(ctx, db)
	if err != nil {
		return err
	}
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	for _, idx := range shadowIndexes {
		if _, err := db.ExecContext(ctx, idx.createDDL()); err != nil {
			return fmt.Errorf("creating %s: %w", idx.fts, err)
		}
	}
	for _, idx := range stale {
		if err := idx.rebuild(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

// migrateLegacy upgrades the older store layout in place and returns the
// shadow indexes that must be rebuilt once they exist again. The older
// layout had external-content full-text tables and a recipe_keywords table
// without an id column. Nullable text columns are kept; reads coalesce them.
func migrateLegacy(ctx context.Context, db schemaConn) ([]shadowIndex, error) {
	var stale []shadowIndex
	for _, idx := range shadowIndexes {
		ddl, err := tableSQL(ctx, db, idx.fts)
		if err != nil {
			return nil, err
		}
		if !isExternalContent(ddl) {
			continue
		}
		if _, err := db.ExecContext(ctx, "DROP TABLE "+idx.fts); err != nil {
			return nil, fmt.Errorf("dropping external-content %s: %w", idx.fts, err)
		}
		stale = append(stale, idx)
	}

	ddl, err := tableSQL(ctx, db, tableKeywords)
	if err != nil {
		return nil, err
	}
	if ddl == "" {
		return stale, nil
	}
	var hasID int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info('"+tableKeywords+"') WHERE name = 'id'").Scan(&hasID)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", tableKeywords, err)
	}
	if hasID > 0 {
		return stale, nil
	}

	// Keyword rowids change, so their shadow entries are rebuilt too.
	steps := []string{
		"DROP TABLE IF EXISTS " + keywordsIndex.fts,
		"ALTER TABLE " + tableKeywords + " RENAME TO " + tableKeywords + "_legacy",
		createKeywords,
		"INSERT INTO " + tableKeywords + " (recipe_id, keyword) SELECT recipe_id, keyword FROM " + tableKeywords + "_legacy ORDER BY rowid",
		"DROP TABLE " + tableKeywords + "_legacy",
	}
	for _, q := range steps {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return nil, fmt.Errorf("migrating %s: %w", tableKeywords, err)
		}
	}
	if !slices.ContainsFunc(stale, func(s shadowIndex) bool { return s.fts == keywordsIndex.fts }) {
		stale = append(stale, keywordsIndex)
	}
	return stale, nil
}

// tableSQL returns the CREATE statement of a table, or "" if it does not
// exist.
func tableSQL(ctx context.Context, db queryer, name string) (string, error) {
	var ddl string
	err := db.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("inspecting %s: %w", name, err)
	}
	return ddl, nil
}

func isExternalContent(ddl string) bool {
	compact := strings.ToLower(strings.Join(strings.Fields(ddl), ""))
	return strings.Contains(compact, "content=")
}

// reset drops sync triggers, then shadow indexes, then tables, and
// provisions again. All data is lost.
func reset(ctx context.Context, db schemaConn) error {
	for _, name := range legacyTriggers {
		if _, err := db.ExecContext(ctx, "DROP TRIGGER IF EXISTS "+name); err != nil {
			return fmt.Errorf("dropping trigger %s: %w", name, err)
		}
	}
	for _, idx := range shadowIndexes {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+idx.fts); err != nil {
			return fmt.Errorf("dropping %s: %w", idx.fts, err)
		}
	}
	// Children first so foreign keys never dangle.
	for i := len(sourceTables) - 1; i >= 0; i-- {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+sourceTables[i]); err != nil {
			return fmt.Errorf("dropping %s: %w", sourceTables[i], err)
		}
	}
	return provision(ctx, db)
}

// Source table names in dependency order.
const (
	tableRecipes   = "recipes"
	tableKeywords  = "recipe_keywords"
	tableAddendums = "recipe_addendums"
	tableSnippets  = "recipe_snippets"
)

var sourceTables = []string{tableRecipes, tableKeywords, tableAddendums, tableSnippets}
