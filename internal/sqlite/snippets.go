// This file implements the snippet operations of the Record Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

const snippetViewColumns = `s.id, s.recipe_id, s.ref, s.snippet, COALESCE(s.language, ''), COALESCE(s.description, ''), s.created_at, r.title`

// AddSnippet attaches a snippet to an existing recipe. The ref is checked
// before the insert so a duplicate is reported as ErrConflict naming it.
func (b *Backend) AddSnippet(ctx context.Context, recipeID int64, s types.NewSnippet) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := b.write(ctx, "add snippet", func(tx *sql.Tx) error {
		ok, err := recipeExists(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: recipe %d", types.ErrNotFound, recipeID)
		}
		id, err = insertSnippet(ctx, tx, recipeID, s, b.timestamp())
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.Debug("snippet added", "recipe_id", recipeID, "snippet_id", id, "ref", s.Ref)
	return id, nil
}

// insertSnippet writes one snippet and its shadow entry. It fails with
// ErrConflict if the recipe already has the ref.
func insertSnippet(ctx context.Context, tx *sql.Tx, recipeID int64, s types.NewSnippet, createdAt string) (int64, error) {
	var existing int64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM recipe_snippets WHERE recipe_id = ? AND ref = ?", recipeID, s.Ref,
	).Scan(&existing)
	switch {
	case err == nil:
		return 0, fmt.Errorf("%w: snippet with ref %q already exists for recipe %d", types.ErrConflict, s.Ref, recipeID)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("checking snippet ref: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO recipe_snippets (recipe_id, ref, snippet, language, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		recipeID, s.Ref, s.Snippet, s.Language, s.Description, createdAt)
	if err != nil {
		return 0, fmt.Errorf("inserting snippet %q: %w", s.Ref, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading snippet id: %w", err)
	}
	if err := snippetsIndex.add(ctx, tx, id, s.Ref, s.Snippet, s.Language, s.Description); err != nil {
		return 0, err
	}
	return id, nil
}

// GetSnippetByID returns the snippet with its recipe title.
func (b *Backend) GetSnippetByID(ctx context.Context, id int64) (*types.SnippetView, error) {
	var v *types.SnippetView
	err := b.read(ctx, "get snippet", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			"SELECT "+snippetViewColumns+" FROM recipe_snippets s JOIN recipes r ON r.id = s.recipe_id WHERE s.id = ?", id)
		var err error
		v, err = scanSnippetView(row)
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("%w: snippet %d", types.ErrNotFound, id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetSnippetByRef returns the snippet addressed by (recipeID, ref).
func (b *Backend) GetSnippetByRef(ctx context.Context, recipeID int64, ref string) (*types.SnippetView, error) {
	var v *types.SnippetView
	err := b.read(ctx, "get snippet by ref", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			"SELECT "+snippetViewColumns+" FROM recipe_snippets s JOIN recipes r ON r.id = s.recipe_id WHERE s.recipe_id = ? AND s.ref = ?",
			recipeID, ref)
		var err error
		v, err = scanSnippetView(row)
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("%w: snippet %q in recipe %d", types.ErrNotFound, ref, recipeID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListSnippetsForRecipe returns the snippets of a recipe in creation order.
// A recipe without snippets, or an unknown recipe, yields an empty list.
func (b *Backend) ListSnippetsForRecipe(ctx context.Context, recipeID int64) ([]types.SnippetView, error) {
	views := []types.SnippetView{}
	err := b.read(ctx, "list snippets", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT "+snippetViewColumns+` FROM recipe_snippets s JOIN recipes r ON r.id = s.recipe_id
			 WHERE s.recipe_id = ? ORDER BY s.created_at, s.id`, recipeID)
		if err != nil {
			return fmt.Errorf("listing snippets: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			v, err := scanSnippetView(rows)
			if err != nil {
				return err
			}
			views = append(views, *v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// loadSnippets returns the bare snippets of a recipe in creation order.
func loadSnippets(ctx context.Context, tx *sql.Tx, recipeID int64) ([]types.Snippet, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, recipe_id, ref, snippet, COALESCE(language, ''), COALESCE(description, ''), created_at
		 FROM recipe_snippets WHERE recipe_id = ? ORDER BY created_at, id`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("loading snippets: %w", err)
	}
	defer rows.Close()

	snippets := []types.Snippet{}
	for rows.Next() {
		var s types.Snippet
		var createdAt string
		if err := rows.Scan(&s.ID, &s.RecipeID, &s.Ref, &s.Snippet, &s.Language, &s.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning snippet: %w", err)
		}
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		snippets = append(snippets, s)
	}
	return snippets, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippetView(row scanner) (*types.SnippetView, error) {
	var v types.SnippetView
	var createdAt string
	err := row.Scan(&v.ID, &v.RecipeID, &v.Ref, &v.Snippet.Snippet, &v.Language, &v.Description, &createdAt, &v.RecipeTitle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning snippet: %w", err)
	}
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &v, nil
}
