// This file implements the recipe, keyword and addendum operations of the
// Record Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

// CreateRecipe inserts the recipe, its keywords and its snippets in one
// transaction. A failing snippet rolls back the whole recipe.
func (b *Backend) CreateRecipe(ctx context.Context, r types.NewRecipe) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := b.write(ctx, "create recipe", func(tx *sql.Tx) error {
		var err error
		id, err = b.insertRecipe(ctx, tx, r, b.timestamp())
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.Debug("recipe created", "recipe_id", id, "title", r.Title, "snippets", len(r.Snippets))
	return id, nil
}

// insertRecipe writes a validated recipe and its children, stamping them
// with createdAt.
func (b *Backend) insertRecipe(ctx context.Context, tx *sql.Tx, r types.NewRecipe, createdAt string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO recipes (title, description, content, created_at) VALUES (?, ?, ?, ?)",
		r.Title, r.Description, r.Content, createdAt)
	if err != nil {
		return 0, fmt.Errorf("inserting recipe: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading recipe id: %w", err)
	}
	if err := recipesIndex.add(ctx, tx, id, r.Title, r.Description, r.Content); err != nil {
		return 0, err
	}

	for _, kw := range types.ParseKeywords(r.Keywords) {
		if err := insertKeyword(ctx, tx, id, kw); err != nil {
			return 0, err
		}
	}
	for _, s := range r.Snippets {
		if _, err := insertSnippet(ctx, tx, id, s, createdAt); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func insertKeyword(ctx context.Context, tx *sql.Tx, recipeID int64, keyword string) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO recipe_keywords (recipe_id, keyword) VALUES (?, ?)", recipeID, keyword)
	if err != nil {
		return fmt.Errorf("inserting keyword %q: %w", keyword, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading keyword id: %w", err)
	}
	return keywordsIndex.add(ctx, tx, id, keyword)
}

// GetRecipe returns the recipe with keywords, snippets and addendums.
func (b *Backend) GetRecipe(ctx context.Context, id int64) (*types.RecipeDetail, error) {
	var d *types.RecipeDetail
	err := b.read(ctx, "get recipe", func(tx *sql.Tx) error {
		var err error
		d, err = loadRecipeDetail(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func loadRecipeDetail(ctx context.Context, tx *sql.Tx, id int64) (*types.RecipeDetail, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT id, title, COALESCE(description, ''), COALESCE(content, ''), created_at FROM recipes WHERE id = ?", id)
	r, err := scanRecipe(row)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("%w: recipe %d", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	d := &types.RecipeDetail{Recipe: *r}
	if d.Keywords, err = loadKeywords(ctx, tx, id); err != nil {
		return nil, err
	}
	if d.Snippets, err = loadSnippets(ctx, tx, id); err != nil {
		return nil, err
	}
	if d.Addendums, err = loadAddendums(ctx, tx, id); err != nil {
		return nil, err
	}
	return d, nil
}

func scanRecipe(row *sql.Row) (*types.Recipe, error) {
	var r types.Recipe
	var createdAt string
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recipe: %w", err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func loadKeywords(ctx context.Context, tx *sql.Tx, recipeID int64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT keyword FROM recipe_keywords WHERE recipe_id = ? ORDER BY id", recipeID)
	if err != nil {
		return nil, fmt.Errorf("loading keywords: %w", err)
	}
	defer rows.Close()

	keywords := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

func loadAddendums(ctx context.Context, tx *sql.Tx, recipeID int64) ([]types.Addendum, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, recipe_id, content, created_at FROM recipe_addendums WHERE recipe_id = ? ORDER BY created_at, id",
		recipeID)
	if err != nil {
		return nil, fmt.Errorf("loading addendums: %w", err)
	}
	defer rows.Close()

	addendums := []types.Addendum{}
	for rows.Next() {
		var a types.Addendum
		var createdAt string
		if err := rows.Scan(&a.ID, &a.RecipeID, &a.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning addendum: %w", err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		addendums = append(addendums, a)
	}
	return addendums, rows.Err()
}

// ListRecipes returns every recipe, newest first.
func (b *Backend) ListRecipes(ctx context.Context) ([]types.RecipeSummary, error) {
	recipes := []types.RecipeSummary{}
	err := b.read(ctx, "list recipes", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT id, title, COALESCE(description, '') FROM recipes ORDER BY created_at DESC, id DESC")
		if err != nil {
			return fmt.Errorf("listing recipes: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r types.RecipeSummary
			if err := rows.Scan(&r.ID, &r.Title, &r.Description); err != nil {
				return fmt.Errorf("scanning recipe: %w", err)
			}
			recipes = append(recipes, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// DeleteRecipe removes snippets, addendums, keywords and then the recipe,
// with their shadow entries, in one transaction.
func (b *Backend) DeleteRecipe(ctx context.Context, id int64) (*types.RecipeSummary, error) {
	var deleted types.RecipeSummary
	err := b.write(ctx, "delete recipe", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"SELECT id, title, COALESCE(description, '') FROM recipes WHERE id = ?", id,
		).Scan(&deleted.ID, &deleted.Title, &deleted.Description)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: recipe %d", types.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("loading recipe: %w", err)
		}

		for _, idx := range []shadowIndex{snippetsIndex, addendumsIndex, keywordsIndex} {
			if err := idx.removeForRecipe(ctx, tx, id); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+idx.source+" WHERE recipe_id = ?", id); err != nil {
				return fmt.Errorf("deleting %s: %w", idx.source, err)
			}
		}
		if err := recipesIndex.remove(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.log.Debug("recipe deleted", "recipe_id", id, "title", deleted.Title)
	return &deleted, nil
}

// AddAddendum appends a note to an existing recipe.
func (b *Backend) AddAddendum(ctx context.Context, recipeID int64, content string) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("%w: addendum content is required", types.ErrValidation)
	}
	var id int64
	err := b.write(ctx, "add addendum", func(tx *sql.Tx) error {
		ok, err := recipeExists(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: recipe %d", types.ErrNotFound, recipeID)
		}
		id, err = insertAddendum(ctx, tx, recipeID, content, b.timestamp())
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.Debug("addendum added", "recipe_id", recipeID, "addendum_id", id)
	return id, nil
}

func insertAddendum(ctx context.Context, tx *sql.Tx, recipeID int64, content, createdAt string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO recipe_addendums (recipe_id, content, created_at) VALUES (?, ?, ?)",
		recipeID, content, createdAt)
	if err != nil {
		return 0, fmt.Errorf("inserting addendum: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading addendum id: %w", err)
	}
	if err := addendumsIndex.add(ctx, tx, id, content); err != nil {
		return 0, err
	}
	return id, nil
}
