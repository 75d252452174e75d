// This file implements the Search Ranker. Full-text matching decides which
// rows are candidates; a substring tier on the literal query decides their
// order. A candidate that matched only through tokenization keeps tier 0.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

// Relevance tiers for SearchRecipes.
const (
	RecipeTierTitle       = 4
	RecipeTierKeyword     = 3
	RecipeTierDescription = 2
	RecipeTierContent     = 1
)

// Relevance tiers for SearchSnippets.
const (
	SnippetTierDescription       = 5
	SnippetTierCode              = 4
	SnippetTierRecipeTitle       = 3
	SnippetTierRecipeKeyword     = 2
	SnippetTierRecipeDescription = 1
)

// searchRecipesSQL takes ?1 = MATCH expression, ?2 = literal query.
var searchRecipesSQL = fmt.Sprintf(`
WITH candidates AS (
    SELECT rowid AS recipe_id FROM recipes_fts WHERE recipes_fts MATCH ?1
    UNION
    SELECT k.recipe_id FROM recipe_keywords k
    WHERE k.id IN (SELECT rowid FROM recipe_keywords_fts WHERE recipe_keywords_fts MATCH ?1)
)
SELECT r.id, r.title, COALESCE(r.description, ''), r.created_at,
    COALESCE(GROUP_CONCAT(DISTINCT k.keyword), '') AS keywords,
    MAX(CASE
        WHEN instr(lower(r.title), lower(?2)) > 0 THEN %d
        WHEN instr(lower(k.keyword), lower(?2)) > 0 THEN %d
        WHEN instr(lower(r.description), lower(?2)) > 0 THEN %d
        WHEN instr(lower(r.content), lower(?2)) > 0 THEN %d
        ELSE 0
    END) AS relevance
FROM recipes r
JOIN candidates c ON c.recipe_id = r.id
LEFT JOIN recipe_keywords k ON k.recipe_id = r.id
GROUP BY r.id
ORDER BY relevance DESC, r.created_at DESC, r.id DESC`,
	RecipeTierTitle, RecipeTierKeyword, RecipeTierDescription, RecipeTierContent)

// searchSnippetsSQL takes ?1 = MATCH expression, ?2 = literal query.
var searchSnippetsSQL = fmt.Sprintf(`
WITH candidates AS (
    SELECT rowid AS snippet_id FROM recipe_snippets_fts WHERE recipe_snippets_fts MATCH ?1
    UNION
    SELECT s.id FROM recipe_snippets s
    WHERE s.recipe_id IN (SELECT rowid FROM recipes_fts WHERE recipes_fts MATCH ?1)
    UNION
    SELECT s.id FROM recipe_snippets s
    JOIN recipe_keywords k ON k.recipe_id = s.recipe_id
    WHERE k.id IN (SELECT rowid FROM recipe_keywords_fts WHERE recipe_keywords_fts MATCH ?1)
)
SELECT s.id, s.recipe_id, s.ref, s.snippet, COALESCE(s.language, ''), COALESCE(s.description, ''), s.created_at,
    r.title,
    COALESCE(GROUP_CONCAT(DISTINCT k.keyword), '') AS recipe_keywords,
    MAX(CASE
        WHEN instr(lower(s.description), lower(?2)) > 0 THEN %d
        WHEN instr(lower(s.snippet), lower(?2)) > 0 THEN %d
        WHEN instr(lower(r.title), lower(?2)) > 0 THEN %d
        WHEN instr(lower(k.keyword), lower(?2)) > 0 THEN %d
        WHEN instr(lower(r.description), lower(?2)) > 0 THEN %d
        ELSE 0
    END) AS relevance
FROM recipe_snippets s
JOIN candidates c ON c.snippet_id = s.id
JOIN recipes r ON r.id = s.recipe_id
LEFT JOIN recipe_keywords k ON k.recipe_id = s.recipe_id
GROUP BY s.id
ORDER BY relevance DESC, s.created_at DESC, s.id DESC`,
	SnippetTierDescription, SnippetTierCode, SnippetTierRecipeTitle, SnippetTierRecipeKeyword, SnippetTierRecipeDescription)

// SearchRecipes returns recipes matching query, ordered by relevance tier,
// then newest first. A query without searchable terms returns no results.
func (b *Backend) SearchRecipes(ctx context.Context, query string) ([]types.RecipeHit, error) {
	hits := []types.RecipeHit{}
	expr, ok := toMatchExpr(query)
	if !ok {
		return hits, nil
	}
	literal := strings.TrimSpace(query)

	err := b.read(ctx, "search recipes", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, searchRecipesSQL, expr, literal)
		if err != nil {
			return fmt.Errorf("searching recipes: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var h types.RecipeHit
			var createdAt, keywords string
			if err := rows.Scan(&h.ID, &h.Title, &h.Description, &createdAt, &keywords, &h.Relevance); err != nil {
				return fmt.Errorf("scanning recipe hit: %w", err)
			}
			if h.CreatedAt, err = parseTime(createdAt); err != nil {
				return err
			}
			h.Keywords = types.SplitKeywords(keywords)
			hits = append(hits, h)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	b.log.Debug("recipes searched", "query", query, "match", expr, "hits", len(hits))
	return hits, nil
}

// SearchSnippets returns snippets whose own text, parent recipe or parent
// keywords match query, each with its recipe title and keywords.
func (b *Backend) SearchSnippets(ctx context.Context, query string) ([]types.SnippetHit, error) {
	hits := []types.SnippetHit{}
	expr, ok := toMatchExpr(query)
	if !ok {
		return hits, nil
	}
	literal := strings.TrimSpace(query)

	err := b.read(ctx, "search snippets", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, searchSnippetsSQL, expr, literal)
		if err != nil {
			return fmt.Errorf("searching snippets: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var h types.SnippetHit
			var createdAt, keywords string
			if err := rows.Scan(&h.ID, &h.RecipeID, &h.Ref, &h.Snippet.Snippet, &h.Language, &h.Description,
				&createdAt, &h.RecipeTitle, &keywords, &h.Relevance); err != nil {
				return fmt.Errorf("scanning snippet hit: %w", err)
			}
			if h.CreatedAt, err = parseTime(createdAt); err != nil {
				return err
			}
			h.RecipeKeywords = types.SplitKeywords(keywords)
			hits = append(hits, h)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	b.log.Debug("snippets searched", "query", query, "match", expr, "hits", len(hits))
	return hits, nil
}
