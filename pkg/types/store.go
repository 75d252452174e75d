package types

import "context"

// RecipeStore is the operation surface consumed by the tool server and the
// CLI. Every method may block on storage I/O. Mutations are atomic: either
// all of their effects become visible together or none do.
type RecipeStore interface {
	// ListRecipes returns every recipe, newest first. An empty store yields
	// an empty list.
	ListRecipes(ctx context.Context) ([]RecipeSummary, error)

	// GetRecipe returns the recipe with its keywords, snippets and addendums.
	// Returns ErrNotFound if no recipe has that id.
	GetRecipe(ctx context.Context, id int64) (*RecipeDetail, error)

	// CreateRecipe inserts the recipe, its keywords and its snippets as one
	// unit and returns the new recipe id.
	CreateRecipe(ctx context.Context, r NewRecipe) (int64, error)

	// DeleteRecipe removes the recipe and all of its children and returns
	// the summary of what was removed. Returns ErrNotFound if absent.
	DeleteRecipe(ctx context.Context, id int64) (*RecipeSummary, error)

	// AddAddendum appends a note to a recipe and returns its id.
	AddAddendum(ctx context.Context, recipeID int64, content string) (int64, error)

	// AddSnippet attaches a snippet to a recipe and returns its id. Returns
	// ErrConflict if the recipe already has a snippet with that ref.
	AddSnippet(ctx context.Context, recipeID int64, s NewSnippet) (int64, error)

	GetSnippetByID(ctx context.Context, id int64) (*SnippetView, error)
	GetSnippetByRef(ctx context.Context, recipeID int64, ref string) (*SnippetView, error)
	ListSnippetsForRecipe(ctx context.Context, recipeID int64) ([]SnippetView, error)

	// SearchRecipes and SearchSnippets rank full-text matches by field
	// relevance, highest first, newest first on ties.
	SearchRecipes(ctx context.Context, query string) ([]RecipeHit, error)
	SearchSnippets(ctx context.Context, query string) ([]SnippetHit, error)
}

// Store is a RecipeStore with a lifecycle. Callers attach to a backend,
// run operations, and detach when done.
type Store interface {
	RecipeStore

	// Attach opens and provisions the backend described by config.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error
}

// IndexReport describes how one shadow full-text index compares with its
// source table. A healthy index has Missing == 0 and Stale == 0.
type IndexReport struct {
	Table   string `json:"table"`
	Index   string `json:"index"`
	Rows    int    `json:"rows"`
	Entries int    `json:"entries"`
	Missing int    `json:"missing"`
	Stale   int    `json:"stale"`
}

// Healthy reports whether the index mirrors its table exactly.
func (r IndexReport) Healthy() bool {
	return r.Missing == 0 && r.Stale == 0 && r.Rows == r.Entries
}
