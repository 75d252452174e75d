package types

import (
	"fmt"
	"strings"
	"time"
)

// Recipe is the top-level knowledge unit. Title is required; ID and
// CreatedAt are assigned by the store and never change.
type Recipe struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeSummary is the listing form of a recipe.
type RecipeSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RecipeDetail is a recipe with all of its children. Snippets and
// Addendums are in creation order.
type RecipeDetail struct {
	Recipe
	Keywords  []string   `json:"keywords"`
	Snippets  []Snippet  `json:"snippets"`
	Addendums []Addendum `json:"addendums"`
}

// RecipeHit is one SearchRecipes result.
type RecipeHit struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	Relevance   int       `json:"relevance"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRecipe carries the input of CreateRecipe. Keywords is a comma
// separated list; see ParseKeywords.
type NewRecipe struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Content     string       `json:"content"`
	Keywords    string       `json:"keywords,omitempty"`
	Snippets    []NewSnippet `json:"snippets,omitempty"`
}

// Validate checks the recipe and each submitted snippet. A repeated ref in
// the batch is reported as ErrConflict, everything else as ErrValidation.
func (r NewRecipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	seen := make(map[string]bool, len(r.Snippets))
	for i, s := range r.Snippets {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("snippet %d: %w", i, err)
		}
		if seen[s.Ref] {
			return fmt.Errorf("%w: snippet ref %q appears more than once", ErrConflict, s.Ref)
		}
		seen[s.Ref] = true
	}
	return nil
}

// ParseKeywords splits a comma separated keyword string, trims each entry
// and drops empty ones. Duplicates are kept.
func ParseKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// SplitKeywords turns a comma-joined keyword column back into a list.
// An empty input yields an empty, non-nil slice.
func SplitKeywords(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}
