package types

import (
	"fmt"
	"strings"
	"time"
)

// Snippet is a named code fragment attached to a recipe. Ref is unique
// within its recipe, so a snippet is addressable by ID or by
// (RecipeID, Ref).
type Snippet struct {
	ID          int64     `json:"id"`
	RecipeID    int64     `json:"recipe_id"`
	Ref         string    `json:"ref"`
	Snippet     string    `json:"snippet"`
	Language    string    `json:"language"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reference returns the snippet:<recipe_id>:<ref> link form.
func (s Snippet) Reference() string {
	return fmt.Sprintf("snippet:%d:%s", s.RecipeID, s.Ref)
}

// SnippetView is a snippet with its recipe title for display.
type SnippetView struct {
	Snippet
	RecipeTitle string `json:"recipe_title"`
}

// SnippetHit is one SearchSnippets result.
type SnippetHit struct {
	Snippet
	RecipeTitle    string   `json:"recipe_title"`
	RecipeKeywords []string `json:"recipe_keywords"`
	Relevance      int      `json:"relevance"`
}

// NewSnippet carries the input of AddSnippet and of each snippet in
// NewRecipe.Snippets.
type NewSnippet struct {
	Ref         string `json:"ref"`
	Snippet     string `json:"snippet"`
	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate requires a ref and a non-empty snippet body.
func (s NewSnippet) Validate() error {
	if strings.TrimSpace(s.Ref) == "" {
		return fmt.Errorf("%w: snippet ref is required", ErrValidation)
	}
	if strings.TrimSpace(s.Snippet) == "" {
		return fmt.Errorf("%w: snippet %q has no code", ErrValidation, s.Ref)
	}
	return nil
}
