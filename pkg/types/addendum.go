package types

import "time"

// Addendum is an append-only note on a recipe. Addendums are never edited
// or removed on their own; they go away with their recipe.
type Addendum struct {
	ID        int64     `json:"id"`
	RecipeID  int64     `json:"recipe_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
