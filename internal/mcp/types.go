package mcp

// Tool arguments. The SDK derives each tool's input schema from these
// structs; fields without omitempty are required. validate tags are checked
// before the store is called.

// EmptyParams is the argument of tools that take none.
type EmptyParams struct{}

// IDParams addresses a recipe or snippet by id.
type IDParams struct {
	ID int64 `json:"id" jsonschema:"the recipe or snippet id" validate:"min=1"`
}

// QueryParams is the argument of the search tools.
type QueryParams struct {
	Query string `json:"query" jsonschema:"words or phrases to search for; several words match with OR, quote a phrase for an exact match" validate:"required"`
}

// RecipeIDParams addresses a recipe by id.
type RecipeIDParams struct {
	RecipeID int64 `json:"recipe_id" jsonschema:"the recipe id" validate:"min=1"`
}

// RecipeSnippetParams addresses a snippet by recipe and ref.
type RecipeSnippetParams struct {
	RecipeID int64  `json:"recipe_id" jsonschema:"the recipe id" validate:"min=1"`
	Ref      string `json:"ref" jsonschema:"the snippet reference name, for example setup or middleware" validate:"required"`
}

// SnippetParams is one snippet of create_recipe.
type SnippetParams struct {
	Ref         string `json:"ref" jsonschema:"snippet reference identifier, unique within the recipe" validate:"required"`
	Snippet     string `json:"snippet" jsonschema:"code snippet content without markdown formatting" validate:"required"`
	Language    string `json:"language,omitempty" jsonschema:"programming language"`
	Description string `json:"description,omitempty" jsonschema:"snippet description"`
}

// CreateRecipeParams is the argument of create_recipe.
type CreateRecipeParams struct {
	HasReadHowto bool            `json:"has_read_howto,omitempty" jsonschema:"set to true to confirm you have read create_recipe_howto; otherwise you are directed to read it first"`
	Title        string          `json:"title" jsonschema:"recipe title" validate:"required_if=HasReadHowto true"`
	Description  string          `json:"description,omitempty" jsonschema:"recipe description"`
	Content      string          `json:"content,omitempty" jsonschema:"recipe content and instructions"`
	Keywords     string          `json:"keywords,omitempty" jsonschema:"comma separated keywords"`
	Snippets     []SnippetParams `json:"snippets,omitempty" jsonschema:"code snippets" validate:"dive"`
}

// AddendumParams is the argument of update_recipe.
type AddendumParams struct {
	RecipeID int64  `json:"recipe_id" jsonschema:"the recipe id" validate:"min=1"`
	Content  string `json:"content" jsonschema:"addendum content" validate:"required"`
}

// AddSnippetParams is the argument of recipe_add_snippet.
type AddSnippetParams struct {
	RecipeID    int64  `json:"recipe_id" jsonschema:"the recipe id" validate:"min=1"`
	Ref         string `json:"ref" jsonschema:"snippet reference identifier, unique within the recipe" validate:"required"`
	Snippet     string `json:"snippet" jsonschema:"code snippet content without markdown formatting" validate:"required"`
	Language    string `json:"language,omitempty" jsonschema:"programming language"`
	Description string `json:"description,omitempty" jsonschema:"snippet description"`
}

// Action suggests a follow-up tool call.
type Action struct {
	Action    string         `json:"action"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// ErrorPayload is the body of every failed call.
type ErrorPayload struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
