// Package types defines the recipe entities, the RecipeStore and Store
// interfaces, configuration, and the standard errors shared by the storage
// backend and its callers (the MCP tool server and the CLI).
//
// A Recipe owns Keywords, Snippets and Addendums. Children never outlive
// their recipe: deleting a recipe removes all of them in one unit of work.
package types
