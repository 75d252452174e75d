package mcp

import (
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

// jsonResponse wraps payload as indented JSON text.
func jsonResponse(payload any) (*mcpsdk.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResponse(fmt.Errorf("%w: encoding response: %w", types.ErrStorage, err))
	}
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// errorResponse reports err as a tool error. The payload carries the error
// kind so a caller can tell bad input from a storage failure.
func errorResponse(err error) (*mcpsdk.CallToolResultFor[any], error) {
	data, _ := json.MarshalIndent(ErrorPayload{Error: err.Error(), Kind: types.ErrorKind(err)}, "", "  ")
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		IsError: true,
	}, nil
}

// resultText returns the text of the first content item, for logging and
// tests.
func resultText(r *mcpsdk.CallToolResultFor[any]) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	if tc, ok := r.Content[0].(*mcpsdk.TextContent); ok {
		return tc.Text
	}
	return ""
}

func getRecipeAction(action string, id int64) Action {
	return Action{Action: action, Tool: "get_recipe", Arguments: map[string]any{"id": id}}
}

func addSnippetAction(action string, recipeID int64) Action {
	return Action{Action: action, Tool: "recipe_add_snippet", Arguments: map[string]any{
		"recipe_id": recipeID, "ref": "<unique_ref>", "snippet": "<code>", "language": "<language>", "description": "<description>",
	}}
}

func addendumAction(recipeID int64) Action {
	return Action{Action: "Add an addendum", Tool: "update_recipe", Arguments: map[string]any{
		"recipe_id": recipeID, "content": "<addendum_text>",
	}}
}

func getSnippetAction(action string, recipeID int64, ref string) Action {
	return Action{Action: action, Tool: "get_recipe_snippet", Arguments: map[string]any{"recipe_id": recipeID, "ref": ref}}
}
