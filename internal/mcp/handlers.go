package mcp

import (
	"context"
	"time"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

type toolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) about(ctx context.Context, _ EmptyParams) (any, error) {
	tools := make([]toolInfo, len(toolDefs))
	for i, d := range toolDefs {
		tools[i] = toolInfo{Name: d.name, Description: d.description}
	}
	payload := map[string]any{
		"name":    ServerName,
		"version": s.version,
		"tools":   tools,
	}
	for k, v := range s.content.About {
		payload[k] = v
	}
	return payload, nil
}

type listRecipesPayload struct {
	Recipes     []types.RecipeSummary `json:"recipes"`
	Count       int                   `json:"count"`
	Usage       string                `json:"usage"`
	NextActions []Action              `json:"next_actions"`
}

func (s *Server) listRecipes(ctx context.Context, _ EmptyParams) (any, error) {
	recipes, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	p := listRecipesPayload{
		Recipes: recipes,
		Count:   len(recipes),
		Usage:   "To get full details of a recipe, use the 'get_recipe' tool with the recipe id from this list",
	}
	if len(recipes) > 0 {
		p.NextActions = append(p.NextActions, getRecipeAction("View the newest recipe", recipes[0].ID))
	} else {
		p.NextActions = append(p.NextActions, Action{Action: "Read the guide, then create the first recipe", Tool: "create_recipe_howto", Arguments: map[string]any{}})
	}
	p.NextActions = append(p.NextActions, Action{Action: "Search recipes", Tool: "search_recipes", Arguments: map[string]any{"query": "<keywords>"}})
	return p, nil
}

type snippetOut struct {
	types.Snippet
	Reference string `json:"reference"`
}

func snippetsOut(in []types.Snippet) []snippetOut {
	out := make([]snippetOut, len(in))
	for i, s := range in {
		out[i] = snippetOut{Snippet: s, Reference: s.Reference()}
	}
	return out
}

type getRecipePayload struct {
	Recipe      types.Recipe      `json:"recipe"`
	Keywords    []string          `json:"keywords"`
	Snippets    []snippetOut      `json:"snippets"`
	Addendums   []types.Addendum  `json:"addendums"`
	Usage       map[string]string `json:"usage"`
	NextActions []Action          `json:"next_actions"`
}

func (s *Server) getRecipe(ctx context.Context, args IDParams) (any, error) {
	d, err := s.store.GetRecipe(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	p := getRecipePayload{
		Recipe:    d.Recipe,
		Keywords:  d.Keywords,
		Snippets:  snippetsOut(d.Snippets),
		Addendums: d.Addendums,
		Usage: map[string]string{
			"snippets_included": "Every snippet is included with full code. Link one as snippet:<recipe_id>:<ref>.",
			"adding_snippets":   "Use 'recipe_add_snippet' to add more code snippets to this recipe",
			"adding_notes":      "Use 'update_recipe' to add an addendum with updates or additional notes",
		},
	}
	if len(d.Snippets) > 0 {
		p.NextActions = []Action{addSnippetAction("Add another snippet", d.ID), addendumAction(d.ID)}
	} else {
		p.NextActions = []Action{addSnippetAction("Add first snippet", d.ID), addendumAction(d.ID)}
	}
	return p, nil
}

type recipeResult struct {
	types.RecipeHit
	ToViewFullRecipe Action `json:"to_view_full_recipe"`
}

type searchRecipesPayload struct {
	Results     []recipeResult `json:"results"`
	Count       int            `json:"count"`
	Query       string         `json:"query"`
	SearchTips  []string       `json:"search_tips"`
	Syntax      []string       `json:"fts5_syntax_examples"`
	NextActions []Action       `json:"next_actions"`
}

func (s *Server) searchRecipes(ctx context.Context, args QueryParams) (any, error) {
	hits, err := s.store.SearchRecipes(ctx, args.Query)
	if err != nil {
		return nil, err
	}
	p := searchRecipesPayload{
		Results: make([]recipeResult, len(hits)),
		Count:   len(hits),
		Query:   args.Query,
		Syntax:  s.content.SearchTips.FTS5Syntax,
	}
	for i, h := range hits {
		p.Results[i] = recipeResult{RecipeHit: h, ToViewFullRecipe: getRecipeAction("View recipe", h.ID)}
	}
	if len(hits) > 0 {
		p.SearchTips = s.content.SearchTips.WithResults
		p.NextActions = []Action{getRecipeAction("View first result", hits[0].ID)}
	} else {
		p.SearchTips = s.content.SearchTips.NoResults
		p.NextActions = []Action{
			{Action: "Try different search", Tool: "search_recipes", Arguments: map[string]any{"query": "<different_keywords>"}},
			{Action: "List all recipes", Tool: "list_recipes", Arguments: map[string]any{}},
		}
	}
	return p, nil
}

type recipeContext struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords,omitempty"`
}

type snippetResult struct {
	SnippetID     int64         `json:"snippet_id"`
	RecipeID      int64         `json:"recipe_id"`
	Ref           string        `json:"ref"`
	Snippet       string        `json:"snippet"`
	Language      string        `json:"language"`
	Description   string        `json:"description"`
	Relevance     int           `json:"relevance"`
	CreatedAt     time.Time     `json:"created_at"`
	RecipeContext recipeContext `json:"recipe_context"`
	ToGetSnippet  Action        `json:"to_get_snippet"`
	ToGetRecipe   Action        `json:"to_get_recipe"`
}

type searchSnippetsPayload struct {
	Results     []snippetResult   `json:"results"`
	Count       int               `json:"count"`
	Query       string            `json:"query"`
	SearchInfo  map[string]string `json:"search_info"`
	Syntax      []string          `json:"fts5_syntax_examples"`
	NextActions []Action          `json:"next_actions"`
}

func (s *Server) searchSnippets(ctx context.Context, args QueryParams) (any, error) {
	hits, err := s.store.SearchSnippets(ctx, args.Query)
	if err != nil {
		return nil, err
	}
	p := searchSnippetsPayload{
		Results: make([]snippetResult, len(hits)),
		Count:   len(hits),
		Query:   args.Query,
		SearchInfo: map[string]string{
			"weighting": "Results weighted by: snippet description (highest), snippet code, recipe title, recipe keywords, recipe description (lowest)",
		},
		Syntax: s.content.SearchTips.FTS5Syntax,
	}
	for i, h := range hits {
		p.Results[i] = snippetResult{
			SnippetID:     h.ID,
			RecipeID:      h.RecipeID,
			Ref:           h.Ref,
			Snippet:       h.Snippet.Snippet,
			Language:      h.Language,
			Description:   h.Description,
			Relevance:     h.Relevance,
			CreatedAt:     h.CreatedAt,
			RecipeContext: recipeContext{Title: h.RecipeTitle, Keywords: h.RecipeKeywords},
			ToGetSnippet:  getSnippetAction("View snippet", h.RecipeID, h.Ref),
			ToGetRecipe:   getRecipeAction("View recipe", h.RecipeID),
		}
	}
	if len(hits) > 0 {
		p.SearchInfo["tip"] = "Each result includes the code snippet and context about its parent recipe"
		p.NextActions = []Action{getRecipeAction("View full recipe context", hits[0].RecipeID)}
	} else {
		p.SearchInfo["tip"] = "Try single keywords or use FTS5 syntax for advanced search"
		p.NextActions = []Action{
			{Action: "Try different search", Tool: "search_snippets", Arguments: map[string]any{"query": "<different_keywords>"}},
		}
	}
	return p, nil
}

type snippetViewOut struct {
	types.SnippetView
	Reference string `json:"reference"`
}

type snippetPayload struct {
	Snippet     snippetViewOut `json:"snippet"`
	NextActions []Action       `json:"next_actions"`
}

func (s *Server) getSnippet(ctx context.Context, args IDParams) (any, error) {
	v, err := s.store.GetSnippetByID(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	return snippetPayload{
		Snippet: snippetViewOut{SnippetView: *v, Reference: v.Reference()},
		NextActions: []Action{
			getRecipeAction("View full recipe", v.RecipeID),
			{Action: "Find related code", Tool: "search_snippets", Arguments: map[string]any{"query": "<keyword>"}},
		},
	}, nil
}

func (s *Server) getRecipeSnippet(ctx context.Context, args RecipeSnippetParams) (any, error) {
	v, err := s.store.GetSnippetByRef(ctx, args.RecipeID, args.Ref)
	if err != nil {
		return nil, err
	}
	query := v.Language
	if query == "" {
		query = "<keyword>"
	}
	return snippetPayload{
		Snippet: snippetViewOut{SnippetView: *v, Reference: v.Reference()},
		NextActions: []Action{
			getRecipeAction("View full recipe", v.RecipeID),
			{Action: "View all snippets for this recipe", Tool: "get_recipe_snippets", Arguments: map[string]any{"recipe_id": v.RecipeID}},
			{Action: "Search for similar code", Tool: "search_snippets", Arguments: map[string]any{"query": query}},
		},
	}, nil
}

type recipeSnippetsPayload struct {
	RecipeID    int64            `json:"recipe_id"`
	Snippets    []snippetViewOut `json:"snippets"`
	Count       int              `json:"count"`
	NextActions []Action         `json:"next_actions"`
}

func (s *Server) getRecipeSnippets(ctx context.Context, args RecipeIDParams) (any, error) {
	views, err := s.store.ListSnippetsForRecipe(ctx, args.RecipeID)
	if err != nil {
		return nil, err
	}
	p := recipeSnippetsPayload{
		RecipeID: args.RecipeID,
		Snippets: make([]snippetViewOut, len(views)),
		Count:    len(views),
		NextActions: []Action{
			getRecipeAction("View full recipe", args.RecipeID),
			addSnippetAction("Add a snippet", args.RecipeID),
		},
	}
	for i, v := range views {
		p.Snippets[i] = snippetViewOut{SnippetView: v, Reference: v.Reference()}
	}
	return p, nil
}

type howtoRequiredPayload struct {
	Error          string            `json:"error"`
	Message        string            `json:"message"`
	RequiredAction map[string]string `json:"required_action"`
	NextAction     Action            `json:"next_action"`
}

type createRecipePayload struct {
	Success     bool           `json:"success"`
	RecipeID    int64          `json:"recipe_id"`
	Title       string         `json:"title"`
	Summary     map[string]int `json:"summary"`
	Usage       string         `json:"usage"`
	NextActions []Action       `json:"next_actions"`
}

func (s *Server) createRecipe(ctx context.Context, args CreateRecipeParams) (any, error) {
	if !args.HasReadHowto {
		return howtoRequiredPayload{
			Error:   "Please read the recipe creation guide first",
			Message: "Before creating a recipe, read how to structure its content and snippets.",
			RequiredAction: map[string]string{
				"step": "1. Call the 'create_recipe_howto' tool to read the guide",
				"then": "2. Call 'create_recipe' again with has_read_howto: true",
			},
			NextAction: Action{Action: "Read the guide", Tool: "create_recipe_howto", Arguments: map[string]any{}},
		}, nil
	}

	in := types.NewRecipe{
		Title:       args.Title,
		Description: args.Description,
		Content:     args.Content,
		Keywords:    args.Keywords,
	}
	for _, sn := range args.Snippets {
		in.Snippets = append(in.Snippets, types.NewSnippet{
			Ref: sn.Ref, Snippet: sn.Snippet, Language: sn.Language, Description: sn.Description,
		})
	}
	id, err := s.store.CreateRecipe(ctx, in)
	if err != nil {
		return nil, err
	}
	return createRecipePayload{
		Success:  true,
		RecipeID: id,
		Title:    args.Title,
		Summary: map[string]int{
			"keywords_added": len(types.ParseKeywords(args.Keywords)),
			"snippets_added": len(in.Snippets),
		},
		Usage: "Recipe created. You can now view it, add more snippets, or add addendums as it evolves.",
		NextActions: []Action{
			getRecipeAction("View the newly created recipe", id),
			addSnippetAction("Add another snippet", id),
			addendumAction(id),
		},
	}, nil
}

func (s *Server) createRecipeHowto(ctx context.Context, _ EmptyParams) (any, error) {
	return s.content.Howto, nil
}

type deleteRecipePayload struct {
	Success            bool     `json:"success"`
	DeletedRecipeID    int64    `json:"deleted_recipe_id"`
	DeletedRecipeTitle string   `json:"deleted_recipe_title"`
	Message            string   `json:"message"`
	NextActions        []Action `json:"next_actions"`
}

func (s *Server) deleteRecipe(ctx context.Context, args IDParams) (any, error) {
	deleted, err := s.store.DeleteRecipe(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	return deleteRecipePayload{
		Success:            true,
		DeletedRecipeID:    deleted.ID,
		DeletedRecipeTitle: deleted.Title,
		Message:            "Recipe and all related data (keywords, snippets, addendums) have been deleted",
		NextActions: []Action{
			{Action: "See remaining recipes", Tool: "list_recipes", Arguments: map[string]any{}},
		},
	}, nil
}

type addendumPayload struct {
	Success     bool     `json:"success"`
	RecipeID    int64    `json:"recipe_id"`
	AddendumID  int64    `json:"addendum_id"`
	NextActions []Action `json:"next_actions"`
}

func (s *Server) updateRecipe(ctx context.Context, args AddendumParams) (any, error) {
	id, err := s.store.AddAddendum(ctx, args.RecipeID, args.Content)
	if err != nil {
		return nil, err
	}
	return addendumPayload{
		Success:    true,
		RecipeID:   args.RecipeID,
		AddendumID: id,
		NextActions: []Action{
			getRecipeAction("View all addendums", args.RecipeID),
		},
	}, nil
}

type addSnippetPayload struct {
	Success     bool     `json:"success"`
	RecipeID    int64    `json:"recipe_id"`
	SnippetID   int64    `json:"snippet_id"`
	Ref         string   `json:"snippet_ref"`
	Reference   string   `json:"reference"`
	NextActions []Action `json:"next_actions"`
}

func (s *Server) addSnippet(ctx context.Context, args AddSnippetParams) (any, error) {
	id, err := s.store.AddSnippet(ctx, args.RecipeID, types.NewSnippet{
		Ref: args.Ref, Snippet: args.Snippet, Language: args.Language, Description: args.Description,
	})
	if err != nil {
		return nil, err
	}
	ref := types.Snippet{RecipeID: args.RecipeID, Ref: args.Ref}.Reference()
	return addSnippetPayload{
		Success:   true,
		RecipeID:  args.RecipeID,
		SnippetID: id,
		Ref:       args.Ref,
		Reference: ref,
		NextActions: []Action{
			getSnippetAction("View the snippet you just added", args.RecipeID, args.Ref),
			getRecipeAction("View full recipe with all snippets", args.RecipeID),
			addSnippetAction("Add another snippet", args.RecipeID),
		},
	}, nil
}
