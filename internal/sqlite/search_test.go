package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

func hitIDs(hits []types.RecipeHit) []int64 {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func TestSearchRecipes_RankedByFieldTier(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	// Created oldest first; tier must beat recency.
	inTitle := mustCreate(t, b, types.NewRecipe{Title: "Caching layer"})
	inKeyword := mustCreate(t, b, types.NewRecipe{Title: "Memo", Keywords: "caching, memory"})
	inDescription := mustCreate(t, b, types.NewRecipe{Title: "Store", Description: "a caching proxy"})
	inContent := mustCreate(t, b, types.NewRecipe{Title: "Proxy", Content: "add caching at the edge"})

	hits, err := b.SearchRecipes(ctx, "caching")
	require.NoError(t, err)
	require.Len(t, hits, 4)
	assert.Equal(t, []int64{inTitle, inKeyword, inDescription, inContent}, hitIDs(hits))
	assert.Equal(t,
		[]int{RecipeTierTitle, RecipeTierKeyword, RecipeTierDescription, RecipeTierContent},
		[]int{hits[0].Relevance, hits[1].Relevance, hits[2].Relevance, hits[3].Relevance})
	assert.ElementsMatch(t, []string{"caching", "memory"}, hits[1].Keywords)
	assert.Equal(t, []string{}, hits[0].Keywords)
}

func TestSearchRecipes_TiesNewestFirst(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	older := mustCreate(t, b, types.NewRecipe{Title: "Logging basics"})
	newer := mustCreate(t, b, types.NewRecipe{Title: "Structured logging"})

	hits, err := b.SearchRecipes(ctx, "logging")
	require.NoError(t, err)
	assert.Equal(t, []int64{newer, older}, hitIDs(hits))
}

func TestSearchRecipes_CaseInsensitive(t *testing.T) {
	b := setupBackend(t)
	id := mustCreate(t, b, types.NewRecipe{Title: "SQLite WAL mode"})

	hits, err := b.SearchRecipes(context.Background(), "sqlite")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ID)
	assert.Equal(t, RecipeTierTitle, hits[0].Relevance)
}

// A keyword match makes a recipe a candidate even when none of its own text
// columns match.
func TestSearchRecipes_KeywordOnlyCandidate(t *testing.T) {
	b := setupBackend(t)
	id := mustCreate(t, b, types.NewRecipe{Title: "Deploy", Keywords: "kubernetes"})

	hits, err := b.SearchRecipes(context.Background(), "kubernetes")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ID)
	assert.Equal(t, RecipeTierKeyword, hits[0].Relevance)
}

// A multi-word query is OR-joined for matching, but the tier compares the
// whole literal query, so a token-only match stays at tier 0.
func TestSearchRecipes_TokenMatchKeepsTierZero(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	exact := mustCreate(t, b, types.NewRecipe{Title: "graceful shutdown"})
	partial := mustCreate(t, b, types.NewRecipe{Title: "shutdown hooks"})

	hits, err := b.SearchRecipes(ctx, "graceful shutdown")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, exact, hits[0].ID)
	assert.Equal(t, RecipeTierTitle, hits[0].Relevance)
	assert.Equal(t, partial, hits[1].ID)
	assert.Equal(t, 0, hits[1].Relevance)
}

func TestSearchRecipes_Operators(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	both := mustCreate(t, b, types.NewRecipe{Title: "retry with backoff"})
	onlyRetry := mustCreate(t, b, types.NewRecipe{Title: "retry forever"})

	hits, err := b.SearchRecipes(ctx, "retry AND backoff")
	require.NoError(t, err)
	assert.Equal(t, []int64{both}, hitIDs(hits))

	hits, err = b.SearchRecipes(ctx, "retry NOT backoff")
	require.NoError(t, err)
	assert.Equal(t, []int64{onlyRetry}, hitIDs(hits))

	// A bare exclusion has nothing to exclude from.
	for _, q := range []string{"NOT backoff", "AND NOT backoff"} {
		hits, err = b.SearchRecipes(ctx, q)
		require.NoError(t, err, q)
		assert.Empty(t, hits, q)
		snippets, err := b.SearchSnippets(ctx, q)
		require.NoError(t, err, q)
		assert.Empty(t, snippets, q)
	}

	hits, err = b.SearchRecipes(ctx, `"with backoff"`)
	require.NoError(t, err)
	assert.Equal(t, []int64{both}, hitIDs(hits))

	hits, err = b.SearchRecipes(ctx, "back*")
	require.NoError(t, err)
	assert.Equal(t, []int64{both}, hitIDs(hits))
}

// Query text that is not valid FTS5 syntax must neither fail nor be
// interpreted as wildcards by the relevance tier.
func TestSearchRecipes_PunctuationIsLiteral(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	mustCreate(t, b, types.NewRecipe{Title: "100% coverage"})
	other := mustCreate(t, b, types.NewRecipe{Title: "1000 coverage reports"})

	for _, q := range []string{"(", `"`, "c++", "foo:bar", "NEAR(", "a_b", "%"} {
		_, err := b.SearchRecipes(ctx, q)
		assert.NoError(t, err, q)
		_, err = b.SearchSnippets(ctx, q)
		assert.NoError(t, err, q)
	}

	hits, err := b.SearchRecipes(ctx, "100% coverage")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, RecipeTierTitle, hits[0].Relevance)
	for _, h := range hits {
		if h.ID == other {
			assert.Equal(t, 0, h.Relevance, "percent sign must not act as a wildcard")
		}
	}
}

func TestSearchRecipes_EmptyQuery(t *testing.T) {
	b := setupBackend(t)
	mustCreate(t, b, types.NewRecipe{Title: "anything"})

	for _, q := range []string{"", "  ", "AND", "*"} {
		hits, err := b.SearchRecipes(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, hits, q)
		assert.NotNil(t, hits, q)
	}
}

func TestSearchRecipes_IndexFreshAfterMutations(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := mustCreate(t, b, types.NewRecipe{Title: "Ephemeral"})

	hits, err := b.SearchRecipes(ctx, "ephemeral")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	_, err = b.AddAddendum(ctx, id, "note")
	require.NoError(t, err)
	_, err = b.DeleteRecipe(ctx, id)
	require.NoError(t, err)

	hits, err = b.SearchRecipes(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Empty(t, hits)
	requireIndexesHealthy(t, b)
}

func TestSearchSnippets_RankedByFieldTier(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	byDesc := mustCreate(t, b, types.NewRecipe{Title: "A", Snippets: []types.NewSnippet{
		{Ref: "d", Snippet: "x()", Description: "uses mutex"},
	}})
	byBody := mustCreate(t, b, types.NewRecipe{Title: "B", Snippets: []types.NewSnippet{
		{Ref: "b", Snippet: "var m sync.Mutex"},
	}})
	byTitle := mustCreate(t, b, types.NewRecipe{Title: "Mutex patterns", Snippets: []types.NewSnippet{
		{Ref: "t", Snippet: "y()"},
	}})
	byKeyword := mustCreate(t, b, types.NewRecipe{Title: "C", Keywords: "mutex", Snippets: []types.NewSnippet{
		{Ref: "k", Snippet: "z()"},
	}})
	byRecipeDesc := mustCreate(t, b, types.NewRecipe{Title: "D", Description: "guard with a mutex", Snippets: []types.NewSnippet{
		{Ref: "r", Snippet: "w()"},
	}})
	mustCreate(t, b, types.NewRecipe{Title: "Unrelated", Snippets: []types.NewSnippet{{Ref: "u", Snippet: "u()"}}})

	hits, err := b.SearchSnippets(ctx, "mutex")
	require.NoError(t, err)
	require.Len(t, hits, 5)

	wantRecipes := []int64{byDesc, byBody, byTitle, byKeyword, byRecipeDesc}
	wantTiers := []int{
		SnippetTierDescription, SnippetTierCode, SnippetTierRecipeTitle,
		SnippetTierRecipeKeyword, SnippetTierRecipeDescription,
	}
	for i, h := range hits {
		assert.Equal(t, wantRecipes[i], h.RecipeID, "position %d", i)
		assert.Equal(t, wantTiers[i], h.Relevance, "position %d", i)
	}
	assert.Equal(t, "Mutex patterns", hits[2].RecipeTitle)
	assert.Equal(t, []string{"mutex"}, hits[3].RecipeKeywords)
}

func TestSearchSnippets_TiesNewestFirst(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	recipeID := mustCreate(t, b, types.NewRecipe{Title: "r", Snippets: []types.NewSnippet{
		{Ref: "old", Snippet: "channel send"},
	}})
	_, err := b.AddSnippet(ctx, recipeID, types.NewSnippet{Ref: "new", Snippet: "channel receive"})
	require.NoError(t, err)

	hits, err := b.SearchSnippets(ctx, "channel")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "new", hits[0].Ref)
	assert.Equal(t, "old", hits[1].Ref)
}

func TestSearchSnippets_EmptyQuery(t *testing.T) {
	b := setupBackend(t)
	hits, err := b.SearchSnippets(context.Background(), " ")
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}
