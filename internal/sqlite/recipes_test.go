package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

func TestCreateRecipe_RoundTrip(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	id := mustCreate(t, b, types.NewRecipe{
		Title:       "Retry with backoff",
		Description: "Exponential retry for flaky calls",
		Content:     "Wrap the call and double the delay each attempt.",
		Keywords:    " retry, backoff ,, go ,retry",
		Snippets: []types.NewSnippet{
			{Ref: "loop", Snippet: "for i := 0; i < n; i++ {}", Language: "go", Description: "retry loop"},
			{Ref: "sleep", Snippet: "time.Sleep(d)"},
		},
	})

	d, err := b.GetRecipe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, "Retry with backoff", d.Title)
	assert.Equal(t, "Exponential retry for flaky calls", d.Description)
	assert.Equal(t, "Wrap the call and double the delay each attempt.", d.Content)
	assert.Equal(t, []string{"retry", "backoff", "go", "retry"}, d.Keywords, "trimmed, empties dropped, duplicates kept")
	require.Len(t, d.Snippets, 2)
	assert.Equal(t, "loop", d.Snippets[0].Ref)
	assert.Equal(t, "go", d.Snippets[0].Language)
	assert.Equal(t, "retry loop", d.Snippets[0].Description)
	assert.Equal(t, "sleep", d.Snippets[1].Ref)
	assert.Equal(t, id, d.Snippets[1].RecipeID)
	assert.Empty(t, d.Addendums)
	assert.False(t, d.CreatedAt.IsZero())

	requireIndexesHealthy(t, b)
}

func TestCreateRecipe_Validation(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   types.NewRecipe
		want error
	}{
		{"blank title", types.NewRecipe{Title: "  "}, types.ErrValidation},
		{"snippet without ref", types.NewRecipe{Title: "t", Snippets: []types.NewSnippet{{Snippet: "x"}}}, types.ErrValidation},
		{"snippet without body", types.NewRecipe{Title: "t", Snippets: []types.NewSnippet{{Ref: "a"}}}, types.ErrValidation},
		{"duplicate refs", types.NewRecipe{Title: "t", Snippets: []types.NewSnippet{
			{Ref: "a", Snippet: "1"}, {Ref: "a", Snippet: "2"},
		}}, types.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.CreateRecipe(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	list, err := b.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "failed creates must not leave rows")
	requireIndexesHealthy(t, b)
}

// A snippet that fails inside the transaction rolls back the recipe, its
// keywords and any snippets already inserted.
func TestCreateRecipe_AtomicOnSnippetFailure(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	// Bypass Validate so the duplicate reaches the store.
	err := b.write(ctx, "create recipe", func(tx *sql.Tx) error {
		_, err := b.insertRecipe(ctx, tx, types.NewRecipe{
			Title:    "Half written",
			Keywords: "a,b",
			Snippets: []types.NewSnippet{{Ref: "x", Snippet: "1"}, {Ref: "x", Snippet: "2"}},
		}, b.timestamp())
		return err
	})
	require.ErrorIs(t, err, types.ErrConflict)

	for _, idx := range shadowIndexes {
		assert.Zero(t, countRows(t, b, "SELECT COUNT(*) FROM "+idx.source), idx.source)
		assert.Zero(t, countRows(t, b, "SELECT COUNT(*) FROM "+idx.fts), idx.fts)
	}
}

func TestListRecipes_NewestFirst(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	first := mustCreate(t, b, types.NewRecipe{Title: "first", Description: "one"})
	second := mustCreate(t, b, types.NewRecipe{Title: "second"})
	third := mustCreate(t, b, types.NewRecipe{Title: "third"})

	list, err := b.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{third, second, first}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "one", list[2].Description)
}

func TestListRecipes_SameTimestampOrderedByID(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b := NewBackend(WithClock(func() time.Time { return fixed }))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()

	a := mustCreate(t, b, types.NewRecipe{Title: "a"})
	c := mustCreate(t, b, types.NewRecipe{Title: "c"})

	list, err := b.ListRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c, list[0].ID)
	assert.Equal(t, a, list[1].ID)
}

func TestGetRecipe_NotFound(t *testing.T) {
	b := setupBackend(t)
	_, err := b.GetRecipe(context.Background(), 42)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Contains(t, err.Error(), "recipe 42")
}

func TestDeleteRecipe_Cascades(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	keep := mustCreate(t, b, types.NewRecipe{
		Title: "Keep", Keywords: "shared",
		Snippets: []types.NewSnippet{{Ref: "k", Snippet: "keep()"}},
	})
	doomed := mustCreate(t, b, types.NewRecipe{
		Title: "Doomed", Description: "goes away", Keywords: "shared, gone",
		Snippets: []types.NewSnippet{{Ref: "a", Snippet: "a()"}, {Ref: "b", Snippet: "b()"}},
	})
	_, err := b.AddAddendum(ctx, doomed, "a note")
	require.NoError(t, err)
	doomedSnippet, err := b.GetSnippetByRef(ctx, doomed, "a")
	require.NoError(t, err)

	deleted, err := b.DeleteRecipe(ctx, doomed)
	require.NoError(t, err)
	assert.Equal(t, types.RecipeSummary{ID: doomed, Title: "Doomed", Description: "goes away"}, *deleted)

	_, err = b.GetRecipe(ctx, doomed)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.GetSnippetByID(ctx, doomedSnippet.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	for _, table := range []string{tableKeywords, tableAddendums, tableSnippets} {
		assert.Zero(t, countRows(t, b, "SELECT COUNT(*) FROM "+table+" WHERE recipe_id = ?", doomed), table)
	}

	hits, err := b.SearchRecipes(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, hits, "deleted keywords must leave the index")
	hits, err = b.SearchRecipes(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, keep, hits[0].ID)

	kept, err := b.GetRecipe(ctx, keep)
	require.NoError(t, err)
	assert.Len(t, kept.Snippets, 1)
	requireIndexesHealthy(t, b)
}

func TestDeleteRecipe_NotFound(t *testing.T) {
	b := setupBackend(t)
	_, err := b.DeleteRecipe(context.Background(), 7)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAddAddendum(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	id := mustCreate(t, b, types.NewRecipe{Title: "Annotated"})

	first, err := b.AddAddendum(ctx, id, "first note")
	require.NoError(t, err)
	second, err := b.AddAddendum(ctx, id, "second note")
	require.NoError(t, err)

	d, err := b.GetRecipe(ctx, id)
	require.NoError(t, err)
	require.Len(t, d.Addendums, 2)
	assert.Equal(t, first, d.Addendums[0].ID)
	assert.Equal(t, "first note", d.Addendums[0].Content)
	assert.Equal(t, second, d.Addendums[1].ID)
	requireIndexesHealthy(t, b)

	_, err = b.AddAddendum(ctx, id, "   ")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = b.AddAddendum(ctx, id+100, "orphan")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Zero(t, countRows(t, b, "SELECT COUNT(*) FROM recipe_addendums WHERE recipe_id = ?", id+100))
}
