package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := setupBackend(t)

	first := mustCreate(t, src, types.NewRecipe{
		Title: "Worker pool", Description: "bounded concurrency", Content: "use a semaphore",
		Keywords: "concurrency, go",
		Snippets: []types.NewSnippet{{Ref: "pool", Snippet: "sem := make(chan struct{}, n)", Language: "go"}},
	})
	_, err := src.AddAddendum(ctx, first, "errgroup.SetLimit also works")
	require.NoError(t, err)
	mustCreate(t, src, types.NewRecipe{Title: "Second"})

	path := filepath.Join(t.TempDir(), "out", "recipes.jsonl")
	n, err := src.Export(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"Worker pool"`, "oldest first")

	dst := setupBackend(t)
	res, err := dst.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.Skipped)
	requireIndexesHealthy(t, dst)

	want, err := src.GetRecipe(ctx, first)
	require.NoError(t, err)
	list, err := dst.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Title, "created_at preserved, so order is kept")

	got, err := dst.GetRecipe(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Content, got.Content)
	assert.Equal(t, want.Keywords, got.Keywords)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Snippets, 1)
	assert.Equal(t, "pool", got.Snippets[0].Ref)
	require.Len(t, got.Addendums, 1)
	assert.Equal(t, "errgroup.SetLimit also works", got.Addendums[0].Content)

	hits, err := dst.SearchSnippets(ctx, "semaphore")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestImport_SkipsBadLines(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	path := filepath.Join(t.TempDir(), "in.jsonl")
	input := strings.Join([]string{
		`{"title":"good","created_at":"2024-01-01T00:00:00Z"}`,
		`not json`,
		``,
		`{"title":"  "}`,
		`{"title":"dupe refs","snippets":[{"ref":"a","snippet":"1"},{"ref":"a","snippet":"2"}]}`,
		`{"title":"also good","keywords":["x","y"]}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(input), 0o644))

	res, err := b.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Skipped, 3)
	assert.Equal(t, 2, res.Skipped[0].Line)
	assert.Equal(t, 4, res.Skipped[1].Line)
	assert.Equal(t, 5, res.Skipped[2].Line)
	assert.Equal(t, "dupe refs", res.Skipped[2].Title)

	list, err := b.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	requireIndexesHealthy(t, b)
}

func TestImport_MissingFile(t *testing.T) {
	b := setupBackend(t)
	_, err := b.Import(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestAttach_SeedsEmptyStoreOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.jsonl")
	require.NoError(t, os.WriteFile(seed, []byte(
		`{"title":"Seeded","keywords":["starter"],"created_at":"2024-01-01T00:00:00Z"}`+"\n"), 0o644))
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir, SeedFile: seed}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	list, err := b.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Seeded", list[0].Title)
	require.NoError(t, b.Detach())

	// A second attach must not import the seed again.
	b2 := NewBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()
	list, err = b2.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	d, err := b2.GetRecipe(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, d.CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAttach_MissingSeedFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend: types.BackendSQLite, DataDir: dir, SeedFile: filepath.Join(dir, "none.jsonl"),
	}))
	defer b.Detach()

	list, err := b.ListRecipes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWriteJSONL_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jsonl")
	require.NoError(t, writeJSONL(path, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.jsonl", entries[0].Name())
}
