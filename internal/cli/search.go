package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recipes/internal/sqlite"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search recipes, best matches first",
		Long: "Search recipes by word or phrase. Bare words match any of them; quote a phrase\n" +
			"for an exact match; AND, OR and NOT combine terms; word* matches a prefix.\n" +
			"Title matches rank above keywords, then description, then content.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				hits, err := b.SearchRecipes(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return printJSON(out, hits)
				}
				if len(hits) == 0 {
					fmt.Fprintf(out, "No recipes match %q.\n", args[0])
					return nil
				}
				rows := make([][]string, len(hits))
				for i, h := range hits {
					rows[i] = []string{
						strconv.FormatInt(h.ID, 10),
						strconv.Itoa(h.Relevance),
						oneLine(h.Title, 50),
						oneLine(strings.Join(h.Keywords, ", "), 40),
					}
				}
				return table(out, []string{"ID", "REL", "TITLE", "KEYWORDS"}, rows)
			})
		},
	}
}

func newSearchSnippetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search-snippets <query>",
		Short: "Search code snippets across all recipes",
		Long: "Search snippets with the same query syntax as search. Snippet description\n" +
			"matches rank highest, then code, then the parent recipe's title, keywords\n" +
			"and description.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				hits, err := b.SearchSnippets(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return printJSON(out, hits)
				}
				if len(hits) == 0 {
					fmt.Fprintf(out, "No snippets match %q.\n", args[0])
					return nil
				}
				rows := make([][]string, len(hits))
				for i, h := range hits {
					rows[i] = []string{
						strconv.FormatInt(h.ID, 10),
						strconv.Itoa(h.Relevance),
						h.Reference(),
						h.Language,
						oneLine(h.RecipeTitle, 40),
					}
				}
				return table(out, []string{"ID", "REL", "REFERENCE", "LANGUAGE", "RECIPE"}, rows)
			})
		},
	}
}
