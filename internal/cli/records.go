package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recipes/internal/sqlite"
	"github.com/mesh-intelligence/recipes/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recipes, newest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				recipes, err := b.ListRecipes(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return printJSON(out, recipes)
				}
				if len(recipes) == 0 {
					fmt.Fprintln(out, "No recipes.")
					return nil
				}
				rows := make([][]string, len(recipes))
				for i, r := range recipes {
					rows[i] = []string{strconv.FormatInt(r.ID, 10), oneLine(r.Title, 50), oneLine(r.Description, 70)}
				}
				return table(out, []string{"ID", "TITLE", "DESCRIPTION"}, rows)
			})
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a recipe with its keywords, snippets and addendums",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				recipe, err := b.GetRecipe(ctx, id)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), recipe)
				}
				printRecipe(cmd.OutOrStdout(), recipe)
				return nil
			})
		},
	}
}

func printRecipe(w io.Writer, r *types.RecipeDetail) {
	fmt.Fprintf(w, "#%d %s\n", r.ID, r.Title)
	fmt.Fprintf(w, "Created:  %s\n", stamp(r.CreatedAt))
	if len(r.Keywords) > 0 {
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(r.Keywords, ", "))
	}
	if r.Description != "" {
		fmt.Fprintf(w, "\n%s\n", r.Description)
	}
	if r.Content != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(r.Content, "\n"))
	}
	for _, s := range r.Snippets {
		fmt.Fprintf(w, "\n--- %s", s.Reference())
		if s.Language != "" {
			fmt.Fprintf(w, " (%s)", s.Language)
		}
		fmt.Fprintln(w)
		if s.Description != "" {
			fmt.Fprintf(w, "%s\n", s.Description)
		}
		fmt.Fprintf(w, "%s\n", strings.TrimRight(s.Snippet, "\n"))
	}
	for _, ad := range r.Addendums {
		fmt.Fprintf(w, "\nAddendum %s:\n%s\n", stamp(ad.CreatedAt), strings.TrimRight(ad.Content, "\n"))
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recipe and everything attached to it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				deleted, err := b.DeleteRecipe(ctx, id)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), deleted)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted recipe %d: %s\n", deleted.ID, deleted.Title)
				return nil
			})
		},
	}
}
