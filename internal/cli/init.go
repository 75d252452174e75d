package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recipes/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the recipes database",
		Long: "Create the database file and its schema if missing, keeping existing data.\n" +
			"With --drop, every table and index is dropped and recreated empty.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				if drop {
					if err := b.Reset(ctx); err != nil {
						return err
					}
				}
				recipes, err := b.ListRecipes(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return printJSON(out, map[string]any{"path": b.Path(), "recipes": len(recipes), "dropped": drop})
				}
				verb := "Initialized"
				if drop {
					verb = "Reset"
				}
				fmt.Fprintf(out, "%s recipes store at %s (%d recipes)\n", verb, b.Path(), len(recipes))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&drop, "drop", false, "drop all data and recreate the schema")
	return cmd
}
