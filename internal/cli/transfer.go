package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recipes/internal/sqlite"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every recipe to a JSONL file, oldest first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				n, err := b.Export(ctx, args[0])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"file": args[0], "exported": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d recipes to %s\n", n, args[0])
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the recipes of a JSONL export to the store",
		Long: "Import appends each line of a JSONL export as a new recipe. Lines that fail\n" +
			"validation are reported and skipped; the rest are imported.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				res, err := b.Import(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return printJSON(out, res)
				}
				fmt.Fprintf(out, "Imported %d recipes from %s\n", res.Imported, args[0])
				for _, s := range res.Skipped {
					fmt.Fprintf(out, "  skipped line %d: %s\n", s.Line, s.Reason)
				}
				return nil
			})
		},
	}
}
