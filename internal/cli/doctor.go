package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recipes/internal/sqlite"
	"github.com/mesh-intelligence/recipes/pkg/types"
)

func newDoctorCmd(a *app) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the full-text indexes match their tables",
		Long: "Compare every full-text index with the table it mirrors. With --fix, rebuild\n" +
			"the indexes from the tables and check again. Exits 2 while drift remains.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				reports, err := b.CheckIndexes(ctx)
				if err != nil {
					return err
				}
				if fix && !allHealthy(reports) {
					if err := b.Reindex(ctx); err != nil {
						return err
					}
					if reports, err = b.CheckIndexes(ctx); err != nil {
						return err
					}
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					if err := printJSON(out, reports); err != nil {
						return err
					}
				} else if err := printReports(out, reports); err != nil {
					return err
				}
				if !allHealthy(reports) {
					return errIndexesUnhealthy
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "rebuild out-of-sync indexes")
	return cmd
}

func allHealthy(reports []types.IndexReport) bool {
	for _, r := range reports {
		if !r.Healthy() {
			return false
		}
	}
	return true
}

func printReports(w io.Writer, reports []types.IndexReport) error {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		status := "ok"
		if !r.Healthy() {
			status = "drift"
		}
		rows[i] = []string{r.Index, r.Table, strconv.Itoa(r.Rows), strconv.Itoa(r.Entries),
			strconv.Itoa(r.Missing), strconv.Itoa(r.Stale), status}
	}
	if err := table(w, []string{"INDEX", "TABLE", "ROWS", "ENTRIES", "MISSING", "STALE", "STATUS"}, rows); err != nil {
		return err
	}
	if allHealthy(reports) {
		fmt.Fprintln(w, "All indexes healthy.")
	}
	return nil
}
