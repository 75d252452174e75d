package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/recipes/internal/mcp"
	"github.com/mesh-intelligence/recipes/internal/sqlite"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the recipe tools over MCP on stdio",
		Long: "Serve the recipe tools to an MCP client over stdin and stdout until the\n" +
			"client disconnects. Logs go to stderr.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, b *sqlite.Backend) error {
				srv, err := mcp.NewServer(b, mcp.WithLogger(a.log), mcp.WithVersion(Version))
				if err != nil {
					return err
				}
				return srv.Run(ctx)
			})
		},
	}
}
