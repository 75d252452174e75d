// Package cli implements the recipes command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/recipes/internal/sqlite"
	"github.com/mesh-intelligence/recipes/pkg/types"
)

// Version is stamped at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "0.1.0-dev"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	dbPath    string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags  rootFlags
	stderr io.Writer
	v      *viper.Viper
	log    *slog.Logger
}

// NewRootCmd creates the top-level "recipes" command with global flags
// and all subcommands registered. Diagnostics and logs go to stderr.
func NewRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr, log: discardLogger()}
	root := &cobra.Command{
		Use:   "recipes",
		Short: "A searchable knowledge base of coding recipes",
		Long: "recipes stores titled coding recipes with keywords, code snippets and addendums\n" +
			"in a single SQLite file, and serves them to AI assistants over MCP.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", types.ErrValidation, err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "directory holding recipes.db (default: current directory)")
	pf.StringVar(&a.flags.dbPath, "db", "", "database file, overrides --data-dir")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(a),
		newServeCmd(a),
		newInitCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newDeleteCmd(a),
		newSearchCmd(a),
		newSearchSnippetsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newDoctorCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode maps err to 1 when the caller's input was at fault and 2 when
// the system failed.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case types.IsUserError(err):
		return exitUserError
	default:
		return exitSysError
	}
}

// setup loads configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	v, err := loadConfig(a.flags.configDir)
	if err != nil {
		return err
	}
	a.v = v
	level, err := parseLevel(a.logLevel())
	if err != nil {
		return err
	}
	a.log = newLogger(a.stderr, level)
	return nil
}

// withStore attaches a backend for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(ctx context.Context, b *sqlite.Backend) error) (err error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return err
	}
	b := sqlite.NewBackend(sqlite.WithLogger(a.log))
	if err := b.Attach(cfg); err != nil {
		return err
	}
	defer func() {
		if derr := b.Detach(); derr != nil && err == nil {
			err = derr
		}
	}()
	return fn(ctx, b)
}

// exactArgs is cobra.ExactArgs reported as a validation failure.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", types.ErrValidation, err)
		}
		return nil
	}
}

// parseID reads a positive record id from a command argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid id %q", types.ErrValidation, arg)
	}
	return id, nil
}

// errIndexesUnhealthy is returned by doctor when drift remains.
var errIndexesUnhealthy = errors.New("full-text indexes are out of sync with their tables; run doctor --fix")
