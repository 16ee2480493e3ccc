package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/alexanderramin/planningtree/internal/config"
	"github.com/alexanderramin/planningtree/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is set at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// App holds what CLI commands need. Store may be preset (tests); otherwise
// Open builds it once flags are parsed.
type App struct {
	Store service.PlanStore

	// Open resolves configuration from the parsed persistent flags and
	// returns a loaded store plus a closer for its resources.
	Open func(ctx context.Context, flags *pflag.FlagSet) (service.PlanStore, io.Closer, error)

	// IsInteractive reports whether prompts may be shown. Nil means never.
	IsInteractive func() bool

	closer io.Closer
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// skipStore marks commands that run without opening the store.
const skipStore = "skip-store"

// NewRootCmd creates the top-level "planningtree" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "planningtree",
		Short:         "Plans as trees: outline, highlight and prune what you need to do",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipStore] != "" {
				return nil
			}
			return app.openStore(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.String(config.KeyConfig, "", "Config file (default ./planningtree.yaml or ~/.planningtree/planningtree.yaml)")
	pf.String(config.KeyBackend, string(config.BackendSQLite), "Storage backend: sqlite or yaml")
	pf.String(config.KeyDB, "", "Data file path (default ~/.planningtree/planningtree.db, or plans.yaml for yaml)")
	pf.String(config.KeyLogFile, "", "Append operation logs to this file")
	pf.String(config.KeyLogLevel, "info", "Log level: debug, info, warn or error")
	pf.Bool(config.KeyResetOnCorrupt, false, "Start with an empty store when stored data cannot be loaded")

	root.AddCommand(
		newPlanCmd(app),
		newNodeCmd(app),
		newBrowseCmd(app),
		newVersionCmd(),
	)

	return root
}

func (a *App) openStore(cmd *cobra.Command) error {
	if a.Store == nil {
		if a.Open == nil {
			return fmt.Errorf("no plan store configured")
		}
		store, closer, err := a.Open(cmd.Context(), cmd.Root().PersistentFlags())
		if err != nil {
			return err
		}
		a.Store, a.closer = store, closer
	}

	if err := a.Store.LoadErr(); err != nil {
		w := cmd.ErrOrStderr()
		if a.Store.State() == service.StateReady {
			fmt.Fprintf(w, "warning: %v\nwarning: starting with an empty store; the next change replaces the stored data\n", err)
		} else {
			fmt.Fprintf(w, "warning: %v\nwarning: plans are read-only; rerun with --%s to start over\n", err, config.KeyResetOnCorrupt)
		}
	}
	return nil
}

// Close releases whatever Open acquired. It is safe to call more than once.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "planningtree %s\n", Version)
			return nil
		},
	}
}
