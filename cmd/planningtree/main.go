package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/planningtree/internal/app"
	"github.com/alexanderramin/planningtree/internal/cli"
	"github.com/alexanderramin/planningtree/internal/config"
	"github.com/alexanderramin/planningtree/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	a := &cli.App{
		// The store is opened after flag parsing so --db, --backend and
		// friends take effect.
		Open: func(ctx context.Context, flags *pflag.FlagSet) (service.PlanStore, io.Closer, error) {
			loader := config.NewLoader()
			if err := loader.BindFlags(flags); err != nil {
				return nil, nil, err
			}
			cfg, err := loader.Load()
			if err != nil {
				return nil, nil, err
			}
			rt, err := app.Open(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			return rt.Store, rt, nil
		},
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
	defer a.Close()

	return cli.NewRootCmd(a).Execute()
}
