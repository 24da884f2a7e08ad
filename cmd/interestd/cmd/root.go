// Package cmd implements the interestd command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/interest-engine/api"
	"github.com/warp/interest-engine/config"
	"github.com/warp/interest-engine/engine"
	"github.com/warp/interest-engine/engine/store"
	"github.com/warp/interest-engine/store/postgres"
	"github.com/warp/interest-engine/store/sqlite"
)

// app is the state shared by every subcommand once the config is loaded.
type app struct {
	cfgFile string
	cfg     *config.Config
	log     *logrus.Logger
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "interestd",
		Short: "Interest calculation with monetary correction",
		Long: `interestd computes simple and compound interest over a date range,
optionally correcting the principal by a stored index series first.

Commands:
  serve      - HTTP API
  calc       - One calculation, printed to stdout
  indices    - List stored index series
  import     - Run the configured import sources once
  scenarios  - Load demo index series`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./config/config.yaml)")

	root.AddCommand(
		newServeCmd(a),
		newCalcCmd(a),
		newIndicesCmd(a),
		newImportCmd(a),
		newScenariosCmd(a),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func (a *app) load(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadFromFile(a.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	return nil
}

// openStore connects the configured driver. The returned close func is
// never nil.
func openStore(ctx context.Context, c config.StoreConfig) (engine.IndexWriter, func() error, error) {
	switch c.Driver {
	case "memory":
		return store.NewMemory(), func() error { return nil }, nil
	case "sqlite":
		if c.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(c.DSN), 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		s, err := sqlite.New(c.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, s.Close, nil
	case "postgres":
		s, err := postgres.New(ctx, c.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
	}
}

// newHandler opens the store and wires the API handler with the
// configured calculation defaults.
func (a *app) newHandler(ctx context.Context) (*api.Handler, func() error, error) {
	s, closeStore, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	h := api.NewHandler(s, a.log)
	h.Formulas.DayBase = a.cfg.Calc.DayBase
	h.Formulas.DivideBy = a.cfg.Calc.DivideBy
	return h, closeStore, nil
}
