package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	conf "github.com/bartek5186/catalogsync/internal/config"
	"github.com/bartek5186/catalogsync/internal/db"
	logs "github.com/bartek5186/catalogsync/internal/logs"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	_ "github.com/bartek5186/catalogsync/internal/steps/pricelists"
	_ "github.com/bartek5186/catalogsync/internal/steps/prices"
	_ "github.com/bartek5186/catalogsync/internal/steps/products"
	_ "github.com/bartek5186/catalogsync/internal/steps/variants"
)

// override with -ldflags "-X 'main.ver=1.0.1'"
var ver = "1.0.0"

// app is what every command shares once the root pre-run opened it.
type app struct {
	dir     string
	cfgPath string
	verbose bool

	log zerolog.Logger
	cfg *conf.Config
	dbh *db.Handle
}

func (a *app) open() error {
	if a.dir == "" {
		dir, err := conf.AppDir()
		if err != nil {
			return err
		}
		a.dir = dir
	}
	a.log = logs.New(filepath.Join(a.dir, "app.log"), a.verbose)

	if a.cfgPath == "" {
		a.cfgPath = filepath.Join(a.dir, "config.json")
	}
	cfg, firstRun, err := conf.LoadOrCreate(a.cfgPath)
	if err != nil {
		return err
	}
	if firstRun {
		a.log.Info().Str("path", a.cfgPath).Msg("default config written")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	dbh, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := dbh.Migrate(); err != nil {
		_ = dbh.Close()
		return fmt.Errorf("migrate database: %w", err)
	}
	a.dbh = dbh
	a.log.Debug().Str("dialect", dbh.Dialect).Msg("database ready")
	return nil
}

func (a *app) close() {
	if a.dbh != nil {
		_ = a.dbh.Close()
		a.dbh = nil
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "catalogsync",
		Short:         "Reconcile the legacy catalog export into the price ledger of both storefronts",
		Version:       ver,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.dir, "home", "", "application directory (default $CATALOGSYNC_HOME or the user config dir)")
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default <home>/config.json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "also write logs to stdout")

	root.AddCommand(newStepCmds(a)...)
	root.AddCommand(
		newWatchCmd(a),
		newReportCmd(a),
		newStockCmd(a),
		newDiscountPreviewCmd(a),
		newDiscountCmd(a),
		newSwatchCmd(a),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
