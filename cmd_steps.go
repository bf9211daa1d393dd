package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	conf "github.com/bartek5186/catalogsync/internal/config"
	"github.com/bartek5186/catalogsync/internal/report"
	"github.com/bartek5186/catalogsync/internal/steps"
	syncer "github.com/bartek5186/catalogsync/internal/syncer"
	"github.com/spf13/cobra"
)

var stepHelp = map[string]string{
	"products":    "Import the legacy export: group SKUs, write both price tiers, seed shared stock",
	"prices":      "Import the per-channel price CSV; wholesale rows go to the carry-over file",
	"price-lists": "Apply the wholesale carry-over file to the wholesale price list",
	"variants":    "Mirror platform product variants into the local catalog",
}

// newStepCmds makes one command per registered step. A step's error tally
// never changes the exit code; only fatal errors do.
func newStepCmds(a *app) []*cobra.Command {
	var out []*cobra.Command
	for _, name := range steps.Names() {
		out = append(out, &cobra.Command{
			Use:   name,
			Short: stepHelp[name],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := steps.Build(name, a.env(cmd))
				if err != nil {
					return err
				}
				t, err := st.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, t)
				return nil
			},
		})
	}
	return out
}

func (a *app) env(cmd *cobra.Command) steps.Env {
	return steps.Env{Log: a.log, DB: a.dbh.DB, Cfg: a.cfg, Out: cmd.OutOrStdout()}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the configured steps every sync interval, skipping unchanged inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := syncer.New(a.log, a.cfg, a.dbh.DB, cmd.OutOrStdout())
			if err := s.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalogsync %s watching %v, Ctrl+C to stop, SIGHUP reloads config\n", ver, a.cfg.Watch)

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			for {
				select {
				case <-cmd.Context().Done():
					s.Stop()
					return nil
				case <-hup:
					cfg, err := a.reloadConfig()
					if err != nil {
						a.log.Error().Err(err).Msg("watch: config reload failed, keeping the current config")
						continue
					}
					s.UpdateConfig(cfg)
				}
			}
		},
	}
}

// reloadConfig rereads the config file. The database url must not change
// under a running watch.
func (a *app) reloadConfig() (*conf.Config, error) {
	cfg, _, err := conf.LoadOrCreate(a.cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL != a.cfg.DatabaseURL {
		return nil, errors.New("database_url changed, restart watch to apply it")
	}
	a.cfg = cfg
	return cfg, nil
}

func newReportCmd(a *app) *cobra.Command {
	var runs int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print ledger row counts, open issues and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := report.New(a.dbh.DB, a.dbh.Dialect)
			if err != nil {
				return err
			}
			s, err := r.Build(cmd.Context(), runs)
			if err != nil {
				return err
			}
			return s.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 10, "number of recent import runs to list")
	return cmd
}
