// Package pricelists applies the wholesale carry-over file to the wholesale price list.
package pricelists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bartek5186/catalogsync/internal/catalog"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/bartek5186/catalogsync/internal/steps"
	"github.com/rs/zerolog"
)

const Name = "price-lists"

type Config struct {
	CarryOverPath string `json:"carryover_path"`
}

type Step struct {
	env     steps.Env
	log     zerolog.Logger
	cfg     Config
	journal *steps.Journal
	issues  *steps.Issues
}

func (s *Step) Name() string { return Name }

func (s *Step) Run(ctx context.Context) (ledger.Tally, error) {
	sum, err := steps.Checksum(s.cfg.CarryOverPath)
	if err != nil {
		return ledger.Tally{}, err
	}
	run, err := s.journal.Begin(ctx, Name, s.cfg.CarryOverPath, sum, s.env.SkipDone)
	if errors.Is(err, steps.ErrAlreadyDone) {
		return ledger.Tally{}, nil
	}
	if err != nil {
		return ledger.Tally{}, err
	}

	t, err := s.run(ctx)
	run.Finish(ctx, t, err, nil)
	return t, err
}

func (s *Step) run(ctx context.Context) (ledger.Tally, error) {
	entries, err := ledger.ReadCarryOver(s.cfg.CarryOverPath)
	if err != nil {
		return ledger.Tally{}, err
	}
	if err := s.issues.Reset(ctx); err != nil {
		return ledger.Tally{}, fmt.Errorf("reset link issues: %w", err)
	}
	fmt.Fprintf(s.env.Out, "%s: %d wholesale entries\n", Name, len(entries))

	w := ledger.NewWriter(catalog.NewGormStore(s.env.DB), s.log, ledger.Options{
		Currency:      s.env.Cfg.Currency,
		WholesaleList: s.env.Cfg.WholesalePriceList,
		OnMiss:        s.issues.OnMiss(ctx),
	})
	return w.ApplyPriceList(ctx, entries), nil
}

func factory(env steps.Env, raw json.RawMessage) (steps.Step, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.CarryOverPath == "" {
		return nil, errors.New("price-lists: carryover_path is empty")
	}
	return &Step{
		env:     env,
		log:     env.Log,
		cfg:     cfg,
		journal: steps.NewJournal(env.DB, env.Log),
		issues:  steps.NewIssues(env.DB, env.Log, Name),
	}, nil
}

func init() {
	steps.Register(Name, factory)
}
