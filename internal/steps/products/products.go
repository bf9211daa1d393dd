// Package products imports the legacy catalog export: it groups the entities by
// SKU, classifies their prices into tiers, writes the price ledger and seeds the
// shared stock of every priced variant.
package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bartek5186/catalogsync/internal/catalog"
	"github.com/bartek5186/catalogsync/internal/grouping"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/bartek5186/catalogsync/internal/steps"
	"github.com/bartek5186/catalogsync/internal/stock"
	"github.com/rs/zerolog"
)

const Name = "products"

type Step struct {
	env     steps.Env
	log     zerolog.Logger
	cfg     Config
	journal *steps.Journal
	issues  *steps.Issues
	stock   *stock.Service
}

func (s *Step) Name() string { return Name }

func (s *Step) Run(ctx context.Context) (ledger.Tally, error) {
	sum, err := steps.Checksum(s.cfg.Paths()...)
	if err != nil {
		return ledger.Tally{}, err
	}
	run, err := s.journal.Begin(ctx, Name, s.cfg.ExportDir, sum, s.env.SkipDone)
	if errors.Is(err, steps.ErrAlreadyDone) {
		return ledger.Tally{}, nil
	}
	if err != nil {
		return ledger.Tally{}, err
	}

	t, meta, err := s.run(ctx)
	run.Finish(ctx, t, err, meta)
	return t, err
}

func (s *Step) run(ctx context.Context) (ledger.Tally, map[string]any, error) {
	exp, err := Load(s.cfg, s.log)
	if err != nil {
		return ledger.Tally{}, nil, err
	}
	res := grouping.New(s.log).Group(exp.Rows, exp.Inventory, exp.Text)
	variants := res.Variants()
	fmt.Fprintf(s.env.Out, "%s: %d entities, %d products, %d variants, %d rows skipped\n",
		Name, len(exp.Rows), len(res.Keys), len(variants), len(res.Skips)+exp.Skipped)

	if err := s.issues.Reset(ctx); err != nil {
		return ledger.Tally{}, nil, fmt.Errorf("reset link issues: %w", err)
	}

	qty := make(map[string]int, len(variants))
	inputs := make([]ledger.Input, 0, len(variants))
	for _, v := range variants {
		qty[v.SKU] = v.StockQty
		inputs = append(inputs, ledger.Input{SKU: v.SKU, Tiers: v.Tiers()})
	}

	w := ledger.NewWriter(catalog.NewGormStore(s.env.DB), s.log, ledger.Options{
		Currency:      s.env.Cfg.Currency,
		WholesaleList: s.env.Cfg.WholesalePriceList,
		OnMiss:        s.issues.OnMiss(ctx),
		OnWritten: func(ctx context.Context, in ledger.Input, variantID string) {
			if err := s.stock.SetQuantity(ctx, variantID, qty[in.SKU]); err != nil {
				s.log.Error().Err(err).Str("sku", in.SKU).Msg("cannot set shared stock")
			}
		},
	})
	t := w.WriteAll(ctx, inputs)

	meta := map[string]any{
		"entities":     len(exp.Rows),
		"products":     len(res.Keys),
		"variants":     len(variants),
		"parse_skips":  len(res.Skips) + exp.Skipped,
		"match_misses": s.issues.Count(),
	}
	return t, meta, nil
}

func factory(env steps.Env, raw json.RawMessage) (steps.Step, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.ExportDir == "" {
		return nil, errors.New("products: export_dir is empty")
	}
	cfg.fill()
	return &Step{
		env:     env,
		log:     env.Log,
		cfg:     cfg,
		journal: steps.NewJournal(env.DB, env.Log),
		issues:  steps.NewIssues(env.DB, env.Log, Name),
		stock:   stock.NewService(env.DB, env.Log),
	}, nil
}

func init() {
	steps.Register(Name, factory)
}
