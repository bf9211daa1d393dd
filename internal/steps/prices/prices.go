// Package prices imports the per-channel price CSV (sku, sales_channel, amount).
// Retail rows are written to the ledger directly. Wholesale rows are resolved to
// variant ids and handed to the price-lists step through a carry-over file.
package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bartek5186/catalogsync/internal/catalog"
	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/bartek5186/catalogsync/internal/pricing"
	"github.com/bartek5186/catalogsync/internal/rows"
	"github.com/bartek5186/catalogsync/internal/steps"
	"github.com/rs/zerolog"
)

const Name = "prices"

type Config struct {
	CSVPath       string `json:"csv_path"`
	CarryOverPath string `json:"carryover_path"`
	Charset       string `json:"charset,omitempty"`
}

type Step struct {
	env     steps.Env
	log     zerolog.Logger
	cfg     Config
	store   *catalog.GormStore
	journal *steps.Journal
	issues  *steps.Issues
}

func (s *Step) Name() string { return Name }

func (s *Step) Run(ctx context.Context) (ledger.Tally, error) {
	sum, err := steps.Checksum(s.cfg.CSVPath)
	if err != nil {
		return ledger.Tally{}, err
	}
	run, err := s.journal.Begin(ctx, Name, s.cfg.CSVPath, sum, s.env.SkipDone)
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
	if err := s.issues.Reset(ctx); err != nil {
		return ledger.Tally{}, nil, fmt.Errorf("reset link issues: %w", err)
	}

	retail, wholesale, skipped, err := s.read()
	if err != nil {
		return ledger.Tally{}, nil, err
	}
	fmt.Fprintf(s.env.Out, "%s: %d retail rows, %d wholesale rows, %d rows skipped\n",
		Name, len(retail), len(wholesale), skipped)

	w := ledger.NewWriter(s.store, s.log, ledger.Options{
		Currency:      s.env.Cfg.Currency,
		WholesaleList: s.env.Cfg.WholesalePriceList,
		OnMiss:        s.issues.OnMiss(ctx),
	})
	t := w.WriteAll(ctx, retail)

	var carry []ledger.CarryOver
	for _, in := range wholesale {
		v, err := s.store.VariantBySKU(ctx, in.SKU)
		switch {
		case errors.Is(err, catalog.ErrVariantNotFound):
			s.log.Warn().Str("sku", in.SKU).Msg("no catalog variant for wholesale price, skipped")
			s.issues.Record(ctx, in.SKU, steps.ReasonVariantNotFound, err.Error())
			t.Skipped++
		case err != nil:
			s.log.Error().Err(err).Str("sku", in.SKU).Msg("variant lookup failed")
			t.Errors++
		default:
			carry = append(carry, ledger.NewCarryOver(v.ID, in.Tiers.Wholesale))
			t.Created++
		}
	}
	if err := ledger.WriteCarryOver(s.cfg.CarryOverPath, carry); err != nil {
		return t, nil, fmt.Errorf("write carry-over: %w", err)
	}
	s.log.Info().Int("entries", len(carry)).Str("path", s.cfg.CarryOverPath).Msg("wholesale carry-over written")

	meta := map[string]any{
		"retail_rows":    len(retail),
		"wholesale_rows": len(wholesale),
		"carried_over":   len(carry),
		"parse_skips":    skipped,
	}
	return t, meta, nil
}

// read splits the CSV into retail ledger inputs and wholesale amounts.
func (s *Step) read() (retail, wholesale []ledger.Input, skipped int, err error) {
	opts := rows.Options{
		Charset:  s.cfg.Charset,
		Required: []string{"sku", "sales_channel", "amount"},
		OnSkip:   func(int, error) { skipped++ },
	}
	for rec, err := range rows.All(s.cfg.CSVPath, opts) {
		if err != nil {
			return nil, nil, 0, err
		}
		ch, ok := channel.Parse(rec["sales_channel"])
		if !ok {
			s.log.Debug().Str("sku", rec["sku"]).Str("sales_channel", rec["sales_channel"]).Msg("skip: unknown channel")
			skipped++
			continue
		}
		amount, err := pricing.ParseAmount(rec["amount"])
		if err != nil || !amount.IsPositive() {
			s.log.Debug().Str("sku", rec["sku"]).Str("amount", rec["amount"]).Msg("skip: bad amount")
			skipped++
			continue
		}
		switch ch {
		case channel.Retail:
			retail = append(retail, ledger.Input{SKU: rec["sku"], Tiers: pricing.Tiers{Retail: amount}})
		case channel.Wholesale:
			wholesale = append(wholesale, ledger.Input{SKU: rec["sku"], Tiers: pricing.Tiers{Wholesale: amount}})
		}
	}
	return retail, wholesale, skipped, nil
}

func factory(env steps.Env, raw json.RawMessage) (steps.Step, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.CSVPath == "" || cfg.CarryOverPath == "" {
		return nil, errors.New("prices: csv_path and carryover_path are required")
	}
	return &Step{
		env:     env,
		log:     env.Log,
		cfg:     cfg,
		store:   catalog.NewGormStore(env.DB),
		journal: steps.NewJournal(env.DB, env.Log),
		issues:  steps.NewIssues(env.DB, env.Log, Name),
	}, nil
}

func init() {
	steps.Register(Name, factory)
}
