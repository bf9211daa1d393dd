// Package ledger writes classified prices into the catalog price ledger.
// Every variant is written in its own transaction through deterministic ids,
// so a rerun over the same input changes nothing and a rerun over changed
// input corrects the amounts in place.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartek5186/catalogsync/internal/catalog"
	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/pricing"
	"github.com/rs/zerolog"
)

// ErrNoPrices is returned for an input that carries neither tier.
var ErrNoPrices = errors.New("ledger: no prices to write")

// Tally counts the outcome of a batch.
type Tally struct {
	Created int // variants written (inserted or corrected)
	Skipped int // match misses and empty inputs
	Errors  int // rolled back writes
}

func (t *Tally) Add(o Tally) {
	t.Created += o.Created
	t.Skipped += o.Skipped
	t.Errors += o.Errors
}

func (t Tally) String() string {
	return fmt.Sprintf("created=%d skipped=%d errors=%d", t.Created, t.Skipped, t.Errors)
}

// Input is one variant to price. VariantID, when set, skips the SKU lookup.
type Input struct {
	SKU       string
	VariantID string
	Tiers     pricing.Tiers
}

type Options struct {
	Currency      string
	WholesaleList string
	// OnMiss, when set, is called for every input whose variant is not in the catalog.
	// key is the SKU, or the variant id of a price-list entry; err tells them apart.
	OnMiss func(key string, err error)
	// OnWritten, when set, is called after a variant's prices committed.
	OnWritten func(ctx context.Context, in Input, variantID string)
}

type Writer struct {
	store catalog.Store
	log   zerolog.Logger
	opts  Options
	list  catalog.PriceList
}

func NewWriter(store catalog.Store, log zerolog.Logger, opts Options) *Writer {
	if opts.Currency == "" {
		opts.Currency = "aud"
	}
	if opts.WholesaleList == "" {
		opts.WholesaleList = "Purelinen Wholesale"
	}
	return &Writer{
		store: store,
		log:   log,
		opts:  opts,
		list: catalog.PriceList{
			ID:      catalog.PriceListID(opts.WholesaleList),
			Name:    opts.WholesaleList,
			Channel: channel.Wholesale,
		},
	}
}

// Write prices one variant: ensure its price set, upsert the retail row and the
// wholesale price-list row that are present, then link the variant to the set.
// All of it commits together or not at all.
func (w *Writer) Write(ctx context.Context, in Input) error {
	if !in.Tiers.HasRetail() && !in.Tiers.HasWholesale() {
		return ErrNoPrices
	}
	variantID, err := w.resolve(ctx, in)
	if err != nil {
		return err
	}

	var retail, wholesale *int64
	if in.Tiers.HasRetail() {
		m := pricing.ToMinor(in.Tiers.Retail)
		retail = &m
	}
	if in.Tiers.HasWholesale() {
		m := pricing.ToMinor(in.Tiers.Wholesale)
		wholesale = &m
	}
	source := catalog.SourceImport
	if in.Tiers.Derived {
		source = catalog.SourceHeuristic
	}
	if err := w.write(ctx, variantID, retail, wholesale, source); err != nil {
		return err
	}
	if w.opts.OnWritten != nil {
		w.opts.OnWritten(ctx, in, variantID)
	}
	return nil
}

// WriteAll writes inputs one after another; a failing input never stops the batch.
func (w *Writer) WriteAll(ctx context.Context, inputs []Input) Tally {
	var t Tally
	for i, in := range inputs {
		t.Add(w.count(in.SKU, w.Write(ctx, in)))
		if (i+1)%100 == 0 {
			w.log.Info().Int("done", i+1).Int("total", len(inputs)).Msg("ledger progress")
		}
	}
	return t
}

// ApplyPriceList upserts carried-over wholesale amounts under the wholesale price list.
func (w *Writer) ApplyPriceList(ctx context.Context, entries []CarryOver) Tally {
	var t Tally
	for _, e := range entries {
		minor := e.Minor()
		if e.AmountCents != 0 && e.AmountCents != minor {
			w.log.Warn().
				Str("variant_id", e.VariantID).
				Int64("amount_cents", e.AmountCents).
				Int64("computed", minor).
				Msg("amount_cents disagrees with amount, using amount")
		}
		if minor <= 0 {
			t.Skipped++
			continue
		}
		if _, err := w.store.VariantByID(ctx, e.VariantID); err != nil {
			t.Add(w.count(e.VariantID, err))
			continue
		}
		t.Add(w.count(e.VariantID, w.write(ctx, e.VariantID, nil, &minor, catalog.SourcePriceList)))
	}
	return t
}

func (w *Writer) resolve(ctx context.Context, in Input) (string, error) {
	if in.VariantID != "" {
		return in.VariantID, nil
	}
	v, err := w.store.VariantBySKU(ctx, in.SKU)
	if err != nil {
		return "", err
	}
	return v.ID, nil
}

// write upserts the tiers of one variant. wholesaleSource tags the wholesale row;
// retail rows always come from an explicit price.
func (w *Writer) write(ctx context.Context, variantID string, retail, wholesale *int64, wholesaleSource string) error {
	setID := catalog.PriceSetID(variantID)
	cur := w.opts.Currency

	return w.store.Transaction(ctx, func(tx catalog.Store) error {
		if _, err := tx.EnsurePriceSet(ctx, setID); err != nil {
			return err
		}
		if retail != nil {
			if _, err := tx.UpsertPrice(ctx, catalog.Price{
				ID:         catalog.PriceID(variantID, channel.Retail, cur),
				PriceSetID: setID,
				Channel:    channel.Retail,
				Currency:   cur,
				Amount:     *retail,
				Source:     catalog.SourceImport,
			}); err != nil {
				return err
			}
		}
		if wholesale != nil {
			if err := tx.EnsurePriceList(ctx, w.list); err != nil {
				return err
			}
			listID := w.list.ID
			kept, err := tx.UpsertPrice(ctx, catalog.Price{
				ID:          catalog.PriceID(variantID, channel.Wholesale, cur),
				PriceSetID:  setID,
				PriceListID: &listID,
				Channel:     channel.Wholesale,
				Currency:    cur,
				Amount:      *wholesale,
				Source:      wholesaleSource,
			})
			if err != nil {
				return err
			}
			if !kept {
				w.log.Debug().Str("variant_id", variantID).Msg("explicit wholesale price kept over heuristic")
			}
		}
		res, err := tx.LinkVariant(ctx, catalog.LinkID(variantID), variantID, setID)
		if err != nil {
			return err
		}
		if res == catalog.LinkRepointed {
			w.log.Info().Str("variant_id", variantID).Str("price_set_id", setID).Msg("variant link repointed")
		}
		return nil
	})
}

func (w *Writer) count(key string, err error) Tally {
	switch {
	case err == nil:
		return Tally{Created: 1}
	case errors.Is(err, catalog.ErrVariantNotFound):
		w.log.Warn().Err(err).Msg("no catalog variant, skipped")
		if w.opts.OnMiss != nil {
			w.opts.OnMiss(key, err)
		}
		return Tally{Skipped: 1}
	case errors.Is(err, ErrNoPrices):
		w.log.Debug().Str("key", key).Msg("no prices, skipped")
		return Tally{Skipped: 1}
	default:
		w.log.Error().Err(err).Str("key", key).Msg("ledger write failed, rolled back")
		return Tally{Errors: 1}
	}
}
