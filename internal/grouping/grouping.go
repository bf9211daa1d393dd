// Package grouping turns flat legacy product rows into products and their variants.
package grouping

import (
	"strings"

	"github.com/bartek5186/catalogsync/internal/pricing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

const groupedType = "grouped"

// Row is one legacy catalog entity as exported.
type Row struct {
	EntityID int64
	SKU      string
	TypeID   string
	Facts    []pricing.Fact
}

// Inventory is the stock fact of one entity.
type Inventory struct {
	Qty     int
	InStock bool
}

// Text is the name and description facts of one entity.
type Text struct {
	Name        string
	Description string
}

type Variant struct {
	EntityID    int64
	SKU         string
	Code        string // SKU segments after the product key
	Name        string
	Description string
	Retail      decimal.Decimal
	Wholesale   decimal.Decimal
	Derived     bool // wholesale computed from retail
	StockQty    int
	InStock     bool
}

// Eligible reports whether the variant can be imported: it needs a retail price and stock.
func (v Variant) Eligible() bool {
	return v.Retail.IsPositive() && v.StockQty > 0
}

func (v Variant) Tiers() pricing.Tiers {
	return pricing.Tiers{Retail: v.Retail, Wholesale: v.Wholesale, Derived: v.Derived}
}

type Group struct {
	Key      string // first two SKU segments, e.g. BA_CTT
	BaseName string
	Variants []Variant
}

// Skip records a row left out of the result and why.
type Skip struct {
	EntityID int64
	SKU      string
	Reason   string
}

const (
	SkipGrouped    = "grouped_type"
	SkipShortSKU   = "sku_segments"
	SkipIneligible = "ineligible"
)

type Result struct {
	Groups map[string]*Group
	Keys   []string // group keys in first-seen order
	Skips  []Skip
}

// Variants returns every grouped variant, groups in first-seen order.
func (r *Result) Variants() []Variant {
	var out []Variant
	for _, k := range r.Keys {
		out = append(out, r.Groups[k].Variants...)
	}
	return out
}

type Matcher struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Matcher {
	return &Matcher{log: log}
}

// Group builds product groups from rows. inv and text are keyed by entity id;
// entities missing from them get zero stock and a synthetic name.
// Two rows collapsing to the same key and variant code are both kept.
func (m *Matcher) Group(rows []Row, inv map[int64]Inventory, text map[int64]Text) *Result {
	res := &Result{Groups: map[string]*Group{}}

	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.TypeID), groupedType) {
			res.skip(row, SkipGrouped)
			continue
		}

		key, code, ok := SplitSKU(row.SKU)
		if !ok {
			m.log.Debug().Int64("entity_id", row.EntityID).Str("sku", row.SKU).Msg("skip: sku has fewer than 3 segments")
			res.skip(row, SkipShortSKU)
			continue
		}

		v := Variant{
			EntityID: row.EntityID,
			SKU:      strings.TrimSpace(row.SKU),
			Code:     code,
		}
		if st, ok := inv[row.EntityID]; ok {
			v.StockQty = max(st.Qty, 0)
			v.InStock = st.InStock
		}
		if tx, ok := text[row.EntityID]; ok {
			v.Name = clean(tx.Name)
			v.Description = clean(tx.Description)
		}
		if v.Name == "" {
			v.Name = "Product " + v.SKU
		}

		tiers := pricing.Classify(row.Facts)
		v.Retail, v.Wholesale, v.Derived = tiers.Retail, tiers.Wholesale, tiers.Derived

		if !v.Eligible() {
			m.log.Debug().
				Str("sku", v.SKU).
				Str("retail", v.Retail.String()).
				Int("qty", v.StockQty).
				Msg("skip: no retail price or no stock")
			res.skip(row, SkipIneligible)
			continue
		}

		g, ok := res.Groups[key]
		if !ok {
			g = &Group{Key: key, BaseName: BaseName(v.Name, code)}
			res.Groups[key] = g
			res.Keys = append(res.Keys, key)
		}
		g.Variants = append(g.Variants, v)
	}

	m.log.Info().
		Int("rows", len(rows)).
		Int("groups", len(res.Keys)).
		Int("skipped", len(res.Skips)).
		Msg("legacy rows grouped")
	return res
}

func (r *Result) skip(row Row, reason string) {
	r.Skips = append(r.Skips, Skip{EntityID: row.EntityID, SKU: row.SKU, Reason: reason})
}

// SplitSKU splits BA_CTT_TBBRM into the product key BA_CTT and variant code TBBRM.
// It needs at least three underscore separated segments.
func SplitSKU(sku string) (key, code string, ok bool) {
	parts := strings.Split(strings.TrimSpace(sku), "_")
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[0] + "_" + parts[1], strings.Join(parts[2:], "_"), true
}

// BaseName strips the variant code out of a variant name.
func BaseName(name, code string) string {
	base := name
	if code != "" {
		base = strings.Replace(base, code, "", 1)
	}
	base = strings.Join(strings.Fields(base), " ")
	base = strings.Trim(base, " -_/|,")
	if base == "" {
		return name
	}
	return base
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
