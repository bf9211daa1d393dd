package products

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bartek5186/catalogsync/internal/grouping"
	"github.com/bartek5186/catalogsync/internal/pricing"
	"github.com/bartek5186/catalogsync/internal/rows"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Legacy export files, all required.
const (
	EntityFile  = "catalog_product_entity.csv"
	DecimalFile = "catalog_product_entity_decimal.csv"
	VarcharFile = "catalog_product_entity_varchar.csv"
	TextFile    = "catalog_product_entity_text.csv"
	StockFile   = "cataloginventory_stock_item.csv"
)

const defaultNameAttribute = 73

var defaultDescriptions = []int{75, 76}

type Config struct {
	ExportDir             string `json:"export_dir"`
	NameAttributeID       int    `json:"name_attribute_id"`
	DescriptionAttributes []int  `json:"description_attribute_ids"`
	PriceAttributes       []int  `json:"price_attribute_ids"` // empty: every decimal fact is a price
	Charset               string `json:"charset,omitempty"`
}

func (c *Config) fill() {
	if c.NameAttributeID == 0 {
		c.NameAttributeID = defaultNameAttribute
	}
	if len(c.DescriptionAttributes) == 0 {
		c.DescriptionAttributes = defaultDescriptions
	}
}

// Paths lists the export files in a fixed order.
func (c Config) Paths() []string {
	out := make([]string, 0, 5)
	for _, f := range []string{EntityFile, DecimalFile, VarcharFile, TextFile, StockFile} {
		out = append(out, filepath.Join(c.ExportDir, f))
	}
	return out
}

// Export is a legacy catalog dump joined by entity id.
type Export struct {
	Rows      []grouping.Row
	Inventory map[int64]grouping.Inventory
	Text      map[int64]grouping.Text
	Skipped   int // rows dropped while reading
}

// Load reads the five export files of cfg.ExportDir.
func Load(cfg Config, log zerolog.Logger) (*Export, error) {
	cfg.fill()
	exp := &Export{
		Inventory: map[int64]grouping.Inventory{},
		Text:      map[int64]grouping.Text{},
	}
	path := func(name string) string { return filepath.Join(cfg.ExportDir, name) }

	facts, err := loadFacts(path(DecimalFile), cfg, exp)
	if err != nil {
		return nil, err
	}
	if err := loadEntities(path(EntityFile), cfg, exp, facts); err != nil {
		return nil, err
	}
	if err := loadNames(path(VarcharFile), cfg, exp); err != nil {
		return nil, err
	}
	if err := loadDescriptions(path(TextFile), cfg, exp); err != nil {
		return nil, err
	}
	if err := loadStock(path(StockFile), cfg, exp); err != nil {
		return nil, err
	}

	log.Info().
		Int("entities", len(exp.Rows)).
		Int("with_stock", len(exp.Inventory)).
		Int("with_text", len(exp.Text)).
		Int("skipped_rows", exp.Skipped).
		Msg("legacy export loaded")
	return exp, nil
}

// each reads path and hands every complete record to fn; fn returning false counts a skip.
func each(path string, cfg Config, required []string, exp *Export, fn func(rows.Record) bool) error {
	opts := rows.Options{
		Charset:  cfg.Charset,
		Required: required,
		OnSkip:   func(int, error) { exp.Skipped++ },
	}
	for rec, err := range rows.All(path, opts) {
		if err != nil {
			return err
		}
		if !fn(rec) {
			exp.Skipped++
		}
	}
	return nil
}

func loadFacts(path string, cfg Config, exp *Export) (map[int64][]pricing.Fact, error) {
	facts := map[int64][]pricing.Fact{}
	err := each(path, cfg, []string{"entity_id", "attribute_id", "value"}, exp, func(rec rows.Record) bool {
		id, err1 := strconv.ParseInt(rec["entity_id"], 10, 64)
		attr, err2 := strconv.Atoi(rec["attribute_id"])
		if err1 != nil || err2 != nil {
			return false
		}
		if len(cfg.PriceAttributes) > 0 && !slices.Contains(cfg.PriceAttributes, attr) {
			return true
		}
		amount, err := pricing.ParseAmount(rec["value"])
		if err != nil {
			return false
		}
		if !amount.IsPositive() {
			return true
		}
		facts[id] = append(facts[id], pricing.Fact{EntityID: id, AttributeID: attr, Amount: amount})
		return true
	})
	return facts, err
}

func loadEntities(path string, cfg Config, exp *Export, facts map[int64][]pricing.Fact) error {
	return each(path, cfg, []string{"entity_id", "sku"}, exp, func(rec rows.Record) bool {
		id, err := strconv.ParseInt(rec["entity_id"], 10, 64)
		if err != nil {
			return false
		}
		exp.Rows = append(exp.Rows, grouping.Row{
			EntityID: id,
			SKU:      rec["sku"],
			TypeID:   rec["type_id"],
			Facts:    facts[id],
		})
		return true
	})
}

func loadNames(path string, cfg Config, exp *Export) error {
	return each(path, cfg, []string{"entity_id", "attribute_id"}, exp, func(rec rows.Record) bool {
		id, attr, ok := entityAttr(rec)
		if !ok {
			return false
		}
		if attr != cfg.NameAttributeID || rec["value"] == "" {
			return true
		}
		t := exp.Text[id]
		if t.Name == "" {
			t.Name = rec["value"]
			exp.Text[id] = t
		}
		return true
	})
}

// loadDescriptions keeps, per entity, the first non-empty value in configured attribute order.
func loadDescriptions(path string, cfg Config, exp *Export) error {
	byAttr := map[int64]map[int]string{}
	err := each(path, cfg, []string{"entity_id", "attribute_id"}, exp, func(rec rows.Record) bool {
		id, attr, ok := entityAttr(rec)
		if !ok {
			return false
		}
		if !slices.Contains(cfg.DescriptionAttributes, attr) || rec["value"] == "" {
			return true
		}
		m := byAttr[id]
		if m == nil {
			m = map[int]string{}
			byAttr[id] = m
		}
		if _, seen := m[attr]; !seen {
			m[attr] = rec["value"]
		}
		return true
	})
	if err != nil {
		return err
	}
	for id, m := range byAttr {
		for _, attr := range cfg.DescriptionAttributes {
			if v := m[attr]; v != "" {
				t := exp.Text[id]
				t.Description = v
				exp.Text[id] = t
				break
			}
		}
	}
	return nil
}

func loadStock(path string, cfg Config, exp *Export) error {
	return each(path, cfg, []string{"product_id", "qty"}, exp, func(rec rows.Record) bool {
		id, err := strconv.ParseInt(rec["product_id"], 10, 64)
		if err != nil {
			return false
		}
		qty, err := decimal.NewFromString(rec["qty"])
		if err != nil {
			return false
		}
		exp.Inventory[id] = grouping.Inventory{
			Qty:     int(qty.IntPart()),
			InStock: flag(rec["is_in_stock"]),
		}
		return true
	})
}

func entityAttr(rec rows.Record) (int64, int, bool) {
	id, err := strconv.ParseInt(rec["entity_id"], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	attr, err := strconv.Atoi(rec["attribute_id"])
	if err != nil {
		return 0, 0, false
	}
	return id, attr, true
}

func flag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "y", "yes", "true":
		return true
	}
	return false
}
