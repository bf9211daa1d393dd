package db

import (
	"fmt"
)

// Migrate creates or updates the schema.
// uniq_price_tier (price_set_id, channel, currency_code) and uniq_issue_key (sku, reason)
// come from model tags, so a tier or an issue can never be stored twice.
func (h *Handle) Migrate() error {
	gdb := h.DB

	if err := gdb.AutoMigrate(
		&Product{},
		&ProductVariant{},
		&PriceSet{},
		&PriceList{},
		&Price{},
		&VariantPriceSet{},
		&StockRecord{},
		&Discount{},
		&Swatch{},
		&ImportRun{},
		&LinkIssue{},
	); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}
	return nil
}
