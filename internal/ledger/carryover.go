package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bartek5186/catalogsync/internal/pricing"
	"github.com/shopspring/decimal"
)

// CarryOver is one wholesale amount handed from the price CSV import to the price-list phase.
type CarryOver struct {
	VariantID   string
	Amount      decimal.Decimal
	AmountCents int64
}

type carryOverJSON struct {
	VariantID   string      `json:"variant_id"`
	Amount      json.Number `json:"amount"`
	AmountCents int64       `json:"amount_cents"`
}

func NewCarryOver(variantID string, amount decimal.Decimal) CarryOver {
	return CarryOver{VariantID: variantID, Amount: amount, AmountCents: pricing.ToMinor(amount)}
}

// Minor is the amount in minor units as derived from Amount.
func (c CarryOver) Minor() int64 { return pricing.ToMinor(c.Amount) }

func (c CarryOver) MarshalJSON() ([]byte, error) {
	return json.Marshal(carryOverJSON{
		VariantID:   c.VariantID,
		Amount:      json.Number(c.Amount.String()),
		AmountCents: c.AmountCents,
	})
}

func (c *CarryOver) UnmarshalJSON(b []byte) error {
	var raw carryOverJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	amount := decimal.Zero
	if raw.Amount != "" {
		d, err := decimal.NewFromString(raw.Amount.String())
		if err != nil {
			return fmt.Errorf("carry-over %s: amount: %w", raw.VariantID, err)
		}
		amount = d
	} else if raw.AmountCents != 0 {
		amount = pricing.FromMinor(raw.AmountCents)
	}
	*c = CarryOver{VariantID: raw.VariantID, Amount: amount, AmountCents: raw.AmountCents}
	return nil
}

func WriteCarryOver(path string, entries []CarryOver) error {
	if entries == nil {
		entries = []CarryOver{}
	}
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// ReadCarryOver loads the carry-over file; a missing file is an error.
func ReadCarryOver(path string) ([]CarryOver, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read carry-over: %w", err)
	}
	var entries []CarryOver
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse carry-over %s: %w", path, err)
	}
	return entries, nil
}
