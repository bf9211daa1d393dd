// Package discount evaluates time-windowed discounts. Whether a discount is
// active is derived from its window and the time of the call, never stored.
package discount

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/shopspring/decimal"
)

type Type string

const (
	Percentage Type = "percentage"
	Fixed      Type = "fixed"
)

type State string

const (
	Scheduled State = "scheduled"
	Active    State = "active"
	Expired   State = "expired"
)

var (
	ErrInvalidType   = errors.New("discount: type must be percentage or fixed")
	ErrInvalidValue  = errors.New("discount: value must be > 0 (and <= 100 for percentage)")
	ErrInvalidWindow = errors.New("discount: start must not be after end")
	ErrInvalidStore  = errors.New("discount: unknown store")
)

var hundred = decimal.NewFromInt(100)

type Discount struct {
	ID       string
	Name     string
	Type     Type
	Value    decimal.Decimal
	StartsAt time.Time
	EndsAt   time.Time
	Stores   []channel.Channel
	Products []string // variant ids
}

func (d Discount) Validate() error {
	switch d.Type {
	case Percentage:
		if !d.Value.IsPositive() || d.Value.GreaterThan(hundred) {
			return ErrInvalidValue
		}
	case Fixed:
		if !d.Value.IsPositive() {
			return ErrInvalidValue
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}
	if d.StartsAt.After(d.EndsAt) {
		return ErrInvalidWindow
	}
	for _, s := range d.Stores {
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidStore, s)
		}
	}
	return nil
}

// StateAt places now against the window; both ends are inclusive.
func (d Discount) StateAt(now time.Time) State {
	switch {
	case now.Before(d.StartsAt):
		return Scheduled
	case now.After(d.EndsAt):
		return Expired
	default:
		return Active
	}
}

// AppliesTo reports whether the discount is active at now for the variant on ch.
func (d Discount) AppliesTo(variantID string, ch channel.Channel, now time.Time) bool {
	return d.StateAt(now) == Active &&
		slices.Contains(d.Stores, ch) &&
		slices.Contains(d.Products, variantID)
}

// Savings is what the discount takes off original; never more than original.
func (d Discount) Savings(original decimal.Decimal) decimal.Decimal {
	var s decimal.Decimal
	switch d.Type {
	case Percentage:
		s = original.Mul(d.Value).Div(hundred)
	case Fixed:
		s = decimal.Min(d.Value, original)
	}
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

type Preview struct {
	DiscountID string
	Type       Type
	Original   decimal.Decimal
	Savings    decimal.Decimal
	Final      decimal.Decimal
}

// CalculatePreview applies the first discount, in list order, that is active
// for the variant on ch. Discounts do not stack. ok is false when none applies.
func CalculatePreview(discounts []Discount, variantID string, ch channel.Channel, original decimal.Decimal, now time.Time) (p Preview, ok bool) {
	for _, d := range discounts {
		if !d.AppliesTo(variantID, ch, now) {
			continue
		}
		savings := d.Savings(original)
		final := original.Sub(savings)
		if final.IsNegative() {
			final = decimal.Zero
		}
		return Preview{
			DiscountID: d.ID,
			Type:       d.Type,
			Original:   original,
			Savings:    savings,
			Final:      final,
		}, true
	}
	return Preview{Original: original, Final: original}, false
}
