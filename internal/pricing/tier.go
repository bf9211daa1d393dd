// Package pricing splits legacy price facts into the wholesale and retail tiers
// and converts amounts to integer minor units.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// WholesaleRatio is applied to the retail price when only one price fact exists.
var WholesaleRatio = decimal.RequireFromString("0.6")

// Fact is one raw decimal value attached to a legacy entity.
type Fact struct {
	EntityID    int64
	AttributeID int
	Amount      decimal.Decimal
}

// Tiers holds both classified prices; a zero value means absent.
type Tiers struct {
	Wholesale decimal.Decimal
	Retail    decimal.Decimal
	// Derived is set when Wholesale came from the ratio fallback rather than a fact.
	Derived bool
}

func (t Tiers) HasRetail() bool    { return t.Retail.IsPositive() }
func (t Tiers) HasWholesale() bool { return t.Wholesale.IsPositive() }

// Classify picks the tiers from the facts of one entity:
// the highest positive amount is retail, the second highest wholesale.
// With a single fact wholesale falls back to floor(retail * 0.6), in whole
// currency units, and the result is marked Derived.
// Facts past the top two are ignored.
func Classify(facts []Fact) Tiers {
	amounts := make([]decimal.Decimal, 0, len(facts))
	for _, f := range facts {
		if f.Amount.IsPositive() {
			amounts = append(amounts, f.Amount)
		}
	}
	sort.SliceStable(amounts, func(i, j int) bool { return amounts[i].GreaterThan(amounts[j]) })

	switch len(amounts) {
	case 0:
		return Tiers{}
	case 1:
		return Tiers{
			Retail:    amounts[0],
			Wholesale: amounts[0].Mul(WholesaleRatio).Floor(),
			Derived:   true,
		}
	default:
		return Tiers{Retail: amounts[0], Wholesale: amounts[1]}
	}
}

// ClassifyAmounts is Classify over bare amounts.
func ClassifyAmounts(amounts ...decimal.Decimal) Tiers {
	facts := make([]Fact, len(amounts))
	for i, a := range amounts {
		facts[i] = Fact{Amount: a}
	}
	return Classify(facts)
}
