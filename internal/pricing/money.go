package pricing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	decimalComma = regexp.MustCompile(`^,[0-9]{1,2}$`)
)

// ToMinor converts an amount to integer cents, rounding half away from zero.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// ParseAmount reads a price as found in legacy exports: an optional currency
// sign and thousands separators are tolerated. When both ',' and '.' appear
// the later one is the decimal separator. A lone comma is a decimal comma only
// when one or two digits follow it; anything else is ambiguous and rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimLeft(v, "$€£")
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Zero, nil
	}
	comma, dot := strings.LastIndex(v, ","), strings.LastIndex(v, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		v = strings.ReplaceAll(v, ",", "")
	case comma >= 0:
		if strings.Count(v, ",") > 1 || !decimalComma.MatchString(v[comma:]) {
			return decimal.Zero, fmt.Errorf("invalid amount %q: ambiguous comma", s)
		}
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
