package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		in        []string
		retail    string
		wholesale string
		derived   bool
	}{
		{"none", nil, "0", "0", false},
		{"only non-positive", []string{"0", "-5"}, "0", "0", false},
		{"one fact", []string{"100"}, "100", "60", true},
		{"one fact floors", []string{"99.99"}, "99.99", "59", true},
		{"one fact floors to whole units", []string{"12.34"}, "12.34", "7", true},
		{"two facts", []string{"150", "90"}, "150", "90", false},
		{"two facts reversed", []string{"90", "150"}, "150", "90", false},
		{"three facts", []string{"75", "120", "10"}, "120", "75", false},
		{"zero ignored", []string{"0", "80"}, "80", "48", true},
		{"equal facts", []string{"50", "50"}, "50", "50", false},
	}
	for _, c := range cases {
		amounts := make([]decimal.Decimal, len(c.in))
		for i, s := range c.in {
			amounts[i] = d(s)
		}
		got := ClassifyAmounts(amounts...)
		if !got.Retail.Equal(d(c.retail)) || !got.Wholesale.Equal(d(c.wholesale)) {
			t.Errorf("%s: got retail=%s wholesale=%s, want %s/%s",
				c.name, got.Retail, got.Wholesale, c.retail, c.wholesale)
		}
		if got.Derived != c.derived {
			t.Errorf("%s: derived=%v, want %v", c.name, got.Derived, c.derived)
		}
	}
}

func TestClassifyOrderIndependent(t *testing.T) {
	a := ClassifyAmounts(d("12.5"), d("30"), d("7"), d("30.01"))
	b := ClassifyAmounts(d("7"), d("30.01"), d("12.5"), d("30"))
	if !a.Retail.Equal(b.Retail) || !a.Wholesale.Equal(b.Wholesale) {
		t.Fatalf("order dependent: %+v vs %+v", a, b)
	}
	if !a.Retail.Equal(d("30.01")) || !a.Wholesale.Equal(d("30")) {
		t.Fatalf("unexpected tiers %+v", a)
	}
}

func TestHasTiers(t *testing.T) {
	if (Tiers{}).HasRetail() || (Tiers{}).HasWholesale() {
		t.Fatalf("zero tiers reported present")
	}
	if !ClassifyAmounts(d("10")).HasWholesale() {
		t.Fatalf("fallback wholesale missing")
	}
}
