package discount

import (
	"errors"
	"testing"
	"time"

	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/shopspring/decimal"
)

var (
	start = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
)

func sample(typ Type, value string) Discount {
	return Discount{
		ID:       "d1",
		Name:     "autumn",
		Type:     typ,
		Value:    decimal.RequireFromString(value),
		StartsAt: start,
		EndsAt:   end,
		Stores:   []channel.Channel{channel.Retail},
		Products: []string{"variant_a"},
	}
}

func TestStateAt(t *testing.T) {
	d := sample(Percentage, "10")
	cases := []struct {
		at   time.Time
		want State
	}{
		{start.Add(-time.Second), Scheduled},
		{start, Active},
		{start.Add(24 * time.Hour), Active},
		{end, Active},
		{end.Add(time.Second), Expired},
	}
	for _, c := range cases {
		if got := d.StateAt(c.at); got != c.want {
			t.Fatalf("StateAt(%s): got %s, want %s", c.at, got, c.want)
		}
	}
}

func TestStateNeverGoesBack(t *testing.T) {
	d := sample(Fixed, "5")
	rank := map[State]int{Scheduled: 0, Active: 1, Expired: 2}
	prev := -1
	for at := start.Add(-48 * time.Hour); at.Before(end.Add(48 * time.Hour)); at = at.Add(7 * time.Hour) {
		r := rank[d.StateAt(at)]
		if r < prev {
			t.Fatalf("state went back at %s", at)
		}
		prev = r
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		d    Discount
		want error
	}{
		{"percentage ok", sample(Percentage, "100"), nil},
		{"percentage over", sample(Percentage, "100.01"), ErrInvalidValue},
		{"zero", sample(Fixed, "0"), ErrInvalidValue},
		{"negative", sample(Fixed, "-1"), ErrInvalidValue},
		{"type", sample("bogo", "1"), ErrInvalidType},
	}
	for _, c := range cases {
		err := c.d.Validate()
		if c.want == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
		if c.want != nil && !errors.Is(err, c.want) {
			t.Fatalf("%s: got %v, want %v", c.name, err, c.want)
		}
	}

	d := sample(Fixed, "1")
	d.StartsAt, d.EndsAt = end, start
	if err := d.Validate(); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("window: got %v", err)
	}
	d = sample(Fixed, "1")
	d.Stores = []channel.Channel{"ebay"}
	if err := d.Validate(); !errors.Is(err, ErrInvalidStore) {
		t.Fatalf("store: got %v", err)
	}
}

func TestCalculatePreview(t *testing.T) {
	now := start.Add(time.Hour)
	price := decimal.RequireFromString("80")

	p, ok := CalculatePreview([]Discount{sample(Percentage, "25")}, "variant_a", channel.Retail, price, now)
	if !ok {
		t.Fatalf("expected a match")
	}
	if !p.Savings.Equal(decimal.NewFromInt(20)) || !p.Final.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("percentage: savings=%s final=%s", p.Savings, p.Final)
	}

	p, _ = CalculatePreview([]Discount{sample(Fixed, "100")}, "variant_a", channel.Retail, price, now)
	if !p.Savings.Equal(price) || !p.Final.IsZero() {
		t.Fatalf("fixed over price: savings=%s final=%s", p.Savings, p.Final)
	}
}

func TestCalculatePreviewFirstMatchWins(t *testing.T) {
	now := start.Add(time.Hour)
	first := sample(Fixed, "5")
	first.ID = "first"
	second := sample(Percentage, "50")
	second.ID = "second"

	p, ok := CalculatePreview([]Discount{first, second}, "variant_a", channel.Retail, decimal.NewFromInt(40), now)
	if !ok || p.DiscountID != "first" {
		t.Fatalf("expected first discount, got %+v", p)
	}
	if !p.Final.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("discounts must not stack: final=%s", p.Final)
	}
}

func TestCalculatePreviewNoMatch(t *testing.T) {
	d := sample(Percentage, "10")
	price := decimal.NewFromInt(50)
	checks := []struct {
		name    string
		variant string
		ch      channel.Channel
		at      time.Time
	}{
		{"other variant", "variant_b", channel.Retail, start},
		{"other store", "variant_a", channel.Wholesale, start},
		{"scheduled", "variant_a", channel.Retail, start.Add(-time.Minute)},
		{"expired", "variant_a", channel.Retail, end.Add(time.Minute)},
	}
	for _, c := range checks {
		p, ok := CalculatePreview([]Discount{d}, c.variant, c.ch, price, c.at)
		if ok {
			t.Fatalf("%s: unexpected match", c.name)
		}
		if !p.Final.Equal(price) || !p.Savings.IsZero() {
			t.Fatalf("%s: price changed: %+v", c.name, p)
		}
	}
}
