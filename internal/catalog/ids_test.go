package catalog

import (
	"testing"

	"github.com/bartek5186/catalogsync/internal/channel"
)

func TestDerivedIDs(t *testing.T) {
	v := "variant_01HZX3K9Q2M4N5P6R7S8T9V0WXYZ99"
	if got := Key(v); got != "01HZX3K9Q2M4N5P6R7S8T9V0WX" {
		t.Fatalf("Key: %q", got)
	}
	if PriceSetID(v) != "pset_01HZX3K9Q2M4N5P6R7S8T9V0WX" {
		t.Fatalf("PriceSetID: %q", PriceSetID(v))
	}
	if LinkID(v) != "pvps_01HZX3K9Q2M4N5P6R7S8T9V0WX" {
		t.Fatalf("LinkID: %q", LinkID(v))
	}
	if got := PriceID("variant_abc", channel.Wholesale, "AUD"); got != "price_abc_wholesale_aud" {
		t.Fatalf("PriceID: %q", got)
	}
	if PriceID("variant_abc", channel.Retail, "aud") == PriceID("variant_abc", channel.Wholesale, "aud") {
		t.Fatalf("tiers share a price id")
	}
	if PriceSetID(v) != PriceSetID(v) {
		t.Fatalf("not deterministic")
	}
}

func TestPriceListID(t *testing.T) {
	if got := PriceListID("Purelinen Wholesale"); got != "plist_purelinen_wholesale" {
		t.Fatalf("PriceListID: %q", got)
	}
	if got := PriceListID("  B2B -- Tier #1 "); got != "plist_b2b_tier_1" {
		t.Fatalf("PriceListID: %q", got)
	}
}
