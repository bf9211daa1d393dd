package catalog

import (
	"regexp"
	"strings"

	"github.com/bartek5186/catalogsync/internal/channel"
)

const keyLen = 26

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Key is the part of a variant id all derived ids are built from:
// the id without its variant_ prefix, cut to 26 characters.
func Key(variantID string) string {
	k := strings.TrimPrefix(variantID, "variant_")
	if len(k) > keyLen {
		k = k[:keyLen]
	}
	return k
}

func PriceSetID(variantID string) string { return "pset_" + Key(variantID) }

func LinkID(variantID string) string { return "pvps_" + Key(variantID) }

// PriceID is unique per variant, channel and currency.
func PriceID(variantID string, ch channel.Channel, currency string) string {
	return "price_" + Key(variantID) + "_" + ch.Tier() + "_" + strings.ToLower(currency)
}

func PriceListID(name string) string {
	slug := strings.Trim(reNonSlug.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if len(slug) > 48 {
		slug = slug[:48]
	}
	return "plist_" + slug
}
