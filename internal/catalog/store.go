// Package catalog is the persistence boundary of the commerce catalog: variant
// lookups and the price-set / price / price-list / link ledger.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/db"
)

var ErrVariantNotFound = errors.New("catalog: variant not found")

// ErrVariantIDNotFound is the ErrVariantNotFound of a lookup by variant id.
var ErrVariantIDNotFound = fmt.Errorf("%w by id", ErrVariantNotFound)

// Where a price amount came from. A heuristic amount never replaces a row
// written from one of the explicit sources.
const (
	SourceHeuristic = "heuristic"
	SourceImport    = "import"
	SourcePriceList = "price_list"
)

// Price is one ledger row; Amount is in minor units.
type Price struct {
	ID          string
	PriceSetID  string
	PriceListID *string
	Channel     channel.Channel
	Currency    string
	Amount      int64
	Source      string
}

// Explicit reports whether the amount came from a real price fact or list entry.
func (p Price) Explicit() bool { return explicit(p.Source) }

func explicit(source string) bool {
	return source == SourceImport || source == SourcePriceList
}

type PriceList struct {
	ID      string
	Name    string
	Channel channel.Channel
}

// LinkResult says what LinkVariant had to do.
type LinkResult int

const (
	LinkUnchanged LinkResult = iota
	LinkCreated
	LinkRepointed
)

// Store is what the reconciliation steps need from the catalog.
type Store interface {
	VariantBySKU(ctx context.Context, sku string) (db.ProductVariant, error)
	VariantByID(ctx context.Context, id string) (db.ProductVariant, error)

	// EnsurePriceSet creates the price set when absent; created reports whether it did.
	EnsurePriceSet(ctx context.Context, id string) (created bool, err error)
	EnsurePriceList(ctx context.Context, list PriceList) error
	// UpsertPrice inserts the row or corrects the amount of the existing row for the same tier.
	// A heuristic price leaves an explicit row untouched; kept reports whether p was stored.
	UpsertPrice(ctx context.Context, p Price) (kept bool, err error)
	// LinkVariant points the variant at priceSetID, reusing an existing link row if any.
	LinkVariant(ctx context.Context, linkID, variantID, priceSetID string) (LinkResult, error)

	// Transaction runs fn against a store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
