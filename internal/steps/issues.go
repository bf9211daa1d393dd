package steps

import (
	"context"
	"errors"
	"time"

	"github.com/bartek5186/catalogsync/internal/catalog"
	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ReasonVariantNotFound   = "variant_not_found"
	ReasonVariantIDNotFound = "variant_id_not_found" // sku holds the variant id
	ReasonDuplicateSKU      = "duplicate_sku"
)

// Issues keeps the link_issues of one step. The list is rebuilt on every run.
type Issues struct {
	db   *gorm.DB
	log  zerolog.Logger
	step string
	n    int
}

func NewIssues(gdb *gorm.DB, log zerolog.Logger, step string) *Issues {
	return &Issues{db: gdb, log: log, step: step}
}

// Reset drops the issues of the previous run of this step.
func (i *Issues) Reset(ctx context.Context) error {
	i.n = 0
	return i.db.WithContext(ctx).Where("step = ?", i.step).Delete(&db.LinkIssue{}).Error
}

// Record upserts one issue keyed by sku and reason.
func (i *Issues) Record(ctx context.Context, sku, reason, details string) {
	issue := db.LinkIssue{
		Step:    i.step,
		SKU:     sku,
		Reason:  reason,
		Details: details,
	}
	err := i.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku"}, {Name: "reason"}},
		DoUpdates: clause.Assignments(map[string]any{
			"step":       i.step,
			"details":    details,
			"updated_at": time.Now(),
		}),
	}).Create(&issue).Error
	if err != nil {
		i.log.Error().Err(err).Str("sku", sku).Str("reason", reason).Msg("cannot save link issue")
		return
	}
	i.n++
}

// Count is the number of issues recorded since Reset.
func (i *Issues) Count() int { return i.n }

// OnMiss adapts Record to ledger.Options.OnMiss.
func (i *Issues) OnMiss(ctx context.Context) func(key string, err error) {
	return func(key string, err error) {
		reason := ReasonVariantNotFound
		if errors.Is(err, catalog.ErrVariantIDNotFound) {
			reason = ReasonVariantIDNotFound
		}
		i.Record(ctx, key, reason, err.Error())
	}
}
