package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bartek5186/catalogsync/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

func (s *GormStore) VariantBySKU(ctx context.Context, sku string) (db.ProductVariant, error) {
	var v db.ProductVariant
	err := s.db.WithContext(ctx).Where("sku = ?", sku).Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return v, fmt.Errorf("%w: sku %s", ErrVariantNotFound, sku)
	}
	return v, err
}

func (s *GormStore) VariantByID(ctx context.Context, id string) (db.ProductVariant, error) {
	var v db.ProductVariant
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return v, fmt.Errorf("%w: %s", ErrVariantIDNotFound, id)
	}
	return v, err
}

func (s *GormStore) EnsurePriceSet(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.PriceSet{ID: id})
	if res.Error != nil {
		return false, fmt.Errorf("ensure price set %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) EnsurePriceList(ctx context.Context, list PriceList) error {
	row := db.PriceList{ID: list.ID, Name: list.Name, Channel: string(list.Channel), Status: "active"}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"channel", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("ensure price list %s: %w", list.Name, err)
	}
	return nil
}

func (s *GormStore) UpsertPrice(ctx context.Context, p Price) (bool, error) {
	tx := s.db.WithContext(ctx)

	var existing db.Price
	err := tx.Where("price_set_id = ? AND channel = ? AND currency_code = ?",
		p.PriceSetID, string(p.Channel), p.Currency).Take(&existing).Error
	switch {
	case err == nil && !p.Explicit() && explicit(existing.Source):
		return false, nil
	case err == nil && existing.ID != p.ID:
		// a row for the same tier under another id (e.g. created by the platform) is corrected in place
		err := tx.Model(&db.Price{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"amount":        p.Amount,
			"price_list_id": p.PriceListID,
			"source":        p.Source,
			"updated_at":    time.Now(),
		}).Error
		if err != nil {
			return false, fmt.Errorf("correct price %s: %w", existing.ID, err)
		}
		return true, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("lookup price %s: %w", p.ID, err)
	}

	row := db.Price{
		ID:           p.ID,
		PriceSetID:   p.PriceSetID,
		PriceListID:  p.PriceListID,
		Channel:      string(p.Channel),
		CurrencyCode: p.Currency,
		Amount:       p.Amount,
		Source:       p.Source,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price_set_id", "price_list_id", "channel", "currency_code", "amount", "source", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return false, fmt.Errorf("upsert price %s: %w", p.ID, err)
	}
	return true, nil
}

func (s *GormStore) LinkVariant(ctx context.Context, linkID, variantID, priceSetID string) (LinkResult, error) {
	tx := s.db.WithContext(ctx)

	var link db.VariantPriceSet
	err := tx.Where("variant_id = ?", variantID).Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		link = db.VariantPriceSet{ID: linkID, VariantID: variantID, PriceSetID: priceSetID}
		if err := tx.Create(&link).Error; err != nil {
			return LinkUnchanged, fmt.Errorf("create link %s: %w", linkID, err)
		}
		return LinkCreated, nil
	}
	if err != nil {
		return LinkUnchanged, fmt.Errorf("lookup link for %s: %w", variantID, err)
	}
	if link.PriceSetID == priceSetID {
		return LinkUnchanged, nil
	}
	if err := tx.Model(&db.VariantPriceSet{}).Where("id = ?", link.ID).
		Update("price_set_id", priceSetID).Error; err != nil {
		return LinkUnchanged, fmt.Errorf("repoint link %s: %w", link.ID, err)
	}
	return LinkRepointed, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// SaveVariants mirrors platform products and variants into the local catalog.
func (s *GormStore) SaveVariants(ctx context.Context, products []db.Product, variants []db.ProductVariant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(products) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "handle", "updated_at"}),
			}).CreateInBatches(&products, 200).Error; err != nil {
				return fmt.Errorf("upsert products: %w", err)
			}
		}
		if len(variants) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"product_id", "sku", "title", "updated_at"}),
			}).CreateInBatches(&variants, 200).Error; err != nil {
				return fmt.Errorf("upsert variants: %w", err)
			}
		}
		return nil
	})
}
