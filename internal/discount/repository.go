package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("discount: not found")

// Repository keeps discounts in list order; the order decides which discount wins a preview.
type Repository struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRepository(gdb *gorm.DB, log zerolog.Logger) *Repository {
	return &Repository{db: gdb, log: log}
}

// Create validates d, gives it a fresh id and appends it to the list.
func (r *Repository) Create(ctx context.Context, d Discount) (Discount, error) {
	if err := d.Validate(); err != nil {
		return Discount{}, err
	}
	d.ID = uuid.NewString()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&db.Discount{}).Select("COALESCE(MAX(position), 0)").Scan(&last).Error; err != nil {
			return err
		}
		row := toRow(d)
		row.Position = last + 1
		return tx.Create(&row).Error
	})
	if err != nil {
		return Discount{}, fmt.Errorf("create discount: %w", err)
	}
	r.log.Info().Str("discount_id", d.ID).Str("type", string(d.Type)).Msg("discount created")
	return d, nil
}

// Update replaces value, window and scope of an existing discount; its position is kept.
func (r *Repository) Update(ctx context.Context, d Discount) error {
	if err := d.Validate(); err != nil {
		return err
	}
	row := toRow(d)
	res := r.db.WithContext(ctx).Model(&db.Discount{}).Where("id = ?", d.ID).Updates(map[string]any{
		"name":       row.Name,
		"type":       row.Type,
		"value":      row.Value,
		"starts_at":  row.StartsAt,
		"ends_at":    row.EndsAt,
		"stores":     row.Stores,
		"products":   row.Products,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("update discount %s: %w", d.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Discount{})
	if res.Error != nil {
		return fmt.Errorf("delete discount %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (Discount, error) {
	var row db.Discount
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Discount{}, ErrNotFound
	}
	if err != nil {
		return Discount{}, err
	}
	return fromRow(row), nil
}

// List returns all discounts in list order.
func (r *Repository) List(ctx context.Context) ([]Discount, error) {
	var rows []db.Discount
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	out := make([]Discount, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

// Preview loads the list and evaluates it at now.
func (r *Repository) Preview(ctx context.Context, variantID string, ch channel.Channel, original decimal.Decimal, now time.Time) (Preview, bool, error) {
	list, err := r.List(ctx)
	if err != nil {
		return Preview{}, false, err
	}
	p, ok := CalculatePreview(list, variantID, ch, original, now)
	return p, ok, nil
}

func toRow(d Discount) db.Discount {
	stores := make([]string, len(d.Stores))
	for i, s := range d.Stores {
		stores[i] = string(s)
	}
	return db.Discount{
		ID:       d.ID,
		Name:     d.Name,
		Type:     string(d.Type),
		Value:    d.Value,
		StartsAt: d.StartsAt.UTC(),
		EndsAt:   d.EndsAt.UTC(),
		Stores:   datatypes.JSONSlice[string](stores),
		Products: datatypes.JSONSlice[string](append([]string{}, d.Products...)),
	}
}

func fromRow(row db.Discount) Discount {
	stores := make([]channel.Channel, len(row.Stores))
	for i, s := range row.Stores {
		stores[i] = channel.Channel(s)
	}
	return Discount{
		ID:       row.ID,
		Name:     row.Name,
		Type:     Type(row.Type),
		Value:    row.Value,
		StartsAt: row.StartsAt,
		EndsAt:   row.EndsAt,
		Stores:   stores,
		Products: append([]string{}, row.Products...),
	}
}
