// Package swatch stores the colour/material swatches shown next to variant options.
package swatch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("swatch: not found")
	ErrMissingHandle = errors.New("swatch: handle is required")
	ErrInvalidHex    = errors.New("swatch: hex must look like #rrggbb")
)

var hexColour = regexp.MustCompile(`^#[0-9a-f]{6}$`)

type Swatch struct {
	ID       string
	Handle   string
	Name     string
	Hex      string
	ImageURL string
	Position int
}

type Repository struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRepository(gdb *gorm.DB, log zerolog.Logger) *Repository {
	return &Repository{db: gdb, log: log}
}

// Upsert stores s keyed by handle. An existing swatch keeps its id.
func (r *Repository) Upsert(ctx context.Context, s Swatch) (Swatch, error) {
	s.Handle = strings.ToLower(strings.TrimSpace(s.Handle))
	s.Hex = strings.ToLower(strings.TrimSpace(s.Hex))
	if s.Handle == "" {
		return Swatch{}, ErrMissingHandle
	}
	if s.Hex != "" && !hexColour.MatchString(s.Hex) {
		return Swatch{}, fmt.Errorf("%w: %q", ErrInvalidHex, s.Hex)
	}

	row := db.Swatch{
		ID:       uuid.NewString(),
		Handle:   s.Handle,
		Name:     s.Name,
		Hex:      s.Hex,
		ImageURL: s.ImageURL,
		Position: s.Position,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "hex", "image_url", "position", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return Swatch{}, fmt.Errorf("upsert swatch %s: %w", s.Handle, err)
	}

	// the id in row is the fresh one even when the conflict branch ran
	return r.ByHandle(ctx, s.Handle)
}

func (r *Repository) ByHandle(ctx context.Context, handle string) (Swatch, error) {
	var row db.Swatch
	err := r.db.WithContext(ctx).Where("handle = ?", strings.ToLower(strings.TrimSpace(handle))).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Swatch{}, ErrNotFound
	}
	if err != nil {
		return Swatch{}, err
	}
	return fromRow(row), nil
}

// List returns swatches by position, then handle.
func (r *Repository) List(ctx context.Context) ([]Swatch, error) {
	var rows []db.Swatch
	if err := r.db.WithContext(ctx).Order("position ASC").Order("handle ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list swatches: %w", err)
	}
	out := make([]Swatch, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, handle string) error {
	res := r.db.WithContext(ctx).Where("handle = ?", strings.ToLower(strings.TrimSpace(handle))).Delete(&db.Swatch{})
	if res.Error != nil {
		return fmt.Errorf("delete swatch %s: %w", handle, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.log.Debug().Str("handle", handle).Msg("swatch deleted")
	return nil
}

func fromRow(row db.Swatch) Swatch {
	return Swatch{
		ID:       row.ID,
		Handle:   row.Handle,
		Name:     row.Name,
		Hex:      row.Hex,
		ImageURL: row.ImageURL,
		Position: row.Position,
	}
}
