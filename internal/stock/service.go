package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNegativeQuantity = errors.New("stock: quantity must be >= 0")
	ErrNegativeMinLevel = errors.New("stock: min stock level must be >= 0")
	ErrUnknownChannel   = errors.New("stock: unknown channel")
)

// Service reads and writes stock records; status is computed on every read.
type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(gdb *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: gdb, log: log}
}

// Get returns the record of variantID; a variant without one has no stock.
func (s *Service) Get(ctx context.Context, variantID string) (Record, error) {
	var row db.StockRecord
	err := s.db.WithContext(ctx).Where("variant_id = ?", variantID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ch := DefaultChannels()
		return Record{VariantID: variantID, Channels: ch, Status: StatusOf(0, ch)}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("get stock %s: %w", variantID, err)
	}
	return toRecord(row), nil
}

// SetQuantity writes the shared quantity, the same number for every channel.
func (s *Service) SetQuantity(ctx context.Context, variantID string, qty int) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}
	row := db.StockRecord{
		VariantID:      variantID,
		SharedQuantity: qty,
		Channels:       datatypes.NewJSONType(toStored(DefaultChannels())),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "variant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"shared_quantity", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("set stock %s: %w", variantID, err)
	}
	s.log.Debug().Str("variant_id", variantID).Int("qty", qty).Msg("shared stock set")
	return nil
}

// SetChannel replaces the settings of one channel; the shared quantity is left alone.
func (s *Service) SetChannel(ctx context.Context, variantID string, ch channel.Channel, set Settings) error {
	if !ch.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}
	if set.MinStockLevel < 0 {
		return ErrNegativeMinLevel
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row db.StockRecord
		err := tx.Where("variant_id = ?", variantID).Take(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			channels := DefaultChannels()
			channels[ch] = set
			row = db.StockRecord{VariantID: variantID, Channels: datatypes.NewJSONType(toStored(channels))}
			return tx.Create(&row).Error
		case err != nil:
			return err
		}

		channels := fromStored(row.Channels.Data())
		channels[ch] = set
		return tx.Model(&db.StockRecord{}).Where("variant_id = ?", variantID).Updates(map[string]any{
			"channels":   datatypes.NewJSONType(toStored(channels)),
			"updated_at": time.Now(),
		}).Error
	})
}

func toRecord(row db.StockRecord) Record {
	channels := fromStored(row.Channels.Data())
	return Record{
		VariantID:      row.VariantID,
		SharedQuantity: row.SharedQuantity,
		Channels:       channels,
		Status:         StatusOf(row.SharedQuantity, channels),
	}
}

func toStored(in map[channel.Channel]Settings) map[string]db.ChannelStock {
	out := make(map[string]db.ChannelStock, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func fromStored(in map[string]db.ChannelStock) map[channel.Channel]Settings {
	out := make(map[channel.Channel]Settings, len(in))
	for k, v := range in {
		out[channel.Channel(k)] = v
	}
	return out
}
