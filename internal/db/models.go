package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// products (commerce platform, mirrored by the variants step)
type Product struct {
	ID        string `gorm:"primaryKey;size:64"`
	Title     string
	Handle    string `gorm:"index"`
	UpdatedAt time.Time
}

// product_variants
type ProductVariant struct {
	ID        string `gorm:"primaryKey;size:64"`
	ProductID string `gorm:"index;size:64"`
	SKU       string `gorm:"uniqueIndex;size:128"`
	Title     string
	UpdatedAt time.Time
}

// price_sets: currency agnostic container that prices hang off
type PriceSet struct {
	ID        string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// price_lists: named override scope, one per wholesale tier
type PriceList struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"uniqueIndex;size:128"`
	Channel   string `gorm:"size:32"`
	Status    string `gorm:"size:16;default:active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// prices: one row per (variant, channel, currency); amount in minor units
type Price struct {
	ID           string  `gorm:"primaryKey;size:96"`
	PriceSetID   string  `gorm:"size:64;uniqueIndex:uniq_price_tier,priority:1"`
	PriceListID  *string `gorm:"index;size:64"`
	Channel      string  `gorm:"size:32;uniqueIndex:uniq_price_tier,priority:2"`
	CurrencyCode string  `gorm:"size:3;uniqueIndex:uniq_price_tier,priority:3"`
	Amount       int64
	Source       string `gorm:"size:16"` // heuristic, import or price_list
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// product_variant_price_sets: at most one link per variant
type VariantPriceSet struct {
	ID         string `gorm:"primaryKey;size:64"`
	VariantID  string `gorm:"uniqueIndex;size:64"`
	PriceSetID string `gorm:"index;size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (VariantPriceSet) TableName() string { return "product_variant_price_sets" }

// ChannelStock holds the per-channel visibility and sensitivity of a shared stock pool.
type ChannelStock struct {
	Enabled        bool `json:"enabled"`
	MinStockLevel  int  `json:"min_stock_level"`
	AllowBackorder bool `json:"allow_backorder"`
}

// stock_records: one shared quantity per variant
type StockRecord struct {
	VariantID      string `gorm:"primaryKey;size:64"`
	SharedQuantity int
	Channels       datatypes.JSONType[map[string]ChannelStock]
	UpdatedAt      time.Time
}

// discounts
type Discount struct {
	ID        string `gorm:"primaryKey;size:36"`
	Position  int64  `gorm:"index"`
	Name      string
	Type      string          `gorm:"size:16"` // percentage/fixed
	Value     decimal.Decimal `gorm:"type:decimal(12,2)"`
	StartsAt  time.Time
	EndsAt    time.Time
	Stores    datatypes.JSONSlice[string]
	Products  datatypes.JSONSlice[string]
	CreatedAt time.Time
	UpdatedAt time.Time
}

// swatches
type Swatch struct {
	ID        string `gorm:"primaryKey;size:36"`
	Handle    string `gorm:"uniqueIndex;size:128"`
	Name      string
	Hex       string `gorm:"size:7"`
	ImageURL  string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// import_runs: one row per step execution over one input file
type ImportRun struct {
	RunID      uint   `gorm:"primaryKey;column:run_id"`
	Step       string `gorm:"index;size:32"`
	Filename   string
	SHA256     string `gorm:"index;size:64"`
	Status     int    `gorm:"index"` // 0=pending, 1=done, 2=error
	Created    int
	Skipped    int
	Errors     int
	LastError  string `gorm:"type:text"`
	Meta       datatypes.JSONMap
	StartedAt  time.Time `gorm:"autoCreateTime"`
	FinishedAt *time.Time
}

const (
	RunPending = 0
	RunDone    = 1
	RunError   = 2
)

// link_issues: SKUs that could not be matched to a catalog variant
type LinkIssue struct {
	ID        uint   `gorm:"primaryKey"`
	Step      string `gorm:"size:32"`
	SKU       string `gorm:"size:128;uniqueIndex:uniq_issue_key"`
	Reason    string `gorm:"size:64;uniqueIndex:uniq_issue_key"`
	Details   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
