// Package stock derives the stock status of a variant from one shared quantity
// and per-channel visibility and thresholds.
package stock

import (
	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/db"
)

type Status string

const (
	InStock    Status = "in_stock"
	LowStock   Status = "low_stock"
	OutOfStock Status = "out_of_stock"
)

// DefaultMinStockLevel applies when no channel carries a threshold.
const DefaultMinStockLevel = 10

type Settings = db.ChannelStock

// Record is the stored pool plus its derived status.
type Record struct {
	VariantID      string
	SharedQuantity int
	Channels       map[channel.Channel]Settings
	Status         Status
}

// StatusOf: out_of_stock at zero, low_stock at or below the lowest channel
// threshold (DefaultMinStockLevel without channels), in_stock above it.
func StatusOf(shared int, channels map[channel.Channel]Settings) Status {
	if shared <= 0 {
		return OutOfStock
	}
	if shared <= Threshold(channels) {
		return LowStock
	}
	return InStock
}

// Threshold is the minimum MinStockLevel across channels.
func Threshold(channels map[channel.Channel]Settings) int {
	if len(channels) == 0 {
		return DefaultMinStockLevel
	}
	lowest := -1
	for _, s := range channels {
		if lowest < 0 || s.MinStockLevel < lowest {
			lowest = s.MinStockLevel
		}
	}
	return lowest
}

// Sellable reports whether ch may sell the variant right now.
func (r Record) Sellable(ch channel.Channel) bool {
	s, ok := r.Channels[ch]
	if !ok || !s.Enabled {
		return false
	}
	return r.SharedQuantity > 0 || s.AllowBackorder
}

// DefaultChannels is what a new pool starts with: both stores enabled.
func DefaultChannels() map[channel.Channel]Settings {
	out := make(map[channel.Channel]Settings, 2)
	for _, ch := range channel.All() {
		out[ch] = Settings{Enabled: true, MinStockLevel: DefaultMinStockLevel}
	}
	return out
}
