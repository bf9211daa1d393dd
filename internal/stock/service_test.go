package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/bartek5186/catalogsync/internal/channel"
	"github.com/bartek5186/catalogsync/internal/db/dbtest"
	"github.com/rs/zerolog"
)

func TestServiceSharedQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewService(dbtest.Open(t), zerolog.Nop())

	r, err := s.Get(ctx, "variant_a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Status != OutOfStock || r.SharedQuantity != 0 {
		t.Fatalf("unknown variant: %+v", r)
	}

	if err := s.SetQuantity(ctx, "variant_a", 30); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	r, _ = s.Get(ctx, "variant_a")
	if r.SharedQuantity != 30 || r.Status != InStock {
		t.Fatalf("after set: %+v", r)
	}
	for _, ch := range channel.All() {
		if !r.Sellable(ch) {
			t.Fatalf("%s not sellable", ch)
		}
	}

	if err := s.SetQuantity(ctx, "variant_a", -1); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
}

func TestSetChannelKeepsQuantity(t *testing.T) {
	ctx := context.Background()
	s := NewService(dbtest.Open(t), zerolog.Nop())

	if err := s.SetQuantity(ctx, "variant_a", 8); err != nil {
		t.Fatal(err)
	}
	if err := s.SetChannel(ctx, "variant_a", channel.Wholesale, Settings{Enabled: false, MinStockLevel: 5}); err != nil {
		t.Fatalf("SetChannel: %v", err)
	}
	r, _ := s.Get(ctx, "variant_a")
	if r.SharedQuantity != 8 {
		t.Fatalf("quantity changed: %d", r.SharedQuantity)
	}
	if r.Channels[channel.Wholesale].Enabled {
		t.Fatalf("wholesale still enabled")
	}
	// lowest threshold is now 5
	if r.Status != InStock {
		t.Fatalf("status: %s", r.Status)
	}

	// changing quantity keeps channel settings
	if err := s.SetQuantity(ctx, "variant_a", 4); err != nil {
		t.Fatal(err)
	}
	r, _ = s.Get(ctx, "variant_a")
	if r.Channels[channel.Wholesale].MinStockLevel != 5 || r.Status != LowStock {
		t.Fatalf("after quantity change: %+v", r)
	}
}

func TestSetChannelOnNewRecord(t *testing.T) {
	ctx := context.Background()
	s := NewService(dbtest.Open(t), zerolog.Nop())

	if err := s.SetChannel(ctx, "variant_b", channel.Retail, Settings{Enabled: true, MinStockLevel: 2, AllowBackorder: true}); err != nil {
		t.Fatalf("SetChannel: %v", err)
	}
	r, _ := s.Get(ctx, "variant_b")
	if r.SharedQuantity != 0 || !r.Channels[channel.Retail].AllowBackorder {
		t.Fatalf("record: %+v", r)
	}
	if err := s.SetChannel(ctx, "variant_b", "ebay", Settings{}); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
	if err := s.SetChannel(ctx, "variant_b", channel.Retail, Settings{MinStockLevel: -1}); !errors.Is(err, ErrNegativeMinLevel) {
		t.Fatalf("expected ErrNegativeMinLevel, got %v", err)
	}
}
