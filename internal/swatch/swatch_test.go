package swatch

import (
	"context"
	"errors"
	"testing"

	"github.com/bartek5186/catalogsync/internal/db/dbtest"
	"github.com/rs/zerolog"
)

func TestUpsertKeepsID(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t), zerolog.Nop())

	first, err := repo.Upsert(ctx, Swatch{Handle: "Natural", Name: "Natural", Hex: "#E8DCC8", Position: 2})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID == "" || first.Handle != "natural" || first.Hex != "#e8dcc8" {
		t.Fatalf("unexpected swatch: %+v", first)
	}

	second, err := repo.Upsert(ctx, Swatch{Handle: "natural", Name: "Oatmeal", Hex: "#d9cbb0", Position: 2})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("id changed: %s -> %s", first.ID, second.ID)
	}
	if second.Name != "Oatmeal" || second.Hex != "#d9cbb0" {
		t.Fatalf("fields not updated: %+v", second)
	}
}

func TestListOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t), zerolog.Nop())

	for _, s := range []Swatch{
		{Handle: "white", Position: 2},
		{Handle: "black", Position: 1},
		{Handle: "blue", Position: 2},
	} {
		if _, err := repo.Upsert(ctx, s); err != nil {
			t.Fatalf("upsert %s: %v", s.Handle, err)
		}
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{list[0].Handle, list[1].Handle, list[2].Handle}
	want := []string{"black", "blue", "white"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: got %v, want %v", got, want)
		}
	}

	if err := repo.Delete(ctx, "blue"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.ByHandle(ctx, "blue"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "blue"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestUpsertValidation(t *testing.T) {
	repo := NewRepository(dbtest.Open(t), zerolog.Nop())
	if _, err := repo.Upsert(context.Background(), Swatch{Name: "x"}); !errors.Is(err, ErrMissingHandle) {
		t.Fatalf("handle: got %v", err)
	}
	if _, err := repo.Upsert(context.Background(), Swatch{Handle: "x", Hex: "red"}); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("hex: got %v", err)
	}
}
