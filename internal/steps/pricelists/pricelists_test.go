package pricelists

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bartek5186/catalogsync/internal/catalog"
	conf "github.com/bartek5186/catalogsync/internal/config"
	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/bartek5186/catalogsync/internal/db/dbtest"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/bartek5186/catalogsync/internal/steps"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func build(t *testing.T, gdb *gorm.DB, path string) steps.Step {
	t.Helper()
	cfg := conf.Default(t.TempDir())
	cfg.Steps[Name], _ = json.Marshal(Config{CarryOverPath: path})
	st, err := steps.Build(Name, steps.Env{Log: zerolog.Nop(), DB: gdb, Cfg: cfg, Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return st
}

func TestPriceListsStep(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	err := catalog.NewGormStore(gdb).SaveVariants(ctx, nil, []db.ProductVariant{
		{ID: "variant_a", ProductID: "p", SKU: "AA_BB_1"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "wholesale-prices.json")
	if err := ledger.WriteCarryOver(path, []ledger.CarryOver{
		ledger.NewCarryOver("variant_a", decimal.RequireFromString("75.50")),
		ledger.NewCarryOver("variant_gone", decimal.RequireFromString("12")),
	}); err != nil {
		t.Fatalf("write carry-over: %v", err)
	}

	tally, err := build(t, gdb, path).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if tally != (ledger.Tally{Created: 1, Skipped: 1}) {
		t.Fatalf("tally: %v", tally)
	}

	var p db.Price
	if err := gdb.Where("id = ?", "price_a_wholesale_aud").Take(&p).Error; err != nil {
		t.Fatalf("wholesale price: %v", err)
	}
	if p.Amount != 7550 || p.PriceListID == nil || *p.PriceListID != "plist_purelinen_wholesale" {
		t.Fatalf("wholesale row: %+v", p)
	}
	var issue db.LinkIssue
	if err := gdb.Where("step = ? AND sku = ?", Name, "variant_gone").Take(&issue).Error; err != nil {
		t.Fatalf("miss not recorded: %v", err)
	}
	if issue.Reason != steps.ReasonVariantIDNotFound {
		t.Fatalf("variant id miss recorded as %q", issue.Reason)
	}
}

func TestPriceListsStepMissingFile(t *testing.T) {
	gdb := dbtest.Open(t)
	path := filepath.Join(t.TempDir(), "absent.json")
	_, err := build(t, gdb, path).Run(context.Background())
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("step must not create the file")
	}
}
