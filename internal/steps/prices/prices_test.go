package prices

import (
	"bytes"
	"context"
	"encoding/json"
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
	"gorm.io/gorm"
)

const pricesCSV = `sku,sales_channel,amount
AA_BB_1,linenthings,120.00
AA_BB_1,Purelinen,75.50
AA_BB_2,Linen Things,$40
ZZ_ZZ_9,purelinen,10
AA_BB_2,ebay,10
AA_BB_3,linenthings,abc
,linenthings,5
`

func setup(t *testing.T) (*gorm.DB, Config) {
	t.Helper()
	gdb := dbtest.Open(t)
	err := catalog.NewGormStore(gdb).SaveVariants(context.Background(), nil, []db.ProductVariant{
		{ID: "variant_a", ProductID: "p", SKU: "AA_BB_1"},
		{ID: "variant_b", ProductID: "p", SKU: "AA_BB_2"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	dir := t.TempDir()
	cfg := Config{
		CSVPath:       filepath.Join(dir, "prices.csv"),
		CarryOverPath: filepath.Join(dir, "wholesale-prices.json"),
	}
	if err := os.WriteFile(cfg.CSVPath, []byte(pricesCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return gdb, cfg
}

func build(t *testing.T, gdb *gorm.DB, c Config) steps.Step {
	t.Helper()
	cfg := conf.Default(t.TempDir())
	cfg.Steps[Name], _ = json.Marshal(c)
	st, err := steps.Build(Name, steps.Env{Log: zerolog.Nop(), DB: gdb, Cfg: cfg, Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return st
}

func TestPricesStep(t *testing.T) {
	gdb, c := setup(t)

	tally, err := build(t, gdb, c).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if tally != (ledger.Tally{Created: 3, Skipped: 1}) {
		t.Fatalf("tally: %v", tally)
	}

	var retail []db.Price
	gdb.Order("id").Find(&retail)
	if len(retail) != 2 {
		t.Fatalf("only retail rows expected, got %+v", retail)
	}
	if retail[0].ID != "price_a_retail_aud" || retail[0].Amount != 12000 {
		t.Fatalf("retail a: %+v", retail[0])
	}
	if retail[1].ID != "price_b_retail_aud" || retail[1].Amount != 4000 {
		t.Fatalf("retail b: %+v", retail[1])
	}

	carry, err := ledger.ReadCarryOver(c.CarryOverPath)
	if err != nil {
		t.Fatalf("read carry-over: %v", err)
	}
	if len(carry) != 1 || carry[0].VariantID != "variant_a" || carry[0].AmountCents != 7550 {
		t.Fatalf("carry-over: %+v", carry)
	}

	var issue db.LinkIssue
	if err := gdb.Where("step = ?", Name).Take(&issue).Error; err != nil || issue.SKU != "ZZ_ZZ_9" {
		t.Fatalf("issue: %+v %v", issue, err)
	}
}

func TestPricesStepMissingCSV(t *testing.T) {
	gdb, c := setup(t)
	c.CSVPath = filepath.Join(t.TempDir(), "absent.csv")
	if _, err := build(t, gdb, c).Run(context.Background()); err == nil {
		t.Fatalf("expected a fatal error for a missing csv")
	}
}

func TestPricesFactoryNeedsPaths(t *testing.T) {
	cfg := conf.Default(t.TempDir())
	cfg.Steps[Name] = json.RawMessage(`{"csv_path":""}`)
	if _, err := steps.Build(Name, steps.Env{Log: zerolog.Nop(), Cfg: cfg}); err == nil {
		t.Fatalf("expected config error")
	}
}
