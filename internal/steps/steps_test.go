package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bartek5186/catalogsync/internal/catalog"
	conf "github.com/bartek5186/catalogsync/internal/config"
	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/bartek5186/catalogsync/internal/db/dbtest"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/bartek5186/catalogsync/internal/rows"
	"github.com/rs/zerolog"
)

type echoStep struct{ raw json.RawMessage }

func (echoStep) Name() string { return "echo" }
func (echoStep) Run(context.Context) (ledger.Tally, error) {
	return ledger.Tally{Created: 1}, nil
}

func TestBuild(t *testing.T) {
	Register("echo", func(_ Env, raw json.RawMessage) (Step, error) {
		return echoStep{raw: raw}, nil
	})
	if !slices.Contains(Names(), "echo") {
		t.Fatalf("echo not registered: %v", Names())
	}

	cfg := conf.Default(t.TempDir())
	st, err := Build("echo", Env{Log: zerolog.Nop(), Cfg: cfg})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := string(st.(echoStep).raw); got != "{}" {
		t.Fatalf("missing section should decode as {}, got %s", got)
	}
	if _, err := Build("nope", Env{Cfg: cfg}); err == nil {
		t.Fatalf("expected unknown step error")
	}
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	j := NewJournal(gdb, zerolog.Nop())

	run, err := j.Begin(ctx, "prices", "prices.csv", "abc", true)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	// pending runs never count as done
	if _, err := j.Begin(ctx, "prices", "prices.csv", "abc", true); err != nil {
		t.Fatalf("Begin while pending: %v", err)
	}
	run.Finish(ctx, ledger.Tally{Created: 4, Skipped: 1}, nil, map[string]any{"rows": 5})

	var row db.ImportRun
	gdb.Where("run_id = ?", run.ID()).Take(&row)
	if row.Status != db.RunDone || row.Created != 4 || row.Skipped != 1 || row.FinishedAt == nil {
		t.Fatalf("finished run: %+v", row)
	}
	if row.Meta["rows"] == nil {
		t.Fatalf("meta not stored: %+v", row.Meta)
	}

	if _, err := j.Begin(ctx, "prices", "prices.csv", "abc", true); !errors.Is(err, ErrAlreadyDone) {
		t.Fatalf("expected ErrAlreadyDone, got %v", err)
	}
	if _, err := j.Begin(ctx, "prices", "prices.csv", "abc", false); err != nil {
		t.Fatalf("explicit rerun must be allowed: %v", err)
	}
	if _, err := j.Begin(ctx, "products", "export", "abc", true); err != nil {
		t.Fatalf("another step with the same sum: %v", err)
	}

	failed, _ := j.Begin(ctx, "variants", "http://x", "", true)
	failed.Finish(ctx, ledger.Tally{}, errors.New("http 500"), nil)
	row = db.ImportRun{}
	gdb.Where("run_id = ?", failed.ID()).Take(&row)
	if row.Status != db.RunError || row.LastError != "http 500" {
		t.Fatalf("failed run: %+v", row)
	}
}

func TestChecksum(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	if err := os.WriteFile(a, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}

	ab, err := Checksum(a, b)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	ba, _ := Checksum(b, a)
	again, _ := Checksum(a, b)
	if ab != again || ab == ba || len(ab) != 64 {
		t.Fatalf("checksums: %s %s %s", ab, ba, again)
	}
	if _, err := Checksum(a, filepath.Join(dir, "c.csv")); !errors.Is(err, rows.ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}
}

func TestIssues(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	prices := NewIssues(gdb, zerolog.Nop(), "prices")
	products := NewIssues(gdb, zerolog.Nop(), "products")

	prices.Record(ctx, "AA_BB_1", ReasonVariantNotFound, "first")
	prices.Record(ctx, "AA_BB_1", ReasonVariantNotFound, "second")
	products.Record(ctx, "CC_DD_1", ReasonVariantNotFound, "x")

	var list []db.LinkIssue
	gdb.Order("sku").Find(&list)
	if len(list) != 2 || list[0].Details != "second" {
		t.Fatalf("issues: %+v", list)
	}

	if err := prices.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	var left []db.LinkIssue
	gdb.Find(&left)
	if len(left) != 1 || left[0].Step != "products" {
		t.Fatalf("reset must only drop its own step: %+v", left)
	}
	if prices.Count() != 0 || products.Count() != 1 {
		t.Fatalf("counts: %d %d", prices.Count(), products.Count())
	}
}

func TestOnMissReasons(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	onMiss := NewIssues(gdb, zerolog.Nop(), "price-lists").OnMiss(ctx)

	onMiss("AA_BB_1", fmt.Errorf("%w: sku AA_BB_1", catalog.ErrVariantNotFound))
	onMiss("variant_gone", fmt.Errorf("%w: variant_gone", catalog.ErrVariantIDNotFound))

	got := map[string]string{}
	var list []db.LinkIssue
	gdb.Find(&list)
	for _, i := range list {
		got[i.SKU] = i.Reason
	}
	if got["AA_BB_1"] != ReasonVariantNotFound || got["variant_gone"] != ReasonVariantIDNotFound {
		t.Fatalf("reasons: %v", got)
	}
}
