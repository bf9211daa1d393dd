package conf

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CATALOGSYNC_CURRENCY", "")
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, firstRun, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !firstRun {
		t.Fatalf("expected first run")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if cfg.Currency != "aud" || cfg.WholesalePriceList != "Purelinen Wholesale" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	for _, name := range []string{"products", "prices", "price-lists", "variants"} {
		if _, ok := cfg.Steps[name]; !ok {
			t.Fatalf("missing step section %q", name)
		}
	}

	again, firstRun, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if firstRun {
		t.Fatalf("second load must not be a first run")
	}
	var products struct {
		NameAttributeID int `json:"name_attribute_id"`
	}
	if err := json.Unmarshal(again.Steps["products"], &products); err != nil {
		t.Fatalf("products section: %v", err)
	}
	if products.NameAttributeID != 73 {
		t.Fatalf("name attribute: got %d", products.NameAttributeID)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/catalog")
	t.Setenv("CATALOGSYNC_CURRENCY", "USD")
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, _, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.DatabaseURL != "postgres://u:p@localhost/catalog" {
		t.Fatalf("DATABASE_URL not applied: %q", cfg.DatabaseURL)
	}
	if cfg.Currency != "usd" {
		t.Fatalf("currency: got %q", cfg.Currency)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := Default(t.TempDir())
	if err := cfg.Validate(); !errors.Is(err, ErrNoDatabaseURL) {
		t.Fatalf("expected ErrNoDatabaseURL, got %v", err)
	}
}
