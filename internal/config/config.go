package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// ErrNoDatabaseURL is returned by Validate when no connection string is configured.
var ErrNoDatabaseURL = errors.New("database url is not configured (set DATABASE_URL)")

// Main application config
type Config struct {
	DatabaseURL         string                     `json:"database_url"`
	Currency            string                     `json:"currency"`
	WholesalePriceList  string                     `json:"wholesale_price_list"`
	SyncIntervalSeconds int                        `json:"sync_interval_seconds"`
	Watch               []string                   `json:"watch"` // steps run by `watch`, in order
	Steps               map[string]json.RawMessage `json:"steps"` // step name -> raw step config
}

// Defaults written into a freshly created config.json.
type productsDefaults struct {
	ExportDir             string `json:"export_dir"`
	NameAttributeID       int    `json:"name_attribute_id"`
	DescriptionAttributes []int  `json:"description_attribute_ids"`
	PriceAttributes       []int  `json:"price_attribute_ids"`
	Charset               string `json:"charset,omitempty"`
}

type pricesDefaults struct {
	CSVPath       string `json:"csv_path,omitempty"`
	CarryOverPath string `json:"carryover_path"`
}

type platformDefaults struct {
	BaseURL  string `json:"base_url"`
	Token    string `json:"token"`
	PageSize int    `json:"page_size"`
}

// LoadOrCreate reads config.json, creating it with defaults on first run.
// Values from the environment (and a .env file in the working directory) win.
func LoadOrCreate(path string) (*Config, bool, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default(filepath.Dir(path))
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("write default config: %w", err)
			}
			cfg.applyEnv()
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, false, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Steps == nil {
		cfg.Steps = map[string]json.RawMessage{}
	}
	cfg.fillDefaults()
	cfg.applyEnv()
	return &cfg, false, nil
}

// Default returns the configuration written on first run; dir is the application directory.
func Default(dir string) *Config {
	products, _ := json.Marshal(productsDefaults{
		ExportDir:             filepath.Join(dir, "export"),
		NameAttributeID:       73,
		DescriptionAttributes: []int{75, 76},
		PriceAttributes:       []int{},
	})
	prices, _ := json.Marshal(pricesDefaults{
		CSVPath:       filepath.Join(dir, "export", "prices.csv"),
		CarryOverPath: filepath.Join(dir, "wholesale-prices.json"),
	})
	priceLists, _ := json.Marshal(pricesDefaults{
		CarryOverPath: filepath.Join(dir, "wholesale-prices.json"),
	})
	platform, _ := json.Marshal(platformDefaults{
		BaseURL:  "http://localhost:9000",
		Token:    "",
		PageSize: 100,
	})

	cfg := &Config{
		Currency:            "aud",
		WholesalePriceList:  "Purelinen Wholesale",
		SyncIntervalSeconds: 300,
		Watch:               []string{"variants", "products", "prices", "price-lists"},
		Steps: map[string]json.RawMessage{
			"products":    products,
			"prices":      prices,
			"price-lists": priceLists,
			"variants":    platform,
		},
	}
	return cfg
}

func (c *Config) fillDefaults() {
	if c.Currency == "" {
		c.Currency = "aud"
	}
	if c.WholesalePriceList == "" {
		c.WholesalePriceList = "Purelinen Wholesale"
	}
	if c.SyncIntervalSeconds <= 0 {
		c.SyncIntervalSeconds = 300
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CATALOGSYNC_CURRENCY")); v != "" {
		c.Currency = v
	}
	c.Currency = strings.ToLower(c.Currency)
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrNoDatabaseURL
	}
	if c.Currency == "" {
		return errors.New("currency is empty")
	}
	return nil
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// AppDir returns CATALOGSYNC_HOME or <user config dir>/catalogsync, creating it.
func AppDir() (string, error) {
	p := strings.TrimSpace(os.Getenv("CATALOGSYNC_HOME"))
	if p == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(base, "catalogsync")
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", err
	}
	return p, nil
}
