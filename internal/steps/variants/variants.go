// Package variants mirrors the platform's product variants into the local
// catalog, so the SKU lookups of the other steps run against the database.
package variants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bartek5186/catalogsync/internal/catalog"
	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/bartek5186/catalogsync/internal/steps"
	"github.com/rs/zerolog"
)

const (
	Name      = "variants"
	userAgent = "catalogsync/1.0"
	fields    = "id,title,sku,product_id,updated_at,*product"
)

type Config struct {
	BaseURL    string `json:"base_url"` // e.g. http://localhost:9000
	Token      string `json:"token"`    // admin API token, sent as bearer
	PageSize   int    `json:"page_size"`
	TimeoutSec int    `json:"timeout_sec,omitempty"`
}

type Step struct {
	env     steps.Env
	log     zerolog.Logger
	cfg     Config
	http    *http.Client
	store   *catalog.GormStore
	journal *steps.Journal
	issues  *steps.Issues
}

func (s *Step) Name() string { return Name }

func (s *Step) Run(ctx context.Context) (ledger.Tally, error) {
	run, err := s.journal.Begin(ctx, Name, s.cfg.BaseURL, "", false)
	if err != nil {
		return ledger.Tally{}, err
	}
	t, err := s.mirror(ctx)
	run.Finish(ctx, t, err, nil)
	return t, err
}

// mirror walks every page and upserts it. Variants without a SKU are skipped,
// a SKU seen twice keeps its first variant.
func (s *Step) mirror(ctx context.Context) (ledger.Tally, error) {
	var t ledger.Tally
	if err := s.issues.Reset(ctx); err != nil {
		return t, fmt.Errorf("reset link issues: %w", err)
	}

	seen := map[string]string{}
	offset := 0
	for {
		page, err := s.fetch(ctx, offset)
		if err != nil {
			return t, err
		}
		if len(page.Variants) == 0 {
			break
		}

		products := map[string]db.Product{}
		var rows []db.ProductVariant
		for _, v := range page.Variants {
			sku := ""
			if v.SKU != nil {
				sku = strings.TrimSpace(*v.SKU)
			}
			if sku == "" {
				s.log.Debug().Str("variant_id", v.ID).Msg("skip: variant without sku")
				t.Skipped++
				continue
			}
			if first, dup := seen[sku]; dup {
				s.issues.Record(ctx, sku, steps.ReasonDuplicateSKU,
					fmt.Sprintf("sku used by %s and %s", first, v.ID))
				t.Skipped++
				continue
			}
			seen[sku] = v.ID

			productID := v.ProductID
			if v.Product != nil {
				if productID == "" {
					productID = v.Product.ID
				}
				products[productID] = db.Product{ID: productID, Title: v.Product.Title, Handle: v.Product.Handle}
			}
			row := db.ProductVariant{ID: v.ID, ProductID: productID, SKU: sku, Title: v.Title}
			if v.UpdatedAt != nil {
				row.UpdatedAt = *v.UpdatedAt
			}
			rows = append(rows, row)
		}

		prods := make([]db.Product, 0, len(products))
		for _, p := range products {
			prods = append(prods, p)
		}
		if err := s.store.SaveVariants(ctx, prods, rows); err != nil {
			s.log.Error().Err(err).Int("offset", offset).Msg("page not saved")
			t.Errors += len(rows)
		} else {
			t.Created += len(rows)
		}

		offset += len(page.Variants)
		fmt.Fprintf(s.env.Out, "%s: %d/%d\n", Name, offset, page.Count)
		if page.Count > 0 && offset >= page.Count {
			break
		}
	}
	s.log.Info().Int("mirrored", t.Created).Int("skipped", t.Skipped).Msg("platform variants mirrored")
	return t, nil
}

func (s *Step) fetch(ctx context.Context, offset int) (*variantsPage, error) {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base_url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/admin/product-variants"
	q := u.Query()
	q.Set("limit", strconv.Itoa(s.cfg.PageSize))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("fields", fields)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("variants offset %d: %w", offset, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("variants offset %d: http %d", offset, resp.StatusCode)
	}

	var page variantsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode offset %d: %w", offset, err)
	}
	return &page, nil
}

func factory(env steps.Env, raw json.RawMessage) (steps.Step, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("variants: base_url is empty")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	timeout := 20 * time.Second
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	return &Step{
		env:     env,
		log:     env.Log,
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		store:   catalog.NewGormStore(env.DB),
		journal: steps.NewJournal(env.DB, env.Log),
		issues:  steps.NewIssues(env.DB, env.Log, Name),
	}, nil
}

func init() {
	steps.Register(Name, factory)
}
