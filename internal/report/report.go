// Package report summarises the price ledger with plain read queries.
package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type ChannelCount struct {
	Channel  string `db:"channel"`
	Currency string `db:"currency_code"`
	Prices   int    `db:"n"`
	InList   int    `db:"in_list"`
}

type IssueCount struct {
	Step   string `db:"step"`
	Reason string `db:"reason"`
	Count  int    `db:"n"`
}

type Run struct {
	RunID    uint   `db:"run_id"`
	Step     string `db:"step"`
	Filename string `db:"filename"`
	Status   int    `db:"status"`
	Created  int    `db:"created"`
	Skipped  int    `db:"skipped"`
	Errors   int    `db:"errors"`
}

type Summary struct {
	Variants       int
	PriceSets      int
	PriceLists     int
	Links          int
	UnlinkedPriced int // variants with prices written but no link; always 0 on a healthy ledger
	Unpriced       int // mirrored variants without a link
	Prices         []ChannelCount
	Issues         []IssueCount
	Runs           []Run
}

type Reporter struct {
	db *sqlx.DB
}

// New wraps the connection pool of gdb; dialect is the database/sql driver name.
func New(gdb *gorm.DB, dialect string) (*Reporter, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	return &Reporter{db: sqlx.NewDb(sqlDB, dialect)}, nil
}

// Build reads the summary; lastRuns limits the import run history.
func (r *Reporter) Build(ctx context.Context, lastRuns int) (*Summary, error) {
	s := &Summary{}
	counts := []struct {
		dst   *int
		query string
	}{
		{&s.Variants, `SELECT COUNT(*) FROM product_variants`},
		{&s.PriceSets, `SELECT COUNT(*) FROM price_sets`},
		{&s.PriceLists, `SELECT COUNT(*) FROM price_lists`},
		{&s.Links, `SELECT COUNT(*) FROM product_variant_price_sets`},
		{&s.UnlinkedPriced, `SELECT COUNT(*) FROM price_sets ps
			LEFT JOIN product_variant_price_sets l ON l.price_set_id = ps.id
			WHERE l.id IS NULL`},
		{&s.Unpriced, `SELECT COUNT(*) FROM product_variants v
			LEFT JOIN product_variant_price_sets l ON l.variant_id = v.id
			WHERE l.id IS NULL`},
	}
	for _, c := range counts {
		if err := r.db.GetContext(ctx, c.dst, c.query); err != nil {
			return nil, fmt.Errorf("report: %w", err)
		}
	}

	if err := r.db.SelectContext(ctx, &s.Prices, `
		SELECT channel, currency_code, COUNT(*) AS n,
		       SUM(CASE WHEN price_list_id IS NULL THEN 0 ELSE 1 END) AS in_list
		FROM prices
		GROUP BY channel, currency_code
		ORDER BY channel, currency_code`); err != nil {
		return nil, fmt.Errorf("report prices: %w", err)
	}
	if err := r.db.SelectContext(ctx, &s.Issues, `
		SELECT step, reason, COUNT(*) AS n
		FROM link_issues
		GROUP BY step, reason
		ORDER BY step, reason`); err != nil {
		return nil, fmt.Errorf("report issues: %w", err)
	}
	if lastRuns > 0 {
		q := r.db.Rebind(`
			SELECT run_id, step, filename, status, created, skipped, errors
			FROM import_runs
			ORDER BY run_id DESC
			LIMIT ?`)
		if err := r.db.SelectContext(ctx, &s.Runs, q, lastRuns); err != nil {
			return nil, fmt.Errorf("report runs: %w", err)
		}
	}
	return s, nil
}

func (s *Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "variants\t%d\n", s.Variants)
	fmt.Fprintf(tw, "price sets\t%d\n", s.PriceSets)
	fmt.Fprintf(tw, "price lists\t%d\n", s.PriceLists)
	fmt.Fprintf(tw, "links\t%d\n", s.Links)
	fmt.Fprintf(tw, "variants without prices\t%d\n", s.Unpriced)
	fmt.Fprintf(tw, "price sets without link\t%d\n", s.UnlinkedPriced)
	for _, p := range s.Prices {
		fmt.Fprintf(tw, "prices %s/%s\t%d (%d in price list)\n", p.Channel, p.Currency, p.Prices, p.InList)
	}
	for _, i := range s.Issues {
		fmt.Fprintf(tw, "issues %s/%s\t%d\n", i.Step, i.Reason, i.Count)
	}
	for _, r := range s.Runs {
		fmt.Fprintf(tw, "run #%d %s\t%s %s created=%d skipped=%d errors=%d\n",
			r.RunID, r.Step, statusName(r.Status), r.Filename, r.Created, r.Skipped, r.Errors)
	}
	return tw.Flush()
}

func statusName(s int) string {
	switch s {
	case db.RunPending:
		return "pending"
	case db.RunDone:
		return "done"
	case db.RunError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", s)
}
