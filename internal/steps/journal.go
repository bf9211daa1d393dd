package steps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bartek5186/catalogsync/internal/db"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/bartek5186/catalogsync/internal/rows"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAlreadyDone is returned by Begin when skipDone is set and the same input completed before.
var ErrAlreadyDone = errors.New("input already imported")

// Journal records every step execution in import_runs.
type Journal struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewJournal(gdb *gorm.DB, log zerolog.Logger) *Journal {
	return &Journal{db: gdb, log: log}
}

type Run struct {
	j   *Journal
	row db.ImportRun
}

// Begin opens a pending run for source. sum identifies the input content and may be empty
// for sources without one; only a non-empty sum is ever treated as already done.
func (j *Journal) Begin(ctx context.Context, step, source, sum string, skipDone bool) (*Run, error) {
	if skipDone && sum != "" {
		var prev db.ImportRun
		err := j.db.WithContext(ctx).
			Where("step = ? AND sha256 = ? AND status = ?", step, sum, db.RunDone).
			Order("run_id DESC").
			Take(&prev).Error
		if err == nil {
			j.log.Debug().Str("step", step).Str("source", source).Uint("run_id", prev.RunID).Msg("input unchanged since last run, skipping")
			return nil, ErrAlreadyDone
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	row := db.ImportRun{
		Step:     step,
		Filename: source,
		SHA256:   sum,
		Status:   db.RunPending,
	}
	if err := j.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("journal %s: %w", step, err)
	}
	return &Run{j: j, row: row}, nil
}

func (r *Run) ID() uint { return r.row.RunID }

// Finish stores the outcome of the run. A journal failure is logged, never returned.
func (r *Run) Finish(ctx context.Context, t ledger.Tally, runErr error, meta map[string]any) {
	now := time.Now()
	upd := map[string]any{
		"status":      db.RunDone,
		"created":     t.Created,
		"skipped":     t.Skipped,
		"errors":      t.Errors,
		"finished_at": now,
	}
	if runErr != nil {
		upd["status"] = db.RunError
		upd["last_error"] = runErr.Error()
	}
	if meta != nil {
		upd["meta"] = datatypes.JSONMap(meta)
	}
	if err := r.j.db.WithContext(ctx).Model(&db.ImportRun{}).Where("run_id = ?", r.row.RunID).Updates(upd).Error; err != nil {
		r.j.log.Error().Err(err).Uint("run_id", r.row.RunID).Msg("cannot finish import run")
	}
}

// Checksum hashes the given files in order. A missing file is rows.ErrMissingFile.
func Checksum(paths ...string) (string, error) {
	h := sha256.New()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", rows.ErrMissingFile, p)
			}
			return "", err
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
