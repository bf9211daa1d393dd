// Package steps holds the reconciliation steps run by the CLI and the watch loop.
// Every step registers a factory under its command name.
package steps

import (
	"context"
	"encoding/json"
	"io"

	conf "github.com/bartek5186/catalogsync/internal/config"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Env is what a step gets from the process.
type Env struct {
	Log zerolog.Logger
	DB  *gorm.DB
	Cfg *conf.Config
	Out io.Writer // operator facing progress lines

	// SkipDone makes a step skip inputs whose checksum already completed once.
	SkipDone bool
}

type Step interface {
	Name() string
	// Run does one full pass. A returned error is fatal for the pass;
	// per-row failures only show up in the tally.
	Run(ctx context.Context) (ledger.Tally, error)
}

type Factory func(env Env, raw json.RawMessage) (Step, error)
