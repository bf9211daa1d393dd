// Package syncer runs the configured reconciliation steps on an interval.
package syncer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	conf "github.com/bartek5186/catalogsync/internal/config"
	"github.com/bartek5186/catalogsync/internal/ledger"
	"github.com/bartek5186/catalogsync/internal/steps"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Syncer struct {
	log     zerolog.Logger
	db      *gorm.DB
	out     io.Writer
	mu      sync.Mutex
	cfg     *conf.Config
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	ticks   uint64
}

func New(log zerolog.Logger, cfg *conf.Config, gdb *gorm.DB, out io.Writer) *Syncer {
	if out == nil {
		out = io.Discard
	}
	return &Syncer{log: log, cfg: cfg, db: gdb, out: out}
}

// Start launches the loop; the first pass runs immediately.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.ticks = 0
	s.wg.Add(1)

	s.log.Info().Strs("steps", s.cfg.Watch).Dur("interval", s.intervalLocked()).Msg("watch: start")
	go s.loop(ctx)
	return nil
}

// Stop cancels the loop and waits for the pass in flight.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("watch: stop")
}

// UpdateConfig swaps the configuration; the next pass uses it.
func (s *Syncer) UpdateConfig(cfg *conf.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.log.Info().Msg("watch: config updated")
}

func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Ticks is the number of passes started so far.
func (s *Syncer) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Syncer) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalLocked()
}

func (s *Syncer) intervalLocked() time.Duration {
	if s.cfg != nil && s.cfg.SyncIntervalSeconds > 0 {
		return time.Duration(s.cfg.SyncIntervalSeconds) * time.Second
	}
	return 5 * time.Minute
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()

	s.tickOnce(ctx)

	cur := s.interval()
	ticker := time.NewTicker(cur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if next := s.interval(); next != cur {
				cur = next
				ticker.Reset(cur)
			}
			s.tickOnce(ctx)
		}
	}
}

// tickOnce runs every watched step in order. A failing step is logged and the
// pass moves on; inputs that already completed are skipped.
func (s *Syncer) tickOnce(ctx context.Context) {
	s.mu.Lock()
	s.ticks++
	n := s.ticks
	cfg := s.cfg
	s.mu.Unlock()

	env := steps.Env{Log: s.log, DB: s.db, Cfg: cfg, Out: s.out, SkipDone: true}
	var total ledger.Tally
	for _, name := range cfg.Watch {
		if ctx.Err() != nil {
			return
		}
		st, err := steps.Build(name, env)
		if err != nil {
			s.log.Error().Err(err).Str("step", name).Msg("watch: cannot build step")
			continue
		}
		t, err := st.Run(ctx)
		if err != nil {
			s.log.Error().Err(err).Str("step", name).Msg("watch: step failed")
			continue
		}
		fmt.Fprintf(s.out, "%s: %s\n", name, t)
		total.Add(t)
	}
	s.log.Info().Uint64("pass", n).Str("tally", total.String()).Msg("watch: pass finished")
}
