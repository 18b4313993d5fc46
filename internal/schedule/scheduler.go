package schedule

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/engine"
)

// Scheduler drives the periodic jobs: the arbitrage alert sweep and history
// pruning. Specs come from configuration in standard 5-field cron syntax.
type Scheduler struct {
	cron *cron.Cron
	eng  *engine.Engine
	log  zerolog.Logger
}

// New registers the jobs without starting them.
func New(cfg *config.Config, eng *engine.Engine, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		eng:  eng,
		log:  log.With().Str("component", "scheduler").Logger(),
	}

	if _, err := s.cron.AddFunc(cfg.SweepSpec, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep cron spec %q: %w", cfg.SweepSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.PruneSpec, s.prune); err != nil {
		return nil, fmt.Errorf("invalid prune cron spec %q: %w", cfg.PruneSpec, err)
	}
	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) sweep() {
	events := s.eng.Sweep()
	s.log.Debug().Int("events", len(events)).Msg("alert sweep complete")
}

func (s *Scheduler) prune() {
	removed := s.eng.PruneHistory()
	s.log.Debug().Int("removed", removed).Msg("history prune complete")
}
