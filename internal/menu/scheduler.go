package menu

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler triggers the weekly rollover on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    zerolog.Logger
}

// NewScheduler creates a Scheduler running the rollover on the given cron
// expression (standard 5-field syntax, e.g. "0 0 * * MON").
func NewScheduler(engine *Engine, schedule string, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		engine: engine,
		log:    log.With().Str("component", "menu_scheduler").Logger(),
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Info().Msg("starting scheduled rollover")
		if err := s.engine.RunScheduledRollover(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("scheduled rollover failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register rollover schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
