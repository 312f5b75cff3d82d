package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/openpack/gamify/gamify/config"
	"github.com/openpack/gamify/gamify/integrity"
	"github.com/openpack/gamify/gamify/rankings"
)

// Scheduler owns the periodic maintenance jobs: the hourly full
// ranking refresh and the integrity sweep.
type Scheduler struct {
	cron       *cron.Cron
	calculator *rankings.Calculator
	global     *rankings.Global
	guard      *integrity.Guard
}

func New(calculator *rankings.Calculator, global *rankings.Global, guard *integrity.Guard) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		calculator: calculator,
		global:     global,
		guard:      guard,
	}
}

// Start registers and launches the jobs. sweepSpec is a cron
// expression, typically "@every 30m".
func (s *Scheduler) Start(ctx context.Context, sweepSpec string) error {
	if _, err := s.cron.AddFunc("0 * * * *", func() { s.refreshRankings(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(sweepSpec, func() { s.runSweep(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Scheduler started",
		slog.String("type", "sys"),
		slog.String("sweep", sweepSpec))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshRankings(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, config.RecomputeTimeout)
	defer cancel()

	if err := s.calculator.RecomputeAll(rctx, nil, true); err != nil {
		slog.Error("Scheduled ranking refresh failed",
			slog.String("type", "ranking"),
			slog.String("error", err.Error()))
		return
	}
	s.global.Invalidate()
}

func (s *Scheduler) runSweep(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, config.SweepTimeout)
	defer cancel()

	if _, err := s.guard.Sweep(sctx); err != nil {
		slog.Error("Scheduled integrity sweep failed",
			slog.String("type", "guard"),
			slog.String("error", err.Error()))
	}
}
