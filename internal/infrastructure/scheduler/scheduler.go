// Package scheduler runs the overdue sweep on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc runs one overdue sweep and reports how many loans moved.
type SweepFunc func(ctx context.Context) (flagged, defaulted int, err error)

type Scheduler struct {
	cron    *cron.Cron
	spec    string
	sweep   SweepFunc
	timeout time.Duration
	logger  *slog.Logger
}

func New(spec string, sweep SweepFunc, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	return &Scheduler{cron: c, spec: spec, sweep: sweep, timeout: time.Minute, logger: logger}
}

// Start registers the sweep job and starts cron. An empty spec disables it.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("overdue sweep disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}
	s.logger.Info("scheduled overdue sweep", "schedule", s.spec)
	s.cron.Start()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	flagged, defaulted, err := s.sweep(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", "error", err)
		return
	}
	s.logger.Info("overdue sweep done", "flagged", flagged, "defaulted", defaulted)
}

// Stop stops cron; the returned context is done once a running sweep finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Validate parses spec with the same parser Start uses.
func Validate(spec string) error {
	if spec == "" {
		return nil
	}
	_, err := cron.ParseStandard(spec)
	return err
}
