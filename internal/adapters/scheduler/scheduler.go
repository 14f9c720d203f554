package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner runs every sweep once.
type Runner interface {
	RunAll(ctx context.Context)
}

// Scheduler replaces the platform cron when the process runs long-lived.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
}

func New(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, logger: logger}
}

// Run ticks until ctx is done. The first round runs right away.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runner.RunAll(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
