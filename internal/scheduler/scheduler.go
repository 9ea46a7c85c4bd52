package scheduler

import (
	"context"
	"time"

	"stocksage/internal/logger"
)

// IntervalScheduler runs a task on a fixed cadence until its context is
// cancelled. The task runs on the scheduler goroutine; a slow task delays
// the next tick rather than overlapping it.
type IntervalScheduler struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool

	ctx context.Context
}

func NewIntervalScheduler(ctx context.Context, name string, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{Name: name, Interval: interval, ctx: ctx}
}

// Start blocks until the context ends. Call it on its own goroutine.
func (s *IntervalScheduler) Start(task func()) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler %s: invalid interval=%s, exit", s.Name, s.Interval)
		return
	}
	logger.Infof("scheduler %s: started interval=%s run_immediately=%v", s.Name, s.Interval, s.RunImmediately)

	if s.RunImmediately {
		task()
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("scheduler %s: stopped", s.Name)
			return
		case <-ticker.C:
			task()
		}
	}
}
