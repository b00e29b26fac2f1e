package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/canjobs/internal/ingest"
)

// Runner runs one ingest cycle.
type Runner interface {
	Run(ctx context.Context, req ingest.Request) (ingest.Result, error)
}

// Cleaner deletes stored jobs older than a retention window.
type Cleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Options configure a Scheduler.
type Options struct {
	Interval   time.Duration  // time between cycles
	RunOnStart bool           // run one cycle immediately
	Request    ingest.Request // city and day window for scheduled cycles
	Retention  time.Duration  // zero disables cleanup
}

// Scheduler owns the main loop: runs an ingest cycle on an interval and prunes
// old jobs after each cycle.
type Scheduler struct {
	runner  Runner
	cleaner Cleaner
	opts    Options
	logger  *slog.Logger
}

// NewScheduler creates a scheduler around an ingest runner. cleaner may be nil.
func NewScheduler(runner Runner, cleaner Cleaner, opts Options, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		cleaner: cleaner,
		opts:    opts,
		logger:  logger,
	}
}

// Run starts the ingest loop. It runs one immediate cycle when RunOnStart is
// set, then ticks on the configured interval. A failed cycle is logged and the
// loop keeps going. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.opts.Interval.String(),
		"run_on_start", s.opts.RunOnStart,
		"retention", s.opts.Retention.String(),
	)

	if s.opts.RunOnStart {
		s.cycle(ctx)
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	res, err := s.runner.Run(ctx, s.opts.Request)
	if err != nil {
		s.logger.Error("scheduled ingest failed", "error", err)
	} else {
		s.logger.Info("scheduled ingest done",
			"added", res.Added,
			"failed_sources", len(res.Failed),
			"duration", time.Since(start).Round(time.Millisecond).String(),
		)
	}

	if s.cleaner == nil || s.opts.Retention <= 0 || ctx.Err() != nil {
		return
	}
	n, err := s.cleaner.Cleanup(ctx, s.opts.Retention)
	if err != nil {
		s.logger.Error("cleanup failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("removed expired jobs", "count", n, "retention", s.opts.Retention.String())
	}
}
