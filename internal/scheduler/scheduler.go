// Package scheduler runs the depreciation batch once a day.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
)

// Runner is the batch the scheduler triggers.
type Runner interface {
	RunBatch(ctx context.Context, asOf time.Time) (*depreciation.Report, error)
}

type Scheduler struct {
	runner   Runner
	spec     string
	location *time.Location
	now      func() time.Time
}

// New returns a scheduler that fires every day at hour:minute local time.
func New(r Runner, hour, minute int) *Scheduler {
	return &Scheduler{
		runner:   r,
		spec:     fmt.Sprintf("%d %d * * *", minute, hour),
		location: time.Local,
		now:      time.Now,
	}
}

// Spec is the cron expression the scheduler runs on.
func (s *Scheduler) Spec() string { return s.spec }

// Next returns the first run time strictly after now.
func (s *Scheduler) Next(now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule %q: %w", s.spec, err)
	}
	return sched.Next(now), nil
}

// Run blocks until ctx is done, running the batch at each scheduled
// time. A failed run is logged and the schedule continues; a run still
// going when the next one is due makes that one skip.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{ctx: ctx}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := c.AddFunc(s.spec, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", s.spec, err)
	}

	c.Start()
	slog.InfoContext(ctx, "depreciation scheduler started",
		"schedule", s.spec, "next", c.Entry(id).Next.Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "depreciation scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx, s.now()); err != nil {
		slog.ErrorContext(ctx, "scheduled depreciation run failed", "error", err)
	}
}

// RunOnce runs the batch as of asOf and logs the report.
func (s *Scheduler) RunOnce(ctx context.Context, asOf time.Time) (*depreciation.Report, error) {
	report, err := s.runner.RunBatch(ctx, asOf)
	if err != nil {
		return nil, err
	}
	for _, e := range report.Errors {
		slog.WarnContext(ctx, "depreciation error", "as_of", asOf.Format(ledger.DateLayout), "error", e)
	}
	return report, nil
}

// cronLogger sends cron's own messages to slog.
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	slog.DebugContext(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.ErrorContext(l.ctx, "cron: "+msg, append(keysAndValues, "error", err)...)
}
