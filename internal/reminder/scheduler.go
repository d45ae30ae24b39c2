package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a job on a cron schedule evaluated in a fixed time zone.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	job      func(ctx context.Context)
	logger   *slog.Logger
}

// NewScheduler parses spec, a standard five-field cron expression.
func NewScheduler(spec string, loc *time.Location, job func(ctx context.Context), logger *slog.Logger) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse reminder schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{spec: spec, schedule: sched, loc: loc, job: job, logger: logger}, nil
}

// Next returns the first firing strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Run blocks until ctx is cancelled, firing the job on schedule. A firing
// still in progress when the next one is due causes that one to be skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.job(ctx) }); err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	c.Start()
	s.logger.Info("reminder scheduled",
		slog.String("spec", s.spec),
		slog.String("tz", s.loc.String()),
		slog.Time("next", s.Next(time.Now())))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
