package intel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a refresh job on a cron schedule. A run that is still going
// when the next one is due makes the next one skip. The job owns any
// serialization against refreshes started outside the scheduler.
type Scheduler struct {
	cron   *cron.Cron
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewScheduler parses spec (standard five-field cron or a descriptor such
// as "@every 30m") and registers job. Call Start to begin. The context
// passed to job is cancelled by Stop.
func NewScheduler(spec string, job func(context.Context), logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("intel schedule %q: %w", spec, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	c.Schedule(schedule, cron.FuncJob(func() { job(ctx) }))
	return &Scheduler{cron: c, cancel: cancel, logger: logger}, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("intel: scheduler started")
}

// Stop halts scheduling, cancels the running job and returns a context done
// once that job, if any, has returned.
func (s *Scheduler) Stop() context.Context {
	done := s.cron.Stop()
	s.cancel()
	return done
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug("cron: "+msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, append(kv, "error", err)...)
}
