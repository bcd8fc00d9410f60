// Package scheduler fires due recurring templates and flags overdue invoices
// on cron schedules. It runs as its own process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/invoicely/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/invoicely/internal/observability/metrics"
	recurringdomain "github.com/smallbiznis/invoicely/internal/recurring/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobRecurring = "recurring"
	JobOverdue   = "overdue"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	InvoiceSvc   invoicedomain.Service
	RecurringSvc recurringdomain.Service
	Metrics      *obsmetrics.Metrics          `optional:"true"`
	SchedMetrics *obsmetrics.SchedulerMetrics `optional:"true"`
	Config       Config                       `optional:"true"`
}

type Scheduler struct {
	db           *gorm.DB
	log          *zap.Logger
	cfg          Config
	genID        *snowflake.Node
	clock        clock.Clock
	invoiceSvc   invoicedomain.Service
	recurringSvc recurringdomain.Service
	metrics      *obsmetrics.Metrics
	schedMetrics *obsmetrics.SchedulerMetrics
	cron         *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.InvoiceSvc == nil || p.RecurringSvc == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	for _, spec := range []string{cfg.RecurringSpec, cfg.OverdueSpec} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, spec, err)
		}
	}

	log := p.Log.Named("scheduler").With(zap.String("component", "scheduler"))
	return &Scheduler{
		db:           p.DB,
		log:          log,
		cfg:          cfg,
		genID:        p.GenID,
		clock:        p.Clock,
		invoiceSvc:   p.InvoiceSvc,
		recurringSvc: p.RecurringSvc,
		metrics:      p.Metrics,
		schedMetrics: p.SchedMetrics,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
	}, nil
}

// Start registers both jobs and starts the cron loop. Job contexts derive from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.RecurringSpec, func() {
		if err := s.runJob(ctx, JobRecurring, s.cfg.BatchSize, s.cfg.JobTimeout, s.RecurringJob); err != nil {
			s.log.Warn("scheduler job failed", zap.String("job", JobRecurring), zap.Error(err))
		}
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.OverdueSpec, func() {
		if err := s.runJob(ctx, JobOverdue, 0, s.cfg.JobTimeout, s.OverdueJob); err != nil {
			s.log.Warn("scheduler job failed", zap.String("job", JobOverdue), zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("recurring_spec", s.cfg.RecurringSpec),
		zap.String("overdue_spec", s.cfg.OverdueSpec),
	)
	return nil
}

// Stop halts the cron loop and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	s.schedMetrics.IncJobRun(name)

	err := fn(ctx)
	s.schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// Deadline is a soft timeout; the next tick resumes the work.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.schedMetrics.IncJobTimeout(name)
	}
	s.schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every job once. Used by the run-once mode and tests.
func (s *Scheduler) RunOnce(parent context.Context) error {
	return errors.Join(
		s.runJob(parent, JobRecurring, s.cfg.BatchSize, s.cfg.JobTimeout, s.RecurringJob),
		s.runJob(parent, JobOverdue, 0, s.cfg.JobTimeout, s.OverdueJob),
	)
}

type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
