package scheduler

import (
	"context"

	"github.com/smallbiznis/invoicely/pkg/civil"
)

// OverdueJob moves sent invoices due before today to overdue.
func (s *Scheduler) OverdueJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobOverdue, 0)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	affected, err := s.invoiceSvc.MarkOverdue(ctx, civil.FromTime(s.clock.Now()))
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.overdue.failed", JobOverdue, 0, err)
		return err
	}
	run.AddProcessed(int(affected))
	s.schedMetrics.AddBatchProcessed(JobOverdue, "invoices", int(affected))
	return nil
}
