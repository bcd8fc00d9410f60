package scheduler

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	recurringdomain "github.com/smallbiznis/invoicely/internal/recurring/domain"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	outcomeCreated = "created"
	outcomeFailed  = "failed"
)

// RecurringJob fires every active template whose next run is on or before
// today. A template behind by several periods fires once per period.
// A failing template is logged and skipped for the rest of the run.
func (s *Scheduler) RecurringJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobRecurring, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	today := civil.FromTime(s.clock.Now())
	failed := make(map[snowflake.ID]struct{})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		due, err := s.recurringSvc.DueTemplates(ctx, today, s.cfg.BatchSize+len(failed))
		if err != nil {
			s.logSchedulerError(ctx, run, "scheduler.recurring.fetch.failed", JobRecurring, 0, err)
			return err
		}

		attempted, processed := 0, 0
		for _, template := range due {
			if _, skip := failed[template.ID]; skip {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempted++
			invoice, err := s.fireTemplate(ctx, template)
			if err != nil {
				failed[template.ID] = struct{}{}
				s.metrics.RecordRecurringFired(ctx, outcomeFailed)
				s.logSchedulerError(ctx, run, "scheduler.recurring.fire.failed", JobRecurring, template.UserID, err,
					zap.String("recurring_id", idString(template.ID)),
				)
				continue
			}
			processed++
			s.metrics.RecordRecurringFired(ctx, outcomeCreated)
			s.logInvoiceGenerated(ctx, template, invoice)

			if template.SendAutomatically {
				s.sendGenerated(ctx, template, invoice)
			}
		}

		run.AddProcessed(processed)
		s.schedMetrics.AddBatchProcessed(JobRecurring, "recurring_invoices", processed)
		if attempted == 0 {
			return nil
		}
	}
}

// fireTemplate creates the template's invoice and advances its schedule in one transaction.
func (s *Scheduler) fireTemplate(ctx context.Context, template recurringdomain.RecurringInvoice) (invoicedomain.Invoice, error) {
	if template.NextRun == nil {
		return invoicedomain.Invoice{}, fmt.Errorf("recurring invoice %s has no next run", template.ID)
	}
	firedOn := *template.NextRun
	draft := invoiceDraft(template)

	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		invoice, err = s.invoiceSvc.CreateTx(ctx, tx, template.UserID, draft)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if _, err := s.recurringSvc.AdvanceTx(ctx, tx, template.UserID, template.ID, firedOn); err != nil {
			return fmt.Errorf("advance schedule: %w", err)
		}
		return nil
	})
	return invoice, err
}

// invoiceDraft copies the template lines onto a draft invoice. A template
// without lines bills its flat total.
func invoiceDraft(template recurringdomain.RecurringInvoice) invoicedomain.Draft {
	draft := invoicedomain.Draft{
		ClientID: template.ClientID,
		Status:   invoicedomain.StatusDraft,
	}
	if len(template.Items) == 0 {
		total := template.Total
		draft.Total = &total
		return draft
	}
	draft.Items = make([]invoicedomain.ItemDraft, 0, len(template.Items))
	for _, item := range template.Items {
		draft.Items = append(draft.Items, invoicedomain.ItemDraft{
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return draft
}

// sendGenerated delivers a generated invoice on behalf of the template owner.
// Delivery failure leaves the invoice as a draft.
func (s *Scheduler) sendGenerated(ctx context.Context, template recurringdomain.RecurringInvoice, invoice invoicedomain.Invoice) {
	callerCtx := callercontext.WithCallerID(ctx, template.UserID)
	if _, err := s.invoiceSvc.Send(callerCtx, invoice.ID); err != nil {
		s.logger(callerCtx).Warn("scheduler.recurring.send.failed",
			zap.String("recurring_id", idString(template.ID)),
			zap.String("invoice_id", idString(invoice.ID)),
			zap.Error(err),
		)
	}
}
