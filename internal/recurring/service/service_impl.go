package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	clientdomain "github.com/smallbiznis/invoicely/internal/client/domain"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	"github.com/smallbiznis/invoicely/internal/recurring/domain"
	"github.com/smallbiznis/invoicely/internal/recurring/schedule"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const documentRecurring = "recurring_invoice"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Clients clientdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	clients clientdomain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("recurring.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		clients: p.Clients,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, draft domain.Draft) (domain.RecurringInvoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	id := s.genID.Generate()
	items, err := buildItems(s.genID, id, draft.Items)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	template, err := s.fromDraft(draft, domain.RecurringInvoice{Status: domain.StatusActive}, items)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	template.ID = id
	template.UserID = userID
	template.CreatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkClient(ctx, tx, userID, template.ClientID); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &template); err != nil {
			return fmt.Errorf("insert recurring invoice: %w", err)
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return fmt.Errorf("insert recurring invoice items: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	s.metrics.RecordDocumentWrite(ctx, documentRecurring, "create")

	return s.Get(ctx, template.ID)
}

// Update replaces the stored template. See domain.Draft for the fields that
// keep their stored value when omitted; next_run is always recomputed.
func (s *Service) Update(ctx context.Context, id snowflake.ID, draft domain.Draft) (domain.RecurringInvoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	if id == 0 {
		return domain.RecurringInvoice{}, domain.ErrInvalidID
	}

	replaceItems := draft.Items != nil
	items, err := buildItems(s.genID, id, draft.Items)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if err := s.checkClient(ctx, tx, userID, draft.ClientID); err != nil {
			return err
		}
		if !replaceItems {
			if items, err = s.repo.ListItems(ctx, tx, []snowflake.ID{id}); err != nil {
				return err
			}
		}

		next, err := s.fromDraft(draft, domain.RecurringInvoice{
			Status:  existing.Status,
			LastRun: existing.LastRun,
		}, items)
		if err != nil {
			return err
		}
		next.ID = existing.ID
		next.UserID = userID

		affected, err := s.repo.Update(ctx, tx, &next)
		if err != nil {
			return fmt.Errorf("update recurring invoice: %w", err)
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		if !replaceItems {
			return nil
		}
		if err := s.repo.DeleteItems(ctx, tx, id); err != nil {
			return fmt.Errorf("delete recurring invoice items: %w", err)
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return fmt.Errorf("insert recurring invoice items: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	s.metrics.RecordDocumentWrite(ctx, documentRecurring, "update")

	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.RecurringInvoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	if id == 0 {
		return domain.RecurringInvoice{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	if item == nil {
		return domain.RecurringInvoice{}, domain.ErrNotFound
	}
	templates := []domain.RecurringInvoice{*item}
	if err := s.attachItems(ctx, s.db, templates); err != nil {
		return domain.RecurringInvoice{}, err
	}
	return templates[0], nil
}

func (s *Service) List(ctx context.Context) ([]domain.RecurringInvoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.RecurringInvoice{}
	}
	if err := s.attachItems(ctx, s.db, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}
	if id == 0 {
		return domain.ErrInvalidID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.DeleteItems(ctx, tx, id); err != nil {
			return fmt.Errorf("delete recurring invoice items: %w", err)
		}
		affected, err := s.repo.Delete(ctx, tx, userID, id)
		if err != nil {
			return fmt.Errorf("delete recurring invoice: %w", err)
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.RecordDocumentWrite(ctx, documentRecurring, "delete")
	return nil
}

func (s *Service) Advance(ctx context.Context, id snowflake.ID, firedOn civil.Date) (domain.RecurringInvoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	var advanced domain.RecurringInvoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advanced, err = s.AdvanceTx(ctx, tx, userID, id, firedOn)
		return err
	})
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	return advanced, nil
}

// AdvanceTx fires the template inside tx. A template whose next run passes
// its end date is marked completed.
func (s *Service) AdvanceTx(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID, firedOn civil.Date) (domain.RecurringInvoice, error) {
	if userID <= 0 {
		return domain.RecurringInvoice{}, domain.ErrInvalidCaller
	}
	if id == 0 {
		return domain.RecurringInvoice{}, domain.ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, tx, userID, id)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	if existing == nil {
		return domain.RecurringInvoice{}, domain.ErrNotFound
	}

	fired, err := schedule.Fire(existing.Schedule(), firedOn)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}

	updated := *existing
	updated.LastRun = fired.LastRun
	updated.NextRun = fired.NextRun
	if fired.Finished() {
		updated.Status = domain.StatusCompleted
	}

	affected, err := s.repo.UpdateSchedule(ctx, tx, &updated)
	if err != nil {
		return domain.RecurringInvoice{}, fmt.Errorf("advance recurring invoice: %w", err)
	}
	if affected == 0 {
		return domain.RecurringInvoice{}, domain.ErrNotFound
	}
	return updated, nil
}

func (s *Service) DueTemplates(ctx context.Context, asOf civil.Date, limit int) ([]domain.RecurringInvoice, error) {
	if limit <= 0 {
		limit = 100
	}
	due, err := s.repo.FindDue(ctx, s.db, asOf, limit)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, s.db, due); err != nil {
		return nil, err
	}
	return due, nil
}

func (s *Service) attachItems(ctx context.Context, db *gorm.DB, templates []domain.RecurringInvoice) error {
	if len(templates) == 0 {
		return nil
	}
	ids := make([]snowflake.ID, 0, len(templates))
	for _, template := range templates {
		ids = append(ids, template.ID)
	}
	items, err := s.repo.ListItems(ctx, db, ids)
	if err != nil {
		return fmt.Errorf("list recurring invoice items: %w", err)
	}

	byTemplate := make(map[snowflake.ID][]domain.RecurringInvoiceItem, len(templates))
	for _, item := range items {
		byTemplate[item.RecurringInvoiceID] = append(byTemplate[item.RecurringInvoiceID], item)
	}
	for i := range templates {
		templates[i].Items = byTemplate[templates[i].ID]
		if templates[i].Items == nil {
			templates[i].Items = []domain.RecurringInvoiceItem{}
		}
	}
	return nil
}

// checkClient rejects a client the caller does not own.
func (s *Service) checkClient(ctx context.Context, tx *gorm.DB, userID int64, clientID *snowflake.ID) error {
	if clientID == nil {
		return nil
	}
	if *clientID == 0 {
		return domain.ErrInvalidClientID
	}
	client, err := s.clients.FindByID(ctx, tx, userID, *clientID)
	if err != nil {
		return fmt.Errorf("find client: %w", err)
	}
	if client == nil {
		return domain.ErrInvalidClientID
	}
	return nil
}

// fromDraft builds the template the draft describes. base carries the status
// and last run used when the draft leaves them blank.
func (s *Service) fromDraft(draft domain.Draft, base domain.RecurringInvoice, items []domain.RecurringInvoiceItem) (domain.RecurringInvoice, error) {
	out := domain.RecurringInvoice{
		ClientID:          draft.ClientID,
		Interval:          schedule.Month,
		IntervalCount:     1,
		EndDate:           draft.EndDate,
		LastRun:           base.LastRun,
		Status:            base.Status,
		SendAutomatically: draft.SendAutomatically,
	}

	if strings.TrimSpace(draft.Interval) != "" {
		interval, err := schedule.ParseInterval(draft.Interval)
		if err != nil {
			return domain.RecurringInvoice{}, err
		}
		out.Interval = interval
	}
	if draft.IntervalCount != nil {
		if *draft.IntervalCount < 1 {
			return domain.RecurringInvoice{}, schedule.ErrInvalidIntervalCount
		}
		out.IntervalCount = *draft.IntervalCount
	}
	if draft.StartDate == nil || draft.StartDate.IsZero() {
		return domain.RecurringInvoice{}, domain.ErrInvalidStartDate
	}
	out.StartDate = *draft.StartDate
	if out.EndDate != nil && out.EndDate.Before(out.StartDate) {
		return domain.RecurringInvoice{}, domain.ErrInvalidEndDate
	}
	if draft.LastRun != nil {
		out.LastRun = draft.LastRun
	}
	if strings.TrimSpace(draft.Status) != "" {
		out.Status = draft.Status
	}

	total, err := resolveTotal(draft.Total, items)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	out.Total = total

	next, err := schedule.NextRun(out.StartDate, out.Interval, out.IntervalCount, out.LastRun)
	if err != nil {
		return domain.RecurringInvoice{}, err
	}
	out.NextRun = &next
	return out, nil
}

func callerID(ctx context.Context) (int64, error) {
	userID, ok := callercontext.CallerIDFromContext(ctx)
	if !ok || userID <= 0 {
		return 0, domain.ErrInvalidCaller
	}
	return userID, nil
}
