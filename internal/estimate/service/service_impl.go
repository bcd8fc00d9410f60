package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	clientdomain "github.com/smallbiznis/invoicely/internal/client/domain"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/estimate/domain"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/numbering"
	"github.com/smallbiznis/invoicely/internal/observability/logger"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	documentEstimate = "estimate"

	// ConvertedInvoiceDueDays is the payment term of an invoice created from an estimate.
	ConvertedInvoiceDueDays = 30
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Clock      clock.Clock
	InvoiceSvc invoicedomain.Service
	Clients    clientdomain.Repository
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
	clients    clientdomain.Repository
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("estimate.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
		clients:    p.Clients,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, draft domain.Draft) (domain.Estimate, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.Estimate{}, err
	}
	if err := validateDraft(draft); err != nil {
		return domain.Estimate{}, err
	}

	estimate := domain.Estimate{
		ID:         s.genID.Generate(),
		UserID:     userID,
		ClientID:   draft.ClientID,
		Status:     statusOr(draft.Status, domain.StatusDraft),
		Total:      draft.Total.Round(2),
		IssueDate:  draft.IssueDate,
		ExpiryDate: draft.ExpiryDate,
		CreatedAt:  s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkClient(ctx, tx, userID, draft.ClientID); err != nil {
			return err
		}
		estimate.EstimateNumber = draft.EstimateNumber
		if strings.TrimSpace(estimate.EstimateNumber) == "" {
			count, err := s.repo.CountByUser(ctx, tx, userID)
			if err != nil {
				return fmt.Errorf("count estimates: %w", err)
			}
			if estimate.EstimateNumber, err = numbering.Format(numbering.EstimatePrefix, count); err != nil {
				return err
			}
		}
		if err := s.repo.Insert(ctx, tx, &estimate); err != nil {
			return fmt.Errorf("insert estimate: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Estimate{}, err
	}
	s.metrics.RecordDocumentWrite(ctx, documentEstimate, "create")

	return s.Get(ctx, estimate.ID)
}

// Update replaces the estimate. Converted estimates are frozen.
func (s *Service) Update(ctx context.Context, id snowflake.ID, draft domain.Draft) (domain.Estimate, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.Estimate{}, err
	}
	if id == 0 {
		return domain.Estimate{}, domain.ErrInvalidID
	}
	if err := validateDraft(draft); err != nil {
		return domain.Estimate{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if existing.Converted() {
			return domain.ErrAlreadyConverted
		}
		if err := s.checkClient(ctx, tx, userID, draft.ClientID); err != nil {
			return err
		}

		next := domain.Estimate{
			ID:             id,
			UserID:         userID,
			ClientID:       draft.ClientID,
			EstimateNumber: draft.EstimateNumber,
			Status:         statusOr(draft.Status, existing.Status),
			Total:          draft.Total.Round(2),
			IssueDate:      draft.IssueDate,
			ExpiryDate:     draft.ExpiryDate,
		}
		if strings.TrimSpace(next.EstimateNumber) == "" {
			next.EstimateNumber = existing.EstimateNumber
		}

		affected, err := s.repo.Update(ctx, tx, &next)
		if err != nil {
			return fmt.Errorf("update estimate: %w", err)
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return domain.Estimate{}, err
	}
	s.metrics.RecordDocumentWrite(ctx, documentEstimate, "update")

	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Estimate, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.Estimate{}, err
	}
	if id == 0 {
		return domain.Estimate{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return domain.Estimate{}, err
	}
	if item == nil {
		return domain.Estimate{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Estimate, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Estimate{}
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

	affected, err := s.repo.Delete(ctx, s.db, userID, id)
	if err != nil {
		return fmt.Errorf("delete estimate: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	s.metrics.RecordDocumentWrite(ctx, documentEstimate, "delete")
	return nil
}

func (s *Service) Convert(ctx context.Context, id snowflake.ID) (domain.ConvertResult, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.ConvertResult{}, err
	}
	if id == 0 {
		return domain.ConvertResult{}, domain.ErrInvalidID
	}

	var invoice invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if existing.Converted() {
			return domain.ErrAlreadyConverted
		}

		total := existing.Total
		due := civil.FromTime(s.clock.Now()).AddDate(0, 0, ConvertedInvoiceDueDays)
		invoice, err = s.invoiceSvc.CreateTx(ctx, tx, userID, invoicedomain.Draft{
			ClientID: existing.ClientID,
			Status:   invoicedomain.StatusDraft,
			Total:    &total,
			DueDate:  &due,
		})
		if err != nil {
			return fmt.Errorf("create invoice from estimate: %w", err)
		}

		affected, err := s.repo.MarkConverted(ctx, tx, userID, id, invoice.ID)
		if err != nil {
			return fmt.Errorf("mark estimate converted: %w", err)
		}
		if affected == 0 {
			return domain.ErrAlreadyConverted
		}
		return nil
	})
	if err != nil {
		return domain.ConvertResult{}, err
	}

	logger.WithContext(ctx, s.log).Info("estimate converted",
		zap.String("estimate_id", id.String()),
		zap.String("invoice_id", invoice.ID.String()),
	)
	s.metrics.RecordDocumentWrite(ctx, documentEstimate, "convert")

	estimate, err := s.Get(ctx, id)
	if err != nil {
		return domain.ConvertResult{}, err
	}
	return domain.ConvertResult{
		Estimate:      estimate,
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
	}, nil
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

func validateDraft(draft domain.Draft) error {
	if draft.Total.IsNegative() {
		return domain.ErrInvalidTotal
	}
	if draft.IssueDate != nil && draft.ExpiryDate != nil && draft.ExpiryDate.Before(*draft.IssueDate) {
		return domain.ErrInvalidExpiryDate
	}
	return nil
}

func statusOr(status, fallback string) string {
	if strings.TrimSpace(status) != "" {
		return status
	}
	return fallback
}

func callerID(ctx context.Context) (int64, error) {
	userID, ok := callercontext.CallerIDFromContext(ctx)
	if !ok || userID <= 0 {
		return 0, domain.ErrInvalidCaller
	}
	return userID, nil
}
