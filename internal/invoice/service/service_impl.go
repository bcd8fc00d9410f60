package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	clientdomain "github.com/smallbiznis/invoicely/internal/client/domain"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/numbering"
	"github.com/smallbiznis/invoicely/internal/observability/logger"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	"github.com/smallbiznis/invoicely/internal/providers/email"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const documentInvoice = "invoice"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Email   email.Provider
	Clients clientdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	email   email.Provider
	clients clientdomain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		email:   p.Email,
		clients: p.Clients,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, draft domain.Draft) (domain.Invoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}

	var created domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err = s.CreateTx(ctx, tx, userID, draft)
		return err
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	s.metrics.RecordDocumentWrite(ctx, documentInvoice, "create")

	return s.load(ctx, s.db, userID, created.ID)
}

func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, userID int64, draft domain.Draft) (domain.Invoice, error) {
	if userID <= 0 {
		return domain.Invoice{}, domain.ErrInvalidCaller
	}
	if err := s.checkClient(ctx, tx, userID, draft.ClientID); err != nil {
		return domain.Invoice{}, err
	}

	id := s.genID.Generate()
	items, err := buildItems(s.genID, id, draft.Items)
	if err != nil {
		return domain.Invoice{}, err
	}
	total, err := resolveTotal(draft.Total, items)
	if err != nil {
		return domain.Invoice{}, err
	}

	number := draft.InvoiceNumber
	if strings.TrimSpace(number) == "" {
		number, err = s.nextNumber(ctx, tx, userID)
		if err != nil {
			return domain.Invoice{}, err
		}
	}

	invoice := domain.Invoice{
		ID:            id,
		UserID:        userID,
		ClientID:      draft.ClientID,
		InvoiceNumber: number,
		Status:        normalizeStatus(draft.Status, domain.StatusDraft),
		Total:         total,
		DueDate:       draft.DueDate,
		Notes:         draft.Notes,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
		return domain.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	if err := s.repo.InsertItems(ctx, tx, items); err != nil {
		return domain.Invoice{}, fmt.Errorf("insert invoice items: %w", err)
	}

	invoice.Items = items
	return invoice, nil
}

// Update replaces the invoice row and its whole item set. Items receive new ids.
func (s *Service) Update(ctx context.Context, id snowflake.ID, draft domain.Draft) (domain.Invoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}
	if id == 0 {
		return domain.Invoice{}, domain.ErrInvalidID
	}

	items, err := buildItems(s.genID, id, draft.Items)
	if err != nil {
		return domain.Invoice{}, err
	}
	total, err := resolveTotal(draft.Total, items)
	if err != nil {
		return domain.Invoice{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if total.LessThan(existing.PaidAmount) {
			return domain.ErrTotalBelowPaid
		}
		if err := s.checkClient(ctx, tx, userID, draft.ClientID); err != nil {
			return err
		}

		number := draft.InvoiceNumber
		if strings.TrimSpace(number) == "" {
			number = existing.InvoiceNumber
		}
		status := draft.Status
		if strings.TrimSpace(status) == "" {
			status = domain.SettledStatus(total, existing.PaidAmount, existing.Status)
		}

		next := domain.Invoice{
			ID:            id,
			UserID:        userID,
			ClientID:      draft.ClientID,
			InvoiceNumber: number,
			Status:        status,
			Total:         total,
			DueDate:       draft.DueDate,
			Notes:         draft.Notes,
		}
		affected, err := s.repo.Update(ctx, tx, &next)
		if err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if affected == 0 {
			return domain.ErrNotFound
		}

		if err := s.repo.DeleteItems(ctx, tx, id); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return fmt.Errorf("insert invoice items: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	s.metrics.RecordDocumentWrite(ctx, documentInvoice, "update")

	return s.load(ctx, s.db, userID, id)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Invoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.Invoice{}, err
	}
	if id == 0 {
		return domain.Invoice{}, domain.ErrInvalidID
	}
	return s.load(ctx, s.db, userID, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Invoice, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	invoices, err := s.repo.List(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return []domain.Invoice{}, nil
	}

	ids := make([]snowflake.ID, 0, len(invoices))
	for _, invoice := range invoices {
		ids = append(ids, invoice.ID)
	}
	items, err := s.repo.ListItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	byInvoice := make(map[snowflake.ID][]domain.InvoiceItem, len(invoices))
	for _, item := range items {
		byInvoice[item.InvoiceID] = append(byInvoice[item.InvoiceID], item)
	}
	for i := range invoices {
		invoices[i].Items = nonNilItems(byInvoice[invoices[i].ID])
	}
	return invoices, nil
}

// Delete removes the payments, the items and then the invoice in one transaction.
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
		if err := s.repo.DeletePayments(ctx, tx, id); err != nil {
			return fmt.Errorf("delete invoice payments: %w", err)
		}
		if err := s.repo.DeleteItems(ctx, tx, id); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		affected, err := s.repo.Delete(ctx, tx, userID, id)
		if err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.RecordDocumentWrite(ctx, documentInvoice, "delete")
	return nil
}

// Send hands the invoice to the email provider and moves a draft to sent.
// Invoices in any other status keep it.
func (s *Service) Send(ctx context.Context, id snowflake.ID) (domain.SendResult, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return domain.SendResult{}, err
	}

	log := logger.WithContext(ctx, s.log)
	var messageID string
	if invoice.ClientEmail != nil && strings.TrimSpace(*invoice.ClientEmail) != "" {
		messageID, err = s.email.Send(ctx, email.Message{
			To:      []string{*invoice.ClientEmail},
			Subject: "Invoice " + invoice.InvoiceNumber,
			Body:    fmt.Sprintf("Invoice %s for %s is attached.", invoice.InvoiceNumber, invoice.Total.StringFixed(moneyPlaces)),
		})
		if err != nil {
			return domain.SendResult{}, fmt.Errorf("send invoice: %w", err)
		}
	} else {
		log.Info("invoice has no client email, delivery skipped", zap.String("invoice_id", invoice.ID.String()))
	}

	if invoice.Status == domain.StatusDraft {
		if _, err := s.repo.UpdateStatus(ctx, s.db, invoice.UserID, invoice.ID, domain.StatusSent); err != nil {
			return domain.SendResult{}, fmt.Errorf("mark invoice sent: %w", err)
		}
		invoice.Status = domain.StatusSent
	}
	s.metrics.RecordDocumentSent(ctx, documentInvoice)

	return domain.SendResult{Invoice: invoice, MessageID: messageID}, nil
}

func (s *Service) MarkOverdue(ctx context.Context, asOf civil.Date) (int64, error) {
	if asOf.IsZero() {
		return 0, fmt.Errorf("mark overdue: as-of date is required")
	}
	affected, err := s.repo.MarkOverdue(ctx, s.db, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	if affected > 0 {
		s.log.Info("invoices marked overdue", zap.Int64("count", affected), zap.String("as_of", asOf.String()))
	}
	return affected, nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, db, userID, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	items, err := s.repo.ListItems(ctx, db, []snowflake.ID{id})
	if err != nil {
		return domain.Invoice{}, err
	}
	invoice.Items = nonNilItems(items)
	return *invoice, nil
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

func (s *Service) nextNumber(ctx context.Context, tx *gorm.DB, userID int64) (string, error) {
	count, err := s.repo.CountByUser(ctx, tx, userID)
	if err != nil {
		return "", fmt.Errorf("count invoices: %w", err)
	}
	return numbering.Format(numbering.InvoicePrefix, count)
}

func callerID(ctx context.Context) (int64, error) {
	userID, ok := callercontext.CallerIDFromContext(ctx)
	if !ok || userID <= 0 {
		return 0, domain.ErrInvalidCaller
	}
	return userID, nil
}

// normalizeStatus keeps the caller's status as given. A blank one falls back.
func normalizeStatus(status, fallback string) string {
	if strings.TrimSpace(status) == "" {
		return fallback
	}
	return status
}

func nonNilItems(items []domain.InvoiceItem) []domain.InvoiceItem {
	if items == nil {
		return []domain.InvoiceItem{}
	}
	return items
}
