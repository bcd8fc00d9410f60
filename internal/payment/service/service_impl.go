package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	"github.com/smallbiznis/invoicely/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/observability/logger"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	"github.com/smallbiznis/invoicely/internal/payment/domain"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	documentPayment = "payment"
	moneyPlaces     = 2
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Invoices invoicedomain.Repository
	Clock    clock.Clock
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	invoices invoicedomain.Repository
	clock    clock.Clock
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		invoices: p.Invoices,
		clock:    p.Clock,
		metrics:  p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, invoiceID snowflake.ID) ([]domain.Payment, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if invoiceID == 0 {
		return nil, domain.ErrInvalidID
	}

	if _, err := s.invoice(ctx, s.db, userID, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListByInvoice(ctx, s.db, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}

// Record rejects a payment that would take paid_amount past the invoice total.
func (s *Service) Record(ctx context.Context, invoiceID snowflake.ID, draft domain.Draft) (domain.RecordResult, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.RecordResult{}, err
	}
	if invoiceID == 0 {
		return domain.RecordResult{}, domain.ErrInvalidID
	}
	if !draft.Amount.IsPositive() || !draft.Amount.Equal(draft.Amount.Round(moneyPlaces)) {
		return domain.RecordResult{}, domain.ErrInvalidAmount
	}

	paidOn := civil.FromTime(s.clock.Now())
	if draft.PaymentDate != nil && !draft.PaymentDate.IsZero() {
		paidOn = *draft.PaymentDate
	}

	var result domain.RecordResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoice(ctx, tx, userID, invoiceID)
		if err != nil {
			return err
		}

		paid := invoice.PaidAmount.Add(draft.Amount)
		if paid.GreaterThan(invoice.Total) {
			return domain.ErrOverpayment
		}

		payment := domain.Payment{
			ID:          s.genID.Generate(),
			UserID:      userID,
			InvoiceID:   invoiceID,
			Amount:      draft.Amount,
			PaymentDate: paidOn,
			Method:      draft.Method,
			Reference:   draft.Reference,
			Notes:       draft.Notes,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		balance, err := s.settle(ctx, tx, *invoice, paid, invoice.Status)
		if err != nil {
			return err
		}
		result = domain.RecordResult{Payment: payment, Invoice: balance}
		return nil
	})
	if err != nil {
		return domain.RecordResult{}, err
	}

	logger.WithContext(ctx, s.log).Info("payment recorded",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("payment_id", result.Payment.ID.String()),
		zap.String("status", result.Invoice.Status),
	)
	s.metrics.RecordDocumentWrite(ctx, documentPayment, "create")
	return result, nil
}

// Delete recomputes paid_amount from the remaining payments. An invoice left
// with nothing paid goes back to sent, or overdue once past its due date.
func (s *Service) Delete(ctx context.Context, invoiceID, paymentID snowflake.ID) (domain.InvoiceBalance, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.InvoiceBalance{}, err
	}
	if invoiceID == 0 || paymentID == 0 {
		return domain.InvoiceBalance{}, domain.ErrInvalidID
	}

	var balance domain.InvoiceBalance
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoice(ctx, tx, userID, invoiceID)
		if err != nil {
			return err
		}
		payment, err := s.repo.FindByID(ctx, tx, userID, paymentID)
		if err != nil {
			return err
		}
		if payment == nil || payment.InvoiceID != invoiceID {
			return domain.ErrNotFound
		}

		affected, err := s.repo.Delete(ctx, tx, userID, paymentID)
		if err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		if affected == 0 {
			return domain.ErrNotFound
		}

		paid, err := s.repo.SumByInvoice(ctx, tx, userID, invoiceID)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		balance, err = s.settle(ctx, tx, *invoice, paid, s.unpaidStatus(*invoice))
		return err
	})
	if err != nil {
		return domain.InvoiceBalance{}, err
	}
	s.metrics.RecordDocumentWrite(ctx, documentPayment, "delete")
	return balance, nil
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, invoice invoicedomain.Invoice, paid decimal.Decimal, unpaid string) (domain.InvoiceBalance, error) {
	paid = paid.Round(moneyPlaces)
	status := invoicedomain.SettledStatus(invoice.Total, paid, unpaid)
	affected, err := s.invoices.UpdatePaid(ctx, tx, invoice.UserID, invoice.ID, paid, status)
	if err != nil {
		return domain.InvoiceBalance{}, fmt.Errorf("update invoice balance: %w", err)
	}
	if affected == 0 {
		return domain.InvoiceBalance{}, domain.ErrNotFound
	}
	return domain.InvoiceBalance{
		InvoiceID:  invoice.ID,
		PaidAmount: paid,
		Status:     status,
		Remaining:  invoice.Total.Sub(paid).Round(moneyPlaces),
	}, nil
}

func (s *Service) unpaidStatus(invoice invoicedomain.Invoice) string {
	if invoice.Status != invoicedomain.StatusPaid && invoice.Status != invoicedomain.StatusPartiallyPaid {
		return invoice.Status
	}
	if invoice.DueDate != nil && invoice.DueDate.Before(civil.FromTime(s.clock.Now())) {
		return invoicedomain.StatusOverdue
	}
	return invoicedomain.StatusSent
}

func (s *Service) invoice(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, db, userID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

func callerID(ctx context.Context) (int64, error) {
	userID, ok := callercontext.CallerIDFromContext(ctx)
	if !ok || userID <= 0 {
		return 0, domain.ErrInvalidCaller
	}
	return userID, nil
}
