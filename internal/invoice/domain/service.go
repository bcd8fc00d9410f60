package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"gorm.io/gorm"
)

// ItemDraft is a requested line. A nil Amount is computed.
type ItemDraft struct {
	Description string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Amount      *decimal.Decimal
}

// Draft is the writable part of an invoice. A nil Total is computed from the items.
type Draft struct {
	ClientID      *snowflake.ID
	InvoiceNumber string
	Status        string
	Total         *decimal.Decimal
	DueDate       *civil.Date
	Notes         *string
	Items         []ItemDraft
}

type SendResult struct {
	Invoice   Invoice `json:"invoice"`
	MessageID string  `json:"message_id"`
}

type Service interface {
	Create(ctx context.Context, draft Draft) (Invoice, error)
	Update(ctx context.Context, id snowflake.ID, draft Draft) (Invoice, error)
	Get(ctx context.Context, id snowflake.ID) (Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	Delete(ctx context.Context, id snowflake.ID) error
	Send(ctx context.Context, id snowflake.ID) (SendResult, error)

	// CreateTx writes an invoice for userID inside tx. Callers that need an
	// invoice as part of a wider transaction use it.
	CreateTx(ctx context.Context, tx *gorm.DB, userID int64, draft Draft) (Invoice, error)
	// MarkOverdue moves sent invoices due before asOf to overdue for every caller.
	MarkOverdue(ctx context.Context, asOf civil.Date) (int64, error)
}

var (
	ErrInvalidCaller   = errors.New("invalid_caller")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidTotal    = errors.New("invalid_total")
	ErrAmountMismatch  = errors.New("amount_mismatch")
	ErrTotalMismatch   = errors.New("total_mismatch")
	ErrTotalBelowPaid  = errors.New("total_below_paid")
	ErrInvalidClientID = errors.New("invalid_client_id")
	ErrNotFound        = errors.New("not_found")
)
