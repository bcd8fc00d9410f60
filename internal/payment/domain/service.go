package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

// Draft is a payment to record. A nil PaymentDate means today.
type Draft struct {
	Amount      decimal.Decimal
	PaymentDate *civil.Date
	Method      *string
	Reference   *string
	Notes       *string
}

type RecordResult struct {
	Payment Payment        `json:"payment"`
	Invoice InvoiceBalance `json:"invoice"`
}

type Service interface {
	// List returns the invoice's payments, newest payment date first.
	List(ctx context.Context, invoiceID snowflake.ID) ([]Payment, error)
	// Record stores a payment and moves the invoice to partially_paid or paid.
	Record(ctx context.Context, invoiceID snowflake.ID, draft Draft) (RecordResult, error)
	// Delete removes a payment and recomputes the invoice balance.
	Delete(ctx context.Context, invoiceID, paymentID snowflake.ID) (InvoiceBalance, error)
}

var (
	ErrInvalidCaller = errors.New("invalid_caller")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrOverpayment   = errors.New("overpayment")
	ErrNotFound      = errors.New("not_found")
)
