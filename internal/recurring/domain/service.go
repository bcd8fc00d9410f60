package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"gorm.io/gorm"
)

// ItemDraft is a template line. Its amount is quantity x price rounded to cents.
type ItemDraft struct {
	Description string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
}

// Draft is the writable part of a template. next_run and last_run are
// derived; a supplied LastRun is honored so imported templates keep their history.
//
// Update replaces the whole template. Omitted interval fields take the create
// defaults and omitted optional fields are cleared. Status, LastRun and Items
// are the exceptions: a blank status, a nil LastRun or nil Items keep the
// stored value. A non-nil empty Items clears the lines.
type Draft struct {
	ClientID          *snowflake.ID
	Interval          string
	IntervalCount     *int
	StartDate         *civil.Date
	EndDate           *civil.Date
	LastRun           *civil.Date
	Status            string
	Total             *decimal.Decimal
	SendAutomatically bool
	Items             []ItemDraft
}

type Service interface {
	Create(ctx context.Context, draft Draft) (RecurringInvoice, error)
	Update(ctx context.Context, id snowflake.ID, draft Draft) (RecurringInvoice, error)
	Get(ctx context.Context, id snowflake.ID) (RecurringInvoice, error)
	List(ctx context.Context) ([]RecurringInvoice, error)
	Delete(ctx context.Context, id snowflake.ID) error

	// Advance records a run on firedOn for the caller's template.
	Advance(ctx context.Context, id snowflake.ID, firedOn civil.Date) (RecurringInvoice, error)
	AdvanceTx(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID, firedOn civil.Date) (RecurringInvoice, error)
	// DueTemplates lists active templates due on or before asOf for every caller.
	DueTemplates(ctx context.Context, asOf civil.Date, limit int) ([]RecurringInvoice, error)
}

var (
	ErrInvalidCaller    = errors.New("invalid_caller")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidStartDate = errors.New("invalid_start_date")
	ErrInvalidEndDate   = errors.New("invalid_end_date")
	ErrInvalidTotal     = errors.New("invalid_total")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrTotalMismatch    = errors.New("total_mismatch")
	ErrInvalidClientID  = errors.New("invalid_client_id")
	ErrNotFound         = errors.New("not_found")
)
