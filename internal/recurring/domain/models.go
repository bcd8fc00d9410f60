package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/recurring/schedule"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// RecurringInvoice is a template from which invoices are generated on a schedule.
type RecurringInvoice struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID            int64             `gorm:"not null;index" json:"user_id"`
	ClientID          *snowflake.ID     `gorm:"index" json:"client_id,omitempty"`
	Interval          schedule.Interval `gorm:"column:interval_unit;type:text;not null;default:'month'" json:"interval"`
	IntervalCount     int               `gorm:"not null;default:1" json:"interval_count"`
	StartDate         civil.Date        `gorm:"type:date;not null" json:"start_date"`
	EndDate           *civil.Date       `gorm:"type:date" json:"end_date,omitempty"`
	NextRun           *civil.Date       `gorm:"type:date;index" json:"next_run,omitempty"`
	LastRun           *civil.Date       `gorm:"type:date" json:"last_run,omitempty"`
	Status            string            `gorm:"type:text;not null;default:'active'" json:"status"`
	Total             decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	SendAutomatically bool              `gorm:"not null;default:false" json:"send_automatically"`
	CreatedAt         time.Time         `gorm:"not null" json:"created_at"`

	ClientName *string `gorm:"->;-:migration" json:"client_name,omitempty"`

	Items []RecurringInvoiceItem `gorm:"-" json:"items"`
}

func (RecurringInvoice) TableName() string { return "recurring_invoices" }

// RecurringInvoiceItem is a line copied onto every invoice the template generates.
type RecurringInvoiceItem struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	RecurringInvoiceID snowflake.ID    `gorm:"not null;index" json:"recurring_invoice_id"`
	Position           int             `gorm:"not null;default:0" json:"position"`
	Description        string          `gorm:"type:text;not null" json:"description"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"quantity"`
	Price              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
}

func (RecurringInvoiceItem) TableName() string { return "recurring_invoice_items" }

// Schedule returns the schedule state of the template.
func (r RecurringInvoice) Schedule() schedule.Template {
	return schedule.Template{
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Interval:      r.Interval,
		IntervalCount: r.IntervalCount,
		LastRun:       r.LastRun,
		NextRun:       r.NextRun,
	}
}
