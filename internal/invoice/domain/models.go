// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

// Well-known invoice statuses. The column is an open string; other values are stored as given.
const (
	StatusDraft         = "draft"
	StatusSent          = "sent"
	StatusPartiallyPaid = "partially_paid"
	StatusPaid          = "paid"
	StatusOverdue       = "overdue"
)

// Invoice is a caller-owned bill with its line items.
type Invoice struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID        int64           `gorm:"not null;index" json:"user_id"`
	ClientID      *snowflake.ID   `gorm:"index" json:"client_id,omitempty"`
	InvoiceNumber string          `gorm:"type:text;not null" json:"invoice_number"`
	Status        string          `gorm:"type:text;not null;default:'draft'" json:"status"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	DueDate       *civil.Date     `gorm:"type:date" json:"due_date,omitempty"`
	Notes         *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`

	// Resolved from clients on read.
	ClientName  *string `gorm:"->;-:migration" json:"client_name,omitempty"`
	ClientEmail *string `gorm:"->;-:migration" json:"client_email,omitempty"`

	Items []InvoiceItem `gorm:"-" json:"items"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Balance is what remains to be paid.
func (i Invoice) Balance() decimal.Decimal {
	return i.Total.Sub(i.PaidAmount)
}

// SettledStatus is the status an invoice takes once paid has been received
// against total. With nothing paid it keeps unpaid.
func SettledStatus(total, paid decimal.Decimal, unpaid string) string {
	switch {
	case !paid.IsPositive():
		return unpaid
	case paid.GreaterThanOrEqual(total):
		return StatusPaid
	default:
		return StatusPartiallyPaid
	}
}

// InvoiceItem is one line on an invoice. Position keeps input order.
type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
