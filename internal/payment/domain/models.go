// Package domain contains the payment records kept against invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

// Payment is money received against one invoice. Payments are recorded by
// hand; no processor is involved.
type Payment struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID      int64           `gorm:"not null;index" json:"user_id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentDate civil.Date      `gorm:"type:date;not null" json:"payment_date"`
	Method      *string         `gorm:"type:text" json:"payment_method,omitempty"`
	Reference   *string         `gorm:"type:text" json:"reference_number,omitempty"`
	Notes       *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

// InvoiceBalance is the payment state of an invoice after a change.
type InvoiceBalance struct {
	InvoiceID  snowflake.ID    `json:"invoice_id"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     string          `json:"status"`
	Remaining  decimal.Decimal `json:"remaining"`
}
