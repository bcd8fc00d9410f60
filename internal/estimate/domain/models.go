package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

const (
	StatusDraft     = "draft"
	StatusConverted = "converted"
)

// Estimate is a quote. Its total is supplied by the caller; no lines are stored.
type Estimate struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID             int64           `gorm:"not null;index" json:"user_id"`
	ClientID           *snowflake.ID   `gorm:"index" json:"client_id,omitempty"`
	EstimateNumber     string          `gorm:"type:text;not null" json:"estimate_number"`
	Status             string          `gorm:"type:text;not null;default:'draft'" json:"status"`
	Total              decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	IssueDate          *civil.Date     `gorm:"type:date" json:"issue_date,omitempty"`
	ExpiryDate         *civil.Date     `gorm:"type:date" json:"expiry_date,omitempty"`
	ConvertedInvoiceID *snowflake.ID   `json:"converted_invoice_id,omitempty"`
	CreatedAt          time.Time       `gorm:"not null" json:"created_at"`

	ClientName *string `gorm:"->;-:migration" json:"client_name,omitempty"`
}

func (Estimate) TableName() string { return "estimates" }

func (e Estimate) Converted() bool {
	return e.Status == StatusConverted || e.ConvertedInvoiceID != nil
}
