package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicely/internal/client/domain"
	"github.com/smallbiznis/invoicely/pkg/civil"
)

// StatusStat is the invoice count and summed total for one status.
type StatusStat struct {
	Status      string          `json:"status"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OverdueStats struct {
	OverdueCount  int64           `json:"overdue_count"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
}

// RevenuePoint is one bucket of the revenue series. Period is the first day
// of the bucket.
type RevenuePoint struct {
	Period       civil.Date      `json:"period"`
	Revenue      decimal.Decimal `json:"revenue"`
	Collected    decimal.Decimal `json:"collected"`
	InvoiceCount int64           `json:"invoice_count"`
}

type DashboardStats struct {
	InvoiceStats []StatusStat        `json:"invoice_stats"`
	RevenueStats []RevenuePoint      `json:"revenue_stats"`
	ClientStats  clientdomain.Counts `json:"client_stats"`
	OverdueStats OverdueStats        `json:"overdue_stats"`
}

type AgingInvoice struct {
	InvoiceID     snowflake.ID    `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientName    *string         `json:"client_name,omitempty"`
	Status        string          `json:"status"`
	DueDate       *civil.Date     `json:"due_date,omitempty"`
	DaysPastDue   int             `json:"days_past_due"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Balance       decimal.Decimal `json:"balance"`
	Bracket       string          `json:"age_bracket"`
}

type AgingBracket struct {
	Bracket      string          `json:"bracket"`
	Invoices     []AgingInvoice  `json:"invoices"`
	TotalBalance decimal.Decimal `json:"total_balance"`
}

// AgingReport groups open invoices by how long they are past due.
type AgingReport struct {
	AsOf        civil.Date     `json:"as_of"`
	Brackets    []AgingBracket `json:"brackets"`
	AllInvoices []AgingInvoice `json:"all_invoices"`
}

type ClientSummary struct {
	ClientID      snowflake.ID    `json:"client_id"`
	Name          string          `json:"name"`
	Email         *string         `json:"email,omitempty"`
	TotalInvoices int64           `json:"total_invoices"`
	TotalBilled   decimal.Decimal `json:"total_billed"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Outstanding   decimal.Decimal `json:"outstanding_balance"`
	OverdueCount  int64           `json:"overdue_count"`
}
