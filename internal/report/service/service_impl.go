package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	clientdomain "github.com/smallbiznis/invoicely/internal/client/domain"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	productdomain "github.com/smallbiznis/invoicely/internal/product/domain"
	"github.com/smallbiznis/invoicely/internal/report/domain"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const moneyPlaces = 2

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Clients   clientdomain.Service
	Products  productdomain.Service
	Reporting *config.ReportingConfigHolder `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	clients   clientdomain.Service
	products  productdomain.Service
	reporting *config.ReportingConfigHolder
}

func New(p Params) domain.Service {
	reporting := p.Reporting
	if reporting == nil {
		reporting = config.NewStaticReportingConfigHolder(config.DefaultReportingConfig())
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("report.service"),
		clock:     p.Clock,
		clients:   p.Clients,
		products:  p.Products,
		reporting: reporting,
	}
}

type statusRow struct {
	Status      string          `gorm:"column:status"`
	Count       int64           `gorm:"column:count"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount"`
}

type overdueRow struct {
	OverdueCount  int64           `gorm:"column:overdue_count"`
	OverdueAmount decimal.Decimal `gorm:"column:overdue_amount"`
}

// DashboardStats issues one query per figure. The figures are not taken
// from a single snapshot.
func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	db := s.db.WithContext(ctx)

	var statuses []statusRow
	if err := db.Raw(
		`SELECT status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total_amount
		 FROM invoices
		 WHERE user_id = ?
		 GROUP BY status
		 ORDER BY status ASC`,
		userID,
	).Scan(&statuses).Error; err != nil {
		return domain.DashboardStats{}, fmt.Errorf("invoice stats: %w", err)
	}

	var overdue overdueRow
	if err := db.Raw(
		`SELECT COUNT(*) AS overdue_count, COALESCE(SUM(total - paid_amount), 0) AS overdue_amount
		 FROM invoices
		 WHERE user_id = ? AND status = ?`,
		userID,
		invoicedomain.StatusOverdue,
	).Scan(&overdue).Error; err != nil {
		return domain.DashboardStats{}, fmt.Errorf("overdue stats: %w", err)
	}

	clients, err := s.clients.Counts(ctx)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("client stats: %w", err)
	}

	revenue, err := s.revenue(ctx, userID, domain.RangeAll, domain.OrderDesc)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	if periods := s.reporting.Get().DashboardPeriods; periods > 0 && len(revenue) > periods {
		revenue = revenue[:periods]
	}

	stats := domain.DashboardStats{
		InvoiceStats: make([]domain.StatusStat, 0, len(statuses)),
		RevenueStats: revenue,
		ClientStats:  clients,
		OverdueStats: domain.OverdueStats{
			OverdueCount:  overdue.OverdueCount,
			OverdueAmount: overdue.OverdueAmount.Round(moneyPlaces),
		},
	}
	for _, row := range statuses {
		stats.InvoiceStats = append(stats.InvoiceStats, domain.StatusStat{
			Status:      row.Status,
			Count:       row.Count,
			TotalAmount: row.TotalAmount.Round(moneyPlaces),
		})
	}
	return stats, nil
}

func (s *Service) RevenueSeries(ctx context.Context, rng domain.Range, order domain.Order) ([]domain.RevenuePoint, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	return s.revenue(ctx, userID, rng, order)
}

type revenueRow struct {
	CreatedAt time.Time       `gorm:"column:created_at"`
	Status    string          `gorm:"column:status"`
	Total     decimal.Decimal `gorm:"column:total"`
	Paid      decimal.Decimal `gorm:"column:paid_amount"`
}

// collected counts a paid invoice in full, since invoices can be marked paid
// without recorded payments. Anything else contributes what was paid on it.
func (r revenueRow) collected() decimal.Decimal {
	if r.Status == invoicedomain.StatusPaid {
		return r.Total
	}
	return r.Paid
}

// revenue buckets the caller's invoices by creation period in Go so the
// result does not depend on the SQL dialect's date functions.
func (s *Service) revenue(ctx context.Context, userID int64, rng domain.Range, order domain.Order) ([]domain.RevenuePoint, error) {
	query := `SELECT created_at, status, total, paid_amount FROM invoices WHERE user_id = ?`
	args := []any{userID}
	if since, ok := rng.Since(s.clock.Now()); ok {
		query += ` AND created_at >= ?`
		args = append(args, since)
	}

	var rows []revenueRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("revenue series: %w", err)
	}

	granularity := rng.Granularity()
	buckets := make(map[civil.Date]*domain.RevenuePoint)
	for _, row := range rows {
		period := granularity.Truncate(row.CreatedAt)
		point, ok := buckets[period]
		if !ok {
			point = &domain.RevenuePoint{Period: period}
			buckets[period] = point
		}
		point.Revenue = point.Revenue.Add(row.Total)
		point.Collected = point.Collected.Add(row.collected())
		point.InvoiceCount++
	}

	series := make([]domain.RevenuePoint, 0, len(buckets))
	for _, point := range buckets {
		point.Revenue = point.Revenue.Round(moneyPlaces)
		point.Collected = point.Collected.Round(moneyPlaces)
		series = append(series, *point)
	}
	sort.Slice(series, func(i, j int) bool {
		if order == domain.OrderAsc {
			return series[i].Period.Before(series[j].Period)
		}
		return series[i].Period.After(series[j].Period)
	})
	return series, nil
}

type agingRow struct {
	ID            snowflake.ID    `gorm:"column:id"`
	InvoiceNumber string          `gorm:"column:invoice_number"`
	ClientName    *string         `gorm:"column:client_name"`
	Status        string          `gorm:"column:status"`
	DueDate       *civil.Date     `gorm:"column:due_date"`
	Total         decimal.Decimal `gorm:"column:total"`
	PaidAmount    decimal.Decimal `gorm:"column:paid_amount"`
}

// InvoiceAging buckets invoices with an open balance by days past their due
// date as of today. Invoices without a due date are current.
func (s *Service) InvoiceAging(ctx context.Context) (domain.AgingReport, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.AgingReport{}, err
	}

	var rows []agingRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT i.id, i.invoice_number, c.name AS client_name, i.status, i.due_date, i.total, i.paid_amount
		 FROM invoices i
		 LEFT JOIN clients c ON c.id = i.client_id AND c.user_id = i.user_id
		 WHERE i.user_id = ? AND i.status IN ?
		 ORDER BY i.due_date ASC, i.id ASC`,
		userID,
		[]string{invoicedomain.StatusSent, invoicedomain.StatusOverdue, invoicedomain.StatusPartiallyPaid},
	).Scan(&rows).Error; err != nil {
		return domain.AgingReport{}, fmt.Errorf("invoice aging: %w", err)
	}

	asOf := civil.FromTime(s.clock.Now())
	buckets := s.reporting.Get().AgingBuckets
	report := domain.AgingReport{
		AsOf:        asOf,
		Brackets:    make([]domain.AgingBracket, len(buckets)),
		AllInvoices: make([]domain.AgingInvoice, 0, len(rows)),
	}
	for i, bucket := range buckets {
		report.Brackets[i] = domain.AgingBracket{Bracket: bucket.Label, Invoices: []domain.AgingInvoice{}}
	}

	for _, row := range rows {
		balance := row.Total.Sub(row.PaidAmount).Round(moneyPlaces)
		if !balance.IsPositive() {
			continue
		}
		days := 0
		if row.DueDate != nil && !row.DueDate.IsZero() {
			days = asOf.DaysSince(*row.DueDate)
		}
		idx := bracketIndex(buckets, days)
		invoice := domain.AgingInvoice{
			InvoiceID:     row.ID,
			InvoiceNumber: row.InvoiceNumber,
			ClientName:    row.ClientName,
			Status:        row.Status,
			DueDate:       row.DueDate,
			DaysPastDue:   max(days, 0),
			Total:         row.Total.Round(moneyPlaces),
			PaidAmount:    row.PaidAmount.Round(moneyPlaces),
			Balance:       balance,
		}
		if idx >= 0 {
			invoice.Bracket = buckets[idx].Label
			report.Brackets[idx].Invoices = append(report.Brackets[idx].Invoices, invoice)
			report.Brackets[idx].TotalBalance = report.Brackets[idx].TotalBalance.Add(invoice.Balance)
		}
		report.AllInvoices = append(report.AllInvoices, invoice)
	}
	return report, nil
}

func bracketIndex(buckets []config.AgingBucket, days int) int {
	if days < 0 {
		days = 0
	}
	for i, bucket := range buckets {
		if days < bucket.MinDays {
			continue
		}
		if bucket.MaxDays == nil || days <= *bucket.MaxDays {
			return i
		}
	}
	return -1
}

type clientSummaryRow struct {
	ClientID      snowflake.ID    `gorm:"column:client_id"`
	Name          string          `gorm:"column:name"`
	Email         *string         `gorm:"column:email"`
	TotalInvoices int64           `gorm:"column:total_invoices"`
	TotalBilled   decimal.Decimal `gorm:"column:total_billed"`
	TotalPaid     decimal.Decimal `gorm:"column:total_paid"`
	Outstanding   decimal.Decimal `gorm:"column:outstanding"`
	OverdueCount  int64           `gorm:"column:overdue_count"`
}

func (s *Service) ClientSummary(ctx context.Context) ([]domain.ClientSummary, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var rows []clientSummaryRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT c.id AS client_id,
		        c.name AS name,
		        c.email AS email,
		        COUNT(i.id) AS total_invoices,
		        COALESCE(SUM(i.total), 0) AS total_billed,
		        COALESCE(SUM(CASE WHEN i.status = ? THEN i.total ELSE i.paid_amount END), 0) AS total_paid,
		        COALESCE(SUM(CASE WHEN i.status IN ? THEN i.total - i.paid_amount ELSE 0 END), 0) AS outstanding,
		        COALESCE(SUM(CASE WHEN i.status = ? THEN 1 ELSE 0 END), 0) AS overdue_count
		 FROM clients c
		 LEFT JOIN invoices i ON i.client_id = c.id AND i.user_id = c.user_id
		 WHERE c.user_id = ?
		 GROUP BY c.id, c.name, c.email
		 ORDER BY total_billed DESC, c.name ASC`,
		invoicedomain.StatusPaid,
		[]string{invoicedomain.StatusSent, invoicedomain.StatusOverdue, invoicedomain.StatusPartiallyPaid},
		invoicedomain.StatusOverdue,
		userID,
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("client summary: %w", err)
	}

	out := make([]domain.ClientSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ClientSummary{
			ClientID:      row.ClientID,
			Name:          row.Name,
			Email:         row.Email,
			TotalInvoices: row.TotalInvoices,
			TotalBilled:   row.TotalBilled.Round(moneyPlaces),
			TotalPaid:     row.TotalPaid.Round(moneyPlaces),
			Outstanding:   row.Outstanding.Round(moneyPlaces),
			OverdueCount:  row.OverdueCount,
		})
	}
	return out, nil
}

func callerID(ctx context.Context) (int64, error) {
	userID, ok := callercontext.CallerIDFromContext(ctx)
	if !ok || userID <= 0 {
		return 0, domain.ErrInvalidCaller
	}
	return userID, nil
}
