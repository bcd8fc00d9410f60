package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/report/domain"
)

type exportInvoiceRow struct {
	InvoiceNumber string          `gorm:"column:invoice_number"`
	Status        string          `gorm:"column:status"`
	Total         decimal.Decimal `gorm:"column:total"`
}

// Export projects the caller's records of one kind into a flat table.
func (s *Service) Export(ctx context.Context, kind domain.ExportKind) (domain.Table, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	table, err := domain.NewTable(kind)
	if err != nil {
		return domain.Table{}, err
	}

	switch kind {
	case domain.ExportInvoices:
		var rows []exportInvoiceRow
		if err := s.db.WithContext(ctx).Raw(
			`SELECT invoice_number, status, total
			 FROM invoices
			 WHERE user_id = ?
			 ORDER BY created_at DESC, id DESC`,
			userID,
		).Scan(&rows).Error; err != nil {
			return domain.Table{}, fmt.Errorf("export invoices: %w", err)
		}
		for _, row := range rows {
			table.Append(row.InvoiceNumber, row.Status, row.Total.StringFixed(moneyPlaces))
		}

	case domain.ExportClients:
		clients, err := s.clients.List(ctx)
		if err != nil {
			return domain.Table{}, fmt.Errorf("export clients: %w", err)
		}
		for _, c := range clients {
			table.Append(c.Name, deref(c.Email), deref(c.Phone))
		}

	case domain.ExportProducts:
		products, err := s.products.List(ctx)
		if err != nil {
			return domain.Table{}, fmt.Errorf("export products: %w", err)
		}
		for _, p := range products {
			table.Append(p.Name, p.Price.StringFixed(moneyPlaces))
		}
	}
	return table, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
