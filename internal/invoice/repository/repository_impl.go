package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"gorm.io/gorm"
)

const selectInvoice = `SELECT i.id, i.user_id, i.client_id, i.invoice_number, i.status, i.total, i.paid_amount,
	i.due_date, i.notes, i.created_at, c.name AS client_name, c.email AS client_email
	FROM invoices i
	LEFT JOIN clients c ON c.id = i.client_id AND c.user_id = i.user_id`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (id, user_id, client_id, invoice_number, status, total, paid_amount, due_date, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.UserID,
		invoice.ClientID,
		invoice.InvoiceNumber,
		invoice.Status,
		invoice.Total,
		invoice.PaidAmount,
		invoice.DueDate,
		invoice.Notes,
		invoice.CreatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET client_id = ?, invoice_number = ?, status = ?, total = ?, due_date = ?, notes = ?
		 WHERE user_id = ? AND id = ?`,
		invoice.ClientID,
		invoice.InvoiceNumber,
		invoice.Status,
		invoice.Total,
		invoice.DueDate,
		invoice.Notes,
		invoice.UserID,
		invoice.ID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID, status string) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ? WHERE user_id = ? AND id = ?`,
		status,
		userID,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) UpdatePaid(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID, paid decimal.Decimal, status string) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices SET paid_amount = ?, status = ? WHERE user_id = ? AND id = ?`,
		paid,
		status,
		userID,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM invoices WHERE user_id = ? AND id = ?`,
		userID,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Raw(
		selectInvoice+` WHERE i.user_id = ? AND i.id = ?`,
		userID,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).Raw(
		selectInvoice+` WHERE i.user_id = ? ORDER BY i.created_at DESC, i.id DESC`,
		userID,
	).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) CountByUser(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoices WHERE user_id = ?`,
		userID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.InvoiceItem) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO invoice_items (id, invoice_id, position, description, quantity, price, amount)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.InvoiceID,
			item.Position,
			item.Description,
			item.Quantity,
			item.Price,
			item.Amount,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE invoice_id = ?`,
		invoiceID,
	).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) ([]domain.InvoiceItem, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	var items []domain.InvoiceItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, invoice_id, position, description, quantity, price, amount
		 FROM invoice_items WHERE invoice_id IN ?
		 ORDER BY invoice_id ASC, position ASC`,
		invoiceIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) DeletePayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM payments WHERE invoice_id = ?`,
		invoiceID,
	).Error
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, asOf civil.Date) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?
		 WHERE status = ? AND due_date IS NOT NULL AND due_date < ?`,
		domain.StatusOverdue,
		domain.StatusSent,
		asOf,
	)
	return result.RowsAffected, result.Error
}
