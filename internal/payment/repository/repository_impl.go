package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/payment/domain"
	"gorm.io/gorm"
)

const selectPayment = `SELECT id, user_id, invoice_id, amount, payment_date, method, reference, notes, created_at
	FROM payments`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, user_id, invoice_id, amount, payment_date, method, reference, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.UserID,
		p.InvoiceID,
		p.Amount,
		p.PaymentDate,
		p.Method,
		p.Reference,
		p.Notes,
		p.CreatedAt,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM payments WHERE user_id = ? AND id = ?`,
		userID,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*domain.Payment, error) {
	var p domain.Payment
	err := db.WithContext(ctx).Raw(
		selectPayment+` WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, userID int64, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).Raw(
		selectPayment+` WHERE user_id = ? AND invoice_id = ?
		 ORDER BY payment_date DESC, created_at DESC, id DESC`,
		userID,
		invoiceID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

type sumRow struct {
	Total decimal.Decimal `gorm:"column:total"`
}

func (r *repo) SumByInvoice(ctx context.Context, db *gorm.DB, userID int64, invoiceID snowflake.ID) (decimal.Decimal, error) {
	var row sumRow
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) AS total FROM payments WHERE user_id = ? AND invoice_id = ?`,
		userID,
		invoiceID,
	).Scan(&row).Error
	return row.Total, err
}
