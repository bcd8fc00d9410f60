package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/recurring/domain"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"gorm.io/gorm"
)

const selectTemplate = `SELECT r.id, r.user_id, r.client_id, r.interval_unit, r.interval_count, r.start_date,
	r.end_date, r.next_run, r.last_run, r.status, r.total, r.send_automatically, r.created_at,
	c.name AS client_name
	FROM recurring_invoices r
	LEFT JOIN clients c ON c.id = r.client_id AND c.user_id = r.user_id`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, t *domain.RecurringInvoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO recurring_invoices (id, user_id, client_id, interval_unit, interval_count, start_date,
			end_date, next_run, last_run, status, total, send_automatically, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.ClientID,
		string(t.Interval),
		t.IntervalCount,
		t.StartDate,
		t.EndDate,
		t.NextRun,
		t.LastRun,
		t.Status,
		t.Total,
		t.SendAutomatically,
		t.CreatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, t *domain.RecurringInvoice) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE recurring_invoices
		 SET client_id = ?, interval_unit = ?, interval_count = ?, start_date = ?, end_date = ?,
			next_run = ?, last_run = ?, status = ?, total = ?, send_automatically = ?
		 WHERE user_id = ? AND id = ?`,
		t.ClientID,
		string(t.Interval),
		t.IntervalCount,
		t.StartDate,
		t.EndDate,
		t.NextRun,
		t.LastRun,
		t.Status,
		t.Total,
		t.SendAutomatically,
		t.UserID,
		t.ID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) UpdateSchedule(ctx context.Context, db *gorm.DB, t *domain.RecurringInvoice) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE recurring_invoices SET next_run = ?, last_run = ?, status = ?
		 WHERE user_id = ? AND id = ?`,
		t.NextRun,
		t.LastRun,
		t.Status,
		t.UserID,
		t.ID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM recurring_invoices WHERE user_id = ? AND id = ?`,
		userID,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*domain.RecurringInvoice, error) {
	var t domain.RecurringInvoice
	err := db.WithContext(ctx).Raw(
		selectTemplate+` WHERE r.user_id = ? AND r.id = ?`,
		userID,
		id,
	).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, nil
	}
	return &t, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID int64) ([]domain.RecurringInvoice, error) {
	var templates []domain.RecurringInvoice
	err := db.WithContext(ctx).Raw(
		selectTemplate+` WHERE r.user_id = ? ORDER BY r.created_at DESC, r.id DESC`,
		userID,
	).Scan(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) FindDue(ctx context.Context, db *gorm.DB, asOf civil.Date, limit int) ([]domain.RecurringInvoice, error) {
	var templates []domain.RecurringInvoice
	err := db.WithContext(ctx).Raw(
		selectTemplate+` WHERE r.status = ? AND r.next_run IS NOT NULL AND r.next_run <= ?
		 ORDER BY r.next_run ASC, r.id ASC LIMIT ?`,
		domain.StatusActive,
		asOf,
		limit,
	).Scan(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.RecurringInvoiceItem) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO recurring_invoice_items (id, recurring_invoice_id, position, description, quantity, price, amount)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.RecurringInvoiceID,
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

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM recurring_invoice_items WHERE recurring_invoice_id = ?`,
		templateID,
	).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, templateIDs []snowflake.ID) ([]domain.RecurringInvoiceItem, error) {
	if len(templateIDs) == 0 {
		return nil, nil
	}
	var items []domain.RecurringInvoiceItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, recurring_invoice_id, position, description, quantity, price, amount
		 FROM recurring_invoice_items WHERE recurring_invoice_id IN ?
		 ORDER BY recurring_invoice_id ASC, position ASC`,
		templateIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
