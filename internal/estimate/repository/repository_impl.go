package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/estimate/domain"
	"gorm.io/gorm"
)

const selectEstimate = `SELECT e.id, e.user_id, e.client_id, e.estimate_number, e.status, e.total,
	e.issue_date, e.expiry_date, e.converted_invoice_id, e.created_at, c.name AS client_name
	FROM estimates e
	LEFT JOIN clients c ON c.id = e.client_id AND c.user_id = e.user_id`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, estimate *domain.Estimate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO estimates (id, user_id, client_id, estimate_number, status, total, issue_date, expiry_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		estimate.ID,
		estimate.UserID,
		estimate.ClientID,
		estimate.EstimateNumber,
		estimate.Status,
		estimate.Total,
		estimate.IssueDate,
		estimate.ExpiryDate,
		estimate.CreatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, estimate *domain.Estimate) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE estimates
		 SET client_id = ?, estimate_number = ?, status = ?, total = ?, issue_date = ?, expiry_date = ?
		 WHERE user_id = ? AND id = ? AND converted_invoice_id IS NULL`,
		estimate.ClientID,
		estimate.EstimateNumber,
		estimate.Status,
		estimate.Total,
		estimate.IssueDate,
		estimate.ExpiryDate,
		estimate.UserID,
		estimate.ID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) MarkConverted(ctx context.Context, db *gorm.DB, userID int64, id, invoiceID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE estimates SET status = ?, converted_invoice_id = ?
		 WHERE user_id = ? AND id = ? AND converted_invoice_id IS NULL`,
		domain.StatusConverted,
		invoiceID,
		userID,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM estimates WHERE user_id = ? AND id = ?`,
		userID,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*domain.Estimate, error) {
	var estimate domain.Estimate
	err := db.WithContext(ctx).Raw(
		selectEstimate+` WHERE e.user_id = ? AND e.id = ?`,
		userID,
		id,
	).Scan(&estimate).Error
	if err != nil {
		return nil, err
	}
	if estimate.ID == 0 {
		return nil, nil
	}
	return &estimate, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Estimate, error) {
	var estimates []domain.Estimate
	err := db.WithContext(ctx).Raw(
		selectEstimate+` WHERE e.user_id = ? ORDER BY e.created_at DESC, e.id DESC`,
		userID,
	).Scan(&estimates).Error
	if err != nil {
		return nil, err
	}
	return estimates, nil
}

func (r *repo) CountByUser(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM estimates WHERE user_id = ?`,
		userID,
	).Scan(&count).Error
	return count, err
}
