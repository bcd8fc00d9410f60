package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, name, description, price, created_at
		 FROM products WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, nil
	}
	return &product, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Product, error) {
	var products []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, name, description, price, created_at
		 FROM products WHERE user_id = ?
		 ORDER BY name ASC, id ASC`,
		userID,
	).Scan(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
