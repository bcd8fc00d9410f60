package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, estimate *Estimate) error
	Update(ctx context.Context, db *gorm.DB, estimate *Estimate) (int64, error)
	MarkConverted(ctx context.Context, db *gorm.DB, userID int64, id, invoiceID snowflake.ID) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*Estimate, error)
	List(ctx context.Context, db *gorm.DB, userID int64) ([]Estimate, error)
	CountByUser(ctx context.Context, db *gorm.DB, userID int64) (int64, error)
}
