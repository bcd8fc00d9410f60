package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*Product, error)
	FindAll(ctx context.Context, db *gorm.DB, userID int64) ([]Product, error)
}
