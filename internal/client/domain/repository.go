package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, userID int64) ([]Client, error)
	Count(ctx context.Context, db *gorm.DB, userID int64) (Counts, error)
}
