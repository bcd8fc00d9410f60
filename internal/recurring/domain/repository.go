package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, template *RecurringInvoice) error
	Update(ctx context.Context, db *gorm.DB, template *RecurringInvoice) (int64, error)
	UpdateSchedule(ctx context.Context, db *gorm.DB, template *RecurringInvoice) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*RecurringInvoice, error)
	List(ctx context.Context, db *gorm.DB, userID int64) ([]RecurringInvoice, error)

	InsertItems(ctx context.Context, db *gorm.DB, items []RecurringInvoiceItem) error
	DeleteItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID) error
	ListItems(ctx context.Context, db *gorm.DB, templateIDs []snowflake.ID) ([]RecurringInvoiceItem, error)

	// FindDue is not caller scoped. It serves the scheduler.
	FindDue(ctx context.Context, db *gorm.DB, asOf civil.Date, limit int) ([]RecurringInvoice, error)
}
