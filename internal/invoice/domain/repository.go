package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) (int64, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID, status string) (int64, error)
	UpdatePaid(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID, paid decimal.Decimal, status string) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, userID int64) ([]Invoice, error)
	CountByUser(ctx context.Context, db *gorm.DB, userID int64) (int64, error)

	InsertItems(ctx context.Context, db *gorm.DB, items []InvoiceItem) error
	DeleteItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error
	ListItems(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) ([]InvoiceItem, error)

	// DeletePayments drops the payments recorded against an invoice.
	DeletePayments(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error

	// MarkOverdue is not caller scoped. It serves the scheduler.
	MarkOverdue(ctx context.Context, db *gorm.DB, asOf civil.Date) (int64, error)
}
