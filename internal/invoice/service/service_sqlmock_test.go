package service

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	clientrepository "github.com/smallbiznis/invoicely/internal/client/repository"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/dbtest"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/repository"
	"github.com/smallbiznis/invoicely/internal/providers/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockService(t *testing.T) (domain.Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   dbtest.Node(t),
		Repo:    repository.Provide(),
		Clock:   clock.NewFakeClock(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)),
		Email:   email.NoOpProvider{},
		Clients: clientrepository.Provide(),
	})
	return svc, mock
}

func TestCreateRollsBackOnItemFailure(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO invoices`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO invoice_items`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Create(asCaller(callerA), domain.Draft{
		InvoiceNumber: "INV-1",
		Items: []domain.ItemDraft{
			{Description: "a", Quantity: dec("1"), Price: dec("2")},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert invoice items")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRollsBackWhenClearingItemsFails(t *testing.T) {
	svc, mock := newMockService(t)

	columns := []string{"id", "user_id", "client_id", "invoice_number", "status", "total", "paid_amount", "due_date", "notes", "created_at", "client_name", "client_email"}
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT i.id`).WillReturnRows(
		sqlmock.NewRows(columns).AddRow(int64(99), callerA, nil, "INV-1", "draft", "2.00", "0.00", nil, nil, time.Now(), nil, nil),
	)
	mock.ExpectExec(`UPDATE invoices`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM invoice_items`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := svc.Update(asCaller(callerA), 99, domain.Draft{Items: []domain.ItemDraft{
		{Description: "b", Quantity: dec("1"), Price: dec("3")},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete invoice items")
	assert.NoError(t, mock.ExpectationsWereMet())
}
