package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	clientrepository "github.com/smallbiznis/invoicely/internal/client/repository"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/dbtest"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/invoicely/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/invoicely/internal/invoice/service"
	"github.com/smallbiznis/invoicely/internal/payment/domain"
	"github.com/smallbiznis/invoicely/internal/payment/repository"
	"github.com/smallbiznis/invoicely/internal/providers/email"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const owner int64 = 31

type fixture struct {
	db       *gorm.DB
	clock    *clock.FakeClock
	invoices invoicedomain.Service
	svc      domain.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	node := dbtest.Node(t)
	clk := clock.NewFakeClock(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	invoiceRepo := invoicerepository.Provide()

	invoices := invoiceservice.New(invoiceservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    invoiceRepo,
		Clock:   clk,
		Email:   email.NoOpProvider{},
		Clients: clientrepository.Provide(),
	})
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Invoices: invoiceRepo,
		Clock:    clk,
	})
	return fixture{db: db, clock: clk, invoices: invoices, svc: svc}
}

func asCaller(id int64) context.Context {
	return callercontext.WithCallerID(context.Background(), id)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (f fixture) invoice(t *testing.T, status, total string, due *civil.Date) invoicedomain.Invoice {
	t.Helper()
	amount := dec(total)
	created, err := f.invoices.Create(asCaller(owner), invoicedomain.Draft{Status: status, Total: &amount, DueDate: due})
	require.NoError(t, err)
	return created
}

func TestRecordPartialThenFullPayment(t *testing.T) {
	f := newFixture(t)
	ctx := asCaller(owner)
	invoice := f.invoice(t, invoicedomain.StatusSent, "100.00", nil)
	method := "bank_transfer"

	first, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("40"), Method: &method})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPartiallyPaid, first.Invoice.Status)
	assert.True(t, first.Invoice.PaidAmount.Equal(dec("40")))
	assert.True(t, first.Invoice.Remaining.Equal(dec("60")))
	assert.Equal(t, "2024-06-10", first.Payment.PaymentDate.String())
	require.NotNil(t, first.Payment.Method)
	assert.Equal(t, method, *first.Payment.Method)

	paidOn := civil.New(2024, 6, 12)
	second, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("60"), PaymentDate: &paidOn})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, second.Invoice.Status)
	assert.True(t, second.Invoice.Remaining.IsZero())

	stored, err := f.invoices.Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, stored.Status)
	assert.True(t, stored.PaidAmount.Equal(dec("100")), stored.PaidAmount.String())

	payments, err := f.svc.List(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, second.Payment.ID, payments[0].ID)
	assert.Equal(t, first.Payment.ID, payments[1].ID)
}

func TestRecordRejectsOverpayment(t *testing.T) {
	f := newFixture(t)
	ctx := asCaller(owner)
	invoice := f.invoice(t, invoicedomain.StatusSent, "50.00", nil)

	_, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("30")})
	require.NoError(t, err)

	_, err = f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("20.01")})
	assert.ErrorIs(t, err, domain.ErrOverpayment)

	stored, err := f.invoices.Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(dec("30")))
	payments, err := f.svc.List(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestRecordRejectsBadAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := asCaller(owner)
	invoice := f.invoice(t, invoicedomain.StatusSent, "50.00", nil)

	for _, amount := range []string{"0", "-5", "1.005"} {
		_, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec(amount)})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, amount)
	}
}

func TestPaymentsAreCallerScoped(t *testing.T) {
	f := newFixture(t)
	invoice := f.invoice(t, invoicedomain.StatusSent, "50.00", nil)
	recorded, err := f.svc.Record(asCaller(owner), invoice.ID, domain.Draft{Amount: dec("10")})
	require.NoError(t, err)

	_, err = f.svc.Record(asCaller(owner+1), invoice.ID, domain.Draft{Amount: dec("10")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.List(asCaller(owner+1), invoice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Delete(asCaller(owner+1), invoice.ID, recorded.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.List(context.Background(), invoice.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidCaller)
}

func TestDeleteRecomputesBalance(t *testing.T) {
	f := newFixture(t)
	ctx := asCaller(owner)
	invoice := f.invoice(t, invoicedomain.StatusSent, "90.00", nil)

	a, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("30")})
	require.NoError(t, err)
	b, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("60")})
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusPaid, b.Invoice.Status)

	balance, err := f.svc.Delete(ctx, invoice.ID, b.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPartiallyPaid, balance.Status)
	assert.True(t, balance.PaidAmount.Equal(dec("30")))
	assert.True(t, balance.Remaining.Equal(dec("60")))

	balance, err = f.svc.Delete(ctx, invoice.ID, a.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusSent, balance.Status)
	assert.True(t, balance.PaidAmount.IsZero())

	_, err = f.svc.Delete(ctx, invoice.ID, a.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteLastPaymentPastDueIsOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := asCaller(owner)
	due := civil.New(2024, 6, 1)
	invoice := f.invoice(t, invoicedomain.StatusOverdue, "20.00", &due)

	recorded, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("20")})
	require.NoError(t, err)
	require.Equal(t, invoicedomain.StatusPaid, recorded.Invoice.Status)

	balance, err := f.svc.Delete(ctx, invoice.ID, recorded.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusOverdue, balance.Status)
}

func TestDeleteRejectsPaymentOfAnotherInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := asCaller(owner)
	first := f.invoice(t, invoicedomain.StatusSent, "20.00", nil)
	second := f.invoice(t, invoicedomain.StatusSent, "20.00", nil)

	recorded, err := f.svc.Record(ctx, first.ID, domain.Draft{Amount: dec("5")})
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, second.ID, recorded.Payment.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceDeleteDropsPayments(t *testing.T) {
	f := newFixture(t)
	ctx := asCaller(owner)
	invoice := f.invoice(t, invoicedomain.StatusSent, "20.00", nil)
	_, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("5")})
	require.NoError(t, err)

	require.NoError(t, f.invoices.Delete(ctx, invoice.ID))

	var remaining int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(*) FROM payments WHERE invoice_id = ?`, invoice.ID).Scan(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestInvoiceUpdateKeepsPaidAmount(t *testing.T) {
	f := newFixture(t)
	ctx := asCaller(owner)
	invoice := f.invoice(t, invoicedomain.StatusSent, "80.00", nil)
	_, err := f.svc.Record(ctx, invoice.ID, domain.Draft{Amount: dec("50")})
	require.NoError(t, err)

	lower := dec("40")
	_, err = f.invoices.Update(ctx, invoice.ID, invoicedomain.Draft{Total: &lower})
	assert.ErrorIs(t, err, invoicedomain.ErrTotalBelowPaid)

	settled := dec("50")
	updated, err := f.invoices.Update(ctx, invoice.ID, invoicedomain.Draft{Total: &settled})
	require.NoError(t, err)
	assert.True(t, updated.PaidAmount.Equal(dec("50")))
	assert.Equal(t, invoicedomain.StatusPaid, updated.Status)
}
