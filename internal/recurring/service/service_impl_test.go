package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	clientrepository "github.com/smallbiznis/invoicely/internal/client/repository"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/dbtest"
	"github.com/smallbiznis/invoicely/internal/recurring/domain"
	"github.com/smallbiznis/invoicely/internal/recurring/repository"
	"github.com/smallbiznis/invoicely/internal/recurring/schedule"
	"github.com/smallbiznis/invoicely/pkg/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	svc, _, _ := newTestServiceWithDB(t)
	return svc
}

func newTestServiceWithDB(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db := dbtest.Open(t)
	node := dbtest.Node(t)
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repository.Provide(),
		Clock:   clock.NewFakeClock(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)),
		Clients: clientrepository.Provide(),
	})
	return svc, db, node
}

func asCaller(id int64) context.Context {
	return callercontext.WithCallerID(context.Background(), id)
}

func datePtr(y int, m time.Month, d int) *civil.Date {
	v := civil.New(y, m, d)
	return &v
}

func intPtr(v int) *int { return &v }

func TestCreateSchedulesFirstRunOnStartDate(t *testing.T) {
	svc := newTestService(t)
	total := decimal.RequireFromString("99.90")

	created, err := svc.Create(asCaller(1), domain.Draft{
		StartDate: datePtr(2024, 1, 1),
		Total:     &total,
	})
	require.NoError(t, err)

	assert.Equal(t, schedule.Month, created.Interval)
	assert.Equal(t, 1, created.IntervalCount)
	assert.Equal(t, domain.StatusActive, created.Status)
	require.NotNil(t, created.NextRun)
	assert.Equal(t, "2024-01-01", created.NextRun.String())
	assert.Nil(t, created.LastRun)
	assert.True(t, created.Total.Equal(total))
}

func TestCreateRejectsBadSchedules(t *testing.T) {
	svc := newTestService(t)
	ctx := asCaller(1)

	_, err := svc.Create(ctx, domain.Draft{StartDate: datePtr(2024, 1, 1), Interval: "fortnight"})
	assert.ErrorIs(t, err, schedule.ErrInvalidInterval)

	_, err = svc.Create(ctx, domain.Draft{StartDate: datePtr(2024, 1, 1), IntervalCount: intPtr(0)})
	assert.ErrorIs(t, err, schedule.ErrInvalidIntervalCount)

	_, err = svc.Create(ctx, domain.Draft{})
	assert.ErrorIs(t, err, domain.ErrInvalidStartDate)

	_, err = svc.Create(ctx, domain.Draft{StartDate: datePtr(2024, 2, 1), EndDate: datePtr(2024, 1, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidEndDate)
}

func TestCreateHonorsImportedLastRun(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(asCaller(1), domain.Draft{
		Interval:  "weekly",
		StartDate: datePtr(2024, 1, 1),
		LastRun:   datePtr(2024, 1, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, schedule.Week, created.Interval)
	require.NotNil(t, created.NextRun)
	assert.Equal(t, "2024-01-22", created.NextRun.String())
}

func TestAdvanceMovesNextRunForward(t *testing.T) {
	svc := newTestService(t)
	ctx := asCaller(1)

	created, err := svc.Create(ctx, domain.Draft{StartDate: datePtr(2024, 1, 1)})
	require.NoError(t, err)

	advanced, err := svc.Advance(ctx, created.ID, civil.New(2024, 1, 1))
	require.NoError(t, err)
	require.NotNil(t, advanced.LastRun)
	require.NotNil(t, advanced.NextRun)
	assert.Equal(t, "2024-01-01", advanced.LastRun.String())
	assert.Equal(t, "2024-02-01", advanced.NextRun.String())

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", stored.NextRun.String())

	_, err = svc.Advance(ctx, created.ID, civil.New(2023, 12, 1))
	assert.ErrorIs(t, err, schedule.ErrNotMonotonic)
}

func TestAdvancePastEndDateCompletesTemplate(t *testing.T) {
	svc := newTestService(t)
	ctx := asCaller(1)

	created, err := svc.Create(ctx, domain.Draft{
		StartDate: datePtr(2024, 1, 1),
		EndDate:   datePtr(2024, 1, 20),
	})
	require.NoError(t, err)

	advanced, err := svc.Advance(ctx, created.ID, civil.New(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, advanced.Status)

	due, err := svc.DueTemplates(context.Background(), civil.New(2024, 12, 31), 0)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestAdvanceByOtherCallerIsNotFound(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(asCaller(1), domain.Draft{StartDate: datePtr(2024, 1, 1)})
	require.NoError(t, err)

	_, err = svc.Advance(asCaller(2), created.ID, civil.New(2024, 1, 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Get(asCaller(2), created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(asCaller(2), created.ID), domain.ErrNotFound)
}

func TestUpdateRecomputesNextRun(t *testing.T) {
	svc := newTestService(t)
	ctx := asCaller(1)

	created, err := svc.Create(ctx, domain.Draft{StartDate: datePtr(2024, 1, 1)})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, created.ID, civil.New(2024, 1, 1))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, domain.Draft{
		Interval:      "week",
		IntervalCount: intPtr(2),
		StartDate:     datePtr(2024, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, schedule.Week, updated.Interval)
	assert.Equal(t, 2, updated.IntervalCount)
	require.NotNil(t, updated.LastRun)
	assert.Equal(t, "2024-01-01", updated.LastRun.String())
	assert.Equal(t, "2024-01-15", updated.NextRun.String())
}

func TestDueTemplatesSpansCallers(t *testing.T) {
	svc := newTestService(t)

	a, err := svc.Create(asCaller(1), domain.Draft{StartDate: datePtr(2024, 1, 1)})
	require.NoError(t, err)
	b, err := svc.Create(asCaller(2), domain.Draft{StartDate: datePtr(2024, 1, 3)})
	require.NoError(t, err)
	_, err = svc.Create(asCaller(1), domain.Draft{StartDate: datePtr(2024, 3, 1)})
	require.NoError(t, err)
	_, err = svc.Create(asCaller(1), domain.Draft{StartDate: datePtr(2024, 1, 1), Status: domain.StatusPaused})
	require.NoError(t, err)

	due, err := svc.DueTemplates(context.Background(), civil.New(2024, 1, 5), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, a.ID, due[0].ID)
	assert.Equal(t, b.ID, due[1].ID)

	limited, err := svc.DueTemplates(context.Background(), civil.New(2024, 1, 5), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCreateStoresItemsAndDerivesTotal(t *testing.T) {
	svc := newTestService(t)
	ctx := asCaller(1)

	created, err := svc.Create(ctx, domain.Draft{
		StartDate: datePtr(2024, 1, 1),
		Items: []domain.ItemDraft{
			{Description: "Retainer", Quantity: dec("1"), Price: dec("500")},
			{Description: "Hosting", Quantity: dec("0.125"), Price: dec("8")},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Items, 2)
	assert.Equal(t, "Retainer", created.Items[0].Description)
	assert.True(t, created.Items[1].Quantity.Equal(dec("0.125")), created.Items[1].Quantity.String())
	assert.True(t, created.Items[1].Amount.Equal(dec("1")))
	assert.True(t, created.Total.Equal(dec("501")), created.Total.String())

	mismatch := dec("10")
	_, err = svc.Create(ctx, domain.Draft{
		StartDate: datePtr(2024, 1, 1),
		Total:     &mismatch,
		Items:     []domain.ItemDraft{{Description: "x", Quantity: dec("1"), Price: dec("5")}},
	})
	assert.ErrorIs(t, err, domain.ErrTotalMismatch)

	_, err = svc.Create(ctx, domain.Draft{
		StartDate: datePtr(2024, 1, 1),
		Items:     []domain.ItemDraft{{Description: "x", Quantity: dec("0.00001"), Price: dec("5")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestUpdateItemsReplaceOrKeep(t *testing.T) {
	svc, db, _ := newTestServiceWithDB(t)
	ctx := asCaller(1)

	created, err := svc.Create(ctx, domain.Draft{
		StartDate: datePtr(2024, 1, 1),
		Items: []domain.ItemDraft{
			{Description: "a", Quantity: dec("1"), Price: dec("10")},
			{Description: "b", Quantity: dec("2"), Price: dec("10")},
		},
	})
	require.NoError(t, err)

	kept, err := svc.Update(ctx, created.ID, domain.Draft{StartDate: datePtr(2024, 1, 1)})
	require.NoError(t, err)
	require.Len(t, kept.Items, 2)
	assert.True(t, kept.Total.Equal(dec("30")))

	replaced, err := svc.Update(ctx, created.ID, domain.Draft{
		StartDate: datePtr(2024, 1, 1),
		Items:     []domain.ItemDraft{{Description: "c", Quantity: dec("3"), Price: dec("5")}},
	})
	require.NoError(t, err)
	require.Len(t, replaced.Items, 1)
	assert.Equal(t, "c", replaced.Items[0].Description)
	assert.True(t, replaced.Total.Equal(dec("15")))

	cleared, err := svc.Update(ctx, created.ID, domain.Draft{StartDate: datePtr(2024, 1, 1), Items: []domain.ItemDraft{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)
	assert.True(t, cleared.Total.IsZero())

	require.NoError(t, svc.Delete(ctx, created.ID))
	var rows int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM recurring_invoice_items`).Scan(&rows).Error)
	assert.Zero(t, rows)
}

func TestUpdateReplacesOmittedFields(t *testing.T) {
	svc := newTestService(t)
	ctx := asCaller(1)
	total := dec("40")

	created, err := svc.Create(ctx, domain.Draft{
		Interval:          "week",
		IntervalCount:     intPtr(3),
		StartDate:         datePtr(2024, 1, 1),
		EndDate:           datePtr(2024, 12, 31),
		Status:            domain.StatusPaused,
		Total:             &total,
		SendAutomatically: true,
	})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, created.ID, civil.New(2024, 1, 1))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, domain.Draft{StartDate: datePtr(2024, 1, 1)})
	require.NoError(t, err)

	assert.Equal(t, schedule.Month, updated.Interval)
	assert.Equal(t, 1, updated.IntervalCount)
	assert.Nil(t, updated.EndDate)
	assert.False(t, updated.SendAutomatically)
	assert.True(t, updated.Total.IsZero())
	assert.Equal(t, domain.StatusPaused, updated.Status)
	require.NotNil(t, updated.LastRun)
	assert.Equal(t, "2024-01-01", updated.LastRun.String())
	assert.Equal(t, "2024-02-01", updated.NextRun.String())

	_, err = svc.Update(ctx, created.ID, domain.Draft{Interval: "week"})
	assert.ErrorIs(t, err, domain.ErrInvalidStartDate)
}

func TestPaddedStatusIsStoredAsGiven(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(asCaller(1), domain.Draft{StartDate: datePtr(2024, 1, 1), Status: "paused "})
	require.NoError(t, err)
	assert.Equal(t, "paused ", created.Status)
}

func TestClientMustBelongToCaller(t *testing.T) {
	svc, db, node := newTestServiceWithDB(t)
	mine := dbtest.Client(t, db, node, 1, "Acme", "a@acme.test", "active")
	theirs := dbtest.Client(t, db, node, 2, "Other", "o@other.test", "active")

	created, err := svc.Create(asCaller(1), domain.Draft{ClientID: &mine, StartDate: datePtr(2024, 1, 1)})
	require.NoError(t, err)
	require.NotNil(t, created.ClientName)
	assert.Equal(t, "Acme", *created.ClientName)

	_, err = svc.Create(asCaller(1), domain.Draft{ClientID: &theirs, StartDate: datePtr(2024, 1, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidClientID)

	_, err = svc.Update(asCaller(1), created.ID, domain.Draft{ClientID: &theirs, StartDate: datePtr(2024, 1, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidClientID)

	stored, err := svc.Get(asCaller(1), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ClientID)
	assert.Equal(t, mine, *stored.ClientID)
}
