package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	"github.com/smallbiznis/invoicely/internal/dbtest"
	"github.com/smallbiznis/invoicely/internal/product/domain"
	"github.com/smallbiznis/invoicely/internal/product/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProductLookups(t *testing.T) {
	db := dbtest.Open(t)
	node := dbtest.Node(t)
	svc := New(Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()})

	widget := dbtest.Product(t, db, node, 1, "Widget", "12.50")
	dbtest.Product(t, db, node, 1, "Anvil", "80.00")
	dbtest.Product(t, db, node, 2, "Hidden", "1.00")

	ctx := callercontext.WithCallerID(context.Background(), 1)

	got, err := svc.Get(ctx, widget)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Anvil", list[0].Name)

	_, err = svc.Get(callercontext.WithCallerID(context.Background(), 2), widget)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
