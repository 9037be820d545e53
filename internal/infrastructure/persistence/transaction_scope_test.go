package persistence

import (
	"context"
	"testing"

	"github.com/salesrecon/backend/internal/application/scope"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_CommitsOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	ts := NewGormTransactionScope(db, 0)
	ctx := context.Background()

	err := ts.Execute(ctx, func(repos scope.Repositories) error {
		_, err := repos.Canonical().UpsertAll(ctx, []order.CanonicalOrder{{OrderID: "tx-1"}})
		return err
	})
	require.NoError(t, err)

	rows, err := ts.Canonical().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	ts := NewGormTransactionScope(db, 0)
	ctx := context.Background()

	err := ts.Execute(ctx, func(repos scope.Repositories) error {
		if _, err := repos.Canonical().UpsertAll(ctx, []order.CanonicalOrder{{OrderID: "tx-1"}}); err != nil {
			return err
		}
		if _, err := repos.Curated().UpsertAll(ctx, []order.CuratedOrder{{OrderID: "tx-1"}}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	canonical, err := ts.Canonical().FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, canonical)
	curated, err := ts.Curated().FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, curated)
}
