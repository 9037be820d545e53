package persistence

import (
	"context"
	"testing"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRawOrderRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRawOrderRepository(db, 2)
	ctx := context.Background()

	rowsA := []order.RawOrderA{
		{OrderID: "A-2", OrderTime: ptr("101500"), CityDistrictID: ptr(int64(3)), Amount: dec("50"), CurrencyCode: ptr("RMB")},
		{OrderID: "A-1", OrderTime: ptr("93000"), CityDistrictID: ptr(int64(1)), Amount: dec("100"), CurrencyCode: ptr("USD"), Quantity: ptr(int64(2))},
		{OrderID: "A-3"},
	}
	n, err := repo.UpsertA(ctx, rowsA)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// reloading the extract with a changed amount overwrites in place
	rowsA[1].Amount = dec("120")
	_, err = repo.UpsertA(ctx, rowsA)
	require.NoError(t, err)

	gotA, err := repo.FindAllA(ctx)
	require.NoError(t, err)
	require.Len(t, gotA, 3)
	assert.Equal(t, "A-1", gotA[0].OrderID, "ordered by order id")
	assert.True(t, gotA[0].Amount.Decimal.Equal(decimal.RequireFromString("120")))
	assert.Nil(t, gotA[2].OrderTime)
	assert.False(t, gotA[2].Amount.Valid)

	_, err = repo.UpsertB(ctx, []order.RawOrderB{
		{OrderID: "B-1", OrderTime: ptr(int64(85959)), ShipCityCode: ptr("广州"), ShipDistrictName: ptr("天河"), Amount: dec("20"), CurrencyCode: ptr("RMB"), Quantity: ptr(int64(1))},
	})
	require.NoError(t, err)

	gotB, err := repo.FindAllB(ctx)
	require.NoError(t, err)
	require.Len(t, gotB, 1)
	require.NotNil(t, gotB[0].OrderTime)
	assert.Equal(t, int64(85959), *gotB[0].OrderTime)
	assert.Equal(t, "天河", *gotB[0].ShipDistrictName)
}

func TestGormCuratedOrderRepository_UpsertAndPage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCuratedOrderRepository(db, 10)
	ctx := context.Background()

	rows := []order.CuratedOrder{
		{OrderID: "A-1", ShipCityCode: ptr("上海"), ShipCityCodeEnglish: ptr("Shanghai"), SettlementAmount: dec("728")},
		{OrderID: "A-2", ShipCityCode: ptr("广州"), SettlementAmount: dec("50")},
		{OrderID: "B-1", ShipCityCode: ptr("广州")},
	}
	_, err := repo.UpsertAll(ctx, rows)
	require.NoError(t, err)

	rows[2].SettlementAmount = dec("20")
	n, err := repo.UpsertAll(ctx, rows[2:])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	page, total, err := repo.FindPage(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "A-2", page[0].OrderID)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[2].SettlementAmount.Decimal.Equal(decimal.RequireFromString("20")))
	assert.Nil(t, all[1].ShipCityCodeEnglish)
}
