package enrichment

import (
	"context"
	"testing"
	"time"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/salesrecon/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookups(t *testing.T) *reference.Lookups {
	t.Helper()
	rates, err := reference.SeedRates(map[string]string{"RMB": "1", "USD": "7.28"}, time.Now())
	require.NoError(t, err)
	return reference.NewLookups(testutil.Cities, testutil.Districts, rates)
}

func TestEnrich_Settlement(t *testing.T) {
	l := lookups(t)

	tests := []struct {
		name     string
		amount   decimal.NullDecimal
		currency *string
		want     *string
	}{
		{"USD is converted", testutil.Dec("100"), testutil.Ptr("USD"), testutil.Ptr("728")},
		{"RMB is unchanged", testutil.Dec("55.5"), testutil.Ptr("RMB"), testutil.Ptr("55.5")},
		{"missing amount", decimal.NullDecimal{}, testutil.Ptr("USD"), nil},
		{"missing currency", testutil.Dec("10"), nil, nil},
		{"unknown currency", testutil.Dec("10"), testutil.Ptr("EUR"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Enrich([]order.CanonicalOrder{{OrderID: "o", Amount: tt.amount, CurrencyCode: tt.currency}}, l)
			require.Len(t, got, 1)
			if tt.want == nil {
				assert.False(t, got[0].SettlementAmount.Valid)
				return
			}
			require.True(t, got[0].SettlementAmount.Valid)
			assert.True(t, got[0].SettlementAmount.Decimal.Equal(decimal.RequireFromString(*tt.want)),
				"got %s", got[0].SettlementAmount.Decimal)
		})
	}
}

func TestEnrich_Translations(t *testing.T) {
	got := Enrich([]order.CanonicalOrder{
		{OrderID: "1", ShipCityCode: testutil.Ptr("广州"), ShipDistrictName: testutil.Ptr("天河"), Quantity: testutil.Ptr(int64(4))},
		{OrderID: "2", ShipCityCode: testutil.Ptr("北京"), ShipDistrictName: testutil.Ptr("朝阳")},
		{OrderID: "3"},
	}, lookups(t))

	assert.Equal(t, testutil.Ptr("Guangzhou"), got[0].ShipCityCodeEnglish)
	assert.Equal(t, testutil.Ptr("Tianhe"), got[0].ShipDistrictNameEnglish)
	assert.Equal(t, testutil.Ptr(int64(4)), got[0].Quantity)
	assert.Equal(t, testutil.Ptr("北京"), got[1].ShipCityCode)
	assert.Nil(t, got[1].ShipCityCodeEnglish)
	assert.Nil(t, got[2].ShipDistrictNameEnglish)
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()
	ts := testutil.NewScope(t)
	testutil.SeedReference(t, ts)
	rates, err := reference.SeedRates(map[string]string{"RMB": "1", "USD": "7.28"}, time.Now())
	require.NoError(t, err)
	_, err = ts.Reference().UpsertCurrencyRates(ctx, rates)
	require.NoError(t, err)

	_, err = ts.Canonical().UpsertAll(ctx, []order.CanonicalOrder{
		{OrderID: "1", ShipCityCode: testutil.Ptr("上海"), Amount: testutil.Dec("100"), CurrencyCode: testutil.Ptr("USD")},
		{OrderID: "2", ShipCityCode: testutil.Ptr("北京"), Amount: testutil.Dec("3"), CurrencyCode: testutil.Ptr("RMB")},
		{OrderID: "3", ShipCityCode: testutil.Ptr("成都")},
	})
	require.NoError(t, err)

	svc := NewService(ts)
	res, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Read)
	assert.Equal(t, 3, res.Upserted)
	assert.Equal(t, 1, res.MissingCity)
	assert.Equal(t, 1, res.MissingRate)

	first, err := ts.Curated().FindAll(ctx)
	require.NoError(t, err)

	_, err = svc.Run(ctx)
	require.NoError(t, err)
	second, err := ts.Curated().FindAll(ctx)
	require.NoError(t, err)

	require.Len(t, second, 3)
	assert.True(t, second[0].SettlementAmount.Decimal.Equal(decimal.NewFromInt(728)))
	for i := range first {
		assert.Equal(t, first[i].OrderID, second[i].OrderID)
		assert.Equal(t, first[i].SettlementAmount.Valid, second[i].SettlementAmount.Valid)
	}
}
