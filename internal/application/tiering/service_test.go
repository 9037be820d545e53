package tiering

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/shared"
	"github.com/salesrecon/backend/internal/infrastructure/persistence"
	"github.com/salesrecon/backend/internal/infrastructure/storage"
	"github.com/salesrecon/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(v uint64) *uint64 { return &v }

func TestAggregate(t *testing.T) {
	curated := []order.CuratedOrder{
		{OrderID: "1", ShipCityCode: testutil.Ptr("上海"), SettlementAmount: testutil.Dec("728")},
		{OrderID: "2", ShipCityCode: testutil.Ptr("上海"), SettlementAmount: testutil.Dec("2")},
		{OrderID: "3", ShipCityCode: testutil.Ptr("上海")},
		{OrderID: "4", ShipCityCode: testutil.Ptr("北京")},
		{OrderID: "5", SettlementAmount: testutil.Dec("1000")},
	}

	got := Aggregate(curated, testutil.Cities)

	require.Len(t, got, 2)
	assert.Equal(t, "上海", got[0].ShipCityCode)
	assert.True(t, got[0].SettlementTotal.Equal(decimal.NewFromInt(730)))
	assert.Equal(t, testutil.Ptr("Shanghai"), got[0].Province)
	assert.Equal(t, testutil.Ptr("27316"), got[0].PerCapitaUSD)
	assert.Equal(t, "北京", got[1].ShipCityCode)
	assert.True(t, got[1].SettlementTotal.IsZero())
	assert.Nil(t, got[1].ShipCityCodeEnglish)
}

// seedCurated writes one order per (city, amount) pair
func seedCurated(t *testing.T, ts *persistence.GormTransactionScope, totals map[string]string) {
	t.Helper()
	var rows []order.CuratedOrder
	i := 0
	for city, amount := range totals {
		i++
		rows = append(rows, order.CuratedOrder{
			OrderID:          fmt.Sprintf("G-%03d", i),
			ShipCityCode:     testutil.Ptr(city),
			SettlementAmount: testutil.Dec(amount),
		})
	}
	_, err := ts.Curated().UpsertAll(context.Background(), rows)
	require.NoError(t, err)
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()
	ts := testutil.NewScope(t)
	testutil.SeedReference(t, ts)
	seedCurated(t, ts, map[string]string{
		"c1": "10", "c2": "12", "c3": "11",
		"c4": "500", "c5": "520",
		"c6": "5000",
	})

	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewService(ts, blobs, Options{K: 3, NInit: 10, MaxIter: 100, Seed: seed(5), ExportKey: "exports/cluster_results.csv"})

	res, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Cities)
	assert.Equal(t, 3, res.K)
	assert.Equal(t, "exports/cluster_results.csv", res.ExportedTo)

	got, err := svc.Assignments(ctx)
	require.NoError(t, err)
	tier := map[string]int{}
	for _, a := range got {
		tier[a.ShipCityCode] = a.ClusterID
	}
	assert.Equal(t, map[string]int{"c1": 0, "c2": 0, "c3": 0, "c4": 1, "c5": 1, "c6": 2}, tier)

	data, err := blobs.Get(ctx, "exports/cluster_results.csv")
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 7)
	assert.Equal(t, csvHeader, records[0])
}

func TestService_RunIsDeterministicWithSeed(t *testing.T) {
	ctx := context.Background()
	ts := testutil.NewScope(t)
	totals := map[string]string{}
	for i := 0; i < 25; i++ {
		totals[fmt.Sprintf("city-%02d", i)] = fmt.Sprint((i*37)%100 + i*i)
	}
	seedCurated(t, ts, totals)
	svc := NewService(ts, nil, Options{K: 4, NInit: 3, MaxIter: 50, Seed: seed(99)})

	_, err := svc.Run(ctx)
	require.NoError(t, err)
	first, err := svc.Assignments(ctx)
	require.NoError(t, err)

	_, err = svc.Run(ctx)
	require.NoError(t, err)
	second, err := svc.Assignments(ctx)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	byCity := map[string]int{}
	for _, a := range first {
		byCity[a.ShipCityCode] = a.ClusterID
	}
	for _, a := range second {
		assert.Equal(t, byCity[a.ShipCityCode], a.ClusterID, a.ShipCityCode)
	}
}

func TestService_RunClipsK(t *testing.T) {
	ts := testutil.NewScope(t)
	seedCurated(t, ts, map[string]string{"c1": "1", "c2": "2"})

	res, err := NewService(ts, nil, Options{K: 5, Seed: seed(1)}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.K)
}

func TestService_RunClipsKToDistinctTotals(t *testing.T) {
	ctx := context.Background()
	ts := testutil.NewScope(t)
	seedCurated(t, ts, map[string]string{"c1": "0", "c2": "0", "c3": "0", "c4": "100"})

	res, err := NewService(ts, nil, Options{K: 3, Seed: seed(5)}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Cities)
	assert.Equal(t, 2, res.K)

	assignments, err := ts.Clusters().FindAll(ctx)
	require.NoError(t, err)
	byCity := make(map[string]int, len(assignments))
	for _, a := range assignments {
		byCity[a.ShipCityCode] = a.ClusterID
	}
	assert.Equal(t, byCity["c1"], byCity["c2"])
	assert.Equal(t, byCity["c1"], byCity["c3"])
	assert.Equal(t, 0, byCity["c1"])
	assert.Equal(t, 1, byCity["c4"])
}

func TestService_RunWithoutCities(t *testing.T) {
	ctx := context.Background()
	ts := testutil.NewScope(t)
	svc := NewService(ts, nil, Options{K: 3})

	res, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Cities)

	_, err = svc.Elbow(ctx)
	assert.ErrorIs(t, err, shared.ErrNoCities)
}

func TestService_Elbow(t *testing.T) {
	ts := testutil.NewScope(t)
	seedCurated(t, ts, map[string]string{"c1": "1", "c2": "2", "c3": "40", "c4": "41"})

	points, err := NewService(ts, nil, Options{ElbowMaxK: 9, NInit: 5, Seed: seed(2)}).Elbow(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, 1, points[0].K)
	assert.InDelta(t, 4.0, points[0].Inertia, 1e-9, "standardized values have unit variance")
	assert.InDelta(t, 0.0, points[3].Inertia, 1e-9)
}
