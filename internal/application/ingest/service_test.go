package ingest

import (
	"context"
	"testing"

	"github.com/salesrecon/backend/internal/infrastructure/storage"
	"github.com/salesrecon/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sourceA = "ORDER_ID,ORDER_TIME  (PST),CITY_DISTRICT_ID,RPTG_AMT,CURRENCY_CD,ORDER_QTY\n" +
		"A-1,93000,1,100,USD,2\n" +
		"A-2,101500,3,50,RMB,oops\n"
	mapping = "CITY_DISTRICT_ID,SHIP_TO_CITY_CD,SHIP_TO_DISTRICT_NAME\n" +
		"1,上海,浦东\n2,上海,徐汇\n3,广州,天河\n"
	sourceB = `[{"ORDER_ID":"B-1","ORDER_TIME_PST":85959,"SHIP_TO_CITY_CD":"广州","SHIP_TO_DISTRICT_NAME":"天河","RPTG_AMT":20,"CURRENCY_CD":"RMB","ORDER_QTY":1}]`

	cities    = `[{"SHIP_TO_CITY_CD":"上海","SHIP_TO_CITY_CD_ENG":"Shanghai","metadata":{"Per capita":"US$ 26,747"}}]`
	districts = `[{"SHIP_TO_DISTRICT_NAME":"浦东","SHIP_TO_DISTRICT_NAME_ENG":"Pudong","metadata":{}}]`
)

func newFixture(t *testing.T, files map[string]string) (*Service, *storage.LocalStorage) {
	t.Helper()
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	for key, body := range files {
		require.NoError(t, blobs.Put(context.Background(), key, []byte(body), ""))
	}
	return NewService(testutil.NewScope(t), blobs), blobs
}

func TestService_LoadBronze(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t, map[string]string{
		"bronze/a.csv":   sourceA,
		"bronze/map.csv": mapping,
		"bronze/b.json":  sourceB,
	})
	keys := BronzeKeys{SourceA: "bronze/a.csv", SourceB: "bronze/b.json", CityDistrictMap: "bronze/map.csv"}

	res, err := svc.LoadBronze(ctx, keys)
	require.NoError(t, err)
	assert.Equal(t, &BronzeResult{SourceA: 2, SourceB: 1, CityDistrict: 3, FieldErrors: 1}, res)

	rowsA, err := svc.txScope.RawOrders().FindAllA(ctx)
	require.NoError(t, err)
	require.Len(t, rowsA, 2)
	byID := map[string]int{}
	for i, r := range rowsA {
		byID[r.OrderID] = i
	}
	assert.Nil(t, rowsA[byID["A-2"]].Quantity, "unparseable quantity loads as missing")

	// reloading the same extracts leaves the tables unchanged
	_, err = svc.LoadBronze(ctx, keys)
	require.NoError(t, err)
	rowsA2, err := svc.txScope.RawOrders().FindAllA(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, rowsA, rowsA2)
}

func TestService_LoadBronze_SkipsEmptyKeys(t *testing.T) {
	svc, _ := newFixture(t, map[string]string{"b.json": sourceB})

	res, err := svc.LoadBronze(context.Background(), BronzeKeys{SourceB: "b.json"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.SourceA)
	assert.Equal(t, 1, res.SourceB)
}

func TestService_LoadBronze_MissingFile(t *testing.T) {
	svc, _ := newFixture(t, nil)

	_, err := svc.LoadBronze(context.Background(), BronzeKeys{SourceA: "missing.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestService_LoadReference(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t, map[string]string{
		"reference/city.json":     cities,
		"reference/district.json": districts,
	})

	res, err := svc.LoadReference(ctx, ReferenceKeys{CityFile: "reference/city.json", DistrictFile: "reference/district.json"})
	require.NoError(t, err)
	assert.Equal(t, &ReferenceResult{Cities: 1, Districts: 1}, res)

	rows, err := svc.txScope.Reference().FindCityTranslations(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Shanghai", *rows[0].Province)
	assert.Equal(t, "26747", *rows[0].PerCapitaUSD)
}

func TestService_LoadReference_Failures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		svc, _ := newFixture(t, map[string]string{"city.json": cities})
		_, err := svc.LoadReference(context.Background(), ReferenceKeys{CityFile: "city.json", DistrictFile: "district.json"})
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})

	t.Run("malformed file", func(t *testing.T) {
		svc, _ := newFixture(t, map[string]string{"city.json": "{", "district.json": districts})
		_, err := svc.LoadReference(context.Background(), ReferenceKeys{CityFile: "city.json", DistrictFile: "district.json"})
		require.Error(t, err)
	})
}
