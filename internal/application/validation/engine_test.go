package validation

import (
	"context"
	"testing"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(opts Options) *Engine {
	return NewEngine(NewContext(testutil.Mapping), opts)
}

func validA() order.RawOrderA {
	return order.RawOrderA{
		OrderID:        "A-1",
		OrderTime:      testutil.Ptr("93000"),
		CityDistrictID: testutil.Ptr(int64(1)),
		Amount:         testutil.Dec("100"),
		CurrencyCode:   testutil.Ptr("USD"),
		Quantity:       testutil.Ptr(int64(2)),
	}
}

func validB() order.RawOrderB {
	return order.RawOrderB{
		OrderID:          "B-1",
		OrderTime:        testutil.Ptr(int64(110000)),
		ShipCityCode:     testutil.Ptr("广州"),
		ShipDistrictName: testutil.Ptr("天河"),
		Amount:           testutil.Dec("12.5"),
		CurrencyCode:     testutil.Ptr("RMB"),
		Quantity:         testutil.Ptr(int64(1)),
	}
}

func fields(vs []order.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Field
	}
	return out
}

func TestCheckA(t *testing.T) {
	e := newEngine(DefaultOptions())

	tests := []struct {
		name   string
		mutate func(*order.RawOrderA)
		want   []string
	}{
		{"valid record", func(*order.RawOrderA) {}, nil},
		{"zero amount is allowed", func(a *order.RawOrderA) { a.Amount = testutil.Dec("0") }, nil},
		{"negative district id", func(a *order.RawOrderA) { a.CityDistrictID = testutil.Ptr(int64(-1)) }, []string{ColCityDistrictID}},
		{"unmapped district id", func(a *order.RawOrderA) { a.CityDistrictID = testutil.Ptr(int64(99)) }, []string{ColCityDistrictID}},
		{"non-numeric time", func(a *order.RawOrderA) { a.OrderTime = testutil.Ptr("9:30") }, []string{ColOrderTime}},
		{"empty time", func(a *order.RawOrderA) { a.OrderTime = testutil.Ptr("") }, []string{ColOrderTime}},
		{"negative amount", func(a *order.RawOrderA) { a.Amount = testutil.Dec("-0.01") }, []string{ColAmount}},
		{"missing amount", func(a *order.RawOrderA) { a.Amount = decimal.NullDecimal{} }, []string{ColAmount}},
		{"unknown currency", func(a *order.RawOrderA) { a.CurrencyCode = testutil.Ptr("EUR") }, []string{ColCurrency}},
		{"zero quantity", func(a *order.RawOrderA) { a.Quantity = testutil.Ptr(int64(0)) }, []string{ColQuantity}},
		{"missing quantity", func(a *order.RawOrderA) { a.Quantity = nil }, []string{ColQuantity}},
		{
			"several failures keep column order",
			func(a *order.RawOrderA) {
				a.Quantity = testutil.Ptr(int64(-3))
				a.OrderTime = testutil.Ptr("x")
			},
			[]string{ColOrderTime, ColQuantity},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validA()
			tt.mutate(&a)
			_, violations := e.CheckA(a)
			if tt.want == nil {
				assert.Empty(t, violations)
				return
			}
			assert.Equal(t, tt.want, fields(violations))
			for _, v := range violations {
				assert.Equal(t, order.SourceA, v.Source)
				assert.NotEmpty(t, v.Message)
			}
		})
	}
}

func TestCheckA_Messages(t *testing.T) {
	e := newEngine(DefaultOptions())
	a := validA()
	a.CityDistrictID = testutil.Ptr(int64(-1))
	a.Quantity = nil

	_, violations := e.CheckA(a)
	require.Len(t, violations, 2)
	assert.Equal(t, "CITY_DISTRICT_ID must be a positive integer and must exist in RAW_MAPPING", violations[0].Message)
	assert.Equal(t, "gt", violations[0].Rule)
	assert.Equal(t, "ORDER_QTY must be a positive integer", violations[1].Message)
	assert.Equal(t, "required", violations[1].Rule)
}

func TestCheckA_SanitizesOnlyViolatingFields(t *testing.T) {
	e := newEngine(DefaultOptions())
	a := validA()
	a.CityDistrictID = testutil.Ptr(int64(-1))
	a.CurrencyCode = testutil.Ptr("JPY")

	sanitized, violations := e.CheckA(a)
	require.Len(t, violations, 2)
	assert.Nil(t, sanitized.CityDistrictID)
	assert.Nil(t, sanitized.CurrencyCode)
	assert.Equal(t, a.OrderTime, sanitized.OrderTime)
	assert.Equal(t, a.Quantity, sanitized.Quantity)
	assert.True(t, sanitized.Amount.Valid)
	assert.Equal(t, testutil.Ptr(int64(-1)), a.CityDistrictID, "input record is not modified")
}

func TestCheckB(t *testing.T) {
	e := newEngine(DefaultOptions())

	tests := []struct {
		name   string
		mutate func(*order.RawOrderB)
		want   []string
	}{
		{"valid record", func(*order.RawOrderB) {}, nil},
		{"lower time bound", func(b *order.RawOrderB) { b.OrderTime = testutil.Ptr(int64(50000)) }, nil},
		{"upper time bound", func(b *order.RawOrderB) { b.OrderTime = testutil.Ptr(int64(120000)) }, nil},
		{"time before window", func(b *order.RawOrderB) { b.OrderTime = testutil.Ptr(int64(49999)) }, []string{ColOrderTime}},
		{"time after window", func(b *order.RawOrderB) { b.OrderTime = testutil.Ptr(int64(120001)) }, []string{ColOrderTime}},
		{"missing city", func(b *order.RawOrderB) { b.ShipCityCode = nil }, []string{ColShipCityCode}},
		{"unmapped city passes without referential checks", func(b *order.RawOrderB) { b.ShipCityCode = testutil.Ptr("北京") }, nil},
		{"negative amount", func(b *order.RawOrderB) { b.Amount = testutil.Dec("-5") }, []string{ColAmount}},
		{"lowercase currency", func(b *order.RawOrderB) { b.CurrencyCode = testutil.Ptr("usd") }, []string{ColCurrency}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validB()
			tt.mutate(&b)
			_, violations := e.CheckB(b)
			if tt.want == nil {
				assert.Empty(t, violations)
				return
			}
			assert.Equal(t, tt.want, fields(violations))
		})
	}
}

func TestCheckB_ReferentialChecks(t *testing.T) {
	b := validB()
	b.ShipCityCode = testutil.Ptr("北京")
	b.ShipDistrictName = testutil.Ptr("朝阳")

	t.Run("off by default", func(t *testing.T) {
		_, violations := newEngine(DefaultOptions()).CheckB(b)
		assert.Empty(t, violations)
	})

	t.Run("enabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.SourceBReferentialChecks = true
		_, violations := newEngine(opts).CheckB(b)
		require.Len(t, violations, 2)
		assert.Equal(t, "SHIP_TO_CITY_CD must exist in RAW_MAPPING", violations[0].Message)
		assert.Equal(t, "SHIP_TO_DISTRICT_NAME must exist in RAW_MAPPING", violations[1].Message)
	})

	t.Run("enabled with mapped values", func(t *testing.T) {
		opts := DefaultOptions()
		opts.SourceBReferentialChecks = true
		_, violations := newEngine(opts).CheckB(validB())
		assert.Empty(t, violations)
	})

	t.Run("missing column reported once", func(t *testing.T) {
		opts := DefaultOptions()
		opts.SourceBReferentialChecks = true
		missing := validB()
		missing.ShipCityCode = nil
		_, violations := newEngine(opts).CheckB(missing)
		assert.Equal(t, []string{ColShipCityCode}, fields(violations))
	})
}

func TestValidateA_SanitizePolicy(t *testing.T) {
	e := newEngine(DefaultOptions())
	bad := validA()
	bad.OrderID = "A-2"
	bad.CityDistrictID = testutil.Ptr(int64(-1))

	res := e.ValidateA(context.Background(), []order.RawOrderA{validA(), bad})

	require.Len(t, res.Forward, 2)
	assert.Equal(t, testutil.Ptr(int64(1)), res.Forward[0].CityDistrictID)
	assert.Nil(t, res.Forward[1].CityDistrictID)
	require.Len(t, res.Quarantine, 1)
	assert.Equal(t, "A-2", res.Quarantine[0].OrderID)
	assert.Equal(t, []order.Source{order.SourceA}, res.Quarantine[0].Sources)
}

func TestValidateB_ObservePolicy(t *testing.T) {
	e := newEngine(DefaultOptions())
	early := validB()
	early.OrderTime = testutil.Ptr(int64(49999))

	res := e.ValidateB(context.Background(), []order.RawOrderB{early})

	require.Len(t, res.Forward, 1)
	assert.Equal(t, testutil.Ptr(int64(49999)), res.Forward[0].OrderTime)
	require.Len(t, res.Quarantine, 1)
	assert.True(t, res.Quarantine[0].HasField(ColOrderTime))
}

func TestValidate_PoliciesAreConfigurable(t *testing.T) {
	e := newEngine(Options{PolicyA: PolicyObserve, PolicyB: PolicySanitize})

	a := validA()
	a.CurrencyCode = testutil.Ptr("EUR")
	resA := e.ValidateA(context.Background(), []order.RawOrderA{a})
	assert.Equal(t, testutil.Ptr("EUR"), resA.Forward[0].CurrencyCode)

	b := validB()
	b.OrderTime = testutil.Ptr(int64(1))
	resB := e.ValidateB(context.Background(), []order.RawOrderB{b})
	assert.Nil(t, resB.Forward[0].OrderTime)
}

func TestValidate_EmptyOrderIDNotForwarded(t *testing.T) {
	e := newEngine(DefaultOptions())
	a := validA()
	a.OrderID = ""

	res := e.ValidateA(context.Background(), []order.RawOrderA{a, validA()})

	require.Len(t, res.Forward, 1)
	assert.Equal(t, "A-1", res.Forward[0].OrderID)
	require.Len(t, res.Quarantine, 1)
	assert.Equal(t, []string{ColOrderID}, fields(res.Quarantine[0].Errors))
}

func TestValidate_GeneratedBatchesAreClean(t *testing.T) {
	f := testutil.NewOrderFaker(7)
	e := newEngine(Options{SourceBReferentialChecks: true, PolicyB: PolicyObserve})

	resA := e.ValidateA(context.Background(), f.SourceA(200))
	resB := e.ValidateB(context.Background(), f.SourceB(200))

	assert.Empty(t, resA.Quarantine)
	assert.Empty(t, resB.Quarantine)
	assert.Len(t, resA.Forward, 200)
	assert.Len(t, resB.Forward, 200)
}

func TestContext(t *testing.T) {
	c := NewContext(testutil.Mapping)
	assert.Equal(t, 4, c.Len())
	assert.True(t, c.HasDistrictID(3))
	assert.False(t, c.HasDistrictID(0))
	assert.True(t, c.HasCity("成都"))
	assert.True(t, c.HasDistrictName("徐汇"))
	assert.False(t, c.HasDistrictName("朝阳"))
}
