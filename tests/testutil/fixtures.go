package testutil

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/shopspring/decimal"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Dec parses a decimal literal, panicking on malformed test input.
func Dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// Mapping is a small city/district map shared by pipeline tests.
var Mapping = []reference.CityDistrict{
	{CityDistrictID: 1, ShipCityCode: "上海", ShipDistrictName: "浦东"},
	{CityDistrictID: 2, ShipCityCode: "上海", ShipDistrictName: "徐汇"},
	{CityDistrictID: 3, ShipCityCode: "广州", ShipDistrictName: "天河"},
	{CityDistrictID: 4, ShipCityCode: "成都", ShipDistrictName: "武侯"},
}

// Cities translates every city in Mapping.
var Cities = []reference.CityTranslation{
	reference.NewCityTranslation("上海", "Shanghai", map[string]string{"Total": "US$ 680.4 billion", "Per capita": "US$ 27,316"}),
	reference.NewCityTranslation("广州", "Guangzhou", map[string]string{"Province": "Guangdong", "Total": "US$ 428.9 billion", "Per capita": "US$ 22,935"}),
	reference.NewCityTranslation("成都", "Chengdu", map[string]string{"Province": "Sichuan", "Per capita": "US$ 14,488"}),
}

// Districts translates every district in Mapping.
var Districts = []reference.DistrictTranslation{
	reference.NewDistrictTranslation("浦东", "Pudong", nil),
	reference.NewDistrictTranslation("徐汇", "Xuhui", nil),
	reference.NewDistrictTranslation("天河", "Tianhe", nil),
	reference.NewDistrictTranslation("武侯", "Wuhou", nil),
}

// OrderFaker generates reproducible valid order batches.
type OrderFaker struct {
	f *gofakeit.Faker
}

// NewOrderFaker creates a faker with a fixed seed.
func NewOrderFaker(seed uint64) *OrderFaker {
	return &OrderFaker{f: gofakeit.New(seed)}
}

func (o *OrderFaker) amount() decimal.NullDecimal {
	cents := o.f.IntRange(100, 500000)
	return decimal.NewNullDecimal(decimal.New(int64(cents), -2))
}

func (o *OrderFaker) currency() *string {
	return Ptr(o.f.RandomString([]string{"RMB", "USD"}))
}

// SourceA returns n valid source A rows with ids prefixed "A-".
func (o *OrderFaker) SourceA(n int) []order.RawOrderA {
	out := make([]order.RawOrderA, n)
	for i := range out {
		out[i] = order.RawOrderA{
			OrderID:        fmt.Sprintf("A-%05d", i),
			OrderTime:      Ptr(fmt.Sprintf("%d%02d%02d", o.f.IntRange(5, 11), o.f.IntRange(0, 59), o.f.IntRange(0, 59))),
			CityDistrictID: Ptr(Mapping[o.f.IntRange(0, len(Mapping)-1)].CityDistrictID),
			Amount:         o.amount(),
			CurrencyCode:   o.currency(),
			Quantity:       Ptr(int64(o.f.IntRange(1, 20))),
		}
	}
	return out
}

// SourceB returns n valid source B rows with ids prefixed "B-".
func (o *OrderFaker) SourceB(n int) []order.RawOrderB {
	out := make([]order.RawOrderB, n)
	for i := range out {
		m := Mapping[o.f.IntRange(0, len(Mapping)-1)]
		out[i] = order.RawOrderB{
			OrderID:          fmt.Sprintf("B-%05d", i),
			OrderTime:        Ptr(int64(o.f.IntRange(50000, 120000))),
			ShipCityCode:     Ptr(m.ShipCityCode),
			ShipDistrictName: Ptr(m.ShipDistrictName),
			Amount:           o.amount(),
			CurrencyCode:     o.currency(),
			Quantity:         Ptr(int64(o.f.IntRange(1, 20))),
		}
	}
	return out
}
