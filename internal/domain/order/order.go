package order

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Source identifies which extract a raw record came from
type Source string

const (
	SourceA Source = "A"
	SourceB Source = "B"
)

// RawOrderA is one row of the source A extract. A nil field is missing,
// either absent in the extract or cleared by validation.
type RawOrderA struct {
	OrderID        string
	OrderTime      *string
	CityDistrictID *int64
	Amount         decimal.NullDecimal
	CurrencyCode   *string
	Quantity       *int64
}

// RawOrderB is one row of the source B extract. It already carries the
// city/district pair instead of a district id.
type RawOrderB struct {
	OrderID          string
	OrderTime        *int64
	ShipCityCode     *string
	ShipDistrictName *string
	Amount           decimal.NullDecimal
	CurrencyCode     *string
	Quantity         *int64
}

// CanonicalOrder is the silver row shared by both sources, one per OrderID
type CanonicalOrder struct {
	OrderID          string
	OrderTime        *string
	Amount           decimal.NullDecimal
	CurrencyCode     *string
	Quantity         *int64
	ShipCityCode     *string
	ShipDistrictName *string
}

// CuratedOrder is the gold row: a canonical order with translated names and
// the amount converted to the settlement currency.
type CuratedOrder struct {
	OrderID                 string
	OrderTime               *string
	ShipCityCode            *string
	ShipDistrictName        *string
	ShipCityCodeEnglish     *string
	ShipDistrictNameEnglish *string
	SettlementAmount        decimal.NullDecimal
	Quantity                *int64
}

// FromB maps a source B record onto the canonical shape. B's integer order
// time is kept in its decimal string form so both sources share one column.
func FromB(b RawOrderB) CanonicalOrder {
	var orderTime *string
	if b.OrderTime != nil {
		s := strconv.FormatInt(*b.OrderTime, 10)
		orderTime = &s
	}
	return CanonicalOrder{
		OrderID:          b.OrderID,
		OrderTime:        orderTime,
		Amount:           b.Amount,
		CurrencyCode:     b.CurrencyCode,
		Quantity:         b.Quantity,
		ShipCityCode:     b.ShipCityCode,
		ShipDistrictName: b.ShipDistrictName,
	}
}
