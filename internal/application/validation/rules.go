package validation

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// Source column names as they appear in the extracts and in violations
const (
	ColOrderID          = "ORDER_ID"
	ColOrderTime        = "ORDER_TIME_PST"
	ColCityDistrictID   = "CITY_DISTRICT_ID"
	ColShipCityCode     = "SHIP_TO_CITY_CD"
	ColShipDistrictName = "SHIP_TO_DISTRICT_NAME"
	ColAmount           = "RPTG_AMT"
	ColCurrency         = "CURRENCY_CD"
	ColQuantity         = "ORDER_QTY"
)

// AllowedCurrencies are the codes both sources may report
var AllowedCurrencies = []string{"RMB", "USD"}

// rulesA is the source A record as the validator sees it
type rulesA struct {
	OrderTime      *string             `col:"ORDER_TIME_PST" validate:"required,number"`
	CityDistrictID *int64              `col:"CITY_DISTRICT_ID" validate:"required,gt=0,known_district_id"`
	Amount         decimal.NullDecimal `col:"RPTG_AMT" validate:"required,gte=0"`
	CurrencyCode   *string             `col:"CURRENCY_CD" validate:"required,oneof=RMB USD"`
	Quantity       *int64              `col:"ORDER_QTY" validate:"required,gt=0"`
}

// rulesB is the source B record without its referential columns
type rulesB struct {
	OrderTime        *int64              `col:"ORDER_TIME_PST" validate:"required,min=50000,max=120000"`
	ShipCityCode     *string             `col:"SHIP_TO_CITY_CD" validate:"required"`
	ShipDistrictName *string             `col:"SHIP_TO_DISTRICT_NAME" validate:"required"`
	Amount           decimal.NullDecimal `col:"RPTG_AMT" validate:"required,gte=0"`
	CurrencyCode     *string             `col:"CURRENCY_CD" validate:"required,oneof=RMB USD"`
	Quantity         *int64              `col:"ORDER_QTY" validate:"required,gt=0"`
}

// refsB holds the source B columns checked against the mapping
type refsB struct {
	ShipCityCode     *string `col:"SHIP_TO_CITY_CD" validate:"omitempty,known_city"`
	ShipDistrictName *string `col:"SHIP_TO_DISTRICT_NAME" validate:"omitempty,known_district_name"`
}

func rulesForA(a order.RawOrderA) rulesA {
	return rulesA{
		OrderTime:      a.OrderTime,
		CityDistrictID: a.CityDistrictID,
		Amount:         a.Amount,
		CurrencyCode:   a.CurrencyCode,
		Quantity:       a.Quantity,
	}
}

func rulesForB(b order.RawOrderB) rulesB {
	return rulesB{
		OrderTime:        b.OrderTime,
		ShipCityCode:     b.ShipCityCode,
		ShipDistrictName: b.ShipDistrictName,
		Amount:           b.Amount,
		CurrencyCode:     b.CurrencyCode,
		Quantity:         b.Quantity,
	}
}

var messages = map[order.Source]map[string]string{
	order.SourceA: {
		ColOrderTime:      "ORDER_TIME_PST must be a numeric string",
		ColCityDistrictID: "CITY_DISTRICT_ID must be a positive integer and must exist in RAW_MAPPING",
		ColAmount:         "RPTG_AMT must be non-negative",
		ColCurrency:       fmt.Sprintf("CURRENCY_CD must be one of %v", AllowedCurrencies),
		ColQuantity:       "ORDER_QTY must be a positive integer",
	},
	order.SourceB: {
		ColOrderTime:        "ORDER_TIME_PST must be an integer between 50000 and 120000 (5 AM to 12 PM)",
		ColShipCityCode:     "SHIP_TO_CITY_CD must exist in RAW_MAPPING",
		ColShipDistrictName: "SHIP_TO_DISTRICT_NAME must exist in RAW_MAPPING",
		ColAmount:           "RPTG_AMT must be non-negative",
		ColCurrency:         fmt.Sprintf("CURRENCY_CD must be one of %v", AllowedCurrencies),
		ColQuantity:         "ORDER_QTY must be a positive integer",
	},
}

// violationFor turns one validator field error into a Violation
func violationFor(src order.Source, fe validator.FieldError) order.Violation {
	col := fe.Field()
	msg := messages[src][col]
	if fe.Tag() == "required" && col != ColQuantity {
		msg = col + " is required"
	}
	if msg == "" {
		msg = fmt.Sprintf("%s failed %s", col, fe.Tag())
	}
	return order.Violation{Field: col, Rule: fe.Tag(), Message: msg, Source: src}
}

// columnName reports struct fields by their source column
func columnName(fld reflect.StructField) string {
	return fld.Tag.Get("col")
}

// nullDecimalValue exposes a NullDecimal to numeric tags. A missing value
// reads as nil so that required fails; zero stays a present value.
func nullDecimalValue(v reflect.Value) any {
	d, ok := v.Interface().(decimal.NullDecimal)
	if !ok || !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
