package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/shopspring/decimal"
)

// Source column names as they appear in the extracts
const (
	colOrderID          = "ORDER_ID"
	colOrderTime        = "ORDER_TIME_PST"
	colCityDistrictID   = "CITY_DISTRICT_ID"
	colShipCityCode     = "SHIP_TO_CITY_CD"
	colShipDistrictName = "SHIP_TO_DISTRICT_NAME"
	colAmount           = "RPTG_AMT"
	colCurrency         = "CURRENCY_CD"
	colQuantity         = "ORDER_QTY"
)

// sourceAAliases covers the spreadsheet export header for the order time
var sourceAAliases = map[string]string{
	"ORDER_TIME (PST)": colOrderTime,
}

var (
	sourceAColumns = []string{colOrderID, colOrderTime, colCityDistrictID, colAmount, colCurrency, colQuantity}
	mappingColumns = []string{colCityDistrictID, colShipCityCode, colShipDistrictName}
)

// ParseSourceA reads the source A CSV extract. Cells that do not parse are
// loaded as missing and reported in the returned collection.
func ParseSourceA(r io.Reader) ([]order.RawOrderA, *ErrorCollection, error) {
	p, err := NewCSVParser(r, WithHeaderAliases(sourceAAliases))
	if err != nil {
		return nil, nil, err
	}
	if missing := p.MissingHeaders(sourceAColumns); len(missing) > 0 {
		return nil, nil, fmt.Errorf("source A extract missing columns %v", missing)
	}
	rows, err := p.ReadAllRows()
	if err != nil {
		return nil, nil, err
	}

	errs := NewErrorCollection(0)
	out := make([]order.RawOrderA, 0, len(rows))
	for _, row := range rows {
		rec := order.RawOrderA{
			OrderID:      row.Get(colOrderID),
			OrderTime:    optString(row.Get(colOrderTime)),
			CurrencyCode: optString(row.Get(colCurrency)),
		}
		rec.CityDistrictID = parseInt(errs, row.LineNumber, colCityDistrictID, row.Get(colCityDistrictID))
		rec.Amount = parseDecimal(errs, row.LineNumber, colAmount, row.Get(colAmount))
		rec.Quantity = parseInt(errs, row.LineNumber, colQuantity, row.Get(colQuantity))
		out = append(out, rec)
	}
	return out, errs, nil
}

// ParseCityDistrictMap reads the city/district mapping CSV. Rows without a
// valid id or with blank names cannot be keyed and are skipped.
func ParseCityDistrictMap(r io.Reader) ([]reference.CityDistrict, *ErrorCollection, error) {
	p, err := NewCSVParser(r)
	if err != nil {
		return nil, nil, err
	}
	if missing := p.MissingHeaders(mappingColumns); len(missing) > 0 {
		return nil, nil, fmt.Errorf("city/district map missing columns %v", missing)
	}
	rows, err := p.ReadAllRows()
	if err != nil {
		return nil, nil, err
	}

	errs := NewErrorCollection(0)
	out := make([]reference.CityDistrict, 0, len(rows))
	for _, row := range rows {
		id := parseInt(errs, row.LineNumber, colCityDistrictID, row.Get(colCityDistrictID))
		city, district := row.Get(colShipCityCode), row.Get(colShipDistrictName)
		if id == nil {
			continue
		}
		if city == "" || district == "" {
			errs.Add(FieldError{Line: row.LineNumber, Column: colShipCityCode, Message: "city and district are required"})
			continue
		}
		out = append(out, reference.CityDistrict{CityDistrictID: *id, ShipCityCode: city, ShipDistrictName: district})
	}
	return out, errs, nil
}

// ParseSourceB reads the source B JSON array extract. Values of the wrong
// JSON type are loaded as missing and reported.
func ParseSourceB(r io.Reader) ([]order.RawOrderB, *ErrorCollection, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyFile
		}
		return nil, nil, fmt.Errorf("failed to decode source B extract: %w", err)
	}

	errs := NewErrorCollection(0)
	out := make([]order.RawOrderB, 0, len(items))
	for i, item := range items {
		line := i + 1
		rec := order.RawOrderB{
			OrderID:          jsonText(item[colOrderID]),
			ShipCityCode:     optString(jsonText(item[colShipCityCode])),
			ShipDistrictName: optString(jsonText(item[colShipDistrictName])),
			CurrencyCode:     optString(jsonText(item[colCurrency])),
		}
		rec.OrderTime = parseInt(errs, line, colOrderTime, jsonText(item[colOrderTime]))
		rec.Amount = parseDecimal(errs, line, colAmount, jsonText(item[colAmount]))
		rec.Quantity = parseInt(errs, line, colQuantity, jsonText(item[colQuantity]))
		out = append(out, rec)
	}
	return out, errs, nil
}

// jsonText renders a decoded JSON scalar as text; null and objects are ""
func jsonText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseInt accepts integers and integral decimals such as "3.0"
func parseInt(errs *ErrorCollection, line int, column, raw string) *int64 {
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &v
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() {
		errs.AddInvalid(line, column, raw, "integer")
		return nil
	}
	v := d.IntPart()
	return &v
}

func parseDecimal(errs *ErrorCollection, line int, column, raw string) decimal.NullDecimal {
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		errs.AddInvalid(line, column, raw, "decimal")
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
