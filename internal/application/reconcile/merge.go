package reconcile

import (
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
)

// NormalizeA replaces each source A district id with its city/district pair.
// Rows whose id is missing or unmapped are kept with both columns null.
func NormalizeA(rows []order.RawOrderA, mapping []reference.CityDistrict) []order.CanonicalOrder {
	byID := make(map[int64]reference.CityDistrict, len(mapping))
	for _, m := range mapping {
		byID[m.CityDistrictID] = m
	}

	out := make([]order.CanonicalOrder, len(rows))
	for i, a := range rows {
		c := order.CanonicalOrder{
			OrderID:      a.OrderID,
			OrderTime:    a.OrderTime,
			Amount:       a.Amount,
			CurrencyCode: a.CurrencyCode,
			Quantity:     a.Quantity,
		}
		if a.CityDistrictID != nil {
			if m, ok := byID[*a.CityDistrictID]; ok {
				city, district := m.ShipCityCode, m.ShipDistrictName
				c.ShipCityCode = &city
				c.ShipDistrictName = &district
			}
		}
		out[i] = c
	}
	return out
}

// NormalizeB maps source B rows onto the canonical shape
func NormalizeB(rows []order.RawOrderB) []order.CanonicalOrder {
	out := make([]order.CanonicalOrder, len(rows))
	for i, b := range rows {
		out[i] = order.FromB(b)
	}
	return out
}

// Union concatenates the normalized batches, A rows first
func Union(a, b []order.CanonicalOrder) []order.CanonicalOrder {
	out := make([]order.CanonicalOrder, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
