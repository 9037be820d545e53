package reference

import "github.com/shopspring/decimal"

// Lookups is an in-memory snapshot of the translation and currency tables
type Lookups struct {
	Cities    map[string]CityTranslation
	Districts map[string]DistrictTranslation
	Rates     map[string]decimal.Decimal
}

// NewLookups indexes the reference tables by their keys
func NewLookups(cities []CityTranslation, districts []DistrictTranslation, rates []CurrencyRate) *Lookups {
	l := &Lookups{
		Cities:    make(map[string]CityTranslation, len(cities)),
		Districts: make(map[string]DistrictTranslation, len(districts)),
		Rates:     make(map[string]decimal.Decimal, len(rates)),
	}
	for _, c := range cities {
		l.Cities[c.ShipCityCode] = c
	}
	for _, d := range districts {
		l.Districts[d.ShipDistrictName] = d
	}
	for _, r := range rates {
		l.Rates[r.CurrencyCode] = r.Multiplier
	}
	return l
}

// City returns the translation for a city code, if any
func (l *Lookups) City(code *string) (CityTranslation, bool) {
	if code == nil {
		return CityTranslation{}, false
	}
	c, ok := l.Cities[*code]
	return c, ok
}

// District returns the translation for a district name, if any
func (l *Lookups) District(name *string) (DistrictTranslation, bool) {
	if name == nil {
		return DistrictTranslation{}, false
	}
	d, ok := l.Districts[*name]
	return d, ok
}

// Multiplier returns the settlement multiplier for a currency code, if any
func (l *Lookups) Multiplier(code *string) (decimal.Decimal, bool) {
	if code == nil {
		return decimal.Decimal{}, false
	}
	m, ok := l.Rates[*code]
	return m, ok
}
