package reference

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CityDistrict maps a source A district id onto the city/district pair
type CityDistrict struct {
	CityDistrictID   int64
	ShipCityCode     string
	ShipDistrictName string
}

// CityTranslation holds the English name and economic figures for a city code
type CityTranslation struct {
	ShipCityCode        string
	ShipCityCodeEnglish *string
	Province            *string
	PerCapitaUSD        *string
	TotalGDPUSD         *int64
	RawMetadata         map[string]string
}

// DistrictTranslation holds the English name for a district
type DistrictTranslation struct {
	ShipDistrictName        string
	ShipDistrictNameEnglish *string
	RawMetadata             map[string]string
}

// CurrencyRate converts an amount in CurrencyCode into the settlement currency
type CurrencyRate struct {
	CurrencyCode string
	Multiplier   decimal.Decimal
	DateRecorded time.Time
}

var municipalities = map[string]struct{}{
	"Shanghai":  {},
	"Beijing":   {},
	"Tianjin":   {},
	"Chongqing": {},
}

var (
	perCapitaPattern  = regexp.MustCompile(`US\$ ([\d,]+)`)
	totalBillionRegex = regexp.MustCompile(`US\$ ([\d.]+) billion`)
	totalPlainRegex   = regexp.MustCompile(`US\$ ([\d,]+)`)
	billion           = decimal.New(1, 9)
)

// NewCityTranslation derives province and GDP figures from the harvested metadata
func NewCityTranslation(code, english string, metadata map[string]string) CityTranslation {
	t := CityTranslation{
		ShipCityCode: code,
		RawMetadata:  metadata,
		Province:     ResolveProvince(english, metadata),
		PerCapitaUSD: ParsePerCapita(metadata["Per capita"]),
		TotalGDPUSD:  ParseTotalGDP(metadata["Total"]),
	}
	if english != "" {
		t.ShipCityCodeEnglish = &english
	}
	return t
}

// NewDistrictTranslation builds a district translation row
func NewDistrictTranslation(name, english string, metadata map[string]string) DistrictTranslation {
	t := DistrictTranslation{ShipDistrictName: name, RawMetadata: metadata}
	if english != "" {
		t.ShipDistrictNameEnglish = &english
	}
	return t
}

// ResolveProvince returns the city itself for the four municipalities,
// otherwise the metadata Province or Autonomous region entry.
func ResolveProvince(english string, metadata map[string]string) *string {
	if _, ok := municipalities[english]; ok {
		return &english
	}
	for _, key := range []string{"Province", "Autonomous region"} {
		if v, ok := metadata[key]; ok {
			v = strings.TrimSpace(strings.ReplaceAll(v, `"`, ""))
			if v != "" {
				return &v
			}
		}
	}
	return nil
}

// ParsePerCapita extracts the digits of "US$ 12,345" as a string
func ParsePerCapita(raw string) *string {
	m := perCapitaPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	if digits == "" {
		return nil
	}
	return &digits
}

// ParseTotalGDP extracts "US$ 1.5 billion" as 1500000000 and "US$ 12,345"
// as 12345.
func ParseTotalGDP(raw string) *int64 {
	if m := totalBillionRegex.FindStringSubmatch(raw); m != nil {
		d, err := decimal.NewFromString(m[1])
		if err != nil {
			return nil
		}
		v := d.Mul(billion).IntPart()
		return &v
	}
	if m := totalPlainRegex.FindStringSubmatch(raw); m != nil {
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			return nil
		}
		v := d.IntPart()
		return &v
	}
	return nil
}

// SeedRates builds the static currency table recorded on the given day
func SeedRates(rates map[string]string, day time.Time) ([]CurrencyRate, error) {
	out := make([]CurrencyRate, 0, len(rates))
	for code, raw := range rates {
		m, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("currency %s multiplier %q: %w", code, raw, err)
		}
		out = append(out, CurrencyRate{
			CurrencyCode: strings.ToUpper(code),
			Multiplier:   m,
			DateRecorded: day.Truncate(24 * time.Hour),
		})
	}
	return out, nil
}
