package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/salesrecon/backend/internal/domain/reference"
	"golang.org/x/text/unicode/norm"
)

type cityTranslationItem struct {
	ShipCityCode        string            `json:"SHIP_TO_CITY_CD"`
	ShipCityCodeEnglish string            `json:"SHIP_TO_CITY_CD_ENG"`
	Metadata            map[string]string `json:"metadata"`
}

type districtTranslationItem struct {
	ShipDistrictName        string            `json:"SHIP_TO_DISTRICT_NAME"`
	ShipDistrictNameEnglish string            `json:"SHIP_TO_DISTRICT_NAME_ENG"`
	Metadata                map[string]string `json:"metadata"`
}

// ParseCityTranslations reads the city translation JSON array and derives
// province and GDP figures from the cleaned metadata.
func ParseCityTranslations(r io.Reader) ([]reference.CityTranslation, error) {
	var items []cityTranslationItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode city translations: %w", err)
	}

	out := make([]reference.CityTranslation, 0, len(items))
	for _, item := range items {
		code := CleanText(item.ShipCityCode)
		if code == "" {
			continue
		}
		out = append(out, reference.NewCityTranslation(code, CleanText(item.ShipCityCodeEnglish), cleanMetadata(item.Metadata)))
	}
	return out, nil
}

// ParseDistrictTranslations reads the district translation JSON array
func ParseDistrictTranslations(r io.Reader) ([]reference.DistrictTranslation, error) {
	var items []districtTranslationItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode district translations: %w", err)
	}

	out := make([]reference.DistrictTranslation, 0, len(items))
	for _, item := range items {
		name := CleanText(item.ShipDistrictName)
		if name == "" {
			continue
		}
		out = append(out, reference.NewDistrictTranslation(name, CleanText(item.ShipDistrictNameEnglish), cleanMetadata(item.Metadata)))
	}
	return out, nil
}

// CleanText applies NFKC normalisation, which folds non-breaking and
// full-width spaces, then collapses whitespace runs.
func CleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// cleanMetadata cleans keys and values and strips list bullets from keys
func cleanMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := CleanText(k)
		key = strings.TrimSpace(strings.TrimLeft(key, "-•"))
		out[key] = CleanText(v)
	}
	return out
}
