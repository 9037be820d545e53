package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "US$ 12,345", CleanText("US$ 12,345"))
	assert.Equal(t, "Guangdong Province", CleanText("  Guangdong \t\n Province "))
	assert.Equal(t, "ABC 1", CleanText("ＡＢＣ　1"), "full-width forms fold under NFKC")
}

func TestParseCityTranslations(t *testing.T) {
	data := `[
		{"SHIP_TO_CITY_CD": "上海", "SHIP_TO_CITY_CD_ENG": "Shanghai", "metadata": {"Per capita": "US$ 26,747", "Total": "US$ 698.1 billion"}},
		{"SHIP_TO_CITY_CD": "广州", "SHIP_TO_CITY_CD_ENG": "Guangzhou", "metadata": {"• Province": "\"Guangdong\"", "Total": "US$ 1,234"}},
		{"SHIP_TO_CITY_CD": "  ", "SHIP_TO_CITY_CD_ENG": "Nowhere", "metadata": {}}
	]`
	rows, err := ParseCityTranslations(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	sh := rows[0]
	assert.Equal(t, "Shanghai", *sh.ShipCityCodeEnglish)
	assert.Equal(t, "Shanghai", *sh.Province)
	assert.Equal(t, "26747", *sh.PerCapitaUSD)
	assert.Equal(t, int64(698100000000), *sh.TotalGDPUSD)

	gz := rows[1]
	assert.Equal(t, "Guangdong", *gz.Province, "bullet stripped from key and quotes from value")
	assert.Nil(t, gz.PerCapitaUSD)
	assert.Equal(t, int64(1234), *gz.TotalGDPUSD)
	assert.Contains(t, gz.RawMetadata, "Province")
}

func TestParseDistrictTranslations(t *testing.T) {
	data := `[{"SHIP_TO_DISTRICT_NAME": "浦东", "SHIP_TO_DISTRICT_NAME_ENG": "Pudong New  Area", "metadata": {"Area": " 1,210 km2 "}},
		{"SHIP_TO_DISTRICT_NAME": "武侯", "SHIP_TO_DISTRICT_NAME_ENG": "", "metadata": null}]`
	rows, err := ParseDistrictTranslations(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Pudong New Area", *rows[0].ShipDistrictNameEnglish)
	assert.Equal(t, "1,210 km2", rows[0].RawMetadata["Area"])
	assert.Nil(t, rows[1].ShipDistrictNameEnglish)
	assert.Nil(t, rows[1].RawMetadata)
}

func TestParseTranslations_Malformed(t *testing.T) {
	_, err := ParseCityTranslations(strings.NewReader(`{`))
	require.Error(t, err)
	_, err = ParseDistrictTranslations(strings.NewReader(`"x"`))
	require.Error(t, err)
}
