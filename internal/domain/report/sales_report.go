package report

import (
	"context"

	"github.com/shopspring/decimal"
)

// CityHourTotal is the settlement total of one city within one order hour
type CityHourTotal struct {
	Hour                int             `json:"hour"`
	ShipCityCode        string          `json:"ship_city_code"`
	ShipCityCodeEnglish *string         `json:"ship_city_code_english,omitempty"`
	Total               decimal.Decimal `json:"total"`
}

// TierSummary aggregates the cities of one cluster
type TierSummary struct {
	ClusterID       int             `json:"cluster_id"`
	Cities          int             `json:"cities"`
	SettlementTotal decimal.Decimal `json:"settlement_total"`
}

// Repository provides the aggregate queries behind the reports
type Repository interface {
	// CityHourTotals sums curated settlement per (order hour, city).
	// The hour is order_time / 10000 rounded to the nearest integer.
	CityHourTotals(ctx context.Context) ([]CityHourTotal, error)
	TierSummaries(ctx context.Context) ([]TierSummary, error)
}
