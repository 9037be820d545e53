package tiering

import (
	"context"

	"github.com/shopspring/decimal"
)

// CityAggregate is the settlement total of one city with its translation
type CityAggregate struct {
	ShipCityCode        string
	SettlementTotal     decimal.Decimal
	ShipCityCodeEnglish *string
	Province            *string
	PerCapitaUSD        *string
}

// ClusterAssignment places one city into a value tier
type ClusterAssignment struct {
	ShipCityCode        string
	SettlementTotal     decimal.Decimal
	ShipCityCodeEnglish *string
	Province            *string
	PerCapitaUSD        *string
	NormalizedValue     float64
	ClusterID           int
}

// ElbowPoint is the inertia of a k-means fit with K clusters
type ElbowPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// Repository persists cluster assignments. ReplaceAll drops and recreates
// the table because membership depends on the whole population.
type Repository interface {
	ReplaceAll(ctx context.Context, rows []ClusterAssignment) error
	FindAll(ctx context.Context) ([]ClusterAssignment, error)
}
