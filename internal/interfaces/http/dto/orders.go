package dto

import (
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/tiering"
	"github.com/shopspring/decimal"
)

// CanonicalOrderResponse is one silver row
type CanonicalOrderResponse struct {
	OrderID          string              `json:"order_id"`
	OrderTime        *string             `json:"order_time_pst"`
	Amount           decimal.NullDecimal `json:"rptg_amt"`
	CurrencyCode     *string             `json:"currency_cd"`
	Quantity         *int64              `json:"order_qty"`
	ShipCityCode     *string             `json:"ship_to_city_cd"`
	ShipDistrictName *string             `json:"ship_to_district_name"`
}

// CuratedOrderResponse is one gold row
type CuratedOrderResponse struct {
	OrderID                 string              `json:"order_id"`
	OrderTime               *string             `json:"order_time_pst"`
	ShipCityCode            *string             `json:"ship_to_city_cd"`
	ShipDistrictName        *string             `json:"ship_to_district_name"`
	ShipCityCodeEnglish     *string             `json:"ship_to_city_cd_english"`
	ShipDistrictNameEnglish *string             `json:"ship_to_district_name_english"`
	SettlementAmount        decimal.NullDecimal `json:"settlement_amount"`
	Quantity                *int64              `json:"order_qty"`
}

// QuarantineResponse is one grouped quarantine record
type QuarantineResponse struct {
	OrderID string            `json:"order_id"`
	RunID   string            `json:"run_id"`
	Sources []order.Source    `json:"sources"`
	Errors  []order.Violation `json:"errors"`
}

// ClusterAssignmentResponse places one city in a tier
type ClusterAssignmentResponse struct {
	ShipCityCode        string          `json:"ship_to_city_cd"`
	ShipCityCodeEnglish *string         `json:"ship_to_city_cd_english"`
	Province            *string         `json:"province"`
	PerCapitaUSD        *string         `json:"per_capita_usd"`
	SettlementTotal     decimal.Decimal `json:"settlement_total"`
	NormalizedValue     float64         `json:"normalized_value"`
	ClusterID           int             `json:"cluster_id"`
}

// ElbowPointResponse is the inertia of one k
type ElbowPointResponse struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// ToCanonicalOrderResponses converts silver rows
func ToCanonicalOrderResponses(rows []order.CanonicalOrder) []CanonicalOrderResponse {
	out := make([]CanonicalOrderResponse, len(rows))
	for i, r := range rows {
		out[i] = ToCanonicalOrderResponse(r)
	}
	return out
}

// ToCanonicalOrderResponse converts one silver row
func ToCanonicalOrderResponse(r order.CanonicalOrder) CanonicalOrderResponse {
	return CanonicalOrderResponse{
		OrderID:          r.OrderID,
		OrderTime:        r.OrderTime,
		Amount:           r.Amount,
		CurrencyCode:     r.CurrencyCode,
		Quantity:         r.Quantity,
		ShipCityCode:     r.ShipCityCode,
		ShipDistrictName: r.ShipDistrictName,
	}
}

// ToCuratedOrderResponses converts gold rows
func ToCuratedOrderResponses(rows []order.CuratedOrder) []CuratedOrderResponse {
	out := make([]CuratedOrderResponse, len(rows))
	for i, r := range rows {
		out[i] = CuratedOrderResponse{
			OrderID:                 r.OrderID,
			OrderTime:               r.OrderTime,
			ShipCityCode:            r.ShipCityCode,
			ShipDistrictName:        r.ShipDistrictName,
			ShipCityCodeEnglish:     r.ShipCityCodeEnglish,
			ShipDistrictNameEnglish: r.ShipDistrictNameEnglish,
			SettlementAmount:        r.SettlementAmount,
			Quantity:                r.Quantity,
		}
	}
	return out
}

// ToQuarantineResponses converts quarantine records
func ToQuarantineResponses(rows []order.QuarantinedRecord) []QuarantineResponse {
	out := make([]QuarantineResponse, len(rows))
	for i, r := range rows {
		out[i] = QuarantineResponse{OrderID: r.OrderID, RunID: r.RunID, Sources: r.Sources, Errors: r.Errors}
	}
	return out
}

// ToClusterAssignmentResponses converts tier assignments
func ToClusterAssignmentResponses(rows []tiering.ClusterAssignment) []ClusterAssignmentResponse {
	out := make([]ClusterAssignmentResponse, len(rows))
	for i, r := range rows {
		out[i] = ClusterAssignmentResponse{
			ShipCityCode:        r.ShipCityCode,
			ShipCityCodeEnglish: r.ShipCityCodeEnglish,
			Province:            r.Province,
			PerCapitaUSD:        r.PerCapitaUSD,
			SettlementTotal:     r.SettlementTotal,
			NormalizedValue:     r.NormalizedValue,
			ClusterID:           r.ClusterID,
		}
	}
	return out
}

// ToElbowPointResponses converts an elbow curve
func ToElbowPointResponses(points []tiering.ElbowPoint) []ElbowPointResponse {
	out := make([]ElbowPointResponse, len(points))
	for i, p := range points {
		out[i] = ElbowPointResponse{K: p.K, Inertia: p.Inertia}
	}
	return out
}
