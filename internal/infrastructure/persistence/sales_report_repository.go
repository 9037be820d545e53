package persistence

import (
	"context"
	"math"

	"github.com/salesrecon/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportRepository implements report.Repository over the gold and
// tiering tables.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new report repository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

type cityHourRow struct {
	Hour                float64
	ShipCityCode        string
	ShipCityCodeEnglish *string
	Total               decimal.NullDecimal
}

// CityHourTotals sums settlement_amount per order hour and city
func (r *GormReportRepository) CityHourTotals(ctx context.Context) ([]report.CityHourTotal, error) {
	var rows []cityHourRow
	err := r.db.WithContext(ctx).
		Model(&CuratedOrderModel{}).
		Select(`ROUND(CAST(order_time AS NUMERIC) / 10000.0) AS hour,
			ship_city_code,
			MAX(ship_city_code_english) AS ship_city_code_english,
			SUM(settlement_amount) AS total`).
		Where("order_time IS NOT NULL AND order_time <> '' AND ship_city_code IS NOT NULL").
		Group("ROUND(CAST(order_time AS NUMERIC) / 10000.0), ship_city_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]report.CityHourTotal, 0, len(rows))
	for _, row := range rows {
		if !row.Total.Valid {
			continue
		}
		out = append(out, report.CityHourTotal{
			Hour:                int(math.Round(row.Hour)),
			ShipCityCode:        row.ShipCityCode,
			ShipCityCodeEnglish: row.ShipCityCodeEnglish,
			Total:               row.Total.Decimal,
		})
	}
	return out, nil
}

type tierRow struct {
	ClusterID       int
	Cities          int
	SettlementTotal decimal.NullDecimal
}

// TierSummaries counts cities and sums settlement per cluster
func (r *GormReportRepository) TierSummaries(ctx context.Context) ([]report.TierSummary, error) {
	var rows []tierRow
	err := r.db.WithContext(ctx).
		Model(&ClusterAssignmentModel{}).
		Select("cluster_id, COUNT(*) AS cities, SUM(settlement_total) AS settlement_total").
		Group("cluster_id").
		Order("cluster_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]report.TierSummary, len(rows))
	for i, row := range rows {
		out[i] = report.TierSummary{
			ClusterID:       row.ClusterID,
			Cities:          row.Cities,
			SettlementTotal: row.SettlementTotal.Decimal,
		}
	}
	return out, nil
}

var _ report.Repository = (*GormReportRepository)(nil)
