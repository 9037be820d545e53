package persistence

import (
	"context"

	"github.com/salesrecon/backend/internal/domain/tiering"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClusterAssignmentModel is one city in the tiering output
type ClusterAssignmentModel struct {
	ShipCityCode        string          `gorm:"column:ship_city_code;primaryKey;size:64"`
	SettlementTotal     decimal.Decimal `gorm:"column:settlement_total;type:decimal(30,10);not null"`
	ShipCityCodeEnglish *string         `gorm:"column:ship_city_code_english;size:128"`
	Province            *string         `gorm:"column:province;size:128"`
	PerCapitaUSD        *string         `gorm:"column:per_capita_usd;size:32"`
	NormalizedValue     float64         `gorm:"column:normalized_value;not null"`
	ClusterID           int             `gorm:"column:cluster_id;not null"`
}

// TableName returns the table name for the model
func (ClusterAssignmentModel) TableName() string {
	return "city_cluster_assignments"
}

// GormClusterRepository implements tiering.Repository
type GormClusterRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormClusterRepository creates a new cluster assignment repository
func NewGormClusterRepository(db *gorm.DB, batchSize int) *GormClusterRepository {
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}
	return &GormClusterRepository{db: db, batchSize: batchSize}
}

// ReplaceAll drops and recreates the assignment table, then writes rows
func (r *GormClusterRepository) ReplaceAll(ctx context.Context, rows []tiering.ClusterAssignment) error {
	models := make([]ClusterAssignmentModel, len(rows))
	for i, a := range rows {
		models[i] = ClusterAssignmentModel{
			ShipCityCode:        a.ShipCityCode,
			SettlementTotal:     a.SettlementTotal,
			ShipCityCodeEnglish: a.ShipCityCodeEnglish,
			Province:            a.Province,
			PerCapitaUSD:        a.PerCapitaUSD,
			NormalizedValue:     a.NormalizedValue,
			ClusterID:           a.ClusterID,
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := tx.Migrator()
		if m.HasTable(&ClusterAssignmentModel{}) {
			if err := m.DropTable(&ClusterAssignmentModel{}); err != nil {
				return err
			}
		}
		if err := m.CreateTable(&ClusterAssignmentModel{}); err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(&models, r.batchSize).Error
	})
}

// FindAll returns assignments ordered by tier then settlement total
func (r *GormClusterRepository) FindAll(ctx context.Context) ([]tiering.ClusterAssignment, error) {
	var models []ClusterAssignmentModel
	err := r.db.WithContext(ctx).
		Order("cluster_id").
		Order("settlement_total DESC").
		Order("ship_city_code").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]tiering.ClusterAssignment, len(models))
	for i, m := range models {
		out[i] = tiering.ClusterAssignment{
			ShipCityCode:        m.ShipCityCode,
			SettlementTotal:     m.SettlementTotal,
			ShipCityCodeEnglish: m.ShipCityCodeEnglish,
			Province:            m.Province,
			PerCapitaUSD:        m.PerCapitaUSD,
			NormalizedValue:     m.NormalizedValue,
			ClusterID:           m.ClusterID,
		}
	}
	return out, nil
}

var _ tiering.Repository = (*GormClusterRepository)(nil)
