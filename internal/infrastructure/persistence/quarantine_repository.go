package persistence

import (
	"context"
	"strings"

	"github.com/salesrecon/backend/internal/domain/order"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuarantinedRecordModel holds the grouped violations of one order id
type QuarantinedRecordModel struct {
	OrderID   string                               `gorm:"column:order_id;primaryKey;size:64"`
	RunID     string                               `gorm:"column:run_id;size:36;index"`
	Sources   string                               `gorm:"column:sources;size:8"`
	ErrorList datatypes.JSONSlice[order.Violation] `gorm:"column:error_list"`
}

// TableName returns the table name for the model
func (QuarantinedRecordModel) TableName() string {
	return "quarantined_records"
}

// GormQuarantineRepository implements order.QuarantineRepository
type GormQuarantineRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormQuarantineRepository creates a new quarantine repository
func NewGormQuarantineRepository(db *gorm.DB, batchSize int) *GormQuarantineRepository {
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}
	return &GormQuarantineRepository{db: db, batchSize: batchSize}
}

// ReplaceAll swaps the table contents for the given run's records
func (r *GormQuarantineRepository) ReplaceAll(ctx context.Context, rows []order.QuarantinedRecord) error {
	models := make([]QuarantinedRecordModel, len(rows))
	for i, q := range rows {
		sources := make([]string, len(q.Sources))
		for j, s := range q.Sources {
			sources[j] = string(s)
		}
		models[i] = QuarantinedRecordModel{
			OrderID:   q.OrderID,
			RunID:     q.RunID,
			Sources:   strings.Join(sources, ","),
			ErrorList: datatypes.JSONSlice[order.Violation](q.Errors),
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&QuarantinedRecordModel{}).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}
		return tx.CreateInBatches(&models, r.batchSize).Error
	})
}

// FindAll returns the quarantine of the latest run ordered by order id
func (r *GormQuarantineRepository) FindAll(ctx context.Context) ([]order.QuarantinedRecord, error) {
	var models []QuarantinedRecordModel
	if err := r.db.WithContext(ctx).Order("order_id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]order.QuarantinedRecord, len(models))
	for i, m := range models {
		var sources []order.Source
		for _, s := range strings.Split(m.Sources, ",") {
			if s != "" {
				sources = append(sources, order.Source(s))
			}
		}
		out[i] = order.QuarantinedRecord{
			OrderID: m.OrderID,
			RunID:   m.RunID,
			Sources: sources,
			Errors:  []order.Violation(m.ErrorList),
		}
	}
	return out, nil
}

var _ order.QuarantineRepository = (*GormQuarantineRepository)(nil)
