package persistence

import (
	"context"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CuratedOrderModel is the gold table
type CuratedOrderModel struct {
	OrderID                 string              `gorm:"column:order_id;primaryKey;size:64"`
	OrderTime               *string             `gorm:"column:order_time;size:16;index:idx_curated_order_time"`
	ShipCityCode            *string             `gorm:"column:ship_city_code;size:64;index:idx_curated_city"`
	ShipDistrictName        *string             `gorm:"column:ship_district_name;size:128;index:idx_curated_district"`
	ShipCityCodeEnglish     *string             `gorm:"column:ship_city_code_english;size:128"`
	ShipDistrictNameEnglish *string             `gorm:"column:ship_district_name_english;size:128"`
	SettlementAmount        decimal.NullDecimal `gorm:"column:settlement_amount;type:decimal(28,10);index:idx_curated_settlement"`
	Quantity                *int64              `gorm:"column:quantity"`
}

// TableName returns the table name for the model
func (CuratedOrderModel) TableName() string {
	return "curated_orders"
}

// CuratedUpdateColumns lists every non-key gold column
var CuratedUpdateColumns = []string{
	"order_time", "ship_city_code", "ship_district_name", "ship_city_code_english",
	"ship_district_name_english", "settlement_amount", "quantity",
}

func (m *CuratedOrderModel) toEntity() order.CuratedOrder {
	return order.CuratedOrder{
		OrderID:                 m.OrderID,
		OrderTime:               m.OrderTime,
		ShipCityCode:            m.ShipCityCode,
		ShipDistrictName:        m.ShipDistrictName,
		ShipCityCodeEnglish:     m.ShipCityCodeEnglish,
		ShipDistrictNameEnglish: m.ShipDistrictNameEnglish,
		SettlementAmount:        m.SettlementAmount,
		Quantity:                m.Quantity,
	}
}

// GormCuratedOrderRepository implements order.CuratedOrderRepository
type GormCuratedOrderRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormCuratedOrderRepository creates a new gold repository
func NewGormCuratedOrderRepository(db *gorm.DB, batchSize int) *GormCuratedOrderRepository {
	return &GormCuratedOrderRepository{db: db, batchSize: batchSize}
}

// UpsertAll overwrites gold rows by order id
func (r *GormCuratedOrderRepository) UpsertAll(ctx context.Context, rows []order.CuratedOrder) (int, error) {
	models := make([]CuratedOrderModel, len(rows))
	for i, e := range rows {
		models[i] = CuratedOrderModel{
			OrderID:                 e.OrderID,
			OrderTime:               e.OrderTime,
			ShipCityCode:            e.ShipCityCode,
			ShipDistrictName:        e.ShipDistrictName,
			ShipCityCodeEnglish:     e.ShipCityCodeEnglish,
			ShipDistrictNameEnglish: e.ShipDistrictNameEnglish,
			SettlementAmount:        e.SettlementAmount,
			Quantity:                e.Quantity,
		}
	}
	return upsertAll(ctx, r.db, models, "order_id",
		func(m CuratedOrderModel) string { return m.OrderID }, CuratedUpdateColumns, r.batchSize)
}

// FindAll returns the full gold snapshot ordered by order id
func (r *GormCuratedOrderRepository) FindAll(ctx context.Context) ([]order.CuratedOrder, error) {
	var models []CuratedOrderModel
	if err := r.db.WithContext(ctx).Order("order_id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]order.CuratedOrder, len(models))
	for i := range models {
		out[i] = models[i].toEntity()
	}
	return out, nil
}

// FindPage returns one page of gold rows and the total row count
func (r *GormCuratedOrderRepository) FindPage(ctx context.Context, offset, limit int) ([]order.CuratedOrder, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&CuratedOrderModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []CuratedOrderModel
	if err := r.db.WithContext(ctx).Order("order_id").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]order.CuratedOrder, len(models))
	for i := range models {
		out[i] = models[i].toEntity()
	}
	return out, total, nil
}

var _ order.CuratedOrderRepository = (*GormCuratedOrderRepository)(nil)
