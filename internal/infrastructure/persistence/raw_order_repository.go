package persistence

import (
	"context"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RawOrderAModel is the bronze table for the source A extract
type RawOrderAModel struct {
	OrderID        string              `gorm:"column:order_id;primaryKey;size:64"`
	OrderTime      *string             `gorm:"column:order_time;size:16"`
	CityDistrictID *int64              `gorm:"column:city_district_id"`
	Amount         decimal.NullDecimal `gorm:"column:amount;type:decimal(18,4)"`
	CurrencyCode   *string             `gorm:"column:currency_code;size:8"`
	Quantity       *int64              `gorm:"column:quantity"`
}

// TableName returns the table name for the model
func (RawOrderAModel) TableName() string {
	return "raw_orders_a"
}

// RawOrderBModel is the bronze table for the source B extract
type RawOrderBModel struct {
	OrderID          string              `gorm:"column:order_id;primaryKey;size:64"`
	OrderTime        *int64              `gorm:"column:order_time"`
	ShipCityCode     *string             `gorm:"column:ship_city_code;size:64"`
	ShipDistrictName *string             `gorm:"column:ship_district_name;size:128"`
	Amount           decimal.NullDecimal `gorm:"column:amount;type:decimal(18,4)"`
	CurrencyCode     *string             `gorm:"column:currency_code;size:8"`
	Quantity         *int64              `gorm:"column:quantity"`
}

// TableName returns the table name for the model
func (RawOrderBModel) TableName() string {
	return "raw_orders_b"
}

var (
	rawAUpdateColumns = []string{"order_time", "city_district_id", "amount", "currency_code", "quantity"}
	rawBUpdateColumns = []string{"order_time", "ship_city_code", "ship_district_name", "amount", "currency_code", "quantity"}
)

// GormRawOrderRepository reads and loads the bronze extracts
type GormRawOrderRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormRawOrderRepository creates a new bronze repository
func NewGormRawOrderRepository(db *gorm.DB, batchSize int) *GormRawOrderRepository {
	return &GormRawOrderRepository{db: db, batchSize: batchSize}
}

// FindAllA returns the full source A snapshot ordered by order id
func (r *GormRawOrderRepository) FindAllA(ctx context.Context) ([]order.RawOrderA, error) {
	var models []RawOrderAModel
	if err := r.db.WithContext(ctx).Order("order_id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]order.RawOrderA, len(models))
	for i, m := range models {
		out[i] = order.RawOrderA{
			OrderID:        m.OrderID,
			OrderTime:      m.OrderTime,
			CityDistrictID: m.CityDistrictID,
			Amount:         m.Amount,
			CurrencyCode:   m.CurrencyCode,
			Quantity:       m.Quantity,
		}
	}
	return out, nil
}

// FindAllB returns the full source B snapshot ordered by order id
func (r *GormRawOrderRepository) FindAllB(ctx context.Context) ([]order.RawOrderB, error) {
	var models []RawOrderBModel
	if err := r.db.WithContext(ctx).Order("order_id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]order.RawOrderB, len(models))
	for i, m := range models {
		out[i] = order.RawOrderB{
			OrderID:          m.OrderID,
			OrderTime:        m.OrderTime,
			ShipCityCode:     m.ShipCityCode,
			ShipDistrictName: m.ShipDistrictName,
			Amount:           m.Amount,
			CurrencyCode:     m.CurrencyCode,
			Quantity:         m.Quantity,
		}
	}
	return out, nil
}

// UpsertA loads source A rows keyed by order id
func (r *GormRawOrderRepository) UpsertA(ctx context.Context, rows []order.RawOrderA) (int, error) {
	models := make([]RawOrderAModel, len(rows))
	for i, a := range rows {
		models[i] = RawOrderAModel{
			OrderID:        a.OrderID,
			OrderTime:      a.OrderTime,
			CityDistrictID: a.CityDistrictID,
			Amount:         a.Amount,
			CurrencyCode:   a.CurrencyCode,
			Quantity:       a.Quantity,
		}
	}
	return upsertAll(ctx, r.db, models, "order_id",
		func(m RawOrderAModel) string { return m.OrderID }, rawAUpdateColumns, r.batchSize)
}

// UpsertB loads source B rows keyed by order id
func (r *GormRawOrderRepository) UpsertB(ctx context.Context, rows []order.RawOrderB) (int, error) {
	models := make([]RawOrderBModel, len(rows))
	for i, b := range rows {
		models[i] = RawOrderBModel{
			OrderID:          b.OrderID,
			OrderTime:        b.OrderTime,
			ShipCityCode:     b.ShipCityCode,
			ShipDistrictName: b.ShipDistrictName,
			Amount:           b.Amount,
			CurrencyCode:     b.CurrencyCode,
			Quantity:         b.Quantity,
		}
	}
	return upsertAll(ctx, r.db, models, "order_id",
		func(m RawOrderBModel) string { return m.OrderID }, rawBUpdateColumns, r.batchSize)
}

var _ order.RawOrderRepository = (*GormRawOrderRepository)(nil)
