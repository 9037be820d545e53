package persistence

import (
	"context"
	"errors"

	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CanonicalOrderModel is the silver table. It carries no timestamps so that
// replaying a batch leaves every column unchanged.
type CanonicalOrderModel struct {
	OrderID          string              `gorm:"column:order_id;primaryKey;size:64"`
	OrderTime        *string             `gorm:"column:order_time;size:16"`
	Amount           decimal.NullDecimal `gorm:"column:amount;type:decimal(18,4)"`
	CurrencyCode     *string             `gorm:"column:currency_code;size:8"`
	Quantity         *int64              `gorm:"column:quantity"`
	ShipCityCode     *string             `gorm:"column:ship_city_code;size:64"`
	ShipDistrictName *string             `gorm:"column:ship_district_name;size:128"`
}

// TableName returns the table name for the model
func (CanonicalOrderModel) TableName() string {
	return "canonical_orders"
}

// CanonicalUpdateColumns lists every non-key silver column
var CanonicalUpdateColumns = []string{
	"order_time", "amount", "currency_code", "quantity", "ship_city_code", "ship_district_name",
}

func (m *CanonicalOrderModel) toEntity() order.CanonicalOrder {
	return order.CanonicalOrder{
		OrderID:          m.OrderID,
		OrderTime:        m.OrderTime,
		Amount:           m.Amount,
		CurrencyCode:     m.CurrencyCode,
		Quantity:         m.Quantity,
		ShipCityCode:     m.ShipCityCode,
		ShipDistrictName: m.ShipDistrictName,
	}
}

func canonicalModelFromEntity(e order.CanonicalOrder) CanonicalOrderModel {
	return CanonicalOrderModel{
		OrderID:          e.OrderID,
		OrderTime:        e.OrderTime,
		Amount:           e.Amount,
		CurrencyCode:     e.CurrencyCode,
		Quantity:         e.Quantity,
		ShipCityCode:     e.ShipCityCode,
		ShipDistrictName: e.ShipDistrictName,
	}
}

// GormCanonicalOrderRepository implements order.CanonicalOrderRepository
type GormCanonicalOrderRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormCanonicalOrderRepository creates a new silver repository
func NewGormCanonicalOrderRepository(db *gorm.DB, batchSize int) *GormCanonicalOrderRepository {
	return &GormCanonicalOrderRepository{db: db, batchSize: batchSize}
}

// UpsertAll inserts new order ids and overwrites every non-key column of
// existing ones.
func (r *GormCanonicalOrderRepository) UpsertAll(ctx context.Context, rows []order.CanonicalOrder) (int, error) {
	models := make([]CanonicalOrderModel, len(rows))
	for i, row := range rows {
		models[i] = canonicalModelFromEntity(row)
	}
	return upsertAll(ctx, r.db, models, "order_id",
		func(m CanonicalOrderModel) string { return m.OrderID }, CanonicalUpdateColumns, r.batchSize)
}

// FindAll returns the full silver snapshot ordered by order id
func (r *GormCanonicalOrderRepository) FindAll(ctx context.Context) ([]order.CanonicalOrder, error) {
	var models []CanonicalOrderModel
	if err := r.db.WithContext(ctx).Order("order_id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]order.CanonicalOrder, len(models))
	for i := range models {
		out[i] = models[i].toEntity()
	}
	return out, nil
}

// FindPage returns one page of silver rows and the total row count
func (r *GormCanonicalOrderRepository) FindPage(ctx context.Context, offset, limit int) ([]order.CanonicalOrder, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&CanonicalOrderModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []CanonicalOrderModel
	if err := r.db.WithContext(ctx).Order("order_id").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]order.CanonicalOrder, len(models))
	for i := range models {
		out[i] = models[i].toEntity()
	}
	return out, total, nil
}

// FindByID returns one silver row
func (r *GormCanonicalOrderRepository) FindByID(ctx context.Context, orderID string) (*order.CanonicalOrder, error) {
	var m CanonicalOrderModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.Withf("canonical order %q not found", orderID).Because(err)
		}
		return nil, err
	}
	e := m.toEntity()
	return &e, nil
}

var _ order.CanonicalOrderRepository = (*GormCanonicalOrderRepository)(nil)
