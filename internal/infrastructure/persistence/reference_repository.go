package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CityDistrictModel maps a source A district id to its city/district pair
type CityDistrictModel struct {
	CityDistrictID   int64  `gorm:"column:city_district_id;primaryKey;autoIncrement:false"`
	ShipCityCode     string `gorm:"column:ship_city_code;size:64;not null"`
	ShipDistrictName string `gorm:"column:ship_district_name;size:128;not null"`
}

// TableName returns the table name for the model
func (CityDistrictModel) TableName() string {
	return "city_district_map"
}

// CityTranslationModel holds translated city names and GDP figures
type CityTranslationModel struct {
	ShipCityCode        string            `gorm:"column:ship_city_code;primaryKey;size:64"`
	ShipCityCodeEnglish *string           `gorm:"column:ship_city_code_english;size:128"`
	Province            *string           `gorm:"column:province;size:128"`
	PerCapitaUSD        *string           `gorm:"column:per_capita_usd;size:32"`
	TotalGDPUSD         *int64            `gorm:"column:total_gdp_usd"`
	RawMetadata         datatypes.JSONMap `gorm:"column:raw_metadata"`
}

// TableName returns the table name for the model
func (CityTranslationModel) TableName() string {
	return "city_translations"
}

// DistrictTranslationModel holds translated district names
type DistrictTranslationModel struct {
	ShipDistrictName        string            `gorm:"column:ship_district_name;primaryKey;size:128"`
	ShipDistrictNameEnglish *string           `gorm:"column:ship_district_name_english;size:128"`
	RawMetadata             datatypes.JSONMap `gorm:"column:raw_metadata"`
}

// TableName returns the table name for the model
func (DistrictTranslationModel) TableName() string {
	return "district_translations"
}

// CurrencyRateModel holds a settlement multiplier
type CurrencyRateModel struct {
	CurrencyCode string          `gorm:"column:currency_code;primaryKey;size:8"`
	Multiplier   decimal.Decimal `gorm:"column:multiplier;type:decimal(18,6);not null"`
	DateRecorded time.Time       `gorm:"column:date_recorded;type:date;not null"`
}

// TableName returns the table name for the model
func (CurrencyRateModel) TableName() string {
	return "currency_rates"
}

// GormReferenceRepository implements reference.Repository
type GormReferenceRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormReferenceRepository creates a new reference repository
func NewGormReferenceRepository(db *gorm.DB, batchSize int) *GormReferenceRepository {
	return &GormReferenceRepository{db: db, batchSize: batchSize}
}

// FindCityDistricts returns the full district mapping snapshot
func (r *GormReferenceRepository) FindCityDistricts(ctx context.Context) ([]reference.CityDistrict, error) {
	var models []CityDistrictModel
	if err := r.db.WithContext(ctx).Order("city_district_id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]reference.CityDistrict, len(models))
	for i, m := range models {
		out[i] = reference.CityDistrict{
			CityDistrictID:   m.CityDistrictID,
			ShipCityCode:     m.ShipCityCode,
			ShipDistrictName: m.ShipDistrictName,
		}
	}
	return out, nil
}

// UpsertCityDistricts loads mapping rows keyed by district id
func (r *GormReferenceRepository) UpsertCityDistricts(ctx context.Context, rows []reference.CityDistrict) (int, error) {
	models := make([]CityDistrictModel, len(rows))
	for i, cd := range rows {
		models[i] = CityDistrictModel{
			CityDistrictID:   cd.CityDistrictID,
			ShipCityCode:     cd.ShipCityCode,
			ShipDistrictName: cd.ShipDistrictName,
		}
	}
	return upsertAll(ctx, r.db, models, "city_district_id",
		func(m CityDistrictModel) string { return fmt.Sprint(m.CityDistrictID) },
		[]string{"ship_city_code", "ship_district_name"}, r.batchSize)
}

// FindCityTranslations returns every city translation
func (r *GormReferenceRepository) FindCityTranslations(ctx context.Context) ([]reference.CityTranslation, error) {
	var models []CityTranslationModel
	if err := r.db.WithContext(ctx).Order("ship_city_code").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]reference.CityTranslation, len(models))
	for i, m := range models {
		out[i] = reference.CityTranslation{
			ShipCityCode:        m.ShipCityCode,
			ShipCityCodeEnglish: m.ShipCityCodeEnglish,
			Province:            m.Province,
			PerCapitaUSD:        m.PerCapitaUSD,
			TotalGDPUSD:         m.TotalGDPUSD,
			RawMetadata:         fromJSONMap(m.RawMetadata),
		}
	}
	return out, nil
}

// UpsertCityTranslations loads city translations keyed by city code
func (r *GormReferenceRepository) UpsertCityTranslations(ctx context.Context, rows []reference.CityTranslation) (int, error) {
	models := make([]CityTranslationModel, len(rows))
	for i, c := range rows {
		models[i] = CityTranslationModel{
			ShipCityCode:        c.ShipCityCode,
			ShipCityCodeEnglish: c.ShipCityCodeEnglish,
			Province:            c.Province,
			PerCapitaUSD:        c.PerCapitaUSD,
			TotalGDPUSD:         c.TotalGDPUSD,
			RawMetadata:         toJSONMap(c.RawMetadata),
		}
	}
	return upsertAll(ctx, r.db, models, "ship_city_code",
		func(m CityTranslationModel) string { return m.ShipCityCode },
		[]string{"ship_city_code_english", "province", "per_capita_usd", "total_gdp_usd", "raw_metadata"}, r.batchSize)
}

// FindDistrictTranslations returns every district translation
func (r *GormReferenceRepository) FindDistrictTranslations(ctx context.Context) ([]reference.DistrictTranslation, error) {
	var models []DistrictTranslationModel
	if err := r.db.WithContext(ctx).Order("ship_district_name").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]reference.DistrictTranslation, len(models))
	for i, m := range models {
		out[i] = reference.DistrictTranslation{
			ShipDistrictName:        m.ShipDistrictName,
			ShipDistrictNameEnglish: m.ShipDistrictNameEnglish,
			RawMetadata:             fromJSONMap(m.RawMetadata),
		}
	}
	return out, nil
}

// UpsertDistrictTranslations loads district translations keyed by name
func (r *GormReferenceRepository) UpsertDistrictTranslations(ctx context.Context, rows []reference.DistrictTranslation) (int, error) {
	models := make([]DistrictTranslationModel, len(rows))
	for i, d := range rows {
		models[i] = DistrictTranslationModel{
			ShipDistrictName:        d.ShipDistrictName,
			ShipDistrictNameEnglish: d.ShipDistrictNameEnglish,
			RawMetadata:             toJSONMap(d.RawMetadata),
		}
	}
	return upsertAll(ctx, r.db, models, "ship_district_name",
		func(m DistrictTranslationModel) string { return m.ShipDistrictName },
		[]string{"ship_district_name_english", "raw_metadata"}, r.batchSize)
}

// FindCurrencyRates returns the seeded multipliers
func (r *GormReferenceRepository) FindCurrencyRates(ctx context.Context) ([]reference.CurrencyRate, error) {
	var models []CurrencyRateModel
	if err := r.db.WithContext(ctx).Order("currency_code").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]reference.CurrencyRate, len(models))
	for i, m := range models {
		out[i] = reference.CurrencyRate{
			CurrencyCode: m.CurrencyCode,
			Multiplier:   m.Multiplier,
			DateRecorded: m.DateRecorded,
		}
	}
	return out, nil
}

// UpsertCurrencyRates overwrites multipliers keyed by currency code
func (r *GormReferenceRepository) UpsertCurrencyRates(ctx context.Context, rows []reference.CurrencyRate) (int, error) {
	models := make([]CurrencyRateModel, len(rows))
	for i, c := range rows {
		models[i] = CurrencyRateModel{
			CurrencyCode: c.CurrencyCode,
			Multiplier:   c.Multiplier,
			DateRecorded: c.DateRecorded,
		}
	}
	return upsertAll(ctx, r.db, models, "currency_code",
		func(m CurrencyRateModel) string { return m.CurrencyCode },
		[]string{"multiplier", "date_recorded"}, r.batchSize)
}

func toJSONMap(m map[string]string) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func fromJSONMap(m datatypes.JSONMap) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

var _ reference.Repository = (*GormReferenceRepository)(nil)
