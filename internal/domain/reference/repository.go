package reference

import "context"

// Repository reads and writes the reference tables
type Repository interface {
	FindCityDistricts(ctx context.Context) ([]CityDistrict, error)
	UpsertCityDistricts(ctx context.Context, rows []CityDistrict) (int, error)
	FindCityTranslations(ctx context.Context) ([]CityTranslation, error)
	UpsertCityTranslations(ctx context.Context, rows []CityTranslation) (int, error)
	FindDistrictTranslations(ctx context.Context) ([]DistrictTranslation, error)
	UpsertDistrictTranslations(ctx context.Context, rows []DistrictTranslation) (int, error)
	FindCurrencyRates(ctx context.Context) ([]CurrencyRate, error)
	UpsertCurrencyRates(ctx context.Context, rows []CurrencyRate) (int, error)
}
