// Package enrichment builds the gold table from canonical orders and the
// reference tables.
package enrichment

import (
	"context"
	"fmt"

	"github.com/salesrecon/backend/internal/application/scope"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Enrich joins each canonical row with its city and district translation
// and converts its amount with the currency multiplier. Any join miss leaves
// the affected output columns null.
func Enrich(rows []order.CanonicalOrder, lookups *reference.Lookups) []order.CuratedOrder {
	out := make([]order.CuratedOrder, len(rows))
	for i, c := range rows {
		g := order.CuratedOrder{
			OrderID:          c.OrderID,
			OrderTime:        c.OrderTime,
			ShipCityCode:     c.ShipCityCode,
			ShipDistrictName: c.ShipDistrictName,
			Quantity:         c.Quantity,
		}
		if city, ok := lookups.City(c.ShipCityCode); ok {
			g.ShipCityCodeEnglish = city.ShipCityCodeEnglish
		}
		if district, ok := lookups.District(c.ShipDistrictName); ok {
			g.ShipDistrictNameEnglish = district.ShipDistrictNameEnglish
		}
		g.SettlementAmount = settle(c.Amount, lookups, c.CurrencyCode)
		out[i] = g
	}
	return out
}

func settle(amount decimal.NullDecimal, lookups *reference.Lookups, currency *string) decimal.NullDecimal {
	if !amount.Valid {
		return decimal.NullDecimal{}
	}
	m, ok := lookups.Multiplier(currency)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(amount.Decimal.Mul(m))
}

// Result summarizes one gold run
type Result struct {
	Read        int `json:"read"`
	Upserted    int `json:"upserted"`
	MissingCity int `json:"missing_city_translation"`
	MissingRate int `json:"missing_settlement"`
}

// Service runs the gold stage
type Service struct {
	txScope scope.TransactionScope
}

// NewService creates a new gold stage service
func NewService(txScope scope.TransactionScope) *Service {
	return &Service{txScope: txScope}
}

// LoadLookups reads the translation and currency tables into memory
func LoadLookups(ctx context.Context, repo reference.Repository) (*reference.Lookups, error) {
	cities, err := repo.FindCityTranslations(ctx)
	if err != nil {
		return nil, fmt.Errorf("read city translations: %w", err)
	}
	districts, err := repo.FindDistrictTranslations(ctx)
	if err != nil {
		return nil, fmt.Errorf("read district translations: %w", err)
	}
	rates, err := repo.FindCurrencyRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("read currency rates: %w", err)
	}
	return reference.NewLookups(cities, districts, rates), nil
}

// Run enriches the full silver snapshot and upserts it into the gold table
func (s *Service) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	err := s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		lookups, err := LoadLookups(ctx, repos.Reference())
		if err != nil {
			return err
		}
		canonical, err := repos.Canonical().FindAll(ctx)
		if err != nil {
			return fmt.Errorf("read canonical orders: %w", err)
		}
		res.Read = len(canonical)

		curated := Enrich(canonical, lookups)
		for _, g := range curated {
			if g.ShipCityCodeEnglish == nil {
				res.MissingCity++
			}
			if !g.SettlementAmount.Valid {
				res.MissingRate++
			}
		}

		n, err := repos.Curated().UpsertAll(ctx, curated)
		if err != nil {
			return fmt.Errorf("upsert curated orders: %w", err)
		}
		res.Upserted = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Gold stage completed",
		zap.Int("read", res.Read),
		zap.Int("upserted", res.Upserted),
		zap.Int("missing_city_translation", res.MissingCity),
		zap.Int("missing_settlement", res.MissingRate),
	)
	return res, nil
}
