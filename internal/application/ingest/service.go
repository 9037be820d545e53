// Package ingest loads the bronze extracts and the translation reference
// files into the store.
package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/salesrecon/backend/internal/application/scope"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/salesrecon/backend/internal/infrastructure/ingest"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/salesrecon/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// BronzeKeys are the blob keys of the bronze extracts. An empty key skips
// that extract.
type BronzeKeys struct {
	SourceA         string
	SourceB         string
	CityDistrictMap string
}

// ReferenceKeys are the blob keys of the translation files
type ReferenceKeys struct {
	CityFile     string
	DistrictFile string
}

// BronzeResult counts rows upserted per bronze table
type BronzeResult struct {
	SourceA      int `json:"source_a"`
	SourceB      int `json:"source_b"`
	CityDistrict int `json:"city_district_map"`
	FieldErrors  int `json:"field_errors"`
}

// ReferenceResult counts translation rows upserted
type ReferenceResult struct {
	Cities    int `json:"cities"`
	Districts int `json:"districts"`
}

// Service loads bronze and reference data from a blob store
type Service struct {
	txScope scope.TransactionScope
	blobs   storage.BlobStore
}

// NewService creates a new loader service
func NewService(txScope scope.TransactionScope, blobs storage.BlobStore) *Service {
	return &Service{txScope: txScope, blobs: blobs}
}

// LoadBronze parses every configured extract, then upserts them together in
// one transaction. Unparseable cells are loaded as missing values.
func (s *Service) LoadBronze(ctx context.Context, keys BronzeKeys) (*BronzeResult, error) {
	var (
		rowsA    []order.RawOrderA
		rowsB    []order.RawOrderB
		mapping  []reference.CityDistrict
		fieldErr int
	)

	if keys.SourceA != "" {
		data, err := s.get(ctx, keys.SourceA)
		if err != nil {
			return nil, err
		}
		var errs *ingest.ErrorCollection
		rowsA, errs, err = ingest.ParseSourceA(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys.SourceA, err)
		}
		fieldErr += reportFieldErrors(ctx, keys.SourceA, errs)
	}
	if keys.CityDistrictMap != "" {
		data, err := s.get(ctx, keys.CityDistrictMap)
		if err != nil {
			return nil, err
		}
		var errs *ingest.ErrorCollection
		mapping, errs, err = ingest.ParseCityDistrictMap(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys.CityDistrictMap, err)
		}
		fieldErr += reportFieldErrors(ctx, keys.CityDistrictMap, errs)
	}
	if keys.SourceB != "" {
		data, err := s.get(ctx, keys.SourceB)
		if err != nil {
			return nil, err
		}
		var errs *ingest.ErrorCollection
		rowsB, errs, err = ingest.ParseSourceB(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys.SourceB, err)
		}
		fieldErr += reportFieldErrors(ctx, keys.SourceB, errs)
	}

	res := &BronzeResult{FieldErrors: fieldErr}
	err := s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		if res.CityDistrict, err = repos.Reference().UpsertCityDistricts(ctx, mapping); err != nil {
			return fmt.Errorf("upsert city/district map: %w", err)
		}
		if res.SourceA, err = repos.RawOrders().UpsertA(ctx, rowsA); err != nil {
			return fmt.Errorf("upsert source A: %w", err)
		}
		if res.SourceB, err = repos.RawOrders().UpsertB(ctx, rowsB); err != nil {
			return fmt.Errorf("upsert source B: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Bronze load completed",
		zap.Int("source_a", res.SourceA),
		zap.Int("source_b", res.SourceB),
		zap.Int("city_district_map", res.CityDistrict),
		zap.Int("field_errors", res.FieldErrors),
	)
	return res, nil
}

// LoadReference reads both translation files and upserts them in one
// transaction. A missing or malformed file fails the load.
func (s *Service) LoadReference(ctx context.Context, keys ReferenceKeys) (*ReferenceResult, error) {
	cityData, err := s.get(ctx, keys.CityFile)
	if err != nil {
		return nil, err
	}
	districtData, err := s.get(ctx, keys.DistrictFile)
	if err != nil {
		return nil, err
	}

	cities, err := ingest.ParseCityTranslations(bytes.NewReader(cityData))
	if err != nil {
		return nil, err
	}
	districts, err := ingest.ParseDistrictTranslations(bytes.NewReader(districtData))
	if err != nil {
		return nil, err
	}

	res := &ReferenceResult{}
	err = s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		if res.Cities, err = repos.Reference().UpsertCityTranslations(ctx, cities); err != nil {
			return fmt.Errorf("upsert city translations: %w", err)
		}
		if res.Districts, err = repos.Reference().UpsertDistrictTranslations(ctx, districts); err != nil {
			return fmt.Errorf("upsert district translations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Reference load completed",
		zap.Int("cities", res.Cities),
		zap.Int("districts", res.Districts),
	)
	return res, nil
}

func (s *Service) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func reportFieldErrors(ctx context.Context, key string, errs *ingest.ErrorCollection) int {
	if errs == nil || !errs.HasErrors() {
		return 0
	}
	log := logger.L(ctx)
	for _, e := range errs.Errors() {
		log.Debug("Unparseable cell loaded as missing",
			zap.String("file", key),
			zap.Int("line", e.Line),
			zap.String("column", e.Column),
			zap.String("value", e.Value),
		)
	}
	log.Warn("Extract contained unparseable cells",
		zap.String("file", key),
		zap.Int("count", errs.TotalCount()),
		zap.Any("by_column", errs.ByColumn()),
	)
	return errs.TotalCount()
}
