// Package tiering groups curated orders by city and clusters the cities into
// value tiers.
package tiering

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/salesrecon/backend/internal/application/scope"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/salesrecon/backend/internal/domain/shared"
	"github.com/salesrecon/backend/internal/domain/tiering"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/salesrecon/backend/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options configures clustering and the optional CSV export
type Options struct {
	K         int
	NInit     int
	MaxIter   int
	Seed      *uint64
	ElbowMaxK int
	// ExportKey is the blob key of the assignment CSV; empty disables it
	ExportKey string
}

// Result summarizes one tiering run
type Result struct {
	Cities     int     `json:"cities"`
	K          int     `json:"k"`
	Inertia    float64 `json:"inertia"`
	Iterations int     `json:"iterations"`
	ExportedTo string  `json:"exported_to,omitempty"`
}

// Service runs the tiering stage
type Service struct {
	txScope scope.TransactionScope
	blobs   storage.BlobStore
	opts    Options
}

// NewService creates a new tiering service. blobs may be nil when no export
// is configured.
func NewService(txScope scope.TransactionScope, blobs storage.BlobStore, opts Options) *Service {
	if opts.K < 1 {
		opts.K = 3
	}
	if opts.ElbowMaxK < 1 {
		opts.ElbowMaxK = 9
	}
	return &Service{txScope: txScope, blobs: blobs, opts: opts}
}

// Aggregate sums settlement per non-null city code, ignoring null amounts,
// and attaches the city's translation. Cities are ordered by code.
func Aggregate(curated []order.CuratedOrder, cities []reference.CityTranslation) []tiering.CityAggregate {
	totals := make(map[string]decimal.Decimal)
	for _, g := range curated {
		if g.ShipCityCode == nil {
			continue
		}
		total := totals[*g.ShipCityCode]
		if g.SettlementAmount.Valid {
			total = total.Add(g.SettlementAmount.Decimal)
		}
		totals[*g.ShipCityCode] = total
	}

	byCode := make(map[string]reference.CityTranslation, len(cities))
	for _, c := range cities {
		byCode[c.ShipCityCode] = c
	}

	out := make([]tiering.CityAggregate, 0, len(totals))
	for code, total := range totals {
		agg := tiering.CityAggregate{ShipCityCode: code, SettlementTotal: total}
		if c, ok := byCode[code]; ok {
			agg.ShipCityCodeEnglish = c.ShipCityCodeEnglish
			agg.Province = c.Province
			agg.PerCapitaUSD = c.PerCapitaUSD
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShipCityCode < out[j].ShipCityCode })
	return out
}

func normalized(aggs []tiering.CityAggregate) []float64 {
	values := make([]float64, len(aggs))
	for i, a := range aggs {
		values[i] = a.SettlementTotal.InexactFloat64()
	}
	return tiering.Standardize(values)
}

func (s *Service) loadAggregates(ctx context.Context, repos scope.Repositories) ([]tiering.CityAggregate, error) {
	curated, err := repos.Curated().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read curated orders: %w", err)
	}
	cities, err := repos.Reference().FindCityTranslations(ctx)
	if err != nil {
		return nil, fmt.Errorf("read city translations: %w", err)
	}
	return Aggregate(curated, cities), nil
}

// Run clusters the current gold snapshot and rebuilds the assignment table
func (s *Service) Run(ctx context.Context) (*Result, error) {
	log := logger.L(ctx)
	res := &Result{}
	var assignments []tiering.ClusterAssignment

	err := s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		aggs, err := s.loadAggregates(ctx, repos)
		if err != nil {
			return err
		}
		res.Cities = len(aggs)
		if len(aggs) == 0 {
			log.Warn("No cities to cluster, clearing assignments")
			return repos.Clusters().ReplaceAll(ctx, nil)
		}

		values := normalized(aggs)
		k := s.opts.K
		if distinct := tiering.Distinct(values); k > distinct {
			log.Warn("Fewer distinct city totals than requested tiers, clipping k",
				zap.Int("requested_k", k),
				zap.Int("cities", len(aggs)),
				zap.Int("distinct_totals", distinct),
			)
			k = distinct
		}
		res.K = k

		fit, err := tiering.Fit(values, tiering.Options{
			K:       k,
			NInit:   s.opts.NInit,
			MaxIter: s.opts.MaxIter,
			Seed:    s.opts.Seed,
		})
		if err != nil {
			return fmt.Errorf("cluster cities: %w", err)
		}
		res.Inertia, res.Iterations = fit.Inertia, fit.Iterations

		assignments = make([]tiering.ClusterAssignment, len(aggs))
		for i, a := range aggs {
			assignments[i] = tiering.ClusterAssignment{
				ShipCityCode:        a.ShipCityCode,
				SettlementTotal:     a.SettlementTotal,
				ShipCityCodeEnglish: a.ShipCityCodeEnglish,
				Province:            a.Province,
				PerCapitaUSD:        a.PerCapitaUSD,
				NormalizedValue:     values[i],
				ClusterID:           fit.Labels[i],
			}
		}
		if err := repos.Clusters().ReplaceAll(ctx, assignments); err != nil {
			return fmt.Errorf("write cluster assignments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.blobs != nil && s.opts.ExportKey != "" && len(assignments) > 0 {
		data, err := ExportCSV(assignments)
		if err != nil {
			return nil, err
		}
		if err := s.blobs.Put(ctx, s.opts.ExportKey, data, "text/csv"); err != nil {
			return nil, fmt.Errorf("export cluster assignments: %w", err)
		}
		res.ExportedTo = s.opts.ExportKey
	}

	log.Info("Tiering stage completed",
		zap.Int("cities", res.Cities),
		zap.Int("k", res.K),
		zap.Float64("inertia", res.Inertia),
		zap.String("exported_to", res.ExportedTo),
	)
	return res, nil
}

// Elbow returns the inertia curve for k = 1..ElbowMaxK over the current
// gold snapshot, clipped to the number of cities.
func (s *Service) Elbow(ctx context.Context) ([]tiering.ElbowPoint, error) {
	aggs, err := s.loadAggregates(ctx, s.txScope)
	if err != nil {
		return nil, err
	}
	if len(aggs) == 0 {
		return nil, shared.ErrNoCities
	}
	return tiering.Elbow(normalized(aggs), s.opts.ElbowMaxK, tiering.Options{
		NInit:   s.opts.NInit,
		MaxIter: s.opts.MaxIter,
		Seed:    s.opts.Seed,
	})
}

// Assignments returns the persisted cluster assignments
func (s *Service) Assignments(ctx context.Context) ([]tiering.ClusterAssignment, error) {
	return s.txScope.Clusters().FindAll(ctx)
}

var csvHeader = []string{
	"ship_city_code", "settlement_total", "ship_city_code_english",
	"province", "per_capita_usd", "normalized_value", "cluster_id",
}

// ExportCSV renders assignments with a header row; null columns are empty
func ExportCSV(assignments []tiering.ClusterAssignment) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, a := range assignments {
		record := []string{
			a.ShipCityCode,
			a.SettlementTotal.String(),
			deref(a.ShipCityCodeEnglish),
			deref(a.Province),
			deref(a.PerCapitaUSD),
			strconv.FormatFloat(a.NormalizedValue, 'f', -1, 64),
			strconv.Itoa(a.ClusterID),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write cluster csv: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
