package report

import (
	"context"
	"sort"

	"github.com/salesrecon/backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

// DefaultTopN is the number of city-hours returned when none is requested
const DefaultTopN = 10

// ReportService answers the reporting queries over the gold and tier tables
type ReportService struct {
	repo report.Repository
}

// NewReportService creates a new ReportService
func NewReportService(repo report.Repository) *ReportService {
	return &ReportService{repo: repo}
}

// CityHourResponse is one ranked (hour, city) settlement total
type CityHourResponse struct {
	Hour                int             `json:"hour"`
	ShipCityCode        string          `json:"ship_city_code"`
	ShipCityCodeEnglish *string         `json:"ship_city_code_english,omitempty"`
	Total               decimal.Decimal `json:"total"`
}

func toResponse(t report.CityHourTotal) CityHourResponse {
	return CityHourResponse{
		Hour:                t.Hour,
		ShipCityCode:        t.ShipCityCode,
		ShipCityCodeEnglish: t.ShipCityCodeEnglish,
		Total:               t.Total,
	}
}

// higher orders by total descending, then city code for stable ties
func higher(a, b report.CityHourTotal) bool {
	if c := a.Total.Cmp(b.Total); c != 0 {
		return c > 0
	}
	return a.ShipCityCode < b.ShipCityCode
}

// TopCityPerHour returns the highest-settling city of every order hour,
// ordered by hour.
func (s *ReportService) TopCityPerHour(ctx context.Context) ([]CityHourResponse, error) {
	totals, err := s.repo.CityHourTotals(ctx)
	if err != nil {
		return nil, err
	}

	best := make(map[int]report.CityHourTotal)
	for _, t := range totals {
		if cur, ok := best[t.Hour]; !ok || higher(t, cur) {
			best[t.Hour] = t
		}
	}

	out := make([]CityHourResponse, 0, len(best))
	for _, t := range best {
		out = append(out, toResponse(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}

// TopCityHours returns the n (hour, city) pairs with the highest settlement
func (s *ReportService) TopCityHours(ctx context.Context, n int) ([]CityHourResponse, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	totals, err := s.repo.CityHourTotals(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total.Equal(totals[j].Total) && totals[i].ShipCityCode == totals[j].ShipCityCode {
			return totals[i].Hour < totals[j].Hour
		}
		return higher(totals[i], totals[j])
	})
	if len(totals) > n {
		totals = totals[:n]
	}

	out := make([]CityHourResponse, len(totals))
	for i, t := range totals {
		out[i] = toResponse(t)
	}
	return out, nil
}

// TierSummaries returns per-tier city counts and settlement totals
func (s *ReportService) TierSummaries(ctx context.Context) ([]report.TierSummary, error) {
	return s.repo.TierSummaries(ctx)
}
