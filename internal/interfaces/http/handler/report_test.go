package handler

import (
	"context"
	"net/http"
	"testing"

	appreport "github.com/salesrecon/backend/internal/application/report"
	"github.com/salesrecon/backend/internal/domain/report"
	"github.com/salesrecon/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReports struct {
	lastN int
	rows  []appreport.CityHourResponse
}

func (f *fakeReports) TopCityPerHour(context.Context) ([]appreport.CityHourResponse, error) {
	return f.rows, nil
}

func (f *fakeReports) TopCityHours(_ context.Context, n int) ([]appreport.CityHourResponse, error) {
	f.lastN = n
	return f.rows, nil
}

func (f *fakeReports) TierSummaries(context.Context) ([]report.TierSummary, error) {
	return []report.TierSummary{{ClusterID: 0, Cities: 2, SettlementTotal: decimal.NewFromInt(40)}}, nil
}

func TestReportHandler_TopCityPerHour(t *testing.T) {
	reports := &fakeReports{rows: []appreport.CityHourResponse{
		{Hour: 9, ShipCityCode: "上海", ShipCityCodeEnglish: testutil.Ptr("Shanghai"), Total: decimal.NewFromInt(120)},
	}}
	h := NewReportHandler(reports)
	c, w := newTestContext(http.MethodGet, "/reports/top-city-per-hour")

	h.TopCityPerHour(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []appreport.CityHourResponse `json:"data"`
	}
	testutil.DecodeJSON(t, w, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 9, resp.Data[0].Hour)
	assert.True(t, resp.Data[0].Total.Equal(decimal.NewFromInt(120)))
}

func TestReportHandler_TopCityHours(t *testing.T) {
	reports := &fakeReports{}
	h := NewReportHandler(reports)

	c, w := newTestContext(http.MethodGet, "/reports/top-city-hours?n=3")
	h.TopCityHours(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, reports.lastN)

	c, w = newTestContext(http.MethodGet, "/reports/top-city-hours")
	h.TopCityHours(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, reports.lastN)

	c, w = newTestContext(http.MethodGet, "/reports/top-city-hours?n=0")
	h.TopCityHours(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/reports/top-city-hours?n=5000")
	h.TopCityHours(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_TierSummaries(t *testing.T) {
	h := NewReportHandler(&fakeReports{})
	c, w := newTestContext(http.MethodGet, "/reports/tiers")

	h.TierSummaries(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []report.TierSummary `json:"data"`
	}
	testutil.DecodeJSON(t, w, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Data[0].Cities)
}
