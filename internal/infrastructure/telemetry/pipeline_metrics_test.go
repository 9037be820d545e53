package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetrics_Counters(t *testing.T) {
	m := NewPipelineMetrics()

	m.ObserveValidation("a", 10, 8, 2)
	m.ObserveValidation("a", 5, 5, 0)
	m.ObserveValidation("b", 4, 4, 1)
	m.ObserveUpsert("canonical_orders", 12)

	assert.Equal(t, 15.0, testutil.ToFloat64(m.recordsRead.WithLabelValues("a")))
	assert.Equal(t, 13.0, testutil.ToFloat64(m.forwarded.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quarantined.WithLabelValues("b")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.upserted.WithLabelValues("canonical_orders")))
}

func TestPipelineMetrics_RunOutcome(t *testing.T) {
	m := NewPipelineMetrics()
	finished := time.Unix(1700000000, 0)

	m.ObserveRun(nil, finished)
	m.ObserveRun(errors.New("boom"), finished.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.lastSuccess))
}

func TestPipelineMetrics_StageAndTiering(t *testing.T) {
	m := NewPipelineMetrics()
	m.ObserveStage(StageSilver, 120*time.Millisecond)
	m.ObserveTiering(3, 4.5)

	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tierCount))
	assert.Equal(t, 4.5, testutil.ToFloat64(m.tierInertia))
}

func TestPipelineMetrics_WriteTextfile(t *testing.T) {
	m := NewPipelineMetrics()
	m.ObserveUpsert("curated_orders", 7)

	path := filepath.Join(t.TempDir(), "salesrecon.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `salesrecon_rows_upserted_total{table="curated_orders"} 7`)
}

func TestPipelineMetrics_Handler(t *testing.T) {
	m := NewPipelineMetrics()
	m.ObserveValidation("b", 3, 3, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `salesrecon_records_read_total{source="b"} 3`))
}
