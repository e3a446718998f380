package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncCacheLookup("team", "Throughput", CacheHit)
	pr.IncCacheLookup("team", "Throughput", CacheHit)
	pr.IncCacheLookup("team", "Throughput", CacheMiss)
	pr.AddInvalidations("project", 4)
	pr.ObserveComputeDuration("team", "Throughput", 150*time.Millisecond)
	pr.IncComputeError("team", "CycleTimePBC")
	pr.AddImportedItems("team", 12)

	assert.InDelta(t, 3, counterTotal(t, reg, "flowpulse_cache_lookups_total"), 0)
	assert.InDelta(t, 4, counterTotal(t, reg, "flowpulse_cache_invalidated_entries_total"), 0)
	assert.InDelta(t, 1, counterTotal(t, reg, "flowpulse_compute_errors_total"), 0)
	assert.InDelta(t, 12, counterTotal(t, reg, "flowpulse_imported_work_items_total"), 0)
}

// counterTotal sums every series of the named counter family.
func counterTotal(t *testing.T, reg *prom.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric family %s not found", name)
	return 0
}

func TestNewHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncCacheLookup("portfolio", "WIP", CacheMiss)

	srv := httptest.NewServer(NewHTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "flowpulse_cache_lookups_total"))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
