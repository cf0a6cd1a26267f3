package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.IncrementNewsPosted()
	m.IncrementNewsPosted()
	m.IncrementDuplicatesFiltered()
	m.RecordCycleTime(2 * time.Second)
	m.RecordCycleTime(4 * time.Second)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["news_posted"])
	assert.Equal(t, int64(1), stats["duplicates_filtered"])
	assert.Equal(t, int64(4000), stats["last_cycle_time_ms"])
	assert.Equal(t, int64(3000), stats["average_cycle_time_ms"])
	assert.Equal(t, "", stats["last_run_time"])
}

func TestMetrics_Health(t *testing.T) {
	m := New()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	m.SetError(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), "all feeds failed")

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "all feeds failed", body["last_error"])

	m.SetLastRun(time.Date(2026, 10, 16, 9, 5, 0, 0, time.UTC))
	resp2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()

	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&stats))
	assert.Equal(t, true, stats["is_healthy"])
	assert.Equal(t, "2026-10-16T09:05:00Z", stats["last_run_time"])
}
