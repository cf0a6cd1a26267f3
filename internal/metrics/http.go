package metrics

import (
	"encoding/json"
	"net/http"
)

// Handler отдает /health и /metrics
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", m.healthHandler)
	mux.HandleFunc("/metrics", m.metricsHandler)
	return mux
}

func (m *Metrics) healthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := m.GetStats()

	status := "ok"
	healthy, _ := stats["is_healthy"].(bool)

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (m *Metrics) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.GetStats())
}
