package handlers

import (
	"encoding/json"
	"net/http"

	"training-job-runner/core/monitoring"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// StatusHandler serves the progress of the running job
type StatusHandler struct {
	monitor *monitoring.JobMonitor
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(monitor *monitoring.JobMonitor) *StatusHandler {
	return &StatusHandler{monitor: monitor}
}

// Health handles GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GetJob handles GET /v1/job
func (h *StatusHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.monitor.GetJobMetrics()); err != nil {
		log.Warn("encode job status failed", zap.Error(err))
	}
}
