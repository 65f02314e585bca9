package routes

import (
	"training-job-runner/api/rest/handlers"
	"training-job-runner/core/monitoring"

	"github.com/gorilla/mux"
)

// SetupRoutes configures the status routes
func SetupRoutes(r *mux.Router, monitor *monitoring.JobMonitor) {
	statusHandler := handlers.NewStatusHandler(monitor)

	r.HandleFunc("/health", statusHandler.Health).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/job", statusHandler.GetJob).Methods("GET")
}
