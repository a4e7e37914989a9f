package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowsight-systems/flowsight-stack/common/middleware"
	"github.com/flowsight-systems/flowsight-stack/push/internal/handlers"
)

// NewRouter constructs a ServeMux with the push API routes registered.
func NewRouter(push *handlers.PushHandler, devices *handlers.DeviceHandler, cors middleware.CORSConfig) http.Handler {
	mux := http.NewServeMux()

	// Ingestion endpoints
	mux.HandleFunc("/api/v1/push", push.HandlePush)
	mux.HandleFunc("/api/v1/push/raw", push.HandlePushRaw)

	// Read-back
	mux.HandleFunc("/api/v1/records", push.HandleRecords)
	mux.HandleFunc("/api/v1/readings/latest", devices.HandleLatestReadings)

	// Device registry
	mux.HandleFunc("/api/v1/devices", devices.HandleDevices)
	mux.HandleFunc("/api/v1/devices/", devices.HandleDevice)

	// Health endpoints
	mux.HandleFunc("/health", push.Health)
	mux.HandleFunc("/ready", push.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(middleware.CORS(cors)(mux))
}
