package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	ws "bikeshare/internal/websocket"
)

// HubStatsSource reports WebSocket hub counters
type HubStatsSource interface {
	Stats() ws.HubStats
}

// MetricsHandler serves the Prometheus scrape endpoint and JSON counters
type MetricsHandler struct {
	prometheus http.Handler
	hub        HubStatsSource
}

// NewMetricsHandler creates a metrics handler. Either argument may be nil.
func NewMetricsHandler(prometheus http.Handler, hub HubStatsSource) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, hub: hub}
}

// Routes returns the JSON metrics routes, mounted under /api/metrics
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/websocket", h.GetWebSocketStats)
	return r
}

// Prometheus handles GET /metrics
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetWebSocketStats handles GET /api/metrics/websocket
func (h *MetricsHandler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	var stats ws.HubStats
	if h.hub != nil {
		stats = h.hub.Stats()
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}
