package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vkivaturi/traffis/internal/metrics"
)

// MetricsHandler exposes the in-process collector as JSON.
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(m *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

// GetMetrics handles GET /metrics.
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
