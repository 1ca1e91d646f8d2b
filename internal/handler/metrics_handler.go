package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timeslots-api/internal/service"
	"github.com/noah-isme/timeslots-api/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	stores  *service.SlotStoreService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, stores *service.SlotStoreService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, stores: stores}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary godoc
// @Summary Service counters
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/metrics [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness together with the number of live stores.
func (h *MetricsHandler) Ready(c *gin.Context) {
	stores := 0
	if h.stores != nil {
		stores = h.stores.Count()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "slotStores": stores})
}
