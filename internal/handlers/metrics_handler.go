package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rafiq/internal/metrics"
	"rafiq/internal/services"
)

// MetricsHandler exposes the in-process counters as a JSON snapshot.
type MetricsHandler struct {
	assistant *services.AssistantService
	hub       *services.WebSocketHub
}

func NewMetricsHandler(assistant *services.AssistantService, hub *services.WebSocketHub) *MetricsHandler {
	return &MetricsHandler{assistant: assistant, hub: hub}
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	dropTotal, dropByPath := metrics.RateLimitSnapshot()
	aiAnswers, fallbackAnswers := metrics.AssistantSnapshot()
	syncBatches, syncItems, syncErrors := metrics.SyncSnapshot()

	out := gin.H{
		"timestamp": time.Now(),
		"rate_limit": gin.H{
			"dropped_total":   dropTotal,
			"dropped_by_path": dropByPath,
		},
		"assistant": gin.H{
			"answers_ai":       aiAnswers,
			"answers_fallback": fallbackAnswers,
		},
		"sync": gin.H{
			"batches": syncBatches,
			"items":   syncItems,
			"errors":  syncErrors,
		},
	}

	if h.assistant != nil {
		out["assistant_counters"] = h.assistant.GetMetrics()
	}
	if h.hub != nil {
		out["websocket"] = gin.H{"connected_clients": h.hub.GetClientCount()}
	}

	c.JSON(http.StatusOK, out)
}
