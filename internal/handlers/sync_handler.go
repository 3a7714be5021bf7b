package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/metrics"
	"rafiq/internal/middleware"
	"rafiq/internal/services"
)

// SyncHandler receives offline queue replays.
type SyncHandler struct {
	sync   *services.SyncService
	hub    *services.WebSocketHub
	logger *logrus.Logger
}

// NewSyncHandler creates the sync handler. hub may be nil in tests.
func NewSyncHandler(sync *services.SyncService, hub *services.WebSocketHub, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		hub:    hub,
		logger: logger,
	}
}

type syncRequest struct {
	Payloads []services.SyncPayload `json:"payloads" binding:"required"`
}

// Sync processes one batch. Every payload is handled independently and the
// per-item results let the client drop exactly the entries that landed.
func (h *SyncHandler) Sync(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	result := h.sync.ProcessBatch(c.Request.Context(), userID, req.Payloads)
	metrics.RecordSyncBatch(result.Total, result.Errors)

	if h.hub != nil {
		h.hub.NotifySyncComplete(result)
	}

	c.JSON(http.StatusOK, result)
}
