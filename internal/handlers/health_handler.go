package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rafiq/internal/config"
	"rafiq/internal/services"
)

// HealthHandler reports liveness and the state of the portal's backends.
type HealthHandler struct {
	config    *config.Config
	db        *gorm.DB
	assistant *services.AssistantService
	hub       *services.WebSocketHub
}

// NewHealthHandler creates the health handler. db, assistant and hub may
// each be nil; missing backends are simply not reported.
func NewHealthHandler(cfg *config.Config, db *gorm.DB, assistant *services.AssistantService, hub *services.WebSocketHub) *HealthHandler {
	return &HealthHandler{
		config:    cfg,
		db:        db,
		assistant: assistant,
		hub:       hub,
	}
}

// ServiceInfo describes one checked backend.
type ServiceInfo struct {
	Status  string      `json:"status"`
	Latency string      `json:"latency,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse is the full health report.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]ServiceInfo `json:"services"`
	System    SystemInfo             `json:"system"`
}

// SystemInfo carries process level details.
type SystemInfo struct {
	Uptime    string `json:"uptime"`
	GoVersion string `json:"go_version"`
}

var startTime = time.Now()

// Health reports the portal's backend state. A degraded AI gateway still
// returns 200 because the fallback resolver keeps the portal answering.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Services:  make(map[string]ServiceInfo),
		System: SystemInfo{
			Uptime:    time.Since(startTime).String(),
			GoVersion: runtime.Version(),
		},
	}

	degraded := false

	if h.db != nil {
		start := time.Now()
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		info := ServiceInfo{Status: "healthy", Latency: time.Since(start).String()}
		if err != nil {
			info.Status = "unhealthy"
			info.Error = err.Error()
			response.Status = "unhealthy"
		}
		response.Services["database"] = info
	}

	if h.assistant != nil {
		start := time.Now()
		status := h.assistant.GetStatus(ctx)
		info := ServiceInfo{Status: "healthy", Latency: time.Since(start).String(), Details: status}
		if healthy, ok := status["ai_healthy"].(bool); ok && !healthy {
			info.Status = "degraded"
			degraded = true
		}
		response.Services["assistant"] = info
	}

	if h.hub != nil {
		response.Services["websocket"] = ServiceInfo{
			Status:  "healthy",
			Details: map[string]interface{}{"connected_clients": h.hub.GetClientCount()},
		}
	}

	if degraded && response.Status == "healthy" {
		response.Status = "degraded"
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// Ready only checks what must be up before taking traffic.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	ready := true
	checks := make(map[string]string)

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			checks["database"] = "not_ready"
			ready = false
		} else {
			checks["database"] = "ready"
		}
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"ready":     ready,
		"timestamp": time.Now(),
		"services":  checks,
	})
}
