package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"rafiq/internal/config"
	"rafiq/internal/middleware"
)

// RouterDeps bundles everything route registration needs. Nil handlers are
// skipped so tests can wire only the slice of the API they exercise.
type RouterDeps struct {
	Config        *config.Config
	Health        *HealthHandler
	PortalConfig  *PortalConfigHandler
	Auth          *AuthHandler
	Assistant     *AssistantHandler
	Conversations *ConversationHandler
	Sync          *SyncHandler
	Knowledge     *KnowledgeHandler
	Services      *ServiceHandler
	Feedback      *FeedbackHandler
	Documents     *DocumentHandler
	Appointments  *AppointmentHandler
	Metrics       *MetricsHandler
	WebSocket     *WebSocketHandler
}

// SetupRouter builds the gin engine with the full route table.
func SetupRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddlewareWithConfig(cfg))
	if cfg != nil {
		r.Use(middleware.RateLimitMiddleware(cfg))
	}
	if cfg != nil && cfg.Monitoring.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Monitoring.Tracing.ServiceName))
	}

	if deps.Health != nil {
		r.GET("/health", deps.Health.Health)
		r.GET("/ready", deps.Health.Ready)
	}

	if cfg != nil && cfg.Monitoring.Enabled && deps.Metrics != nil {
		path := cfg.Monitoring.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, deps.Metrics.GetMetrics)
	}

	public := r.Group("/public")
	if deps.PortalConfig != nil {
		public.GET("/portal/config", deps.PortalConfig.Get)
	}

	v1 := r.Group("/api/v1")

	if deps.Auth != nil {
		auth := v1.Group("/auth")
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/login", deps.Auth.Login)
	}

	api := v1.Group("/")
	api.Use(middleware.AuthMiddleware(cfg))

	if deps.Auth != nil {
		api.GET("/auth/me", deps.Auth.Me)
	}

	if deps.Services != nil {
		api.GET("/services", deps.Services.List)
		api.GET("/services/categories", deps.Services.Categories)
		api.GET("/services/:id", deps.Services.Get)
	}

	if deps.Knowledge != nil {
		api.GET("/knowledge-base", deps.Knowledge.GetKnowledgeBase)
		api.POST("/knowledge-base/search", deps.Knowledge.Search)
	}

	if deps.Assistant != nil {
		api.POST("/assistant/chat", deps.Assistant.Chat)
		api.GET("/assistant/status", deps.Assistant.Status)
	}

	if deps.Conversations != nil {
		api.GET("/conversations", deps.Conversations.List)
		api.POST("/conversations", deps.Conversations.Create)
		api.GET("/conversations/:id", deps.Conversations.Get)
		api.POST("/conversations/:id/messages", deps.Conversations.AppendMessage)
		api.DELETE("/conversations/:id", deps.Conversations.Delete)
	}

	if deps.Sync != nil {
		api.POST("/sync", deps.Sync.Sync)
	}

	if deps.Feedback != nil {
		api.POST("/feedback", deps.Feedback.Create)
	}

	if deps.Documents != nil {
		api.POST("/documents", deps.Documents.Create)
		api.GET("/documents", deps.Documents.List)
		api.GET("/documents/:reference", deps.Documents.Get)
	}

	if deps.Appointments != nil {
		api.POST("/appointments", deps.Appointments.Create)
		api.GET("/appointments", deps.Appointments.List)
		api.PUT("/appointments/:id/confirm", deps.Appointments.Confirm)
		api.PUT("/appointments/:id/cancel", deps.Appointments.Cancel)
	}

	if deps.WebSocket != nil {
		api.GET("/ws", deps.WebSocket.Connect)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin())

	if deps.Services != nil {
		admin.POST("/services", deps.Services.Create)
		admin.PUT("/services/:id", deps.Services.Update)
		admin.DELETE("/services/:id", deps.Services.Delete)
	}

	if deps.Feedback != nil {
		admin.GET("/feedback", deps.Feedback.List)
		admin.GET("/feedback/stats", deps.Feedback.Stats)
	}

	if deps.Documents != nil {
		admin.PUT("/documents/:reference/status", deps.Documents.UpdateStatus)
	}

	if deps.Appointments != nil {
		admin.PUT("/appointments/:id/complete", deps.Appointments.Complete)
	}

	return r
}

func corsMiddlewareWithConfig(cfg *config.Config) gin.HandlerFunc {
	allowedOrigins := "*"
	allowedMethods := "GET, POST, PUT, DELETE, OPTIONS"
	allowedHeaders := "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization"
	if cfg != nil && cfg.Security.CORS.Enabled {
		if len(cfg.Security.CORS.AllowedOrigins) > 0 {
			allowedOrigins = strings.Join(cfg.Security.CORS.AllowedOrigins, ", ")
		}
		if len(cfg.Security.CORS.AllowedMethods) > 0 {
			allowedMethods = strings.Join(cfg.Security.CORS.AllowedMethods, ", ")
		}
		if len(cfg.Security.CORS.AllowedHeaders) > 0 {
			allowedHeaders = strings.Join(cfg.Security.CORS.AllowedHeaders, ", ")
		}
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigins)
		c.Header("Access-Control-Allow-Methods", allowedMethods)
		c.Header("Access-Control-Allow-Headers", allowedHeaders)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
