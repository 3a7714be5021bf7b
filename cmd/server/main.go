package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	"rafiq/internal/config"
	"rafiq/internal/handlers"
	"rafiq/internal/models"
	"rafiq/internal/observability"
	"rafiq/internal/services"
	"rafiq/pkg/rafiqai"
)

func main() {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	cfg := config.Load()

	if err := config.InitLogger(cfg); err != nil {
		logrus.Warnf("init logger: %v", err)
	}
	appLogger := logrus.StandardLogger()

	shutdownOTel, err := observability.SetupTracing(context.Background(), cfg)
	if err != nil {
		appLogger.Warnf("init tracing: %v", err)
	} else {
		defer func() { _ = shutdownOTel(context.Background()) }()
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name, cfg.Database.Port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		appLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if cfg.Monitoring.Tracing.Enabled {
		_ = db.Use(gormtracing.NewPlugin())
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.ServiceStep{},
		&models.ServiceFAQ{},
		&models.Feedback{},
		&models.DocumentRequest{},
		&models.Appointment{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	var gateway rafiqai.Gateway
	if cfg.AI.Enabled {
		gateway = rafiqai.New(&rafiqai.Config{
			BaseURL:          cfg.AI.BaseURL,
			APIKey:           cfg.AI.APIKey,
			Style:            cfg.AI.Style,
			Timeout:          cfg.AI.Timeout,
			DefaultKnowledge: cfg.AI.DefaultKnowledge,
			PayloadMode:      cfg.AI.PayloadMode,
		}, appLogger)
	}

	resolver := services.NewResolver(services.DefaultKnowledgeTable())
	assistant := services.NewAssistantService(gateway, resolver, cfg.AI.Timeout, appLogger)
	conversations := services.NewConversationService(db, appLogger)
	users := services.NewUserService(db, appLogger)
	catalog := services.NewCatalogService(db, appLogger)
	feedback := services.NewFeedbackService(db, appLogger)
	documents := services.NewDocumentService(db, appLogger)
	appointments := services.NewAppointmentService(db, appLogger)
	knowledge := services.NewKnowledgeService(db, resolver, appLogger)
	syncService := services.NewSyncService(db, appLogger)

	hub := services.NewWebSocketHub(assistant, conversations, appLogger)
	go hub.Run()

	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.SetupRouter(handlers.RouterDeps{
		Config:        cfg,
		Health:        handlers.NewHealthHandler(cfg, db, assistant, hub),
		PortalConfig:  handlers.NewPortalConfigHandler(cfg),
		Auth:          handlers.NewAuthHandler(users, cfg, appLogger),
		Assistant:     handlers.NewAssistantHandler(assistant, conversations, appLogger),
		Conversations: handlers.NewConversationHandler(conversations, appLogger),
		Sync:          handlers.NewSyncHandler(syncService, hub, appLogger),
		Knowledge:     handlers.NewKnowledgeHandler(knowledge, appLogger),
		Services:      handlers.NewServiceHandler(catalog, appLogger),
		Feedback:      handlers.NewFeedbackHandler(feedback, appLogger),
		Documents:     handlers.NewDocumentHandler(documents, appLogger),
		Appointments:  handlers.NewAppointmentHandler(appointments, appLogger),
		Metrics:       handlers.NewMetricsHandler(assistant, hub),
		WebSocket:     handlers.NewWebSocketHandler(hub, appLogger),
	})

	listenAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: listenAddr, Handler: router}

	go func() {
		appLogger.Infof("Starting server on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}
	appLogger.Info("Server exited")
}
