package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rafiq/internal/config"
	"rafiq/internal/middleware"
	"rafiq/internal/models"
	"rafiq/internal/services"
	"rafiq/pkg/rafiqai"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:handlers_" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.ServiceStep{},
		&models.ServiceFAQ{},
		&models.Feedback{},
		&models.DocumentRequest{},
		&models.Appointment{},
		&models.Conversation{},
		&models.Message{},
	))

	return db
}

func handlerTestConfig() *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.JWT.Secret = "handler-test-secret"
	cfg.JWT.ExpiresIn = time.Hour
	cfg.Security.RateLimiting.Enabled = false
	cfg.Monitoring.Enabled = true
	cfg.Monitoring.MetricsPath = "/metrics"
	cfg.Monitoring.Tracing.Enabled = false
	return cfg
}

func handlerTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type routerGateway struct {
	answer string
	err    error
}

func (g *routerGateway) Chat(ctx context.Context, key string, messages []rafiqai.Message) (string, error) {
	return g.answer, g.err
}

func (g *routerGateway) TestConnection(ctx context.Context) error { return g.err }

func (g *routerGateway) Stats() map[string]interface{} {
	return map[string]interface{}{"style": "test"}
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

func newTestEnv(t *testing.T, gateway rafiqai.Gateway) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerTestDB(t)
	cfg := handlerTestConfig()
	logger := handlerTestLogger()

	resolver := services.NewResolver(services.DefaultKnowledgeTable())
	assistant := services.NewAssistantService(gateway, resolver, time.Second, logger)
	conversations := services.NewConversationService(db, logger)
	users := services.NewUserService(db, logger)
	catalog := services.NewCatalogService(db, logger)
	feedback := services.NewFeedbackService(db, logger)
	documents := services.NewDocumentService(db, logger)
	appointments := services.NewAppointmentService(db, logger)
	knowledge := services.NewKnowledgeService(db, resolver, logger)
	syncService := services.NewSyncService(db, logger)

	router := SetupRouter(RouterDeps{
		Config:        cfg,
		Health:        NewHealthHandler(cfg, db, assistant, nil),
		PortalConfig:  NewPortalConfigHandler(cfg),
		Auth:          NewAuthHandler(users, cfg, logger),
		Assistant:     NewAssistantHandler(assistant, conversations, logger),
		Conversations: NewConversationHandler(conversations, logger),
		Sync:          NewSyncHandler(syncService, nil, logger),
		Knowledge:     NewKnowledgeHandler(knowledge, logger),
		Services:      NewServiceHandler(catalog, logger),
		Feedback:      NewFeedbackHandler(feedback, logger),
		Documents:     NewDocumentHandler(documents, logger),
		Appointments:  NewAppointmentHandler(appointments, logger),
		Metrics:       NewMetricsHandler(assistant, nil),
	})

	return &testEnv{router: router, db: db, cfg: cfg}
}

// tokenFor signs a JWT the way the login endpoint does.
func (e *testEnv) tokenFor(t *testing.T, userID uint, role, language string) string {
	t.Helper()
	token, err := middleware.SignHS256JWT(e.cfg.JWT.Secret, map[string]interface{}{
		"user_id":  userID,
		"role":     role,
		"language": language,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestRouter_HealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	decodeJSON(t, w, &health)
	require.Contains(t, []string{"healthy", "degraded"}, health.Status)
	require.Contains(t, health.Services, "database")

	w = env.do(t, "GET", "/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_PortalConfigIsPublic(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "GET", "/public/portal/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PortalConfigResponse
	decodeJSON(t, w, &resp)
	require.Equal(t, "Rafiq", resp.BrandName)
	require.Equal(t, "fr", resp.DefaultLocale)
	require.Equal(t, []string{"fr", "ar"}, resp.Locales)
}

func TestRouter_ProtectedRoutesRejectAnonymous(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{
		"/api/v1/services",
		"/api/v1/conversations",
		"/api/v1/documents",
		"/api/v1/appointments",
	} {
		w := env.do(t, "GET", path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := env.do(t, "POST", "/api/v1/sync", "", map[string]interface{}{"payloads": []interface{}{}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AdminRoutesRejectCitizens(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.tokenFor(t, 1, "citizen", "fr")

	w := env.do(t, "POST", "/api/v1/admin/services", token, map[string]interface{}{
		"id":       "svc_test",
		"title_fr": "Test",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, "GET", "/api/v1/admin/feedback", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot map[string]interface{}
	decodeJSON(t, w, &snapshot)
	require.Contains(t, snapshot, "rate_limit")
	require.Contains(t, snapshot, "assistant")
	require.Contains(t, snapshot, "sync")
}

func TestRouter_NilConfigServesHealth(t *testing.T) {
	db := newHandlerTestDB(t)

	router := SetupRouter(RouterDeps{
		Health: NewHealthHandler(nil, db, nil, nil),
	})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest("OPTIONS", "/api/v1/services", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
