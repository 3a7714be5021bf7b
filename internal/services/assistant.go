package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"rafiq/pkg/rafiqai"
)

// AssistantMetrics counts how chat turns were answered.
type AssistantMetrics struct {
	QueryCount    int64 `json:"query_count"`
	AICount       int64 `json:"ai_count"`
	FallbackCount int64 `json:"fallback_count"`
}

// AssistantResponse is one answered chat turn.
type AssistantResponse struct {
	Content         string           `json:"content"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Source          string           `json:"source"`
	Confidence      float64          `json:"confidence"`
	Duration        time.Duration    `json:"duration"`
}

// AssistantService answers citizen questions through the AI gateway and
// degrades to the offline knowledge table when the gateway is down,
// disabled, or slow. Handlers never see a gateway error.
type AssistantService struct {
	gateway  rafiqai.Gateway
	resolver *Resolver
	enabled  bool
	timeout  time.Duration

	queryCount    atomic.Int64
	aiCount       atomic.Int64
	fallbackCount atomic.Int64

	logger *logrus.Logger
}

// NewAssistantService wires the gateway and the fallback resolver. A nil
// gateway disables the AI path entirely.
func NewAssistantService(gateway rafiqai.Gateway, resolver *Resolver, timeout time.Duration, logger *logrus.Logger) *AssistantService {
	if logger == nil {
		logger = logrus.New()
	}
	if resolver == nil {
		resolver = NewResolver(DefaultKnowledgeTable())
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &AssistantService{
		gateway:  gateway,
		resolver: resolver,
		enabled:  gateway != nil,
		timeout:  timeout,
		logger:   logger,
	}
}

// GenerateChatResponse answers one turn. conversationKey scopes remote AI
// sessions; history is the prior turns of the conversation, oldest first,
// with the new question as its final user entry.
func (s *AssistantService) GenerateChatResponse(ctx context.Context, conversationKey string, history []rafiqai.Message, language string) *AssistantResponse {
	startTime := time.Now()
	s.queryCount.Add(1)

	question := lastUserContent(history)

	if s.enabled {
		aiCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		answer, err := s.gateway.Chat(aiCtx, conversationKey, history)
		if err == nil && answer != "" {
			s.aiCount.Add(1)
			return &AssistantResponse{
				Content:    answer,
				Source:     SourceAI,
				Confidence: 0.9,
				Duration:   time.Since(startTime),
			}
		}
		if err != nil {
			s.logger.Warnf("AI gateway failed, using offline knowledge: %v", err)
		}
	}

	result := s.resolver.Resolve(question, language)
	s.fallbackCount.Add(1)

	confidence := 0.6
	if result.Source == SourceDefault {
		confidence = 0.3
	}

	return &AssistantResponse{
		Content:         result.Message,
		Recommendations: result.Recommendations,
		Source:          result.Source,
		Confidence:      confidence,
		Duration:        time.Since(startTime),
	}
}

// TestConnection probes the remote gateway.
func (s *AssistantService) TestConnection(ctx context.Context) error {
	if !s.enabled {
		return rafiqai.ErrNotConfigured
	}
	return s.gateway.TestConnection(ctx)
}

// GetMetrics returns a snapshot of the answer counters.
func (s *AssistantService) GetMetrics() *AssistantMetrics {
	return &AssistantMetrics{
		QueryCount:    s.queryCount.Load(),
		AICount:       s.aiCount.Load(),
		FallbackCount: s.fallbackCount.Load(),
	}
}

// GetStatus reports the assistant state for health endpoints.
func (s *AssistantService) GetStatus(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"ai_enabled":      s.enabled,
		"fallback_ready":  len(s.resolver.Entries()) > 0,
		"timeout_seconds": s.timeout.Seconds(),
		"metrics":         s.GetMetrics(),
	}

	if s.enabled {
		err := s.gateway.TestConnection(ctx)
		status["ai_healthy"] = err == nil
		if err != nil {
			status["ai_error"] = err.Error()
		}
		for k, v := range s.gateway.Stats() {
			status[k] = v
		}
	}

	return status
}

func lastUserContent(history []rafiqai.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}
