package rafiqai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Gateway is the single surface both wire dialects hide behind. The dialect
// is selected once at construction; call sites never inspect it.
type Gateway interface {
	// Chat produces an assistant reply for the given conversation turns.
	// The key identifies the conversation for session reuse.
	Chat(ctx context.Context, key string, messages []Message) (string, error)

	// TestConnection verifies the remote endpoint answers at all.
	TestConnection(ctx context.Context) error

	// Stats reports client configuration and session state for health
	// and metrics endpoints.
	Stats() map[string]interface{}
}

// New builds the gateway client matching the configured dialect.
func New(cfg *Config, logger *logrus.Logger) Gateway {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaults.SystemPrompt
	}

	base := newBaseClient(cfg, logger)
	if NormalizeStyle(cfg.Style, cfg.BaseURL) == StyleSession {
		return newSessionClient(base)
	}
	return newLegacyClient(base)
}

// baseClient carries what both dialects share: endpoint, headers, timeout
// and response normalization.
type baseClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	config     *Config
}

func newBaseClient(cfg *Config, logger *logrus.Logger) *baseClient {
	return &baseClient{
		baseURL: sanitizeBaseURL(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
		config: cfg,
	}
}

func sanitizeBaseURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

func (c *baseClient) enabled() bool {
	return c.baseURL != ""
}

func (c *baseClient) newRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Request, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("User-Agent", "Rafiq-AI-Client/1.0")

	return req, nil
}

// do executes the request and returns the raw body. Non-2xx responses are
// errors carrying the status and body text.
func (c *baseClient) do(req *http.Request) ([]byte, string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debugf("Rafiq AI request: %s %s", req.Method, req.URL.String())
	c.logger.Debugf("Rafiq AI response: %d %s", resp.StatusCode, string(body))

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("AI API error [%d]: %s", resp.StatusCode, string(body))
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// extractAnswer normalizes a gateway response body into plain answer text.
// JSON bodies must carry one of response/answer/analysis; anything else is
// treated as raw text. An empty answer is ErrNoAnswer, never "".
func extractAnswer(body []byte, contentType string) (string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", ErrNoAnswer
	}

	if strings.Contains(contentType, "application/json") || strings.HasPrefix(trimmed, "{") {
		var payload answerPayload
		if err := json.Unmarshal(body, &payload); err == nil {
			if text := strings.TrimSpace(payload.text()); text != "" {
				return text, nil
			}
			return "", ErrNoAnswer
		}
	}

	return trimmed, nil
}

// composePrompt flattens the system prompt and the most recent turns into
// the single prompt string both wire dialects expect.
func (c *baseClient) composePrompt(messages []Message) string {
	const historyWindow = 10

	start := 0
	if len(messages) > historyWindow {
		start = len(messages) - historyWindow
	}

	var sb strings.Builder
	sb.WriteString(c.config.SystemPrompt)
	sb.WriteString("\n\nHistorique récent:\n")
	for _, msg := range messages[start:] {
		speaker := "Assistant"
		if msg.Role == "user" {
			speaker = "Utilisateur"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func lastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" && messages[i].Content != "" {
			return messages[i].Content
		}
	}
	return ""
}
