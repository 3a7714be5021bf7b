package rafiqai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
)

// LegacyClient speaks the stateless dialect: every turn is one POST to
// {base}/analyze carrying the whole composed prompt.
type LegacyClient struct {
	*baseClient
	payloadMode string
}

func newLegacyClient(base *baseClient) *LegacyClient {
	return &LegacyClient{
		baseClient:  base,
		payloadMode: normalizePayloadMode(base.config.PayloadMode),
	}
}

func (c *LegacyClient) Chat(ctx context.Context, key string, messages []Message) (string, error) {
	if !c.enabled() {
		return "", ErrNotConfigured
	}
	return c.analyze(ctx, c.composePrompt(messages))
}

func (c *LegacyClient) analyze(ctx context.Context, text string) (string, error) {
	switch c.payloadMode {
	case PayloadJSON:
		return c.analyzeJSON(ctx, text)
	case PayloadFile:
		return c.analyzeMultipart(ctx, text)
	}

	// auto (and the historical "text" mode): upload first, retry as JSON
	// when the endpoint rejects the multipart form.
	answer, err := c.analyzeMultipart(ctx, text)
	if err != nil && shouldRetryAsJSON(err) {
		c.logger.Warnf("Legacy analyze falling back to JSON payload: %v", err)
		return c.analyzeJSON(ctx, text)
	}
	return answer, err
}

func shouldRetryAsJSON(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "parse") || strings.Contains(msg, "parsing") || strings.Contains(msg, "400")
}

func (c *LegacyClient) analyzeJSON(ctx context.Context, text string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/analyze", &analyzeRequest{
		Text:    text,
		Prompt:  text,
		Message: text,
	})
	if err != nil {
		return "", err
	}

	body, contentType, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("legacy analyze: %w", err)
	}
	return extractAnswer(body, contentType)
}

// analyzeMultipart sends the prompt as a file upload, which is what the
// original analyze endpoint was built for.
func (c *LegacyClient) analyzeMultipart(ctx context.Context, text string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "query.txt")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write([]byte(text)); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	url := fmt.Sprintf("%s/analyze", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	body, contentType, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("legacy analyze upload: %w", err)
	}
	return extractAnswer(body, contentType)
}

func (c *LegacyClient) TestConnection(ctx context.Context) error {
	if !c.enabled() {
		return ErrNotConfigured
	}
	if _, err := c.analyze(ctx, "Test rapide de connectivité"); err != nil {
		return fmt.Errorf("legacy connection test: %w", err)
	}
	return nil
}

func (c *LegacyClient) Stats() map[string]interface{} {
	return map[string]interface{}{
		"style":        StyleLegacy,
		"base_url":     c.baseURL,
		"payload_mode": c.payloadMode,
		"timeout":      c.config.Timeout,
	}
}
