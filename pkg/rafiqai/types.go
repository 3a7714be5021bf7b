package rafiqai

import (
	"errors"
	"strings"
	"time"
)

// API styles. StyleSession is the stateful dialect ("rafiq" in the portal
// configuration), StyleLegacy the stateless /analyze dialect.
const (
	StyleLegacy  = "legacy"
	StyleSession = "session"
)

// Legacy payload transport modes.
const (
	PayloadAuto = "auto"
	PayloadFile = "file"
	PayloadJSON = "json"
	PayloadText = "text"
)

var (
	// ErrNotConfigured is returned when no base URL is set.
	ErrNotConfigured = errors.New("rafiqai: gateway not configured")
	// ErrNoAnswer signals a response that carried no recognizable answer
	// field. Callers treat it as a soft failure and fall back.
	ErrNoAnswer = errors.New("rafiqai: response contains no answer")
)

// Message is one conversation turn handed to the gateway.
type Message struct {
	Role    string `json:"role"` // user, assistant
	Content string `json:"content"`
}

// Config configures a gateway client.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key"`
	Style            string        `yaml:"style"`
	Timeout          time.Duration `yaml:"timeout"`
	SystemPrompt     string        `yaml:"system_prompt"`
	DefaultKnowledge string        `yaml:"default_knowledge"`
	PayloadMode      string        `yaml:"payload_mode"`
}

// DefaultConfig returns the defaults applied when fields are unset.
func DefaultConfig() *Config {
	return &Config{
		Style:        StyleLegacy,
		Timeout:      5 * time.Second,
		SystemPrompt: "Tu es un assistant administratif algérien qui répond de manière claire et concise.",
		PayloadMode:  PayloadText,
	}
}

// NormalizeStyle maps configured style names onto the two dialects.
// "rafiq" and "analyze" are accepted as historical aliases. An empty style
// is inferred from the base URL: the session service historically listened
// on port 8000.
func NormalizeStyle(style, baseURL string) string {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "legacy", "analyze":
		return StyleLegacy
	case "rafiq", "session":
		return StyleSession
	}
	if strings.Contains(baseURL, ":8000") {
		return StyleSession
	}
	return StyleLegacy
}

func normalizePayloadMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case PayloadAuto, PayloadFile, PayloadJSON, PayloadText:
		return strings.ToLower(strings.TrimSpace(mode))
	}
	return PayloadText
}

// answerPayload covers both dialects: the gateway has answered under
// different field names across versions.
type answerPayload struct {
	Response string `json:"response"`
	Answer   string `json:"answer"`
	Analysis string `json:"analysis"`
}

func (p *answerPayload) text() string {
	if p.Response != "" {
		return p.Response
	}
	if p.Answer != "" {
		return p.Answer
	}
	return p.Analysis
}

type sessionNewResponse struct {
	SessionID string `json:"session_id"`
}

type addKnowledgeRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type analyzeRequest struct {
	Text    string `json:"text"`
	Prompt  string `json:"prompt"`
	Message string `json:"message"`
}
