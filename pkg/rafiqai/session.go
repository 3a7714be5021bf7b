package rafiqai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// session is the cached handle for one conversation key. knowledgeLoaded
// flips false→true once and only resets through full recreation.
type session struct {
	id              string
	knowledgeLoaded bool
	createdAt       time.Time
}

// SessionClient speaks the stateful dialect: one remote session per
// conversation key, primed once with the default knowledge text. Session
// state is not assumed durable across gateway restarts: any request
// failure drops the cached session so the next call recreates it.
type SessionClient struct {
	*baseClient

	mu       sync.Mutex
	sessions map[string]*session
	creating map[string]chan struct{}
}

func newSessionClient(base *baseClient) *SessionClient {
	return &SessionClient{
		baseClient: base,
		sessions:   make(map[string]*session),
		creating:   make(map[string]chan struct{}),
	}
}

func (c *SessionClient) Chat(ctx context.Context, key string, messages []Message) (string, error) {
	if !c.enabled() {
		return "", ErrNotConfigured
	}
	if key == "" {
		key = "default"
	}

	sess, err := c.ensureSession(ctx, key)
	if err != nil {
		return "", err
	}
	c.ensureKnowledge(ctx, sess)

	answer, err := c.chat(ctx, sess.id, c.composePrompt(messages))
	if err != nil {
		c.invalidate(key)
		return "", err
	}
	return answer, nil
}

// ensureSession returns the cached session for key, creating one remotely
// when absent. Concurrent callers on the same key share a single create:
// one goroutine talks to the gateway while the rest wait for its result.
func (c *SessionClient) ensureSession(ctx context.Context, key string) (*session, error) {
	for {
		c.mu.Lock()
		if sess, ok := c.sessions[key]; ok {
			c.mu.Unlock()
			return sess, nil
		}
		if pending, ok := c.creating[key]; ok {
			c.mu.Unlock()
			select {
			case <-pending:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		pending := make(chan struct{})
		c.creating[key] = pending
		c.mu.Unlock()

		sess, err := c.createSession(ctx)

		c.mu.Lock()
		delete(c.creating, key)
		if err == nil {
			c.sessions[key] = sess
		}
		c.mu.Unlock()
		close(pending)

		return sess, err
	}
}

func (c *SessionClient) createSession(ctx context.Context) (*session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/session/new", nil)
	if err != nil {
		return nil, err
	}
	body, _, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	var created sessionNewResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if created.SessionID == "" {
		return nil, fmt.Errorf("create session: %w", ErrNoAnswer)
	}

	return &session{id: created.SessionID, createdAt: time.Now()}, nil
}

// ensureKnowledge primes the session once with the default knowledge text.
// Failures are logged, not fatal: the chat can still proceed unprimed and
// the flag stays false for a later retry.
func (c *SessionClient) ensureKnowledge(ctx context.Context, sess *session) {
	c.mu.Lock()
	loaded := sess.knowledgeLoaded
	c.mu.Unlock()
	if loaded || c.config.DefaultKnowledge == "" {
		return
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/add-knowledge", &addKnowledgeRequest{
		SessionID: sess.id,
		Text:      c.config.DefaultKnowledge,
	})
	if err != nil {
		c.logger.Warnf("Failed to build add-knowledge request: %v", err)
		return
	}
	if _, _, err := c.do(req); err != nil {
		c.logger.Warnf("Failed to add default knowledge: %v", err)
		return
	}

	c.mu.Lock()
	sess.knowledgeLoaded = true
	c.mu.Unlock()
}

func (c *SessionClient) chat(ctx context.Context, sessionID, prompt string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/chat", &chatRequest{
		SessionID: sessionID,
		Message:   prompt,
	})
	if err != nil {
		return "", err
	}
	body, contentType, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return extractAnswer(body, contentType)
}

func (c *SessionClient) invalidate(key string) {
	c.mu.Lock()
	delete(c.sessions, key)
	c.mu.Unlock()
}

// SessionCount reports cached session handles.
func (c *SessionClient) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *SessionClient) TestConnection(ctx context.Context) error {
	if !c.enabled() {
		return ErrNotConfigured
	}
	key := fmt.Sprintf("health-check-%d", time.Now().UnixNano())
	defer c.invalidate(key)

	sess, err := c.ensureSession(ctx, key)
	if err != nil {
		return err
	}
	if _, err := c.chat(ctx, sess.id, `Test rapide de connectivité. Réponds simplement "pong".`); err != nil {
		return fmt.Errorf("session connection test: %w", err)
	}
	return nil
}

func (c *SessionClient) Stats() map[string]interface{} {
	c.mu.Lock()
	sessions := len(c.sessions)
	c.mu.Unlock()
	return map[string]interface{}{
		"style":    StyleSession,
		"base_url": c.baseURL,
		"timeout":  c.config.Timeout,
		"sessions": sessions,
	}
}
