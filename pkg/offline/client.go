package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SyncClient posts queued payloads to the portal's sync endpoint.
type SyncClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewSyncClient builds a client for `POST {base}/api/v1/sync`. token is the
// bearer token of the signed-in citizen, empty for anonymous payloads.
func NewSyncClient(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *SyncClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &SyncClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type syncRequest struct {
	Payloads []BatchPayload `json:"payloads"`
}

// Sync sends the entire batch in one request.
func (c *SyncClient) Sync(ctx context.Context, payloads []BatchPayload) (*SyncResult, error) {
	body, err := json.Marshal(syncRequest{Payloads: payloads})
	if err != nil {
		return nil, fmt.Errorf("marshal sync batch: %w", err)
	}

	url := c.baseURL + "/api/v1/sync"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sync response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sync error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var result SyncResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode sync response: %w", err)
	}

	c.logger.Debugf("Sync batch of %d accepted: %d synced, %d errors",
		len(payloads), result.Synced, result.Errors)
	return &result, nil
}
