package offline

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// BatchPayload is one entry of the sync batch sent to the server.
type BatchPayload struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ItemResult is the server's verdict for one batch entry, by batch index.
type ItemResult struct {
	Index  int    `json:"index"`
	Type   string `json:"type"`
	Status string `json:"status"` // synced, error
	Error  string `json:"error,omitempty"`
}

// SyncResult is the response of the sync endpoint.
type SyncResult struct {
	Synced  int          `json:"synced"`
	Errors  int          `json:"errors"`
	Total   int          `json:"total"`
	Results []ItemResult `json:"results,omitempty"`
}

// SyncSender posts one batch to the remote sync endpoint.
type SyncSender interface {
	Sync(ctx context.Context, payloads []BatchPayload) (*SyncResult, error)
}

// ErrDrainInProgress is returned when Drain is called while another drain
// is running; only one drain may run at a time.
var ErrDrainInProgress = errors.New("offline: drain already in progress")

// Coordinator drains the outbound queue on reconnect. The whole queue goes
// out as one batch; entries are removed only for items the server actually
// confirmed, so a partial failure leaves the unconfirmed tail queued for
// the next reconnect.
type Coordinator struct {
	queue   *Queue
	sender  SyncSender
	monitor *Monitor
	logger  *logrus.Logger

	draining atomic.Bool
}

// NewCoordinator wires the coordinator and registers it on the monitor's
// reconnect transition.
func NewCoordinator(queue *Queue, sender SyncSender, monitor *Monitor, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	c := &Coordinator{queue: queue, sender: sender, monitor: monitor, logger: logger}
	if monitor != nil {
		monitor.OnReconnect(func() {
			if _, err := c.Drain(context.Background()); err != nil && err != ErrDrainInProgress {
				logger.Warnf("Queue drain failed, will retry on next reconnect: %v", err)
			}
		})
	}
	return c
}

// Drain submits the entire queue as one batch. A drain already in progress
// suppresses the call. Network failure leaves the queue untouched.
func (c *Coordinator) Drain(ctx context.Context) (*SyncResult, error) {
	if !c.draining.CompareAndSwap(false, true) {
		return nil, ErrDrainInProgress
	}
	defer c.draining.Store(false)

	if c.monitor != nil {
		c.monitor.setSyncing(true)
		defer c.monitor.setSyncing(false)
	}

	items, err := c.queue.All()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &SyncResult{}, nil
	}

	batch := make([]BatchPayload, 0, len(items))
	for _, item := range items {
		batch = append(batch, BatchPayload{Type: item.Type, Payload: item.Payload})
	}

	result, err := c.sender.Sync(ctx, batch)
	if err != nil {
		return nil, err
	}

	confirmed := confirmedIDs(items, result)
	if err := c.queue.Remove(confirmed); err != nil {
		return result, err
	}

	c.logger.Infof("Drained offline queue: %d synced, %d errors, %d total",
		result.Synced, result.Errors, result.Total)
	return result, nil
}

// confirmedIDs maps the server's per-item verdicts back onto queue ids.
// Without per-item detail the whole batch is cleared only when the server
// reported zero errors; anything less keeps every entry queued.
func confirmedIDs(items []QueuedPayload, result *SyncResult) []uint {
	if len(result.Results) == 0 {
		if result.Errors == 0 {
			ids := make([]uint, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ID)
			}
			return ids
		}
		return nil
	}

	ids := make([]uint, 0, len(items))
	for _, r := range result.Results {
		if r.Status == "synced" && r.Index >= 0 && r.Index < len(items) {
			ids = append(ids, items[r.Index].ID)
		}
	}
	return ids
}
