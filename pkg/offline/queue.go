package offline

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueuedPayload is one pending write read back from the queue.
type QueuedPayload struct {
	ID        uint            `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue is the durable FIFO of writes captured while offline. Enqueue is
// purely local and always succeeds when the engine is present; entries are
// removed only after the coordinator sees a confirmed acknowledgment for
// that specific entry.
type Queue struct {
	db *DB
}

// NewQueue returns a queue over db. A nil db yields a degraded queue.
func NewQueue(db *DB) *Queue {
	return &Queue{db: db}
}

func (q *Queue) available() bool {
	return q != nil && q.db != nil && q.db.db != nil
}

// Enqueue appends a payload and returns its id.
func (q *Queue) Enqueue(payloadType string, payload interface{}) (uint, error) {
	if !q.available() {
		return 0, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	item := QueueItem{Type: payloadType, Payload: string(raw), CreatedAt: time.Now()}
	if err := q.db.db.Create(&item).Error; err != nil {
		return 0, err
	}
	return item.ID, nil
}

// All returns the whole queue in insertion order.
func (q *Queue) All() ([]QueuedPayload, error) {
	if !q.available() {
		return nil, nil
	}
	var items []QueueItem
	if err := q.db.db.Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	out := make([]QueuedPayload, 0, len(items))
	for _, item := range items {
		out = append(out, QueuedPayload{
			ID:        item.ID,
			Type:      item.Type,
			Payload:   json.RawMessage(item.Payload),
			CreatedAt: item.CreatedAt,
		})
	}
	return out, nil
}

// Remove deletes the entries with the given ids.
func (q *Queue) Remove(ids []uint) error {
	if !q.available() || len(ids) == 0 {
		return nil
	}
	return q.db.db.Delete(&QueueItem{}, ids).Error
}

// Len reports the number of pending entries.
func (q *Queue) Len() (int, error) {
	if !q.available() {
		return 0, nil
	}
	var count int64
	if err := q.db.db.Model(&QueueItem{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}
