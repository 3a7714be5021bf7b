package metrics

import (
	"sync"
	"sync/atomic"
)

// rateLimitStats holds counters for rate limit drops (HTTP 429).
// Kept simple/thread-safe for use from middlewares and exposition.
type rateLimitStats struct {
	total    uint64
	mu       sync.Mutex
	byPrefix map[string]uint64
}

var rl rateLimitStats

// IncRateLimitDrop increments drop counters for the given prefix.
// Use prefix "global" for global limiter rejections.
func IncRateLimitDrop(prefix string) {
	if prefix == "" {
		prefix = "global"
	}
	atomic.AddUint64(&rl.total, 1)
	rl.mu.Lock()
	if rl.byPrefix == nil {
		rl.byPrefix = make(map[string]uint64)
	}
	rl.byPrefix[prefix]++
	rl.mu.Unlock()
}

// RateLimitSnapshot returns a copy of the current counters.
func RateLimitSnapshot() (total uint64, by map[string]uint64) {
	total = atomic.LoadUint64(&rl.total)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	by = make(map[string]uint64, len(rl.byPrefix))
	for k, v := range rl.byPrefix {
		by[k] = v
	}
	return total, by
}

// assistantStats tracks how chat turns were answered across the process.
var assistantStats struct {
	aiAnswers       uint64
	fallbackAnswers uint64
}

// IncAssistantAnswer records one answered turn by source.
func IncAssistantAnswer(source string) {
	if source == "ai" {
		atomic.AddUint64(&assistantStats.aiAnswers, 1)
		return
	}
	atomic.AddUint64(&assistantStats.fallbackAnswers, 1)
}

// AssistantSnapshot returns the AI and fallback answer counters.
func AssistantSnapshot() (ai, fallback uint64) {
	return atomic.LoadUint64(&assistantStats.aiAnswers),
		atomic.LoadUint64(&assistantStats.fallbackAnswers)
}

// syncStats tracks offline queue replay outcomes.
var syncStats struct {
	batches uint64
	items   uint64
	errors  uint64
}

// RecordSyncBatch records one processed sync batch.
func RecordSyncBatch(items, errors int) {
	atomic.AddUint64(&syncStats.batches, 1)
	atomic.AddUint64(&syncStats.items, uint64(items))
	atomic.AddUint64(&syncStats.errors, uint64(errors))
}

// SyncSnapshot returns the sync counters.
func SyncSnapshot() (batches, items, errors uint64) {
	return atomic.LoadUint64(&syncStats.batches),
		atomic.LoadUint64(&syncStats.items),
		atomic.LoadUint64(&syncStats.errors)
}
