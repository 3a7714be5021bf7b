package offline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeSender records batches and replies with a scripted result.
type fakeSender struct {
	mu      sync.Mutex
	batches [][]BatchPayload
	result  *SyncResult
	err     error
	block   chan struct{} // when set, Sync waits until closed
}

func (f *fakeSender) Sync(ctx context.Context, payloads []BatchPayload) (*SyncResult, error) {
	f.mu.Lock()
	f.batches = append(f.batches, payloads)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &SyncResult{Synced: len(payloads), Total: len(payloads)}, nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func enqueueN(t *testing.T, queue *Queue, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := queue.Enqueue("feedback", map[string]int{"n": i}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
}

func TestCoordinator_DrainSendsWholeQueueInOrder(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueue(db)
	enqueueN(t, queue, 5)

	sender := &fakeSender{}
	coord := NewCoordinator(queue, sender, nil, quietTestLogger())

	result, err := coord.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if result.Synced != 5 {
		t.Errorf("synced = %d, want 5", result.Synced)
	}
	if sender.calls() != 1 {
		t.Fatalf("expected a single batch call, got %d", sender.calls())
	}

	batch := sender.batches[0]
	if len(batch) != 5 {
		t.Fatalf("batch size = %d, want 5", len(batch))
	}
	for i, p := range batch {
		var payload map[string]int
		if err := json.Unmarshal(p.Payload, &payload); err != nil {
			t.Fatal(err)
		}
		if payload["n"] != i {
			t.Errorf("batch out of insertion order at %d: %v", i, payload)
		}
	}

	if n, _ := queue.Len(); n != 0 {
		t.Errorf("queue should be empty after confirmed success, %d left", n)
	}
}

func TestCoordinator_NetworkFailureLeavesQueueUntouched(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueue(db)
	enqueueN(t, queue, 4)

	sender := &fakeSender{err: errors.New("connection refused")}
	coord := NewCoordinator(queue, sender, nil, quietTestLogger())

	if _, err := coord.Drain(context.Background()); err == nil {
		t.Fatal("expected drain to fail")
	}
	if n, _ := queue.Len(); n != 4 {
		t.Errorf("queue must be untouched after network failure, %d left", n)
	}
}

func TestCoordinator_PartialSuccessKeepsUnconfirmedEntries(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueue(db)
	enqueueN(t, queue, 3)

	sender := &fakeSender{result: &SyncResult{
		Synced: 2, Errors: 1, Total: 3,
		Results: []ItemResult{
			{Index: 0, Type: "feedback", Status: "synced"},
			{Index: 1, Type: "feedback", Status: "error", Error: "validation"},
			{Index: 2, Type: "feedback", Status: "synced"},
		},
	}}
	coord := NewCoordinator(queue, sender, nil, quietTestLogger())

	if _, err := coord.Drain(context.Background()); err != nil {
		t.Fatal(err)
	}

	items, err := queue.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly the rejected entry to remain, got %d", len(items))
	}
	var payload map[string]int
	if err := json.Unmarshal(items[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["n"] != 1 {
		t.Errorf("wrong entry kept: %v", payload)
	}
}

func TestCoordinator_CountOnlyResponseClearsOnlyOnZeroErrors(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueue(db)
	enqueueN(t, queue, 3)

	// No per-item detail and errors reported: keep everything queued.
	sender := &fakeSender{result: &SyncResult{Synced: 2, Errors: 1, Total: 3}}
	coord := NewCoordinator(queue, sender, nil, quietTestLogger())
	if _, err := coord.Drain(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n, _ := queue.Len(); n != 3 {
		t.Errorf("ambiguous partial success must keep the queue, %d left", n)
	}

	sender.result = &SyncResult{Synced: 3, Errors: 0, Total: 3}
	if _, err := coord.Drain(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n, _ := queue.Len(); n != 0 {
		t.Errorf("clean count-only success should clear the queue, %d left", n)
	}
}

func TestCoordinator_ConcurrentDrainSuppressed(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueue(db)
	enqueueN(t, queue, 1)

	block := make(chan struct{})
	sender := &fakeSender{block: block}
	coord := NewCoordinator(queue, sender, nil, quietTestLogger())

	done := make(chan error, 1)
	go func() {
		_, err := coord.Drain(context.Background())
		done <- err
	}()

	// Wait for the first drain to reach the sender.
	deadline := time.After(2 * time.Second)
	for sender.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("first drain never started")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	if _, err := coord.Drain(context.Background()); err != ErrDrainInProgress {
		t.Errorf("expected ErrDrainInProgress, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first drain: %v", err)
	}
	if sender.calls() != 1 {
		t.Errorf("suppressed drain must not reach the sender, calls = %d", sender.calls())
	}
}

func TestCoordinator_ReconnectTriggersDrainAndSyncingFlag(t *testing.T) {
	db := newTestDB(t)
	queue := NewQueue(db)
	enqueueN(t, queue, 2)

	monitor := NewMonitor(false)
	var sawSyncing bool
	sender := &fakeSender{}
	coord := NewCoordinator(queue, &syncingProbe{inner: sender, monitor: monitor, saw: &sawSyncing}, monitor, quietTestLogger())
	_ = coord

	monitor.SetOnline(true)

	if sender.calls() != 1 {
		t.Fatalf("reconnect should trigger exactly one drain, got %d", sender.calls())
	}
	if !sawSyncing {
		t.Error("syncing flag was not set during the drain")
	}
	if monitor.Syncing() {
		t.Error("syncing flag must reset after the drain")
	}

	// Re-asserting the online state is not a transition.
	monitor.SetOnline(true)
	if sender.calls() != 1 {
		t.Errorf("duplicate online signal must not re-drain, calls = %d", sender.calls())
	}

	// A full offline/online cycle triggers the next drain.
	monitor.SetOnline(false)
	monitor.SetOnline(true)
	if sender.calls() != 2 {
		t.Errorf("reconnect cycle should drain again, calls = %d", sender.calls())
	}
}

// syncingProbe observes the monitor's syncing flag from inside the drain.
type syncingProbe struct {
	inner   *fakeSender
	monitor *Monitor
	saw     *bool
}

func (p *syncingProbe) Sync(ctx context.Context, payloads []BatchPayload) (*SyncResult, error) {
	if p.monitor.Syncing() {
		*p.saw = true
	}
	return p.inner.Sync(ctx, payloads)
}

func TestCoordinator_EmptyQueueSkipsNetwork(t *testing.T) {
	db := newTestDB(t)
	sender := &fakeSender{}
	coord := NewCoordinator(NewQueue(db), sender, nil, quietTestLogger())

	result, err := coord.Drain(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 0 || sender.calls() != 0 {
		t.Errorf("empty queue must not hit the network: result=%+v calls=%d", result, sender.calls())
	}
}

func TestSyncClient_PostsBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sync" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Payloads []BatchPayload `json:"payloads"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(SyncResult{Synced: len(req.Payloads), Total: len(req.Payloads)})
	}))
	defer server.Close()

	client := NewSyncClient(server.URL, "tok", time.Second, quietTestLogger())
	result, err := client.Sync(context.Background(), []BatchPayload{
		{Type: "feedback", Payload: json.RawMessage(`{"rating":5}`)},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Synced != 1 {
		t.Errorf("synced = %d, want 1", result.Synced)
	}
}

func TestSyncClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewSyncClient(server.URL, "", time.Second, quietTestLogger())
	if _, err := client.Sync(context.Background(), nil); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
