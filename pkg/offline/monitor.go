package offline

import "sync"

// Monitor tracks the ONLINE/OFFLINE state of the client runtime. State is
// updated on transition events only; the OFFLINE→ONLINE transition is the
// sole trigger for the registered reconnect handler.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	syncing   bool
	reconnect func()
}

// NewMonitor starts in the given state without firing the handler.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// OnReconnect registers the handler invoked on each OFFLINE→ONLINE
// transition. The handler runs synchronously so tests can simulate
// reconnect without timers or sockets.
func (m *Monitor) OnReconnect(fn func()) {
	m.mu.Lock()
	m.reconnect = fn
	m.mu.Unlock()
}

// SetOnline records a network-status transition. Repeated signals for the
// current state are ignored.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fn := m.reconnect
	m.mu.Unlock()

	if online && fn != nil {
		fn()
	}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Syncing reports whether a drain is in progress.
func (m *Monitor) Syncing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncing
}

func (m *Monitor) setSyncing(v bool) {
	m.mu.Lock()
	m.syncing = v
	m.mu.Unlock()
}
