package session

import (
	"sync"
	"time"
)

const sweepInterval = time.Minute

// Manager owns per-session histories keyed by session id. Histories are
// created on first use and dropped after the idle TTL, which stands in for
// "session end" in a stateless HTTP service.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*History
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager starts a manager whose sessions expire after ttl of
// inactivity. A ttl of zero disables expiry.
func NewManager(ttl time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*History),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go m.sweep()
	}
	return m
}

// Get returns the history for a session id, creating it on first use.
func (m *Manager) Get(id string) *History {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.sessions[id]
	if !ok {
		h = NewHistory()
		m.sessions[id] = h
	} else {
		h.touch()
	}
	return h
}

// Remove ends a session and discards its history.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the expiry sweeper.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.expire(time.Now())
		}
	}
}

func (m *Manager) expire(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, h := range m.sessions {
		if now.Sub(h.idleSince()) > m.ttl {
			delete(m.sessions, id)
		}
	}
}
