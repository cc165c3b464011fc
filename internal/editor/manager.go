package editor

import "sync"

// Manager tracks open editing sessions, one per flow.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

// Open returns the session for a flow, creating one if needed.
func (m *Manager) Open(flowID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[flowID]; ok {
		return s
	}
	s := NewSession(flowID)
	m.sessions[flowID] = s
	return s
}

// Get returns an already-open session, or nil.
func (m *Manager) Get(flowID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[flowID]
}

// Close discards a session.
func (m *Manager) Close(flowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, flowID)
}
