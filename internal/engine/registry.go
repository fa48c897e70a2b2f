package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"csdash/internal/observability"
	"csdash/internal/serviceinterfaces"
)

// Manager owns the live engine sessions, keyed by (browser session, project).
// Idle sessions are evicted lazily on access after the configured TTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	questions  serviceinterfaces.QuestionServiceInterface
	cache      Invalidator
	historyTab string
	ttl        time.Duration
	logger     *observability.Logger
}

// NewManager creates a session manager. A zero ttl disables idle eviction.
func NewManager(questions serviceinterfaces.QuestionServiceInterface, cache Invalidator, historyTab string, ttl time.Duration, logger *observability.Logger) *Manager {
	if logger == nil {
		logger = observability.NewLogger(nil)
	}
	return &Manager{
		sessions:   make(map[string]*Session),
		questions:  questions,
		cache:      cache,
		historyTab: historyTab,
		ttl:        ttl,
		logger:     logger,
	}
}

func sessionMapKey(sessionKey string, projectID int) string {
	return fmt.Sprintf("%s:%d", sessionKey, projectID)
}

// GetOrCreate returns the engine session for a browser session and project,
// creating and initializing one on first access.
func (m *Manager) GetOrCreate(ctx context.Context, sessionKey string, projectID int) *Session {
	m.mu.Lock()
	m.evictIdleLocked(time.Now())
	key := sessionMapKey(sessionKey, projectID)
	if s, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		s.Touch()
		return s
	}

	s := NewSession(projectID, m.questions, m.cache, m.historyTab, m.logger)
	m.sessions[key] = s
	m.mu.Unlock()

	if err := s.Init(ctx); err != nil {
		m.logger.Warn(ctx, "Engine session started with stale history", map[string]interface{}{
			"project_id": projectID,
			"session_id": s.ID(),
			"error":      err.Error(),
		})
	}
	return s
}

// Get returns an existing session without creating one
func (m *Manager) Get(sessionKey string, projectID int) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionMapKey(sessionKey, projectID)]
	return s, ok
}

// CloseProject closes and drops every session tracking the given project,
// for example when the project is deleted.
func (m *Manager) CloseProject(projectID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	closed := 0
	for key, s := range m.sessions {
		if s.ProjectID() == projectID {
			s.Close()
			delete(m.sessions, key)
			closed++
		}
	}
	return closed
}

// Close closes every session
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		s.Close()
		delete(m.sessions, key)
	}
}

// Len reports the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) evictIdleLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for key, s := range m.sessions {
		if now.Sub(s.IdleSince()) > m.ttl {
			s.Close()
			delete(m.sessions, key)
		}
	}
}
