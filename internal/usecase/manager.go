package usecase

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"go.ngs.io/rainfall-api/internal/adapter/source"
	"go.ngs.io/rainfall-api/internal/observability"
)

// Manager creates and looks up id-keyed sessions, allowing concurrent
// sessions against the same source.
type Manager struct {
	src       source.Source
	logger    *slog.Logger
	metrics   *observability.Metrics
	smoothing float64

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(src source.Source, logger *slog.Logger, metrics *observability.Metrics, smoothing float64) *Manager {
	return &Manager{
		src:       src,
		logger:    logger,
		metrics:   metrics,
		smoothing: smoothing,
		sessions:  make(map[string]*Session),
	}
}

// Create makes a new session with default date range and fit parameters.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.src, m.logger, m.metrics, m.smoothing)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.metrics.ActiveSessions.Inc()
	return s
}

// Get returns the session for an id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}
