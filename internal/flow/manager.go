package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mbti-quest/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults for ManagerConfig.
const (
	DefaultIdleTTL         = 30 * time.Minute
	DefaultJanitorInterval = time.Minute
)

// ManagerConfig tunes session expiry.
type ManagerConfig struct {
	IdleTTL         time.Duration
	JanitorInterval time.Duration
	// MaxSessions caps concurrent sessions; zero means unlimited.
	MaxSessions int
}

// Manager owns the in-memory sessions keyed by handle.
type Manager struct {
	deps   SessionDeps
	cfg    ManagerConfig
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager validates the content once so session creation cannot fail on it.
func NewManager(deps SessionDeps, cfg ManagerConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = DefaultJanitorInterval
	}
	if deps.Bank == nil || deps.Bank.Len() == 0 {
		return nil, fmt.Errorf("%w: question bank is empty", models.ErrInvalidInput)
	}
	if err := deps.Registry.ValidateAgainst(deps.Bank.SceneIDs()); err != nil {
		return nil, err
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Manager{
		deps:     deps,
		cfg:      cfg,
		logger:   logger.Named("sessions"),
		now:      now,
		sessions: make(map[string]*Session),
	}, nil
}

// Create registers a new session on the start screen.
func (m *Manager) Create() (*Session, error) {
	handle := uuid.NewString()
	sess, err := NewSession(handle, m.deps, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		sess.Shutdown()
		return nil, fmt.Errorf("%w: too many active sessions", models.ErrBadRequest)
	}
	m.sessions[handle] = sess
	count := len(m.sessions)
	m.mu.Unlock()

	activeSessions.Inc()
	m.logger.Debug("Session created", zap.String("handle", handle), zap.Int("active", count))
	return sess, nil
}

// Get returns the session or ErrSessionNotFound.
func (m *Manager) Get(handle string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[handle]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, handle)
	}
	return sess, nil
}

// Delete removes the session and stops its background work.
func (m *Manager) Delete(handle string) error {
	m.mu.Lock()
	sess, ok := m.sessions[handle]
	if ok {
		delete(m.sessions, handle)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, handle)
	}
	activeSessions.Dec()
	sess.Shutdown()
	m.logger.Debug("Session deleted", zap.String("handle", handle))
	return nil
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than IdleTTL and returns how many.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.cfg.IdleTTL)
	var expired []*Session

	m.mu.Lock()
	for handle, sess := range m.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(m.sessions, handle)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		activeSessions.Dec()
		sess.Shutdown()
	}
	if len(expired) > 0 {
		m.logger.Info("Expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Shutdown stops every session and waits for pending result handoffs.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for handle, sess := range m.sessions {
		all = append(all, sess)
		delete(m.sessions, handle)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sess := range all {
		activeSessions.Dec()
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Shutdown()
		}(sess)
	}
	wg.Wait()
	m.logger.Info("All sessions stopped", zap.Int("count", len(all)))
}
