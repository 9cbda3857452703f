package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/pkg/ports"
	"github.com/google/uuid"
)

// ErrBusy is returned when another deployment already holds the key.
var ErrBusy = errors.New("a deployment is already in progress")

const (
	DefaultTTL      = 10 * time.Minute
	DefaultLockWait = 2 * time.Second
)

// Session is the data owned by one deployment run.
type Session struct {
	ID            string
	Key           string
	Program       []byte
	TransactionID string
	ProposalID    string
	StartedAt     time.Time

	lease ports.Lease
	// stop ends the lease renewal; renewed is closed when it has returned.
	stop    chan struct{}
	renewed chan struct{}
}

// Elapsed returns the wall-clock time since the session began.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.StartedAt)
}

// Manager orchestrates deployment sessions.
type Manager struct {
	mu     sync.Mutex
	active map[string]*Session // key -> session

	locker   ports.DistributedLocker // Optional distributed locker
	prefix   string
	ttl      time.Duration
	lockWait time.Duration
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithKeyPrefix namespaces distributed lock keys.
func WithKeyPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

// WithTTL bounds how long a crashed process can hold a distributed lock.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithLockWait bounds how long Begin waits for a distributed lock held elsewhere.
func WithLockWait(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.lockWait = d
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		active:   make(map[string]*Session),
		ttl:      DefaultTTL,
		lockWait: DefaultLockWait,
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin reserves key for a new deployment of program.
// It fails with ErrBusy if a session for key is already active.
func (m *Manager) Begin(ctx context.Context, key string, program []byte) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		Key:       key,
		Program:   program,
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	if _, busy := m.active[key]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBusy, key)
	}
	m.active[key] = s
	m.mu.Unlock()

	if m.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, m.lockWait)
		lease, err := m.locker.Lock(lockCtx, m.lockKey(key), m.ttl)
		cancel()
		if err != nil {
			m.forget(key)
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s is locked by another process", ErrBusy, key)
			}
			return nil, fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		s.lease = lease
		s.stop = make(chan struct{})
		s.renewed = make(chan struct{})
		go m.renew(s)
	}

	m.logger.Debug("Session started", "session_id", s.ID, "key", key, "size", len(program))
	return s, nil
}

// End releases the session and its distributed lock.
func (m *Manager) End(ctx context.Context, s *Session) {
	if s == nil {
		return
	}
	if s.lease != nil {
		close(s.stop)
		<-s.renewed

		// The run context may already be cancelled; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := s.lease.Release(releaseCtx); err != nil {
			m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
				"session_id", s.ID,
				"err", err,
			)
		}
		cancel()
		s.lease = nil
	}
	m.forget(s.Key)
	m.logger.Debug("Session ended", "session_id", s.ID, "elapsed", s.Elapsed())
}

// Active returns the session holding key, if any.
func (m *Manager) Active(key string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[key]
	return s, ok
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// renew extends the distributed lock every ttl/3 so a long-running deployment
// keeps the key for as long as it runs.
func (m *Manager) renew(s *Session) {
	defer close(s.renewed)

	ticker := time.NewTicker(m.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.ttl/3)
		err := s.lease.Refresh(ctx, m.ttl)
		cancel()
		switch {
		case errors.Is(err, ports.ErrLockLost):
			m.logger.Error("Distributed lock lost", "session_id", s.ID, "key", s.Key, "err", err)
			return
		case err != nil:
			m.logger.Warn("Failed to renew distributed lock, retrying", "session_id", s.ID, "err", err)
		}
	}
}

func (m *Manager) forget(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, key)
}

func (m *Manager) lockKey(key string) string {
	if m.prefix == "" {
		return key
	}
	return m.prefix + ":" + key
}
