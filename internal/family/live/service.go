package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetme/internal/changefeed"
	"budgetme/internal/family/metrics"
	"budgetme/internal/family/store"
	"budgetme/internal/platform/config"
	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/sentinel"
)

// Service owns one Manager per attached user session. It hands back the
// existing session on repeat attaches and sweeps sessions nobody has
// touched within the idle timeout.
type Service struct {
	reader  store.Reader
	source  changefeed.Source
	cfg     config.SyncConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[id.UserID]*session
	closed   bool

	stop      chan struct{}
	sweeperWG sync.WaitGroup
}

type session struct {
	mgr      *Manager
	lastSeen time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger. Each session's manager logs
// through it with the user id attached.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceMetrics wires the engine instrument pack into the service
// and every manager it creates.
func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService builds the session registry and starts its idle sweeper.
func NewService(reader store.Reader, source changefeed.Source, cfg config.SyncConfig, opts ...ServiceOption) *Service {
	s := &Service{
		reader:   reader,
		source:   source,
		cfg:      normalize(cfg),
		logger:   slog.Default(),
		sessions: make(map[id.UserID]*session),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sweeperWG.Add(1)
	go s.sweeper()
	return s
}

// Attach returns the user's live session, starting one on first use and
// marking it fresh for the idle sweep.
func (s *Service) Attach(userID id.UserID) (*Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("live service closed: %w", sentinel.ErrInvalidState)
	}
	if sess, ok := s.sessions[userID]; ok {
		sess.lastSeen = time.Now()
		return sess.mgr, nil
	}
	mgr := NewManager(userID, s.reader, s.source, s.cfg,
		WithLogger(s.logger.With("user_id", userID.String())),
		WithMetrics(s.metrics),
	)
	mgr.Start()
	s.sessions[userID] = &session{mgr: mgr, lastSeen: time.Now()}
	s.metrics.SessionAttached()
	s.logger.Info("live session attached", "user_id", userID.String(), "sessions", len(s.sessions))
	return mgr, nil
}

// Touch marks the user's session as recently used without returning it.
func (s *Service) Touch(userID id.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.lastSeen = time.Now()
	}
}

// Snapshot attaches (or refreshes) the user's session and returns its
// current view. First attach returns the initial, still-settling snapshot;
// clients poll and watch IsLive.
func (s *Service) Snapshot(userID id.UserID) (Snapshot, error) {
	mgr, err := s.Attach(userID)
	if err != nil {
		return Snapshot{}, err
	}
	return mgr.Snapshot(), nil
}

// Refresh forces a keyed refresh on the user's session, attaching one if
// needed. It returns once the session accepts the request; the refreshed
// data lands asynchronously and shows up in a later Snapshot.
func (s *Service) Refresh(ctx context.Context, userID id.UserID, key string) error {
	mgr, err := s.Attach(userID)
	if err != nil {
		return err
	}
	return mgr.ManualRefresh(ctx, key)
}

// Detach closes and forgets the user's session.
func (s *Service) Detach(userID id.UserID) error {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("no live session for user: %w", sentinel.ErrNotFound)
	}
	_ = sess.mgr.Close()
	s.metrics.SessionDetached()
	s.logger.Info("live session detached", "user_id", userID.String(), "sessions", remaining)
	return nil
}

// Sessions returns the number of attached sessions.
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close detaches every session and stops the sweeper. Idempotent.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	drained := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		drained = append(drained, sess)
	}
	s.sessions = make(map[id.UserID]*session)
	s.mu.Unlock()

	close(s.stop)
	s.sweeperWG.Wait()
	for _, sess := range drained {
		_ = sess.mgr.Close()
		s.metrics.SessionDetached()
	}
	return nil
}

func (s *Service) sweeper() {
	defer s.sweeperWG.Done()
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweepIdle()
		}
	}
}

// sweepIdle detaches sessions nobody polled within the idle timeout.
// Managers close outside the lock; Close waits for the run goroutine.
func (s *Service) sweepIdle() {
	if s.cfg.SessionIdleTimeout <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.cfg.SessionIdleTimeout)

	s.mu.Lock()
	var idle []*session
	var users []id.UserID
	for userID, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			idle = append(idle, sess)
			users = append(users, userID)
			delete(s.sessions, userID)
		}
	}
	s.mu.Unlock()

	for i, sess := range idle {
		_ = sess.mgr.Close()
		s.metrics.SessionDetached()
		s.logger.Info("idle live session swept", "user_id", users[i].String())
	}
}
