package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"budgetme/internal/changefeed"
	"budgetme/internal/family/activity"
	"budgetme/internal/family/metrics"
	"budgetme/internal/family/models"
	"budgetme/internal/family/resolver"
	"budgetme/internal/family/store"
	"budgetme/internal/platform/config"
	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/circuit"
	"budgetme/pkg/platform/retry"
	"budgetme/pkg/platform/sentinel"
	"budgetme/pkg/platform/throttle"
)

const (
	notificationBuffer = 64
	completionBuffer   = 16

	// recentPerKind bounds each source feeding the activity feed.
	recentPerKind = 4
)

// Manager keeps one user's snapshot fresh. Construct with NewManager, then
// Start; all methods are safe for concurrent use.
type Manager struct {
	userID  id.UserID
	reader  store.Reader
	source  changefeed.Source
	cfg     config.SyncConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	resolver *resolver.Resolver
	builder  *activity.Builder
	throttle *throttle.Throttle
	breaker  *circuit.Breaker

	ctx    context.Context
	cancel context.CancelFunc

	notifications chan notification
	completions   chan completion
	refreshReqs   chan refreshRequest

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	done      chan struct{}

	mu       sync.RWMutex
	snapshot Snapshot
}

// notification is one change event on its way to the run loop. Family
// events carry the epoch of the subscription that heard them; self events
// concern the user's own membership row and ignore epochs.
type notification struct {
	event changefeed.Event
	epoch uint64
	self  bool
}

// completion is one finished background fetch. Exactly one payload field
// is set, matching the key.
type completion struct {
	key   string
	seq   uint64
	epoch uint64

	resolution *resolver.Result
	family     *models.Family
	members    []models.Membership
	summary    *models.SummaryMetrics
	feed       []models.ActivityEvent

	err  error
	took time.Duration
}

type refreshRequest struct {
	key   string
	reply chan error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics wires the engine instrument pack.
func WithMetrics(mets *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mets }
}

// NewManager builds a stopped manager for one user. reader provides every
// read port; source delivers change notifications.
func NewManager(userID id.UserID, reader store.Reader, source changefeed.Source, cfg config.SyncConfig, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		userID:        userID,
		reader:        reader,
		source:        source,
		cfg:           normalize(cfg),
		logger:        slog.Default(),
		ctx:           ctx,
		cancel:        cancel,
		notifications: make(chan notification, notificationBuffer),
		completions:   make(chan completion, completionBuffer),
		refreshReqs:   make(chan refreshRequest),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resolver = resolver.New(reader,
		resolver.WithLogger(m.logger),
		resolver.WithMetrics(m.metrics))
	m.builder = activity.New(reader, activity.WithLogger(m.logger))
	m.throttle = throttle.New(m.cfg.ThrottleWindow)
	m.breaker = circuit.New("changefeed-subscribe")
	m.snapshot = Snapshot{
		UserID:           userID,
		State:            StateIdle,
		MembershipSource: resolver.SourceNone,
	}
	return m
}

// normalize guards the knobs whose zero values would wedge the run loop.
func normalize(cfg config.SyncConfig) config.SyncConfig {
	if cfg.ThrottleWindow <= 0 {
		cfg.ThrottleWindow = 2 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return cfg
}

// UserID returns the user this manager serves.
func (m *Manager) UserID() id.UserID { return m.userID }

// Start launches the run loop. Safe to call once; later calls are no-ops.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		m.started.Store(true)
		go m.run()
	})
}

// Close tears every subscription and in-flight fetch down and waits for
// the run loop to exit. Idempotent.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.cancel()
		if m.started.Load() {
			<-m.done
		}
	})
	return nil
}

// Snapshot returns the current view. The returned value is immutable.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// ManualRefresh forces one refresh of key, bypassing the throttle window
// once. Unknown keys fail with sentinel.ErrMalformed; family-scoped keys
// fail with sentinel.ErrInvalidState while the user has no family context.
func (m *Manager) ManualRefresh(ctx context.Context, key string) error {
	req := refreshRequest{key: key, reply: make(chan error, 1)}
	select {
	case m.refreshReqs <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return fmt.Errorf("session closed: %w", sentinel.ErrInvalidState)
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.ctx.Done():
		return fmt.Errorf("session closed: %w", sentinel.ErrInvalidState)
	}
}

// readPolicy is the standard retry budget for snapshot reads.
func (m *Manager) readPolicy() retry.Policy {
	return retry.Policy{
		Attempts: m.cfg.RetryAttempts,
		Delay:    m.cfg.RetryDelay,
		Terminal: retry.IsTerminal,
		OnRetry:  func(int, error) { m.metrics.RecordRetry() },
	}
}

// justCreatedPolicy stretches the budget for reads chasing a row a change
// notification says exists but replication may not have made visible.
func (m *Manager) justCreatedPolicy() retry.Policy {
	p := m.readPolicy()
	if p.Attempts < retry.JustCreatedAttempts {
		p.Attempts = retry.JustCreatedAttempts
	}
	return p
}
