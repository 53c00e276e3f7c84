// Package resolver answers "which family does this user belong to" by
// trying independent read paths in a strict order.
//
// The backing store is eventually consistent and its paths disagree during
// replication lag, so the resolver trusts affirmative answers over
// negative ones: the first path that reports an active membership wins and
// the rest are never consulted. Paths are not merged or voted across. A
// path failing is logged and skipped; it never stops later paths from
// running.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"budgetme/internal/family/metrics"
	"budgetme/internal/family/models"
	"budgetme/internal/family/store"
	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/sentinel"
)

// Source names the read path that produced an answer. Earlier sources are
// cheaper; affirmative answers from any of them are equally trusted.
type Source string

const (
	SourceOverview Source = "overview"
	SourceDirect   Source = "direct"
	SourceScan     Source = "scan"
	SourceNone     Source = "none"
)

// Strategy is one independent way to look up a user's membership. It
// returns the most relevant row it can see, or an error wrapping
// sentinel.ErrNotFound for a clean negative answer.
type Strategy func(ctx context.Context, userID id.UserID) (*models.Membership, error)

// Result is the outcome of a resolution.
//
// Found=false with a nil Pending is a plain "not a member". Pending, when
// set, is a not-yet-active row the scan path saw, so callers can show an
// invitation state instead; it never counts as membership.
type Result struct {
	Found      bool
	Membership models.Membership
	Pending    *models.Membership
	Source     Source
}

type step struct {
	source   Source
	strategy Strategy
}

// Resolver runs the ordered strategy chain. It holds no mutable state and
// is safe for concurrent use.
type Resolver struct {
	chain   []step
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for strategy failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithMetrics records resolution outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// New builds the default chain over the membership read port: the
// precomputed overview first, then the direct query, then the raw scan.
func New(reader store.MembershipReader, opts ...Option) *Resolver {
	r := &Resolver{
		chain: []step{
			{SourceOverview, reader.OverviewMembership},
			{SourceDirect, reader.ActiveMembership},
			{SourceScan, scanStrategy(reader)},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// scanStrategy walks every membership row. It prefers the newest active
// row (tolerating a transiently violated one-active-family invariant),
// falls back to the newest pending row, and reports not-found otherwise:
// inactive and removed rows are history, not an answer.
func scanStrategy(reader store.MembershipReader) Strategy {
	return func(ctx context.Context, userID id.UserID) (*models.Membership, error) {
		rows, err := reader.ScanMemberships(ctx, userID)
		if err != nil {
			return nil, err
		}

		var active, pending *models.Membership
		for i := range rows {
			m := &rows[i]
			switch m.Status {
			case models.StatusActive:
				if active == nil || m.JoinedAt.After(active.JoinedAt) {
					active = m
				}
			case models.StatusPending:
				if pending == nil || m.JoinedAt.After(pending.JoinedAt) {
					pending = m
				}
			}
		}
		if active != nil {
			return active, nil
		}
		if pending != nil {
			return pending, nil
		}
		return nil, sentinel.ErrNotFound
	}
}

// Resolve runs the chain for one user. The only error it returns is the
// context's own: an exhausted chain is a NotAMember result, not a failure.
func (r *Resolver) Resolve(ctx context.Context, userID id.UserID) (Result, error) {
	var pending *models.Membership

	for _, st := range r.chain {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		m, err := st.strategy(ctx, userID)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				r.logger.Warn("membership strategy failed",
					"source", st.source, "user_id", userID, "error", err)
			}
			continue
		}

		if m.IsActive() {
			r.metrics.RecordResolution(string(st.source))
			return Result{Found: true, Membership: *m, Source: st.source}, nil
		}
		if m.Status == models.StatusPending && pending == nil {
			pending = m
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r.metrics.RecordResolution(string(SourceNone))
	return Result{Pending: pending, Source: SourceNone}, nil
}
