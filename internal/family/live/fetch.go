package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"budgetme/internal/family/models"
	"budgetme/internal/family/resolver"
	"budgetme/internal/family/summary"
	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/retry"
	"budgetme/pkg/platform/sentinel"
)

var tracer = otel.Tracer("budgetme/internal/family/live")

// fetch runs one keyed snapshot read off the run goroutine and posts the
// outcome back. familyID and members are pinned at issue time, so a
// context switch mid-flight cannot redirect the read.
func (m *Manager) fetch(ctx context.Context, key string, seq, epoch uint64, familyID id.FamilyID, members []id.UserID, pol retry.Policy) {
	ctx, span := tracer.Start(ctx, "live.refresh", trace.WithAttributes(
		attribute.String("refresh.key", key),
		attribute.String("family.id", familyID.String()),
	))
	defer span.End()

	start := time.Now()
	c := completion{key: key, seq: seq, epoch: epoch}
	switch key {
	case KeyFamily:
		c.family, c.err = retry.Do(ctx, pol, func(ctx context.Context) (*models.Family, error) {
			return m.reader.Family(ctx, familyID)
		})
	case KeyMembers:
		c.members, c.err = retry.Do(ctx, pol, func(ctx context.Context) ([]models.Membership, error) {
			return m.reader.ActiveMembers(ctx, familyID)
		})
	case KeySummary:
		c.summary, c.err = m.fetchSummary(ctx, familyID, pol)
	case KeyActivity:
		c.feed, c.err = m.fetchActivity(ctx, familyID, members, pol)
	}
	c.took = time.Since(start)
	if c.err != nil {
		span.RecordError(c.err)
		span.SetStatus(otelcodes.Error, "refresh failed")
	}
	m.complete(c)
}

// fetchSummary reads the goal book and folds it into summary metrics. The
// contribution read depends on the goal list, so the two run in sequence.
func (m *Manager) fetchSummary(ctx context.Context, familyID id.FamilyID, pol retry.Policy) (*models.SummaryMetrics, error) {
	goals, err := retry.Do(ctx, pol, func(ctx context.Context) ([]models.Goal, error) {
		return m.reader.GoalsByFamily(ctx, familyID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch goals: %w", err)
	}
	goalIDs := make([]id.GoalID, len(goals))
	for i, g := range goals {
		goalIDs[i] = g.ID
	}
	contribs, err := retry.Do(ctx, pol, func(ctx context.Context) ([]models.Contribution, error) {
		return m.reader.ContributionsByGoals(ctx, goalIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch contributions: %w", err)
	}
	agg := summary.Aggregate(goals, contribs)
	agg.ByContributor = summary.RollupByContributor(ctx, contribs, m.reader.Profiles)
	return &agg, nil
}

// fetchActivity reads the three feed sources in parallel and merges them.
func (m *Manager) fetchActivity(ctx context.Context, familyID id.FamilyID, members []id.UserID, pol retry.Policy) ([]models.ActivityEvent, error) {
	var joins []models.Membership
	var goals []models.Goal
	var txns []models.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roster, err := retry.Do(gctx, pol, func(ctx context.Context) ([]models.Membership, error) {
			return m.reader.ActiveMembers(ctx, familyID)
		})
		if err != nil {
			return fmt.Errorf("fetch joins: %w", err)
		}
		// ActiveMembers is oldest-first; the feed wants the newest few.
		if len(roster) > recentPerKind {
			roster = roster[len(roster)-recentPerKind:]
		}
		joins = roster
		return nil
	})
	g.Go(func() error {
		out, err := retry.Do(gctx, pol, func(ctx context.Context) ([]models.Goal, error) {
			return m.reader.RecentGoals(ctx, familyID, recentPerKind)
		})
		if err != nil {
			return fmt.Errorf("fetch recent goals: %w", err)
		}
		goals = out
		return nil
	})
	g.Go(func() error {
		out, err := retry.Do(gctx, pol, func(ctx context.Context) ([]models.Transaction, error) {
			return m.reader.RecentTransactions(ctx, familyID, members, recentPerKind)
		})
		if err != nil {
			return fmt.Errorf("fetch recent transactions: %w", err)
		}
		txns = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m.builder.Build(ctx, joins, goals, txns, m.cfg.FeedLimit), nil
}

// resolve re-runs the membership chain. When chase is set the read races a
// row a notification just reported, so a clean not-found is converted into
// a transient error and retried until the stretched budget runs out;
// exhausting it is an ordinary negative answer, not a failure.
func (m *Manager) resolve(ctx context.Context, seq uint64, pol retry.Policy, chase bool) {
	ctx, span := tracer.Start(ctx, "live.resolve", trace.WithAttributes(
		attribute.Bool("resolve.chase", chase),
	))
	defer span.End()

	start := time.Now()
	res, err := retry.Do(ctx, pol, func(ctx context.Context) (resolver.Result, error) {
		r, rerr := m.resolver.Resolve(ctx, m.userID)
		if rerr != nil {
			return resolver.Result{}, rerr
		}
		if chase && !r.Found && r.Pending == nil {
			return resolver.Result{}, fmt.Errorf("membership not yet visible: %w", sentinel.ErrNotFound)
		}
		return r, nil
	})
	if err != nil && chase && errors.Is(err, sentinel.ErrNotFound) {
		res = resolver.Result{Source: resolver.SourceNone}
		err = nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "resolution failed")
	}
	m.complete(completion{key: KeyMembership, seq: seq, resolution: &res, err: err, took: time.Since(start)})
}

// complete posts c to the run loop, giving up if the manager shuts down
// first.
func (m *Manager) complete(c completion) {
	select {
	case m.completions <- c:
	case <-m.ctx.Done():
	}
}
