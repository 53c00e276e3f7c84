// Package activity synthesizes the family feed: recent joins, goal
// creations and ledger transactions merged into one ordered timeline.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"budgetme/internal/family/models"
	"budgetme/internal/family/store"
	id "budgetme/pkg/domain"
	"budgetme/pkg/email"
)

// DefaultLimit caps the feed when the caller passes no positive limit.
const DefaultLimit = 10

// fallbackActor labels events whose actor profile could not be resolved.
const fallbackActor = "Someone"

// Builder turns recent records into feed events. Amounts stay structured
// on the event; descriptions never format currency, that is the caller's
// job with the family's currency preference in hand.
type Builder struct {
	profiles store.ProfileReader
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for actor lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// New builds a feed builder. profiles may be nil, in which case every
// event carries the fallback actor label.
func New(profiles store.ProfileReader, opts ...Option) *Builder {
	b := &Builder{
		profiles: profiles,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build merges the three sources into one feed, newest first, ties broken
// by record id so repeated builds over the same rows agree, truncated to
// limit (DefaultLimit when limit is not positive). A failed actor lookup
// keeps the affected events and degrades only their actor label.
func (b *Builder) Build(ctx context.Context, joins []models.Membership, goals []models.Goal, txns []models.Transaction, limit int) []models.ActivityEvent {
	if limit <= 0 {
		limit = DefaultLimit
	}

	profiles := b.resolveActors(ctx, joins, goals, txns)

	events := make([]models.ActivityEvent, 0, len(joins)+len(goals)+len(txns))
	for _, m := range joins {
		events = append(events, describeJoin(m, actorName(profiles, m.UserID)))
	}
	for _, g := range goals {
		events = append(events, describeGoal(g, actorName(profiles, g.CreatedBy)))
	}
	for _, t := range txns {
		events = append(events, describeTransaction(t, actorName(profiles, t.UserID)))
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.After(events[j].Timestamp)
		}
		return events[i].RecordID < events[j].RecordID
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events
}

// resolveActors bulk-loads the profiles behind every event in one read.
// Lookup failure degrades the labels, never the feed.
func (b *Builder) resolveActors(ctx context.Context, joins []models.Membership, goals []models.Goal, txns []models.Transaction) map[id.UserID]models.Profile {
	if b.profiles == nil {
		return nil
	}
	seen := make(map[id.UserID]struct{}, len(joins)+len(goals)+len(txns))
	ids := make([]id.UserID, 0, len(joins)+len(goals)+len(txns))
	add := func(uid id.UserID) {
		if _, ok := seen[uid]; ok {
			return
		}
		seen[uid] = struct{}{}
		ids = append(ids, uid)
	}
	for _, m := range joins {
		add(m.UserID)
	}
	for _, g := range goals {
		add(g.CreatedBy)
	}
	for _, t := range txns {
		add(t.UserID)
	}
	if len(ids) == 0 {
		return nil
	}
	profiles, err := b.profiles.Profiles(ctx, ids)
	if err != nil {
		b.logger.WarnContext(ctx, "actor lookup failed, falling back to placeholder labels",
			"error", err, "actors", len(ids))
		return nil
	}
	return profiles
}

func actorName(profiles map[id.UserID]models.Profile, uid id.UserID) string {
	p, ok := profiles[uid]
	if !ok {
		return fallbackActor
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if derived := email.DisplayName(p.Email); derived != "" {
		return derived
	}
	return fallbackActor
}

func describeJoin(m models.Membership, actor string) models.ActivityEvent {
	desc := fmt.Sprintf("%s joined the family", actor)
	if m.Status == models.StatusPending {
		desc = fmt.Sprintf("%s requested to join the family", actor)
	}
	return models.ActivityEvent{
		Kind:        models.ActivityMemberJoined,
		RecordID:    m.ID.String(),
		ActorID:     m.UserID,
		ActorName:   actor,
		Description: desc,
		Timestamp:   m.JoinedAt,
	}
}

func describeGoal(g models.Goal, actor string) models.ActivityEvent {
	amt := g.TargetAmount
	return models.ActivityEvent{
		Kind:        models.ActivityGoalCreated,
		RecordID:    g.ID.String(),
		ActorID:     g.CreatedBy,
		ActorName:   actor,
		Description: fmt.Sprintf("%s created the goal %q", actor, g.Name),
		Amount:      &amt,
		Timestamp:   g.CreatedAt,
	}
}

func describeTransaction(t models.Transaction, actor string) models.ActivityEvent {
	var desc string
	switch t.Type {
	case models.TxnIncome:
		desc = fmt.Sprintf("%s recorded income", actor)
	case models.TxnExpense:
		desc = fmt.Sprintf("%s recorded an expense", actor)
	case models.TxnContribution:
		desc = fmt.Sprintf("%s made a goal contribution", actor)
	default:
		desc = fmt.Sprintf("%s recorded a transaction", actor)
	}
	amt := t.Amount
	return models.ActivityEvent{
		Kind:        models.ActivityTransaction,
		RecordID:    t.ID.String(),
		ActorID:     t.UserID,
		ActorName:   actor,
		Description: desc,
		Amount:      &amt,
		Timestamp:   t.Date,
	}
}
