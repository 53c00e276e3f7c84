// Package store defines the read ports the sync engine pulls family data
// through. Implementations are interface-driven so the engine can run
// against Postgres in production, the in-memory store in tests and
// single-node dev, and the Redis profile cache as a decorator.
//
// All reads are point-in-time: the engine re-reads after change
// notifications instead of trusting any payload a notification carries.
package store

import (
	"context"

	"budgetme/internal/family/models"
	id "budgetme/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks

// MembershipReader exposes the three independent paths to answer "which
// family does this user belong to". They differ in freshness and cost:
//
//   - OverviewMembership reads the precomputed member-overview view, the
//     cheapest path and the first to lag behind a write.
//   - ActiveMembership queries the membership relation directly.
//   - ScanMemberships walks the raw rows, all statuses included, and is
//     the slowest but most complete fallback.
//
// Each can fail independently; callers treat them as separate answers to
// consult in order, not as a single store.
type MembershipReader interface {
	OverviewMembership(ctx context.Context, userID id.UserID) (*models.Membership, error)
	ActiveMembership(ctx context.Context, userID id.UserID) (*models.Membership, error)
	ScanMemberships(ctx context.Context, userID id.UserID) ([]models.Membership, error)
}

// FamilyReader loads family records.
type FamilyReader interface {
	Family(ctx context.Context, familyID id.FamilyID) (*models.Family, error)
}

// MemberReader loads family rosters.
type MemberReader interface {
	ActiveMembers(ctx context.Context, familyID id.FamilyID) ([]models.Membership, error)
}

// GoalReader loads goals.
type GoalReader interface {
	GoalsByFamily(ctx context.Context, familyID id.FamilyID) ([]models.Goal, error)
	RecentGoals(ctx context.Context, familyID id.FamilyID, limit int) ([]models.Goal, error)
}

// ContributionReader loads contributions.
type ContributionReader interface {
	ContributionsByGoals(ctx context.Context, goalIDs []id.GoalID) ([]models.Contribution, error)
}

// TransactionReader loads ledger entries scoped to a family's roster.
type TransactionReader interface {
	RecentTransactions(ctx context.Context, familyID id.FamilyID, memberIDs []id.UserID, limit int) ([]models.Transaction, error)
}

// ProfileReader resolves user profiles for display.
type ProfileReader interface {
	Profile(ctx context.Context, userID id.UserID) (*models.Profile, error)
	Profiles(ctx context.Context, userIDs []id.UserID) (map[id.UserID]models.Profile, error)
}

// Reader bundles every port for wiring convenience in main.
type Reader interface {
	MembershipReader
	FamilyReader
	MemberReader
	GoalReader
	ContributionReader
	TransactionReader
	ProfileReader
}

// cachedReader overlays a profile cache on a base reader. Explicit methods
// win over the embedded ones, so only profile lookups are redirected.
type cachedReader struct {
	Reader
	profiles ProfileReader
}

// WithProfileCache returns base with profile lookups served by profiles.
func WithProfileCache(base Reader, profiles ProfileReader) Reader {
	return cachedReader{Reader: base, profiles: profiles}
}

func (r cachedReader) Profile(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	return r.profiles.Profile(ctx, userID)
}

func (r cachedReader) Profiles(ctx context.Context, userIDs []id.UserID) (map[id.UserID]models.Profile, error) {
	return r.profiles.Profiles(ctx, userIDs)
}
