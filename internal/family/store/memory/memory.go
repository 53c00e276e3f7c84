// Package memory implements the family read ports over in-process maps.
//
// It backs unit tests and single-node development. Two properties matter
// beyond plain storage:
//
//   - The member-overview path reads a separate snapshot that only
//     advances on SyncOverview, so tests can reproduce the precomputed
//     view lagging behind the membership relation.
//   - Every read path accepts injected faults, so resolver and manager
//     tests can model partial outages deterministically.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"budgetme/internal/family/models"
	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/sentinel"
)

// Read path names for fault injection.
const (
	PathOverview      = "membership_overview"
	PathActive        = "membership_active"
	PathScan          = "membership_scan"
	PathFamily        = "family"
	PathMembers       = "members"
	PathGoals         = "goals"
	PathRecentGoals   = "recent_goals"
	PathContributions = "contributions"
	PathTransactions  = "transactions"
	PathProfile       = "profile"
	PathProfiles      = "profiles"
)

type fault struct {
	err       error
	remaining int // negative means until cleared
}

// Store is an in-memory implementation of every read port.
type Store struct {
	mu            sync.RWMutex
	profiles      map[id.UserID]models.Profile
	families      map[id.FamilyID]models.Family
	memberships   map[id.MembershipID]models.Membership
	overview      map[id.UserID]models.Membership
	goals         map[id.GoalID]models.Goal
	contributions map[id.ContributionID]models.Contribution
	transactions  map[id.TransactionID]models.Transaction
	faults        map[string]*fault
}

// New builds an empty store.
func New() *Store {
	return &Store{
		profiles:      make(map[id.UserID]models.Profile),
		families:      make(map[id.FamilyID]models.Family),
		memberships:   make(map[id.MembershipID]models.Membership),
		overview:      make(map[id.UserID]models.Membership),
		goals:         make(map[id.GoalID]models.Goal),
		contributions: make(map[id.ContributionID]models.Contribution),
		transactions:  make(map[id.TransactionID]models.Transaction),
		faults:        make(map[string]*fault),
	}
}

// -----------------------------------------------------------------------------
// Fault injection
// -----------------------------------------------------------------------------

// FailNext makes the next read on path return err.
func (s *Store) FailNext(path string, err error) {
	s.FailN(path, err, 1)
}

// FailN makes the next n reads on path return err.
func (s *Store) FailN(path string, err error, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = &fault{err: err, remaining: n}
}

// SetErr makes every read on path return err until ClearFaults.
func (s *Store) SetErr(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = &fault{err: err, remaining: -1}
}

// ClearFaults removes all injected faults.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]*fault)
}

// takeFault consumes one shot of an injected fault. It takes the write
// lock itself because limited faults mutate their remaining count.
func (s *Store) takeFault(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.faults[path]
	if !ok {
		return nil
	}
	if f.remaining < 0 {
		return f.err
	}
	f.remaining--
	if f.remaining <= 0 {
		delete(s.faults, path)
	}
	return f.err
}

// -----------------------------------------------------------------------------
// Seeding (used by tests and the dev backend)
// -----------------------------------------------------------------------------

// PutProfile stores or replaces a profile.
func (s *Store) PutProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// PutFamily stores or replaces a family.
func (s *Store) PutFamily(f models.Family) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[f.ID] = f
}

// PutMembership stores or replaces a membership row. The overview snapshot
// does not see it until SyncOverview runs.
func (s *Store) PutMembership(m models.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[m.ID] = m
}

// DeleteMembership removes a membership row.
func (s *Store) DeleteMembership(membershipID id.MembershipID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memberships, membershipID)
}

// SyncOverview recomputes the member-overview snapshot from the current
// membership rows, the way the backend's materialized view refresh would.
func (s *Store) SyncOverview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overview = make(map[id.UserID]models.Membership)
	for _, m := range s.memberships {
		if m.Status == models.StatusActive {
			s.overview[m.UserID] = m
		}
	}
}

// PutGoal stores or replaces a goal.
func (s *Store) PutGoal(g models.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
}

// PutContribution stores or replaces a contribution.
func (s *Store) PutContribution(c models.Contribution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributions[c.ID] = c
}

// PutTransaction stores or replaces a transaction.
func (s *Store) PutTransaction(t models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
}

// -----------------------------------------------------------------------------
// MembershipReader
// -----------------------------------------------------------------------------

// OverviewMembership reads the precomputed overview snapshot.
func (s *Store) OverviewMembership(ctx context.Context, userID id.UserID) (*models.Membership, error) {
	if err := s.takeFault(PathOverview); err != nil {
		return nil, fmt.Errorf("read member overview: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.overview[userID]
	if !ok {
		return nil, fmt.Errorf("read member overview: %w", sentinel.ErrNotFound)
	}
	return &m, nil
}

// ActiveMembership queries the membership rows directly for an active one.
func (s *Store) ActiveMembership(ctx context.Context, userID id.UserID) (*models.Membership, error) {
	if err := s.takeFault(PathActive); err != nil {
		return nil, fmt.Errorf("query active membership: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.Status == models.StatusActive {
			found := m
			return &found, nil
		}
	}
	return nil, fmt.Errorf("query active membership: %w", sentinel.ErrNotFound)
}

// ScanMemberships walks every membership row for the user, any status.
func (s *Store) ScanMemberships(ctx context.Context, userID id.UserID) ([]models.Membership, error) {
	if err := s.takeFault(PathScan); err != nil {
		return nil, fmt.Errorf("scan memberships: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// -----------------------------------------------------------------------------
// FamilyReader / MemberReader
// -----------------------------------------------------------------------------

// Family loads one family record.
func (s *Store) Family(ctx context.Context, familyID id.FamilyID) (*models.Family, error) {
	if err := s.takeFault(PathFamily); err != nil {
		return nil, fmt.Errorf("read family: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.families[familyID]
	if !ok {
		return nil, fmt.Errorf("read family: %w", sentinel.ErrNotFound)
	}
	return &f, nil
}

// ActiveMembers lists a family's active memberships, oldest join first.
func (s *Store) ActiveMembers(ctx context.Context, familyID id.FamilyID) ([]models.Membership, error) {
	if err := s.takeFault(PathMembers); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Membership
	for _, m := range s.memberships {
		if m.FamilyID == familyID && m.Status == models.StatusActive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// -----------------------------------------------------------------------------
// GoalReader / ContributionReader / TransactionReader
// -----------------------------------------------------------------------------

// GoalsByFamily lists every goal belonging to a family.
func (s *Store) GoalsByFamily(ctx context.Context, familyID id.FamilyID) ([]models.Goal, error) {
	if err := s.takeFault(PathGoals); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Goal
	for _, g := range s.goals {
		if g.FamilyID == familyID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// RecentGoals lists a family's newest goals, most recent first.
func (s *Store) RecentGoals(ctx context.Context, familyID id.FamilyID, limit int) ([]models.Goal, error) {
	if err := s.takeFault(PathRecentGoals); err != nil {
		return nil, fmt.Errorf("list recent goals: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Goal
	for _, g := range s.goals {
		if g.FamilyID == familyID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ContributionsByGoals lists contributions for any of the given goals.
func (s *Store) ContributionsByGoals(ctx context.Context, goalIDs []id.GoalID) ([]models.Contribution, error) {
	if err := s.takeFault(PathContributions); err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	want := make(map[id.GoalID]struct{}, len(goalIDs))
	for _, gid := range goalIDs {
		want[gid] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Contribution
	for _, c := range s.contributions {
		if _, ok := want[c.GoalID]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// RecentTransactions lists the newest transactions for a family, filtered
// to the given member set when non-empty.
func (s *Store) RecentTransactions(ctx context.Context, familyID id.FamilyID, memberIDs []id.UserID, limit int) ([]models.Transaction, error) {
	if err := s.takeFault(PathTransactions); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	members := make(map[id.UserID]struct{}, len(memberIDs))
	for _, uid := range memberIDs {
		members[uid] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Transaction
	for _, t := range s.transactions {
		if t.FamilyID != familyID {
			continue
		}
		if len(members) > 0 {
			if _, ok := members[t.UserID]; !ok {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// ProfileReader
// -----------------------------------------------------------------------------

// Profile loads one profile.
func (s *Store) Profile(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	if err := s.takeFault(PathProfile); err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("read profile: %w", sentinel.ErrNotFound)
	}
	return &p, nil
}

// Profiles loads profiles in bulk; unknown ids are simply absent from the
// result so callers can degrade per row.
func (s *Store) Profiles(ctx context.Context, userIDs []id.UserID) (map[id.UserID]models.Profile, error) {
	if err := s.takeFault(PathProfiles); err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.UserID]models.Profile, len(userIDs))
	for _, uid := range userIDs {
		if p, ok := s.profiles[uid]; ok {
			out[uid] = p
		}
	}
	return out, nil
}
