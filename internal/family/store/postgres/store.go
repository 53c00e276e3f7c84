// Package postgres implements the family read ports against PostgreSQL.
//
// The store is strictly read-only: the account and budgeting services own
// these tables, the engine only queries them. Driver errors are translated
// to sentinel errors at this boundary so the retry and resolver layers can
// classify failures without knowing pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetme/internal/family/models"
	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/sentinel"
)

// Store reads family records from a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a PostgreSQL-backed read store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// mapError translates driver failures into sentinel errors.
//
// SQLSTATE classes 08 (connection), 53 (resources) and 57 (operator
// intervention, including query_canceled from statement timeouts) are
// transient. 42501 means the role lost read grants and retrying cannot
// help. Everything else passes through wrapped.
func mapError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: query timeout: %w", op, sentinel.ErrUnavailable)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501":
			return fmt.Errorf("%s: %s: %w", op, pgErr.Message, sentinel.ErrPermissionDenied)
		case pgErr.Code == "22P02":
			return fmt.Errorf("%s: %s: %w", op, pgErr.Message, sentinel.ErrMalformed)
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "53"),
			strings.HasPrefix(pgErr.Code, "57"):
			return fmt.Errorf("%s: %s: %w", op, pgErr.Message, sentinel.ErrUnavailable)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

const membershipColumns = `id, family_id, user_id, role, status, joined_at`

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var (
		m             models.Membership
		mid, fid, uid uuid.UUID
		role, status  string
	)
	if err := row.Scan(&mid, &fid, &uid, &role, &status, &m.JoinedAt); err != nil {
		return nil, err
	}
	m.ID = id.MembershipID(mid)
	m.FamilyID = id.FamilyID(fid)
	m.UserID = id.UserID(uid)
	m.Role = models.Role(role)
	m.Status = models.MemberStatus(status)
	return &m, nil
}

func collectMemberships(rows pgx.Rows) ([]models.Membership, error) {
	defer rows.Close()

	var out []models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// OverviewMembership reads the precomputed member-overview view. The view
// is refreshed asynchronously, so it can lag just-written membership rows.
func (s *Store) OverviewMembership(ctx context.Context, userID id.UserID) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM family_members_overview
		WHERE user_id = $1
	`
	m, err := scanMembership(s.pool.QueryRow(ctx, query, uuid.UUID(userID)))
	if err != nil {
		return nil, mapError("overview membership", err)
	}
	return m, nil
}

// ActiveMembership queries the membership relation directly. If a write
// race briefly leaves two active rows, the most recent join wins.
func (s *Store) ActiveMembership(ctx context.Context, userID id.UserID) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM family_members
		WHERE user_id = $1 AND status = 'active'
		ORDER BY joined_at DESC
		LIMIT 1
	`
	m, err := scanMembership(s.pool.QueryRow(ctx, query, uuid.UUID(userID)))
	if err != nil {
		return nil, mapError("active membership", err)
	}
	return m, nil
}

// ScanMemberships walks every membership row for the user, all statuses
// included, oldest join first.
func (s *Store) ScanMemberships(ctx context.Context, userID id.UserID) ([]models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM family_members
		WHERE user_id = $1
		ORDER BY joined_at
	`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, mapError("scan memberships", err)
	}
	out, err := collectMemberships(rows)
	if err != nil {
		return nil, mapError("scan memberships", err)
	}
	return out, nil
}

// Family loads one family record.
func (s *Store) Family(ctx context.Context, familyID id.FamilyID) (*models.Family, error) {
	query := `
		SELECT id, name, description, visibility, owner_id, currency_pref, created_at, updated_at
		FROM families
		WHERE id = $1
	`
	var (
		f          models.Family
		fid, owner uuid.UUID
		visibility string
	)
	err := s.pool.QueryRow(ctx, query, uuid.UUID(familyID)).Scan(
		&fid, &f.Name, &f.Description, &visibility, &owner, &f.CurrencyPref, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, mapError("load family", err)
	}
	f.ID = id.FamilyID(fid)
	f.OwnerID = id.UserID(owner)
	f.Visibility = models.Visibility(visibility)
	return &f, nil
}

// ActiveMembers returns the active roster, oldest join first.
func (s *Store) ActiveMembers(ctx context.Context, familyID id.FamilyID) ([]models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM family_members
		WHERE family_id = $1 AND status = 'active'
		ORDER BY joined_at
	`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(familyID))
	if err != nil {
		return nil, mapError("list active members", err)
	}
	out, err := collectMemberships(rows)
	if err != nil {
		return nil, mapError("list active members", err)
	}
	return out, nil
}

const goalColumns = `id, family_id, name, target_amount, current_amount, deadline, status, priority, created_by, created_at`

func collectGoals(rows pgx.Rows) ([]models.Goal, error) {
	defer rows.Close()

	var out []models.Goal
	for rows.Next() {
		var (
			g            models.Goal
			gid, creator uuid.UUID
			fid          *uuid.UUID
			status, prio string
		)
		err := rows.Scan(&gid, &fid, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&g.Deadline, &status, &prio, &creator, &g.CreatedAt)
		if err != nil {
			return nil, err
		}
		g.ID = id.GoalID(gid)
		if fid != nil {
			g.FamilyID = id.FamilyID(*fid)
		}
		g.Status = models.GoalStatus(status)
		g.Priority = models.GoalPriority(prio)
		g.CreatedBy = id.UserID(creator)
		out = append(out, g)
	}
	return out, rows.Err()
}

// GoalsByFamily returns every goal shared with the family.
func (s *Store) GoalsByFamily(ctx context.Context, familyID id.FamilyID) ([]models.Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE family_id = $1
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(familyID))
	if err != nil {
		return nil, mapError("list family goals", err)
	}
	out, err := collectGoals(rows)
	if err != nil {
		return nil, mapError("list family goals", err)
	}
	return out, nil
}

// RecentGoals returns the newest family goals, capped at limit.
func (s *Store) RecentGoals(ctx context.Context, familyID id.FamilyID, limit int) ([]models.Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE family_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(familyID), limit)
	if err != nil {
		return nil, mapError("list recent goals", err)
	}
	out, err := collectGoals(rows)
	if err != nil {
		return nil, mapError("list recent goals", err)
	}
	return out, nil
}

// ContributionsByGoals returns every contribution against the given goals.
func (s *Store) ContributionsByGoals(ctx context.Context, goalIDs []id.GoalID) ([]models.Contribution, error) {
	if len(goalIDs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(goalIDs))
	for i, gid := range goalIDs {
		ids[i] = uuid.UUID(gid)
	}

	query := `
		SELECT id, goal_id, user_id, amount, note, created_at
		FROM goal_contributions
		WHERE goal_id = ANY($1)
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, mapError("list contributions", err)
	}
	defer rows.Close()

	var out []models.Contribution
	for rows.Next() {
		var (
			c             models.Contribution
			cid, gid, uid uuid.UUID
		)
		if err := rows.Scan(&cid, &gid, &uid, &c.Amount, &c.Note, &c.CreatedAt); err != nil {
			return nil, mapError("list contributions", err)
		}
		c.ID = id.ContributionID(cid)
		c.GoalID = id.GoalID(gid)
		c.UserID = id.UserID(uid)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list contributions", err)
	}
	return out, nil
}

// RecentTransactions returns the newest ledger entries recorded by the given
// roster members. An empty roster sees nothing.
func (s *Store) RecentTransactions(ctx context.Context, familyID id.FamilyID, memberIDs []id.UserID, limit int) ([]models.Transaction, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	members := make([]uuid.UUID, len(memberIDs))
	for i, uid := range memberIDs {
		members[i] = uuid.UUID(uid)
	}

	query := `
		SELECT id, family_id, user_id, goal_id, amount, type, notes, date
		FROM transactions
		WHERE family_id = $1 AND user_id = ANY($2)
		ORDER BY date DESC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(familyID), members, limit)
	if err != nil {
		return nil, mapError("list recent transactions", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			t        models.Transaction
			tid, uid uuid.UUID
			fid, gid *uuid.UUID
			txnType  string
		)
		if err := rows.Scan(&tid, &fid, &uid, &gid, &t.Amount, &txnType, &t.Notes, &t.Date); err != nil {
			return nil, mapError("list recent transactions", err)
		}
		t.ID = id.TransactionID(tid)
		if fid != nil {
			t.FamilyID = id.FamilyID(*fid)
		}
		if gid != nil {
			t.GoalID = id.GoalID(*gid)
		}
		t.UserID = id.UserID(uid)
		t.Type = models.TransactionType(txnType)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list recent transactions", err)
	}
	return out, nil
}

const profileColumns = `id, display_name, email, avatar_url, created_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		p   models.Profile
		pid uuid.UUID
	)
	if err := row.Scan(&pid, &p.DisplayName, &p.Email, &p.AvatarURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = id.UserID(pid)
	return &p, nil
}

// Profile loads one user profile.
func (s *Store) Profile(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE id = $1
	`
	p, err := scanProfile(s.pool.QueryRow(ctx, query, uuid.UUID(userID)))
	if err != nil {
		return nil, mapError("load profile", err)
	}
	return p, nil
}

// Profiles bulk-loads user profiles. Missing users are simply absent from
// the result, not an error.
func (s *Store) Profiles(ctx context.Context, userIDs []id.UserID) (map[id.UserID]models.Profile, error) {
	out := make(map[id.UserID]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(userIDs))
	for i, uid := range userIDs {
		ids[i] = uuid.UUID(uid)
	}

	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE id = ANY($1)
	`
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, mapError("load profiles", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, mapError("load profiles", err)
		}
		out[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("load profiles", err)
	}
	return out, nil
}

// RefreshOverview forces a synchronous refresh of the member-overview
// view. Production refreshes it on a schedule; tests call this to make
// the overview path observe recent writes.
func (s *Store) RefreshOverview(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `REFRESH MATERIALIZED VIEW family_members_overview`); err != nil {
		return mapError("refresh overview", err)
	}
	return nil
}
