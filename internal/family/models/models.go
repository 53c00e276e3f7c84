// Package models defines the family-scope data shapes the engine reads and
// serves. The engine never writes these records; they are produced by the
// account and budgeting services and reach us through the read stores.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/sentinel"
)

// Role is a member's permission level inside a family.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// String returns the string representation.
func (r Role) String() string { return string(r) }

// ParseRole creates a Role from a string, validating it.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q: %w", s, sentinel.ErrMalformed)
	}
	return r, nil
}

// MemberStatus is the lifecycle state of a membership row.
type MemberStatus string

const (
	StatusActive   MemberStatus = "active"
	StatusPending  MemberStatus = "pending"
	StatusInactive MemberStatus = "inactive"
	StatusRemoved  MemberStatus = "removed"
)

// IsValid checks if the status is one of the supported enum values.
func (s MemberStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusPending, StatusInactive, StatusRemoved:
		return true
	}
	return false
}

// String returns the string representation.
func (s MemberStatus) String() string { return string(s) }

// ParseMemberStatus creates a MemberStatus from a string, validating it.
func ParseMemberStatus(raw string) (MemberStatus, error) {
	s := MemberStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid member status %q: %w", raw, sentinel.ErrMalformed)
	}
	return s, nil
}

// GoalStatus tracks a goal through its life.
type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not_started"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalCancelled  GoalStatus = "cancelled"
)

// IsValid checks if the goal status is one of the supported enum values.
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalNotStarted, GoalInProgress, GoalCompleted, GoalCancelled:
		return true
	}
	return false
}

// String returns the string representation.
func (s GoalStatus) String() string { return string(s) }

// GoalPriority orders goals on the dashboard.
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

// IsValid checks if the priority is one of the supported enum values.
func (p GoalPriority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TxnIncome       TransactionType = "income"
	TxnExpense      TransactionType = "expense"
	TxnContribution TransactionType = "contribution"
)

// IsValid checks if the transaction type is one of the supported enum values.
func (t TransactionType) IsValid() bool {
	return t == TxnIncome || t == TxnExpense || t == TxnContribution
}

// Visibility controls whether a family is discoverable.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Profile is the public slice of a user account.
type Profile struct {
	ID          id.UserID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Family is a shared budgeting group.
type Family struct {
	ID           id.FamilyID `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Visibility   Visibility  `json:"visibility"`
	OwnerID      id.UserID   `json:"owner_id"`
	CurrencyPref string      `json:"currency_pref"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Membership links a user to a family. The backend aims for at most one
// active membership per user, but the engine must tolerate transient
// violations of that rule during writes.
type Membership struct {
	ID       id.MembershipID `json:"id"`
	FamilyID id.FamilyID     `json:"family_id"`
	UserID   id.UserID       `json:"user_id"`
	Role     Role            `json:"role"`
	Status   MemberStatus    `json:"status"`
	JoinedAt time.Time       `json:"joined_at"`
}

// IsActive reports whether this row represents current membership.
func (m *Membership) IsActive() bool { return m.Status == StatusActive }

// Goal is a savings target, family-shared or personal (zero FamilyID).
type Goal struct {
	ID            id.GoalID       `json:"id"`
	FamilyID      id.FamilyID     `json:"family_id,omitempty"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Status        GoalStatus      `json:"status"`
	Priority      GoalPriority    `json:"priority"`
	CreatedBy     id.UserID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Contribution is one payment toward a goal.
type Contribution struct {
	ID        id.ContributionID `json:"id"`
	GoalID    id.GoalID         `json:"goal_id"`
	UserID    id.UserID         `json:"user_id"`
	Amount    decimal.Decimal   `json:"amount"`
	Note      string            `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Transaction is a ledger entry, optionally linked to a goal.
type Transaction struct {
	ID       id.TransactionID `json:"id"`
	FamilyID id.FamilyID      `json:"family_id,omitempty"`
	UserID   id.UserID        `json:"user_id"`
	GoalID   id.GoalID        `json:"goal_id,omitempty"`
	Amount   decimal.Decimal  `json:"amount"`
	Type     TransactionType  `json:"type"`
	Notes    string           `json:"notes,omitempty"`
	Date     time.Time        `json:"date"`
}

// SummaryMetrics is the aggregated goal picture for a family, recomputed
// from scratch on every refresh.
type SummaryMetrics struct {
	TotalTarget       decimal.Decimal     `json:"total_target"`
	TotalCurrent      decimal.Decimal     `json:"total_current"`
	Remaining         decimal.Decimal     `json:"remaining"`
	ProgressRate      decimal.Decimal     `json:"progress_rate"`
	GoalCount         int                 `json:"goal_count"`
	CompletedGoals    int                 `json:"completed_goals"`
	ContributionCount int                 `json:"contribution_count"`
	TotalContributed  decimal.Decimal     `json:"total_contributed"`
	Goals             []GoalProgress      `json:"goals,omitempty"`
	ByContributor     []ContributorRollup `json:"by_contributor,omitempty"`
}

// GoalProgress is one goal's slice of the summary.
type GoalProgress struct {
	GoalID  id.GoalID       `json:"goal_id"`
	Name    string          `json:"name"`
	Target  decimal.Decimal `json:"target"`
	Current decimal.Decimal `json:"current"`
	Rate    decimal.Decimal `json:"rate"`
	Status  GoalStatus      `json:"status"`
}

// ContributorRollup is one row of the per-member contribution ranking.
type ContributorRollup struct {
	UserID       id.UserID       `json:"user_id"`
	DisplayName  string          `json:"display_name"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
	SharePercent decimal.Decimal `json:"share_percent"`
}

// ActivityKind tags feed entries by origin.
type ActivityKind string

const (
	ActivityMemberJoined ActivityKind = "member_joined"
	ActivityGoalCreated  ActivityKind = "goal_created"
	ActivityTransaction  ActivityKind = "transaction_recorded"
)

// ActivityEvent is one synthesized feed entry. Never persisted. Amount is
// set for kinds that carry money; rendering it in the family's currency is
// the caller's business, not the engine's.
type ActivityEvent struct {
	Kind        ActivityKind     `json:"kind"`
	RecordID    string           `json:"record_id"`
	ActorID     id.UserID        `json:"actor_id"`
	ActorName   string           `json:"actor_name"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}
