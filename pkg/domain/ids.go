// Package domain holds the identifier and enum types shared across features.
//
// IDs are distinct named types over uuid.UUID so a FamilyID can never be
// passed where a UserID is expected. All external input crosses through the
// ParseXxxID functions, which reject empty, malformed and nil UUIDs.
package domain

import (
	"fmt"

	"github.com/google/uuid"

	"budgetme/pkg/platform/sentinel"
)

type (
	// UserID identifies a profile (auth user).
	UserID uuid.UUID
	// FamilyID identifies a family. The zero value means "no family
	// context" (personal scope).
	FamilyID uuid.UUID
	// MembershipID identifies a membership row linking a user to a family.
	MembershipID uuid.UUID
	// GoalID identifies a savings goal.
	GoalID uuid.UUID
	// ContributionID identifies a single contribution toward a goal.
	ContributionID uuid.UUID
	// TransactionID identifies a ledger transaction.
	TransactionID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id FamilyID) String() string       { return uuid.UUID(id).String() }
func (id MembershipID) String() string   { return uuid.UUID(id).String() }
func (id GoalID) String() string         { return uuid.UUID(id).String() }
func (id ContributionID) String() string { return uuid.UUID(id).String() }
func (id TransactionID) String() string  { return uuid.UUID(id).String() }

// IsZero reports whether the family ID is the "no family" zero value.
func (id FamilyID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

func parseID[T ~[16]byte](kind, s string) (T, error) {
	var zero T
	if s == "" {
		return zero, fmt.Errorf("parse %s: empty: %w", kind, sentinel.ErrMalformed)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %v: %w", kind, err, sentinel.ErrMalformed)
	}
	if u == uuid.Nil {
		return zero, fmt.Errorf("parse %s: nil uuid: %w", kind, sentinel.ErrMalformed)
	}
	return T(u), nil
}

// ParseUserID validates and converts an external string into a UserID.
func ParseUserID(s string) (UserID, error) { return parseID[UserID]("user id", s) }

// ParseFamilyID validates and converts an external string into a FamilyID.
func ParseFamilyID(s string) (FamilyID, error) { return parseID[FamilyID]("family id", s) }

// ParseMembershipID validates and converts an external string into a MembershipID.
func ParseMembershipID(s string) (MembershipID, error) {
	return parseID[MembershipID]("membership id", s)
}

// ParseGoalID validates and converts an external string into a GoalID.
func ParseGoalID(s string) (GoalID, error) { return parseID[GoalID]("goal id", s) }

// ParseContributionID validates and converts an external string into a ContributionID.
func ParseContributionID(s string) (ContributionID, error) {
	return parseID[ContributionID]("contribution id", s)
}

// ParseTransactionID validates and converts an external string into a TransactionID.
func ParseTransactionID(s string) (TransactionID, error) {
	return parseID[TransactionID]("transaction id", s)
}
