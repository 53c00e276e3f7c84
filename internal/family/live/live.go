// Package live keeps one user's family view fresh.
//
// A Manager owns the full set of change-notification subscriptions for the
// user's current family context, plus one user-scoped watch on the user's
// own membership row that outlives every family context. Notifications are
// coalesced per refresh key, refreshed through bounded retries, folded into
// summary metrics and the activity feed, and exposed as an immutable
// Snapshot.
//
// All manager state lives on a single run goroutine; commands, change
// notifications and fetch completions reach it through channels, so there
// are no locks around the state machine itself. Every family context gets
// a monotonically increasing epoch; fetches and subscriptions carry the
// epoch they were born under and anything stale on arrival is counted and
// dropped, never applied.
//
// A Service multiplexes Managers per attached user session and sweeps the
// ones nobody polled for too long.
package live

import (
	"time"

	"budgetme/internal/family/models"
	"budgetme/internal/family/resolver"
	id "budgetme/pkg/domain"
)

// State of a Manager's subscription lifecycle.
type State string

const (
	// StateIdle means no family context: nothing family-scoped is open.
	StateIdle State = "idle"
	// StateEstablishing means a family context is known and its
	// subscriptions are settling or partially open.
	StateEstablishing State = "establishing"
	// StateActive means every family subscription is live.
	StateActive State = "active"
	// StateTearingDown means the previous context's subscriptions are
	// being closed.
	StateTearingDown State = "tearing_down"
)

// Refresh keys name the independently refreshable slices of the snapshot.
// They key the throttle, the in-flight registry, the metrics and the
// manual-refresh API.
const (
	KeyMembership = "membership"
	KeyFamily     = "family"
	KeyMembers    = "members"
	KeySummary    = "summary"
	KeyActivity   = "activity"
)

// RefreshKeys lists every valid refresh key, membership first.
func RefreshKeys() []string {
	return []string{KeyMembership, KeyFamily, KeyMembers, KeySummary, KeyActivity}
}

// ValidKey reports whether key names a refreshable snapshot slice.
func ValidKey(key string) bool {
	switch key {
	case KeyMembership, KeyFamily, KeyMembers, KeySummary, KeyActivity:
		return true
	}
	return false
}

// Snapshot is the engine's exposed view of one user's family state. It is
// a value: the Manager replaces it wholesale and never mutates a published
// copy, so callers may hold it as long as they like.
type Snapshot struct {
	UserID id.UserID `json:"user_id"`
	State  State     `json:"state"`
	// IsLive reports that every family subscription is open, so the view
	// updates without polling.
	IsLive bool `json:"is_live"`

	// Membership is the user's resolved active membership, nil when the
	// user belongs to no family. Pending carries a not-yet-approved row
	// when one exists, so callers can show an invitation state.
	Membership       *models.Membership `json:"membership,omitempty"`
	MembershipSource resolver.Source    `json:"membership_source"`
	Pending          *models.Membership `json:"pending_membership,omitempty"`

	Family  *models.Family         `json:"family,omitempty"`
	Members []models.Membership    `json:"members,omitempty"`
	Summary models.SummaryMetrics  `json:"summary"`
	Feed    []models.ActivityEvent `json:"activity,omitempty"`

	// Degraded is set while at least one refresh key has exhausted its
	// retry budget; the affected slices keep their last known-good data.
	Degraded        bool   `json:"degraded"`
	DataUnavailable string `json:"data_unavailable,omitempty"`

	LastRefresh map[string]time.Time `json:"last_refresh,omitempty"`
}

// IsMember reports whether the snapshot carries an active membership.
func (s Snapshot) IsMember() bool { return s.Membership != nil }
