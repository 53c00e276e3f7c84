// Package changefeed defines how the engine hears about data changes.
//
// The engine never polls for changes: writer services (or database triggers)
// publish row-level notifications, and the engine subscribes to the slices it
// cares about. A notification carries routing facts only (table, operation,
// scoping ids), never row data; subscribers react by re-reading through the
// store, so a lost or duplicated notification can delay a refresh but never
// corrupt state.
//
// Four backends implement Source: an in-process bus (tests, single-node dev),
// Postgres LISTEN/NOTIFY, Redis Pub/Sub, and Kafka topics.
package changefeed

import (
	"context"
	"time"

	"github.com/google/uuid"

	"budgetme/pkg/domain"
)

//go:generate mockgen -source=changefeed.go -destination=mocks/mocks.go -package=mocks

// Table identifies the logical table a change happened on.
type Table string

const (
	TableFamilies      Table = "families"
	TableMemberships   Table = "family_members"
	TableGoals         Table = "goals"
	TableContributions Table = "goal_contributions"
	TableTransactions  Table = "transactions"
)

// Tables lists every table the feed can carry, in a stable order.
func Tables() []Table {
	return []Table{
		TableFamilies,
		TableMemberships,
		TableGoals,
		TableContributions,
		TableTransactions,
	}
}

// Op is the row operation a notification reports.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is one change notification.
type Event struct {
	Table    Table
	Op       Op
	FamilyID domain.FamilyID
	UserID   domain.UserID
	RecordID uuid.UUID
	At       time.Time
}

// Filter narrows a subscription to the slice of a table a consumer cares
// about. Zero-valued fields match everything, so Filter{Table: TableGoals}
// is "all goal changes" and Filter{Table: TableMemberships, UserID: u} is
// "membership changes concerning user u in any family".
type Filter struct {
	Table    Table
	FamilyID domain.FamilyID
	UserID   domain.UserID
	// MemberIDs, when non-empty, restricts to events whose UserID is in
	// the set. Used to scope transaction changes to the current roster.
	MemberIDs []domain.UserID
}

// Matches reports whether e passes the filter.
func (f Filter) Matches(e Event) bool {
	if f.Table != e.Table {
		return false
	}
	if !f.FamilyID.IsZero() && f.FamilyID != e.FamilyID {
		return false
	}
	if (f.UserID != domain.UserID{}) && f.UserID != e.UserID {
		return false
	}
	if len(f.MemberIDs) > 0 {
		found := false
		for _, id := range f.MemberIDs {
			if id == e.UserID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Handler consumes matched events. Handlers must be quick and must not
// block: backends deliver from their receive loops and slow handlers stall
// or drop subsequent notifications.
type Handler func(Event)

// Source is a stream of change notifications.
type Source interface {
	// Subscribe registers h for events matching f. Delivery runs until the
	// subscription is closed or ctx is cancelled, whichever comes first.
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
}

// Subscription is one active registration on a Source.
type Subscription interface {
	// Close stops delivery and releases backend resources. Idempotent.
	Close() error
}
