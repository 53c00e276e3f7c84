package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetme/internal/family/live"
	"budgetme/internal/family/models"
	id "budgetme/pkg/domain"
)

// SnapshotResponse is the HTTP shape of the full live view.
type SnapshotResponse struct {
	UserID          id.UserID             `json:"user_id"`
	State           string                `json:"state"`
	IsLive          bool                  `json:"is_live"`
	IsMember        bool                  `json:"is_member"`
	Membership      *models.Membership    `json:"membership,omitempty"`
	Source          string                `json:"membership_source"`
	Pending         *models.Membership    `json:"pending_membership,omitempty"`
	Family          *models.Family        `json:"family,omitempty"`
	Members         []models.Membership   `json:"members,omitempty"`
	Currency        string                `json:"currency,omitempty"`
	Summary         models.SummaryMetrics `json:"summary"`
	Feed            []FeedEvent           `json:"feed,omitempty"`
	Degraded        bool                  `json:"degraded"`
	DataUnavailable string                `json:"data_unavailable,omitempty"`
	LastRefresh     map[string]time.Time  `json:"last_refresh,omitempty"`
}

// MembershipResponse is the HTTP shape of the membership portion.
type MembershipResponse struct {
	IsMember   bool               `json:"is_member"`
	Membership *models.Membership `json:"membership,omitempty"`
	Source     string             `json:"source"`
	Pending    *models.Membership `json:"pending,omitempty"`
}

// SummaryResponse pairs the metrics with the currency they are stated in.
type SummaryResponse struct {
	Currency string                `json:"currency,omitempty"`
	Summary  models.SummaryMetrics `json:"summary"`
}

// ActivityResponse is the rendered feed.
type ActivityResponse struct {
	Events []FeedEvent `json:"events"`
}

// LivenessResponse reports subscription health.
type LivenessResponse struct {
	State           string               `json:"state"`
	IsLive          bool                 `json:"is_live"`
	Degraded        bool                 `json:"degraded"`
	DataUnavailable string               `json:"data_unavailable,omitempty"`
	LastRefresh     map[string]time.Time `json:"last_refresh,omitempty"`
}

// RefreshResponse acknowledges an accepted manual refresh.
type RefreshResponse struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}

// FeedEvent is one activity entry with the amount rendered in the family
// currency, the way the app shows it.
type FeedEvent struct {
	Kind          string           `json:"kind"`
	RecordID      string           `json:"record_id"`
	ActorID       id.UserID        `json:"actor_id"`
	ActorName     string           `json:"actor_name"`
	Description   string           `json:"description"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	AmountDisplay string           `json:"amount_display,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// FromSnapshot converts the engine snapshot to its HTTP shape.
func FromSnapshot(snap live.Snapshot) *SnapshotResponse {
	return &SnapshotResponse{
		UserID:          snap.UserID,
		State:           string(snap.State),
		IsLive:          snap.IsLive,
		IsMember:        snap.IsMember(),
		Membership:      snap.Membership,
		Source:          string(snap.MembershipSource),
		Pending:         snap.Pending,
		Family:          snap.Family,
		Members:         snap.Members,
		Currency:        snapshotCurrency(snap),
		Summary:         snap.Summary,
		Feed:            FromFeed(snap.Feed, snapshotCurrency(snap)),
		Degraded:        snap.Degraded,
		DataUnavailable: snap.DataUnavailable,
		LastRefresh:     snap.LastRefresh,
	}
}

// FromFeed renders feed events, formatting amounts in the family currency.
func FromFeed(events []models.ActivityEvent, currency string) []FeedEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]FeedEvent, len(events))
	for i, ev := range events {
		out[i] = FeedEvent{
			Kind:        string(ev.Kind),
			RecordID:    ev.RecordID,
			ActorID:     ev.ActorID,
			ActorName:   ev.ActorName,
			Description: ev.Description,
			Amount:      ev.Amount,
			Timestamp:   ev.Timestamp,
		}
		if ev.Amount != nil {
			out[i].AmountDisplay = FormatAmount(currency, *ev.Amount)
		}
	}
	return out
}

func snapshotCurrency(snap live.Snapshot) string {
	if snap.Family == nil {
		return ""
	}
	return snap.Family.CurrencyPref
}

// currencySymbols covers the currencies the app offers in family settings.
var currencySymbols = map[string]string{
	"PHP": "₱",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"MXN": "$",
	"INR": "₹",
}

// FormatAmount renders an amount the way the app displays money:
// "₱1,200.00". Unknown or empty currency codes fall back to a code prefix.
func FormatAmount(currency string, amount decimal.Decimal) string {
	fixed := groupThousands(amount.StringFixed(2))
	code := strings.ToUpper(strings.TrimSpace(currency))
	if sym, ok := currencySymbols[code]; ok {
		return sym + fixed
	}
	if code == "" {
		return fixed
	}
	return code + " " + fixed
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String()
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
