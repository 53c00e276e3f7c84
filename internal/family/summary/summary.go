// Package summary folds raw goal and contribution records into the derived
// dashboard numbers. Everything here is recomputed from scratch on each
// refresh and never persisted; a failed refresh keeps the previous values
// upstream, so these functions never see partial data.
package summary

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"budgetme/internal/family/models"
	id "budgetme/pkg/domain"
	"budgetme/pkg/email"
)

var hundred = decimal.NewFromInt(100)

// UnknownContributor labels rollup rows whose profile could not be
// resolved, typically a member who has since left.
const UnknownContributor = "Unknown member"

// rate returns current/target as a percentage, rounded to two decimals.
// A zero target is 0%, not a division error.
func rate(current, target decimal.Decimal) decimal.Decimal {
	if target.IsZero() {
		return decimal.Zero
	}
	return current.Div(target).Mul(hundred).Round(2)
}

// Aggregate computes the family's headline numbers. Pure: no I/O, no
// shared state, an empty input is a valid all-zeros result.
//
// Remaining is target minus current without clamping, so
// TotalTarget = TotalCurrent + Remaining holds exactly even for
// overfunded goals (where ProgressRate exceeds 100).
func Aggregate(goals []models.Goal, contribs []models.Contribution) models.SummaryMetrics {
	m := models.SummaryMetrics{
		TotalTarget:      decimal.Zero,
		TotalCurrent:     decimal.Zero,
		Remaining:        decimal.Zero,
		ProgressRate:     decimal.Zero,
		TotalContributed: decimal.Zero,
		GoalCount:        len(goals),
	}

	for _, g := range goals {
		m.TotalTarget = m.TotalTarget.Add(g.TargetAmount)
		m.TotalCurrent = m.TotalCurrent.Add(g.CurrentAmount)
		if g.Status == models.GoalCompleted {
			m.CompletedGoals++
		}
		m.Goals = append(m.Goals, models.GoalProgress{
			GoalID:  g.ID,
			Name:    g.Name,
			Target:  g.TargetAmount,
			Current: g.CurrentAmount,
			Rate:    rate(g.CurrentAmount, g.TargetAmount),
			Status:  g.Status,
		})
	}

	m.Remaining = m.TotalTarget.Sub(m.TotalCurrent)
	m.ProgressRate = rate(m.TotalCurrent, m.TotalTarget)

	m.ContributionCount = len(contribs)
	for _, c := range contribs {
		m.TotalContributed = m.TotalContributed.Add(c.Amount)
	}
	return m
}

// ProfileLookup resolves display names for rollup rows. Bulk, so one
// refresh costs one lookup.
type ProfileLookup func(ctx context.Context, userIDs []id.UserID) (map[id.UserID]models.Profile, error)

// RollupByContributor groups contributions per contributor and ranks the
// result by total descending, display name ascending on ties.
//
// The lookup failing, wholly or for single users, degrades the affected
// rows to a placeholder name; it never drops a row or fails the rollup.
func RollupByContributor(ctx context.Context, contribs []models.Contribution, lookup ProfileLookup) []models.ContributorRollup {
	if len(contribs) == 0 {
		return nil
	}

	totals := make(map[id.UserID]*models.ContributorRollup)
	order := make([]id.UserID, 0, 8)
	grand := decimal.Zero

	for _, c := range contribs {
		row, ok := totals[c.UserID]
		if !ok {
			row = &models.ContributorRollup{UserID: c.UserID, Total: decimal.Zero}
			totals[c.UserID] = row
			order = append(order, c.UserID)
		}
		row.Total = row.Total.Add(c.Amount)
		row.Count++
		grand = grand.Add(c.Amount)
	}

	profiles := resolveProfiles(ctx, order, lookup)
	rows := make([]models.ContributorRollup, 0, len(order))
	for _, uid := range order {
		row := *totals[uid]
		row.DisplayName = contributorName(profiles, uid)
		if !grand.IsZero() {
			row.SharePercent = row.Total.Div(grand).Mul(hundred).Round(2)
		} else {
			row.SharePercent = decimal.Zero
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if cmp := rows[i].Total.Cmp(rows[j].Total); cmp != 0 {
			return cmp > 0
		}
		if rows[i].DisplayName != rows[j].DisplayName {
			return rows[i].DisplayName < rows[j].DisplayName
		}
		return rows[i].UserID.String() < rows[j].UserID.String()
	})
	return rows
}

func resolveProfiles(ctx context.Context, userIDs []id.UserID, lookup ProfileLookup) map[id.UserID]models.Profile {
	if lookup == nil {
		return nil
	}
	profiles, err := lookup(ctx, userIDs)
	if err != nil {
		return nil
	}
	return profiles
}

func contributorName(profiles map[id.UserID]models.Profile, uid id.UserID) string {
	p, ok := profiles[uid]
	if !ok {
		return UnknownContributor
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if derived := email.DisplayName(p.Email); derived != "" {
		return derived
	}
	return UnknownContributor
}
