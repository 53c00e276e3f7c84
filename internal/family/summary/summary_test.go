package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetme/internal/family/models"
	id "budgetme/pkg/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func goal(target, current string, status models.GoalStatus) models.Goal {
	return models.Goal{
		ID:            id.GoalID(uuid.New()),
		Name:          "Goal",
		TargetAmount:  dec(target),
		CurrentAmount: dec(current),
		Status:        status,
	}
}

func contribution(userID id.UserID, amount string) models.Contribution {
	return models.Contribution{
		ID:     id.ContributionID(uuid.New()),
		GoalID: id.GoalID(uuid.New()),
		UserID: userID,
		Amount: dec(amount),
	}
}

func TestAggregate_SingleGoalWithTwoContributions(t *testing.T) {
	contributor := id.UserID(uuid.New())
	goals := []models.Goal{goal("1000", "550", models.GoalInProgress)}
	contribs := []models.Contribution{
		contribution(contributor, "300"),
		contribution(contributor, "250"),
	}

	m := Aggregate(goals, contribs)

	assert.True(t, m.TotalCurrent.Equal(dec("550")), "current = %s", m.TotalCurrent)
	assert.True(t, m.Remaining.Equal(dec("450")), "remaining = %s", m.Remaining)
	assert.True(t, m.ProgressRate.Equal(dec("55")), "rate = %s", m.ProgressRate)
	assert.Equal(t, 2, m.ContributionCount)
	assert.True(t, m.TotalContributed.Equal(dec("550")))
}

func TestAggregate_EmptyInputIsValidZeros(t *testing.T) {
	m := Aggregate(nil, nil)

	assert.True(t, m.TotalTarget.IsZero())
	assert.True(t, m.TotalCurrent.IsZero())
	assert.True(t, m.Remaining.IsZero())
	assert.True(t, m.ProgressRate.IsZero())
	assert.Zero(t, m.GoalCount)
	assert.Zero(t, m.CompletedGoals)
	assert.Zero(t, m.ContributionCount)
	assert.Empty(t, m.Goals)
}

func TestAggregate_ZeroTargetIsZeroRate(t *testing.T) {
	m := Aggregate([]models.Goal{goal("0", "100", models.GoalInProgress)}, nil)

	assert.True(t, m.ProgressRate.IsZero())
	require.Len(t, m.Goals, 1)
	assert.True(t, m.Goals[0].Rate.IsZero())
}

func TestAggregate_ConservationHoldsExactly(t *testing.T) {
	cases := [][]models.Goal{
		{goal("1000", "550", models.GoalInProgress)},
		{goal("19999.99", "0.01", models.GoalInProgress), goal("0.02", "7000", models.GoalInProgress)},
		{goal("100", "100", models.GoalCompleted), goal("3.33", "1.11", models.GoalInProgress)},
	}
	for _, goals := range cases {
		m := Aggregate(goals, nil)
		assert.True(t, m.TotalTarget.Equal(m.TotalCurrent.Add(m.Remaining)),
			"target %s != current %s + remaining %s", m.TotalTarget, m.TotalCurrent, m.Remaining)
	}
}

func TestAggregate_OverfundedGoalIsNotClamped(t *testing.T) {
	m := Aggregate([]models.Goal{goal("100", "150", models.GoalInProgress)}, nil)

	assert.True(t, m.Remaining.Equal(dec("-50")))
	assert.True(t, m.ProgressRate.Equal(dec("150")))
	assert.True(t, m.TotalTarget.Equal(m.TotalCurrent.Add(m.Remaining)))
}

func TestAggregate_CountsCompletedGoals(t *testing.T) {
	goals := []models.Goal{
		goal("100", "100", models.GoalCompleted),
		goal("200", "50", models.GoalInProgress),
		goal("300", "300", models.GoalCompleted),
		goal("50", "0", models.GoalCancelled),
	}

	m := Aggregate(goals, nil)

	assert.Equal(t, 4, m.GoalCount)
	assert.Equal(t, 2, m.CompletedGoals)
	assert.Len(t, m.Goals, 4)
}

func TestAggregate_PerGoalRates(t *testing.T) {
	goals := []models.Goal{
		goal("1000", "250", models.GoalInProgress),
		goal("300", "100", models.GoalInProgress),
	}

	m := Aggregate(goals, nil)

	require.Len(t, m.Goals, 2)
	assert.True(t, m.Goals[0].Rate.Equal(dec("25")))
	assert.True(t, m.Goals[1].Rate.Equal(dec("33.33")), "rate = %s", m.Goals[1].Rate)
}

func namedLookup(names map[id.UserID]string) ProfileLookup {
	return func(_ context.Context, userIDs []id.UserID) (map[id.UserID]models.Profile, error) {
		out := make(map[id.UserID]models.Profile)
		for _, uid := range userIDs {
			if name, ok := names[uid]; ok {
				out[uid] = models.Profile{ID: uid, DisplayName: name}
			}
		}
		return out, nil
	}
}

func TestRollup_RanksByTotalThenName(t *testing.T) {
	ana := id.UserID(uuid.New())
	ben := id.UserID(uuid.New())
	cara := id.UserID(uuid.New())
	contribs := []models.Contribution{
		contribution(ben, "100"),
		contribution(ana, "250"),
		contribution(cara, "100"),
		contribution(ana, "50"),
	}
	lookup := namedLookup(map[id.UserID]string{ana: "Ana", ben: "Ben", cara: "Cara"})

	rows := RollupByContributor(context.Background(), contribs, lookup)

	require.Len(t, rows, 3)
	assert.Equal(t, "Ana", rows[0].DisplayName)
	assert.True(t, rows[0].Total.Equal(dec("300")))
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, "Ben", rows[1].DisplayName, "equal totals break ties by name")
	assert.Equal(t, "Cara", rows[2].DisplayName)
}

func TestRollup_SharePercents(t *testing.T) {
	ana := id.UserID(uuid.New())
	ben := id.UserID(uuid.New())
	contribs := []models.Contribution{
		contribution(ana, "300"),
		contribution(ben, "100"),
	}
	lookup := namedLookup(map[id.UserID]string{ana: "Ana", ben: "Ben"})

	rows := RollupByContributor(context.Background(), contribs, lookup)

	require.Len(t, rows, 2)
	assert.True(t, rows[0].SharePercent.Equal(dec("75")))
	assert.True(t, rows[1].SharePercent.Equal(dec("25")))
}

func TestRollup_LookupFailureKeepsEveryRow(t *testing.T) {
	ana := id.UserID(uuid.New())
	contribs := []models.Contribution{contribution(ana, "100")}
	failing := func(context.Context, []id.UserID) (map[id.UserID]models.Profile, error) {
		return nil, errors.New("profiles unavailable")
	}

	rows := RollupByContributor(context.Background(), contribs, failing)

	require.Len(t, rows, 1)
	assert.Equal(t, UnknownContributor, rows[0].DisplayName)
	assert.True(t, rows[0].Total.Equal(dec("100")))
}

func TestRollup_PartialLookupDegradesOnlyMissing(t *testing.T) {
	ana := id.UserID(uuid.New())
	ghost := id.UserID(uuid.New())
	contribs := []models.Contribution{
		contribution(ana, "200"),
		contribution(ghost, "100"),
	}
	lookup := namedLookup(map[id.UserID]string{ana: "Ana"})

	rows := RollupByContributor(context.Background(), contribs, lookup)

	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0].DisplayName)
	assert.Equal(t, UnknownContributor, rows[1].DisplayName)
}

func TestRollup_BlankDisplayNameDerivesFromEmail(t *testing.T) {
	ana := id.UserID(uuid.New())
	contribs := []models.Contribution{contribution(ana, "100")}
	lookup := func(context.Context, []id.UserID) (map[id.UserID]models.Profile, error) {
		return map[id.UserID]models.Profile{
			ana: {ID: ana, Email: "jose_luis@example.com"},
		}, nil
	}

	rows := RollupByContributor(context.Background(), contribs, lookup)

	require.Len(t, rows, 1)
	assert.Equal(t, "Jose Luis", rows[0].DisplayName)
}

func TestRollup_EmptyInput(t *testing.T) {
	assert.Nil(t, RollupByContributor(context.Background(), nil, namedLookup(nil)))
}

func TestRollup_OneBulkLookupPerCall(t *testing.T) {
	ana := id.UserID(uuid.New())
	ben := id.UserID(uuid.New())
	contribs := []models.Contribution{
		contribution(ana, "10"),
		contribution(ben, "20"),
		contribution(ana, "30"),
	}

	calls := 0
	lookup := func(_ context.Context, userIDs []id.UserID) (map[id.UserID]models.Profile, error) {
		calls++
		assert.Len(t, userIDs, 2, "one id per contributor, deduplicated")
		return nil, nil
	}

	RollupByContributor(context.Background(), contribs, lookup)
	assert.Equal(t, 1, calls)
}
