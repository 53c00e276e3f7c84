package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"budgetme/internal/changefeed"
)

func TestChannelFor(t *testing.T) {
	assert.Equal(t, "budgetme_families", ChannelFor(changefeed.TableFamilies))
	assert.Equal(t, "budgetme_family_members", ChannelFor(changefeed.TableMemberships))
	assert.Equal(t, "budgetme_goals", ChannelFor(changefeed.TableGoals))
	assert.Equal(t, "budgetme_goal_contributions", ChannelFor(changefeed.TableContributions))
	assert.Equal(t, "budgetme_transactions", ChannelFor(changefeed.TableTransactions))
}
