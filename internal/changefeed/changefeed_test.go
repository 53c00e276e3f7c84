package changefeed

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetme/pkg/domain"
)

func TestFilter_Matches(t *testing.T) {
	family := domain.FamilyID(uuid.New())
	otherFamily := domain.FamilyID(uuid.New())
	user := domain.UserID(uuid.New())
	otherUser := domain.UserID(uuid.New())

	base := Event{
		Table:    TableMemberships,
		Op:       OpInsert,
		FamilyID: family,
		UserID:   user,
		RecordID: uuid.New(),
	}

	cases := []struct {
		name   string
		filter Filter
		event  Event
		want   bool
	}{
		{"table only, same table", Filter{Table: TableMemberships}, base, true},
		{"table only, different table", Filter{Table: TableGoals}, base, false},
		{"family scoped, matching", Filter{Table: TableMemberships, FamilyID: family}, base, true},
		{"family scoped, other family", Filter{Table: TableMemberships, FamilyID: otherFamily}, base, false},
		{"user scoped, matching", Filter{Table: TableMemberships, UserID: user}, base, true},
		{"user scoped, other user", Filter{Table: TableMemberships, UserID: otherUser}, base, false},
		{"member set, included", Filter{Table: TableMemberships, MemberIDs: []domain.UserID{otherUser, user}}, base, true},
		{"member set, excluded", Filter{Table: TableMemberships, MemberIDs: []domain.UserID{otherUser}}, base, false},
		{"family and member set together", Filter{Table: TableMemberships, FamilyID: family, MemberIDs: []domain.UserID{user}}, base, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(tc.event))
		})
	}
}

func TestFilter_ZeroScopesMatchUnscopedEvents(t *testing.T) {
	// A families insert carries no user id; user-agnostic filters must
	// still see it.
	ev := Event{Table: TableFamilies, Op: OpInsert, RecordID: uuid.New()}
	assert.True(t, Filter{Table: TableFamilies}.Matches(ev))
	assert.False(t, Filter{Table: TableFamilies, UserID: domain.UserID(uuid.New())}.Matches(ev))
}

func TestCodec_RoundTrip(t *testing.T) {
	e := Event{
		Table:    TableContributions,
		Op:       OpInsert,
		FamilyID: domain.FamilyID(uuid.New()),
		UserID:   domain.UserID(uuid.New()),
		RecordID: uuid.New(),
		At:       time.Now().UTC().Truncate(time.Millisecond),
	}

	payload, err := EncodeEvent(e)
	require.NoError(t, err)

	got, err := DecodeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestCodec_OmitsZeroScopes(t *testing.T) {
	e := Event{Table: TableFamilies, Op: OpUpdate, RecordID: uuid.New(), At: time.Now().UTC()}

	payload, err := EncodeEvent(e)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "family_id")
	assert.NotContains(t, string(payload), "user_id")

	got, err := DecodeEvent(payload)
	require.NoError(t, err)
	assert.True(t, got.FamilyID.IsZero())
	assert.Equal(t, domain.UserID{}, got.UserID)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "notify me maybe"},
		{"unknown op", `{"table":"goals","op":"upsert","record_id":"550e8400-e29b-41d4-a716-446655440000"}`},
		{"bad record id", `{"table":"goals","op":"insert","record_id":"nope"}`},
		{"bad family id", `{"table":"goals","op":"insert","record_id":"550e8400-e29b-41d4-a716-446655440000","family_id":"nope"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tc.payload))
			require.Error(t, err)
		})
	}
}
