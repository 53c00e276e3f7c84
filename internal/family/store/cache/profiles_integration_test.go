//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"budgetme/internal/family/models"
	"budgetme/internal/family/store/cache"
	"budgetme/internal/family/store/mocks"
	"budgetme/internal/platform/logger"
	"budgetme/pkg/domain"
	"budgetme/pkg/testutil/containers"
)

type ProfileCacheSuite struct {
	suite.Suite
	rc  *containers.RedisContainer
	ctx context.Context
}

func TestProfileCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProfileCacheSuite))
}

func (s *ProfileCacheSuite) SetupSuite() {
	s.rc = containers.GetManager().GetRedis(s.T())
	s.ctx = context.Background()
}

func (s *ProfileCacheSuite) SetupTest() {
	s.Require().NoError(s.rc.Client.FlushAll(s.ctx).Err())
}

func (s *ProfileCacheSuite) newCache(inner *mocks.MockProfileReader) *cache.Profiles {
	return cache.NewProfiles(inner, s.rc.Client, time.Minute, cache.WithLogger(logger.Discard()))
}

func (s *ProfileCacheSuite) TestSecondLookupSkipsInner() {
	ctrl := gomock.NewController(s.T())
	inner := mocks.NewMockProfileReader(ctrl)
	c := s.newCache(inner)

	userID := domain.UserID(uuid.New())
	inner.EXPECT().Profile(gomock.Any(), userID).
		Return(&models.Profile{ID: userID, DisplayName: "Alice"}, nil).
		Times(1)

	for range 3 {
		got, err := c.Profile(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal("Alice", got.DisplayName)
	}
}

func (s *ProfileCacheSuite) TestCorruptEntryFallsThrough() {
	ctrl := gomock.NewController(s.T())
	inner := mocks.NewMockProfileReader(ctrl)
	c := s.newCache(inner)

	userID := domain.UserID(uuid.New())
	s.Require().NoError(s.rc.Client.Set(s.ctx, "profile:"+userID.String(), "{broken", time.Minute).Err())

	inner.EXPECT().Profile(gomock.Any(), userID).
		Return(&models.Profile{ID: userID, DisplayName: "Alice"}, nil)

	got, err := c.Profile(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)

	// The corrupt entry was replaced; the next read is a pure hit.
	got, err = c.Profile(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)
}

func (s *ProfileCacheSuite) TestBulkMixedHitAndMiss() {
	ctrl := gomock.NewController(s.T())
	inner := mocks.NewMockProfileReader(ctrl)
	c := s.newCache(inner)

	alice := domain.UserID(uuid.New())
	bob := domain.UserID(uuid.New())

	inner.EXPECT().Profile(gomock.Any(), alice).
		Return(&models.Profile{ID: alice, DisplayName: "Alice"}, nil)
	_, err := c.Profile(s.ctx, alice)
	s.Require().NoError(err)

	// Only bob is missing, so the bulk path must ask for exactly him.
	inner.EXPECT().Profiles(gomock.Any(), []domain.UserID{bob}).
		Return(map[domain.UserID]models.Profile{bob: {ID: bob, DisplayName: "Bob"}}, nil)

	got, err := c.Profiles(s.ctx, []domain.UserID{alice, bob})
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal("Alice", got[alice].DisplayName)
	s.Equal("Bob", got[bob].DisplayName)
}

func (s *ProfileCacheSuite) TestInvalidateForcesReload() {
	ctrl := gomock.NewController(s.T())
	inner := mocks.NewMockProfileReader(ctrl)
	c := s.newCache(inner)

	userID := domain.UserID(uuid.New())
	inner.EXPECT().Profile(gomock.Any(), userID).
		Return(&models.Profile{ID: userID, DisplayName: "Alice"}, nil).
		Times(2)

	_, err := c.Profile(s.ctx, userID)
	s.Require().NoError(err)

	c.Invalidate(s.ctx, userID)

	_, err = c.Profile(s.ctx, userID)
	s.Require().NoError(err)
}
