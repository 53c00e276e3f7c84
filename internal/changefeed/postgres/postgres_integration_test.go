//go:build integration

package postgres_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"budgetme/internal/changefeed"
	feedpg "budgetme/internal/changefeed/postgres"
	"budgetme/pkg/domain"
	"budgetme/pkg/testutil/containers"
)

type ListenNotifySuite struct {
	suite.Suite
	pg  *containers.PostgresContainer
	src *feedpg.Source
}

func TestListenNotifySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ListenNotifySuite))
}

func (s *ListenNotifySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.pg = mgr.GetPostgres(s.T())

	src, err := feedpg.New(s.pg.URL)
	s.Require().NoError(err)
	s.src = src
}

func (s *ListenNotifySuite) TearDownSuite() {
	if s.src != nil {
		s.Require().NoError(s.src.Close())
	}
}

func (s *ListenNotifySuite) notify(table changefeed.Table, ev changefeed.Event) {
	payload, err := changefeed.EncodeEvent(ev)
	s.Require().NoError(err)
	err = s.pg.Exec(context.Background(), "SELECT pg_notify($1, $2)", feedpg.ChannelFor(table), string(payload))
	s.Require().NoError(err)
}

func (s *ListenNotifySuite) waitFor(cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.FailNow("condition not reached in time")
}

func (s *ListenNotifySuite) TestDeliversMatchingNotifications() {
	family := domain.FamilyID(uuid.New())
	var got atomic.Int32

	sub, err := s.src.Subscribe(context.Background(),
		changefeed.Filter{Table: changefeed.TableGoals, FamilyID: family},
		func(changefeed.Event) { got.Add(1) })
	s.Require().NoError(err)
	defer sub.Close()

	s.notify(changefeed.TableGoals, changefeed.Event{
		Table: changefeed.TableGoals, Op: changefeed.OpInsert,
		FamilyID: family, RecordID: uuid.New(), At: time.Now(),
	})
	s.notify(changefeed.TableGoals, changefeed.Event{
		Table: changefeed.TableGoals, Op: changefeed.OpInsert,
		FamilyID: domain.FamilyID(uuid.New()), RecordID: uuid.New(), At: time.Now(),
	})

	s.waitFor(func() bool { return got.Load() == 1 })
	time.Sleep(100 * time.Millisecond)
	s.Equal(int32(1), got.Load(), "event for another family must not be delivered")
}

func (s *ListenNotifySuite) TestMalformedPayloadDoesNotKillLoop() {
	var got atomic.Int32
	sub, err := s.src.Subscribe(context.Background(),
		changefeed.Filter{Table: changefeed.TableContributions},
		func(changefeed.Event) { got.Add(1) })
	s.Require().NoError(err)
	defer sub.Close()

	err = s.pg.Exec(context.Background(), "SELECT pg_notify($1, $2)",
		feedpg.ChannelFor(changefeed.TableContributions), "{broken json")
	s.Require().NoError(err)

	s.notify(changefeed.TableContributions, changefeed.Event{
		Table: changefeed.TableContributions, Op: changefeed.OpInsert,
		RecordID: uuid.New(), At: time.Now(),
	})

	s.waitFor(func() bool { return got.Load() == 1 })
}

func (s *ListenNotifySuite) TestClosedSubscriptionStopsDelivery() {
	var got atomic.Int32
	sub, err := s.src.Subscribe(context.Background(),
		changefeed.Filter{Table: changefeed.TableMemberships},
		func(changefeed.Event) { got.Add(1) })
	s.Require().NoError(err)

	s.notify(changefeed.TableMemberships, changefeed.Event{
		Table: changefeed.TableMemberships, Op: changefeed.OpInsert,
		RecordID: uuid.New(), At: time.Now(),
	})
	s.waitFor(func() bool { return got.Load() == 1 })

	s.Require().NoError(sub.Close())
	s.Require().NoError(sub.Close())

	s.notify(changefeed.TableMemberships, changefeed.Event{
		Table: changefeed.TableMemberships, Op: changefeed.OpUpdate,
		RecordID: uuid.New(), At: time.Now(),
	})
	time.Sleep(200 * time.Millisecond)
	s.Equal(int32(1), got.Load())
}
