//go:build integration

package redis_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"budgetme/internal/changefeed"
	feedredis "budgetme/internal/changefeed/redis"
	"budgetme/pkg/domain"
	"budgetme/pkg/testutil/containers"
)

type PubSubSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	src   *feedredis.Source
}

func TestPubSubSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PubSubSuite))
}

func (s *PubSubSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())

	src, err := feedredis.New(s.redis.Client)
	s.Require().NoError(err)
	s.src = src
}

func (s *PubSubSuite) TearDownSuite() {
	if s.src != nil {
		s.Require().NoError(s.src.Close())
	}
}

func (s *PubSubSuite) publish(ev changefeed.Event) {
	payload, err := changefeed.EncodeEvent(ev)
	s.Require().NoError(err)
	err = s.redis.Client.Publish(context.Background(), feedredis.ChannelFor(ev.Table), payload).Err()
	s.Require().NoError(err)
}

func (s *PubSubSuite) waitFor(cond func() bool) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.FailNow("condition not reached in time")
}

func (s *PubSubSuite) TestDeliversMatchingMessages() {
	user := domain.UserID(uuid.New())
	var got atomic.Int32

	sub, err := s.src.Subscribe(context.Background(),
		changefeed.Filter{Table: changefeed.TableMemberships, UserID: user},
		func(changefeed.Event) { got.Add(1) })
	s.Require().NoError(err)
	defer sub.Close()

	s.publish(changefeed.Event{
		Table: changefeed.TableMemberships, Op: changefeed.OpUpdate,
		UserID: user, RecordID: uuid.New(), At: time.Now(),
	})
	s.publish(changefeed.Event{
		Table: changefeed.TableMemberships, Op: changefeed.OpUpdate,
		UserID: domain.UserID(uuid.New()), RecordID: uuid.New(), At: time.Now(),
	})

	s.waitFor(func() bool { return got.Load() == 1 })
	time.Sleep(100 * time.Millisecond)
	s.Equal(int32(1), got.Load())
}

func (s *PubSubSuite) TestCloseStopsDelivery() {
	var got atomic.Int32
	sub, err := s.src.Subscribe(context.Background(),
		changefeed.Filter{Table: changefeed.TableTransactions},
		func(changefeed.Event) { got.Add(1) })
	s.Require().NoError(err)

	s.publish(changefeed.Event{
		Table: changefeed.TableTransactions, Op: changefeed.OpInsert,
		RecordID: uuid.New(), At: time.Now(),
	})
	s.waitFor(func() bool { return got.Load() == 1 })

	s.Require().NoError(sub.Close())

	s.publish(changefeed.Event{
		Table: changefeed.TableTransactions, Op: changefeed.OpInsert,
		RecordID: uuid.New(), At: time.Now(),
	})
	time.Sleep(200 * time.Millisecond)
	s.Equal(int32(1), got.Load())
}
