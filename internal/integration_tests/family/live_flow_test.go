// Full-stack flow tests: real engine, memory backends, real tokens, real
// middleware chain. They cover what the per-package tests cannot, change
// events propagating through the bus into what a polling client sees.
package family

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetme/internal/changefeed"
	membus "budgetme/internal/changefeed/memory"
	"budgetme/internal/family/handler"
	"budgetme/internal/family/live"
	"budgetme/internal/family/models"
	memstore "budgetme/internal/family/store/memory"
	jwttoken "budgetme/internal/jwt_token"
	"budgetme/internal/platform/config"
	"budgetme/internal/platform/logger"
	"budgetme/internal/platform/middleware"
	id "budgetme/pkg/domain"
	"budgetme/pkg/testutil"
)

type flowWorld struct {
	router     chi.Router
	store      *memstore.Store
	bus        *membus.Bus
	user       id.UserID
	family     id.FamilyID
	goal       id.GoalID
	membership id.MembershipID
	token      string
}

func newFlowWorld(t *testing.T) *flowWorld {
	t.Helper()

	st := memstore.New()
	bus := membus.NewBus()
	t.Cleanup(bus.Close)

	user := id.UserID(uuid.New())
	family := id.FamilyID(uuid.New())
	goal := id.GoalID(uuid.New())
	membership := id.MembershipID(uuid.New())

	st.PutProfile(models.Profile{ID: user, DisplayName: "Ana", Email: "ana@example.com", CreatedAt: time.Now().Add(-40 * 24 * time.Hour)})
	st.PutFamily(models.Family{
		ID: family, Name: "Reyes Household", Visibility: models.VisibilityPrivate,
		OwnerID: user, CurrencyPref: "PHP",
		CreatedAt: time.Now().Add(-30 * 24 * time.Hour), UpdatedAt: time.Now().Add(-time.Hour),
	})
	st.PutMembership(models.Membership{
		ID: membership, FamilyID: family, UserID: user,
		Role: models.RoleAdmin, Status: models.StatusActive, JoinedAt: time.Now().Add(-30 * 24 * time.Hour),
	})
	st.SyncOverview()
	st.PutGoal(models.Goal{
		ID: goal, FamilyID: family, Name: "Laptop",
		TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(300),
		Status: models.GoalInProgress, Priority: models.PriorityMedium,
		CreatedBy: user, CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
	})
	st.PutContribution(models.Contribution{
		ID: id.ContributionID(uuid.New()), GoalID: goal, UserID: user,
		Amount: decimal.NewFromInt(300), CreatedAt: time.Now().Add(-9 * 24 * time.Hour),
	})

	cfg := config.SyncConfig{
		ThrottleWindow:     40 * time.Millisecond,
		SettleDelay:        10 * time.Millisecond,
		RetryAttempts:      2,
		RetryDelay:         5 * time.Millisecond,
		FetchTimeout:       time.Second,
		FeedLimit:          10,
		SweepInterval:      time.Minute,
		SessionIdleTimeout: time.Minute,
	}
	svc := live.NewService(st, bus, cfg, live.WithServiceLogger(logger.Discard()))
	t.Cleanup(func() { _ = svc.Close() })

	jwtService := jwttoken.NewJWTService("flow-test-key", "budgetme-test", "budgetme-app")
	token, err := jwtService.GenerateAccessToken(user, uuid.New(), time.Hour)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.RequestID)
		v1.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), logger.Discard()))
		handler.New(svc, logger.Discard()).Register(v1)
	})

	return &flowWorld{
		router: r, store: st, bus: bus,
		user: user, family: family, goal: goal, membership: membership,
		token: token,
	}
}

func (w *flowWorld) snapshot(t *testing.T) *handler.SnapshotResponse {
	t.Helper()
	req := testutil.BearerRequest(t, http.MethodGet, "/v1/family/snapshot", w.token)
	rr := testutil.DoRequest(w.router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	return testutil.UnmarshalResponse[handler.SnapshotResponse](t, rr)
}

func (w *flowWorld) waitLive(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := w.snapshot(t)
		return snap.IsLive && snap.Family != nil && snap.Summary.GoalCount > 0
	}, 3*time.Second, 15*time.Millisecond, "session never went live")
}

func (w *flowWorld) publish(table changefeed.Table, op changefeed.Op) {
	w.bus.Publish(changefeed.Event{
		Table:    table,
		Op:       op,
		FamilyID: w.family,
		UserID:   w.user,
		RecordID: uuid.New(),
		At:       time.Now(),
	})
}

// waitWindow lets the coalescing window opened by the establish-time
// refreshes expire, so the published event triggers a fetch instead of
// being absorbed into one that already read older state.
func (w *flowWorld) waitWindow() {
	time.Sleep(80 * time.Millisecond)
}

func TestLiveFlow_ContributionUpdatesSummary(t *testing.T) {
	w := newFlowWorld(t)
	w.waitLive(t)

	require.True(t, w.snapshot(t).Summary.TotalContributed.Equal(decimal.NewFromInt(300)))
	w.waitWindow()

	w.store.PutContribution(models.Contribution{
		ID: id.ContributionID(uuid.New()), GoalID: w.goal, UserID: w.user,
		Amount: decimal.NewFromInt(200), CreatedAt: time.Now(),
	})
	w.store.PutGoal(models.Goal{
		ID: w.goal, FamilyID: w.family, Name: "Laptop",
		TargetAmount: decimal.NewFromInt(1000), CurrentAmount: decimal.NewFromInt(500),
		Status: models.GoalInProgress, Priority: models.PriorityMedium,
		CreatedBy: w.user, CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
	})
	w.publish(changefeed.TableContributions, changefeed.OpInsert)

	require.Eventually(t, func() bool {
		snap := w.snapshot(t)
		return snap.Summary.TotalContributed.Equal(decimal.NewFromInt(500)) &&
			snap.Summary.TotalCurrent.Equal(decimal.NewFromInt(500))
	}, 3*time.Second, 15*time.Millisecond, "summary never caught up with the new contribution")
}

func TestLiveFlow_TransactionAppearsInFeed(t *testing.T) {
	w := newFlowWorld(t)
	w.waitLive(t)
	w.waitWindow()

	txn := models.Transaction{
		ID: id.TransactionID(uuid.New()), FamilyID: w.family, UserID: w.user,
		Amount: decimal.NewFromInt(120), Type: models.TxnExpense,
		Notes: "school supplies", Date: time.Now(),
	}
	w.store.PutTransaction(txn)
	w.publish(changefeed.TableTransactions, changefeed.OpInsert)

	require.Eventually(t, func() bool {
		for _, ev := range w.snapshot(t).Feed {
			if ev.RecordID == txn.ID.String() {
				return true
			}
		}
		return false
	}, 3*time.Second, 15*time.Millisecond, "transaction never reached the feed")

	var found handler.FeedEvent
	for _, ev := range w.snapshot(t).Feed {
		if ev.RecordID == txn.ID.String() {
			found = ev
		}
	}
	assert.Equal(t, string(models.ActivityTransaction), found.Kind)
	assert.Equal(t, "Ana", found.ActorName)
	require.NotNil(t, found.Amount)
	assert.Contains(t, found.AmountDisplay, "₱")
}

func TestLiveFlow_RemovalLeavesFamily(t *testing.T) {
	w := newFlowWorld(t)
	w.waitLive(t)

	w.store.DeleteMembership(w.membership)
	w.store.SyncOverview()
	w.publish(changefeed.TableMemberships, changefeed.OpDelete)

	require.Eventually(t, func() bool {
		snap := w.snapshot(t)
		return !snap.IsMember && snap.Family == nil
	}, 3*time.Second, 15*time.Millisecond, "removal never tore down the family view")
}

func TestLiveFlow_ManualRefreshPicksUpQuietWrite(t *testing.T) {
	w := newFlowWorld(t)
	w.waitLive(t)

	// A write nothing announced on the bus, the kind a backfill job makes.
	txn := models.Transaction{
		ID: id.TransactionID(uuid.New()), FamilyID: w.family, UserID: w.user,
		Amount: decimal.NewFromInt(75), Type: models.TxnIncome,
		Notes: "rebate", Date: time.Now(),
	}
	w.store.PutTransaction(txn)

	req := testutil.BearerRequest(t, http.MethodPost, "/v1/family/refresh/activity", w.token)
	rr := testutil.DoRequest(w.router, req)
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	require.Eventually(t, func() bool {
		for _, ev := range w.snapshot(t).Feed {
			if ev.RecordID == txn.ID.String() {
				return true
			}
		}
		return false
	}, 3*time.Second, 15*time.Millisecond, "manual refresh never surfaced the quiet write")
}

func TestLiveFlow_UnknownTokenRejected(t *testing.T) {
	w := newFlowWorld(t)

	req := testutil.BearerRequest(t, http.MethodGet, "/v1/family/snapshot", "not-a-real-token")
	rr := testutil.DoRequest(w.router, req)
	testutil.AssertError(t, rr, http.StatusUnauthorized, "unauthorized")
}
