package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
)

type testWorld struct {
	router chi.Router
	store  *memstore.Store
	bus    *membus.Bus
	user   id.UserID
	family id.FamilyID
	token  string
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()

	st := memstore.New()
	bus := membus.NewBus()
	t.Cleanup(bus.Close)

	user := id.UserID(uuid.New())
	partner := id.UserID(uuid.New())
	family := id.FamilyID(uuid.New())
	goal := id.GoalID(uuid.New())

	st.PutProfile(models.Profile{ID: user, DisplayName: "Ana", Email: "ana@example.com", CreatedAt: time.Now().Add(-90 * 24 * time.Hour)})
	st.PutProfile(models.Profile{ID: partner, DisplayName: "Ben", Email: "ben@example.com", CreatedAt: time.Now().Add(-60 * 24 * time.Hour)})
	st.PutFamily(models.Family{
		ID:           family,
		Name:         "Santos Household",
		Visibility:   models.VisibilityPrivate,
		OwnerID:      user,
		CurrencyPref: "PHP",
		CreatedAt:    time.Now().Add(-30 * 24 * time.Hour),
		UpdatedAt:    time.Now().Add(-time.Hour),
	})
	st.PutMembership(models.Membership{
		ID: id.MembershipID(uuid.New()), FamilyID: family, UserID: user,
		Role: models.RoleAdmin, Status: models.StatusActive, JoinedAt: time.Now().Add(-30 * 24 * time.Hour),
	})
	st.PutMembership(models.Membership{
		ID: id.MembershipID(uuid.New()), FamilyID: family, UserID: partner,
		Role: models.RoleMember, Status: models.StatusActive, JoinedAt: time.Now().Add(-20 * 24 * time.Hour),
	})
	st.SyncOverview()
	st.PutGoal(models.Goal{
		ID: goal, FamilyID: family, Name: "Emergency Fund",
		TargetAmount: decimal.NewFromInt(5000), CurrentAmount: decimal.NewFromInt(1500),
		Status: models.GoalInProgress, Priority: models.PriorityHigh,
		CreatedBy: user, CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
	})
	st.PutContribution(models.Contribution{
		ID: id.ContributionID(uuid.New()), GoalID: goal, UserID: user,
		Amount: decimal.NewFromInt(1500), CreatedAt: time.Now().Add(-9 * 24 * time.Hour),
	})
	st.PutTransaction(models.Transaction{
		ID: id.TransactionID(uuid.New()), FamilyID: family, UserID: partner,
		Amount: decimal.NewFromInt(240), Type: models.TxnExpense,
		Notes: "groceries", Date: time.Now().Add(-2 * time.Hour),
	})

	cfg := config.SyncConfig{
		ThrottleWindow:     60 * time.Millisecond,
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

	jwtService := jwttoken.NewJWTService("test-signing-key", "budgetme-test", "budgetme-app")
	token, err := jwtService.GenerateAccessToken(user, uuid.New(), time.Hour)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.RequestID)
		v1.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), logger.Discard()))
		handler.New(svc, logger.Discard()).Register(v1)
	})

	return &testWorld{router: r, store: st, bus: bus, user: user, family: family, token: token}
}

func (w *testWorld) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+w.token)
	rec := httptest.NewRecorder()
	w.router.ServeHTTP(rec, req)
	return rec
}

// waitLive polls the snapshot endpoint until the session reports live with
// data loaded, returning the last response.
func (w *testWorld) waitLive(t *testing.T) handler.SnapshotResponse {
	t.Helper()
	var resp handler.SnapshotResponse
	require.Eventually(t, func() bool {
		rec := w.do(t, http.MethodGet, "/v1/family/snapshot")
		if rec.Code != http.StatusOK {
			return false
		}
		resp = handler.SnapshotResponse{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			return false
		}
		return resp.IsLive && resp.Family != nil && resp.Summary.GoalCount > 0 && len(resp.Feed) > 0
	}, 2*time.Second, 10*time.Millisecond)
	return resp
}

func TestSnapshotEndpoint(t *testing.T) {
	w := newTestWorld(t)

	resp := w.waitLive(t)

	assert.True(t, resp.IsMember)
	assert.Equal(t, "overview", resp.Source)
	assert.Equal(t, "Santos Household", resp.Family.Name)
	assert.Equal(t, "PHP", resp.Currency)
	assert.Len(t, resp.Members, 2)
	assert.Equal(t, 1, resp.Summary.GoalCount)
	assert.True(t, resp.Summary.TotalContributed.Equal(decimal.NewFromInt(1500)))
	assert.False(t, resp.Degraded)
	for _, key := range live.RefreshKeys() {
		assert.Contains(t, resp.LastRefresh, key)
	}
}

func TestSnapshotRequiresAuth(t *testing.T) {
	w := newTestWorld(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/family/snapshot", nil)
	rec := httptest.NewRecorder()
	w.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMembershipEndpoint(t *testing.T) {
	w := newTestWorld(t)
	w.waitLive(t)

	rec := w.do(t, http.MethodGet, "/v1/family/membership")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.MembershipResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsMember)
	require.NotNil(t, resp.Membership)
	assert.Equal(t, w.family, resp.Membership.FamilyID)
	assert.Nil(t, resp.Pending)
}

func TestSummaryEndpointCarriesCurrency(t *testing.T) {
	w := newTestWorld(t)
	w.waitLive(t)

	rec := w.do(t, http.MethodGet, "/v1/family/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PHP", resp.Currency)
	assert.True(t, resp.Summary.TotalTarget.Equal(decimal.NewFromInt(5000)))
	require.Len(t, resp.Summary.ByContributor, 1)
	assert.Equal(t, "Ana", resp.Summary.ByContributor[0].DisplayName)
}

func TestActivityEndpointFormatsAmounts(t *testing.T) {
	w := newTestWorld(t)
	w.waitLive(t)

	rec := w.do(t, http.MethodGet, "/v1/family/activity")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Events)

	var sawMoney bool
	for _, ev := range resp.Events {
		if ev.Amount != nil {
			sawMoney = true
			assert.Contains(t, ev.AmountDisplay, "₱")
		}
	}
	assert.True(t, sawMoney, "feed should carry at least one money event")
}

func TestLivenessEndpoint(t *testing.T) {
	w := newTestWorld(t)
	w.waitLive(t)

	rec := w.do(t, http.MethodGet, "/v1/family/live")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(live.StateActive), resp.State)
	assert.True(t, resp.IsLive)
	assert.False(t, resp.Degraded)
}

func TestRefreshEndpoint(t *testing.T) {
	w := newTestWorld(t)
	w.waitLive(t)

	rec := w.do(t, http.MethodPost, "/v1/family/refresh/summary")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp handler.RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "summary", resp.Key)
	assert.Equal(t, "refreshing", resp.Status)
}

func TestRefreshEndpointRejectsUnknownKey(t *testing.T) {
	w := newTestWorld(t)
	w.waitLive(t)

	rec := w.do(t, http.MethodPost, "/v1/family/refresh/bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

func TestDetachEndpoint(t *testing.T) {
	w := newTestWorld(t)
	w.waitLive(t)

	rec := w.do(t, http.MethodDelete, "/v1/family/session")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = w.do(t, http.MethodDelete, "/v1/family/session")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
