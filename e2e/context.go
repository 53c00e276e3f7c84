// Package e2e drives Gherkin scenarios against a full in-process server:
// real engine, real middleware chain, real tokens, memory backends.
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	membus "budgetme/internal/changefeed/memory"
	familyhandler "budgetme/internal/family/handler"
	"budgetme/internal/family/live"
	"budgetme/internal/family/models"
	memstore "budgetme/internal/family/store/memory"
	jwttoken "budgetme/internal/jwt_token"
	"budgetme/internal/platform/config"
	"budgetme/internal/platform/logger"
	httptransport "budgetme/internal/transport/http"
	id "budgetme/pkg/domain"
	"budgetme/pkg/email"
)

// TestContext owns one scenario's world: the server, its backends and the
// identities the steps created. Reset builds a fresh world; Close tears it
// down.
type TestContext struct {
	server *httptest.Server
	store  *memstore.Store
	bus    *membus.Bus
	svc    *live.Service
	jwt    *jwttoken.JWTService

	token    string
	users    map[string]id.UserID
	families map[string]id.FamilyID
	goals    map[string]id.GoalID

	lastStatus int
	lastBody   map[string]any
}

// NewTestContext returns an empty context. Reset must run before the first
// step uses it.
func NewTestContext() *TestContext {
	return &TestContext{}
}

// Reset discards the previous scenario's world and starts a fresh one.
func (tc *TestContext) Reset() {
	tc.Close()

	tc.store = memstore.New()
	tc.bus = membus.NewBus()

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
	tc.svc = live.NewService(tc.store, tc.bus, cfg, live.WithServiceLogger(logger.Discard()))
	tc.jwt = jwttoken.NewJWTService("e2e-signing-key", "budgetme-test", "budgetme-app")

	router := httptransport.NewRouter(httptransport.Deps{
		Family:    familyhandler.New(tc.svc, logger.Discard()),
		Validator: jwttoken.NewJWTServiceAdapter(tc.jwt),
		Logger:    logger.Discard(),
	})
	tc.server = httptest.NewServer(router)

	tc.token = ""
	tc.users = make(map[string]id.UserID)
	tc.families = make(map[string]id.FamilyID)
	tc.goals = make(map[string]id.GoalID)
	tc.lastStatus = 0
	tc.lastBody = nil
}

// Close shuts the scenario's server and engine down. Safe to call on a
// context that never ran Reset.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
	if tc.svc != nil {
		_ = tc.svc.Close()
		tc.svc = nil
	}
	if tc.bus != nil {
		tc.bus.Close()
		tc.bus = nil
	}
}

// -----------------------------------------------------------------------------
// HTTP
// -----------------------------------------------------------------------------

func (tc *TestContext) do(method, path string) error {
	req, err := http.NewRequest(method, tc.server.URL+path, nil)
	if err != nil {
		return err
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(body) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(body, &decoded); err == nil {
			tc.lastBody = decoded
		}
	}
	return nil
}

// GET issues an authenticated GET against the server.
func (tc *TestContext) GET(path string) error { return tc.do(http.MethodGet, path) }

// POST issues an authenticated bodyless POST against the server.
func (tc *TestContext) POST(path string) error { return tc.do(http.MethodPost, path) }

// DELETE issues an authenticated DELETE against the server.
func (tc *TestContext) DELETE(path string) error { return tc.do(http.MethodDelete, path) }

// LastStatus returns the status code of the most recent response.
func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// ResponseField walks a dotted path ("summary.total_contributed") through
// the most recent JSON response.
func (tc *TestContext) ResponseField(path string) (any, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON response recorded")
	}
	var current any = tc.lastBody
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", path, part)
		}
		current, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q: %q not present", path, part)
		}
	}
	return current, nil
}

// HasResponseField reports whether the dotted path resolves in the most
// recent JSON response.
func (tc *TestContext) HasResponseField(path string) bool {
	_, err := tc.ResponseField(path)
	return err == nil
}

// -----------------------------------------------------------------------------
// Identity
// -----------------------------------------------------------------------------

// SignIn ensures a profile for the address exists and mints an access token
// for it; subsequent requests carry the token.
func (tc *TestContext) SignIn(address string) error {
	userID := tc.ensureUser(address)
	token, err := tc.jwt.GenerateAccessToken(userID, uuid.New(), time.Hour)
	if err != nil {
		return err
	}
	tc.token = token
	return nil
}

// ClearToken drops the bearer token, so following requests are anonymous.
func (tc *TestContext) ClearToken() { tc.token = "" }

func (tc *TestContext) ensureUser(address string) id.UserID {
	if userID, ok := tc.users[address]; ok {
		return userID
	}
	userID := id.UserID(uuid.New())
	tc.users[address] = userID
	tc.store.PutProfile(models.Profile{
		ID:          userID,
		DisplayName: email.DisplayName(address),
		Email:       address,
		CreatedAt:   time.Now().Add(-30 * 24 * time.Hour),
	})
	return userID
}

// -----------------------------------------------------------------------------
// Seeding
// -----------------------------------------------------------------------------

// CreateFamily seeds a family with the given display name and currency.
func (tc *TestContext) CreateFamily(name, currency string) {
	familyID := id.FamilyID(uuid.New())
	tc.families[name] = familyID
	tc.store.PutFamily(models.Family{
		ID:           familyID,
		Name:         name,
		Visibility:   models.VisibilityPrivate,
		CurrencyPref: currency,
		CreatedAt:    time.Now().Add(-20 * 24 * time.Hour),
		UpdatedAt:    time.Now().Add(-time.Hour),
	})
}

// AddMember seeds an active membership for the address in the named family.
func (tc *TestContext) AddMember(address, family, role string) error {
	familyID, ok := tc.families[family]
	if !ok {
		return fmt.Errorf("unknown family %q", family)
	}
	r := models.RoleMember
	if role == "admin" {
		r = models.RoleAdmin
	}
	tc.store.PutMembership(models.Membership{
		ID:       id.MembershipID(uuid.New()),
		FamilyID: familyID,
		UserID:   tc.ensureUser(address),
		Role:     r,
		Status:   models.StatusActive,
		JoinedAt: time.Now().Add(-10 * 24 * time.Hour),
	})
	tc.store.SyncOverview()
	return nil
}

// AddPendingMember seeds a pending membership, an invitation not yet
// accepted.
func (tc *TestContext) AddPendingMember(address, family string) error {
	familyID, ok := tc.families[family]
	if !ok {
		return fmt.Errorf("unknown family %q", family)
	}
	tc.store.PutMembership(models.Membership{
		ID:       id.MembershipID(uuid.New()),
		FamilyID: familyID,
		UserID:   tc.ensureUser(address),
		Role:     models.RoleMember,
		Status:   models.StatusPending,
		JoinedAt: time.Now().Add(-time.Hour),
	})
	tc.store.SyncOverview()
	return nil
}

// AddGoal seeds a goal in the named family.
func (tc *TestContext) AddGoal(family, name string, target, saved int) error {
	familyID, ok := tc.families[family]
	if !ok {
		return fmt.Errorf("unknown family %q", family)
	}
	goalID := id.GoalID(uuid.New())
	tc.goals[name] = goalID
	status := models.GoalInProgress
	if saved >= target {
		status = models.GoalCompleted
	}
	tc.store.PutGoal(models.Goal{
		ID:            goalID,
		FamilyID:      familyID,
		Name:          name,
		TargetAmount:  decimal.NewFromInt(int64(target)),
		CurrentAmount: decimal.NewFromInt(int64(saved)),
		Status:        status,
		Priority:      models.PriorityMedium,
		CreatedBy:     tc.anyUser(),
		CreatedAt:     time.Now().Add(-5 * 24 * time.Hour),
	})
	return nil
}

// AddContribution seeds a contribution by the address toward the named
// goal. Nothing is announced on the bus; a snapshot only sees it after a
// refresh of some kind.
func (tc *TestContext) AddContribution(address, goal string, amount int) error {
	goalID, ok := tc.goals[goal]
	if !ok {
		return fmt.Errorf("unknown goal %q", goal)
	}
	tc.store.PutContribution(models.Contribution{
		ID:        id.ContributionID(uuid.New()),
		GoalID:    goalID,
		UserID:    tc.ensureUser(address),
		Amount:    decimal.NewFromInt(int64(amount)),
		CreatedAt: time.Now(),
	})
	return nil
}

// RecordExpense seeds a ledger expense by the address in the named family,
// again without a bus announcement.
func (tc *TestContext) RecordExpense(address, family string, amount int, notes string) error {
	familyID, ok := tc.families[family]
	if !ok {
		return fmt.Errorf("unknown family %q", family)
	}
	tc.store.PutTransaction(models.Transaction{
		ID:       id.TransactionID(uuid.New()),
		FamilyID: familyID,
		UserID:   tc.ensureUser(address),
		Amount:   decimal.NewFromInt(int64(amount)),
		Type:     models.TxnExpense,
		Notes:    notes,
		Date:     time.Now(),
	})
	return nil
}

func (tc *TestContext) anyUser() id.UserID {
	for _, userID := range tc.users {
		return userID
	}
	return id.UserID(uuid.New())
}

// -----------------------------------------------------------------------------
// Polling
// -----------------------------------------------------------------------------

const (
	pollDeadline = 3 * time.Second
	pollEvery    = 20 * time.Millisecond
)

// WaitLive polls the snapshot until every family subscription is open.
func (tc *TestContext) WaitLive() error {
	return tc.pollSnapshot(func() bool {
		v, err := tc.ResponseField("is_live")
		return err == nil && v == true
	}, "snapshot never went live")
}

// WaitSettled polls the snapshot until membership resolution finished,
// whatever its outcome. This is the live-or-solo settling point.
func (tc *TestContext) WaitSettled() error {
	return tc.pollSnapshot(func() bool {
		v, err := tc.ResponseField("membership_source")
		return err == nil && v != ""
	}, "membership never resolved")
}

// WaitSnapshotField polls the snapshot until the dotted field renders as
// want.
func (tc *TestContext) WaitSnapshotField(path, want string) error {
	return tc.pollSnapshot(func() bool {
		v, err := tc.ResponseField(path)
		return err == nil && fmt.Sprint(v) == want
	}, fmt.Sprintf("field %q never became %q", path, want))
}

func (tc *TestContext) pollSnapshot(done func() bool, failure string) error {
	deadline := time.Now().Add(pollDeadline)
	for {
		if err := tc.GET("/v1/family/snapshot"); err != nil {
			return err
		}
		if tc.lastStatus == http.StatusOK && done() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s (last status %d)", failure, tc.lastStatus)
		}
		time.Sleep(pollEvery)
	}
}
