package httptransport_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	membus "budgetme/internal/changefeed/memory"
	familyhandler "budgetme/internal/family/handler"
	"budgetme/internal/family/live"
	memstore "budgetme/internal/family/store/memory"
	jwttoken "budgetme/internal/jwt_token"
	"budgetme/internal/platform/config"
	"budgetme/internal/platform/logger"
	httptransport "budgetme/internal/transport/http"
	id "budgetme/pkg/domain"
)

func newRouter(t *testing.T) (http.Handler, string) {
	t.Helper()

	st := memstore.New()
	bus := membus.NewBus()
	t.Cleanup(bus.Close)

	cfg := config.SyncConfig{
		ThrottleWindow: 50 * time.Millisecond,
		RetryAttempts:  1,
		RetryDelay:     time.Millisecond,
		FetchTimeout:   time.Second,
		FeedLimit:      10,
		SweepInterval:  time.Minute,
	}
	svc := live.NewService(st, bus, cfg, live.WithServiceLogger(logger.Discard()))
	t.Cleanup(func() { _ = svc.Close() })

	jwtService := jwttoken.NewJWTService("router-test-key", "budgetme-test", "budgetme-app")
	token, err := jwtService.GenerateAccessToken(id.UserID(uuid.New()), uuid.New(), time.Hour)
	require.NoError(t, err)

	router := httptransport.NewRouter(httptransport.Deps{
		Family:    familyhandler.New(svc, logger.Discard()),
		Validator: jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:    logger.Discard(),
	})
	return router, token
}

func TestHealthEndpointIsOpen(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpointIsOpen(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestAPIRequiresBearerToken(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/family/snapshot", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIAcceptsValidToken(t *testing.T) {
	router, token := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/family/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnknownRouteReturns404(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
