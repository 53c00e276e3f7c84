// Package httptransport assembles the service's HTTP surface: health and
// metrics endpoints in the clear, the versioned API behind bearer auth.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	familyhandler "budgetme/internal/family/handler"
	"budgetme/internal/platform/metrics"
	"budgetme/internal/platform/middleware"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router mounts.
type Deps struct {
	Family    *familyhandler.Handler
	Validator middleware.JWTValidator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// NewRouter wires the middleware chain and mounts all endpoints. Health and
// metrics stay outside the API chain so probes and scrapes never show up in
// request logs.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.ClientMetadata)
		v1.Use(middleware.RequestTime)
		v1.Use(middleware.Logger(d.Logger))
		v1.Use(middleware.Latency(d.Metrics))
		v1.Use(middleware.Timeout(requestTimeout))
		v1.Use(middleware.RequireAuth(d.Validator, d.Logger))

		d.Family.Register(v1)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
