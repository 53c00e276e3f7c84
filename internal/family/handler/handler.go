// Package handler exposes the live family view over HTTP. Every read
// attaches (or refreshes) the caller's live session, so polling the
// snapshot endpoint is what keeps a session alive.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"budgetme/internal/family/live"
	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/httputil"
	"budgetme/pkg/requestcontext"
)

// Service defines the live-session operations the transport needs.
type Service interface {
	Snapshot(userID id.UserID) (live.Snapshot, error)
	Refresh(ctx context.Context, userID id.UserID, key string) error
	Detach(userID id.UserID) error
}

// Handler wires family live-view endpoints to the session service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a family handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the family endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/family/snapshot", h.HandleSnapshot)
	r.Get("/family/membership", h.HandleMembership)
	r.Get("/family/summary", h.HandleSummary)
	r.Get("/family/activity", h.HandleActivity)
	r.Get("/family/live", h.HandleLiveness)
	r.Post("/family/refresh/{key}", h.HandleRefresh)
	r.Delete("/family/session", h.HandleDetach)
}

// HandleSnapshot handles GET /family/snapshot requests.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "snapshot read failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snap))
}

// HandleMembership handles GET /family/membership requests.
func (h *Handler) HandleMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, MembershipResponse{
		IsMember:   snap.IsMember(),
		Membership: snap.Membership,
		Source:     string(snap.MembershipSource),
		Pending:    snap.Pending,
	})
}

// HandleSummary handles GET /family/summary requests.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, SummaryResponse{
		Currency: snapshotCurrency(snap),
		Summary:  snap.Summary,
	})
}

// HandleActivity handles GET /family/activity requests.
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ActivityResponse{
		Events: FromFeed(snap.Feed, snapshotCurrency(snap)),
	})
}

// HandleLiveness handles GET /family/live requests.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{
		State:           string(snap.State),
		IsLive:          snap.IsLive,
		Degraded:        snap.Degraded,
		DataUnavailable: snap.DataUnavailable,
		LastRefresh:     snap.LastRefresh,
	})
}

// HandleRefresh handles POST /family/refresh/{key} requests.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.service.Refresh(ctx, userID, key); err != nil {
		h.logger.WarnContext(ctx, "manual refresh rejected",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"key", key,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual refresh accepted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"key", key,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusAccepted, RefreshResponse{Key: key, Status: "refreshing"})
}

// HandleDetach handles DELETE /family/session requests.
func (h *Handler) HandleDetach(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	if err := h.service.Detach(userID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "live session detached by client",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireUser(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return id.UserID{}, false
	}
	return userID, true
}
