package testutil

import (
	"net/http"

	id "budgetme/pkg/domain"
	"budgetme/pkg/requestcontext"
)

// WithUserID stamps a parsed user ID onto the request context, simulating
// what the auth middleware does for an authenticated request. An unparseable
// id leaves the request untouched so tests can exercise the unauthenticated
// path with the same helper.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}

// WithRequestID stamps a request ID onto the request context, simulating the
// request-id middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithAuth stamps both a user ID and a request ID, the typical state of a
// request that passed the full middleware chain. Empty or invalid values are
// skipped.
func WithAuth(req *http.Request, userID, requestID string) *http.Request {
	if userID != "" {
		req = WithUserID(req, userID)
	}
	if requestID != "" {
		req = WithRequestID(req, requestID)
	}
	return req
}
