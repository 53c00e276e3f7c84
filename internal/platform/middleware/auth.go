package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/httputil"
	"budgetme/pkg/requestcontext"
)

// JWTValidator validates bearer tokens presented at the edge.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims carries the claims the transport layer needs from a validated
// token.
type JWTClaims struct {
	UserID    string
	SessionID string
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user id in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized request, missing bearer token",
					"request_id", requestID,
					"path", r.URL.Path,
				)
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request, token rejected",
					"request_id", requestID,
					"path", r.URL.Path,
					"error", err,
				)
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request, malformed subject claim",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
		})
	}
}
