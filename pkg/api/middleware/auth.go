package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-louvain/pkg/auth"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
)

const claimsKey contextKey = "claims"

// GetClaims returns the claims stored by BearerAuth, or nil
func GetClaims(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return c
}

// BearerAuth requires a valid "Authorization: Bearer <token>" header.
// onFailure, when set, is called for every rejected request.
func BearerAuth(validator auth.TokenValidator, logger logging.Logger, onFailure func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				reject(w, r, logger, onFailure, "missing bearer token", nil)
				return
			}

			claims, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				reject(w, r, logger, onFailure, "invalid or expired token", err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, logger logging.Logger, onFailure func(), message string, err error) {
	if onFailure != nil {
		onFailure()
	}
	logger.Warn("authentication failed",
		logging.Path(r.URL.Path),
		logging.String("request_id", GetRequestID(r)),
		logging.Error(err),
	)
	w.Header().Set("WWW-Authenticate", `Bearer realm="louvain"`)
	writeError(w, http.StatusUnauthorized, message)
}
