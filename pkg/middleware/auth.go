package middleware

import (
	"context"
	"net/http"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"strings"
)

const identityKey contextKey = "identity"

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (model.Identity, error)
}

// Authentication requires a valid bearer token on every request and stores
// the resulting identity in the request context.
func Authentication(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				rejectUnauthorized(w, log, r, "missing bearer token")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				log.Warn("Token verification failed",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				rejectUnauthorized(w, log, r, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity set by Authentication.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok && identity.ID != ""
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Debug("Request rejected",
		"request_id", GetRequestID(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
	)

	w.Header().Set("WWW-Authenticate", `Bearer realm="roombook"`)
	_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
}
