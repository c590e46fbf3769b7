package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionVerifier turns a bearer token into a session.
type SessionVerifier interface {
	Verify(token string) (domain.Session, error)
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext extracts the authenticated session from ctx.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(domain.Session)
	return s, ok && s.Valid()
}

// Authenticate requires a valid "Bearer <token>" Authorization header and
// stores the resulting session in the request context.
func Authenticate(verifier SessionVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	fail := func(w http.ResponseWriter, reason, message string) {
		if m != nil {
			m.AuthFailures.WithLabelValues(reason).Inc()
		}
		http.Error(w, message, http.StatusUnauthorized)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				fail(w, "missing", "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				fail(w, "malformed", "invalid authorization header format")
				return
			}

			session, err := verifier.Verify(token)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, domain.ErrExpiredToken) {
					reason = "expired"
				}
				fail(w, reason, "invalid or expired token")
				return
			}

			ctx := WithSession(r.Context(), session)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", session.UserID)
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
