package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/example/printshop/internal/session"
	"go.uber.org/zap"
)

const (
	SessionCookieName = "session_token"
	SessionHeaderName = "X-Session-Token"
)

type contextKey string

const (
	SessionContextKey contextKey = "session"
)

// ExtractTokens returns the candidate session tokens in the order they are tried:
// the cookie (browsers) first, then the X-Session-Token header (API clients).
func ExtractTokens(r *http.Request) []string {
	var tokens []string
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}
	if header := r.Header.Get(SessionHeaderName); header != "" {
		tokens = append(tokens, header)
	}
	return tokens
}

// resolveSession returns the session of the first token that verifies. A stale
// cookie must not shadow a valid X-Session-Token header.
func resolveSession(issuer *session.Issuer, r *http.Request) (string, bool) {
	for _, token := range ExtractTokens(r) {
		if sessionID, err := issuer.Parse(token); err == nil {
			return sessionID, true
		}
	}
	return "", false
}

// SessionMiddleware resolves the guest session of every request. Requests without a
// valid token get a fresh session; its token is returned as a cookie and in the
// X-Session-Token response header.
func SessionMiddleware(issuer *session.Issuer, secureCookie bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessionID, ok := resolveSession(issuer, r); ok {
				next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
				return
			}

			token, sessionID, expiresAt, err := issuer.Issue()
			if err != nil {
				logger.Error("failed to issue session", zap.Error(err))
				respondError(w, "failed to start session", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    token,
				Path:     "/",
				Expires:  expiresAt,
				MaxAge:   int(time.Until(expiresAt).Seconds()),
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(SessionHeaderName, token)

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

// WithSessionID stores the session id on ctx
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionContextKey, sessionID)
}

// GetSessionID retrieves the session id from the request context
func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(SessionContextKey).(string)
	return sessionID
}
