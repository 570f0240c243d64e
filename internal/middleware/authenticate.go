package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/response"
)

// AccessCookie names the cookie carrying the access token.
const AccessCookie = "accessToken"

// AccessTokenParser validates access tokens.
type AccessTokenParser interface {
	ParseAccess(token string) (auth.Claims, error)
}

type userKey struct{}

// WithUserID attaches the authenticated user to ctx.
func WithUserID(ctx context.Context, id ids.ID) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (ids.ID, bool) {
	id, ok := ctx.Value(userKey{}).(ids.ID)
	return id, ok && !ids.IsZero(id)
}

// RequireAuth rejects requests without a valid access token.
func RequireAuth(parser AccessTokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessToken(r)
			if token == "" {
				response.Error(w, r, apperr.Unauthorized("unauthorized request"))
				return
			}
			id, err := authenticate(parser, token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("access token rejected", "error", err)
				response.Error(w, r, apperr.Unauthorized("invalid access token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(parser AccessTokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := AccessToken(r); token != "" {
				if id, err := authenticate(parser, token); err == nil {
					r = r.WithContext(WithUserID(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(parser AccessTokenParser, token string) (ids.ID, error) {
	claims, err := parser.ParseAccess(token)
	if err != nil {
		return ids.Nil, err
	}
	return claims.UserID()
}

// AccessToken reads the bearer token from the Authorization header, falling
// back to the access cookie.
func AccessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AccessCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
