package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Techtaurant/be/internal/metrics"
	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/internal/token"
	"github.com/Techtaurant/be/pkg/apierror"
)

type accessVerifier interface {
	VerifyAccess(raw string) (token.Claims, error)
}

type contextKey string

const (
	principalContextKey contextKey = "principal"
	authFailureKey      contextKey = "auth_failure"
)

type AuthMiddleware struct {
	verifier   accessVerifier
	cookieName string
	metrics    *metrics.Metrics
}

func NewAuthMiddleware(verifier accessVerifier, accessCookieName string, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, cookieName: accessCookieName, metrics: m}
}

// Authenticate establishes the caller from the access token, if any, and
// always passes the request on. A token that fails verification leaves the
// request anonymous and records why, for RequireAuth to report. It never
// touches a store.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := m.extract(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.verifier.VerifyAccess(raw)
		if err != nil {
			status := token.KindOf(err).Status()
			m.metrics.GateRejected(status.Name)
			ctx := context.WithValue(r.Context(), authFailureKey, status)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		principal := model.Principal{UserID: claims.UserID, Role: claims.Role}
		ctx := context.WithValue(r.Context(), principalContextKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests with the failure Authenticate
// recorded, or AUTHENTICATION_REQUIRED when no token was presented.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		status, ok := r.Context().Value(authFailureKey).(apierror.Status)
		if !ok {
			status = apierror.AuthenticationRequired
		}
		writeAPIError(w, status.Err())
	})
}

func (m *AuthMiddleware) RequireRoles(allowedRoles ...model.Role) func(http.Handler) http.Handler {
	roleSet := map[model.Role]struct{}{}
	for _, role := range allowedRoles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAPIError(w, apierror.AuthenticationRequired.Err())
				return
			}

			if _, exists := roleSet[principal.Role]; !exists {
				writeAPIError(w, apierror.AccessDenied.Err())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	return principal, ok
}

// extract prefers a bearer header over the access cookie.
func (m *AuthMiddleware) extract(r *http.Request) string {
	if raw, ok := BearerToken(r); ok {
		return raw
	}

	if m.cookieName == "" {
		return ""
	}
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// BearerToken returns the token of an "Authorization: Bearer" header. Any
// other scheme counts as no token.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(header[7:])
	return raw, raw != ""
}
