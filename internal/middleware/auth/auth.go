// Package auth resolves the household and role for each request. Ledger
// handlers downstream assume both are present on the context.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	hearthauth "hearth/internal/auth"
	"hearth/internal/log"
	"hearth/internal/storage"
)

// Member roles.
const (
	RoleAdmin  = "Admin"
	RoleUser   = "User"
	RoleViewer = "Viewer"
)

// DefaultHousehold is the tenant used when auth is disabled.
const DefaultHousehold = int64(1)

type contextKey string

const (
	householdKey contextKey = "household_id"
	roleKey      contextKey = "role"
	userKey      contextKey = "user_id"
)

// Middleware validates Bearer tokens and the X-Household-ID header. With a
// nil JWT manager it runs in single-household mode: every request resolves
// to household 1 with the Admin role.
type Middleware struct {
	jwt    *hearthauth.JWTManager
	repo   *storage.Repository
	logger *slog.Logger
}

func NewMiddleware(jwt *hearthauth.JWTManager, repo *storage.Repository) *Middleware {
	return &Middleware{
		jwt:    jwt,
		repo:   repo,
		logger: log.With(log.ComponentAuth),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login and registration are reachable without a session.
		if strings.HasPrefix(r.URL.Path, "/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		if m.jwt == nil {
			ctx := withIdentity(r.Context(), DefaultHousehold, 0, RoleAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "authorization token required", http.StatusUnauthorized)
			return
		}
		claims, err := m.jwt.Validate(token)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		// Household discovery and creation need only a valid token; the
		// client has no household id to send yet.
		if r.URL.Path == "/households" {
			ctx := withIdentity(r.Context(), 0, claims.UserID, "")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		householdID, err := strconv.ParseInt(r.Header.Get("X-Household-ID"), 10, 64)
		if err != nil || householdID < 1 {
			http.Error(w, "missing or invalid X-Household-ID header", http.StatusBadRequest)
			return
		}

		role, err := m.repo.GetMemberRole(r.Context(), householdID, claims.UserID)
		if err != nil {
			m.logger.WarnContext(r.Context(), "membership check failed",
				log.FieldHousehold, householdID, "user_id", claims.UserID, log.FieldError, err)
			http.Error(w, "not a member of this household", http.StatusForbidden)
			return
		}

		if role == RoleViewer && isMutating(r.Method) {
			http.Error(w, "viewer role cannot modify data", http.StatusForbidden)
			return
		}

		ctx := withIdentity(r.Context(), householdID, claims.UserID, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func withIdentity(ctx context.Context, householdID, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, householdKey, householdID)
	ctx = context.WithValue(ctx, userKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// HouseholdID returns the request's resolved household, defaulting to the
// single-household tenant when unset.
func HouseholdID(ctx context.Context) int64 {
	if id, ok := ctx.Value(householdKey).(int64); ok {
		return id
	}
	return DefaultHousehold
}

// UserID returns the authenticated user, zero when auth is disabled.
func UserID(ctx context.Context) int64 {
	if id, ok := ctx.Value(userKey).(int64); ok {
		return id
	}
	return 0
}

// Role returns the request's resolved role.
func Role(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return RoleAdmin
}
