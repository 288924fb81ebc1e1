// internal/api/authz/authz.go
package authz

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const RoleAdmin = "admin"

// Identity is the authenticated caller, as asserted by the identity proxy
// in front of this service via trusted headers.
type Identity struct {
	UserID int64
	Role   string
}

func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == RoleAdmin
}

type contextKey struct{}

func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the caller identity, or nil when the request
// carried none.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// WithIdentity extracts the caller from the X-User-ID and X-User-Role
// headers. Requests without an identity pass through unauthenticated;
// handlers that need one call RequireIdentity.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		id := &Identity{UserID: userID, Role: r.Header.Get("X-User-Role")}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
	})
}

// RequireIdentity returns the caller identity or ErrUnauthenticated.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	id := IdentityFromContext(ctx)
	if id == nil {
		return nil, ErrUnauthenticated
	}
	return id, nil
}

// RequireAdmin returns the caller identity if it carries the admin role.
func RequireAdmin(ctx context.Context) (*Identity, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		return nil, ErrForbidden
	}
	return id, nil
}
