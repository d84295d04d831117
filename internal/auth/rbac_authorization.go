package auth

import (
	"net/http"
	"slices"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

// RBACAuthorization gates route groups by the caller's role. Services run
// the same checks; this only turns callers away before any work is done.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: baseHandler}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, denied *internal.AppError, roles ...internal.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ra.Actor(w, r)
		if !ok {
			ra.Logger.Warn("authorization check failed: actor not found in context")
			return
		}

		if !slices.Contains(roles, actor.Role) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient role",
				"user_id", actor.ID,
				"role", actor.Role,
				"required_roles", roles)
			ra.WriteAppError(w, denied)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(denied *internal.AppError, roles ...internal.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, denied, roles...)
	}
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.Middleware(internal.ErrManagerRequired, internal.RoleManager)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Middleware(internal.ErrAdminRequired, internal.RoleAdmin)
}
