package middleware

import (
	"context"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/transport"
	"github.com/chronotracker/chronotracker-api/pkg/logger"
)

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (internal.Actor, error)
}

// UserContext authenticates the request and stores the actor, plus a logger
// tagged with it, in the request context.
func UserContext(authenticator Authenticator, base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := base.ExtractTokenFromHeader(r)
			actor, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				base.HandleServiceError(w, r, err)
				return
			}

			ctx := internal.ContextWithActor(r.Context(), actor)
			ctx = logger.With(ctx, "user_id", actor.ID, "role", actor.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
