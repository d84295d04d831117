package internal

import (
	"context"
	"time"
)

type ctxKey string

const contextActorKey ctxKey = "actor"

type Role string

const (
	RoleCollaborator Role = "collaborator"
	RoleManager      Role = "manager"
	RoleAdmin        Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCollaborator, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller. Handlers pull it out of the request
// context once and pass it explicitly to every service call.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanSee reports whether the actor may read records owned by ownerID.
func (a Actor) CanSee(ownerID int64) bool {
	return a.ID == ownerID || a.IsManager()
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(contextActorKey).(Actor)
	return actor, ok
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextActorKey, actor)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
