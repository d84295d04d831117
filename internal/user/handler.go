package user

import (
	"context"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		h.Logger.Warn("GetCurrentUser: no actor in context")
		return
	}

	u, err := h.Service.GetByID(r.Context(), actor.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", actor.ID, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.Logger.Debug("GetCurrentUser: sending response", "user_id", u.ID, "role", u.Role)
	h.WriteJSON(w, http.StatusOK, u)
}
