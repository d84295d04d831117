package approval

import (
	"context"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type EngineAPI interface {
	Approve(ctx context.Context, actor internal.Actor, kind Kind, id int64) (*Decision, error)
	Reject(ctx context.Context, actor internal.Actor, kind Kind, id int64, reason string) (*Decision, error)
	Pending(ctx context.Context, actor internal.Actor, limit int) ([]QueueItem, error)
}

type AuditAPI interface {
	Trail(ctx context.Context, actor internal.Actor, kind Kind, recordID int64) ([]*AuditEntry, error)
	Recent(ctx context.Context, actor internal.Actor, limit int) ([]*AuditEntry, error)
}

type Handler struct {
	*transport.BaseHandler
	Engine EngineAPI
	Audit  AuditAPI
}

func NewHandler(baseHandler *transport.BaseHandler, engine EngineAPI, audit AuditAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Engine:      engine,
		Audit:       audit,
	}
}

// Approve returns the handler for PATCH /<kind>/{id}/approve.
func (h *Handler) Approve(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.Actor(w, r)
		if !ok {
			return
		}
		id, err := h.IDParam(r, "id")
		if err != nil {
			h.HandleServiceError(w, r, err)
			return
		}

		decision, err := h.Engine.Approve(r.Context(), actor, kind, id)
		if err != nil {
			h.HandleServiceError(w, r, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, decision)
	}
}

// Reject returns the handler for PATCH /<kind>/{id}/reject.
func (h *Handler) Reject(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.Actor(w, r)
		if !ok {
			return
		}
		id, err := h.IDParam(r, "id")
		if err != nil {
			h.HandleServiceError(w, r, err)
			return
		}

		var dto RejectDTO
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, r, err)
			return
		}

		decision, err := h.Engine.Reject(r.Context(), actor, kind, id, dto.Reason)
		if err != nil {
			h.HandleServiceError(w, r, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, decision)
	}
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	limit, _ := transport.Pagination(r)

	items, err := h.Engine.Pending(r.Context(), actor, limit)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PendingResponse{Items: items})
}

// AuditLog serves the trail of one record when kind and record_id are
// given, and the most recent entries otherwise.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	recordID, err := transport.QueryInt64(r, "record_id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var entries []*AuditEntry
	if recordID != nil {
		entries, err = h.Audit.Trail(r.Context(), actor, Kind(r.URL.Query().Get("kind")), *recordID)
	} else {
		limit, _ := transport.Pagination(r)
		entries, err = h.Audit.Recent(r.Context(), actor, limit)
	}
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AuditResponse{Entries: entries})
}
