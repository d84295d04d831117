package timeentry

import (
	"context"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Actor, dto CreateTimeEntryDTO) (*TimeEntry, error)
	Get(ctx context.Context, actor internal.Actor, id int64) (*TimeEntry, error)
	Update(ctx context.Context, actor internal.Actor, id int64, dto UpdateTimeEntryDTO) (*TimeEntry, error)
	Delete(ctx context.Context, actor internal.Actor, id int64) error
	Query(ctx context.Context, actor internal.Actor, q QueryFilter) ([]*TimeEntry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateTimeEntryDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	entry, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	entry, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto UpdateTimeEntryDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	entry, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q, err := parseQueryFilter(r)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	entries, err := h.Service.Query(r.Context(), actor, q)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TimeEntriesResponse{Entries: entries, Limit: q.Limit, Offset: q.Offset})
}

func parseQueryFilter(r *http.Request) (QueryFilter, error) {
	var (
		q   QueryFilter
		err error
	)
	if q.ID, err = transport.QueryInt64(r, "id"); err != nil {
		return q, err
	}
	if q.CollaboratorID, err = transport.QueryInt64(r, "collaborator_id"); err != nil {
		return q, err
	}
	if q.ProjectID, err = transport.QueryInt64(r, "project_id"); err != nil {
		return q, err
	}
	if q.ActivityID, err = transport.QueryInt64(r, "activity_id"); err != nil {
		return q, err
	}
	if q.From, err = transport.QueryDate(r, "from"); err != nil {
		return q, err
	}
	if q.To, err = transport.QueryDate(r, "to"); err != nil {
		return q, err
	}
	if q.Status, err = transport.QueryStatus(r); err != nil {
		return q, err
	}
	q.Scope = Scope(r.URL.Query().Get("scope"))
	q.Limit, q.Offset = transport.Pagination(r)
	return q, nil
}
