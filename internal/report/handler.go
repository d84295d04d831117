package report

import (
	"context"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type ServiceAPI interface {
	HoursForPeriod(ctx context.Context, actor internal.Actor, collaboratorID int64, rng worktime.Range) (*HoursSummary, error)
	BudgetProgress(ctx context.Context, activityID int64) (*BudgetProgress, error)
	ExpenseTotals(ctx context.Context, actor internal.Actor, collaboratorID int64) (*ExpenseTotals, error)
	HoursBreakdown(ctx context.Context, actor internal.Actor, collaboratorID int64, rng worktime.Range, groupBy GroupBy) (*HoursBreakdown, error)
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

func (h *Handler) Hours(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	collaboratorID, rng, err := collaboratorAndRange(r, actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	summary, err := h.Service.HoursForPeriod(r.Context(), actor, collaboratorID, rng)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	collaboratorID, rng, err := collaboratorAndRange(r, actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	breakdown, err := h.Service.HoursBreakdown(r.Context(), actor, collaboratorID, rng, GroupBy(r.URL.Query().Get("group_by")))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) Budget(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.Actor(w, r); !ok {
		return
	}
	activityID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	progress, err := h.Service.BudgetProgress(r.Context(), activityID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, progress)
}

func (h *Handler) ExpenseTotals(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	collaboratorID, err := collaborator(r, actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	totals, err := h.Service.ExpenseTotals(r.Context(), actor, collaboratorID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, totals)
}

// collaborator defaults to the caller when no collaborator_id is given.
func collaborator(r *http.Request, actor internal.Actor) (int64, error) {
	id, err := transport.QueryInt64(r, "collaborator_id")
	if err != nil {
		return 0, err
	}
	if id == nil {
		return actor.ID, nil
	}
	return *id, nil
}

func collaboratorAndRange(r *http.Request, actor internal.Actor) (int64, worktime.Range, error) {
	id, err := collaborator(r, actor)
	if err != nil {
		return 0, worktime.Range{}, err
	}
	from, err := transport.QueryDate(r, "from")
	if err != nil {
		return 0, worktime.Range{}, err
	}
	to, err := transport.QueryDate(r, "to")
	if err != nil {
		return 0, worktime.Range{}, err
	}
	if from == nil || to == nil {
		return 0, worktime.Range{}, internal.NewValidationFieldError("range", "from and to are required", internal.ErrCodeMissingField)
	}
	return id, worktime.Range{From: *from, To: *to}, nil
}
