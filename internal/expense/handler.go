package expense

import (
	"context"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type ServiceAPI interface {
	CreateExpense(ctx context.Context, actor internal.Actor, dto CreateExpenseDTO) (*Expense, error)
	GetExpense(ctx context.Context, actor internal.Actor, id int64) (*Expense, error)
	DeleteExpense(ctx context.Context, actor internal.Actor, id int64) error
	QueryExpenses(ctx context.Context, actor internal.Actor, q QueryFilter) ([]*Expense, error)
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

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateExpenseDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	expense, err := h.Service.CreateExpense(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.Logger.Info("CreateExpense: expense created successfully",
		"expense_id", expense.ID,
		"collaborator_id", actor.ID,
		"amount", expense.Amount.StringFixed(2))

	h.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	expense, err := h.Service.GetExpense(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, expense)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.DeleteExpense(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var (
		q   QueryFilter
		err error
	)
	if q.CollaboratorID, err = transport.QueryInt64(r, "collaborator_id"); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if q.ProjectID, err = transport.QueryInt64(r, "project_id"); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if q.From, err = transport.QueryDate(r, "from"); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if q.To, err = transport.QueryDate(r, "to"); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if q.Status, err = transport.QueryStatus(r); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	q.Scope = Scope(r.URL.Query().Get("scope"))
	q.Limit, q.Offset = transport.Pagination(r)

	expenses, err := h.Service.QueryExpenses(r.Context(), actor, q)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ExpensesResponse{Expenses: expenses, Limit: q.Limit, Offset: q.Offset})
}
