package directory

import (
	"context"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type ServiceAPI interface {
	ListProjects(ctx context.Context) ([]*Project, error)
	ListActivities(ctx context.Context, projectID int64) ([]*Activity, error)
	CreateClient(ctx context.Context, actor internal.Actor, dto CreateClientDTO) (*Client, error)
	CreateProject(ctx context.Context, actor internal.Actor, dto CreateProjectDTO) (*Project, error)
	CreateActivity(ctx context.Context, actor internal.Actor, dto CreateActivityDTO) (*Activity, error)
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

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListProjects(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: projects})
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	projectID, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	activities, err := h.Service.ListActivities(r.Context(), projectID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ActivitiesResponse{Activities: activities})
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	var dto CreateClientDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	client, err := h.Service.CreateClient(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, client)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	var dto CreateProjectDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	project, err := h.Service.CreateProject(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, project)
}

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	var dto CreateActivityDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	activity, err := h.Service.CreateActivity(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, activity)
}
