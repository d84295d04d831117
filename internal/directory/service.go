package directory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chronotracker/chronotracker-api/internal"
	directoryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/directory"
)

type RepositoryAPI interface {
	CreateClient(ctx context.Context, c *directoryDatamodel.Client) error
	GetClient(ctx context.Context, id int64) (*directoryDatamodel.Client, error)
	CreateProject(ctx context.Context, p *directoryDatamodel.Project) error
	GetProject(ctx context.Context, id int64) (*directoryDatamodel.Project, error)
	ListProjects(ctx context.Context) ([]*directoryDatamodel.Project, error)
	CreateActivity(ctx context.Context, a *directoryDatamodel.Activity) error
	GetActivity(ctx context.Context, id int64) (*directoryDatamodel.Activity, error)
	ListActivities(ctx context.Context, projectID int64) ([]*directoryDatamodel.Activity, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		s.logger.Error("failed to list projects", "error", err)
		return nil, internal.NewInternalError("failed to list projects", err)
	}
	return ProjectsFromDataModel(projects), nil
}

func (s *Service) ListActivities(ctx context.Context, projectID int64) ([]*Activity, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, s.notFoundOr(err, internal.ErrProjectNotFound, "failed to load project", "project_id", projectID)
	}
	activities, err := s.repo.ListActivities(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to list activities", "error", err, "project_id", projectID)
		return nil, internal.NewInternalError("failed to list activities", err)
	}
	return ActivitiesFromDataModel(activities), nil
}

func (s *Service) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	a, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, internal.ErrActivityNotFound, "failed to load activity", "activity_id", id)
	}
	return ActivityFromDataModel(a), nil
}

// ClientIDForProject resolves the client a project bills to.
func (s *Service) ClientIDForProject(ctx context.Context, projectID int64) (int64, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return 0, s.notFoundOr(err, internal.ErrProjectNotFound, "failed to load project", "project_id", projectID)
	}
	return p.ClientID, nil
}

// BudgetedHours returns horas_previstas of an activity.
func (s *Service) BudgetedHours(ctx context.Context, activityID int64) (float64, error) {
	a, err := s.GetActivity(ctx, activityID)
	if err != nil {
		return 0, err
	}
	return a.HorasPrevistas, nil
}

func (s *Service) CreateClient(ctx context.Context, actor internal.Actor, dto CreateClientDTO) (*Client, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrAdminRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c := &directoryDatamodel.Client{Name: dto.Name, IsActive: true}
	if err := s.repo.CreateClient(ctx, c); err != nil {
		s.logger.Error("failed to create client", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create client", err)
	}
	s.logger.Info("client created", "client_id", c.ID, "admin_id", actor.ID)
	return ClientFromDataModel(c), nil
}

func (s *Service) CreateProject(ctx context.Context, actor internal.Actor, dto CreateProjectDTO) (*Project, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrAdminRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetClient(ctx, dto.ClientID); err != nil {
		return nil, s.notFoundOr(err, internal.ErrClientNotFound, "failed to load client", "client_id", dto.ClientID)
	}
	p := &directoryDatamodel.Project{ClientID: dto.ClientID, Name: dto.Name, IsActive: true}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		s.logger.Error("failed to create project", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create project", err)
	}
	s.logger.Info("project created", "project_id", p.ID, "client_id", p.ClientID, "admin_id", actor.ID)
	return ProjectFromDataModel(p), nil
}

func (s *Service) CreateActivity(ctx context.Context, actor internal.Actor, dto CreateActivityDTO) (*Activity, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrAdminRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProject(ctx, dto.ProjectID); err != nil {
		return nil, s.notFoundOr(err, internal.ErrProjectNotFound, "failed to load project", "project_id", dto.ProjectID)
	}
	a := &directoryDatamodel.Activity{
		ProjectID:      dto.ProjectID,
		Name:           dto.Name,
		HorasPrevistas: dto.HorasPrevistas,
		IsActive:       true,
	}
	if err := s.repo.CreateActivity(ctx, a); err != nil {
		s.logger.Error("failed to create activity", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError("failed to create activity", err)
	}
	s.logger.Info("activity created", "activity_id", a.ID, "project_id", a.ProjectID, "admin_id", actor.ID)
	return ActivityFromDataModel(a), nil
}

func (s *Service) notFoundOr(err error, notFound *internal.AppError, msg string, args ...any) error {
	if errors.Is(err, ErrNotFound) {
		return notFound
	}
	s.logger.Error(msg, append([]any{"error", err}, args...)...)
	return internal.NewInternalError(msg, err)
}
