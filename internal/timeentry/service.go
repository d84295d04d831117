package timeentry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chronotracker/chronotracker-api/internal"
	timeentryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/core/events"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
)

// Filter is a QueryFilter after visibility rules were applied.
type Filter struct {
	ID             *int64
	CollaboratorID *int64
	ProjectID      *int64
	ActivityID     *int64
	From           *worktime.Date
	To             *worktime.Date
	Status         *status.Status
	Limit          int
	Offset         int
}

type RepositoryAPI interface {
	Create(ctx context.Context, e *timeentryDatamodel.TimeEntry) error
	GetByID(ctx context.Context, id int64) (*timeentryDatamodel.TimeEntry, error)
	Update(ctx context.Context, e *timeentryDatamodel.TimeEntry) error
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, f Filter) ([]*timeentryDatamodel.TimeEntry, error)
}

// ProjectDirectory resolves the client a project belongs to.
type ProjectDirectory interface {
	ClientIDForProject(ctx context.Context, projectID int64) (int64, error)
}

type Service struct {
	repo      RepositoryAPI
	projects  ProjectDirectory
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, projects ProjectDirectory, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		projects:  projects,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the source of "today" used by date validation.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() worktime.Date {
	return worktime.DateOf(s.now())
}

func (s *Service) Create(ctx context.Context, actor internal.Actor, dto CreateTimeEntryDTO) (*TimeEntry, error) {
	if err := dto.Validate(s.today()); err != nil {
		s.logger.Debug("time entry rejected by validation", "collaborator_id", actor.ID, "error", err)
		return nil, err
	}

	origin := dto.Origin
	if origin == "" {
		origin = OriginManual
	}

	clientID, err := s.clientFor(ctx, dto.ProjectID)
	if err != nil {
		return nil, err
	}

	m := &timeentryDatamodel.TimeEntry{
		CollaboratorID: actor.ID,
		ProjectID:      dto.ProjectID,
		ActivityID:     dto.ActivityID,
		ClientID:       clientID,
		EntryDate:      dto.Date.Time(),
		StartTime:      *dto.StartTime,
		EndTime:        *dto.EndTime,
		Origin:         string(origin),
		Description:    dto.Description,
		Status:         status.Pending,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		s.logger.Error("failed to create time entry", "error", err, "collaborator_id", actor.ID)
		return nil, internal.NewInternalError("failed to create time entry", err)
	}

	s.logger.Info("time entry created",
		"time_entry_id", m.ID,
		"collaborator_id", actor.ID,
		"origin", origin,
		"date", dto.Date.String())
	return FromDataModel(m), nil
}

func (s *Service) Get(ctx context.Context, actor internal.Actor, id int64) (*TimeEntry, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(m.CollaboratorID) {
		return nil, internal.ErrPermissionDenied
	}
	return FromDataModel(m), nil
}

// Update applies a partial edit. Status never changes here and rejected
// entries are closed for edits.
func (s *Service) Update(ctx context.Context, actor internal.Actor, id int64, dto UpdateTimeEntryDTO) (*TimeEntry, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(m.CollaboratorID) {
		return nil, internal.ErrPermissionDenied
	}
	if m.Status == status.Rejected {
		return nil, internal.ErrNotEditable
	}

	if dto.ProjectID != nil && *dto.ProjectID != m.ProjectID {
		clientID, err := s.clientFor(ctx, *dto.ProjectID)
		if err != nil {
			return nil, err
		}
		m.ProjectID = *dto.ProjectID
		m.ClientID = clientID
	}
	if dto.ActivityID != nil {
		m.ActivityID = *dto.ActivityID
	}
	if dto.Date != nil {
		m.EntryDate = dto.Date.Time()
	}
	if dto.StartTime != nil {
		m.StartTime = *dto.StartTime
	}
	if dto.EndTime != nil {
		m.EndTime = *dto.EndTime
	}
	if dto.Description != nil {
		m.Description = dto.Description
	}
	if err := validateSpan(worktime.DateOf(m.EntryDate), m.StartTime, m.EndTime, s.today()); err != nil {
		return nil, err
	}
	reason := dto.Reason
	m.EditReason = &reason

	if err := s.repo.Update(ctx, m); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, internal.ErrTimeEntryNotFound
		case errors.Is(err, ErrNotEditable):
			return nil, internal.ErrNotEditable
		}
		s.logger.Error("failed to update time entry", "error", err, "time_entry_id", id)
		return nil, internal.NewInternalError("failed to update time entry", err)
	}

	event := events.NewRecordEvent(events.RecordKindTimeEntry, events.ActionEdited, m.ID, m.CollaboratorID, actor.ID, reason, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish time entry edit", "error", err, "time_entry_id", m.ID)
	}

	s.logger.Info("time entry edited", "time_entry_id", m.ID, "editor_id", actor.ID)
	return FromDataModel(m), nil
}

func (s *Service) Delete(ctx context.Context, actor internal.Actor, id int64) error {
	m, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanSee(m.CollaboratorID) {
		return internal.ErrPermissionDenied
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrTimeEntryNotFound
		}
		s.logger.Error("failed to delete time entry", "error", err, "time_entry_id", id)
		return internal.NewInternalError("failed to delete time entry", err)
	}
	s.logger.Info("time entry deleted", "time_entry_id", id, "deleted_by", actor.ID)
	return nil
}

// Query lists entries visible to actor. Collaborators only ever see their
// own; managers may ask for one collaborator or the whole team.
func (s *Service) Query(ctx context.Context, actor internal.Actor, q QueryFilter) ([]*TimeEntry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	f, err := resolveFilter(actor, q)
	if err != nil {
		return nil, err
	}

	ms, err := s.repo.Query(ctx, f)
	if err != nil {
		s.logger.Error("failed to query time entries", "error", err, "actor_id", actor.ID)
		return nil, internal.NewInternalError("failed to query time entries", err)
	}
	return FromDataModels(ms), nil
}

func resolveFilter(actor internal.Actor, q QueryFilter) (Filter, error) {
	f := Filter{
		ID:             q.ID,
		CollaboratorID: q.CollaboratorID,
		ProjectID:      q.ProjectID,
		ActivityID:     q.ActivityID,
		From:           q.From,
		To:             q.To,
		Status:         q.Status,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	if !actor.IsManager() {
		if q.Scope == ScopeTeam {
			return Filter{}, internal.ErrManagerRequired
		}
		if q.CollaboratorID != nil && *q.CollaboratorID != actor.ID {
			return Filter{}, internal.ErrPermissionDenied
		}
	}
	if f.CollaboratorID == nil && q.Scope != ScopeTeam {
		own := actor.ID
		f.CollaboratorID = &own
	}
	return f, nil
}

func (s *Service) load(ctx context.Context, id int64) (*timeentryDatamodel.TimeEntry, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrTimeEntryNotFound
		}
		s.logger.Error("failed to load time entry", "error", err, "time_entry_id", id)
		return nil, internal.NewInternalError("failed to load time entry", err)
	}
	return m, nil
}

// clientFor looks up the project's client. A project the directory does
// not know leaves the entry without a client.
func (s *Service) clientFor(ctx context.Context, projectID int64) (*int64, error) {
	clientID, err := s.projects.ClientIDForProject(ctx, projectID)
	if err != nil {
		if internal.IsNotFound(err) {
			s.logger.Warn("project not in directory", "project_id", projectID)
			return nil, nil
		}
		s.logger.Error("failed to resolve project client", "error", err, "project_id", projectID)
		return nil, internal.NewInternalError("failed to resolve project client", err)
	}
	return &clientID, nil
}
