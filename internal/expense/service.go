package expense

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/chronotracker/chronotracker-api/internal"
	expenseDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/expense"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
)

type Filter struct {
	CollaboratorID *int64
	ProjectID      *int64
	From           *worktime.Date
	To             *worktime.Date
	Status         *status.Status
	Limit          int
	Offset         int
}

type RepositoryAPI interface {
	Create(ctx context.Context, e *expenseDatamodel.Expense) error
	GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error)
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, f Filter) ([]*expenseDatamodel.Expense, error)
}

// AttachmentChecker confirms that an attachment reference was issued by
// the attachment store.
type AttachmentChecker interface {
	Exists(ctx context.Context, ref string) (bool, error)
}

type Service struct {
	repo        RepositoryAPI
	attachments AttachmentChecker
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo RepositoryAPI, attachments AttachmentChecker, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		attachments: attachments,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) CreateExpense(ctx context.Context, actor internal.Actor, dto CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(worktime.DateOf(s.now())); err != nil {
		return nil, err
	}

	ref := strings.TrimSpace(*dto.Attachment)
	if s.attachments != nil {
		ok, err := s.attachments.Exists(ctx, ref)
		if err != nil {
			s.logger.Error("failed to check attachment", "error", err, "attachment", ref)
			return nil, internal.NewInternalError("failed to check attachment", err)
		}
		if !ok {
			return nil, internal.NewValidationFieldError("attachment", "attachment not found", internal.ErrCodeMissingField)
		}
	}

	t, _ := ParseType(dto.Type)
	m := &expenseDatamodel.Expense{
		CollaboratorID: actor.ID,
		ProjectID:      dto.ProjectID,
		Type:           string(t),
		ExpenseDate:    dto.Date.Time(),
		Amount:         *dto.roundedAmount(),
		Description:    strings.TrimSpace(dto.Description),
		Attachment:     ref,
		Status:         status.Pending,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		s.logger.Error("failed to create expense", "error", err, "collaborator_id", actor.ID)
		return nil, internal.NewInternalError("failed to create expense", err)
	}

	s.logger.Info("expense created",
		"expense_id", m.ID,
		"collaborator_id", actor.ID,
		"amount", m.Amount.StringFixed(2),
		"type", m.Type)
	return FromDataModel(m), nil
}

func (s *Service) GetExpense(ctx context.Context, actor internal.Actor, id int64) (*Expense, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(m.CollaboratorID) {
		return nil, internal.ErrPermissionDenied
	}
	return FromDataModel(m), nil
}

// DeleteExpense lets the owner withdraw a pending claim. Managers may
// delete any claim.
func (s *Service) DeleteExpense(ctx context.Context, actor internal.Actor, id int64) error {
	m, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanSee(m.CollaboratorID) {
		return internal.ErrPermissionDenied
	}
	if !actor.IsManager() && m.Status != status.Pending {
		return internal.ErrNotPending
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrExpenseNotFound
		}
		s.logger.Error("failed to delete expense", "error", err, "expense_id", id)
		return internal.NewInternalError("failed to delete expense", err)
	}
	s.logger.Info("expense deleted", "expense_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *Service) QueryExpenses(ctx context.Context, actor internal.Actor, q QueryFilter) ([]*Expense, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	f := Filter{
		CollaboratorID: q.CollaboratorID,
		ProjectID:      q.ProjectID,
		From:           q.From,
		To:             q.To,
		Status:         q.Status,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	if !actor.IsManager() {
		if q.Scope == ScopeTeam {
			return nil, internal.ErrManagerRequired
		}
		if q.CollaboratorID != nil && *q.CollaboratorID != actor.ID {
			return nil, internal.ErrPermissionDenied
		}
	}
	if f.CollaboratorID == nil && q.Scope != ScopeTeam {
		own := actor.ID
		f.CollaboratorID = &own
	}

	ms, err := s.repo.Query(ctx, f)
	if err != nil {
		s.logger.Error("failed to query expenses", "error", err, "actor_id", actor.ID)
		return nil, internal.NewInternalError("failed to query expenses", err)
	}
	return FromDataModels(ms), nil
}

func (s *Service) load(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		s.logger.Error("failed to load expense", "error", err, "expense_id", id)
		return nil, internal.NewInternalError("failed to load expense", err)
	}
	return m, nil
}
