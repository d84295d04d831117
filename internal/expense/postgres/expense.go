package postgres

import (
	"context"
	"errors"

	"github.com/chronotracker/chronotracker-api/internal/approval"
	expenseDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/expense"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/chronotracker/chronotracker-api/internal/expense"
	"gorm.io/gorm"
)

// ExpenseRepository implements expense.RepositoryAPI and approval.Store
// using GORM.
type ExpenseRepository struct {
	db *gorm.DB
}

var (
	_ expense.RepositoryAPI = (*ExpenseRepository)(nil)
	_ approval.Store        = (*ExpenseRepository)(nil)
)

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create saves a new expense to the database
func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	return r.db.WithContext(ctx).Create(exp).Error
}

// GetByID retrieves an expense by its ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrNotFound
		}
		return nil, err
	}
	return &exp, nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&expenseDatamodel.Expense{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return expense.ErrNotFound
	}
	return nil
}

func (r *ExpenseRepository) Query(ctx context.Context, f expense.Filter) ([]*expenseDatamodel.Expense, error) {
	q := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{})
	if f.CollaboratorID != nil {
		q = q.Where("collaborator_id = ?", *f.CollaboratorID)
	}
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.From != nil {
		q = q.Where("expense_date >= ?", f.From.Time())
	}
	if f.To != nil {
		q = q.Where("expense_date <= ?", f.To.Time())
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var expenses []*expenseDatamodel.Expense
	err := q.Order("expense_date DESC, id DESC").Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) LoadApprovalRecord(ctx context.Context, id int64) (*approval.Record, error) {
	var exp expenseDatamodel.Expense
	err := r.db.WithContext(ctx).
		Select("id", "collaborator_id", "status").
		Where("id = ?", id).
		First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, approval.ErrRecordNotFound
		}
		return nil, err
	}
	return &approval.Record{ID: exp.ID, OwnerID: exp.CollaboratorID, Status: exp.Status}, nil
}

// TransitionStatus is a conditional update on the current status.
func (r *ExpenseRepository) TransitionStatus(ctx context.Context, req approval.TransitionRequest) error {
	res := r.db.WithContext(ctx).
		Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND status = ?", req.ID, req.From).
		Updates(map[string]interface{}{
			"status":           req.To,
			"rejection_reason": req.Reason,
			"reviewed_by":      req.ActorID,
			"reviewed_at":      req.At,
			"updated_at":       req.At,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&expenseDatamodel.Expense{}).Where("id = ?", req.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return approval.ErrRecordNotFound
	}
	return approval.ErrTransitionConflict
}

// PendingApprovals retrieves pending expenses, FIFO.
func (r *ExpenseRepository) PendingApprovals(ctx context.Context, limit, offset int) ([]approval.QueueItem, error) {
	q := r.db.WithContext(ctx).Where("status = ?", status.Pending)
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var expenses []*expenseDatamodel.Expense
	if err := q.Order("created_at ASC, id ASC").Find(&expenses).Error; err != nil {
		return nil, err
	}

	items := make([]approval.QueueItem, 0, len(expenses))
	for _, exp := range expenses {
		amount := exp.Amount
		items = append(items, approval.QueueItem{
			Kind:           approval.KindExpense,
			ID:             exp.ID,
			CollaboratorID: exp.CollaboratorID,
			ProjectID:      exp.ProjectID,
			Date:           worktime.DateOf(exp.ExpenseDate),
			Amount:         &amount,
			Description:    exp.Description,
			SubmittedAt:    exp.CreatedAt,
		})
	}
	return items, nil
}
