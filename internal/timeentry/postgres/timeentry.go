package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/chronotracker/chronotracker-api/internal/approval"
	timeentryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/chronotracker/chronotracker-api/internal/timeentry"
	"gorm.io/gorm"
)

// editableColumns are the columns a post-creation edit may touch. Status
// and review columns belong to TransitionStatus.
var editableColumns = []string{
	"project_id", "activity_id", "client_id", "entry_date",
	"start_time", "end_time", "description", "edit_reason", "updated_at",
}

// TimeEntryRepository stores time entries and serves as the approval store
// for them.
type TimeEntryRepository struct {
	db *gorm.DB
}

var (
	_ timeentry.RepositoryAPI = (*TimeEntryRepository)(nil)
	_ approval.Store          = (*TimeEntryRepository)(nil)
)

func NewTimeEntryRepository(db *gorm.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

func (r *TimeEntryRepository) Create(ctx context.Context, e *timeentryDatamodel.TimeEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *TimeEntryRepository) GetByID(ctx context.Context, id int64) (*timeentryDatamodel.TimeEntry, error) {
	var e timeentryDatamodel.TimeEntry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, timeentry.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Update writes the editable columns unless the row has been rejected in
// the meantime.
func (r *TimeEntryRepository) Update(ctx context.Context, e *timeentryDatamodel.TimeEntry) error {
	e.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(e).
		Where("status <> ?", status.Rejected).
		Select(editableColumns).
		Updates(e)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&timeentryDatamodel.TimeEntry{}).Where("id = ?", e.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return timeentry.ErrNotFound
	}
	return timeentry.ErrNotEditable
}

func (r *TimeEntryRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&timeentryDatamodel.TimeEntry{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return timeentry.ErrNotFound
	}
	return nil
}

// Query orders by date, start time and id, all descending, so that paging
// is stable.
func (r *TimeEntryRepository) Query(ctx context.Context, f timeentry.Filter) ([]*timeentryDatamodel.TimeEntry, error) {
	q := r.db.WithContext(ctx).Model(&timeentryDatamodel.TimeEntry{})
	if f.ID != nil {
		q = q.Where("id = ?", *f.ID)
	}
	if f.CollaboratorID != nil {
		q = q.Where("collaborator_id = ?", *f.CollaboratorID)
	}
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.ActivityID != nil {
		q = q.Where("activity_id = ?", *f.ActivityID)
	}
	if f.From != nil {
		q = q.Where("entry_date >= ?", f.From.Time())
	}
	if f.To != nil {
		q = q.Where("entry_date <= ?", f.To.Time())
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

	var entries []*timeentryDatamodel.TimeEntry
	err := q.Order("entry_date DESC, start_time DESC, id DESC").Find(&entries).Error
	return entries, err
}

func (r *TimeEntryRepository) LoadApprovalRecord(ctx context.Context, id int64) (*approval.Record, error) {
	var e timeentryDatamodel.TimeEntry
	err := r.db.WithContext(ctx).
		Select("id", "collaborator_id", "status").
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, approval.ErrRecordNotFound
		}
		return nil, err
	}
	return &approval.Record{ID: e.ID, OwnerID: e.CollaboratorID, Status: e.Status}, nil
}

// TransitionStatus only writes when the row still has req.From. Losing a
// race with another decision therefore affects zero rows.
func (r *TimeEntryRepository) TransitionStatus(ctx context.Context, req approval.TransitionRequest) error {
	res := r.db.WithContext(ctx).
		Model(&timeentryDatamodel.TimeEntry{}).
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
	if err := r.db.WithContext(ctx).Model(&timeentryDatamodel.TimeEntry{}).Where("id = ?", req.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return approval.ErrRecordNotFound
	}
	return approval.ErrTransitionConflict
}

// PendingApprovals returns the oldest submissions first.
func (r *TimeEntryRepository) PendingApprovals(ctx context.Context, limit, offset int) ([]approval.QueueItem, error) {
	q := r.db.WithContext(ctx).Where("status = ?", status.Pending)
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var entries []*timeentryDatamodel.TimeEntry
	err := q.Order("created_at ASC, id ASC").Find(&entries).Error
	if err != nil {
		return nil, err
	}

	items := make([]approval.QueueItem, 0, len(entries))
	for _, e := range entries {
		hours := worktime.Hours(e.StartTime, e.EndTime)
		item := approval.QueueItem{
			Kind:           approval.KindTimeEntry,
			ID:             e.ID,
			CollaboratorID: e.CollaboratorID,
			ProjectID:      e.ProjectID,
			Date:           worktime.DateOf(e.EntryDate),
			Hours:          &hours,
			SubmittedAt:    e.CreatedAt,
		}
		if e.Description != nil {
			item.Description = *e.Description
		}
		items = append(items, item)
	}
	return items, nil
}
