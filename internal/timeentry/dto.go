package timeentry

import (
	"errors"
	"strings"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/common/validation"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
)

var (
	ErrNotFound    = errors.New("time entry not found")
	ErrNotEditable = errors.New("time entry is rejected")
)

type CreateTimeEntryDTO struct {
	ProjectID   int64               `json:"project_id"`
	ActivityID  int64               `json:"activity_id"`
	Date        *worktime.Date      `json:"date"`
	StartTime   *worktime.TimeOfDay `json:"start_time"`
	EndTime     *worktime.TimeOfDay `json:"end_time"`
	Origin      Origin              `json:"origin,omitempty"`
	Description *string             `json:"description,omitempty"`
}

// Validate checks the entry against today, the submitter's local date.
func (dto CreateTimeEntryDTO) Validate(today worktime.Date) error {
	v := validation.NewValidator()
	v.Field("project_id", dto.ProjectID).Required()
	v.Field("activity_id", dto.ActivityID).Required()
	v.Field("date", dto.Date).Required().NotAfter(today)
	v.Field("start_time", dto.StartTime).Required()
	v.Field("end_time", dto.EndTime).Required().After("start_time", dto.StartTime)
	if dto.Origin != "" {
		v.Field("origin", string(dto.Origin)).OneOf(string(OriginManual), string(OriginClock))
	}
	v.Field("description", dto.Description).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateTimeEntryDTO is a partial edit. Status is accepted on the wire only
// so that an attempt to change it can be refused explicitly.
type UpdateTimeEntryDTO struct {
	ProjectID   *int64              `json:"project_id,omitempty"`
	ActivityID  *int64              `json:"activity_id,omitempty"`
	Date        *worktime.Date      `json:"date,omitempty"`
	StartTime   *worktime.TimeOfDay `json:"start_time,omitempty"`
	EndTime     *worktime.TimeOfDay `json:"end_time,omitempty"`
	Description *string             `json:"description,omitempty"`
	Reason      string              `json:"reason"`
	Status      *string             `json:"status,omitempty"`
}

func (dto UpdateTimeEntryDTO) Validate() error {
	if dto.Status != nil {
		return internal.ErrStatusChange
	}
	if strings.TrimSpace(dto.Reason) == "" {
		return internal.ErrMissingReason
	}
	v := validation.NewValidator()
	if dto.ProjectID != nil {
		v.Field("project_id", dto.ProjectID).Required()
	}
	if dto.ActivityID != nil {
		v.Field("activity_id", dto.ActivityID).Required()
	}
	v.Field("description", dto.Description).MaxLength(1000)
	v.Field("reason", dto.Reason).MaxLength(500)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// validateSpan re-checks the date and time invariants of an entry after a
// patch was applied to it.
func validateSpan(date worktime.Date, start, end worktime.TimeOfDay, today worktime.Date) error {
	v := validation.NewValidator()
	v.Field("date", date).Required().NotAfter(today)
	v.Field("end_time", &end).After("start_time", &start)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type Scope string

const (
	ScopeMine Scope = "mine"
	ScopeTeam Scope = "team"
)

// QueryFilter is what callers ask for. Nil fields do not filter.
type QueryFilter struct {
	ID             *int64
	CollaboratorID *int64
	ProjectID      *int64
	ActivityID     *int64
	From           *worktime.Date
	To             *worktime.Date
	Status         *status.Status
	Scope          Scope
	Limit          int
	Offset         int
}

func (f QueryFilter) Validate() error {
	v := validation.NewValidator()
	if f.Scope != "" {
		v.Field("scope", string(f.Scope)).OneOf(string(ScopeMine), string(ScopeTeam))
	}
	if f.From != nil && f.To != nil {
		v.Field("to", f.To).Custom(func(interface{}) *internal.AppError {
			if f.To.Before(*f.From) {
				return internal.NewValidationFieldError("to", "to must not be before from", internal.ErrCodeInvalidFilter)
			}
			return nil
		})
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type TimeEntriesResponse struct {
	Entries []*TimeEntry `json:"entries"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}
