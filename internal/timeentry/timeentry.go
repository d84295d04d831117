package timeentry

import (
	"time"

	timeentryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
)

type Origin string

const (
	OriginManual Origin = "manual"
	OriginClock  Origin = "clock"
)

type TimeEntry struct {
	ID              int64              `json:"id"`
	CollaboratorID  int64              `json:"collaborator_id"`
	ProjectID       int64              `json:"project_id"`
	ActivityID      int64              `json:"activity_id"`
	ClientID        int64              `json:"client_id,omitempty"`
	Date            worktime.Date      `json:"date"`
	StartTime       worktime.TimeOfDay `json:"start_time"`
	EndTime         worktime.TimeOfDay `json:"end_time"`
	Hours           float64            `json:"hours"`
	Origin          Origin             `json:"origin"`
	Description     *string            `json:"description,omitempty"`
	Status          status.Status      `json:"status"`
	StatusLabel     string             `json:"status_label"`
	EditReason      *string            `json:"edit_reason,omitempty"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`
	ReviewedBy      *int64             `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Duration is the worked time in hours, derived from the time-of-day bounds.
func (e *TimeEntry) Duration() float64 {
	return worktime.Hours(e.StartTime, e.EndTime)
}

func FromDataModel(m *timeentryDatamodel.TimeEntry) *TimeEntry {
	e := &TimeEntry{
		ID:              m.ID,
		CollaboratorID:  m.CollaboratorID,
		ProjectID:       m.ProjectID,
		ActivityID:      m.ActivityID,
		Date:            worktime.DateOf(m.EntryDate),
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		Origin:          Origin(m.Origin),
		Description:     m.Description,
		Status:          m.Status,
		StatusLabel:     m.Status.Display(),
		EditReason:      m.EditReason,
		RejectionReason: m.RejectionReason,
		ReviewedBy:      m.ReviewedBy,
		ReviewedAt:      m.ReviewedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.ClientID != nil {
		e.ClientID = *m.ClientID
	}
	e.Hours = e.Duration()
	return e
}

func FromDataModels(ms []*timeentryDatamodel.TimeEntry) []*TimeEntry {
	out := make([]*TimeEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromDataModel(m))
	}
	return out
}
