package timeentry

import (
	"time"

	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
)

type TimeEntry struct {
	ID              int64              `gorm:"primaryKey"`
	CollaboratorID  int64              `gorm:"column:collaborator_id;not null;index"`
	ProjectID       int64              `gorm:"column:project_id;not null;index"`
	ActivityID      int64              `gorm:"column:activity_id;not null;index"`
	ClientID        *int64             `gorm:"column:client_id"`
	EntryDate       time.Time          `gorm:"column:entry_date;type:date;not null;index"`
	StartTime       worktime.TimeOfDay `gorm:"column:start_time;type:varchar(8);not null"`
	EndTime         worktime.TimeOfDay `gorm:"column:end_time;type:varchar(8);not null"`
	Origin          string             `gorm:"column:origin;not null"`
	Description     *string            `gorm:"column:description"`
	Status          status.Status      `gorm:"column:status;not null;index"`
	EditReason      *string            `gorm:"column:edit_reason"`
	RejectionReason *string            `gorm:"column:rejection_reason"`
	ReviewedBy      *int64             `gorm:"column:reviewed_by"`
	ReviewedAt      *time.Time         `gorm:"column:reviewed_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}
