package expense

import (
	"time"

	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID              int64           `gorm:"primaryKey"`
	CollaboratorID  int64           `gorm:"column:collaborator_id;not null;index"`
	ProjectID       int64           `gorm:"column:project_id;not null;index"`
	Type            string          `gorm:"column:type;not null"`
	ExpenseDate     time.Time       `gorm:"column:expense_date;type:date;not null"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Description     string          `gorm:"column:description"`
	Attachment      string          `gorm:"column:attachment;not null"`
	Status          status.Status   `gorm:"column:status;not null;index"`
	RejectionReason *string         `gorm:"column:rejection_reason"`
	ReviewedBy      *int64          `gorm:"column:reviewed_by"`
	ReviewedAt      *time.Time      `gorm:"column:reviewed_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}
