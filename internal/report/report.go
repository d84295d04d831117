// Package report computes the read-only summaries behind the dashboards:
// hours per period, activity budget progress and expense totals.
package report

import (
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/shopspring/decimal"
)

// Span is the date and time-of-day bounds of one time entry.
type Span struct {
	Date  worktime.Date
	Start worktime.TimeOfDay
	End   worktime.TimeOfDay
}

func (s Span) Hours() float64 {
	return worktime.Hours(s.Start, s.End)
}

type Amount struct {
	Status status.Status
	Amount decimal.Decimal
}

type HoursSummary struct {
	CollaboratorID int64         `json:"collaborator_id"`
	From           worktime.Date `json:"from"`
	To             worktime.Date `json:"to"`
	Hours          float64       `json:"hours"`
	Entries        int           `json:"entries"`
}

// BudgetProgress compares logged hours with the activity budget. Percent
// is not capped; DisplayPercent is, for progress bars.
type BudgetProgress struct {
	ActivityID     int64   `json:"activity_id"`
	LoggedHours    float64 `json:"logged_hours"`
	BudgetedHours  float64 `json:"budgeted_hours"`
	Percent        float64 `json:"percent"`
	DisplayPercent float64 `json:"display_percent"`
	Overrun        bool    `json:"overrun"`
}

type ExpenseTotals struct {
	CollaboratorID int64           `json:"collaborator_id"`
	Approved       decimal.Decimal `json:"approved_total"`
	Pending        decimal.Decimal `json:"pending_total"`
}

type GroupBy string

const (
	GroupByDay  GroupBy = "day"
	GroupByWeek GroupBy = "week"
)

type Bucket struct {
	Start worktime.Date `json:"start"`
	Hours float64       `json:"hours"`
}

type HoursBreakdown struct {
	CollaboratorID int64         `json:"collaborator_id"`
	GroupBy        GroupBy       `json:"group_by"`
	From           worktime.Date `json:"from"`
	To             worktime.Date `json:"to"`
	Buckets        []Bucket      `json:"buckets"`
	Total          float64       `json:"total"`
}
