// Package approval owns the pending -> approved | rejected transition of
// time entries and expenses, the manager approval queue and the audit trail.
package approval

import (
	"context"
	"errors"
	"time"

	"github.com/chronotracker/chronotracker-api/internal/core/events"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindTimeEntry Kind = events.RecordKindTimeEntry
	KindExpense   Kind = events.RecordKindExpense
)

func (k Kind) Valid() bool {
	return k == KindTimeEntry || k == KindExpense
}

var (
	ErrRecordNotFound     = errors.New("approval record not found")
	ErrTransitionConflict = errors.New("record is no longer in the expected status")
)

// Record is the part of a time entry or expense the engine decides on.
type Record struct {
	ID      int64
	OwnerID int64
	Status  status.Status
}

// TransitionRequest moves a record from From to To. Reason is stored as the
// rejection reason and must be nil for approvals.
type TransitionRequest struct {
	ID      int64
	From    status.Status
	To      status.Status
	Reason  *string
	ActorID int64
	At      time.Time
}

// QueueItem is one line of the manager approval queue.
type QueueItem struct {
	Kind           Kind             `json:"kind"`
	ID             int64            `json:"id"`
	CollaboratorID int64            `json:"collaborator_id"`
	ProjectID      int64            `json:"project_id"`
	Date           worktime.Date    `json:"date"`
	Hours          *float64         `json:"hours,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Description    string           `json:"description,omitempty"`
	SubmittedAt    time.Time        `json:"submitted_at"`
}

// Store is implemented by the time entry and expense repositories.
// TransitionStatus must be a single conditional write that fails with
// ErrTransitionConflict when the stored status is no longer From, and with
// ErrRecordNotFound when the row is gone.
type Store interface {
	LoadApprovalRecord(ctx context.Context, id int64) (*Record, error)
	TransitionStatus(ctx context.Context, req TransitionRequest) error
	PendingApprovals(ctx context.Context, limit, offset int) ([]QueueItem, error)
}

// Decision is the outcome of a successful approve or reject.
type Decision struct {
	Kind      Kind          `json:"kind"`
	RecordID  int64         `json:"record_id"`
	Status    status.Status `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	DecidedBy int64         `json:"decided_by"`
	DecidedAt time.Time     `json:"decided_at"`
}
