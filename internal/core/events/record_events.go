package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	RecordKindTimeEntry = "time_entry"
	RecordKindExpense   = "expense"

	ActionApproved = "approved"
	ActionRejected = "rejected"
	ActionEdited   = "edited"
)

const (
	EventTypeTimeEntryApproved = "time_entry.approved"
	EventTypeTimeEntryRejected = "time_entry.rejected"
	EventTypeTimeEntryEdited   = "time_entry.edited"
	EventTypeExpenseApproved   = "expense.approved"
	EventTypeExpenseRejected   = "expense.rejected"
)

// RecordEventTypes lists every event emitted about a time entry or expense.
var RecordEventTypes = []string{
	EventTypeTimeEntryApproved,
	EventTypeTimeEntryRejected,
	EventTypeTimeEntryEdited,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
}

// RecordEvent reports that someone changed a time entry or an expense.
type RecordEvent struct {
	BaseEvent
	RecordKind string `json:"record_kind"`
	RecordID   int64  `json:"record_id"`
	OwnerID    int64  `json:"owner_id"`
	ActorID    int64  `json:"actor_id"`
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
}

// NewRecordEvent builds the event "<kind>.<action>", e.g. expense.rejected.
func NewRecordEvent(kind, action string, recordID, ownerID, actorID int64, reason string, at time.Time) *RecordEvent {
	return &RecordEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      kind + "." + action,
			Timestamp: at,
			Data: map[string]interface{}{
				"record_kind": kind,
				"record_id":   recordID,
				"owner_id":    ownerID,
				"actor_id":    actorID,
				"action":      action,
				"reason":      reason,
			},
		},
		RecordKind: kind,
		RecordID:   recordID,
		OwnerID:    ownerID,
		ActorID:    actorID,
		Action:     action,
		Reason:     reason,
	}
}
