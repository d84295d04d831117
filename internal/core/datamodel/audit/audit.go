package audit

import "time"

// Entry is one immutable line of the approval trail.
type Entry struct {
	ID         int64     `gorm:"primaryKey"`
	EventID    string    `gorm:"column:event_id;uniqueIndex;not null"`
	RecordKind string    `gorm:"column:record_kind;not null;index:idx_audit_record"`
	RecordID   int64     `gorm:"column:record_id;not null;index:idx_audit_record"`
	Action     string    `gorm:"column:action;not null"`
	ActorID    int64     `gorm:"column:actor_id;not null"`
	Reason     *string   `gorm:"column:reason"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null"`
}

func (Entry) TableName() string {
	return "approval_audit"
}
