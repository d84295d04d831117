package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chronotracker/chronotracker-api/internal"
	auditDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/audit"
	"github.com/chronotracker/chronotracker-api/internal/core/events"
)

type AuditEntry struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"event_id"`
	Kind       Kind      `json:"kind"`
	RecordID   int64     `json:"record_id"`
	Action     string    `json:"action"`
	ActorID    int64     `json:"actor_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func AuditEntryFromDataModel(m *auditDatamodel.Entry) *AuditEntry {
	e := &AuditEntry{
		ID:         m.ID,
		EventID:    m.EventID,
		Kind:       Kind(m.RecordKind),
		RecordID:   m.RecordID,
		Action:     m.Action,
		ActorID:    m.ActorID,
		OccurredAt: m.OccurredAt,
	}
	if m.Reason != nil {
		e.Reason = *m.Reason
	}
	return e
}

// AuditRepository must ignore a second write of the same event id.
type AuditRepository interface {
	Record(ctx context.Context, e *auditDatamodel.Entry) error
	ListForRecord(ctx context.Context, kind string, recordID int64) ([]*auditDatamodel.Entry, error)
	Recent(ctx context.Context, limit int) ([]*auditDatamodel.Entry, error)
}

type Subscriber interface {
	SubscribeAll(eventTypes []string, handler events.Handler)
}

// AuditRecorder turns decision and edit events into audit rows.
type AuditRecorder struct {
	repo   AuditRepository
	logger *slog.Logger
}

func NewAuditRecorder(repo AuditRepository, logger *slog.Logger) *AuditRecorder {
	return &AuditRecorder{repo: repo, logger: logger}
}

func (a *AuditRecorder) Register(bus Subscriber) {
	bus.SubscribeAll(events.RecordEventTypes, a.Handle)
}

func (a *AuditRecorder) Handle(ctx context.Context, event events.Event) error {
	re, ok := event.(*events.RecordEvent)
	if !ok {
		return fmt.Errorf("audit: unexpected event %T", event)
	}

	entry := &auditDatamodel.Entry{
		EventID:    re.EventID(),
		RecordKind: re.RecordKind,
		RecordID:   re.RecordID,
		Action:     re.Action,
		ActorID:    re.ActorID,
		OccurredAt: re.OccurredAt(),
	}
	if re.Reason != "" {
		reason := re.Reason
		entry.Reason = &reason
	}
	if err := a.repo.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit: record %s: %w", re.EventID(), err)
	}
	a.logger.Debug("audit entry recorded", "event_type", re.EventType(), "record_id", re.RecordID)
	return nil
}

type AuditService struct {
	repo   AuditRepository
	logger *slog.Logger
}

func NewAuditService(repo AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Trail lists what happened to one record, oldest first.
func (s *AuditService) Trail(ctx context.Context, actor internal.Actor, kind Kind, recordID int64) ([]*AuditEntry, error) {
	if !actor.IsManager() {
		return nil, internal.ErrManagerRequired
	}
	if !kind.Valid() {
		return nil, internal.NewValidationFieldError("kind", "kind must be time_entry or expense", internal.ErrCodeInvalidType)
	}
	ms, err := s.repo.ListForRecord(ctx, string(kind), recordID)
	if err != nil {
		s.logger.Error("failed to load audit trail", "error", err, "kind", kind, "record_id", recordID)
		return nil, internal.NewInternalError("failed to load audit trail", err)
	}
	return auditEntries(ms), nil
}

// Recent lists the latest audit entries across all records, newest first.
func (s *AuditService) Recent(ctx context.Context, actor internal.Actor, limit int) ([]*AuditEntry, error) {
	if !actor.IsManager() {
		return nil, internal.ErrManagerRequired
	}
	if limit <= 0 {
		limit = defaultQueueSize
	}
	ms, err := s.repo.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("failed to load audit log", "error", err)
		return nil, internal.NewInternalError("failed to load audit log", err)
	}
	return auditEntries(ms), nil
}

func auditEntries(ms []*auditDatamodel.Entry) []*AuditEntry {
	out := make([]*AuditEntry, 0, len(ms))
	for _, m := range ms {
		out = append(out, AuditEntryFromDataModel(m))
	}
	return out
}
