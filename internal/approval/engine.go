package approval

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/core/events"
	"github.com/chronotracker/chronotracker-api/internal/core/status"
)

const defaultQueueSize = 50

// Engine is the only writer of the status of time entries and expenses.
type Engine struct {
	stores    map[Kind]Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewEngine(entries, expenses Store, publisher events.Publisher, logger *slog.Logger) *Engine {
	return &Engine{
		stores: map[Kind]Store{
			KindTimeEntry: entries,
			KindExpense:   expenses,
		},
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Approve(ctx context.Context, actor internal.Actor, kind Kind, id int64) (*Decision, error) {
	return e.decide(ctx, actor, kind, id, status.Approved, "")
}

// Reject needs a non-empty reason, checked before storage is touched.
func (e *Engine) Reject(ctx context.Context, actor internal.Actor, kind Kind, id int64, reason string) (*Decision, error) {
	return e.decide(ctx, actor, kind, id, status.Rejected, reason)
}

func (e *Engine) decide(ctx context.Context, actor internal.Actor, kind Kind, id int64, to status.Status, reason string) (*Decision, error) {
	if !actor.IsManager() {
		e.logger.Warn("approval refused, manager role required",
			"actor_id", actor.ID, "role", actor.Role, "kind", kind, "record_id", id)
		return nil, internal.ErrManagerRequired
	}
	reason = strings.TrimSpace(reason)
	if to == status.Rejected && reason == "" {
		return nil, internal.ErrMissingReason
	}
	store, err := e.store(kind)
	if err != nil {
		return nil, err
	}

	rec, err := store.LoadApprovalRecord(ctx, id)
	if err != nil {
		return nil, e.storeError(err, kind, id, "failed to load record")
	}
	if rec.OwnerID == actor.ID {
		return nil, internal.ErrSelfApproval
	}
	if !status.CanTransition(rec.Status, to) {
		return nil, internal.ErrNotPending.WithDetails(map[string]string{"status": rec.Status.String()})
	}

	at := e.now()
	req := TransitionRequest{ID: id, From: rec.Status, To: to, ActorID: actor.ID, At: at}
	if reason != "" {
		req.Reason = &reason
	}
	if err := store.TransitionStatus(ctx, req); err != nil {
		if errors.Is(err, ErrTransitionConflict) {
			e.logger.Info("lost decision race", "kind", kind, "record_id", id, "manager_id", actor.ID)
			return nil, internal.ErrAlreadyDecided
		}
		return nil, e.storeError(err, kind, id, "failed to update status")
	}

	d := &Decision{
		Kind:      kind,
		RecordID:  id,
		Status:    to,
		Reason:    reason,
		DecidedBy: actor.ID,
		DecidedAt: at,
	}
	e.logger.Info("record decided",
		"kind", kind,
		"record_id", id,
		"status", to,
		"manager_id", actor.ID,
		"owner_id", rec.OwnerID)

	action := events.ActionApproved
	if to == status.Rejected {
		action = events.ActionRejected
	}
	event := events.NewRecordEvent(string(kind), action, id, rec.OwnerID, actor.ID, reason, at)
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Error("failed to publish decision", "error", err, "event_type", event.EventType(), "record_id", id)
	}
	return d, nil
}

// Pending is the manager approval queue, oldest submissions first, capped
// at limit items per kind.
func (e *Engine) Pending(ctx context.Context, actor internal.Actor, limit int) ([]QueueItem, error) {
	if !actor.IsManager() {
		return nil, internal.ErrManagerRequired
	}
	if limit <= 0 {
		limit = defaultQueueSize
	}

	var items []QueueItem
	for _, kind := range []Kind{KindTimeEntry, KindExpense} {
		part, err := e.stores[kind].PendingApprovals(ctx, limit, 0)
		if err != nil {
			e.logger.Error("failed to load approval queue", "error", err, "kind", kind)
			return nil, internal.NewInternalError("failed to load approval queue", err)
		}
		items = append(items, part...)
	}
	sortQueue(items)
	return items, nil
}

func (e *Engine) store(kind Kind) (Store, error) {
	s, ok := e.stores[kind]
	if !ok || s == nil {
		return nil, internal.NewValidationFieldError("kind", "kind must be time_entry or expense", internal.ErrCodeInvalidType)
	}
	return s, nil
}

func (e *Engine) storeError(err error, kind Kind, id int64, msg string) error {
	if errors.Is(err, ErrRecordNotFound) {
		if kind == KindExpense {
			return internal.ErrExpenseNotFound
		}
		return internal.ErrTimeEntryNotFound
	}
	e.logger.Error(msg, "error", err, "kind", kind, "record_id", id)
	return internal.NewInternalError(msg, err)
}
