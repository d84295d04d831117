package clock

import (
	"context"
	"errors"
	"net/http"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/timeentry"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

type TrackerAPI interface {
	Status(actorID int64) Snapshot
	Start(actorID int64) (Snapshot, error)
	Pause(actorID int64) (Snapshot, error)
	Resume(actorID int64) (Snapshot, error)
	Stop(actorID int64) (Snapshot, error)
	Confirm(actorID int64, persist func(Snapshot) error) error
	Discard(actorID int64)
}

// EntryCreator persists the time entry a confirmed session becomes.
type EntryCreator interface {
	Create(ctx context.Context, actor internal.Actor, dto timeentry.CreateTimeEntryDTO) (*timeentry.TimeEntry, error)
}

type Handler struct {
	*transport.BaseHandler
	Tracker TrackerAPI
	Entries EntryCreator
}

func NewHandler(baseHandler *transport.BaseHandler, tracker TrackerAPI, entries EntryCreator) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Tracker:     tracker,
		Entries:     entries,
	}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, h.Tracker.Status(actor.ID))
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Tracker.Start)
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Tracker.Pause)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Tracker.Resume)
}

func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Tracker.Stop)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(int64) (Snapshot, error)) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	snap, err := op(actor.ID)
	if err != nil {
		h.HandleServiceError(w, r, translate(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, snap)
}

// Confirm turns the stopped session into a time entry and clears it. A
// rejected entry leaves the session in place so it can be confirmed again.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	var dto ConfirmDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var created *timeentry.TimeEntry
	err := h.Tracker.Confirm(actor.ID, func(snap Snapshot) error {
		date, start, end, err := snap.Span()
		if err != nil {
			return err
		}
		created, err = h.Entries.Create(r.Context(), actor, timeentry.CreateTimeEntryDTO{
			ProjectID:   dto.ProjectID,
			ActivityID:  dto.ActivityID,
			Date:        &date,
			StartTime:   &start,
			EndTime:     &end,
			Origin:      timeentry.OriginClock,
			Description: dto.Description,
		})
		return err
	})
	if err != nil {
		h.HandleServiceError(w, r, translate(err))
		return
	}

	h.Logger.Info("clock session confirmed", "user_id", actor.ID, "time_entry_id", created.ID)
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	h.Tracker.Discard(actor.ID)
	w.WriteHeader(http.StatusNoContent)
}

func translate(err error) error {
	switch {
	case errors.Is(err, ErrNotStarted):
		return internal.ErrSessionNotFound
	case errors.Is(err, ErrNotRunning), errors.Is(err, ErrNotPaused),
		errors.Is(err, ErrFinished), errors.Is(err, ErrNotStopped),
		errors.Is(err, ErrConfirming):
		return internal.NewInvalidStateError(err.Error(), internal.ErrCodeClockTransition)
	default:
		return err
	}
}
