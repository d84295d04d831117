package clock

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Tracker keeps one Session per collaborator and drives all running
// sessions from a single ticker.
type Tracker struct {
	mu         sync.Mutex
	sessions   map[int64]*Session
	confirming map[int64]bool
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewTracker(interval time.Duration, logger *slog.Logger) *Tracker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Tracker{
		sessions:   make(map[int64]*Session),
		confirming: make(map[int64]bool),
		interval:   interval,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock swaps the wall clock used for start/stop capture.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Run ticks every session until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("clock tracker started", "interval", t.interval)
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("clock tracker stopped")
			return
		case <-ticker.C:
			t.TickAll()
		}
	}
}

func (t *Tracker) TickAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.sessions {
		s.Tick()
	}
}

// Start opens a session for actorID if none is live and starts it. A
// stopped, unconfirmed session is replaced.
func (t *Tracker) Start(actorID int64) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[actorID]
	if !ok || s.State() == StateStopped {
		s = NewSession(t.now)
		t.sessions[actorID] = s
	}
	if err := s.Start(); err != nil {
		return s.Snapshot(), err
	}
	t.logger.Debug("clock started", "collaborator_id", actorID)
	return s.Snapshot(), nil
}

func (t *Tracker) Pause(actorID int64) (Snapshot, error) {
	return t.apply(actorID, (*Session).Pause)
}

func (t *Tracker) Resume(actorID int64) (Snapshot, error) {
	return t.apply(actorID, (*Session).Resume)
}

func (t *Tracker) Stop(actorID int64) (Snapshot, error) {
	return t.apply(actorID, (*Session).Stop)
}

func (t *Tracker) apply(actorID int64, op func(*Session) error) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[actorID]
	if !ok {
		return Snapshot{}, ErrNotStarted
	}
	if err := op(s); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// Status returns the actor's session, or an idle snapshot when none exists.
func (t *Tracker) Status(actorID int64) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[actorID]; ok {
		return s.Snapshot()
	}
	return NewSession(t.now).Snapshot()
}

// ActiveSessions counts sessions that are not yet confirmed or discarded.
func (t *Tracker) ActiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Discard drops the actor's session whatever its state.
func (t *Tracker) Discard(actorID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, actorID)
}

// Confirm hands the stopped session to persist and drops it only when
// persist succeeds, so a rejected entry can be fixed and confirmed again.
// Only one confirm per collaborator runs at a time.
func (t *Tracker) Confirm(actorID int64, persist func(Snapshot) error) error {
	t.mu.Lock()
	s, ok := t.sessions[actorID]
	if !ok {
		t.mu.Unlock()
		return ErrNotStarted
	}
	if t.confirming[actorID] {
		t.mu.Unlock()
		return ErrConfirming
	}
	snap := s.Snapshot()
	if snap.State != StateStopped {
		t.mu.Unlock()
		return ErrNotStopped
	}
	t.confirming[actorID] = true
	t.mu.Unlock()

	err := persist(snap)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.confirming, actorID)
	if err != nil {
		return err
	}
	if cur, ok := t.sessions[actorID]; ok && cur == s {
		delete(t.sessions, actorID)
	}
	return nil
}
