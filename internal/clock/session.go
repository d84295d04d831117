// Package clock is the live timer a collaborator runs while working. A
// stopped session is later confirmed into a time entry.
package clock

import (
	"errors"
	"time"

	"github.com/chronotracker/chronotracker-api/internal/core/worktime"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrNotStarted = errors.New("clock has not been started")
	ErrNotRunning = errors.New("clock is not running")
	ErrNotPaused  = errors.New("clock is not paused")
	ErrFinished   = errors.New("clock session already stopped")
	ErrNotStopped = errors.New("clock session has not been stopped")
	ErrConfirming = errors.New("clock session is already being confirmed")
)

// Session is a single stopwatch. It is not safe for concurrent use; the
// Tracker serializes access.
type Session struct {
	state     State
	elapsed   int64
	startedAt time.Time
	stoppedAt time.Time
	now       func() time.Time
}

func NewSession(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{now: now}
}

// Start begins the session, or resumes it when paused. Starting a running
// session does nothing. The wall-clock start is captured only once.
func (s *Session) Start() error {
	switch s.state {
	case StateIdle:
		s.startedAt = s.now()
		s.state = StateRunning
	case StatePaused:
		s.state = StateRunning
	case StateStopped:
		return ErrFinished
	}
	return nil
}

func (s *Session) Pause() error {
	switch s.state {
	case StateRunning:
		s.state = StatePaused
		return nil
	case StatePaused:
		return nil
	case StateStopped:
		return ErrFinished
	default:
		return ErrNotRunning
	}
}

func (s *Session) Resume() error {
	if s.state != StatePaused {
		if s.state == StateStopped {
			return ErrFinished
		}
		return ErrNotPaused
	}
	s.state = StateRunning
	return nil
}

// Stop ends a running or paused session and captures the wall-clock stop.
func (s *Session) Stop() error {
	switch s.state {
	case StateRunning, StatePaused:
		s.stoppedAt = s.now()
		s.state = StateStopped
		return nil
	case StateStopped:
		return ErrFinished
	default:
		return ErrNotStarted
	}
}

// Tick adds one second while running and is ignored otherwise.
func (s *Session) Tick() {
	if s.state == StateRunning {
		s.elapsed++
	}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Elapsed() int64 {
	return s.elapsed
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:          s.state,
		ElapsedSeconds: s.elapsed,
		Display:        worktime.FormatElapsed(s.elapsed),
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.stoppedAt.IsZero() {
		t := s.stoppedAt
		snap.StoppedAt = &t
	}
	return snap
}

type Snapshot struct {
	State          State      `json:"state"`
	ElapsedSeconds int64      `json:"elapsed_seconds"`
	Display        string     `json:"display"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	StoppedAt      *time.Time `json:"stopped_at,omitempty"`
}

// Span is the calendar day and wall-clock bounds a stopped session covers.
// It fails when the session has not been stopped.
func (s Snapshot) Span() (worktime.Date, worktime.TimeOfDay, worktime.TimeOfDay, error) {
	if s.State != StateStopped || s.StartedAt == nil || s.StoppedAt == nil {
		return worktime.Date{}, 0, 0, ErrNotStopped
	}
	return worktime.DateOf(*s.StartedAt), worktime.TimeOfDayOf(*s.StartedAt), worktime.TimeOfDayOf(*s.StoppedAt), nil
}
