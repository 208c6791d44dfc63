package domain

import (
	"fmt"
	"time"
)

type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeStopped     Outcome = "stopped"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// Session tracks one navigation between dispatch and its observed completion.
// StartedAt is diagnostic only; minimum-display arithmetic lives in the
// loading coordinator.
type Session struct {
	ID        string    `json:"id"`
	Active    bool      `json:"active"`
	Target    string    `json:"target"`
	From      string    `json:"from"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Outcome   Outcome   `json:"outcome"`
	Location  string    `json:"location"`
	Error     string    `json:"error,omitempty"`
}

// Close marks the session finished at now with the given outcome.
func (s *Session) Close(now time.Time, outcome Outcome) {
	s.Active = false
	s.EndedAt = now
	s.Outcome = outcome
}

// Duration is the time between dispatch and close, zero while active.
func (s Session) Duration() time.Duration {
	if s.Active || s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// DispatchError reports that the navigation primitive failed before the
// navigation could begin.
type DispatchError struct {
	Target string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch navigation to %q: %v", e.Target, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
