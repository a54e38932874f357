// Package runstate holds the lifecycle of a daily run and the only
// transition function the run store is allowed to apply.
package runstate

import (
	"encoding/json"
	"fmt"

	"plotlines.app/pkg/errors"
)

// Status is the persisted state of one (combination, date) run
type Status int

const (
	// StatusAbsent means no row exists yet for the run
	StatusAbsent Status = iota
	StatusPending
	StatusCompleted
	StatusFailed
)

// String returns the string representation of status
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "absent"
	}
}

// IsValid checks if the status can be stored
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusFailed
}

// StatusFromString converts string to Status enum
func StatusFromString(s string) Status {
	switch s {
	case "pending":
		return StatusPending
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	default:
		return StatusAbsent
	}
}

// MarshalJSON implements json.Marshaler interface
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler interface
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = StatusFromString(str)
	return nil
}

// Event is the outcome of one engine invocation
type Event int

const (
	EventEngineSucceeded Event = iota + 1
	EventEngineFailed
)

func (e Event) String() string {
	switch e {
	case EventEngineSucceeded:
		return "engine_succeeded"
	case EventEngineFailed:
		return "engine_failed"
	default:
		return "unknown"
	}
}

// NeedsGeneration reports whether a run in this status must be (re)generated.
// A completed run is skipped entirely on every later cycle.
func NeedsGeneration(current Status) bool {
	return current != StatusCompleted
}

// Transition returns the status a run moves to when event happens.
// Completed is terminal: any event against it is a consistency error.
func Transition(current Status, event Event) (Status, error) {
	if current == StatusCompleted {
		return current, errors.NewConsistencyError(
			fmt.Sprintf("run already completed, refusing %s", event))
	}

	switch event {
	case EventEngineSucceeded:
		return StatusCompleted, nil
	case EventEngineFailed:
		return StatusFailed, nil
	default:
		return current, errors.NewValidationError(fmt.Sprintf("unknown run event %d", int(event)))
	}
}
