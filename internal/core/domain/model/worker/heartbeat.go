// Package worker describes background workers as seen by the foreman:
// a heartbeat per worker and the health derived from its age.
package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"artfactory/internal/pkg/errs"
)

// State is what a worker reported doing at its last heartbeat.
type State string

const (
	StateIdle State = "idle"
	StateBusy State = "busy"
)

func ParseState(s string) (State, error) {
	switch st := State(strings.ToLower(s)); st {
	case StateIdle, StateBusy:
		return st, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("worker state", fmt.Errorf("%q is not a worker state", s))
	}
}

// Health is the foreman's verdict about a worker.
type Health string

const (
	Healthy Health = "healthy"
	Stale   Health = "stale"
)

// Heartbeat is the latest liveness report of a worker.
type Heartbeat struct {
	WorkerID    string
	Name        string
	State       State
	CurrentItem string
	Processed   int64
	Failed      int64
	StartedAt   time.Time
	LastSeen    time.Time
}

// Validate checks the fields a store needs to index the heartbeat.
func (h Heartbeat) Validate() error {
	var problems []error
	if strings.TrimSpace(h.WorkerID) == "" {
		problems = append(problems, errs.NewValueIsRequiredError("worker id"))
	}
	if _, err := ParseState(string(h.State)); err != nil {
		problems = append(problems, err)
	}
	if h.LastSeen.IsZero() {
		problems = append(problems, errs.NewValueIsRequiredError("last seen"))
	}
	return errors.Join(problems...)
}

// Health reports Stale when the heartbeat is older than threshold.
func (h Heartbeat) Health(now time.Time, threshold time.Duration) Health {
	if now.Sub(h.LastSeen) > threshold {
		return Stale
	}
	return Healthy
}

// Age is the time since the last heartbeat.
func (h Heartbeat) Age(now time.Time) time.Duration {
	return now.Sub(h.LastSeen)
}
