package poller

import (
	"time"

	"regenq/internal/queue"
)

// State is the poller lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateFinished  State = "finished"
	StateError     State = "error"
	StateCancelled State = "cancelled"
	StateTimeout   State = "timeout"
)

// Terminal reports whether a round has ended in s.
func (s State) Terminal() bool {
	switch s {
	case StateFinished, StateError, StateCancelled, StateTimeout:
		return true
	default:
		return false
	}
}

// stateForItem maps a terminal item status onto the poller state.
func stateForItem(status queue.Status) (State, bool) {
	switch status {
	case queue.StatusFinished:
		return StateFinished, true
	case queue.StatusError:
		return StateError, true
	default:
		return "", false
	}
}

// Snapshot is a point-in-time copy of the poller's view.
type Snapshot struct {
	Slug  string
	State State
	// Item is the latest item seen, nil until one exists.
	Item *queue.Item
	// Polls counts successful and failed reads in the current round.
	Polls     int
	StartedAt time.Time
	UpdatedAt time.Time
}

func (s Snapshot) clone() Snapshot {
	if s.Item != nil {
		item := *s.Item
		s.Item = &item
	}
	return s
}
