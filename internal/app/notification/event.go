package notification

import (
	"time"

	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// EventType represents a session event type.
type EventType int

const (
	EventStageChanged  EventType = iota // Session moved to another stage
	EventVotesChanged                   // A vote toggle landed on the open pool
	EventPlanReady                      // An itinerary was committed for review
	EventSessionReset                   // Session was cleared back to hotel entry
	EventInitialState                   // First event on a fresh stream, carries current state
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStageChanged:
		return "stage_changed"
	case EventVotesChanged:
		return "votes_changed"
	case EventPlanReady:
		return "plan_ready"
	case EventSessionReset:
		return "session_reset"
	case EventInitialState:
		return "initial_state"
	default:
		return "unknown"
	}
}

// Event represents a session event delivered to subscribers.
type Event struct {
	ChatID     string
	Type       EventType
	Stage      planning.Stage
	Generation uint64
	SequenceNo uint64 // Assigned by the manager on broadcast
	OccurredAt time.Time
}
