package app

import "github.com/Rulkallos-CHL/spycards/internal/domain"

// EventKind identifies emitted app events for dispatch by the port layer.
type EventKind string

const (
	// EventSnapshot carries the full canonical MatchState. Every successful
	// mutating command emits exactly one.
	EventSnapshot EventKind = "snapshot"
	// EventMatchEnded is emitted once when the match reaches finished.
	EventMatchEnded EventKind = "match_ended"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type SnapshotPayload struct {
	State *domain.MatchState
}

type MatchEndedPayload struct {
	Winner string
	Loser  string
	// Abandoned is true when the match ended by concession or disconnect
	// rather than HQ destruction.
	Abandoned bool
}
