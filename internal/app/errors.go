package app

import "errors"

// Command validation errors. All are local, non-fatal, and leave the match
// state untouched (ErrNoFrontUnit additionally repairs a dangling front
// reference before failing).
var (
	ErrNotYourTurn             = errors.New("not your turn")
	ErrInvalidCardIndex        = errors.New("hand index out of range")
	ErrInsufficientEnergy      = errors.New("not enough energy to play card")
	ErrNoReadyUnits            = errors.New("no ready unit outside the front slot")
	ErrFrontOccupiedByOpponent = errors.New("front slot is held by the opponent")
	ErrFrontAlreadyHeld        = errors.New("front slot is already held by you")
	ErrNoFrontTarget           = errors.New("no unit at the front to attack")
	ErrFrontIsOwnUnit          = errors.New("front occupant is your own unit")
	ErrNoReadyAttacker         = errors.New("no ready unit to contest the front")
	ErrFrontNotControlled      = errors.New("front must be controlled to attack HQ")
	ErrNoFrontUnit             = errors.New("front occupant no longer exists")
	ErrMatchConcluded          = errors.New("match already concluded")
	ErrUnknownParticipant      = errors.New("participant not in this match")
	ErrMatchNotStarted         = errors.New("match not started")
	ErrUnknownCommand          = errors.New("unknown command type")
)

// Collaborator-facing errors surfaced by the matchmaking and sync adapters.
var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrSyncUnavailable = errors.New("match state record not yet available")
	ErrStaleSnapshot   = errors.New("snapshot write rejected: stale revision")
)

// ErrorCode maps an error to the stable wire code reported to clients.
// Unknown errors map to "Internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotYourTurn):
		return "NotYourTurn"
	case errors.Is(err, ErrInvalidCardIndex):
		return "InvalidCardIndex"
	case errors.Is(err, ErrInsufficientEnergy):
		return "InsufficientEnergy"
	case errors.Is(err, ErrNoReadyUnits):
		return "NoReadyUnits"
	case errors.Is(err, ErrFrontOccupiedByOpponent):
		return "FrontOccupiedByOpponent"
	case errors.Is(err, ErrFrontAlreadyHeld):
		return "FrontAlreadyHeld"
	case errors.Is(err, ErrNoFrontTarget):
		return "NoFrontTarget"
	case errors.Is(err, ErrFrontIsOwnUnit):
		return "FrontIsOwnUnit"
	case errors.Is(err, ErrNoReadyAttacker):
		return "NoReadyAttacker"
	case errors.Is(err, ErrFrontNotControlled):
		return "FrontNotControlled"
	case errors.Is(err, ErrNoFrontUnit):
		return "NoFrontUnit"
	case errors.Is(err, ErrMatchConcluded):
		return "MatchConcluded"
	case errors.Is(err, ErrUnknownParticipant):
		return "UnknownParticipant"
	case errors.Is(err, ErrMatchNotStarted):
		return "MatchNotStarted"
	case errors.Is(err, ErrUnknownCommand):
		return "UnknownCommand"
	case errors.Is(err, ErrMatchNotFound):
		return "MatchNotFound"
	case errors.Is(err, ErrSyncUnavailable):
		return "SyncUnavailable"
	case errors.Is(err, ErrStaleSnapshot):
		return "StaleSnapshot"
	default:
		return "Internal"
	}
}
