package app

import (
	"math/rand"
	"time"

	"github.com/Rulkallos-CHL/spycards/internal/domain"
)

// Service contains the SpyCards use-cases operating on match sessions. It is
// the single mutation path for a MatchState: commands are validated against
// the current state and whose-turn, applied all-or-nothing, and each success
// yields exactly one snapshot publication.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// StartMatch creates the canonical state for a newly bound pair of
// participants. The host acts first and receives the bootstrap energy grant.
// decks maps participant id to the deck fetched from the persistence
// collaborator; a nil or empty deck leaves that side drawing template cards.
func (s *Service) StartMatch(matchID, hostID, guestID string, guestIsBot bool, decks map[string][]domain.DeckCard) (*Session, []Event, error) {
	state := &domain.MatchState{
		MatchID:           matchID,
		Status:            domain.StatusStarted,
		TurnNumber:        1,
		ActiveParticipant: hostID,
		HostID:            hostID,
		GuestID:           guestID,
		Participants: map[string]*domain.Participant{
			hostID:  {ID: hostID, HQ: domain.StartingHQ},
			guestID: {ID: guestID, HQ: domain.StartingHQ, IsBot: guestIsBot},
		},
	}

	sess := NewSession(state)
	for _, pid := range []string{hostID, guestID} {
		pile := domain.BuildDrawPile(decks[pid])
		s.rng.Shuffle(len(pile), func(i, j int) { pile[i], pile[j] = pile[j], pile[i] })
		sess.piles[pid] = pile

		p := state.Participant(pid)
		for i := 0; i < domain.OpeningHandSize; i++ {
			p.Hand = append(p.Hand, sess.draw(pid))
		}
		p.DeckRemaining = sess.PileSize(pid)
	}

	// Bootstrap energy for the starting participant; the first turn is never
	// entered through the turn-start rule.
	domain.BootstrapFirstTurn(state)

	return sess, s.published(sess), nil
}

// Apply validates and executes one command for the issuing participant.
// On failure the state is unchanged (aside from the documented NoFrontUnit
// repair) and no events are emitted.
func (s *Service) Apply(sess *Session, issuer string, cmd Command) ([]Event, error) {
	state := sess.State

	switch state.Status {
	case domain.StatusFinished:
		return nil, ErrMatchConcluded
	case domain.StatusStarted:
	default:
		return nil, ErrMatchNotStarted
	}

	if state.Participant(issuer) == nil {
		return nil, ErrUnknownParticipant
	}

	if cmd.Type == CmdConcede {
		return s.concede(sess, issuer), nil
	}

	if state.ActiveParticipant != issuer {
		return nil, ErrNotYourTurn
	}

	switch cmd.Type {
	case CmdPlayCard:
		return s.playCard(sess, issuer, cmd.HandIndex)
	case CmdMoveToFront:
		return s.moveToFront(sess, issuer)
	case CmdAttackFront:
		return s.attackFront(sess, issuer)
	case CmdAttackHQ:
		return s.attackHQ(sess, issuer)
	case CmdEndTurn:
		return s.endTurn(sess, issuer), nil
	default:
		return nil, ErrUnknownCommand
	}
}

func (s *Service) playCard(sess *Session, issuer string, handIndex int) ([]Event, error) {
	state := sess.State
	p := state.Participant(issuer)

	if handIndex < 0 || handIndex >= len(p.Hand) {
		return nil, ErrInvalidCardIndex
	}
	card := p.Hand[handIndex]
	if p.EnergyCurrent < card.Cost {
		return nil, ErrInsufficientEnergy
	}

	p.EnergyCurrent -= card.Cost
	p.Hand = append(p.Hand[:handIndex], p.Hand[handIndex+1:]...)
	if p.DeckRemaining > 0 {
		p.DeckRemaining--
	}
	state.SpawnUnit(issuer, card)

	return s.published(sess), nil
}

func (s *Service) moveToFront(sess *Session, issuer string) ([]Event, error) {
	state := sess.State

	unit := state.FirstReadyUnitOutsideFront(issuer)
	if unit == nil {
		return nil, ErrNoReadyUnits
	}
	if owner := state.FrontControl.OwnerID; owner != "" {
		if owner != issuer {
			return nil, ErrFrontOccupiedByOpponent
		}
		// A second unit may not stack onto an already-held front.
		return nil, ErrFrontAlreadyHeld
	}

	unit.Position = domain.FrontPosition()
	state.FrontControl = domain.FrontControl{OwnerID: issuer, OccupantUnitID: unit.ID}

	return s.published(sess), nil
}

func (s *Service) attackFront(sess *Session, issuer string) ([]Event, error) {
	state := sess.State

	if state.FrontControl.OccupantUnitID == "" {
		return nil, ErrNoFrontTarget
	}
	occupant := state.UnitByID(state.FrontControl.OccupantUnitID)
	if occupant == nil {
		// Dangling reference repair: the recorded occupant was removed by an
		// earlier exchange. Clear the record and report the empty front.
		state.ClearFront()
		return nil, ErrNoFrontTarget
	}
	if occupant.Owner == issuer {
		return nil, ErrFrontIsOwnUnit
	}
	if state.FirstReadyUnit(issuer) == nil {
		return nil, ErrNoReadyAttacker
	}

	domain.ResolveFrontAssault(state, issuer)

	return s.published(sess), nil
}

func (s *Service) attackHQ(sess *Session, issuer string) ([]Event, error) {
	state := sess.State

	if state.FrontControl.OwnerID != issuer {
		return nil, ErrFrontNotControlled
	}
	unit := state.UnitByID(state.FrontControl.OccupantUnitID)
	if unit == nil {
		// Consistency repair: clear the stale reference, report the failure.
		state.ClearFront()
		return nil, ErrNoFrontUnit
	}

	opponent := state.Opponent(issuer)
	opponent.HQ -= unit.Attack

	// Victory fires immediately after HQ damage, never deferred to a turn
	// boundary.
	if opponent.HQ <= 0 {
		return s.conclude(sess, issuer, opponent.ID, false), nil
	}

	return s.published(sess), nil
}

// endTurn hands the turn to the opponent: turn-start refresh and readiness
// countdown for them, one drawn card, deck decrement, turn counter increment.
// The participant who ended their turn is untouched.
func (s *Service) endTurn(sess *Session, issuer string) []Event {
	state := sess.State
	next := state.Opponent(issuer)

	domain.BeginTurn(state, next.ID)

	next.Hand = append(next.Hand, sess.draw(next.ID))
	if next.DeckRemaining > 0 {
		next.DeckRemaining--
	}

	state.ActiveParticipant = next.ID
	state.TurnNumber++

	return s.published(sess)
}

// concede is terminal abandonment: the opponent wins regardless of board state.
func (s *Service) concede(sess *Session, issuer string) []Event {
	winner := sess.State.Opponent(issuer)
	return s.conclude(sess, winner.ID, issuer, true)
}

// Abandon concludes the match against a participant who disconnected mid-game.
func (s *Service) Abandon(sess *Session, leaverID string) ([]Event, error) {
	state := sess.State
	if state.Status != domain.StatusStarted {
		return nil, ErrMatchNotStarted
	}
	if state.Participant(leaverID) == nil {
		return nil, ErrUnknownParticipant
	}
	winner := state.Opponent(leaverID)
	return s.conclude(sess, winner.ID, leaverID, true), nil
}

func (s *Service) conclude(sess *Session, winnerID, loserID string, abandoned bool) []Event {
	state := sess.State
	state.Status = domain.StatusFinished
	state.Winner = winnerID

	events := s.published(sess)
	events = append(events, Event{
		Kind: EventMatchEnded,
		Payload: MatchEndedPayload{
			Winner:    winnerID,
			Loser:     loserID,
			Abandoned: abandoned,
		},
	})
	return events
}

// published bumps the snapshot revision and emits the single snapshot event
// for a successful command.
func (s *Service) published(sess *Session) []Event {
	sess.State.Revision++
	return []Event{{
		Kind:    EventSnapshot,
		Payload: SnapshotPayload{State: sess.State},
	}}
}
