package bot

import (
	"github.com/Rulkallos-CHL/spycards/internal/app"
	"github.com/Rulkallos-CHL/spycards/internal/domain"
)

// Plan computes the bot's full command sequence for its current turn. The
// policy is a pure function of the snapshot: steps are attempted in priority
// order, each at most once, and the sequence always terminates with EndTurn.
// There is no pass and no multi-action planning depth.
//
//  1. Play the first affordable card in hand.
//  2. If the front is unclaimed and a ready unit exists, move it to front.
//  3. If the front is held by the opponent and a ready unit exists, attack it.
//  4. If the bot holds the front, attack HQ.
//  5. End turn.
//
// Pacing between commands is the caller's concern; the planner never touches
// the clock. Commands that turn out to be illegal at execution time (the
// board moved between steps) are simply skipped by the executor, so the plan
// may be computed once at turn start.
func Plan(state *domain.MatchState, botID string) []app.Command {
	p := state.Participant(botID)
	if p == nil || state.ActiveParticipant != botID {
		return nil
	}

	var plan []app.Command

	for i, card := range p.Hand {
		if card.Cost <= p.EnergyCurrent {
			plan = append(plan, app.Command{Type: app.CmdPlayCard, HandIndex: i})
			break
		}
	}

	hasReady := state.FirstReadyUnit(botID) != nil
	frontOwner := state.FrontControl.OwnerID

	switch {
	case frontOwner == "" && hasReady:
		plan = append(plan, app.Command{Type: app.CmdMoveToFront})
		// Once the move lands the bot holds the front, so the HQ step fires
		// in the same turn.
		plan = append(plan, app.Command{Type: app.CmdAttackHQ})
	case frontOwner != "" && frontOwner != botID && hasReady:
		plan = append(plan, app.Command{Type: app.CmdAttackFront})
	case frontOwner == botID:
		plan = append(plan, app.Command{Type: app.CmdAttackHQ})
	}

	plan = append(plan, app.Command{Type: app.CmdEndTurn})
	return plan
}
