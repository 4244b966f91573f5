package app

import "github.com/Rulkallos-CHL/spycards/internal/domain"

// Session is the context object for one live match: the canonical state plus
// the server-side draw piles, which are deliberately kept out of the published
// snapshot. A session is owned by the component orchestrating the match
// lifecycle and passed to every command handler.
type Session struct {
	State *domain.MatchState

	piles map[string][]domain.Card
}

// NewSession wraps an existing state with empty draw piles. Draws fall back to
// the fixed template card, which is the behavior a participant restored from a
// persisted snapshot gets.
func NewSession(state *domain.MatchState) *Session {
	return &Session{
		State: state,
		piles: make(map[string][]domain.Card),
	}
}

// PileSize reports how many cards remain in a participant's draw pile.
func (sess *Session) PileSize(participantID string) int {
	return len(sess.piles[participantID])
}

// draw pops the next card from the participant's pile, falling back to the
// template card once the pile is exhausted.
func (sess *Session) draw(participantID string) domain.Card {
	pile := sess.piles[participantID]
	if len(pile) == 0 {
		return domain.TemplateCard()
	}
	card := pile[0]
	sess.piles[participantID] = pile[1:]
	return card
}
