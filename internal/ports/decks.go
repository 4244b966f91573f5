package ports

import (
	"context"

	"github.com/Rulkallos-CHL/spycards/internal/domain"
)

// DeckPort fetches a participant's active deck from the persistence
// collaborator. Implementations fall back to the starter deck when the user
// has nothing stored.
type DeckPort interface {
	// FetchDeck returns the deck list for the given owner.
	FetchDeck(ctx context.Context, ownerID string) ([]domain.DeckCard, error)
}

// StarterGrantPort grants the starter deck at most once per user.
type StarterGrantPort interface {
	// GrantStarterOnce records the starter deck and welcome balance for a new
	// account. Returns granted=false when the grant already happened.
	GrantStarterOnce(ctx context.Context, userID string, deck []domain.DeckCard, coinBonus int64) (bool, error)
}
