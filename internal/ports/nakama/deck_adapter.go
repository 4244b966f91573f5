package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Rulkallos-CHL/spycards/internal/config"
	"github.com/Rulkallos-CHL/spycards/internal/domain"
	"github.com/Rulkallos-CHL/spycards/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// deckDocument is the stored shape of a user's active deck.
type deckDocument struct {
	Cards []domain.DeckCard `json:"cards"`
}

// NakamaDeckAdapter implements ports.DeckPort on Nakama storage. Users without
// a stored deck get the starter deck.
type NakamaDeckAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaDeckAdapter creates a new deck adapter.
func NewNakamaDeckAdapter(nk runtime.NakamaModule) *NakamaDeckAdapter {
	return &NakamaDeckAdapter{nk: nk}
}

// FetchDeck returns the owner's active deck, or the starter deck when none is
// stored.
func (a *NakamaDeckAdapter) FetchDeck(ctx context.Context, ownerID string) ([]domain.DeckCard, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: CollectionDecks, Key: KeyActiveDeck, UserID: ownerID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read deck for %s: %w", ownerID, err)
	}
	if len(objects) == 0 {
		return config.StarterDeck(), nil
	}

	var doc deckDocument
	if err := json.Unmarshal([]byte(objects[0].Value), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck for %s: %w", ownerID, err)
	}
	if len(doc.Cards) == 0 {
		return config.StarterDeck(), nil
	}
	return doc.Cards, nil
}

var _ ports.DeckPort = (*NakamaDeckAdapter)(nil)
