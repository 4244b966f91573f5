package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rulkallos-CHL/spycards/internal/domain"
	"github.com/Rulkallos-CHL/spycards/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaStarterGrantAdapter grants the starter package (deck + SPY-coin
// bonus) using Nakama storage and wallet updates. A conditional marker write
// makes the grant happen at most once per user.
type NakamaStarterGrantAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaStarterGrantAdapter creates a new starter grant adapter.
func NewNakamaStarterGrantAdapter(nk runtime.NakamaModule) *NakamaStarterGrantAdapter {
	return &NakamaStarterGrantAdapter{nk: nk}
}

// GrantStarterOnce writes the starter deck, the grant marker, and the wallet
// bonus atomically. Returns granted=false when the marker already exists.
func (a *NakamaStarterGrantAdapter) GrantStarterOnce(ctx context.Context, userID string, deck []domain.DeckCard, coinBonus int64) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}

	marker := map[string]interface{}{
		"granted_at": time.Now().UTC().Format(time.RFC3339),
	}
	markerValue, err := json.Marshal(marker)
	if err != nil {
		return false, fmt.Errorf("failed to marshal starter marker: %w", err)
	}

	deckValue, err := json.Marshal(deckDocument{Cards: deck})
	if err != nil {
		return false, fmt.Errorf("failed to marshal starter deck: %w", err)
	}

	storageWrites := []*runtime.StorageWrite{
		{
			Collection:      CollectionOnboarding,
			Key:             KeyStarterGrant,
			UserID:          userID,
			Value:           string(markerValue),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
		{
			Collection:      CollectionDecks,
			Key:             KeyActiveDeck,
			UserID:          userID,
			Value:           string(deckValue),
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_OWNER_WRITE,
		},
	}

	var walletUpdates []*runtime.WalletUpdate
	if coinBonus > 0 {
		walletUpdates = append(walletUpdates, &runtime.WalletUpdate{
			UserID:    userID,
			Changeset: map[string]int64{walletKeyCoin: coinBonus},
			Metadata:  map[string]interface{}{"reason": "starter_package"},
		})
	}

	_, _, err = a.nk.MultiUpdate(ctx, nil, storageWrites, nil, walletUpdates, true)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to grant starter package: %w", err)
	}

	return true, nil
}

var _ ports.StarterGrantPort = (*NakamaStarterGrantAdapter)(nil)
