package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rulkallos-CHL/spycards/internal/app"
	"github.com/Rulkallos-CHL/spycards/internal/domain"
	"github.com/Rulkallos-CHL/spycards/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaSnapshotStore implements ports.SnapshotStorePort on Nakama storage.
// The record is a system object: one whole MatchState JSON document per
// matchId, replaced on every publish. Conditional writes on the storage
// version reject stale publishes instead of silently clobbering newer state.
type NakamaSnapshotStore struct {
	nk runtime.NakamaModule
}

// NewNakamaSnapshotStore creates a new snapshot store adapter.
func NewNakamaSnapshotStore(nk runtime.NakamaModule) *NakamaSnapshotStore {
	return &NakamaSnapshotStore{nk: nk}
}

// Save replaces the match record. prevVersion "" asserts the record does not
// exist yet; otherwise the write is conditional on the observed version.
func (s *NakamaSnapshotStore) Save(ctx context.Context, state *domain.MatchState, prevVersion string) (string, error) {
	value, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal match state: %w", err)
	}

	version := prevVersion
	if version == "" {
		version = "*"
	}

	acks, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      CollectionGameStates,
			Key:             state.MatchID,
			Value:           string(value),
			Version:         version,
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return "", app.ErrStaleSnapshot
		}
		return "", fmt.Errorf("failed to write match state: %w", err)
	}
	if len(acks) == 0 {
		return "", fmt.Errorf("match state write returned no ack")
	}
	return acks[0].Version, nil
}

// Load fetches the current record for the match.
func (s *NakamaSnapshotStore) Load(ctx context.Context, matchID string) (*domain.MatchState, string, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: CollectionGameStates, Key: matchID},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read match state: %w", err)
	}
	if len(objects) == 0 {
		return nil, "", app.ErrMatchNotFound
	}

	var state domain.MatchState
	if err := json.Unmarshal([]byte(objects[0].Value), &state); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal match state: %w", err)
	}
	return &state, objects[0].Version, nil
}

// LoadWithRetry polls Load to cover the race between match creation and the
// first snapshot publish.
func (s *NakamaSnapshotStore) LoadWithRetry(ctx context.Context, matchID string, attempts int, backoff time.Duration) (*domain.MatchState, string, error) {
	for i := 0; i < attempts; i++ {
		state, version, err := s.Load(ctx, matchID)
		if err == nil {
			return state, version, nil
		}
		if !errors.Is(err, app.ErrMatchNotFound) {
			return nil, "", err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, "", app.ErrSyncUnavailable
}

// Delete tears down the record when the match finishes or is abandoned.
func (s *NakamaSnapshotStore) Delete(ctx context.Context, matchID string) error {
	err := s.nk.StorageDelete(ctx, []*runtime.StorageDelete{
		{Collection: CollectionGameStates, Key: matchID},
	})
	if err != nil {
		return fmt.Errorf("failed to delete match state: %w", err)
	}
	return nil
}

var _ ports.SnapshotStorePort = (*NakamaSnapshotStore)(nil)
