package ports

import (
	"context"
	"time"

	"github.com/Rulkallos-CHL/spycards/internal/domain"
)

// SnapshotStorePort is the state synchronization record: one whole-document
// MatchState per matchId, replaced on every publish. Writes carry the version
// observed at the previous read so stale publishes are rejected rather than
// silently clobbering newer state.
type SnapshotStorePort interface {
	// Save replaces the record with the given state. prevVersion is the
	// storage version from the last Save/Load ("" for the first write).
	// Returns the new version, or app.ErrStaleSnapshot when the record moved
	// underneath the writer.
	Save(ctx context.Context, state *domain.MatchState, prevVersion string) (string, error)

	// Load fetches the current record. Returns app.ErrMatchNotFound when no
	// record exists for the match.
	Load(ctx context.Context, matchID string) (*domain.MatchState, string, error)

	// LoadWithRetry polls Load to cover the race between match creation and
	// the first snapshot publish. Returns app.ErrSyncUnavailable once the
	// attempts are exhausted.
	LoadWithRetry(ctx context.Context, matchID string, attempts int, backoff time.Duration) (*domain.MatchState, string, error)

	// Delete tears down the record when the match finishes or is abandoned.
	Delete(ctx context.Context, matchID string) error
}
