package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Rulkallos-CHL/spycards/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RejoinTokenResponse carries a signed token a disconnected player can use to
// reclaim their seat.
type RejoinTokenResponse struct {
	Token string `json:"token"`
}

// RedeemRejoinResponse resolves a rejoin token back to the match to rejoin.
type RedeemRejoinResponse struct {
	MatchID string `json:"matchId"`
}

// makeRpcRejoinToken issues a rejoin token for a match the caller participates
// in. The snapshot is the source of truth for participation.
func makeRpcRejoinToken(rejoin *app.RejoinService) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if userID == "" {
			return "", fmt.Errorf("authentication required")
		}

		var req struct {
			MatchID string `json:"matchId"`
		}
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", fmt.Errorf("invalid payload: %w", err)
		}
		if req.MatchID == "" {
			return "", fmt.Errorf("matchId is required")
		}

		store := NewNakamaSnapshotStore(nk)
		state, _, err := store.Load(ctx, req.MatchID)
		if err != nil {
			return "", err
		}
		if state.Participant(userID) == nil {
			return "", app.ErrUnknownParticipant
		}

		token, err := rejoin.GenerateToken(userID, req.MatchID)
		if err != nil {
			logger.Error("rpcRejoinToken [User:%s]: Failed to sign token: %v", userID, err)
			return "", err
		}

		resp, _ := json.Marshal(RejoinTokenResponse{Token: token})
		return string(resp), nil
	}
}

// makeRpcRedeemRejoin verifies a rejoin token and confirms the match snapshot
// still exists before handing the match id back.
func makeRpcRedeemRejoin(rejoin *app.RejoinService) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if userID == "" {
			return "", fmt.Errorf("authentication required")
		}

		var req struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", fmt.Errorf("invalid payload: %w", err)
		}

		matchID, err := rejoin.VerifyToken(userID, req.Token)
		if err != nil {
			logger.Warn("rpcRedeemRejoin [User:%s]: Rejected token: %v", userID, err)
			return "", err
		}

		store := NewNakamaSnapshotStore(nk)
		if _, _, err := store.Load(ctx, matchID); err != nil {
			return "", err
		}

		resp, _ := json.Marshal(RedeemRejoinResponse{MatchID: matchID})
		return string(resp), nil
	}
}
