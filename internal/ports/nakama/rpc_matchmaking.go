package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/Rulkallos-CHL/spycards/internal/app"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// playCodeRecord maps a join code to the match it opens.
type playCodeRecord struct {
	MatchID string `json:"match_id"`
	HostID  string `json:"host_id"`
}

// CreateMatchResponse is returned to a host that requested a new match.
type CreateMatchResponse struct {
	MatchID  string `json:"matchId"`
	JoinCode string `json:"joinCode"`
}

// JoinMatchResponse resolves a join code for a guest.
type JoinMatchResponse struct {
	MatchID string `json:"matchId"`
}

var joinCodePattern = regexp.MustCompile(`^\d{5}$`)

const playCodeAttempts = 5

// rpcCreateMatch creates an authoritative match for the calling user and
// registers a unique 5-digit join code for it.
func rpcCreateMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", fmt.Errorf("authentication required")
	}

	code, err := generatePlayCode(ctx, nk)
	if err != nil {
		logger.Error("rpcCreateMatch [User:%s]: %v", userID, err)
		return "", err
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameSpyCards, map[string]interface{}{
		"host_id":   userID,
		"join_code": code,
	})
	if err != nil {
		logger.Error("rpcCreateMatch [User:%s]: Failed to create match: %v", userID, err)
		return "", err
	}

	record, _ := json.Marshal(playCodeRecord{MatchID: matchID, HostID: userID})
	_, err = nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      CollectionPlayCodes,
			Key:             code,
			Value:           string(record),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		logger.Error("rpcCreateMatch [User:%s]: Failed to register play code: %v", userID, err)
		return "", err
	}

	logger.Info("rpcCreateMatch [User:%s]: Created match %s with code %s", userID, matchID, code)

	resp, _ := json.Marshal(CreateMatchResponse{MatchID: matchID, JoinCode: code})
	return string(resp), nil
}

// rpcJoinMatch resolves a 5-digit join code to its match id. The client then
// joins the match over the realtime socket.
func rpcJoinMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", fmt.Errorf("authentication required")
	}

	var req struct {
		JoinCode string `json:"joinCode"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	if !joinCodePattern.MatchString(req.JoinCode) {
		return "", fmt.Errorf("join code must be 5 digits")
	}

	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: CollectionPlayCodes, Key: req.JoinCode},
	})
	if err != nil {
		logger.Error("rpcJoinMatch [User:%s]: Failed to read play code: %v", userID, err)
		return "", err
	}
	if len(objects) == 0 {
		return "", app.ErrMatchNotFound
	}

	var record playCodeRecord
	if err := json.Unmarshal([]byte(objects[0].Value), &record); err != nil {
		return "", fmt.Errorf("failed to unmarshal play code record: %w", err)
	}

	resp, _ := json.Marshal(JoinMatchResponse{MatchID: record.MatchID})
	return string(resp), nil
}

// rpcMatchState serves the persisted snapshot, polling briefly to cover the
// race between match creation and the first publish.
func rpcMatchState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
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
	state, _, err := store.LoadWithRetry(ctx, req.MatchID, 6, time.Second)
	if err != nil {
		if errors.Is(err, app.ErrSyncUnavailable) || errors.Is(err, app.ErrMatchNotFound) {
			return "", err
		}
		logger.Error("rpcMatchState: Failed to load state for %s: %v", req.MatchID, err)
		return "", err
	}

	resp, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal match state: %w", err)
	}
	return string(resp), nil
}

// storageReader is the slice of NakamaModule the code generator needs.
type storageReader interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
}

// generatePlayCode picks an unused 5-digit code, retrying on collision.
func generatePlayCode(ctx context.Context, reader storageReader) (string, error) {
	for i := 0; i < playCodeAttempts; i++ {
		code := fmt.Sprintf("%05d", 10000+rand.Intn(90000))
		objects, err := reader.StorageRead(ctx, []*runtime.StorageRead{
			{Collection: CollectionPlayCodes, Key: code},
		})
		if err != nil {
			return "", fmt.Errorf("failed to check play code: %w", err)
		}
		if len(objects) == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique play code")
}
