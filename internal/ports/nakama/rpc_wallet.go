package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// WalletResponse reports the caller's SPY-coin balance.
type WalletResponse struct {
	Balance int64 `json:"balance"`
}

// rpcWallet returns the SPY-coin balance of the calling user.
func rpcWallet(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", fmt.Errorf("authentication required")
	}

	economy := NewNakamaEconomyAdapter(nk)
	balance, err := economy.GetBalance(ctx, userID)
	if err != nil {
		logger.Error("rpcWallet [User:%s]: %v", userID, err)
		return "", err
	}

	response, err := json.Marshal(WalletResponse{Balance: balance})
	if err != nil {
		return "", fmt.Errorf("failed to marshal wallet response: %w", err)
	}
	return string(response), nil
}
