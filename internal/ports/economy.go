package ports

import "context"

// WalletUpdate represents a single SPY-coin change for a user.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort defines the interface for managing the SPY-coin currency.
type EconomyPort interface {
	// GetBalance retrieves the current SPY-coin balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies multiple wallet changes.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
