package nakama

// RPC ids exposed to clients.
const (
	// RpcCreateMatch creates an authoritative match and issues a 5-digit join code.
	RpcCreateMatch = "spycards_create_match"
	// RpcJoinMatch resolves a join code to a match id.
	RpcJoinMatch = "spycards_join_match"
	// RpcMatchState serves the persisted snapshot to a client that has not yet
	// received a broadcast (join race) or is reconnecting.
	RpcMatchState = "spycards_match_state"
	// RpcRejoinToken issues a signed token a participant can use to re-locate
	// their live match after a disconnect.
	RpcRejoinToken = "spycards_rejoin_token"
	// RpcRedeemRejoin verifies a rejoin token and returns the match id.
	RpcRedeemRejoin = "spycards_redeem_rejoin"
	// RpcWallet returns the caller's SPY-coin balance.
	RpcWallet = "spycards_wallet"
)

// MatchNameSpyCards is the authoritative match handler name registered with Nakama.
const MatchNameSpyCards = "spycards_match"

// Storage layout.
const (
	// CollectionGameStates holds one MatchState document per matchId.
	CollectionGameStates = "game_states"
	// CollectionPlayCodes maps a 5-digit join code to a match id.
	CollectionPlayCodes = "play_codes"
	// CollectionDecks holds per-user deck documents.
	CollectionDecks = "decks"
	// KeyActiveDeck is the deck used when a match starts.
	KeyActiveDeck = "active"
	// CollectionOnboarding holds one-time grant markers.
	CollectionOnboarding = "onboarding"
	// KeyStarterGrant marks that the starter package was granted.
	KeyStarterGrant = "starter_package_v1"
)

// Op codes for client commands and server events.
const (
	// Client -> Server
	OpCmdPlayCard    int64 = 1
	OpCmdMoveToFront int64 = 2
	OpCmdAttackFront int64 = 3
	OpCmdAttackHQ    int64 = 4
	OpCmdEndTurn     int64 = 5
	OpCmdConcede     int64 = 6

	// Server -> Client events
	OpEvSnapshot        int64 = 101
	OpEvMatchEnded      int64 = 102
	OpEvCommandRejected int64 = 103
)

// Runtime environment keys.
const (
	EnvBotMinDelay      = "spycards_bot_min_delay_sec"
	EnvBotMaxDelay      = "spycards_bot_max_delay_sec"
	EnvBotAutoFillDelay = "spycards_bot_auto_fill_delay_sec"
	EnvDisconnectGrace  = "spycards_disconnect_grace_sec"
	EnvRejoinSecret     = "spycards_rejoin_secret"
	EnvRejoinIssuer     = "spycards_rejoin_issuer"
)
