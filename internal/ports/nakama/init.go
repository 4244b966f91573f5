package nakama

import (
	"context"
	"database/sql"

	"github.com/Rulkallos-CHL/spycards/internal/app"
	"github.com/Rulkallos-CHL/spycards/internal/bot"
	"github.com/Rulkallos-CHL/spycards/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	defaultRejoinSecret = "spycards-dev-rejoin-secret"
	defaultRejoinIssuer = "spycards"
)

// InitModule wires the game into the Nakama runtime: RPCs, the authoritative
// match handler, and the post-authentication onboarding hook.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("Failed to load game config, using defaults: %v", err)
	}
	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("Failed to load bot identities, using synthetic fallbacks: %v", err)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := env[EnvRejoinSecret]
	if secret == "" {
		secret = defaultRejoinSecret
		logger.Warn("No %s configured, using development default.", EnvRejoinSecret)
	}
	issuer := env[EnvRejoinIssuer]
	if issuer == "" {
		issuer = defaultRejoinIssuer
	}
	rejoin := app.NewRejoinService(secret, issuer, app.DefaultRejoinTTL)

	if err := initializer.RegisterRpc(RpcCreateMatch, rpcCreateMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcJoinMatch, rpcJoinMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcMatchState, rpcMatchState); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcRejoinToken, makeRpcRejoinToken(rejoin)); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcRedeemRejoin, makeRpcRedeemRejoin(rejoin)); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcWallet, rpcWallet); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameSpyCards, NewMatch); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateEmail(AfterAuthenticateEmail); err != nil {
		return err
	}

	logger.Info("SpyCards Go module loaded.")
	return nil
}
