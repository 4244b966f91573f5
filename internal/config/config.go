package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/Rulkallos-CHL/spycards/internal/domain"
)

// GameConfig carries the tunables that are not rules invariants: bot pacing
// and the starter deck composition.
type GameConfig struct {
	// BotMinDelaySeconds / BotMaxDelaySeconds bound how long a bot waits
	// between its paced actions.
	BotMinDelaySeconds int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds int `json:"bot_max_delay_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds a solo host waits
	// before a bot opponent is bound to the match.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`

	// WelcomeCoinBonus is the SPY-coin grant for a newly registered account.
	WelcomeCoinBonus int64 `json:"welcome_coin_bonus"`
	// WinCoinReward is the SPY-coin credit for winning a match.
	WinCoinReward int64 `json:"win_coin_reward"`

	// DisconnectGraceSeconds bounds how long a disconnected participant may
	// rejoin before the match concludes against them.
	DisconnectGraceSeconds int `json:"disconnect_grace_seconds"`

	StarterDeck []domain.DeckCard `json:"starter_deck"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or nil when not loaded.
func GetGameConfig() *GameConfig {
	return cfg
}

// StarterDeck returns the configured starter deck, falling back to forty
// copies of the template card when no config is loaded.
func StarterDeck() []domain.DeckCard {
	if cfg != nil && len(cfg.StarterDeck) > 0 {
		return cfg.StarterDeck
	}
	tmpl := domain.TemplateCard()
	return []domain.DeckCard{{
		Name:     tmpl.Name,
		Attack:   tmpl.Attack,
		HP:       tmpl.HP,
		Cost:     tmpl.Cost,
		Quantity: 40,
	}}
}

// WelcomeCoinBonus returns the configured registration bonus.
func WelcomeCoinBonus() int64 {
	if cfg == nil || cfg.WelcomeCoinBonus <= 0 {
		return 50
	}
	return cfg.WelcomeCoinBonus
}

// WinCoinReward returns the configured match win credit.
func WinCoinReward() int64 {
	if cfg == nil || cfg.WinCoinReward <= 0 {
		return 25
	}
	return cfg.WinCoinReward
}
