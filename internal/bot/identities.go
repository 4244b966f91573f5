package bot

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"
)

// Identity is one bot profile from the pool. Bot participants are virtual:
// they hold a seat and a display name but never a connected presence.
type Identity struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarIndex int    `json:"avatar_index"`
}

var (
	identities     []Identity
	idMap          map[string]bool
	displayNameMap map[string]string
	loadOnce       sync.Once
	loadErr        error
)

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}

		if err := json.Unmarshal(data, &identities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		idMap = make(map[string]bool)
		displayNameMap = make(map[string]string)
		for _, identity := range identities {
			if identity.UserID != "" {
				idMap[identity.UserID] = true
				displayNameMap[identity.UserID] = identity.DisplayName
			}
		}
	})
	return loadErr
}

// GetIdentity returns an identity for a bot by index (mod pool size), with a
// synthetic fallback when no pool is loaded.
func GetIdentity(index int) Identity {
	if len(identities) == 0 {
		return Identity{
			UserID:      fmt.Sprintf("bot-%d", index),
			DisplayName: fmt.Sprintf("AI Player %d", index),
		}
	}
	return identities[index%len(identities)]
}

// RandomIdentity picks an identity at random so repeated auto-fills do not
// all present the same bot.
func RandomIdentity() Identity {
	n := len(identities)
	if n == 0 {
		n = 1000
	}
	return GetIdentity(rand.Intn(n))
}

// GetDisplayName returns the display name for a bot ID, with a generic
// fallback for synthetic ids, or "" for non-bots.
func GetDisplayName(userID string) string {
	if name, ok := displayNameMap[userID]; ok {
		return name
	}
	if IsBot(userID) {
		return "AI Player"
	}
	return ""
}

// IsBot reports whether the given user ID belongs to the bot pool. Synthetic
// fallback ids are recognized by prefix.
func IsBot(userID string) bool {
	if idMap != nil && idMap[userID] {
		return true
	}
	return len(userID) > 4 && userID[:4] == "bot-"
}
