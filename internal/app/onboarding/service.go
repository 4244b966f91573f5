package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Rulkallos-CHL/spycards/internal/domain"
	"github.com/Rulkallos-CHL/spycards/internal/ports"
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	// StarterGranted is false when the starter grant had already happened.
	StarterGranted bool
}

// Service handles post-auth onboarding for new users: a generated display
// name, the starter deck, and the registration SPY-coin bonus.
type Service struct {
	accounts  ports.AccountPort
	starter   ports.StarterGrantPort
	deck      []domain.DeckCard
	coinBonus int64
	rng       *rand.Rand
}

// NewService constructs an onboarding service with required ports.
// accounts/starter must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, starter ports.StarterGrantPort, deck []domain.DeckCard, coinBonus int64, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts:  accounts,
		starter:   starter,
		deck:      deck,
		coinBonus: coinBonus,
		rng:       rng,
	}
}

// OnboardNewUser initializes the profile, starter deck, and wallet for a newly
// created account. Profile updates are best-effort; the starter grant is the
// part that must succeed.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.starter == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{}
	displayName := s.generateCallSign()
	if err := s.accounts.UpdateProfile(ctx, userID, displayName, displayName); err != nil {
		result.ProfileUpdateErr = err
	}

	granted, err := s.starter.GrantStarterOnce(ctx, userID, s.deck, s.coinBonus)
	if err != nil {
		return result, fmt.Errorf("failed to grant starter package: %w", err)
	}
	result.StarterGranted = granted

	return result, nil
}

func (s *Service) generateCallSign() string {
	adjectives := []string{"Silent", "Covert", "Shadow", "Midnight", "Phantom", "Cipher", "Masked", "Rogue", "Veiled", "Ghost"}
	nouns := []string{"Raven", "Viper", "Jackal", "Sparrow", "Lynx", "Cobra", "Falcon", "Mantis", "Wolf", "Heron"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
