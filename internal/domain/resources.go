package domain

// Resource and lifecycle constants.
const (
	// StartingHQ is each participant's HQ hit points at match start.
	StartingHQ = 20

	// EnergyCap is the ceiling for energyCapacity.
	EnergyCap = 12

	// SpawnReadyCountdown is how many own-turn-start ticks a freshly played
	// unit waits before it can act.
	SpawnReadyCountdown = 1

	// OpeningHandSize is how many cards each side draws at match start.
	OpeningHandSize = 5
)

// BootstrapFirstTurn grants the starting participant their initial energy at
// match creation. This is a one-off bootstrap, not the turn-start rule: the
// very first turn is never entered through BeginTurn.
func BootstrapFirstTurn(s *MatchState) {
	p := s.Participant(s.ActiveParticipant)
	if p == nil {
		return
	}
	p.EnergyCapacity = min(EnergyCap, p.EnergyCapacity+1)
	p.EnergyCurrent = p.EnergyCapacity
}

// BeginTurn applies the turn-start effects to the becoming-active participant:
// capacity growth, full energy refresh, and the readiness countdown for every
// unit they own. The participant who just ended their turn is untouched.
func BeginTurn(s *MatchState, participantID string) {
	p := s.Participant(participantID)
	if p == nil {
		return
	}

	p.EnergyCapacity = min(EnergyCap, p.EnergyCapacity+1)
	p.EnergyCurrent = p.EnergyCapacity

	for _, u := range s.Units {
		if u.Owner != participantID {
			continue
		}
		if u.ReadyCountdown > 0 {
			u.ReadyCountdown--
		}
		if u.ReadyCountdown == 0 {
			u.IsReady = true
		}
	}
}
