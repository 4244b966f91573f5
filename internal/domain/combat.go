package domain

// AssaultResult describes the outcome of a front assault exchange.
type AssaultResult struct {
	AttackerID   string
	DefenderID   string
	AttackerDied bool
	DefenderDied bool
	FrontCleared bool
}

// ResolveFrontAssault exchanges damage between the acting participant's first
// ready unit (creation order) and the current front occupant. Both sides
// always take damage. Dead units are removed immediately; if the occupant
// died the front is cleared entirely, the attacker never claims it.
//
// The caller validates preconditions (front occupied by an enemy unit, a
// ready attacker exists) before resolution.
func ResolveFrontAssault(s *MatchState, actor string) AssaultResult {
	defender := s.UnitByID(s.FrontControl.OccupantUnitID)
	attacker := s.FirstReadyUnit(actor)

	res := AssaultResult{AttackerID: attacker.ID, DefenderID: defender.ID}

	defender.HP -= attacker.Attack
	attacker.HP -= defender.Attack

	res.AttackerDied = attacker.HP <= 0
	res.DefenderDied = defender.HP <= 0

	s.RemoveDeadUnits()

	if res.DefenderDied {
		// Contesting the front never grants it.
		s.ClearFront()
		res.FrontCleared = true
	}

	return res
}
