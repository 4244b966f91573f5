package domain

import "testing"

func setupAssault(t *testing.T, attackerAtk, attackerHP, defenderAtk, defenderHP int) (*MatchState, *Unit, *Unit) {
	t.Helper()
	s := newTestState()

	defender := spawnReady(s, "guest", defenderAtk, defenderHP)
	defender.Position = FrontPosition()
	s.FrontControl = FrontControl{OwnerID: "guest", OccupantUnitID: defender.ID}

	attacker := spawnReady(s, "host", attackerAtk, attackerHP)
	return s, attacker, defender
}

func TestResolveFrontAssaultBothSurvive(t *testing.T) {
	s, attacker, defender := setupAssault(t, 1, 3, 1, 3)

	res := ResolveFrontAssault(s, "host")

	if res.AttackerDied || res.DefenderDied || res.FrontCleared {
		t.Fatalf("result = %+v, want both surviving", res)
	}
	if attacker.HP != 2 || defender.HP != 2 {
		t.Fatalf("hp = %d/%d, want 2/2", attacker.HP, defender.HP)
	}
	if s.FrontControl.OccupantUnitID != defender.ID {
		t.Fatalf("front = %+v, want unchanged", s.FrontControl)
	}
}

func TestResolveFrontAssaultDefenderDies(t *testing.T) {
	s, attacker, defender := setupAssault(t, 3, 5, 1, 2)

	res := ResolveFrontAssault(s, "host")

	if !res.DefenderDied || res.AttackerDied {
		t.Fatalf("result = %+v, want defender dead only", res)
	}
	if !res.FrontCleared {
		t.Fatalf("front must clear when the occupant dies")
	}
	if s.FrontControl != (FrontControl{}) {
		t.Fatalf("front = %+v, want empty", s.FrontControl)
	}
	if s.UnitByID(defender.ID) != nil {
		t.Fatalf("dead defender still on board")
	}
	if attacker.HP != 4 {
		t.Fatalf("attacker hp = %d, want 4", attacker.HP)
	}
}

func TestResolveFrontAssaultAttackerDies(t *testing.T) {
	s, attacker, defender := setupAssault(t, 1, 1, 2, 4)

	res := ResolveFrontAssault(s, "host")

	if !res.AttackerDied || res.DefenderDied || res.FrontCleared {
		t.Fatalf("result = %+v, want attacker dead only", res)
	}
	if s.UnitByID(attacker.ID) != nil {
		t.Fatalf("dead attacker still on board")
	}
	if s.FrontControl.OccupantUnitID != defender.ID {
		t.Fatalf("front = %+v, want unchanged", s.FrontControl)
	}
}

func TestResolveFrontAssaultMutualDestruction(t *testing.T) {
	s, _, _ := setupAssault(t, 2, 1, 2, 1)

	res := ResolveFrontAssault(s, "host")

	if !res.AttackerDied || !res.DefenderDied || !res.FrontCleared {
		t.Fatalf("result = %+v, want mutual destruction and cleared front", res)
	}
	if len(s.Units) != 0 {
		t.Fatalf("units = %d, want 0", len(s.Units))
	}
	if s.FrontControl != (FrontControl{}) {
		t.Fatalf("front = %+v, want empty", s.FrontControl)
	}
}
