package app

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Rulkallos-CHL/spycards/internal/domain"
)

func newStartedMatch(t *testing.T, seed int64) (*Service, *Session) {
	t.Helper()
	svc := NewService(rand.New(rand.NewSource(seed)))
	sess, evs, err := svc.StartMatch("m-1", "host", "guest", false, nil)
	if err != nil {
		t.Fatalf("start match error: %v", err)
	}
	if len(evs) != 1 || evs[0].Kind != EventSnapshot {
		t.Fatalf("expected one snapshot event on start, got %+v", evs)
	}
	return svc, sess
}

// addReadyUnit places a ready unit directly on the board, bypassing the
// play-and-wait cycle for tests that only care about what happens next.
func addReadyUnit(s *domain.MatchState, owner string, attack, hp int) *domain.Unit {
	u := &domain.Unit{
		ID:       s.NextUnitID(),
		Owner:    owner,
		Name:     "Soldier",
		Attack:   attack,
		HP:       hp,
		MaxHP:    hp,
		Cost:     1,
		IsReady:  true,
		Position: s.ReserveSpawn(owner),
	}
	s.Units = append(s.Units, u)
	return u
}

func TestStartMatchInitialState(t *testing.T) {
	_, sess := newStartedMatch(t, 42)
	state := sess.State

	if state.Status != domain.StatusStarted {
		t.Fatalf("status = %s, want started", state.Status)
	}
	if state.TurnNumber != 1 {
		t.Fatalf("turn = %d, want 1", state.TurnNumber)
	}
	if state.ActiveParticipant != "host" {
		t.Fatalf("active = %s, want host", state.ActiveParticipant)
	}

	for _, pid := range []string{"host", "guest"} {
		p := state.Participant(pid)
		if p == nil {
			t.Fatalf("missing participant %s", pid)
		}
		if p.HQ != domain.StartingHQ {
			t.Fatalf("%s hq = %d, want %d", pid, p.HQ, domain.StartingHQ)
		}
		if len(p.Hand) != domain.OpeningHandSize {
			t.Fatalf("%s hand = %d, want %d", pid, len(p.Hand), domain.OpeningHandSize)
		}
	}

	// Bootstrap grants the starting side one energy; the guest has none until
	// their first turn begins.
	host := state.Participant("host")
	if host.EnergyCurrent != 1 || host.EnergyCapacity != 1 {
		t.Fatalf("host energy = %d/%d, want 1/1", host.EnergyCurrent, host.EnergyCapacity)
	}
	guest := state.Participant("guest")
	if guest.EnergyCurrent != 0 || guest.EnergyCapacity != 0 {
		t.Fatalf("guest energy = %d/%d, want 0/0", guest.EnergyCurrent, guest.EnergyCapacity)
	}
}

func TestPlayCardSpawnsUnreadyUnit(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	evs, err := svc.Apply(sess, "host", Command{Type: CmdPlayCard, HandIndex: 0})
	if err != nil {
		t.Fatalf("play card error: %v", err)
	}
	if len(evs) != 1 || evs[0].Kind != EventSnapshot {
		t.Fatalf("expected one snapshot, got %+v", evs)
	}

	host := state.Participant("host")
	if host.EnergyCurrent != 0 {
		t.Fatalf("energy = %d, want 0", host.EnergyCurrent)
	}
	if len(host.Hand) != domain.OpeningHandSize-1 {
		t.Fatalf("hand = %d, want %d", len(host.Hand), domain.OpeningHandSize-1)
	}
	if len(state.Units) != 1 {
		t.Fatalf("units = %d, want 1", len(state.Units))
	}

	u := state.Units[0]
	if u.IsReady {
		t.Fatalf("fresh unit must not be ready")
	}
	if u.ReadyCountdown != domain.SpawnReadyCountdown {
		t.Fatalf("countdown = %d, want %d", u.ReadyCountdown, domain.SpawnReadyCountdown)
	}
	want := domain.Position{Row: domain.HostReserveRow, Col: domain.HostReserveCol}
	if u.Position != want {
		t.Fatalf("position = %+v, want %+v", u.Position, want)
	}
}

func TestPlayCardInsufficientEnergy(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)

	if _, err := svc.Apply(sess, "host", Command{Type: CmdPlayCard, HandIndex: 0}); err != nil {
		t.Fatalf("first play error: %v", err)
	}
	_, err := svc.Apply(sess, "host", Command{Type: CmdPlayCard, HandIndex: 0})
	if !errors.Is(err, ErrInsufficientEnergy) {
		t.Fatalf("err = %v, want ErrInsufficientEnergy", err)
	}
}

func TestPlayCardInvalidIndex(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)

	for _, idx := range []int{-1, domain.OpeningHandSize} {
		_, err := svc.Apply(sess, "host", Command{Type: CmdPlayCard, HandIndex: idx})
		if !errors.Is(err, ErrInvalidCardIndex) {
			t.Fatalf("index %d: err = %v, want ErrInvalidCardIndex", idx, err)
		}
	}
}

func TestMoveToFrontClaimsEmptyFront(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State
	u := addReadyUnit(state, "host", 1, 2)

	if _, err := svc.Apply(sess, "host", Command{Type: CmdMoveToFront}); err != nil {
		t.Fatalf("move error: %v", err)
	}

	if state.FrontControl.OwnerID != "host" || state.FrontControl.OccupantUnitID != u.ID {
		t.Fatalf("front = %+v, want host/%s", state.FrontControl, u.ID)
	}
	if u.Position != domain.FrontPosition() {
		t.Fatalf("position = %+v, want front", u.Position)
	}
}

func TestMoveToFrontRejections(t *testing.T) {
	t.Run("NoReadyUnits", func(t *testing.T) {
		svc, sess := newStartedMatch(t, 42)
		_, err := svc.Apply(sess, "host", Command{Type: CmdMoveToFront})
		if !errors.Is(err, ErrNoReadyUnits) {
			t.Fatalf("err = %v, want ErrNoReadyUnits", err)
		}
	})

	t.Run("OpponentHoldsFront", func(t *testing.T) {
		svc, sess := newStartedMatch(t, 42)
		state := sess.State
		enemy := addReadyUnit(state, "guest", 1, 2)
		enemy.Position = domain.FrontPosition()
		state.FrontControl = domain.FrontControl{OwnerID: "guest", OccupantUnitID: enemy.ID}
		addReadyUnit(state, "host", 1, 2)

		_, err := svc.Apply(sess, "host", Command{Type: CmdMoveToFront})
		if !errors.Is(err, ErrFrontOccupiedByOpponent) {
			t.Fatalf("err = %v, want ErrFrontOccupiedByOpponent", err)
		}
	})

	t.Run("OwnUnitHoldsFront", func(t *testing.T) {
		svc, sess := newStartedMatch(t, 42)
		state := sess.State
		holder := addReadyUnit(state, "host", 1, 2)
		holder.Position = domain.FrontPosition()
		state.FrontControl = domain.FrontControl{OwnerID: "host", OccupantUnitID: holder.ID}
		addReadyUnit(state, "host", 1, 2)

		_, err := svc.Apply(sess, "host", Command{Type: CmdMoveToFront})
		if !errors.Is(err, ErrFrontAlreadyHeld) {
			t.Fatalf("err = %v, want ErrFrontAlreadyHeld", err)
		}
	})
}

func TestAttackFrontDefenderSurvivesAttackerDies(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	defender := addReadyUnit(state, "guest", 1, 3)
	defender.Position = domain.FrontPosition()
	state.FrontControl = domain.FrontControl{OwnerID: "guest", OccupantUnitID: defender.ID}
	attacker := addReadyUnit(state, "host", 2, 1)

	if _, err := svc.Apply(sess, "host", Command{Type: CmdAttackFront}); err != nil {
		t.Fatalf("attack error: %v", err)
	}

	if defender.HP != 1 {
		t.Fatalf("defender hp = %d, want 1", defender.HP)
	}
	if state.UnitByID(attacker.ID) != nil {
		t.Fatalf("dead attacker must be removed")
	}
	// Surviving defender keeps the front.
	if state.FrontControl.OwnerID != "guest" || state.FrontControl.OccupantUnitID != defender.ID {
		t.Fatalf("front = %+v, want unchanged", state.FrontControl)
	}
}

func TestAttackFrontMutualDestruction(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	// The exchange is simultaneous: each unit takes the other's full attack
	// even when it would not survive to deal its own.
	defender := addReadyUnit(state, "guest", 1, 2)
	defender.Position = domain.FrontPosition()
	state.FrontControl = domain.FrontControl{OwnerID: "guest", OccupantUnitID: defender.ID}
	attacker := addReadyUnit(state, "host", 2, 1)

	if _, err := svc.Apply(sess, "host", Command{Type: CmdAttackFront}); err != nil {
		t.Fatalf("attack error: %v", err)
	}

	if state.UnitByID(defender.ID) != nil || state.UnitByID(attacker.ID) != nil {
		t.Fatalf("both units must be removed after mutual destruction")
	}
	if state.FrontControl != (domain.FrontControl{}) {
		t.Fatalf("front = %+v, want cleared", state.FrontControl)
	}
}

func TestAttackFrontDefenderDiesFrontCleared(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	defender := addReadyUnit(state, "guest", 1, 1)
	defender.Position = domain.FrontPosition()
	state.FrontControl = domain.FrontControl{OwnerID: "guest", OccupantUnitID: defender.ID}
	attacker := addReadyUnit(state, "host", 2, 5)

	if _, err := svc.Apply(sess, "host", Command{Type: CmdAttackFront}); err != nil {
		t.Fatalf("attack error: %v", err)
	}

	if state.UnitByID(defender.ID) != nil {
		t.Fatalf("dead defender must be removed")
	}
	if state.FrontControl != (domain.FrontControl{}) {
		t.Fatalf("front = %+v, want cleared", state.FrontControl)
	}
	if attacker.HP != 4 {
		t.Fatalf("attacker hp = %d, want 4", attacker.HP)
	}
}

func TestAttackFrontRejections(t *testing.T) {
	t.Run("EmptyFront", func(t *testing.T) {
		svc, sess := newStartedMatch(t, 42)
		addReadyUnit(sess.State, "host", 1, 2)
		_, err := svc.Apply(sess, "host", Command{Type: CmdAttackFront})
		if !errors.Is(err, ErrNoFrontTarget) {
			t.Fatalf("err = %v, want ErrNoFrontTarget", err)
		}
	})

	t.Run("OwnUnitAtFront", func(t *testing.T) {
		svc, sess := newStartedMatch(t, 42)
		state := sess.State
		holder := addReadyUnit(state, "host", 1, 2)
		holder.Position = domain.FrontPosition()
		state.FrontControl = domain.FrontControl{OwnerID: "host", OccupantUnitID: holder.ID}

		_, err := svc.Apply(sess, "host", Command{Type: CmdAttackFront})
		if !errors.Is(err, ErrFrontIsOwnUnit) {
			t.Fatalf("err = %v, want ErrFrontIsOwnUnit", err)
		}
	})

	t.Run("NoReadyAttacker", func(t *testing.T) {
		svc, sess := newStartedMatch(t, 42)
		state := sess.State
		defender := addReadyUnit(state, "guest", 1, 2)
		defender.Position = domain.FrontPosition()
		state.FrontControl = domain.FrontControl{OwnerID: "guest", OccupantUnitID: defender.ID}

		_, err := svc.Apply(sess, "host", Command{Type: CmdAttackFront})
		if !errors.Is(err, ErrNoReadyAttacker) {
			t.Fatalf("err = %v, want ErrNoReadyAttacker", err)
		}
	})

	t.Run("DanglingOccupantRepaired", func(t *testing.T) {
		svc, sess := newStartedMatch(t, 42)
		state := sess.State
		state.FrontControl = domain.FrontControl{OwnerID: "guest", OccupantUnitID: "u-999"}
		addReadyUnit(state, "host", 1, 2)

		_, err := svc.Apply(sess, "host", Command{Type: CmdAttackFront})
		if !errors.Is(err, ErrNoFrontTarget) {
			t.Fatalf("err = %v, want ErrNoFrontTarget", err)
		}
		if state.FrontControl != (domain.FrontControl{}) {
			t.Fatalf("front = %+v, want repaired to empty", state.FrontControl)
		}
	})
}

func TestAttackHQImmediateVictory(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	u := addReadyUnit(state, "host", 3, 2)
	u.Position = domain.FrontPosition()
	state.FrontControl = domain.FrontControl{OwnerID: "host", OccupantUnitID: u.ID}
	state.Participant("guest").HQ = 2

	evs, err := svc.Apply(sess, "host", Command{Type: CmdAttackHQ})
	if err != nil {
		t.Fatalf("attack hq error: %v", err)
	}

	if state.Participant("guest").HQ != -1 {
		t.Fatalf("guest hq = %d, want -1", state.Participant("guest").HQ)
	}
	if state.Status != domain.StatusFinished {
		t.Fatalf("status = %s, want finished", state.Status)
	}
	if state.Winner != "host" {
		t.Fatalf("winner = %s, want host", state.Winner)
	}

	foundEnd := false
	for _, ev := range evs {
		if ev.Kind == EventMatchEnded {
			foundEnd = true
			p := ev.Payload.(MatchEndedPayload)
			if p.Winner != "host" || p.Loser != "guest" || p.Abandoned {
				t.Fatalf("ended payload = %+v", p)
			}
		}
	}
	if !foundEnd {
		t.Fatalf("expected match ended event")
	}
}

func TestAttackHQWithoutFrontControl(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	addReadyUnit(sess.State, "host", 3, 2)

	_, err := svc.Apply(sess, "host", Command{Type: CmdAttackHQ})
	if !errors.Is(err, ErrFrontNotControlled) {
		t.Fatalf("err = %v, want ErrFrontNotControlled", err)
	}
}

func TestEndTurnRefreshesBecomingActiveSideOnly(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	hostUnit := addReadyUnit(state, "host", 1, 2)
	hostUnit.IsReady = false
	hostUnit.ReadyCountdown = 1

	if _, err := svc.Apply(sess, "host", Command{Type: CmdEndTurn}); err != nil {
		t.Fatalf("end turn error: %v", err)
	}

	if state.ActiveParticipant != "guest" {
		t.Fatalf("active = %s, want guest", state.ActiveParticipant)
	}
	if state.TurnNumber != 2 {
		t.Fatalf("turn = %d, want 2", state.TurnNumber)
	}

	guest := state.Participant("guest")
	if guest.EnergyCurrent != 1 || guest.EnergyCapacity != 1 {
		t.Fatalf("guest energy = %d/%d, want 1/1", guest.EnergyCurrent, guest.EnergyCapacity)
	}
	if len(guest.Hand) != domain.OpeningHandSize+1 {
		t.Fatalf("guest hand = %d, want %d", len(guest.Hand), domain.OpeningHandSize+1)
	}

	// Host's unready unit does not tick on the opponent's turn start.
	if hostUnit.IsReady || hostUnit.ReadyCountdown != 1 {
		t.Fatalf("host unit ticked on opponent turn: ready=%t countdown=%d", hostUnit.IsReady, hostUnit.ReadyCountdown)
	}

	// Coming back around, the host's unit becomes ready.
	if _, err := svc.Apply(sess, "guest", Command{Type: CmdEndTurn}); err != nil {
		t.Fatalf("guest end turn error: %v", err)
	}
	if !hostUnit.IsReady || hostUnit.ReadyCountdown != 0 {
		t.Fatalf("host unit not ready after own turn start: ready=%t countdown=%d", hostUnit.IsReady, hostUnit.ReadyCountdown)
	}
}

func TestEnergyCapacityCapsAtTwelve(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	for i := 0; i < 30; i++ {
		issuer := state.ActiveParticipant
		if _, err := svc.Apply(sess, issuer, Command{Type: CmdEndTurn}); err != nil {
			t.Fatalf("end turn %d error: %v", i, err)
		}
	}

	for _, pid := range []string{"host", "guest"} {
		p := state.Participant(pid)
		if p.EnergyCapacity != domain.EnergyCap {
			t.Fatalf("%s capacity = %d, want %d", pid, p.EnergyCapacity, domain.EnergyCap)
		}
	}
}

func TestOffTurnCommandLeavesStateUntouched(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	before, err := json.Marshal(sess.State)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	_, applyErr := svc.Apply(sess, "guest", Command{Type: CmdEndTurn})
	if !errors.Is(applyErr, ErrNotYourTurn) {
		t.Fatalf("err = %v, want ErrNotYourTurn", applyErr)
	}

	after, err := json.Marshal(sess.State)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed by a rejected command:\nbefore %s\nafter  %s", before, after)
	}
}

func TestRevisionIncreasesOnEveryPublish(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	last := state.Revision
	if last != 1 {
		t.Fatalf("revision after start = %d, want 1", last)
	}

	commands := []Command{
		{Type: CmdPlayCard, HandIndex: 0},
		{Type: CmdEndTurn},
		{Type: CmdEndTurn},
	}
	for i, cmd := range commands {
		issuer := state.ActiveParticipant
		if _, err := svc.Apply(sess, issuer, cmd); err != nil {
			t.Fatalf("command %d error: %v", i, err)
		}
		if state.Revision != last+1 {
			t.Fatalf("revision = %d after command %d, want %d", state.Revision, i, last+1)
		}
		last = state.Revision
	}
}

func TestConcedeOffTurn(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	// Concede is the one command accepted off-turn.
	evs, err := svc.Apply(sess, "guest", Command{Type: CmdConcede})
	if err != nil {
		t.Fatalf("concede error: %v", err)
	}

	if state.Status != domain.StatusFinished || state.Winner != "host" {
		t.Fatalf("status=%s winner=%s, want finished/host", state.Status, state.Winner)
	}
	foundEnd := false
	for _, ev := range evs {
		if ev.Kind == EventMatchEnded {
			foundEnd = true
			p := ev.Payload.(MatchEndedPayload)
			if !p.Abandoned {
				t.Fatalf("concession must report abandoned")
			}
		}
	}
	if !foundEnd {
		t.Fatalf("expected match ended event")
	}
}

func TestAbandonConcludesAgainstLeaver(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)

	evs, err := svc.Abandon(sess, "host")
	if err != nil {
		t.Fatalf("abandon error: %v", err)
	}
	if sess.State.Winner != "guest" {
		t.Fatalf("winner = %s, want guest", sess.State.Winner)
	}
	if len(evs) != 2 {
		t.Fatalf("events = %d, want snapshot + ended", len(evs))
	}
}

func TestCommandsRejectedAfterConclusion(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	if _, err := svc.Apply(sess, "guest", Command{Type: CmdConcede}); err != nil {
		t.Fatalf("concede error: %v", err)
	}

	_, err := svc.Apply(sess, "host", Command{Type: CmdEndTurn})
	if !errors.Is(err, ErrMatchConcluded) {
		t.Fatalf("err = %v, want ErrMatchConcluded", err)
	}
}

func TestUnknownParticipantRejected(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	_, err := svc.Apply(sess, "stranger", Command{Type: CmdEndTurn})
	if !errors.Is(err, ErrUnknownParticipant) {
		t.Fatalf("err = %v, want ErrUnknownParticipant", err)
	}
}

func TestDeckRemainingNeverNegative(t *testing.T) {
	svc, sess := newStartedMatch(t, 42)
	state := sess.State

	// Template fallback decks start at zero remaining; plays and draws must
	// not drive the counter below the floor.
	if state.Participant("host").DeckRemaining != 0 {
		t.Fatalf("deckRemaining = %d, want 0", state.Participant("host").DeckRemaining)
	}
	if _, err := svc.Apply(sess, "host", Command{Type: CmdPlayCard, HandIndex: 0}); err != nil {
		t.Fatalf("play error: %v", err)
	}
	if _, err := svc.Apply(sess, "host", Command{Type: CmdEndTurn}); err != nil {
		t.Fatalf("end turn error: %v", err)
	}

	for _, pid := range []string{"host", "guest"} {
		if got := state.Participant(pid).DeckRemaining; got < 0 {
			t.Fatalf("%s deckRemaining = %d, want >= 0", pid, got)
		}
	}
}

func TestStartMatchUsesProvidedDecks(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(7)))
	decks := map[string][]domain.DeckCard{
		"host":  {{Name: "Saboteur", Attack: 2, HP: 1, Cost: 2, Quantity: 10}},
		"guest": {{Name: "Sentinel", Attack: 1, HP: 3, Cost: 1, Quantity: 8}},
	}

	sess, _, err := svc.StartMatch("m-2", "host", "guest", false, decks)
	if err != nil {
		t.Fatalf("start match error: %v", err)
	}

	host := sess.State.Participant("host")
	if host.DeckRemaining != 10-domain.OpeningHandSize {
		t.Fatalf("host deckRemaining = %d, want %d", host.DeckRemaining, 10-domain.OpeningHandSize)
	}
	for _, c := range host.Hand {
		if c.Name != "Saboteur" {
			t.Fatalf("host drew %s, want Saboteur", c.Name)
		}
	}
	guest := sess.State.Participant("guest")
	if guest.DeckRemaining != 8-domain.OpeningHandSize {
		t.Fatalf("guest deckRemaining = %d, want %d", guest.DeckRemaining, 8-domain.OpeningHandSize)
	}
}
