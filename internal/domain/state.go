package domain

import "fmt"

// Status represents the lifecycle stage of a SpyCards match.
type Status string

const (
	// StatusWaiting is the pre-game state where the host waits for an opponent.
	StatusWaiting Status = "waiting"
	// StatusStarted is the active game state where commands are processed.
	StatusStarted Status = "started"
	// StatusFinished is the state after a victory or abandonment.
	StatusFinished Status = "finished"
)

// Board geometry. The board is 3 rows by 5 columns; all HQ damage routes
// through the single contested front slot.
const (
	BoardRows = 3
	BoardCols = 5

	FrontRow = 1
	FrontCol = 1

	// HostReserveRow/Col is where the host's freshly played units spawn.
	HostReserveRow = 2
	HostReserveCol = 4

	// GuestReserveRow/Col is the spawn slot for the guest (or bot) side.
	GuestReserveRow = 0
	GuestReserveCol = 4
)

// Position is a board coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// FrontPosition returns the contested front slot coordinate.
func FrontPosition() Position {
	return Position{Row: FrontRow, Col: FrontCol}
}

// Card is a template copied by value into hands; playing one instantiates a Unit.
type Card struct {
	Name   string `json:"name"`
	Attack int    `json:"attack"`
	HP     int    `json:"hp"`
	MaxHP  int    `json:"maxHp"`
	Cost   int    `json:"cost"`
}

// Unit is a live board entity owned by one participant.
type Unit struct {
	ID             string   `json:"id"`
	Owner          string   `json:"owner"`
	Name           string   `json:"name"`
	Attack         int      `json:"attack"`
	HP             int      `json:"hp"`
	MaxHP          int      `json:"maxHp"`
	Cost           int      `json:"cost"`
	IsReady        bool     `json:"isReady"`
	ReadyCountdown int      `json:"readyCountdown"`
	Position       Position `json:"position"`
}

// Participant holds one side's resources and hand.
type Participant struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName,omitempty"`
	HQ             int    `json:"hq"`
	DeckRemaining  int    `json:"deckRemaining"`
	Hand           []Card `json:"hand"`
	EnergyCurrent  int    `json:"energyCurrent"`
	EnergyCapacity int    `json:"energyCapacity"`
	IsBot          bool   `json:"isBot"`
}

// ParticipantKind tags how a participant is driven.
type ParticipantKind int

const (
	KindHuman ParticipantKind = iota
	KindBot
)

// Kind reports whether the participant is played by a human or the bot policy.
func (p *Participant) Kind() ParticipantKind {
	if p.IsBot {
		return KindBot
	}
	return KindHuman
}

// FrontControl records who holds the contested front slot.
// Both fields are empty when the front is unclaimed.
type FrontControl struct {
	OwnerID        string `json:"ownerId"`
	OccupantUnitID string `json:"occupantUnitId"`
}

// MatchState is the canonical snapshot for one match: the single source of
// truth published wholesale to every participant after each successful command.
type MatchState struct {
	MatchID string `json:"matchId"`
	Status  Status `json:"status"`

	// Revision increases by one on every publish; the snapshot store rejects
	// writes whose revision is not ahead of the stored record.
	Revision int64 `json:"revision"`

	TurnNumber        int    `json:"turnNumber"`
	ActiveParticipant string `json:"activeParticipant"`
	Winner            string `json:"winner"`

	HostID  string `json:"hostId"`
	GuestID string `json:"guestId"`

	Participants map[string]*Participant `json:"participants"`

	Units []*Unit `json:"units"`

	FrontControl FrontControl `json:"frontControl"`

	// UnitSeq feeds unit id generation; unit ids encode creation order, which
	// is the deterministic tie-break for attacker and mover selection.
	UnitSeq int64 `json:"unitSeq"`
}

// Participant returns the participant with the given id, or nil.
func (s *MatchState) Participant(id string) *Participant {
	return s.Participants[id]
}

// Opponent returns the participant facing the given id, or nil for unknown ids.
func (s *MatchState) Opponent(id string) *Participant {
	if _, ok := s.Participants[id]; !ok {
		return nil
	}
	for pid, p := range s.Participants {
		if pid != id {
			return p
		}
	}
	return nil
}

// NextUnitID mints a unit id. Ids are ordered by creation sequence.
func (s *MatchState) NextUnitID() string {
	s.UnitSeq++
	return fmt.Sprintf("u-%d", s.UnitSeq)
}

// UnitByID returns the live unit with the given id, or nil.
func (s *MatchState) UnitByID(id string) *Unit {
	for _, u := range s.Units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// FirstReadyUnit returns the owner's earliest-created ready unit, or nil.
func (s *MatchState) FirstReadyUnit(owner string) *Unit {
	for _, u := range s.Units {
		if u.Owner == owner && u.IsReady {
			return u
		}
	}
	return nil
}

// FirstReadyUnitOutsideFront returns the owner's earliest-created ready unit
// that is not already occupying the front slot, or nil.
func (s *MatchState) FirstReadyUnitOutsideFront(owner string) *Unit {
	front := FrontPosition()
	for _, u := range s.Units {
		if u.Owner == owner && u.IsReady && u.Position != front {
			return u
		}
	}
	return nil
}

// RemoveDeadUnits drops every unit with hp <= 0, preserving creation order.
func (s *MatchState) RemoveDeadUnits() {
	alive := s.Units[:0]
	for _, u := range s.Units {
		if u.HP > 0 {
			alive = append(alive, u)
		}
	}
	s.Units = alive
}

// ClearFront resets front control to unclaimed.
func (s *MatchState) ClearFront() {
	s.FrontControl = FrontControl{}
}

// ReserveSpawn returns the reserve slot where the given participant's played
// units appear.
func (s *MatchState) ReserveSpawn(owner string) Position {
	if owner == s.HostID {
		return Position{Row: HostReserveRow, Col: HostReserveCol}
	}
	return Position{Row: GuestReserveRow, Col: GuestReserveCol}
}

// SpawnUnit instantiates a unit from a card template at the owner's reserve
// slot. New units must wait one full turn-start tick before acting.
func (s *MatchState) SpawnUnit(owner string, card Card) *Unit {
	maxHP := card.MaxHP
	if maxHP < card.HP {
		maxHP = card.HP
	}
	u := &Unit{
		ID:             s.NextUnitID(),
		Owner:          owner,
		Name:           card.Name,
		Attack:         card.Attack,
		HP:             card.HP,
		MaxHP:          maxHP,
		Cost:           card.Cost,
		IsReady:        false,
		ReadyCountdown: SpawnReadyCountdown,
		Position:       s.ReserveSpawn(owner),
	}
	s.Units = append(s.Units, u)
	return u
}
