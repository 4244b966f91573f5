package domain

// DeckCard is one row of a participant's deck as stored by the persistence
// collaborator: a card template plus how many copies the deck holds.
type DeckCard struct {
	Name     string `json:"name"`
	Attack   int    `json:"attack"`
	HP       int    `json:"hp"`
	Cost     int    `json:"cost"`
	Quantity int    `json:"quantity"`
}

// TemplateCard is the fixed fallback drawn once a participant's pile is
// exhausted, and the template the starter deck is built from.
func TemplateCard() Card {
	return Card{Name: "Soldier", Attack: 1, HP: 2, MaxHP: 2, Cost: 1}
}

// BuildDrawPile flattens a deck list into an ordered pile of card templates.
// Shuffling is the caller's concern.
func BuildDrawPile(deck []DeckCard) []Card {
	var pile []Card
	for _, dc := range deck {
		card := Card{
			Name:   dc.Name,
			Attack: dc.Attack,
			HP:     dc.HP,
			MaxHP:  dc.HP,
			Cost:   dc.Cost,
		}
		for i := 0; i < dc.Quantity; i++ {
			pile = append(pile, card)
		}
	}
	return pile
}
