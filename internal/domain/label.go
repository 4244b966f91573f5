package domain

// Label is the match label advertised for listing queries.
type Label struct {
	Open  bool   `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

// GameName identifies this game in match labels.
const GameName = "spycards"

// ComputeLabel derives the advertised label from match state. A match is open
// only while it is still waiting for its second participant.
func ComputeLabel(s *MatchState) Label {
	return Label{
		Open:  s.Status == StatusWaiting,
		Game:  GameName,
		Phase: string(s.Status),
	}
}
