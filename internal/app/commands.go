package app

// CommandType identifies a match command.
type CommandType string

const (
	CmdPlayCard    CommandType = "play_card"
	CmdMoveToFront CommandType = "move_to_front"
	CmdAttackFront CommandType = "attack_front"
	CmdAttackHQ    CommandType = "attack_hq"
	CmdEndTurn     CommandType = "end_turn"
	CmdConcede     CommandType = "concede"
)

// Command is one player action against the match state.
type Command struct {
	Type CommandType `json:"type"`
	// HandIndex selects the card for CmdPlayCard; ignored otherwise.
	HandIndex int `json:"handIndex"`
}
