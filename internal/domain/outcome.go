package domain

// Outcome is the derived result of a game.
type Outcome uint8

const (
	InProgress Outcome = iota
	HumanWin
	AIWin
	Draw
)

// Winner returns the winning side, or Empty when nobody has won.
func (o Outcome) Winner() Cell {
	switch o {
	case HumanWin:
		return Human
	case AIWin:
		return AI
	default:
		return Empty
	}
}

func (o Outcome) IsDraw() bool   { return o == Draw }
func (o Outcome) GameOver() bool { return o != InProgress }

func (o Outcome) String() string {
	switch o {
	case HumanWin:
		return "human_win"
	case AIWin:
		return "ai_win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}
