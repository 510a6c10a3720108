package domain

// Move - ход игрока
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// Moves lists every legal move in a fixed order.
var Moves = [3]Move{MoveRock, MovePaper, MoveScissors}

// ParseMove validates a raw client string at the boundary.
func ParseMove(s string) (Move, error) {
	switch Move(s) {
	case MoveRock, MovePaper, MoveScissors:
		return Move(s), nil
	}
	return "", NewError(KindValidation, "invalid move: "+s)
}

// Outcome - результат раунда с точки зрения первого игрока
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeTie  Outcome = "tie"
)

// Invert flips an outcome to the opponent's perspective.
func (o Outcome) Invert() Outcome {
	switch o {
	case OutcomeWin:
		return OutcomeLose
	case OutcomeLose:
		return OutcomeWin
	default:
		return OutcomeTie
	}
}

// MatchWinner identifies who took a best-of-three match.
type MatchWinner string

const (
	WinnerPlayer MatchWinner = "player"
	WinnerAI     MatchWinner = "ai"
	WinnerTie    MatchWinner = "tie"
)
