package game

import (
	"math/rand"

	"rps_arena/internal/domain"
)

// Resolve maps a pair of moves to the outcome from a's perspective.
// Total over the 3x3 grid and antisymmetric:
// Resolve(a,b)==win iff Resolve(b,a)==lose, Resolve(a,a)==tie.
func Resolve(a, b domain.Move) domain.Outcome {
	if a == b {
		return domain.OutcomeTie
	}

	switch a {
	case domain.MoveRock:
		if b == domain.MoveScissors {
			return domain.OutcomeWin
		}
	case domain.MovePaper:
		if b == domain.MoveRock {
			return domain.OutcomeWin
		}
	case domain.MoveScissors:
		if b == domain.MovePaper {
			return domain.OutcomeWin
		}
	}

	return domain.OutcomeLose
}

// RandomMove draws the house move, uniform over the three moves.
// Intentionally unweighted: adaptive AI belongs outside the engine.
func RandomMove() domain.Move {
	return domain.Moves[rand.Intn(len(domain.Moves))]
}
