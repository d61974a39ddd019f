package engine

import (
	"math"

	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
)

// Terminal scores. A win is worth winScore minus the depth it was reached at,
// so faster wins and slower losses score better.
const winScore = 10

// minimax scores b for me by exhaustive search. The board is owned by the
// caller's search and every placement is undone before the next sibling.
func minimax(b *domain.Board, me domain.Cell, depth int, maximizing bool) int {
	switch {
	case b.HasWon(me):
		return winScore - depth
	case b.HasWon(me.Opponent()):
		return depth - winScore
	case b.IsFull():
		return 0
	}

	mover := me
	best := math.MinInt
	if !maximizing {
		mover = me.Opponent()
		best = math.MaxInt
	}
	for i, c := range b {
		if c != domain.Empty {
			continue
		}
		b[i] = mover
		score := minimax(b, me, depth+1, !maximizing)
		b[i] = domain.Empty
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}

// scoreMoves scores every empty cell of b as me's next move and returns the
// best score with all cells tied at it, in ascending index order.
func scoreMoves(b domain.Board, me domain.Cell) (int, []int) {
	best := math.MinInt
	var moves []int
	for i, c := range b {
		if c != domain.Empty {
			continue
		}
		b[i] = me
		score := minimax(&b, me, 0, false)
		b[i] = domain.Empty
		switch {
		case score > best:
			best = score
			moves = []int{i}
		case score == best:
			moves = append(moves, i)
		}
	}
	return best, moves
}

// BestMoves returns the optimal score for me on b and every cell reaching
// it. It uses no randomness and leaves the session untouched.
func BestMoves(b domain.Board, me domain.Cell) (int, []int) {
	if b.Outcome().GameOver() {
		return 0, nil
	}
	return scoreMoves(b, me)
}
