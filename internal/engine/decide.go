package engine

import (
	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
)

// NoMove is returned when no cell can be played.
const NoMove = -1

// Rand is the random source the engine draws from. *rand.Rand from
// golang.org/x/exp/rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Decide picks a move for me on b through the session's pipeline: the
// difficulty modulator, then search, then the move selector. It may consume
// the opening flag.
func (s *Session) Decide(b domain.Board, me domain.Cell) int {
	empty := b.Empty()
	if len(empty) == 0 {
		return NoMove
	}

	// Difficulty modulator: above the difficulty the search is skipped.
	if r := s.rng.Float64(); r > s.difficulty {
		move := empty[s.rng.Intn(len(empty))]
		s.log.Debug().Float64("roll", r).Float64("difficulty", s.difficulty).Int("move", move).Msg("random move")
		return move
	}

	score, best := scoreMoves(b, me)
	move := s.selectMove(b, best)
	s.log.Debug().Int("score", score).Ints("best", best).Int("move", move).Msg("searched move")
	return move
}

// selectMove resolves ties among the best cells and applies the opening
// corner heuristic while the opening flag is still set.
func (s *Session) selectMove(b domain.Board, best []int) int {
	if len(best) == 0 {
		return NoMove
	}
	if s.opening && s.rng.Float64() < s.openingBias {
		s.opening = false
		corners := make([]int, 0, len(domain.Corners))
		for _, c := range domain.Corners {
			if b[c] == domain.Empty {
				corners = append(corners, c)
			}
		}
		if len(corners) > 0 {
			move := corners[s.rng.Intn(len(corners))]
			s.log.Debug().Int("move", move).Msg("opening corner")
			return move
		}
	}
	return best[s.rng.Intn(len(best))]
}
