package engine

import (
	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
)

// SelfPlay resets s and lets the engine choose for both sides, the human side
// first, until the game is over. Both sides share the session's difficulty,
// random source and opening flag.
func SelfPlay(s *Session) domain.Outcome {
	s.Reset()
	for !s.Status().GameOver() {
		if s.Turn() == domain.Human {
			move := s.Decide(s.Board(), domain.Human)
			if err := s.HumanMove(move); err != nil {
				s.log.Warn().Err(err).Int("move", move).Msg("self-play move rejected")
				break
			}
			continue
		}
		if s.AIMove() == NoMove {
			break
		}
	}
	outcome := s.Status()
	s.log.Debug().Stringer("outcome", outcome).Int("moves", s.Moves()).Msg("self-play finished")
	return outcome
}

// Tally counts outcomes over a batch of games.
type Tally struct {
	HumanWins int
	AIWins    int
	Draws     int
}

func (t *Tally) Add(o domain.Outcome) {
	switch o {
	case domain.HumanWin:
		t.HumanWins++
	case domain.AIWin:
		t.AIWins++
	case domain.Draw:
		t.Draws++
	}
}

func (t Tally) Games() int { return t.HumanWins + t.AIWins + t.Draws }

// SelfPlayN plays n self-play games on s and tallies the results.
func SelfPlayN(s *Session, n int) Tally {
	var t Tally
	for i := 0; i < n; i++ {
		t.Add(SelfPlay(s))
	}
	return t
}
