package engine

import (
	"errors"
	"math"
	"time"

	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Defaults for a new session.
const (
	DefaultDifficulty  = 0.8
	DefaultOpeningBias = 0.7
)

// ErrNotYourTurn is returned when the human plays during the AI's turn.
var ErrNotYourTurn = errors.New("not your turn")

// Session is one game of a human against the AI. It is not safe for
// concurrent use; callers that share a session must serialize access.
type Session struct {
	board       domain.Board
	turn        domain.Cell
	difficulty  float64
	openingBias float64
	opening     bool

	rng       Rand
	log       zerolog.Logger
	observers observers
}

type Option func(s *Session)

// WithDifficulty sets the starting difficulty, clamped to [0,1].
func WithDifficulty(d float64) Option {
	return func(s *Session) { s.SetDifficulty(d) }
}

// WithRand injects the random source. Tests pass a seeded source to make
// random moves, tie-breaks and the opening reproducible.
func WithRand(r Rand) Option {
	return func(s *Session) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithSeed is shorthand for WithRand over a seeded x/exp/rand source.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithOpeningBias sets the probability of taking the opening corner
// heuristic. Zero disables it.
func WithOpeningBias(p float64) Option {
	return func(s *Session) { s.openingBias = clamp(p) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates a session with an empty board and the human to move.
func New(options ...Option) *Session {
	s := &Session{ // Default values
		turn:        domain.Human,
		difficulty:  DefaultDifficulty,
		openingBias: DefaultOpeningBias,
		opening:     true,
		log:         log.Logger,
	}
	for _, option := range options {
		option(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	s.observers.log = s.log
	return s
}

// SetDifficulty sets the AI difficulty: 0 plays at random, 1 plays
// optimally. Values outside [0,1] are clamped.
func (s *Session) SetDifficulty(d float64) { s.difficulty = clamp(d) }

func (s *Session) Difficulty() float64 { return s.difficulty }

// HumanMove plays the human's mark at index. On error nothing changes.
func (s *Session) HumanMove(index int) error {
	if s.turn != domain.Human {
		return ErrNotYourTurn
	}
	if err := s.board.Validate(index); err != nil {
		return err
	}
	s.board.Apply(index, domain.Human)
	s.turn = domain.AI
	s.observers.emit(Event{Kind: EventMoved, Player: domain.Human, Index: index, Outcome: s.board.Outcome()})
	return nil
}

// AIMove lets the AI play and hands the turn back to the human, whatever the
// outcome. It returns the index played, or NoMove. Outside the AI's turn it
// does nothing. Callers check Status before asking for more moves.
func (s *Session) AIMove() int {
	if s.turn != domain.AI {
		return NoMove
	}
	move := s.Decide(s.board, domain.AI)
	if s.board.IsValidMove(move) {
		s.board.Apply(move, domain.AI)
	}
	s.turn = domain.Human
	if move != NoMove {
		s.observers.emit(Event{Kind: EventMoved, Player: domain.AI, Index: move, Outcome: s.board.Outcome()})
	}
	return move
}

// Board returns a copy of the cells.
func (s *Session) Board() domain.Board { return s.board }

func (s *Session) Turn() domain.Cell { return s.turn }

// Status derives the outcome from the board on every call.
func (s *Session) Status() domain.Outcome { return s.board.Outcome() }

func (s *Session) WinningLine() (domain.Line, bool) { return s.board.WinningLine() }

// Moves returns how many marks are on the board.
func (s *Session) Moves() int { return domain.Size - s.board.Count(domain.Empty) }

// Reset clears the board, gives the human the move and re-arms the opening
// heuristic.
func (s *Session) Reset() {
	s.board = domain.Board{}
	s.turn = domain.Human
	s.opening = true
	s.observers.emit(Event{Kind: EventReset, Index: NoMove, Outcome: domain.InProgress})
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return max(0, min(1, v))
}
