package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
	"github.com/jaminalder/tic-tac-toe-ai/internal/engine"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Errors exposed by the service layer.
var (
	ErrNotFound   = errors.New("game not found")
	ErrNotAPlayer = errors.New("not a player")
	ErrGameOver   = errors.New("game over")
)

// Move is one applied move in a match history.
type Move struct {
	Player domain.Cell
	Index  int
	At     time.Time
}

// MatchState is a snapshot of a match handed to callers and renderers.
type MatchState struct {
	ID         string
	Owner      string
	Board      domain.Board
	Turn       domain.Cell
	Outcome    domain.Outcome
	Line       domain.Line
	HasLine    bool
	Difficulty float64
	Thinking   bool
	History    []Move
	Created    time.Time
	Updated    time.Time
}

type match struct {
	id       string
	owner    string
	session  *engine.Session
	history  []Move
	thinking bool
	gen      int
	timer    *time.Timer
	created  time.Time
	updated  time.Time
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages matches and subscribers. Every session is only touched
// under mu.
type Service struct {
	mu          sync.Mutex
	matches     map[string]*match
	subs        map[string]map[*subscriber]struct{}
	render      func(MatchState) []byte
	thinkDelay  time.Duration
	openingBias float64
	seed        *uint64
	log         zerolog.Logger
}

type Option func(s *Service)

// WithRenderer sets the function that encodes broadcast payloads.
func WithRenderer(renderer func(MatchState) []byte) Option {
	return func(s *Service) {
		if renderer != nil {
			s.render = renderer
		}
	}
}

// WithThinkDelay makes the AI reply arrive after d instead of inside Play.
func WithThinkDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.thinkDelay = d
		}
	}
}

func WithOpeningBias(p float64) Option {
	return func(s *Service) { s.openingBias = p }
}

// WithRandSeed seeds each new match deterministically, starting at seed.
func WithRandSeed(seed uint64) Option {
	return func(s *Service) { s.seed = &seed }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService(options ...Option) *Service {
	s := &Service{
		matches:     make(map[string]*match),
		subs:        make(map[string]map[*subscriber]struct{}),
		render:      func(MatchState) []byte { return nil },
		openingBias: engine.DefaultOpeningBias,
		log:         log.Logger,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(MatchState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(MatchState) []byte { return nil }
		return
	}
	s.render = renderer
}

// CreateGame creates and registers a new match at the given difficulty.
func (s *Service) CreateGame(difficulty float64) (*MatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	logger := s.log.With().Str("game", id).Logger()
	options := []engine.Option{
		engine.WithDifficulty(difficulty),
		engine.WithOpeningBias(s.openingBias),
		engine.WithLogger(logger),
	}
	if s.seed != nil {
		options = append(options, engine.WithSeed(*s.seed))
		*s.seed++
	}
	m := &match{id: id, session: engine.New(options...), created: now, updated: now}
	m.session.Subscribe(func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventMoved:
			m.history = append(m.history, Move{Player: ev.Player, Index: ev.Index, At: time.Now()})
			logger.Info().Stringer("player", ev.Player).Int("cell", ev.Index).Stringer("outcome", ev.Outcome).Msg("move")
		case engine.EventReset:
			m.history = nil
			logger.Info().Msg("reset")
		}
	})
	s.matches[id] = m
	logger.Info().Float64("difficulty", m.session.Difficulty()).Msg("game created")
	cp := m.snapshot()
	return &cp, nil
}

// Get returns a copy of the match state if present.
func (s *Service) Get(id string) (*MatchState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, false
	}
	cp := m.snapshot()
	return &cp, true
}

// Join gives the first visitor the human seat. It reports whether playerID
// owns the match; everyone else spectates.
func (s *Service) Join(id, playerID string) (bool, *MatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return false, nil, ErrNotFound
	}
	if m.owner == "" {
		m.owner = playerID
		m.updated = time.Now()
	}
	cp := m.snapshot()
	return m.owner == playerID, &cp, nil
}

// Play validates the seat, applies the human move and triggers the AI
// reply, either inline or after the think delay.
func (s *Service) Play(id, playerID string, index int) (*MatchState, error) {
	s.mu.Lock()
	m, err := s.ownedLocked(id, playerID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if m.session.Status().GameOver() {
		s.mu.Unlock()
		return nil, ErrGameOver
	}
	if err := m.session.HumanMove(index); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	m.updated = time.Now()
	if !m.session.Status().GameOver() {
		if s.thinkDelay > 0 {
			s.scheduleReplyLocked(m)
		} else {
			m.session.AIMove()
		}
	}
	cp := m.snapshot()
	s.mu.Unlock()

	s.broadcast(id)
	return &cp, nil
}

// Reset starts the match over and cancels a pending AI reply.
func (s *Service) Reset(id, playerID string) (*MatchState, error) {
	s.mu.Lock()
	m, err := s.ownedLocked(id, playerID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	m.cancelReply()
	m.session.Reset()
	m.updated = time.Now()
	cp := m.snapshot()
	s.mu.Unlock()

	s.broadcast(id)
	return &cp, nil
}

// SetDifficulty changes the AI difficulty of a running match.
func (s *Service) SetDifficulty(id, playerID string, difficulty float64) (*MatchState, error) {
	s.mu.Lock()
	m, err := s.ownedLocked(id, playerID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	m.session.SetDifficulty(difficulty)
	m.updated = time.Now()
	cp := m.snapshot()
	s.mu.Unlock()

	s.broadcast(id)
	return &cp, nil
}

// Close cancels every pending AI reply and closes all subscribers.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		m.cancelReply()
	}
	for id, set := range s.subs {
		for sub := range set {
			sub.close()
		}
		delete(s.subs, id)
	}
}

// Subscribe registers a subscriber for a match. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

func (s *Service) ownedLocked(id, playerID string) (*match, error) {
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.owner != playerID {
		return nil, ErrNotAPlayer
	}
	return m, nil
}

func (s *Service) scheduleReplyLocked(m *match) {
	m.thinking = true
	gen := m.gen
	m.timer = time.AfterFunc(s.thinkDelay, func() {
		s.mu.Lock()
		if m.gen != gen {
			s.mu.Unlock()
			return
		}
		m.thinking = false
		m.timer = nil
		m.session.AIMove()
		m.updated = time.Now()
		s.mu.Unlock()
		s.broadcast(m.id)
	})
}

// broadcast renders the current state and fans it out; slow subscribers
// are closed and dropped. Sends never block, so they happen under mu and
// cannot race an unsubscribe.
func (s *Service) broadcast(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return
	}
	payload := s.render(m.snapshot())
	dropped := 0
	for sub := range s.subs[id] {
		select {
		case sub.ch <- payload:
		default:
			// drop slow subscriber
			sub.close()
			delete(s.subs[id], sub)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Debug().Str("game", id).Int("dropped", dropped).Msg("dropped slow subscribers")
	}
}

func (m *match) cancelReply() {
	m.gen++
	m.thinking = false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *match) snapshot() MatchState {
	line, ok := m.session.WinningLine()
	return MatchState{
		ID:         m.id,
		Owner:      m.owner,
		Board:      m.session.Board(),
		Turn:       m.session.Turn(),
		Outcome:    m.session.Status(),
		Line:       line,
		HasLine:    ok,
		Difficulty: m.session.Difficulty(),
		Thinking:   m.thinking,
		History:    append([]Move(nil), m.history...),
		Created:    m.created,
		Updated:    m.updated,
	}
}
