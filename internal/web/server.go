package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jaminalder/tic-tac-toe-ai/internal/app"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Option func(h *handlers)

// WithHeartbeat sets the idle ping interval of the SSE and WebSocket streams.
func WithHeartbeat(d time.Duration) Option {
	return func(h *handlers) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithDifficulty sets the difficulty used when the create form sends none.
func WithDifficulty(d float64) Option {
	return func(h *handlers) { h.difficulty = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(h *handlers) { h.log = l }
}

// NewServer wires routes and returns an http.Handler. It installs the board
// fragment as the service's broadcast renderer.
func NewServer(s *app.Service, options ...Option) http.Handler {
	h := &handlers{
		svc:        s,
		tpl:        loadTemplates(),
		heartbeat:  15 * time.Second,
		difficulty: 0.8,
		log:        log.Logger,
	}
	for _, option := range options {
		option(h)
	}
	s.SetRenderer(func(ms app.MatchState) []byte { return h.renderBoard(ms, "") })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/play", h.play)
		r.Post("/reset", h.reset)
		r.Post("/difficulty", h.difficultyChange)
		r.Get("/events", h.events)
		r.Get("/ws", h.ws)
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Get("/games/{id}", h.apiGet)
		r.Post("/games/{id}/moves", h.apiMove)
	})
	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				l.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
