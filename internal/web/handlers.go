package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/tic-tac-toe-ai/internal/app"
	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
	"github.com/jaminalder/tic-tac-toe-ai/internal/engine"
	"github.com/rs/zerolog"
)

var errBadDifficulty = errors.New("invalid difficulty")

type handlers struct {
	svc        *app.Service
	tpl        *templates
	heartbeat  time.Duration
	difficulty float64
	log        zerolog.Logger
}

func (h *handlers) renderBoard(ms app.MatchState, errMsg string) []byte {
	return renderTemplate(h.tpl.board, "", newBoardView(ms, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, "", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	difficulty := h.difficulty
	if v := r.Form.Get("difficulty"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "invalid difficulty", http.StatusBadRequest)
			return
		}
		difficulty = d
	}
	ms, err := h.svc.CreateGame(difficulty)
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+ms.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// ensure cookie and auto-claim seat
	pid := ensurePlayerCookie(w, r)
	_, ms, err := h.svc.Join(id, pid)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data := newBoardView(*ms, "")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.game, "", data))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	_ = r.ParseForm()
	cell, ok := parseCell(r)
	if !ok {
		cell = -1
	}
	h.respond(w, r, func(id string) (*app.MatchState, error) {
		return h.svc.Play(id, pid, cell)
	})
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	h.respond(w, r, func(id string) (*app.MatchState, error) {
		return h.svc.Reset(id, pid)
	})
}

func (h *handlers) difficultyChange(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	_ = r.ParseForm()
	h.respond(w, r, func(id string) (*app.MatchState, error) {
		d, err := strconv.ParseFloat(r.Form.Get("difficulty"), 64)
		if err != nil {
			return nil, errBadDifficulty
		}
		return h.svc.SetDifficulty(id, pid, d)
	})
}

// respond runs op and renders the board fragment, with a message for
// rejected operations.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, op func(id string) (*app.MatchState, error)) {
	id := chi.URLParam(r, "id")
	ms, err := op(id)
	var errMsg string
	if err != nil {
		if ms == nil {
			if g, ok := h.svc.Get(id); ok {
				ms = g
			}
		}
		errMsg = errorMessage(err)
	}
	if ms == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*ms, errMsg))
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, _, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	// heartbeat ticker
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	// Initial flush of headers
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent emits one SSE event; every payload line gets its own data field.
func writeEvent(w io.Writer, name string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", name)
	for _, line := range strings.Split(string(payload), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}

// parseCell reads the cell index from the form: either "cell" (0-8) or the
// row/column pair "r" and "c".
func parseCell(r *http.Request) (int, bool) {
	if v := r.Form.Get("cell"); v != "" {
		i, err := strconv.Atoi(v)
		return i, err == nil
	}
	ri, err1 := strconv.Atoi(r.Form.Get("r"))
	ci, err2 := strconv.Atoi(r.Form.Get("c"))
	if err1 != nil || err2 != nil || ri < 0 || ri > 2 || ci < 0 || ci > 2 {
		return 0, false
	}
	return ri*3 + ci, true
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, app.ErrNotAPlayer):
		return "You are a spectator"
	case errors.Is(err, domain.ErrOccupied):
		return "Cell is occupied"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(err, app.ErrGameOver):
		return "Game is over"
	case errors.Is(err, errBadDifficulty):
		return "Invalid difficulty"
	default:
		return "Invalid move"
	}
}
