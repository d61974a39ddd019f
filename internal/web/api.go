package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/tic-tac-toe-ai/internal/app"
	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
)

type gameDTO struct {
	ID          string    `json:"id"`
	Board       [9]string `json:"board"`
	Turn        string    `json:"turn"`
	Status      string    `json:"status"`
	Winner      string    `json:"winner,omitempty"`
	Draw        bool      `json:"draw"`
	GameOver    bool      `json:"game_over"`
	WinningLine []int     `json:"winning_line,omitempty"`
	Difficulty  float64   `json:"difficulty"`
	Thinking    bool      `json:"thinking"`
	Moves       int       `json:"moves"`
	Message     string    `json:"message"`
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

func toDTO(ms app.MatchState) gameDTO {
	dto := gameDTO{
		ID:         ms.ID,
		Turn:       ms.Turn.String(),
		Status:     ms.Outcome.String(),
		Winner:     ms.Outcome.Winner().String(),
		Draw:       ms.Outcome.IsDraw(),
		GameOver:   ms.Outcome.GameOver(),
		Difficulty: ms.Difficulty,
		Thinking:   ms.Thinking,
		Moves:      domain.Size - ms.Board.Count(domain.Empty),
		Message:    statusMessage(ms),
	}
	for i, c := range ms.Board {
		dto.Board[i] = c.String()
	}
	if ms.HasLine {
		dto.WinningLine = ms.Line[:]
	}
	return dto
}

func (h *handlers) apiGet(w http.ResponseWriter, r *http.Request) {
	ms, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": app.ErrNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*ms))
}

func (h *handlers) apiMove(w http.ResponseWriter, r *http.Request) {
	var payload moveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Cell == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	pid := ensurePlayerCookie(w, r)
	ms, err := h.svc.Play(chi.URLParam(r, "id"), pid, *payload.Cell)
	if err != nil {
		writeJSON(w, statusCode(err), map[string]string{"error": errorMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*ms))
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNotAPlayer):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOutOfBounds):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
