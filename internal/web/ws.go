package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type wsMessage struct {
	Type    string   `json:"type"`
	Payload *gameDTO `json:"payload,omitempty"`
}

// ws streams the match as JSON: one "state" message on connect and after
// every change, and a "ping" message when the stream has been idle for a
// heartbeat interval.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("game", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		return
	}
	defer unsub()

	// drain client frames so close frames are noticed
	go func() {
		defer unsub()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := h.writeState(conn, id); err != nil {
		return
	}
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	lastWrite := time.Now()
	ping, _ := json.Marshal(wsMessage{Type: "ping"})
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if err := h.writeState(conn, id); err != nil {
				return
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < h.heartbeat {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				return
			}
			lastWrite = time.Now()
		}
	}
}

func (h *handlers) writeState(conn *websocket.Conn, id string) error {
	ms, ok := h.svc.Get(id)
	if !ok {
		return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game gone"))
	}
	dto := toDTO(*ms)
	return conn.WriteJSON(wsMessage{Type: "state", Payload: &dto})
}
