package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jaminalder/tic-tac-toe-ai/internal/app"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService(app.WithRandSeed(1), app.WithLogger(zerolog.Nop()))
	h := NewServer(s, WithLogger(zerolog.Nop()), WithHeartbeat(time.Second))
	return s, h
}

// newOwnedGame creates a game whose seat belongs to player "p1".
func newOwnedGame(t *testing.T, svc *app.Service) string {
	t.Helper()
	gs, err := svc.CreateGame(1)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if owner, _, err := svc.Join(gs.ID, "p1"); err != nil || !owner {
		t.Fatalf("p1 should own the game: owner=%v err=%v", owner, err)
	}
	return gs.ID
}

func postForm(t *testing.T, h http.Handler, path, player string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if player != "" {
		req.AddCookie(&http.Cookie{Name: "player_id", Value: player})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
		t.Fatalf("index should contain create form; got body: %q", body)
	}
	if !strings.Contains(body, "name=\"difficulty\"") {
		t.Fatalf("index should offer a difficulty choice; got body: %q", body)
	}
}

func TestCreateRedirectsToGame(t *testing.T) {
	svc, h := newTestServer(t)
	rr := postForm(t, h, "/game", "", url.Values{"difficulty": {"0.5"}})
	if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	loc := rr.Result().Header.Get("Location")
	if !strings.HasPrefix(loc, "/game/") {
		t.Fatalf("expected redirect to /game/{id}, got %q", loc)
	}
	gs, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
	if !ok || gs.Difficulty != 0.5 {
		t.Fatalf("expected game with difficulty 0.5, got %+v", gs)
	}

	rr = postForm(t, h, "/game", "", url.Values{"difficulty": {"hard"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad difficulty, got %d", rr.Code)
	}
}

func TestGamePageSetsCookieAndClaimsSeat(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(1)

	req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var playerID string
	for _, c := range rr.Result().Cookies() {
		if c.Name == "player_id" {
			playerID = c.Value
			break
		}
	}
	if playerID == "" {
		t.Fatalf("expected player_id cookie to be set")
	}
	latest, ok := svc.Get(gs.ID)
	if !ok || latest.Owner != playerID {
		t.Fatalf("expected auto-claim; have owner=%q pid=%q", latest.Owner, playerID)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
		t.Fatalf("expected SSE wiring in page; got body: %q", body)
	}
	if !strings.Contains(body, "Your turn (X)") {
		t.Fatalf("expected turn message; got body: %q", body)
	}

	req = httptest.NewRequest("GET", "/game/missing", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown game, got %d", rr.Code)
	}
}

func TestPlayEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
	svc, h := newTestServer(t)
	id := newOwnedGame(t, svc)

	rr := postForm(t, h, "/game/"+id+"/play", "p1", url.Values{"cell": {"4"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "id=\"board\"") {
		t.Fatalf("expected board fragment, got %q", body)
	}
	if !strings.Contains(body, "x-mark") || !strings.Contains(body, "o-mark") {
		t.Fatalf("expected both marks on the board, got %q", body)
	}
	latest, _ := svc.Get(id)
	if len(latest.History) != 2 {
		t.Fatalf("expected human and AI moves, history=%d", len(latest.History))
	}

	// row/column form fields are accepted too
	free := -1
	for i, c := range latest.Board {
		if c.String() == "" {
			free = i
			break
		}
	}
	rr = postForm(t, h, "/game/"+id+"/play", "p1", url.Values{"r": {strconv.Itoa(free / 3)}, "c": {strconv.Itoa(free % 3)}})
	latest, _ = svc.Get(id)
	if latest.Board[free].String() != "X" {
		t.Fatalf("expected r/c move at %d, body=%q", free, rr.Body.String())
	}
}

func TestPlayRejectionMessages(t *testing.T) {
	svc, h := newTestServer(t)
	id := newOwnedGame(t, svc)

	cases := []struct {
		player string
		form   url.Values
		want   string
	}{
		{"p2", url.Values{"cell": {"0"}}, "You are a spectator"},
		{"p1", url.Values{"cell": {"9"}}, "Out of bounds"},
		{"p1", url.Values{"cell": {"x"}}, "Out of bounds"},
	}
	for _, tc := range cases {
		rr := postForm(t, h, "/game/"+id+"/play", tc.player, tc.form)
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), tc.want) {
			t.Fatalf("expected %q, got %d %q", tc.want, rr.Code, rr.Body.String())
		}
	}

	postForm(t, h, "/game/"+id+"/play", "p1", url.Values{"cell": {"4"}})
	rr := postForm(t, h, "/game/"+id+"/play", "p1", url.Values{"cell": {"4"}})
	if !strings.Contains(rr.Body.String(), "Cell is occupied") {
		t.Fatalf("expected occupied message, got %q", rr.Body.String())
	}

	rr = postForm(t, h, "/game/missing/play", "p1", url.Values{"cell": {"0"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestResetAndDifficultyEndpoints(t *testing.T) {
	svc, h := newTestServer(t)
	id := newOwnedGame(t, svc)
	postForm(t, h, "/game/"+id+"/play", "p1", url.Values{"cell": {"0"}})

	rr := postForm(t, h, "/game/"+id+"/reset", "p1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	latest, _ := svc.Get(id)
	if len(latest.History) != 0 || latest.Board[0].String() != "" {
		t.Fatalf("expected reset board, got %+v", latest)
	}

	rr = postForm(t, h, "/game/"+id+"/difficulty", "p1", url.Values{"difficulty": {"0.3"}})
	latest, _ = svc.Get(id)
	if rr.Code != http.StatusOK || latest.Difficulty != 0.3 {
		t.Fatalf("expected difficulty 0.3, got %v (code %d)", latest.Difficulty, rr.Code)
	}
	rr = postForm(t, h, "/game/"+id+"/difficulty", "p1", url.Values{"difficulty": {"lots"}})
	if !strings.Contains(rr.Body.String(), "Invalid difficulty") {
		t.Fatalf("expected invalid difficulty message, got %q", rr.Body.String())
	}
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	reqCreate := httptest.NewRequest("POST", "/game", nil)
	rrCreate := httptest.NewRecorder()
	h.ServeHTTP(rrCreate, reqCreate)
	loc := rrCreate.Result().Header.Get("Location")
	if loc == "" {
		t.Fatalf("missing redirect location")
	}
	req := httptest.NewRequest("GET", loc+"/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Result().Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		io.Copy(io.Discard, rr.Result().Body)
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}

func TestWriteEventSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	writeEvent(&buf, "board", []byte("<div>\n<p>x</p>\n</div>"))
	want := "event: board\ndata: <div>\ndata: <p>x</p>\ndata: </div>\n\n"
	if buf.String() != want {
		t.Fatalf("unexpected event framing: %q", buf.String())
	}
}

func TestAPI(t *testing.T) {
	svc, h := newTestServer(t)
	id := newOwnedGame(t, svc)

	req := httptest.NewRequest("POST", "/api/games/"+id+"/moves", strings.NewReader(`{"cell":4}`))
	req.AddCookie(&http.Cookie{Name: "player_id", Value: "p1"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var dto gameDTO
	if err := json.NewDecoder(rr.Body).Decode(&dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto.Board[4] != "X" || dto.Moves != 2 || dto.Turn != "X" || dto.Status != "in_progress" {
		t.Fatalf("unexpected snapshot: %+v", dto)
	}

	req = httptest.NewRequest("POST", "/api/games/"+id+"/moves", strings.NewReader(`{"cell":4}`))
	req.AddCookie(&http.Cookie{Name: "player_id", Value: "p2"})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for spectator, got %d", rr.Code)
	}

	req = httptest.NewRequest("POST", "/api/games/"+id+"/moves", strings.NewReader(`{}`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing cell, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/games/"+id, nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"moves":2`) {
		t.Fatalf("unexpected GET response %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/games/missing", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestWebSocketStreamsState(t *testing.T) {
	svc, h := newTestServer(t)
	id := newOwnedGame(t, svc)
	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read initial state: %v", err)
	}
	if msg.Type != "state" || msg.Payload == nil || msg.Payload.Moves != 0 {
		t.Fatalf("unexpected initial message: %+v", msg)
	}

	if _, err := svc.Play(id, "p1", 0); err != nil {
		t.Fatalf("play: %v", err)
	}
	msg = wsMessage{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg.Type != "state" || msg.Payload == nil || msg.Payload.Board[0] != "X" {
		t.Fatalf("unexpected update: %+v", msg)
	}
}
