package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/jaminalder/tic-tac-toe-ai/internal/app"
	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"add": func(a, b int) int { return a + b },
		"mul": func(a, b int) int { return a * b },
		"pct": func(f float64) int { return int(f*100 + 0.5) },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic-Tac-Toe</h1>
<form action="/game" method="post">
  <label>Difficulty
    <select name="difficulty">
      <option value="0">Easy</option>
      <option value="0.5">Medium</option>
      <option value="0.8" selected>Hard</option>
      <option value="1">Unbeatable</option>
    </select>
  </label>
  <button>Play</button>
</form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div id="board-stream" sse-swap="board">{{template "board" .}}</div>
</div>`))
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `
<div id="board" class="{{.Result}}">
  <p class="status">{{.Message}}</p>
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  {{/* 3x3 grid */}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}{{with index $.Cells (add (mul $r 3) $c)}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="cell" value="{{.Index}}">
        <button type="submit" class="{{.Class}}"{{if $.Over}} disabled{{end}}>{{.Mark}}</button>
      </form>
    {{end}}{{end}}
  </div>
  {{end}}
  <form hx-post="/game/{{.ID}}/difficulty" hx-target="#board" hx-swap="outerHTML" method="post">
    <label>Difficulty {{pct .Difficulty}}%
      <input type="range" name="difficulty" min="0" max="1" step="0.1" value="{{.Difficulty}}">
    </label>
    <button type="submit">Set</button>
  </form>
  <form hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML" method="post">
    <button type="submit" class="reset">New game</button>
  </form>
</div>
`

type cellView struct {
	Index int
	Mark  string
	Class string
}

// boardView is the data the board fragment renders.
type boardView struct {
	ID         string
	Cells      []cellView
	Message    string
	Result     string
	Error      string
	Over       bool
	Difficulty float64
}

func newBoardView(ms app.MatchState, errMsg string) boardView {
	v := boardView{
		ID:         ms.ID,
		Cells:      make([]cellView, domain.Size),
		Message:    statusMessage(ms),
		Error:      errMsg,
		Over:       ms.Outcome.GameOver(),
		Difficulty: ms.Difficulty,
	}
	switch ms.Outcome {
	case domain.HumanWin:
		v.Result = "win"
	case domain.AIWin:
		v.Result = "lose"
	}
	for i, c := range ms.Board {
		cv := cellView{Index: i, Mark: c.String(), Class: "cell"}
		switch c {
		case domain.Human:
			cv.Class += " x-mark"
		case domain.AI:
			cv.Class += " o-mark"
		}
		v.Cells[i] = cv
	}
	if ms.HasLine {
		for _, i := range ms.Line {
			v.Cells[i].Class += " winning"
		}
	}
	return v
}

func statusMessage(ms app.MatchState) string {
	switch ms.Outcome {
	case domain.HumanWin:
		return "You win!"
	case domain.AIWin:
		return "AI wins!"
	case domain.Draw:
		return "It's a draw!"
	}
	if ms.Thinking || ms.Turn == domain.AI {
		return "AI is thinking..."
	}
	return "Your turn (X)"
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	// Generate UUIDv4 for player ID
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return v
}
