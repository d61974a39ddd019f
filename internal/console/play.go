package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jaminalder/tic-tac-toe-ai/internal/domain"
	"github.com/jaminalder/tic-tac-toe-ai/internal/engine"
)

// PlayGame runs an interactive game of s on the terminal. Cells are numbered
// 1-9 row by row.
func PlayGame(r io.Reader, w io.Writer, s *engine.Session) {
	reader := bufio.NewReader(r)

	fmt.Fprintln(w, "=== Tic-Tac-Toe ===")
	fmt.Fprintln(w, "Controls: 1-9=place X, h=hint, d <0-1>=difficulty, r=restart, q=quit")
	fmt.Fprintln(w)

	for {
		fmt.Fprint(w, s.Board())
		fmt.Fprintln(w, message(s.Status()))

		fmt.Fprint(w, "> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch cmd := strings.ToLower(fields[0]); cmd {
		case "q":
			fmt.Fprintln(w, "Bye!")
			return
		case "r":
			s.Reset()
			fmt.Fprintln(w, "New game.")
		case "h":
			_, best := engine.BestMoves(s.Board(), domain.Human)
			if len(best) == 0 {
				fmt.Fprintln(w, "No moves left.")
				continue
			}
			fmt.Fprintf(w, "Hint: %s\n", cellList(best))
		case "d":
			if len(fields) < 2 {
				fmt.Fprintf(w, "Difficulty is %.2f\n", s.Difficulty())
				continue
			}
			d, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				fmt.Fprintln(w, "Invalid difficulty")
				continue
			}
			s.SetDifficulty(d)
			fmt.Fprintf(w, "Difficulty set to %.2f\n", s.Difficulty())
		default:
			n, err := strconv.Atoi(cmd)
			if err != nil {
				fmt.Fprintln(w, "Invalid input")
				continue
			}
			if s.Status().GameOver() {
				fmt.Fprintln(w, "Game is over, press r to restart")
				continue
			}
			if err := s.HumanMove(n - 1); err != nil {
				fmt.Fprintf(w, "Invalid move: %v\n", err)
				continue
			}
			if !s.Status().GameOver() {
				if move := s.AIMove(); move != engine.NoMove {
					fmt.Fprintf(w, "AI plays %d\n", move+1)
				}
			}
		}
	}
}

func message(o domain.Outcome) string {
	switch o {
	case domain.HumanWin:
		return "You win!"
	case domain.AIWin:
		return "AI wins!"
	case domain.Draw:
		return "It's a draw!"
	}
	return "Your turn (X)"
}

func cellList(cells []int) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strconv.Itoa(c + 1)
	}
	return strings.Join(out, ", ")
}

// Report prints a self-play tally.
func Report(w io.Writer, t engine.Tally) {
	games := t.Games()
	if games == 0 {
		fmt.Fprintln(w, "No games played.")
		return
	}
	pct := func(n int) float64 { return 100 * float64(n) / float64(games) }
	fmt.Fprintf(w, "Games: %d\n", games)
	fmt.Fprintf(w, "X wins: %d (%.1f%%)\n", t.HumanWins, pct(t.HumanWins))
	fmt.Fprintf(w, "O wins: %d (%.1f%%)\n", t.AIWins, pct(t.AIWins))
	fmt.Fprintf(w, "Draws:  %d (%.1f%%)\n", t.Draws, pct(t.Draws))
}
