package domain

import (
	"errors"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	Human
	AI
)

// String returns the mark drawn for the cell: X for the human, O for the AI.
func (c Cell) String() string {
	switch c {
	case Human:
		return "X"
	case AI:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Human:
		return AI
	case AI:
		return Human
	default:
		return Empty
	}
}

// Size is the number of cells on the board.
const Size = 9

// Board is a fixed 3x3 board stored row-major.
type Board [Size]Cell

// Line is a winning combination of three cell indices.
type Line [3]int

// Lines holds every winning combination in scan order.
var Lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Corners are the four corner cells.
var Corners = [4]int{0, 2, 6, 8}

// Errors returned by board validation.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
)

// Validate reports why index i cannot be played, or nil.
func (b *Board) Validate(i int) error {
	if i < 0 || i >= Size {
		return ErrOutOfBounds
	}
	if b[i] != Empty {
		return ErrOccupied
	}
	return nil
}

// IsValidMove reports whether i is on the board and empty.
func (b *Board) IsValidMove(i int) bool { return b.Validate(i) == nil }

// Apply writes c at i. The caller must have validated the move.
func (b *Board) Apply(i int, c Cell) { b[i] = c }

// HasWon reports whether c owns all three cells of any line.
func (b *Board) HasWon(c Cell) bool {
	for _, ln := range Lines {
		if b.owns(ln, c) {
			return true
		}
	}
	return false
}

// IsFull reports whether no cell is empty. It does not look at wins, so
// callers must check HasWon first.
func (b *Board) IsFull() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// WinningLine returns the first line owned by the human, else the first line
// owned by the AI.
func (b *Board) WinningLine() (Line, bool) {
	for _, side := range [2]Cell{Human, AI} {
		for _, ln := range Lines {
			if b.owns(ln, side) {
				return ln, true
			}
		}
	}
	return Line{}, false
}

// Outcome derives the game result from the cells.
func (b *Board) Outcome() Outcome {
	switch {
	case b.HasWon(Human):
		return HumanWin
	case b.HasWon(AI):
		return AIWin
	case b.IsFull():
		return Draw
	}
	return InProgress
}

// Empty returns the empty cell indices in ascending order.
func (b *Board) Empty() []int {
	out := make([]int, 0, Size)
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Count returns how many cells hold c.
func (b *Board) Count(c Cell) int {
	n := 0
	for _, v := range b {
		if v == c {
			n++
		}
	}
	return n
}

// String renders the board as three text rows.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		marks := make([]string, 3)
		for c := 0; c < 3; c++ {
			m := b[r*3+c].String()
			if m == "" {
				m = " "
			}
			marks[c] = m
		}
		sb.WriteString(strings.Join(marks, " | "))
		sb.WriteByte('\n')
		if r < 2 {
			sb.WriteString("--+---+--\n")
		}
	}
	return sb.String()
}

func (b *Board) owns(ln Line, c Cell) bool {
	return b[ln[0]] == c && b[ln[1]] == c && b[ln[2]] == c
}
