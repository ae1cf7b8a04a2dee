package entity

import (
	"errors"
	"fmt"
)

// Size is the length of a board side.
const Size = 3

var (
	ErrIllegalPlacement = errors.New("illegal placement")
	ErrUnknownPlayer    = errors.New("unknown player")
)

// Player is one of the two sides.
type Player uint8

const (
	PlayerX Player = iota + 1
	PlayerO
)

func ParsePlayer(s string) (Player, error) {
	switch s {
	case "X", "x":
		return PlayerX, nil
	case "O", "o":
		return PlayerO, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlayer, s)
	}
}

func (that Player) Valid() bool {
	return that == PlayerX || that == PlayerO
}

// Opponent returns the other side. An invalid player maps to PlayerX.
func (that Player) Opponent() Player {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Player) String() string {
	switch that {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	default:
		return ""
	}
}

func (that Player) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Player) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*that = 0
		return nil
	}

	p, err := ParsePlayer(string(text))
	if err != nil {
		return err
	}

	*that = p
	return nil
}

// Cell is either Empty or holds the mark of a player.
type Cell uint8

const Empty Cell = 0

// Mark returns the cell holding p's mark.
func Mark(p Player) Cell {
	return Cell(p)
}

func (that Cell) Player() (Player, bool) {
	p := Player(that)
	return p, p.Valid()
}

func (that Cell) String() string {
	return Player(that).String()
}

func (that Cell) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Cell) UnmarshalText(text []byte) error {
	var p Player
	if err := p.UnmarshalText(text); err != nil {
		return err
	}

	*that = Cell(p)
	return nil
}

// Board is a row-major 3x3 grid. It is a value type: every placement yields a new Board.
type Board [Size * Size]Cell

// Line is a triple of board indexes that ends the game when uniformly marked.
type Line [Size]int

// Lines are in scan order: rows top-to-bottom, columns left-to-right, then both diagonals.
var Lines = [8]Line{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func EmptyBoard() Board {
	return Board{}
}

func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// At returns the cell at row, col. Out of range coordinates read as Empty.
func (that Board) At(row, col int) Cell {
	if !InBounds(row, col) {
		return Empty
	}
	return that[row*Size+col]
}

func (that Board) Full() bool {
	for _, cell := range that {
		if cell == Empty {
			return false
		}
	}
	return true
}

func (that Board) Count(p Player) int {
	n := 0
	for _, cell := range that {
		if cell == Mark(p) {
			n++
		}
	}
	return n
}

// PlaceMark returns a copy of board with p's mark at row, col. The input is never modified.
func PlaceMark(board Board, row, col int, p Player) (Board, error) {
	if !p.Valid() {
		return board, fmt.Errorf("%w: %w", ErrIllegalPlacement, ErrUnknownPlayer)
	}

	if !InBounds(row, col) {
		return board, fmt.Errorf("%w: cell (%d, %d) is out of range", ErrIllegalPlacement, row, col)
	}

	if board.At(row, col) != Empty {
		return board, fmt.Errorf("%w: cell (%d, %d) is occupied", ErrIllegalPlacement, row, col)
	}

	board[row*Size+col] = Mark(p)

	return board, nil
}

// Evaluate derives the outcome of a board. The first complete line in Lines order wins,
// so a board with complete lines for both players reports whichever is scanned first.
func Evaluate(board Board) Outcome {
	for _, line := range Lines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if p, ok := a.Player(); ok && a == b && b == c {
			return Win(p)
		}
	}

	// the game continues until every cell is marked
	if board.Full() {
		return Draw()
	}

	return InProgress()
}
