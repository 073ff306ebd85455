package board

import "fmt"

// ConnectLength is the number of aligned pieces that wins the game.
const ConnectLength = 4

const (
	DefaultRows = 6
	DefaultCols = 7
)

// Cell is the content of a single slot on the board.
type Cell int8

const (
	Empty Cell = iota
	Player1
	Player2
)

// Opponent returns the other player. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return Empty
}

// Valid reports whether c is one of the two players.
func (c Cell) Valid() bool {
	return c == Player1 || c == Player2
}

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	}
	return fmt.Sprintf("cell(%d)", int8(c))
}

// Board is the game state the search layer explores. Implementations must
// keep gravity (no empty cell below an occupied one) and Clone must return
// a copy that shares nothing with the source.
type Board interface {
	Rows() int
	Cols() int
	// At returns the cell at row, col. Row 0 is the top row.
	At(row, col int) Cell
	// Placeable reports whether the top cell of col is empty.
	Placeable(col int) bool
	// Place drops a piece for player into col and returns the row it landed on.
	Place(player Cell, col int) (int, error)
	Clone() Board
	// Terminal reports a draw or a connected line for either player.
	Terminal() bool
	// HasDraw reports a full board without a winner.
	HasDraw() bool
	// Winner returns the player owning a connected line, or Empty.
	Winner() Cell
}
