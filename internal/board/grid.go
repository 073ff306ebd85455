package board

import (
	"encoding/json"
	"fmt"
	"strings"
)

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal down-right
	{1, -1}, // diagonal down-left
}

// Grid is the default Board: a rows×cols slice of cells, row 0 on top.
type Grid struct {
	rows  int
	cols  int
	cells []Cell
}

var _ Board = (*Grid)(nil)

// New returns an empty grid.
func New(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}, nil
}

// NewStandard returns an empty 6×7 grid.
func NewStandard() *Grid {
	g, _ := New(DefaultRows, DefaultCols)
	return g
}

// FromRows builds a grid from row-major cell values (0 empty, 1 and 2 for
// the players), top row first. The gravity invariant is enforced.
func FromRows(values [][]int) (*Grid, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, fmt.Errorf("%w: empty board", ErrInvalidDimensions)
	}
	g, err := New(len(values), len(values[0]))
	if err != nil {
		return nil, err
	}
	for r, row := range values {
		if len(row) != g.cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidDimensions, r, len(row), g.cols)
		}
		for c, v := range row {
			cell := Cell(v)
			if v < 0 || v > 2 {
				return nil, fmt.Errorf("%w: %d at row %d col %d", ErrInvalidCell, v, r, c)
			}
			g.cells[r*g.cols+c] = cell
		}
	}
	if err := g.checkGravity(); err != nil {
		return nil, err
	}
	return g, nil
}

// Parse reads the format produced by String. Rows are separated by new
// lines or '/', cells are '.', '0', '1', '2', 'X' or 'O'; spaces are ignored.
func Parse(s string) (*Grid, error) {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '/' })
	var values [][]int
	for _, line := range lines {
		var row []int
		for _, r := range line {
			switch r {
			case ' ', '\t', '\r', '|', ',':
				continue
			case '.', '0', '_':
				row = append(row, int(Empty))
			case '1', 'X', 'x':
				row = append(row, int(Player1))
			case '2', 'O', 'o':
				row = append(row, int(Player2))
			default:
				return nil, fmt.Errorf("%w: %q", ErrInvalidCell, r)
			}
		}
		if len(row) > 0 {
			values = append(values, row)
		}
	}
	return FromRows(values)
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// At returns Empty for coordinates outside the grid.
func (g *Grid) At(row, col int) Cell {
	if !g.inBounds(row, col) {
		return Empty
	}
	return g.cells[row*g.cols+col]
}

func (g *Grid) Placeable(col int) bool {
	if col < 0 || col >= g.cols {
		return false
	}
	return g.cells[col] == Empty // Top row must be empty
}

func (g *Grid) Place(player Cell, col int) (int, error) {
	if !player.Valid() {
		return -1, fmt.Errorf("%w: %s", ErrInvalidPlayer, player)
	}
	if col < 0 || col >= g.cols {
		return -1, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	// Find the lowest empty row in the column
	for r := g.rows - 1; r >= 0; r-- {
		if g.cells[r*g.cols+col] == Empty {
			g.cells[r*g.cols+col] = player
			return r, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrColumnFull, col)
}

func (g *Grid) Clone() Board {
	return g.Copy()
}

// Copy is Clone with the concrete type.
func (g *Grid) Copy() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rows: g.rows, cols: g.cols, cells: cells}
}

func (g *Grid) Terminal() bool {
	return g.Full() || g.Winner() != Empty
}

func (g *Grid) HasDraw() bool {
	return g.Full() && g.Winner() == Empty
}

// Winner scans rows, columns and both diagonals. Player1 is checked first.
func (g *Grid) Winner() Cell {
	for _, player := range [2]Cell{Player1, Player2} {
		if g.hasLine(player) {
			return player
		}
	}
	return Empty
}

// Full reports whether no column can take another piece.
func (g *Grid) Full() bool {
	for col := 0; col < g.cols; col++ {
		if g.cells[col] == Empty {
			return false
		}
	}
	return true
}

// ValidMoves lists the placeable columns left to right.
func (g *Grid) ValidMoves() []int {
	moves := make([]int, 0, g.cols)
	for col := 0; col < g.cols; col++ {
		if g.Placeable(col) {
			moves = append(moves, col)
		}
	}
	return moves
}

// MoveCount is the number of pieces on the board.
func (g *Grid) MoveCount() int {
	count := 0
	for _, c := range g.cells {
		if c != Empty {
			count++
		}
	}
	return count
}

// Values returns the cells as ints, top row first.
func (g *Grid) Values() [][]int {
	out := make([][]int, g.rows)
	for r := range out {
		out[r] = make([]int, g.cols)
		for c := range out[r] {
			out[r][c] = int(g.cells[r*g.cols+c])
		}
	}
	return out
}

func (g *Grid) String() string {
	var sb strings.Builder
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			switch g.cells[r*g.cols+c] {
			case Player1:
				sb.WriteByte('1')
			case Player2:
				sb.WriteByte('2')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Values())
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var values [][]int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	parsed, err := FromRows(values)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

func (g *Grid) hasLine(player Cell) bool {
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			if g.cells[row*g.cols+col] != player {
				continue
			}
			for _, d := range directions {
				if g.checkLine(row, col, d[0], d[1], player) {
					return true
				}
			}
		}
	}
	return false
}

func (g *Grid) checkLine(startRow, startCol, deltaRow, deltaCol int, player Cell) bool {
	for i := 0; i < ConnectLength; i++ {
		row := startRow + i*deltaRow
		col := startCol + i*deltaCol
		if !g.inBounds(row, col) || g.cells[row*g.cols+col] != player {
			return false
		}
	}
	return true
}

func (g *Grid) checkGravity() error {
	for col := 0; col < g.cols; col++ {
		seen := false
		for row := 0; row < g.rows; row++ {
			occupied := g.cells[row*g.cols+col] != Empty
			if seen && !occupied {
				return fmt.Errorf("%w: column %d row %d", ErrFloatingPiece, col, row-1)
			}
			seen = seen || occupied
		}
	}
	return nil
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}
