package search

import (
	"fmt"

	"connect-four-engine/internal/board"
)

// Successor is a legal move and the board it produces.
type Successor struct {
	Column int
	Board  board.Board
}

// Successors returns one entry per placeable column, left to right. Each
// board is a fresh clone owned by the caller.
func Successors(player board.Cell, b board.Board) []Successor {
	res := make([]Successor, 0, b.Cols())
	for c := 0; c < b.Cols(); c++ {
		if !b.Placeable(c) {
			continue
		}
		child := b.Clone()
		if _, err := child.Place(player, c); err != nil {
			panic(fmt.Sprintf("search: placing in placeable column %d: %v", c, err))
		}
		res = append(res, Successor{Column: c, Board: child})
	}
	return res
}
