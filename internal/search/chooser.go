package search

import "lukechampine.com/frand"

// Chooser picks the column an expectation node reports. The choice never
// changes the expected value passed to the parent. columns is never empty.
type Chooser interface {
	Choose(columns []int) int
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(columns []int) int

func (f ChooserFunc) Choose(columns []int) int { return f(columns) }

// RandomChooser picks uniformly. Safe for concurrent use.
var RandomChooser Chooser = ChooserFunc(func(columns []int) int {
	return columns[frand.Intn(len(columns))]
})

// FirstChooser always reports the leftmost column.
var FirstChooser Chooser = ChooserFunc(func(columns []int) int {
	return columns[0]
})
