package search

import "connect-four-engine/internal/board"

// Weights indexes the value of a segment by how many of its cells the
// player holds. The last entry is a completed line and must dominate.
type Weights [board.ConnectLength + 1]float64

// DefaultWeights grows roughly 4x per piece up to three, then jumps for a win.
var DefaultWeights = Weights{0, 1, 4, 16, 1000}

// Evaluator scores a position from subject's point of view: positive is
// good for subject, negative good for the opponent.
type Evaluator interface {
	Evaluate(subject board.Cell, b board.Board) float64
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(subject board.Cell, b board.Board) float64

func (f EvaluatorFunc) Evaluate(subject board.Cell, b board.Board) float64 {
	return f(subject, b)
}

// SegmentEvaluator counts every in-bounds run of ConnectLength cells that
// only one side occupies and weights it by that side's piece count.
type SegmentEvaluator struct {
	Weights Weights
}

// NewSegmentEvaluator returns an evaluator using DefaultWeights.
func NewSegmentEvaluator() SegmentEvaluator {
	return SegmentEvaluator{Weights: DefaultWeights}
}

// Evaluate scores b with DefaultWeights.
func Evaluate(subject board.Cell, b board.Board) float64 {
	return NewSegmentEvaluator().Evaluate(subject, b)
}

func (e SegmentEvaluator) Evaluate(subject board.Cell, b board.Board) float64 {
	adversary := subject.Opponent()

	var score, advScore [board.ConnectLength + 1]int
	forEachSegment(b, func(seg *[board.ConnectLength]board.Cell) {
		mine, theirs := 0, 0
		for _, c := range seg {
			switch c {
			case subject:
				mine++
			case adversary:
				theirs++
			}
		}
		// A segment holding both colours is dead for both players.
		if theirs == 0 {
			score[mine]++
		}
		if mine == 0 {
			advScore[theirs]++
		}
	})

	var reward, penalty float64
	for i, w := range e.Weights {
		reward += float64(score[i]) * w
		penalty += float64(advScore[i]) * w
	}
	return reward - penalty
}

// SegmentCount returns how many segments the evaluator scores on a
// rows×cols board.
func SegmentCount(rows, cols int) int {
	n := board.ConnectLength - 1
	count := 0
	if cols > n {
		count += rows * (cols - n)
	}
	if rows > n {
		count += cols * (rows - n)
	}
	if rows > n && cols > n {
		count += 2 * (rows - n) * (cols - n)
	}
	return count
}

var segmentDirections = [4][2]int{
	{0, 1},  // row
	{1, 0},  // column
	{1, 1},  // diagonal
	{1, -1}, // anti-diagonal
}

// forEachSegment calls fn once per segment that lies fully on the board.
// The array passed to fn is reused between calls.
func forEachSegment(b board.Board, fn func(seg *[board.ConnectLength]board.Cell)) {
	rows, cols := b.Rows(), b.Cols()
	var seg [board.ConnectLength]board.Cell
	last := board.ConnectLength - 1

	for _, d := range segmentDirections {
		for r := 0; r < rows; r++ {
			endRow := r + last*d[0]
			if endRow < 0 || endRow >= rows {
				continue
			}
			for c := 0; c < cols; c++ {
				endCol := c + last*d[1]
				if endCol < 0 || endCol >= cols {
					continue
				}
				for i := range seg {
					seg[i] = b.At(r+i*d[0], c+i*d[1])
				}
				fn(&seg)
			}
		}
	}
}
