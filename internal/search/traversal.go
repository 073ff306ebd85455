package search

import (
	"math"

	"connect-four-engine/internal/board"
)

// plyKind decides how a node combines the values of its children.
type plyKind int

const (
	plyMaximize plyKind = iota
	plyMinimize
	plyExpectation
)

// searcher carries the state of one top-level search.
type searcher struct {
	subject  board.Cell
	eval     Evaluator
	chooser  Chooser
	opponent plyKind // how the non-subject plies are played
	prune    bool

	leaves int
	nodes  int
}

func (s *searcher) value(toMove board.Cell, b board.Board, depth int, alpha, beta float64) (float64, int) {
	s.nodes++
	if depth <= 0 || b.Terminal() {
		return s.leaf(b)
	}

	children := Successors(toMove, b)
	if len(children) == 0 {
		// Not terminal yet nothing to play: score the position as it stands.
		return s.leaf(b)
	}

	kind := s.opponent
	if toMove == s.subject {
		kind = plyMaximize
	}

	next := toMove.Opponent()
	switch kind {
	case plyMaximize:
		return s.maximize(next, children, depth, alpha, beta)
	case plyMinimize:
		return s.minimize(next, children, depth, alpha, beta)
	default:
		return s.expect(next, children, depth)
	}
}

func (s *searcher) leaf(b board.Board) (float64, int) {
	s.leaves++
	return s.eval.Evaluate(s.subject, b), NoMove
}

// maximize keeps the last child reaching the best value. Cutoffs are
// strict so ties resolve to the same child as an unpruned search.
func (s *searcher) maximize(next board.Cell, children []Successor, depth int, alpha, beta float64) (float64, int) {
	best, action := math.Inf(-1), NoMove
	for _, child := range children {
		v, _ := s.value(next, child.Board, depth-1, alpha, beta)
		if v >= best {
			best, action = v, child.Column
		}
		if s.prune {
			if best > beta {
				return best, action
			}
			alpha = math.Max(alpha, best)
		}
	}
	return best, action
}

func (s *searcher) minimize(next board.Cell, children []Successor, depth int, alpha, beta float64) (float64, int) {
	best, action := math.Inf(1), NoMove
	for _, child := range children {
		v, _ := s.value(next, child.Board, depth-1, alpha, beta)
		if v <= best {
			best, action = v, child.Column
		}
		if s.prune {
			if best < alpha {
				return best, action
			}
			beta = math.Min(beta, best)
		}
	}
	return best, action
}

// expect averages every child with equal weight. Expectation nodes never
// prune, so the window is not forwarded.
func (s *searcher) expect(next board.Cell, children []Successor, depth int) (float64, int) {
	p := 1 / float64(len(children))
	total := 0.0
	columns := make([]int, 0, len(children))
	for _, child := range children {
		v, _ := s.value(next, child.Board, depth-1, math.Inf(-1), math.Inf(1))
		total += p * v
		columns = append(columns, child.Column)
	}
	return total, s.chooser.Choose(columns)
}
