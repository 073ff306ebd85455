// Package search picks the next column for a player by exploring the game
// tree to a fixed depth and scoring the frontier with a static evaluator.
//
// Three strategies share one traversal:
//
//   - Minimax assumes the opponent minimizes the subject's score.
//   - AlphaBeta is Minimax with window cutoffs; it returns the same column
//     and value while evaluating fewer leaves.
//   - Expectimax assumes the opponent plays a uniformly random legal move.
//
// The evaluator is always called for the subject (the player the top-level
// call is made for), whichever side is to move at the frontier.
package search

import (
	"fmt"
	"math"
	"strings"
	"time"

	"connect-four-engine/internal/board"
)

// NoMove is returned when the subject has no legal placement and concedes.
const NoMove = -1

// Kind selects a search strategy.
type Kind int

const (
	Minimax Kind = iota
	AlphaBeta
	Expectimax
)

// Kinds lists every strategy in display order.
var Kinds = []Kind{Minimax, AlphaBeta, Expectimax}

func (k Kind) String() string {
	switch k {
	case Minimax:
		return "minimax"
	case AlphaBeta:
		return "alphabeta"
	case Expectimax:
		return "expectimax"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the names produced by String plus "alpha-beta".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "minimax":
		return Minimax, nil
	case "alphabeta", "alpha-beta", "alpha_beta":
		return AlphaBeta, nil
	case "expectimax":
		return Expectimax, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Decision is the outcome of one top-level search.
type Decision struct {
	Column  int
	Value   float64
	Leaves  int // evaluator calls
	Nodes   int // states visited, root included
	Elapsed time.Duration
}

// Conceded reports that the subject had no legal move at the root.
func (d Decision) Conceded() bool {
	return d.Column == NoMove
}

// Engine runs one strategy. It holds no per-search state, so a single
// Engine may serve concurrent searches on boards owned by each caller.
type Engine struct {
	kind    Kind
	eval    Evaluator
	chooser Chooser
}

type Option func(*Engine)

// WithEvaluator replaces the default segment evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(eng *Engine) { eng.eval = e }
}

// WithChooser replaces the random column choice at expectation nodes.
func WithChooser(c Chooser) Option {
	return func(eng *Engine) { eng.chooser = c }
}

func New(kind Kind, opts ...Option) *Engine {
	e := &Engine{
		kind:    kind,
		eval:    NewSegmentEvaluator(),
		chooser: RandomChooser,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Kind() Kind { return e.kind }

// Search returns the column subject should play, or NoMove.
func (e *Engine) Search(subject board.Cell, b board.Board, depth int) int {
	return e.Decide(subject, b, depth).Column
}

// Decide searches depth plies below b with subject to move. A negative
// depth is treated as zero. An invalid subject concedes without searching.
func (e *Engine) Decide(subject board.Cell, b board.Board, depth int) Decision {
	start := time.Now()
	if !subject.Valid() {
		return Decision{Column: NoMove, Elapsed: time.Since(start)}
	}

	s := &searcher{
		subject:  subject,
		eval:     e.eval,
		chooser:  e.chooser,
		opponent: plyMinimize,
	}
	switch e.kind {
	case AlphaBeta:
		s.prune = true
	case Expectimax:
		s.opponent = plyExpectation
	}

	value, column := s.value(subject, b, depth, math.Inf(-1), math.Inf(1))
	return Decision{
		Column:  column,
		Value:   value,
		Leaves:  s.leaves,
		Nodes:   s.nodes,
		Elapsed: time.Since(start),
	}
}

var (
	defaultMinimax    = New(Minimax)
	defaultAlphaBeta  = New(AlphaBeta)
	defaultExpectimax = New(Expectimax)
)

// MinimaxSearch searches with the default evaluator.
func MinimaxSearch(subject board.Cell, b board.Board, depth int) int {
	return defaultMinimax.Search(subject, b, depth)
}

// AlphaBetaSearch searches with the default evaluator.
func AlphaBetaSearch(subject board.Cell, b board.Board, depth int) int {
	return defaultAlphaBeta.Search(subject, b, depth)
}

// ExpectimaxSearch searches with the default evaluator and a random chooser.
func ExpectimaxSearch(subject board.Cell, b board.Board, depth int) int {
	return defaultExpectimax.Search(subject, b, depth)
}
