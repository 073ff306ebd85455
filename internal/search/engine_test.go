package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect-four-engine/internal/board"
)

// neverTerminal hides the end of the game so nodes without moves can be
// reached.
type neverTerminal struct{ *board.Grid }

func (n neverTerminal) Terminal() bool     { return false }
func (n neverTerminal) Clone() board.Board { return neverTerminal{n.Grid.Copy()} }

// tableEvaluator reads the single piece of each player on a one-row board
// and looks the pair of columns up in table.
func tableEvaluator(table map[[2]int]float64) Evaluator {
	return EvaluatorFunc(func(_ board.Cell, b board.Board) float64 {
		p1, p2 := -1, -1
		for c := 0; c < b.Cols(); c++ {
			switch b.At(0, c) {
			case board.Player1:
				p1 = c
			case board.Player2:
				p2 = c
			}
		}
		return table[[2]int{p1, p2}]
	})
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"minimax", Minimax},
		{"MiniMax", Minimax},
		{"alphabeta", AlphaBeta},
		{"alpha-beta", AlphaBeta},
		{" expectimax ", Expectimax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("mcts")
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	for _, k := range Kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestDepthZeroReturnsNoMove(t *testing.T) {
	for _, k := range Kinds {
		t.Run(k.String(), func(t *testing.T) {
			d := New(k).Decide(board.Player1, board.NewStandard(), 0)
			assert.True(t, d.Conceded())
			assert.Equal(t, 1, d.Leaves)
			assert.Equal(t, 1, d.Nodes)
			assert.Zero(t, d.Value)

			assert.Equal(t, NoMove, New(k).Search(board.Player2, board.NewStandard(), -3))
		})
	}
}

func TestTerminalRootIsEvaluatedOnly(t *testing.T) {
	won := parse(t, `
		. . . . . . .
		. . . . . . .
		. . . . . . .
		2 . . . . . .
		2 2 . . . . .
		1 1 1 1 2 . .`)

	for _, k := range Kinds {
		t.Run(k.String(), func(t *testing.T) {
			for _, subject := range []board.Cell{board.Player1, board.Player2} {
				d := New(k).Decide(subject, won, 5)
				assert.Equal(t, NoMove, d.Column)
				assert.Equal(t, 1, d.Leaves)
				assert.Equal(t, 1, d.Nodes)
				assert.Equal(t, Evaluate(subject, won), d.Value)
			}
		})
	}
}

func TestEmptyBoardDepthOnePlaysCenter(t *testing.T) {
	assert.Equal(t, 3, MinimaxSearch(board.Player1, board.NewStandard(), 1))
	assert.Equal(t, 3, AlphaBetaSearch(board.Player1, board.NewStandard(), 1))
	assert.Equal(t, 3, ExpectimaxSearch(board.Player1, board.NewStandard(), 1))

	d := New(Minimax).Decide(board.Player1, board.NewStandard(), 1)
	assert.Equal(t, 7.0, d.Value)
	assert.Equal(t, 7, d.Leaves)
	assert.Equal(t, 8, d.Nodes)
}

func TestTiesGoToTheLastColumn(t *testing.T) {
	flat := EvaluatorFunc(func(board.Cell, board.Board) float64 { return 0 })
	for _, k := range []Kind{Minimax, AlphaBeta} {
		for depth := 1; depth <= 3; depth++ {
			col := New(k, WithEvaluator(flat)).Search(board.Player1, board.NewStandard(), depth)
			assert.Equal(t, 6, col, "%s depth %d", k, depth)
		}
	}
}

func TestSearchDoesNotMutateBoard(t *testing.T) {
	g := parse(t, `
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . 2 . . .
		. . 1 1 . . .
		. 2 1 2 . . .`)
	before := g.String()

	for _, k := range Kinds {
		New(k).Search(board.Player1, g, 3)
	}
	assert.Equal(t, before, g.String())
}

func TestTakesImmediateWin(t *testing.T) {
	g := parse(t, `
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		2 2 2 . . . .
		1 1 1 . . . .`)

	for _, k := range []Kind{Minimax, AlphaBeta} {
		for depth := 1; depth <= 3; depth++ {
			assert.Equal(t, 3, New(k).Search(board.Player1, g, depth), "%s depth %d", k, depth)
		}
	}
	// Against a random opponent a deeper search may gamble on a bigger
	// line, so only the shallow depths are pinned.
	for depth := 1; depth <= 2; depth++ {
		assert.Equal(t, 3, New(Expectimax).Search(board.Player1, g, depth), "expectimax depth %d", depth)
	}
}

func TestBlocksImmediateLoss(t *testing.T) {
	g := parse(t, `
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .
		. . . . . . 1
		1 2 2 2 . 1 1`)

	for _, k := range []Kind{Minimax, AlphaBeta} {
		assert.Equal(t, 4, New(k).Search(board.Player1, g, 2), "%s must block", k)
	}
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	shapes := [][2]int{{6, 7}, {4, 5}, {5, 4}, {4, 4}}

	for i := 0; i < 40; i++ {
		shape := shapes[i%len(shapes)]
		g := randomPosition(t, rng, shape[0], shape[1], rng.Intn(shape[0]*shape[1]))
		subject := board.Player1
		if g.MoveCount()%2 == 1 {
			subject = board.Player2
		}

		for depth := 0; depth <= 4; depth++ {
			mm := New(Minimax).Decide(subject, g, depth)
			ab := New(AlphaBeta).Decide(subject, g, depth)

			assert.Equal(t, mm.Column, ab.Column, "depth %d board:\n%s", depth, g)
			assert.Equal(t, mm.Value, ab.Value, "depth %d board:\n%s", depth, g)
			assert.LessOrEqual(t, ab.Leaves, mm.Leaves)
		}
	}
}

func TestAlphaBetaPrunes(t *testing.T) {
	mm := New(Minimax).Decide(board.Player1, board.NewStandard(), 4)
	ab := New(AlphaBeta).Decide(board.Player1, board.NewStandard(), 4)

	assert.Equal(t, 7*7*7*7, mm.Leaves)
	assert.Less(t, ab.Leaves, mm.Leaves)
	assert.Equal(t, mm.Column, ab.Column)
}

func TestSearchIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := randomPosition(t, rng, 6, 7, 10)

	for _, k := range []Kind{Minimax, AlphaBeta} {
		first := New(k).Decide(board.Player1, g, 4)
		for i := 0; i < 3; i++ {
			again := New(k).Decide(board.Player1, g, 4)
			assert.Equal(t, first.Column, again.Column)
			assert.Equal(t, first.Value, again.Value)
			assert.Equal(t, first.Leaves, again.Leaves)
		}
	}
}

func TestExpectimaxValueIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 10; i++ {
		g := randomPosition(t, rng, 6, 7, rng.Intn(20))
		want := New(Expectimax, WithChooser(FirstChooser)).Decide(board.Player1, g, 3)
		for j := 0; j < 3; j++ {
			got := New(Expectimax).Decide(board.Player1, g, 3)
			assert.Equal(t, want.Value, got.Value)
			assert.Equal(t, want.Column, got.Column, "the root is a maximizing ply")
		}
	}
}

func TestExpectimaxAveragesOpponentReplies(t *testing.T) {
	g, err := board.New(1, 3)
	require.NoError(t, err)

	// keyed by (Player1 column, Player2 column)
	eval := tableEvaluator(map[[2]int]float64{
		{0, 1}: 5, {0, 2}: 5,
		{1, 0}: -10, {1, 2}: 30,
		{2, 0}: 0, {2, 1}: 0,
	})

	mm := New(Minimax, WithEvaluator(eval)).Decide(board.Player1, g, 2)
	assert.Equal(t, 0, mm.Column)
	assert.Equal(t, 5.0, mm.Value)

	ex := New(Expectimax, WithEvaluator(eval)).Decide(board.Player1, g, 2)
	assert.Equal(t, 1, ex.Column)
	assert.Equal(t, 10.0, ex.Value)
}

func TestExpectationNodeReportsChosenColumn(t *testing.T) {
	g := board.NewStandard()
	var offered []int
	spy := ChooserFunc(func(columns []int) int {
		offered = append([]int(nil), columns...)
		return columns[len(columns)-1]
	})

	// Every Player2 reply is an expectation ply below the root.
	d := New(Expectimax, WithChooser(spy)).Decide(board.Player1, g, 2)
	assert.NotEqual(t, NoMove, d.Column)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, offered)
}

func TestNoMovesAtRootConcedes(t *testing.T) {
	full := parse(t, `
		1 1 2 2 1 1 2
		2 2 1 1 2 2 1
		1 1 2 2 1 1 2
		2 2 1 1 2 2 1
		1 1 2 2 1 1 2
		2 2 1 1 2 2 1`)

	for _, k := range Kinds {
		d := New(k).Decide(board.Player1, neverTerminal{full}, 3)
		assert.True(t, d.Conceded(), k.String())
		assert.Equal(t, 1, d.Leaves)
	}
}

func TestExpectationNodeWithoutMovesFallsBackToEvaluation(t *testing.T) {
	g, err := board.New(1, 1)
	require.NoError(t, err)

	count := 0
	eval := EvaluatorFunc(func(_ board.Cell, b board.Board) float64 {
		count++
		if b.At(0, 0) == board.Player1 {
			return 42
		}
		return 0
	})

	d := New(Expectimax, WithEvaluator(eval)).Decide(board.Player1, neverTerminal{g}, 3)
	assert.Equal(t, 0, d.Column)
	assert.Equal(t, 42.0, d.Value)
	assert.Equal(t, 1, count)
}

func TestInvalidSubjectConcedes(t *testing.T) {
	d := New(Minimax).Decide(board.Empty, board.NewStandard(), 2)
	assert.True(t, d.Conceded())
	assert.Zero(t, d.Nodes)
}

func TestSuccessorsAreOrderedAndIsolated(t *testing.T) {
	g := parse(t, `
		. 1 . .
		. 2 . .
		. 1 . .
		2 1 . 2`)

	children := Successors(board.Player1, g)
	require.Len(t, children, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{children[0].Column, children[1].Column, children[2].Column})

	assert.Equal(t, board.Player1, children[0].Board.At(2, 0))
	assert.Equal(t, board.Empty, children[1].Board.At(2, 0))
	assert.Equal(t, board.Empty, g.At(2, 0))
	assert.Equal(t, board.Player1, children[2].Board.At(2, 3))

	assert.Empty(t, Successors(board.Player2, parse(t, "1 2/2 1")))
}
