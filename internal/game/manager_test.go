package game

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/models"
	"connect-four-engine/internal/search"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []interface{}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, v)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func human(name string) *models.Player {
	return &models.Player{ID: uuid.New(), Name: name, LastSeen: time.Now()}
}

func newTestManager(t *testing.T, opts ...ManagerOption) *Manager {
	t.Helper()
	m := NewManager(opts...)
	t.Cleanup(m.Stop)
	return m
}

func TestMakeMoveFlow(t *testing.T) {
	var ended []*models.Game
	m := newTestManager(t, WithFinishHook(func(g *models.Game) { ended = append(ended, g) }))

	alice, bob := human("alice"), human("bob")
	g := m.CreateGame(alice, bob)

	_, _, err := m.MakeMove(g.ID, bob.ID, 0)
	assert.ErrorIs(t, err, ErrNotPlayerTurn)
	_, _, err = m.MakeMove(g.ID, uuid.New(), 0)
	assert.ErrorIs(t, err, ErrPlayerNotInGame)
	_, _, err = m.MakeMove(uuid.New(), alice.ID, 0)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, _, err = m.MakeMove(g.ID, alice.ID, 7)
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.ErrorIs(t, err, board.ErrInvalidColumn)

	// alice stacks column 0, bob column 1
	for i := 0; i < 3; i++ {
		_, _, err := m.MakeMove(g.ID, alice.ID, 0)
		require.NoError(t, err)
		_, _, err = m.MakeMove(g.ID, bob.ID, 1)
		require.NoError(t, err)
	}
	assert.Empty(t, ended)

	move, state, err := m.MakeMove(g.ID, alice.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, move.Row)
	assert.True(t, state.IsFinished())
	assert.Equal(t, board.Player1, state.Winner)

	require.Len(t, ended, 1)
	assert.Equal(t, g.ID, ended[0].ID)

	_, _, err = m.MakeMove(g.ID, bob.ID, 1)
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestGetGameReturnsCopy(t *testing.T) {
	m := newTestManager(t)
	alice, bob := human("alice"), human("bob")
	g := m.CreateGame(alice, bob)

	before, ok := m.GetGame(g.ID)
	require.True(t, ok)
	_, _, err := m.MakeMove(g.ID, alice.ID, 3)
	require.NoError(t, err)

	after, ok := m.GetGame(g.ID)
	require.True(t, ok)
	assert.Equal(t, board.Empty, before.Board.At(5, 3))
	assert.Equal(t, board.Player1, after.Board.At(5, 3))

	_, ok = m.GetGame(uuid.New())
	assert.False(t, ok)
}

func TestBoardFactory(t *testing.T) {
	m := newTestManager(t, WithBoardFactory(func() *board.Grid {
		g, _ := board.New(5, 9)
		return g
	}))
	g := m.CreateGame(human("a"), human("b"))
	assert.Equal(t, 5, g.Board.Rows())
	assert.Equal(t, 9, g.Board.Cols())
}

func TestConcede(t *testing.T) {
	var ended []*models.Game
	m := newTestManager(t, WithFinishHook(func(g *models.Game) { ended = append(ended, g) }))
	alice, bob := human("alice"), human("bob")
	g := m.CreateGame(alice, bob)

	state, err := m.Concede(g.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, board.Player2, state.Winner)
	assert.Equal(t, board.Player1, state.ConcededBy)
	assert.Len(t, ended, 1)

	_, err = m.Concede(g.ID, bob.ID)
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestPlayBotTurn(t *testing.T) {
	m := newTestManager(t)
	bot := NewBot(search.AlphaBeta, 3)
	alice := human("alice")
	g := m.CreateGame(alice, bot.NewPlayer())

	_, err := m.PlayBotTurn(g.ID, bot)
	assert.ErrorIs(t, err, ErrNotBotTurn)

	// alice threatens the bottom row; the bot must block at column 3
	for _, col := range []int{0, 1} {
		_, _, err := m.MakeMove(g.ID, alice.ID, col)
		require.NoError(t, err)
		forceBotColumn(t, m, g.ID, 6)
	}
	_, _, err = m.MakeMove(g.ID, alice.ID, 2)
	require.NoError(t, err)

	turn, err := m.PlayBotTurn(g.ID, bot)
	require.NoError(t, err)
	require.NotNil(t, turn.Move)
	assert.Equal(t, 3, turn.Move.Column)
	assert.Equal(t, board.Player2, turn.Move.Piece)
	assert.Equal(t, board.Player1, turn.Game.CurrentTurn)
	assert.Positive(t, turn.Decision.Leaves)
	assert.Equal(t, board.Player2, turn.Game.Board.At(5, 3))
}

// forceBotColumn plays col for the bot seat through a search engine whose
// evaluator prefers that column.
func forceBotColumn(t *testing.T, m *Manager, gameID uuid.UUID, col int) {
	t.Helper()
	prefer := search.EvaluatorFunc(func(subject board.Cell, b board.Board) float64 {
		n := 0.0
		for r := 0; r < b.Rows(); r++ {
			if b.At(r, col) == subject {
				n++
			}
		}
		return n
	})
	turn, err := m.PlayBotTurn(gameID, NewBot(search.Minimax, 1, search.WithEvaluator(prefer)))
	require.NoError(t, err)
	require.Equal(t, col, turn.Move.Column)
}

func TestCleanupForfeitsDisconnectedPlayer(t *testing.T) {
	m := newTestManager(t)
	alice, bob := human("alice"), human("bob")
	g := m.CreateGame(alice, bob)

	conn := &fakeConn{}
	m.AddPlayerConnection(alice.ID, g.ID, &fakeConn{})
	m.AddPlayerConnection(bob.ID, g.ID, conn)
	m.RemovePlayerConnection(alice.ID)

	assert.Empty(t, m.cleanupDisconnectedPlayers(time.Now()))

	ended := m.cleanupDisconnectedPlayers(time.Now().Add(disconnectGracePeriod + time.Second))
	require.Len(t, ended, 1)
	assert.Equal(t, board.Player2, ended[0].Winner)
	assert.Equal(t, board.Player1, ended[0].ConcededBy)

	conn.mu.Lock()
	require.Len(t, conn.messages, 1)
	msg := conn.messages[0].(models.WSMessage)
	conn.mu.Unlock()
	assert.Equal(t, models.MsgGameEnd, msg.Type)

	// finished games are forgotten after the retention period
	m.cleanupDisconnectedPlayers(time.Now().Add(finishedGameRetention + time.Minute))
	_, ok := m.GetGame(g.ID)
	assert.False(t, ok)
}
