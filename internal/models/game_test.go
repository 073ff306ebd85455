package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect-four-engine/internal/board"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	human := &Player{ID: uuid.New(), Name: "ada"}
	bot := &Player{ID: uuid.New(), Name: "bot", IsBot: true, Strategy: "alphabeta", Depth: 4}
	return NewGame(board.NewStandard(), human, bot)
}

func TestNewGameSeatsPlayers(t *testing.T) {
	g := newTestGame(t)
	assert.Equal(t, board.Player1, g.Players[0].Piece)
	assert.Equal(t, board.Player2, g.Players[1].Piece)
	assert.Equal(t, board.Player1, g.CurrentTurn)
	assert.Equal(t, GameStatePlaying, g.State)
	assert.Same(t, g.Players[1], g.Bot())
	assert.Same(t, g.Players[0], g.PlayerByID(g.Players[0].ID))
	assert.Nil(t, g.PlayerByID(uuid.New()))
}

func TestDropAlternatesAndDetectsWin(t *testing.T) {
	g := newTestGame(t)
	for _, col := range []int{0, 1, 0, 1, 0, 1} {
		_, err := g.Drop(g.CurrentTurn, col)
		require.NoError(t, err)
	}
	assert.False(t, g.IsFinished())

	move, err := g.Drop(board.Player1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, move.Row)
	assert.Equal(t, g.Players[0].ID, move.PlayerID)

	assert.True(t, g.IsFinished())
	assert.Equal(t, board.Player1, g.Winner)
	assert.Equal(t, 7, g.MoveCount)
	assert.NotNil(t, g.FinishedAt)

	res := g.Result()
	require.NotNil(t, res.WinnerID)
	assert.Equal(t, g.Players[0].ID, *res.WinnerID)
	assert.Equal(t, g.Players[1].ID, *res.LoserID)
	assert.Equal(t, "lost", res.BotOutcome)
	assert.Equal(t, "alphabeta", res.BotStrategy)
	assert.Equal(t, "connect_four", EndReason(g))
}

func TestDropOnFullColumn(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 6; i++ {
		_, err := g.Drop(g.CurrentTurn, 3)
		require.NoError(t, err)
	}
	_, err := g.Drop(g.CurrentTurn, 3)
	assert.ErrorIs(t, err, board.ErrColumnFull)
	assert.Equal(t, 6, g.MoveCount)
}

func TestConcede(t *testing.T) {
	g := newTestGame(t)
	g.Concede(board.Player2)

	assert.True(t, g.IsFinished())
	assert.Equal(t, board.Player1, g.Winner)
	assert.Equal(t, "concession", EndReason(g))

	end := NewGameEndPayload(g)
	assert.False(t, end.IsDraw)
	assert.Equal(t, "ada", end.Winner.Name)
	assert.True(t, g.Result().Conceded)
}

func TestSnapshotIsIndependent(t *testing.T) {
	g := newTestGame(t)
	_, err := g.Drop(board.Player1, 3)
	require.NoError(t, err)

	snap := g.Snapshot()
	_, err = g.Drop(board.Player2, 3)
	require.NoError(t, err)
	g.Players[0].Name = "changed"

	assert.Equal(t, board.Empty, snap.Board.At(4, 3))
	assert.Equal(t, "ada", snap.Players[0].Name)
	assert.Equal(t, board.Player2, snap.CurrentTurn)
	assert.Equal(t, 3, snap.LastMove.Column)
}

func TestGameJSONCarriesBoard(t *testing.T) {
	g := newTestGame(t)
	_, err := g.Drop(board.Player1, 6)
	require.NoError(t, err)

	data, err := json.Marshal(NewWSMessage(MsgGameState, g))
	require.NoError(t, err)

	var decoded struct {
		Type    MessageType `json:"type"`
		Payload struct {
			Board       [][]int `json:"board"`
			CurrentTurn int     `json:"current_turn"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, MsgGameState, decoded.Type)
	assert.Equal(t, 1, decoded.Payload.Board[5][6])
	assert.Equal(t, 2, decoded.Payload.CurrentTurn)
}
