package matchmaking

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect-four-engine/internal/game"
	"connect-four-engine/internal/models"
	"connect-four-engine/internal/search"
)

type recordingConn struct {
	mu       sync.Mutex
	messages []models.WSMessage
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, v.(models.WSMessage))
	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) found() *models.GameFoundPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range c.messages {
		if msg.Type == models.MsgGameFound {
			p := msg.Payload.(models.GameFoundPayload)
			return &p
		}
	}
	return nil
}

func newTestMatchmaker(t *testing.T, timeout time.Duration) (*Matchmaker, *game.Manager) {
	t.Helper()
	gm := game.NewManager()
	t.Cleanup(gm.Stop)
	return NewMatchmaker(gm, game.NewBot(search.AlphaBeta, 2), timeout), gm
}

func TestPairsWaitingPlayers(t *testing.T) {
	mm, gm := newTestMatchmaker(t, time.Hour)
	var started []bool
	mm.OnMatch(func(_ *models.Game, vsBot bool) { started = append(started, vsBot) })

	c1, c2 := &recordingConn{}, &recordingConn{}
	p1, pos, err := mm.JoinQueue("alice", c1)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	p2, pos, err := mm.JoinQueue(" bob ", c2)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, "bob", p2.Name)

	mm.processQueue()

	f1, f2 := c1.found(), c2.found()
	require.NotNil(t, f1)
	require.NotNil(t, f2)
	assert.Equal(t, f1.Game.ID, f2.Game.ID)
	assert.Equal(t, p1.ID, f1.PlayerID)
	assert.Equal(t, p2.ID, f2.PlayerID)
	assert.Equal(t, []bool{false}, started)

	g, ok := gm.GetGame(f1.Game.ID)
	require.True(t, ok)
	assert.True(t, g.Players[0].Connected)
	assert.Nil(t, g.Bot())

	stats := mm.Stats()
	assert.EqualValues(t, 2, stats.TotalJoined)
	assert.EqualValues(t, 2, stats.TotalMatched)
	assert.Zero(t, stats.CurrentSize)
}

func TestFallsBackToBot(t *testing.T) {
	mm, gm := newTestMatchmaker(t, 20*time.Millisecond)
	conn := &recordingConn{}
	player, _, err := mm.JoinQueue("alice", conn)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return conn.found() != nil }, time.Second, 5*time.Millisecond)

	g, ok := gm.GetGame(conn.found().Game.ID)
	require.True(t, ok)
	assert.Equal(t, player.ID, g.Players[0].ID)
	bot := g.Bot()
	require.NotNil(t, bot)
	assert.Equal(t, "alphabeta", bot.Strategy)
	assert.Equal(t, 2, bot.Depth)
	assert.EqualValues(t, 1, mm.Stats().TotalBotMatches)
}

func TestLeaveQueue(t *testing.T) {
	mm, _ := newTestMatchmaker(t, 20*time.Millisecond)
	conn := &recordingConn{}
	player, _, err := mm.JoinQueue("alice", conn)
	require.NoError(t, err)

	require.NoError(t, mm.LeaveQueue(player.ID))
	assert.ErrorIs(t, mm.LeaveQueue(player.ID), ErrPlayerNotInQueue)
	assert.ErrorIs(t, mm.LeaveQueue(uuid.New()), ErrPlayerNotInQueue)

	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, conn.found(), "bot timer must be cancelled")
	assert.EqualValues(t, 1, mm.Stats().TotalLeft)
}

func TestRejectsBadNames(t *testing.T) {
	mm, _ := newTestMatchmaker(t, time.Hour)
	for _, name := range []string{"", "   ", "a-very-long-name-that-goes-on-and-on-forever"} {
		_, _, err := mm.JoinQueue(name, &recordingConn{})
		assert.ErrorIs(t, err, ErrInvalidUsername, "name %q", name)
	}
}
