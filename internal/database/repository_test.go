package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/models"
)

func newMock(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func finishedBotGame(t *testing.T) *models.Game {
	t.Helper()
	human := &models.Player{ID: uuid.New(), Name: "ada"}
	bot := &models.Player{ID: uuid.New(), Name: "bot", IsBot: true, Strategy: "expectimax", Depth: 3}
	g := models.NewGame(board.NewStandard(), human, bot)
	for _, col := range []int{0, 1, 0, 1, 0, 1, 0} {
		_, err := g.Drop(g.CurrentTurn, col)
		require.NoError(t, err)
	}
	require.True(t, g.IsFinished())
	return g
}

func TestCreateTables(t *testing.T) {
	pg, mock := newMock(t)
	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, pg.createTables(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCompletedGame(t *testing.T) {
	pg, mock := newMock(t)
	g := finishedBotGame(t)
	human, bot := g.Players[0], g.Players[1]

	mock.ExpectExec("INSERT INTO games").
		WithArgs(
			g.ID,
			human.ID, "ada", false,
			bot.ID, "bot", true,
			human.ID, "ada", false, false,
			"expectimax", 3, "lost",
			6, 7, 7, sqlmock.AnyArg(),
			g.CreatedAt, *g.FinishedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, pg.SaveCompletedGame(context.Background(), g))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCompletedGameRejectsActiveGame(t *testing.T) {
	pg, _ := newMock(t)
	g := models.NewGame(board.NewStandard(), &models.Player{ID: uuid.New()}, &models.Player{ID: uuid.New()})
	assert.ErrorIs(t, pg.SaveCompletedGame(context.Background(), g), ErrGameNotFinished)
	assert.ErrorIs(t, pg.SaveCompletedGame(context.Background(), nil), ErrGameNotFinished)
}

func TestGetStrategyLeaderboard(t *testing.T) {
	pg, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"bot_strategy", "bot_depth", "games", "wins", "losses", "draws", "average_moves"}).
		AddRow("alphabeta", 5, 10, 8, 1, 1, 21.5).
		AddRow("expectimax", 3, 4, 1, 3, 0, 14.0)
	mock.ExpectQuery("FROM games").WillReturnRows(rows)

	records, err := pg.GetStrategyLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, StrategyRecord{Strategy: "alphabeta", Depth: 5, Games: 10, Wins: 8, Losses: 1, Draws: 1, WinRate: 80, AverageMoves: 21.5}, records[0])
	assert.Equal(t, 25.0, records[1].WinRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPlayerStats(t *testing.T) {
	pg, mock := newMock(t)
	mock.ExpectQuery("WITH player_games").WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"count", "wins", "losses", "draws", "avg"}).AddRow(4, 1, 2, 1, 33.0))

	stats, err := pg.GetPlayerStats(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, 25.0, stats.WinRate)
	assert.Equal(t, 2, stats.Losses)

	mock.ExpectQuery("WITH player_games").WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"count", "wins", "losses", "draws", "avg"}).AddRow(0, 0, 0, 0, 0.0))
	_, err = pg.GetPlayerStats(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestSaveSearchMetrics(t *testing.T) {
	pg, mock := newMock(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	metrics := []SearchMetrics{
		{Strategy: "minimax", Depth: 2, Searches: 3, TotalLeaves: 147, TotalNodes: 171, AvgElapsedMs: 0.4, WindowStart: start, WindowEnd: start.Add(time.Minute)},
		{Strategy: "alphabeta", Depth: 4, Searches: 1, Concessions: 1, GamesLost: 1, WindowStart: start, WindowEnd: start.Add(time.Minute)},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO search_metrics")
	prep.ExpectExec().WithArgs("minimax", 2, int64(3), int64(0), int64(147), int64(171), 0.4, int64(0), int64(0), int64(0), start, start.Add(time.Minute)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("alphabeta", 4, int64(1), int64(1), int64(0), int64(0), 0.0, int64(0), int64(1), int64(0), start, start.Add(time.Minute)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, pg.SaveSearchMetrics(context.Background(), metrics))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, pg.SaveSearchMetrics(context.Background(), nil))
}

func TestHealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, NewWithDB(db).HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
