package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"connect-four-engine/internal/models"
)

type PlayerStats struct {
	PlayerName          string  `json:"player_name"`
	TotalGames          int     `json:"total_games"`
	Wins                int     `json:"wins"`
	Losses              int     `json:"losses"`
	Draws               int     `json:"draws"`
	WinRate             float64 `json:"win_rate"`
	AverageGameDuration float64 `json:"average_game_duration"`
}

// StrategyRecord is the bot's record with one strategy and depth.
type StrategyRecord struct {
	Strategy     string  `json:"strategy"`
	Depth        int     `json:"depth"`
	Games        int     `json:"games"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Draws        int     `json:"draws"`
	WinRate      float64 `json:"win_rate"`
	AverageMoves float64 `json:"average_moves"`
}

// SearchMetrics is one aggregation window of search activity for a
// strategy and depth.
type SearchMetrics struct {
	Strategy     string    `json:"strategy"`
	Depth        int       `json:"depth"`
	Searches     int64     `json:"searches"`
	Concessions  int64     `json:"concessions"`
	TotalLeaves  int64     `json:"total_leaves"`
	TotalNodes   int64     `json:"total_nodes"`
	AvgElapsedMs float64   `json:"avg_elapsed_ms"`
	GamesWon     int64     `json:"games_won"`
	GamesLost    int64     `json:"games_lost"`
	GamesDrawn   int64     `json:"games_drawn"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
}

func (p *PostgresDB) SaveCompletedGame(ctx context.Context, game *models.Game) error {
	if game == nil || !game.IsFinished() || game.FinishedAt == nil {
		return ErrGameNotFinished
	}

	res := game.Result()
	var winnerName *string
	if w := game.PlayerFor(game.Winner); w != nil && !res.IsDraw {
		winnerName = &w.Name
	}

	var botStrategy, botOutcome *string
	var botDepth *int
	if res.BotStrategy != "" {
		botStrategy, botOutcome, botDepth = &res.BotStrategy, &res.BotOutcome, &res.BotDepth
	}

	query := `
		INSERT INTO games (
			id, player1_id, player1_name, player1_is_bot,
			player2_id, player2_name, player2_is_bot,
			winner_id, winner_name, is_draw, conceded,
			bot_strategy, bot_depth, bot_outcome,
			board_rows, board_cols, total_moves, duration_seconds,
			created_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO NOTHING
	`

	p1, p2 := game.Players[0], game.Players[1]
	_, err := p.db.ExecContext(ctx, query,
		game.ID,
		p1.ID, p1.Name, p1.IsBot,
		p2.ID, p2.Name, p2.IsBot,
		res.WinnerID, winnerName, res.IsDraw, res.Conceded,
		botStrategy, botDepth, botOutcome,
		game.Board.Rows(), game.Board.Cols(), res.TotalMoves, res.Duration,
		game.CreatedAt, *game.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", game.ID, err)
	}
	return nil
}

// GetStrategyLeaderboard ranks every strategy and depth the bot has played
// by win rate.
func (p *PostgresDB) GetStrategyLeaderboard(ctx context.Context) ([]StrategyRecord, error) {
	query := `
		SELECT
			bot_strategy,
			bot_depth,
			COUNT(*) AS games,
			SUM(CASE WHEN bot_outcome = 'won' THEN 1 ELSE 0 END) AS wins,
			SUM(CASE WHEN bot_outcome = 'lost' THEN 1 ELSE 0 END) AS losses,
			SUM(CASE WHEN bot_outcome = 'drawn' THEN 1 ELSE 0 END) AS draws,
			ROUND(AVG(total_moves)::numeric, 2) AS average_moves
		FROM games
		WHERE bot_strategy IS NOT NULL
		GROUP BY bot_strategy, bot_depth
		ORDER BY
			SUM(CASE WHEN bot_outcome = 'won' THEN 1 ELSE 0 END)::float / COUNT(*) DESC,
			games DESC
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategy leaderboard: %w", err)
	}
	defer rows.Close()

	var records []StrategyRecord
	for rows.Next() {
		var r StrategyRecord
		if err := rows.Scan(&r.Strategy, &r.Depth, &r.Games, &r.Wins, &r.Losses, &r.Draws, &r.AverageMoves); err != nil {
			return nil, fmt.Errorf("failed to scan strategy record: %w", err)
		}
		if r.Games > 0 {
			r.WinRate = float64(r.Wins) / float64(r.Games) * 100
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategy rows: %w", err)
	}

	return records, nil
}

func (p *PostgresDB) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	query := `
		WITH player_games AS (
			SELECT winner_name, is_draw, duration_seconds
			FROM games
			WHERE player1_name = $1 OR player2_name = $1
		)
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN winner_name = $1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner_name IS DISTINCT FROM $1 AND NOT is_draw THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_draw THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_seconds), 0)
		FROM player_games
	`

	stats := PlayerStats{PlayerName: playerName}
	err := p.db.QueryRowContext(ctx, query, playerName).Scan(
		&stats.TotalGames,
		&stats.Wins,
		&stats.Losses,
		&stats.Draws,
		&stats.AverageGameDuration,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}
	if stats.TotalGames == 0 {
		return nil, ErrPlayerNotFound
	}
	stats.WinRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
	return &stats, nil
}

// SaveSearchMetrics writes one row per strategy and depth in a single
// transaction.
func (p *PostgresDB) SaveSearchMetrics(ctx context.Context, metrics []SearchMetrics) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_metrics (
			strategy, depth, searches, concessions, total_leaves, total_nodes,
			avg_elapsed_ms, games_won, games_lost, games_drawn, window_start, window_end
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare metrics insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx,
			m.Strategy, m.Depth, m.Searches, m.Concessions, m.TotalLeaves, m.TotalNodes,
			m.AvgElapsedMs, m.GamesWon, m.GamesLost, m.GamesDrawn, m.WindowStart, m.WindowEnd,
		); err != nil {
			return fmt.Errorf("failed to insert metrics for %s depth %d: %w", m.Strategy, m.Depth, err)
		}
	}

	return tx.Commit()
}
