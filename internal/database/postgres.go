package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var (
	ErrGameNotFinished = errors.New("game is not finished")
	ErrPlayerNotFound  = errors.New("player not found")
)

// PostgresDB stores finished games and search metrics snapshots.
type PostgresDB struct {
	db *sql.DB
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := NewWithDB(db)
	if err := pg.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return pg, nil
}

// NewWithDB wraps an open handle without touching the schema.
func NewWithDB(db *sql.DB) *PostgresDB {
	return &PostgresDB{db: db}
}

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id UUID PRIMARY KEY,
		player1_id UUID NOT NULL,
		player1_name VARCHAR(255) NOT NULL,
		player1_is_bot BOOLEAN NOT NULL DEFAULT FALSE,
		player2_id UUID NOT NULL,
		player2_name VARCHAR(255) NOT NULL,
		player2_is_bot BOOLEAN NOT NULL DEFAULT FALSE,
		winner_id UUID,
		winner_name VARCHAR(255),
		is_draw BOOLEAN NOT NULL DEFAULT FALSE,
		conceded BOOLEAN NOT NULL DEFAULT FALSE,
		bot_strategy VARCHAR(32),
		bot_depth INTEGER,
		bot_outcome VARCHAR(8),
		board_rows INTEGER NOT NULL,
		board_cols INTEGER NOT NULL,
		total_moves INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		finished_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_player1 ON games(player1_name)`,
	`CREATE INDEX IF NOT EXISTS idx_games_player2 ON games(player2_name)`,
	`CREATE INDEX IF NOT EXISTS idx_games_bot_strategy ON games(bot_strategy, bot_depth)`,
	`CREATE INDEX IF NOT EXISTS idx_games_created_at ON games(created_at)`,
	`CREATE TABLE IF NOT EXISTS search_metrics (
		id BIGSERIAL PRIMARY KEY,
		strategy VARCHAR(32) NOT NULL,
		depth INTEGER NOT NULL,
		searches BIGINT NOT NULL,
		concessions BIGINT NOT NULL,
		total_leaves BIGINT NOT NULL,
		total_nodes BIGINT NOT NULL,
		avg_elapsed_ms DOUBLE PRECISION NOT NULL,
		games_won BIGINT NOT NULL,
		games_lost BIGINT NOT NULL,
		games_drawn BIGINT NOT NULL,
		window_start TIMESTAMP WITH TIME ZONE NOT NULL,
		window_end TIMESTAMP WITH TIME ZONE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_metrics_strategy ON search_metrics(strategy, depth, window_end)`,
}

func (p *PostgresDB) createTables(ctx context.Context) error {
	for _, query := range schema {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
