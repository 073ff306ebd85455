package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"connect-four-engine/internal/config"
	"connect-four-engine/internal/database"
	"connect-four-engine/internal/game"
	"connect-four-engine/internal/handlers"
	"connect-four-engine/internal/kafka"
	"connect-four-engine/internal/logging"
	"connect-four-engine/internal/matchmaking"
	"connect-four-engine/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Setup(cfg.LogLevel, false)

	// The server still plays without a database; results are then only
	// announced on the analytics topic.
	var (
		resultStore handlers.ResultStore
		leaderboard *handlers.LeaderboardHandler
	)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("Database unavailable, results will not be stored")
	} else {
		defer db.Close()
		resultStore = db
		leaderboard = handlers.NewLeaderboardHandler(db)
	}

	var sender kafka.MessageSender
	if cfg.AnalyticsEnabled {
		producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers, cfg.KafkaTopic))
		defer producer.Close()
		sender = producer
	}
	hostname, _ := os.Hostname()
	analyticsService := kafka.NewAnalyticsService(sender, cfg.AnalyticsEnabled, kafka.Metadata{
		ServerID:    hostname,
		Version:     "1.0.0",
		Environment: os.Getenv("ENVIRONMENT"),
	})

	recorder := handlers.NewResultRecorder(resultStore, analyticsService)
	gameManager := game.NewManager(
		game.WithBoardFactory(cfg.NewBoard),
		game.WithFinishHook(recorder.Record),
	)
	defer gameManager.Stop()

	bot := game.NewBot(cfg.BotStrategy, cfg.BotDepth)
	matchmaker := matchmaking.NewMatchmaker(gameManager, bot, cfg.MatchmakingTimeout)

	srv := server.NewServer(cfg, server.Handlers{
		Game:        handlers.NewGameHandler(cfg, gameManager, matchmaker, analyticsService),
		Search:      handlers.NewSearchHandler(cfg, analyticsService),
		Leaderboard: leaderboard,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go matchmaker.Start(ctx)

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("strategy", cfg.BotStrategy.String()).
			Int("depth", cfg.BotDepth).
			Int("rows", cfg.BoardRows).
			Int("cols", cfg.BoardCols).
			Bool("analytics", analyticsService.IsEnabled()).
			Msg("Server starting")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
