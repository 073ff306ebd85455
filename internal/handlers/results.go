package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"connect-four-engine/internal/kafka"
	"connect-four-engine/internal/models"
)

type ResultStore interface {
	SaveCompletedGame(ctx context.Context, game *models.Game) error
}

// ResultRecorder stores and announces finished games. Its Record method is
// meant as the game manager's finish hook.
type ResultRecorder struct {
	store            ResultStore
	analyticsService *kafka.AnalyticsService
	timeout          time.Duration
}

// NewResultRecorder accepts a nil store when the server runs without a
// database.
func NewResultRecorder(store ResultStore, analyticsService *kafka.AnalyticsService) *ResultRecorder {
	return &ResultRecorder{
		store:            store,
		analyticsService: analyticsService,
		timeout:          5 * time.Second,
	}
}

func (r *ResultRecorder) Record(g *models.Game) {
	logger := log.With().Str("game_id", g.ID.String()).Logger()

	if r.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.store.SaveCompletedGame(ctx, g)
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("failed to save completed game")
		}
	}

	logEmit("game_ended", r.analyticsService.EmitGameEnded(g))
	logger.Info().
		Str("reason", models.EndReason(g)).
		Int("moves", g.MoveCount).
		Msg("game finished")
}
