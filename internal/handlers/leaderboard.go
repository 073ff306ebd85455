package handlers

import (
	"context"
	"errors"
	"net/http"

	"connect-four-engine/internal/database"
)

type LeaderboardStore interface {
	GetStrategyLeaderboard(ctx context.Context) ([]database.StrategyRecord, error)
	GetPlayerStats(ctx context.Context, playerName string) (*database.PlayerStats, error)
}

type LeaderboardHandler struct {
	store LeaderboardStore
}

func NewLeaderboardHandler(store LeaderboardStore) *LeaderboardHandler {
	return &LeaderboardHandler{store: store}
}

// GetLeaderboard reports how each bot strategy and depth has fared.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.GetStrategyLeaderboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}
	if records == nil {
		records = []database.StrategyRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *LeaderboardHandler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerName := r.URL.Query().Get("name")
	if playerName == "" {
		writeError(w, http.StatusBadRequest, "Player name is required")
		return
	}

	stats, err := h.store.GetPlayerStats(r.Context(), playerName)
	switch {
	case errors.Is(err, database.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "Player not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to fetch player stats")
	default:
		writeJSON(w, http.StatusOK, stats)
	}
}
