package kafka

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"connect-four-engine/internal/database"
)

// MetricsStore persists flushed search metrics windows.
type MetricsStore interface {
	SaveSearchMetrics(ctx context.Context, metrics []database.SearchMetrics) error
}

type strategyKey struct {
	strategy string
	depth    int
}

// strategyTally accumulates one strategy/depth pair.
type strategyTally struct {
	searches    int64
	concessions int64
	leaves      int64
	nodes       int64
	elapsedMs   float64
	won         int64
	lost        int64
	drawn       int64
}

func (t *strategyTally) metrics(key strategyKey, start, end time.Time) database.SearchMetrics {
	m := database.SearchMetrics{
		Strategy:    key.strategy,
		Depth:       key.depth,
		Searches:    t.searches,
		Concessions: t.concessions,
		TotalLeaves: t.leaves,
		TotalNodes:  t.nodes,
		GamesWon:    t.won,
		GamesLost:   t.lost,
		GamesDrawn:  t.drawn,
		WindowStart: start,
		WindowEnd:   end,
	}
	if t.searches > 0 {
		m.AvgElapsedMs = t.elapsedMs / float64(t.searches)
	}
	return m
}

// GameMetrics counts game activity since the aggregator started.
type GameMetrics struct {
	TotalGames          int64   `json:"total_games"`
	BotGames            int64   `json:"bot_games"`
	PvPGames            int64   `json:"pvp_games"`
	CompletedGames      int64   `json:"completed_games"`
	Draws               int64   `json:"draws"`
	Concessions         int64   `json:"concessions"`
	TotalMoves          int64   `json:"total_moves"`
	AverageGameDuration float64 `json:"average_game_duration"`
	totalDuration       int64
}

// MetricsAggregator folds events into per-strategy tallies. Each flush
// writes the current window to the store and starts a new one; lifetime
// totals are kept for the metrics API.
type MetricsAggregator struct {
	store MetricsStore
	now   func() time.Time

	mu          sync.RWMutex
	window      map[strategyKey]*strategyTally
	windowStart time.Time
	totals      map[strategyKey]*strategyTally
	games       GameMetrics
	started     time.Time
}

func NewMetricsAggregator(store MetricsStore) *MetricsAggregator {
	now := time.Now()
	return &MetricsAggregator{
		store:       store,
		now:         time.Now,
		window:      make(map[strategyKey]*strategyTally),
		windowStart: now,
		totals:      make(map[strategyKey]*strategyTally),
		started:     now,
	}
}

func (ma *MetricsAggregator) tallies(key strategyKey) (*strategyTally, *strategyTally) {
	w, ok := ma.window[key]
	if !ok {
		w = &strategyTally{}
		ma.window[key] = w
	}
	t, ok := ma.totals[key]
	if !ok {
		t = &strategyTally{}
		ma.totals[key] = t
	}
	return w, t
}

func (ma *MetricsAggregator) RecordGameStart(event GameStartedEvent) {
	ma.mu.Lock()
	defer ma.mu.Unlock()

	ma.games.TotalGames++
	if event.GameMode == "bot" {
		ma.games.BotGames++
	} else {
		ma.games.PvPGames++
	}
}

func (ma *MetricsAggregator) RecordMove(MovePlayedEvent) {
	ma.mu.Lock()
	ma.games.TotalMoves++
	ma.mu.Unlock()
}

func (ma *MetricsAggregator) RecordSearch(s SearchInfo) {
	ma.mu.Lock()
	defer ma.mu.Unlock()

	for _, t := range pair(ma.tallies(strategyKey{s.Strategy, s.Depth})) {
		t.searches++
		t.leaves += int64(s.Leaves)
		t.nodes += int64(s.Nodes)
		t.elapsedMs += s.ElapsedMs
		if s.Conceded {
			t.concessions++
		}
	}
}

func (ma *MetricsAggregator) RecordGameEnd(event GameEndedEvent) {
	ma.mu.Lock()
	defer ma.mu.Unlock()

	ma.games.CompletedGames++
	ma.games.totalDuration += event.Duration
	ma.games.AverageGameDuration = float64(ma.games.totalDuration) / float64(ma.games.CompletedGames)
	if event.IsDraw {
		ma.games.Draws++
	}
	if event.EndReason == "concession" {
		ma.games.Concessions++
	}

	if event.Bot == nil {
		return
	}
	for _, t := range pair(ma.tallies(strategyKey{event.Bot.Strategy, event.Bot.Depth})) {
		switch event.Bot.Outcome {
		case "won":
			t.won++
		case "lost":
			t.lost++
		case "drawn":
			t.drawn++
		}
	}
}

func pair(a, b *strategyTally) [2]*strategyTally { return [2]*strategyTally{a, b} }

// Snapshot returns lifetime totals ordered by strategy then depth.
func (ma *MetricsAggregator) Snapshot() []database.SearchMetrics {
	ma.mu.RLock()
	defer ma.mu.RUnlock()
	return collect(ma.totals, ma.started, ma.now())
}

func (ma *MetricsAggregator) GetGameMetrics() GameMetrics {
	ma.mu.RLock()
	defer ma.mu.RUnlock()
	return ma.games
}

// Flush persists the current window and opens a new one. The window is
// kept when the store fails so the next flush retries it.
func (ma *MetricsAggregator) Flush(ctx context.Context) error {
	ma.mu.Lock()
	defer ma.mu.Unlock()

	if len(ma.window) == 0 {
		ma.windowStart = ma.now()
		return nil
	}

	end := ma.now()
	metrics := collect(ma.window, ma.windowStart, end)
	if ma.store != nil {
		if err := ma.store.SaveSearchMetrics(ctx, metrics); err != nil {
			return fmt.Errorf("failed to persist search metrics: %w", err)
		}
	}

	log.Info().Int("rows", len(metrics)).Time("window_start", ma.windowStart).Msg("Flushed search metrics")
	ma.window = make(map[strategyKey]*strategyTally)
	ma.windowStart = end
	return nil
}

func collect(tallies map[strategyKey]*strategyTally, start, end time.Time) []database.SearchMetrics {
	out := make([]database.SearchMetrics, 0, len(tallies))
	for key, t := range tallies {
		out = append(out, t.metrics(key, start, end))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strategy != out[j].Strategy {
			return out[i].Strategy < out[j].Strategy
		}
		return out[i].Depth < out[j].Depth
	})
	return out
}
