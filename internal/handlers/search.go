package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/config"
	"connect-four-engine/internal/game"
	"connect-four-engine/internal/kafka"
	"connect-four-engine/internal/search"
)

// maxBoardSide bounds boards accepted for analysis.
const maxBoardSide = 12

type SearchRequest struct {
	Board    *board.Grid `json:"board"`
	Player   int         `json:"player"`
	Strategy string      `json:"strategy,omitempty"`
	Depth    *int        `json:"depth,omitempty"`
}

type SearchResponse struct {
	Column    int     `json:"column"`
	Conceded  bool    `json:"conceded"`
	Value     float64 `json:"value"`
	Leaves    int     `json:"leaves"`
	Nodes     int     `json:"nodes"`
	ElapsedMs float64 `json:"elapsed_ms"`
	Strategy  string  `json:"strategy"`
	Depth     int     `json:"depth"`
}

type StrategiesResponse struct {
	Strategies      []string `json:"strategies"`
	MaxDepth        int      `json:"max_depth"`
	DefaultStrategy string   `json:"default_strategy"`
	DefaultDepth    int      `json:"default_depth"`
}

// SearchHandler answers stateless analysis requests: given a position and
// the side to move, which column would a strategy play.
type SearchHandler struct {
	cfg              *config.Config
	analyticsService *kafka.AnalyticsService
}

func NewSearchHandler(cfg *config.Config, analyticsService *kafka.AnalyticsService) *SearchHandler {
	return &SearchHandler{cfg: cfg, analyticsService: analyticsService}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	bot, err := h.bot(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	subject := board.Cell(req.Player)

	decision := bot.DecidePosition(subject, req.Board)
	summary := bot.Summary(decision)
	logEmit("search_completed", h.analyticsService.EmitSearchCompleted("", "api", summary, decision.Column))

	writeJSON(w, http.StatusOK, SearchResponse{
		Column:    decision.Column,
		Conceded:  decision.Conceded(),
		Value:     decision.Value,
		Leaves:    decision.Leaves,
		Nodes:     decision.Nodes,
		ElapsedMs: summary.ElapsedMs,
		Strategy:  summary.Strategy,
		Depth:     summary.Depth,
	})
}

func (h *SearchHandler) bot(req SearchRequest) (*game.Bot, error) {
	if req.Board == nil {
		return nil, fmt.Errorf("board is required")
	}
	if req.Board.Rows() > maxBoardSide || req.Board.Cols() > maxBoardSide {
		return nil, fmt.Errorf("%w: larger than %dx%d", board.ErrInvalidDimensions, maxBoardSide, maxBoardSide)
	}
	if !board.Cell(req.Player).Valid() {
		return nil, fmt.Errorf("%w: player must be 1 or 2", board.ErrInvalidPlayer)
	}

	kind := h.cfg.BotStrategy
	if req.Strategy != "" {
		parsed, err := search.ParseKind(req.Strategy)
		if err != nil {
			return nil, err
		}
		kind = parsed
	}

	depth := h.cfg.BotDepth
	if req.Depth != nil {
		depth = *req.Depth
	}
	if depth < 0 || depth > config.MaxBotDepth {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", config.ErrInvalidDepth, depth, config.MaxBotDepth)
	}
	return game.NewBot(kind, depth), nil
}

func (h *SearchHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	names := make([]string, len(search.Kinds))
	for i, k := range search.Kinds {
		names[i] = k.String()
	}
	writeJSON(w, http.StatusOK, StrategiesResponse{
		Strategies:      names,
		MaxDepth:        config.MaxBotDepth,
		DefaultStrategy: h.cfg.BotStrategy.String(),
		DefaultDepth:    h.cfg.BotDepth,
	})
}
