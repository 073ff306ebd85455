package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/models"
	"connect-four-engine/internal/search"
)

// Bot plays for whichever side is to move using a search engine.
type Bot struct {
	engine *search.Engine
	depth  int
}

func NewBot(kind search.Kind, depth int, opts ...search.Option) *Bot {
	return &Bot{
		engine: search.New(kind, opts...),
		depth:  depth,
	}
}

func (b *Bot) Strategy() search.Kind { return b.engine.Kind() }
func (b *Bot) Depth() int            { return b.depth }

func (b *Bot) Name() string {
	return fmt.Sprintf("ConnectBot (%s, depth %d)", b.Strategy(), b.depth)
}

// NewPlayer returns a fresh seat for this bot.
func (b *Bot) NewPlayer() *models.Player {
	return &models.Player{
		ID:        uuid.New(),
		Name:      b.Name(),
		IsBot:     true,
		Strategy:  b.Strategy().String(),
		Depth:     b.depth,
		Connected: true,
		LastSeen:  time.Now(),
	}
}

// Decide searches for the side to move. The game's board is not touched.
func (b *Bot) Decide(g *models.Game) search.Decision {
	return b.DecidePosition(g.CurrentTurn, g.Board)
}

// DecidePosition searches a position outside any game.
func (b *Bot) DecidePosition(subject board.Cell, g *board.Grid) search.Decision {
	return b.engine.Decide(subject, g.Copy(), b.depth)
}

// Summary renders a decision for clients and analytics.
func (b *Bot) Summary(d search.Decision) *models.SearchSummary {
	return &models.SearchSummary{
		Strategy:  b.Strategy().String(),
		Depth:     b.depth,
		Value:     d.Value,
		Leaves:    d.Leaves,
		Nodes:     d.Nodes,
		ElapsedMs: float64(d.Elapsed.Microseconds()) / 1000,
	}
}
