package models

import (
	"time"

	"github.com/google/uuid"

	"connect-four-engine/internal/board"
)

type GameState int

const (
	GameStateWaiting GameState = iota
	GameStatePlaying
	GameStateFinished
)

func (s GameState) String() string {
	switch s {
	case GameStateWaiting:
		return "waiting"
	case GameStatePlaying:
		return "playing"
	case GameStateFinished:
		return "finished"
	}
	return "unknown"
}

type Player struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Piece     board.Cell `json:"piece"` // 1 moves first, 2 second
	IsBot     bool       `json:"is_bot"`
	Strategy  string     `json:"strategy,omitempty"`
	Depth     int        `json:"depth,omitempty"`
	Connected bool       `json:"connected"`
	LastSeen  time.Time  `json:"last_seen"`
}

type Game struct {
	ID          uuid.UUID   `json:"id"`
	State       GameState   `json:"state"`
	Board       *board.Grid `json:"board"`
	Players     [2]*Player  `json:"players"`
	CurrentTurn board.Cell  `json:"current_turn"`
	Winner      board.Cell  `json:"winner"`
	ConcededBy  board.Cell  `json:"conceded_by,omitempty"`
	MoveCount   int         `json:"move_count"`
	CreatedAt   time.Time   `json:"created_at"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
	LastMove    *Move       `json:"last_move,omitempty"`
}

type Move struct {
	PlayerID  uuid.UUID  `json:"player_id"`
	Column    int        `json:"column"`
	Row       int        `json:"row"`
	Piece     board.Cell `json:"piece"`
	Timestamp time.Time  `json:"timestamp"`
}

// GameResult is the persisted summary of a finished game.
type GameResult struct {
	GameID      uuid.UUID  `json:"game_id"`
	WinnerID    *uuid.UUID `json:"winner_id,omitempty"`
	LoserID     *uuid.UUID `json:"loser_id,omitempty"`
	IsDraw      bool       `json:"is_draw"`
	Conceded    bool       `json:"conceded"`
	Duration    int        `json:"duration_seconds"`
	TotalMoves  int        `json:"total_moves"`
	BotStrategy string     `json:"bot_strategy,omitempty"`
	BotDepth    int        `json:"bot_depth,omitempty"`
	BotOutcome  string     `json:"bot_outcome,omitempty"` // won, lost or drawn
	CreatedAt   time.Time  `json:"created_at"`
}

// NewGame seats p1 as Player1 and p2 as Player2 on an empty board.
func NewGame(b *board.Grid, p1, p2 *Player) *Game {
	p1.Piece = board.Player1
	p2.Piece = board.Player2
	return &Game{
		ID:          uuid.New(),
		State:       GameStatePlaying,
		Board:       b,
		Players:     [2]*Player{p1, p2},
		CurrentTurn: board.Player1,
		CreatedAt:   time.Now(),
	}
}

func (g *Game) PlayerByID(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) PlayerFor(piece board.Cell) *Player {
	for _, p := range g.Players {
		if p != nil && p.Piece == piece {
			return p
		}
	}
	return nil
}

// Bot returns the seated bot, if any.
func (g *Game) Bot() *Player {
	for _, p := range g.Players {
		if p != nil && p.IsBot {
			return p
		}
	}
	return nil
}

func (g *Game) IsFinished() bool { return g.State == GameStateFinished }

func (g *Game) IsDraw() bool {
	return g.IsFinished() && g.Winner == board.Empty
}

// Drop places piece in column and advances the game: it records a win or a
// draw, or hands the turn to the other player.
func (g *Game) Drop(piece board.Cell, column int) (*Move, error) {
	row, err := g.Board.Place(piece, column)
	if err != nil {
		return nil, err
	}

	move := &Move{
		Column:    column,
		Row:       row,
		Piece:     piece,
		Timestamp: time.Now(),
	}
	if p := g.PlayerFor(piece); p != nil {
		move.PlayerID = p.ID
	}
	g.LastMove = move
	g.MoveCount++

	switch {
	case g.Board.Winner() != board.Empty:
		g.finish(g.Board.Winner())
	case g.Board.HasDraw():
		g.finish(board.Empty)
	default:
		g.CurrentTurn = piece.Opponent()
	}
	return move, nil
}

// Concede ends the game with the other side winning.
func (g *Game) Concede(piece board.Cell) {
	g.ConcededBy = piece
	g.finish(piece.Opponent())
}

func (g *Game) finish(winner board.Cell) {
	now := time.Now()
	g.Winner = winner
	g.State = GameStateFinished
	g.FinishedAt = &now
}

func (g *Game) Duration() time.Duration {
	end := time.Now()
	if g.FinishedAt != nil {
		end = *g.FinishedAt
	}
	return end.Sub(g.CreatedAt)
}

// Snapshot deep-copies the game so it can be serialized while play goes on.
func (g *Game) Snapshot() *Game {
	cp := *g
	cp.Board = g.Board.Copy()
	for i, p := range g.Players {
		if p != nil {
			pc := *p
			cp.Players[i] = &pc
		}
	}
	if g.LastMove != nil {
		m := *g.LastMove
		cp.LastMove = &m
	}
	if g.FinishedAt != nil {
		t := *g.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}

// Result summarizes a finished game for storage.
func (g *Game) Result() *GameResult {
	res := &GameResult{
		GameID:     g.ID,
		IsDraw:     g.IsDraw(),
		Conceded:   g.ConcededBy != board.Empty,
		Duration:   int(g.Duration().Seconds()),
		TotalMoves: g.MoveCount,
		CreatedAt:  g.CreatedAt,
	}
	if winner := g.PlayerFor(g.Winner); winner != nil && g.Winner != board.Empty {
		loser := g.PlayerFor(g.Winner.Opponent())
		res.WinnerID = &winner.ID
		if loser != nil {
			res.LoserID = &loser.ID
		}
	}
	if bot := g.Bot(); bot != nil {
		res.BotStrategy = bot.Strategy
		res.BotDepth = bot.Depth
		switch {
		case res.IsDraw:
			res.BotOutcome = "drawn"
		case g.Winner == bot.Piece:
			res.BotOutcome = "won"
		default:
			res.BotOutcome = "lost"
		}
	}
	return res
}
