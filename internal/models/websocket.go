package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	// Client messages
	MsgNewGame      MessageType = "new_game"
	MsgJoinQueue    MessageType = "join_queue"
	MsgLeaveQueue   MessageType = "leave_queue"
	MsgMakeMove     MessageType = "make_move"
	MsgConcede      MessageType = "concede"
	MsgGetGameState MessageType = "get_game_state"
	MsgHeartbeat    MessageType = "heartbeat"

	// Server messages
	MsgQueued       MessageType = "queued"
	MsgGameFound    MessageType = "game_found"
	MsgGameState    MessageType = "game_state"
	MsgMoveResult   MessageType = "move_result"
	MsgBotMove      MessageType = "bot_move"
	MsgGameEnd      MessageType = "game_end"
	MsgError        MessageType = "error"
	MsgHeartbeatAck MessageType = "heartbeat_ack"
)

type WSMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	MessageID string      `json:"message_id"`
}

// NewGamePayload starts a game against a bot right away. Empty fields fall
// back to the server's bot settings.
type NewGamePayload struct {
	PlayerName string `json:"player_name"`
	Strategy   string `json:"strategy,omitempty"`
	Depth      *int   `json:"depth,omitempty"`
	BotFirst   bool   `json:"bot_first,omitempty"`
}

type JoinQueuePayload struct {
	PlayerName string `json:"player_name"`
}

type MakeMovePayload struct {
	GameID uuid.UUID `json:"game_id"`
	Column int       `json:"column"`
}

type GameRefPayload struct {
	GameID uuid.UUID `json:"game_id"`
}

type QueuedPayload struct {
	PlayerID       uuid.UUID `json:"player_id"`
	Position       int       `json:"position"`
	TimeoutSeconds int       `json:"timeout_seconds"`
}

type GameFoundPayload struct {
	Game     *Game     `json:"game"`
	PlayerID uuid.UUID `json:"player_id"`
}

type MoveResultPayload struct {
	Success    bool   `json:"success"`
	Move       *Move  `json:"move,omitempty"`
	GameState  *Game  `json:"game_state"`
	Error      string `json:"error,omitempty"`
	IsGameOver bool   `json:"is_game_over"`
}

// SearchSummary reports how the bot reached its move.
type SearchSummary struct {
	Strategy  string  `json:"strategy"`
	Depth     int     `json:"depth"`
	Value     float64 `json:"value"`
	Leaves    int     `json:"leaves"`
	Nodes     int     `json:"nodes"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

type BotMovePayload struct {
	GameID    uuid.UUID      `json:"game_id"`
	Move      *Move          `json:"move,omitempty"`
	Conceded  bool           `json:"conceded"`
	Search    *SearchSummary `json:"search"`
	GameState *Game          `json:"game_state"`
}

type GameEndPayload struct {
	GameID    uuid.UUID `json:"game_id"`
	Winner    *Player   `json:"winner,omitempty"`
	Reason    string    `json:"reason"`
	GameState *Game     `json:"game_state"`
	Duration  int       `json:"duration"`
	IsDraw    bool      `json:"is_draw"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewWSMessage(msgType MessageType, payload interface{}) WSMessage {
	return WSMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
		MessageID: uuid.New().String(),
	}
}

// EndReason describes how a finished game ended.
func EndReason(g *Game) string {
	switch {
	case g.ConcededBy != 0:
		return "concession"
	case g.IsDraw():
		return "draw"
	default:
		return "connect_four"
	}
}

func NewGameEndPayload(g *Game) GameEndPayload {
	p := GameEndPayload{
		GameID:    g.ID,
		Reason:    EndReason(g),
		GameState: g,
		Duration:  int(g.Duration().Seconds()),
		IsDraw:    g.IsDraw(),
	}
	if !p.IsDraw {
		p.Winner = g.PlayerFor(g.Winner)
	}
	return p
}
