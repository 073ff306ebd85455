package kafka

import (
	"time"

	"connect-four-engine/internal/models"
)

type EventType string

const (
	EventGameStarted     EventType = "game_started"
	EventMovePlayed      EventType = "move_played"
	EventSearchCompleted EventType = "search_completed"
	EventGameEnded       EventType = "game_ended"
)

// BaseEvent is embedded in every event on the topic.
type BaseEvent struct {
	EventType EventType `json:"event_type"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	GameID    string    `json:"game_id,omitempty"`
	Metadata  Metadata  `json:"metadata"`
}

type Metadata struct {
	ServerID    string `json:"server_id,omitempty"`
	Version     string `json:"version,omitempty"`
	Environment string `json:"environment,omitempty"`
}

type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Piece     int    `json:"piece"`
	IsBot     bool   `json:"is_bot"`
	Strategy  string `json:"strategy,omitempty"`
	Depth     int    `json:"depth,omitempty"`
	Connected bool   `json:"connected"`
}

// SearchInfo describes one engine decision.
type SearchInfo struct {
	Strategy  string  `json:"strategy"`
	Depth     int     `json:"depth"`
	Column    int     `json:"column"`
	Conceded  bool    `json:"conceded"`
	Value     float64 `json:"value"`
	Leaves    int     `json:"leaves"`
	Nodes     int     `json:"nodes"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

type GameStartedEvent struct {
	BaseEvent
	Players     []PlayerInfo `json:"players"`
	GameMode    string       `json:"game_mode"` // pvp or bot
	BoardSize   string       `json:"board_size"`
	StartPlayer int          `json:"start_player"`
}

type MovePlayedEvent struct {
	BaseEvent
	Player     PlayerInfo  `json:"player"`
	Column     int         `json:"column"`
	Row        int         `json:"row"`
	MoveNumber int         `json:"move_number"`
	BoardState [][]int     `json:"board_state"`
	ValidMoves []int       `json:"valid_moves"`
	Search     *SearchInfo `json:"search,omitempty"`
}

// SearchCompletedEvent is emitted for every engine decision, including
// stateless analysis requests which carry no game ID.
type SearchCompletedEvent struct {
	BaseEvent
	Source string     `json:"source"` // bot or api
	Search SearchInfo `json:"search"`
}

type GameEndedEvent struct {
	BaseEvent
	Players    []PlayerInfo `json:"players"`
	Winner     *PlayerInfo  `json:"winner,omitempty"`
	IsDraw     bool         `json:"is_draw"`
	TotalMoves int          `json:"total_moves"`
	Duration   int64        `json:"duration_seconds"`
	EndReason  string       `json:"end_reason"`
	FinalBoard [][]int      `json:"final_board"`
	Bot        *BotOutcome  `json:"bot,omitempty"`
}

// BotOutcome is the bot's side of a finished game.
type BotOutcome struct {
	Strategy string `json:"strategy"`
	Depth    int    `json:"depth"`
	Outcome  string `json:"outcome"` // won, lost or drawn
}

func convertPlayerToInfo(player *models.Player) PlayerInfo {
	return PlayerInfo{
		ID:        player.ID.String(),
		Name:      player.Name,
		Piece:     int(player.Piece),
		IsBot:     player.IsBot,
		Strategy:  player.Strategy,
		Depth:     player.Depth,
		Connected: player.Connected,
	}
}

func convertPlayersToInfo(players []*models.Player) []PlayerInfo {
	result := make([]PlayerInfo, 0, len(players))
	for _, player := range players {
		if player != nil {
			result = append(result, convertPlayerToInfo(player))
		}
	}
	return result
}

func searchInfo(s *models.SearchSummary, column int) SearchInfo {
	return SearchInfo{
		Strategy:  s.Strategy,
		Depth:     s.Depth,
		Column:    column,
		Conceded:  column < 0,
		Value:     s.Value,
		Leaves:    s.Leaves,
		Nodes:     s.Nodes,
		ElapsedMs: s.ElapsedMs,
	}
}
