package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"connect-four-engine/internal/models"
)

// MessageSender is the part of Producer the analytics service needs.
type MessageSender interface {
	SendMessage(key string, value []byte) error
}

// AnalyticsService turns game activity into events on the topic. A
// disabled service drops everything.
type AnalyticsService struct {
	sender   MessageSender
	enabled  bool
	metadata Metadata
}

func NewAnalyticsService(sender MessageSender, enabled bool, metadata Metadata) *AnalyticsService {
	return &AnalyticsService{
		sender:   sender,
		enabled:  enabled && sender != nil,
		metadata: metadata,
	}
}

func (a *AnalyticsService) IsEnabled() bool {
	return a.enabled
}

func (a *AnalyticsService) base(eventType EventType, gameID string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
		GameID:    gameID,
		Metadata:  a.metadata,
	}
}

func (a *AnalyticsService) EmitGameStarted(game *models.Game) error {
	if !a.enabled {
		return nil
	}

	mode := "pvp"
	if game.Bot() != nil {
		mode = "bot"
	}
	event := GameStartedEvent{
		BaseEvent:   a.base(EventGameStarted, game.ID.String()),
		Players:     convertPlayersToInfo(game.Players[:]),
		GameMode:    mode,
		BoardSize:   fmt.Sprintf("%dx%d", game.Board.Rows(), game.Board.Cols()),
		StartPlayer: int(game.CurrentTurn),
	}
	return a.sendEvent(EventGameStarted, game.ID.String(), event)
}

// EmitMovePlayed reports a placement. search is nil for human moves.
func (a *AnalyticsService) EmitMovePlayed(game *models.Game, move *models.Move, search *models.SearchSummary) error {
	if !a.enabled {
		return nil
	}

	player := game.PlayerByID(move.PlayerID)
	if player == nil {
		return fmt.Errorf("player %s not in game %s", move.PlayerID, game.ID)
	}

	event := MovePlayedEvent{
		BaseEvent:  a.base(EventMovePlayed, game.ID.String()),
		Player:     convertPlayerToInfo(player),
		Column:     move.Column,
		Row:        move.Row,
		MoveNumber: game.MoveCount,
		BoardState: game.Board.Values(),
		ValidMoves: game.Board.ValidMoves(),
	}
	if search != nil {
		info := searchInfo(search, move.Column)
		event.Search = &info
	}
	return a.sendEvent(EventMovePlayed, game.ID.String(), event)
}

// EmitSearchCompleted reports one engine decision. gameID is empty for
// analysis requests.
func (a *AnalyticsService) EmitSearchCompleted(gameID, source string, search *models.SearchSummary, column int) error {
	if !a.enabled {
		return nil
	}

	event := SearchCompletedEvent{
		BaseEvent: a.base(EventSearchCompleted, gameID),
		Source:    source,
		Search:    searchInfo(search, column),
	}
	return a.sendEvent(EventSearchCompleted, gameID, event)
}

func (a *AnalyticsService) EmitGameEnded(game *models.Game) error {
	if !a.enabled {
		return nil
	}

	var winner *PlayerInfo
	if !game.IsDraw() {
		if p := game.PlayerFor(game.Winner); p != nil {
			info := convertPlayerToInfo(p)
			winner = &info
		}
	}

	res := game.Result()
	event := GameEndedEvent{
		BaseEvent:  a.base(EventGameEnded, game.ID.String()),
		Players:    convertPlayersToInfo(game.Players[:]),
		Winner:     winner,
		IsDraw:     res.IsDraw,
		TotalMoves: res.TotalMoves,
		Duration:   int64(res.Duration),
		EndReason:  models.EndReason(game),
		FinalBoard: game.Board.Values(),
	}
	if res.BotStrategy != "" {
		event.Bot = &BotOutcome{Strategy: res.BotStrategy, Depth: res.BotDepth, Outcome: res.BotOutcome}
	}
	return a.sendEvent(EventGameEnded, game.ID.String(), event)
}

func (a *AnalyticsService) sendEvent(eventType EventType, gameID string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// keyed by game so a game's events stay ordered on one partition
	key := fmt.Sprintf("%s:%s", eventType, gameID)
	if gameID != "" {
		key = gameID
	}
	return a.sender.SendMessage(key, eventJSON)
}
