package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"connect-four-engine/internal/config"
	"connect-four-engine/internal/game"
	"connect-four-engine/internal/kafka"
	"connect-four-engine/internal/matchmaking"
	"connect-four-engine/internal/models"
	"connect-four-engine/internal/search"
)

const maxPlayerName = 32

type GameHandler struct {
	cfg              *config.Config
	gameManager      *game.Manager
	matchmaker       *matchmaking.Matchmaker
	analyticsService *kafka.AnalyticsService
	upgrader         websocket.Upgrader
}

func NewGameHandler(cfg *config.Config, gameManager *game.Manager, matchmaker *matchmaking.Matchmaker, analyticsService *kafka.AnalyticsService) *GameHandler {
	h := &GameHandler{
		cfg:              cfg,
		gameManager:      gameManager,
		matchmaker:       matchmaker,
		analyticsService: analyticsService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	matchmaker.OnMatch(func(g *models.Game, _ bool) {
		logEmit("game_started", h.analyticsService.EmitGameStarted(g))
	})
	return h
}

// wsConn serializes writes: the read loop, broadcasts and delayed bot
// turns all write to the same socket.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// session is what one socket knows about its player.
type session struct {
	conn     *wsConn
	playerID uuid.UUID
}

func (h *GameHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	s := &session{conn: &wsConn{conn: raw}}
	defer s.conn.Close()

	log.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket connection established")

	for {
		var msg struct {
			Type    models.MessageType `json:"type"`
			Payload json.RawMessage    `json:"payload"`
		}
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket unexpected close")
			}
			break
		}

		switch msg.Type {
		case models.MsgNewGame:
			h.handleNewGame(s, msg.Payload)
		case models.MsgJoinQueue:
			h.handleJoinQueue(s, msg.Payload)
		case models.MsgLeaveQueue:
			h.handleLeaveQueue(s)
		case models.MsgMakeMove:
			h.handleMakeMove(s, msg.Payload)
		case models.MsgConcede:
			h.handleConcede(s, msg.Payload)
		case models.MsgGetGameState:
			h.handleGetGameState(s, msg.Payload)
		case models.MsgHeartbeat:
			h.handleHeartbeat(s)
		default:
			h.sendError(s.conn, "UNKNOWN_MESSAGE", "Unknown message type", string(msg.Type))
		}
	}

	if s.playerID != uuid.Nil {
		h.gameManager.RemovePlayerConnection(s.playerID)
		_ = h.matchmaker.LeaveQueue(s.playerID)
		log.Debug().Str("player_id", s.playerID.String()).Msg("player disconnected")
	}
}

func (h *GameHandler) handleNewGame(s *session, payload json.RawMessage) {
	var p models.NewGamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(s.conn, "INVALID_PAYLOAD", "Invalid new game payload", err.Error())
		return
	}
	name := strings.TrimSpace(p.PlayerName)
	if name == "" || len(name) > maxPlayerName {
		h.sendError(s.conn, "INVALID_USERNAME", "Player name must be 1 to 32 characters", "")
		return
	}

	kind := h.cfg.BotStrategy
	if p.Strategy != "" {
		parsed, err := search.ParseKind(p.Strategy)
		if err != nil {
			h.sendError(s.conn, "INVALID_STRATEGY", "Unknown search strategy", err.Error())
			return
		}
		kind = parsed
	}
	depth := h.cfg.BotDepth
	if p.Depth != nil {
		depth = *p.Depth
	}
	if depth < 0 || depth > config.MaxBotDepth {
		h.sendError(s.conn, "INVALID_DEPTH", "Search depth out of range", "")
		return
	}

	human := &models.Player{ID: uuid.New(), Name: name, Connected: true, LastSeen: time.Now()}
	bot := game.NewBot(kind, depth).NewPlayer()

	var g *models.Game
	if p.BotFirst {
		g = h.gameManager.CreateGame(bot, human)
	} else {
		g = h.gameManager.CreateGame(human, bot)
	}
	h.gameManager.AddPlayerConnection(human.ID, g.ID, s.conn)
	s.playerID = human.ID

	h.write(s.conn, models.NewWSMessage(models.MsgGameFound, models.GameFoundPayload{Game: g, PlayerID: human.ID}))
	logEmit("game_started", h.analyticsService.EmitGameStarted(g))

	if p.BotFirst {
		h.scheduleBotTurn(g.ID)
	}
}

func (h *GameHandler) handleJoinQueue(s *session, payload json.RawMessage) {
	var p models.JoinQueuePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(s.conn, "INVALID_PAYLOAD", "Invalid join queue payload", err.Error())
		return
	}

	player, position, err := h.matchmaker.JoinQueue(p.PlayerName, s.conn)
	if err != nil {
		h.sendError(s.conn, "INVALID_USERNAME", "Player name must be 1 to 32 characters", err.Error())
		return
	}
	s.playerID = player.ID

	h.write(s.conn, models.NewWSMessage(models.MsgQueued, models.QueuedPayload{
		PlayerID:       player.ID,
		Position:       position,
		TimeoutSeconds: int(h.cfg.MatchmakingTimeout.Seconds()),
	}))
}

func (h *GameHandler) handleLeaveQueue(s *session) {
	if s.playerID == uuid.Nil {
		return
	}
	if err := h.matchmaker.LeaveQueue(s.playerID); err != nil {
		h.sendError(s.conn, "NOT_IN_QUEUE", "Player is not waiting for a match", "")
	}
}

func (h *GameHandler) handleMakeMove(s *session, payload json.RawMessage) {
	var p models.MakeMovePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(s.conn, "INVALID_PAYLOAD", "Invalid move payload", err.Error())
		return
	}

	move, g, err := h.gameManager.MakeMove(p.GameID, s.playerID, p.Column)
	if err != nil {
		current, _ := h.gameManager.GetGame(p.GameID)
		h.write(s.conn, models.NewWSMessage(models.MsgMoveResult, models.MoveResultPayload{
			Success:    false,
			Error:      err.Error(),
			GameState:  current,
			IsGameOver: current != nil && current.IsFinished(),
		}))
		return
	}

	h.gameManager.BroadcastToGame(g.ID, models.NewWSMessage(models.MsgMoveResult, models.MoveResultPayload{
		Success:    true,
		Move:       move,
		GameState:  g,
		IsGameOver: g.IsFinished(),
	}))
	logEmit("move_played", h.analyticsService.EmitMovePlayed(g, move, nil))

	if g.IsFinished() {
		h.gameManager.BroadcastToGame(g.ID, models.NewWSMessage(models.MsgGameEnd, models.NewGameEndPayload(g)))
		return
	}
	if next := g.PlayerFor(g.CurrentTurn); next != nil && next.IsBot {
		h.scheduleBotTurn(g.ID)
	}
}

func (h *GameHandler) handleConcede(s *session, payload json.RawMessage) {
	var p models.GameRefPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(s.conn, "INVALID_PAYLOAD", "Invalid concede payload", err.Error())
		return
	}

	g, err := h.gameManager.Concede(p.GameID, s.playerID)
	if err != nil {
		h.sendGameError(s.conn, err)
		return
	}
	h.gameManager.BroadcastToGame(g.ID, models.NewWSMessage(models.MsgGameEnd, models.NewGameEndPayload(g)))
}

func (h *GameHandler) handleGetGameState(s *session, payload json.RawMessage) {
	var p models.GameRefPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(s.conn, "INVALID_PAYLOAD", "Invalid game state payload", err.Error())
		return
	}

	g, ok := h.gameManager.GetGame(p.GameID)
	if !ok {
		h.sendGameError(s.conn, game.ErrGameNotFound)
		return
	}
	if g.PlayerByID(s.playerID) == nil {
		h.sendGameError(s.conn, game.ErrPlayerNotInGame)
		return
	}
	h.write(s.conn, models.NewWSMessage(models.MsgGameState, g))
}

func (h *GameHandler) handleHeartbeat(s *session) {
	if s.playerID != uuid.Nil {
		if pc, ok := h.gameManager.GetPlayerConnection(s.playerID); ok {
			h.gameManager.AddPlayerConnection(s.playerID, pc.GameID, s.conn)
		}
	}
	h.write(s.conn, models.NewWSMessage(models.MsgHeartbeatAck, map[string]interface{}{
		"server_time":   time.Now(),
		"connection_id": s.playerID.String(),
	}))
}

func (h *GameHandler) scheduleBotTurn(gameID uuid.UUID) {
	time.AfterFunc(h.cfg.BotMoveDelay, func() { h.playBotTurn(gameID) })
}

// playBotTurn moves for the bot seated in gameID and tells both sides.
func (h *GameHandler) playBotTurn(gameID uuid.UUID) {
	g, ok := h.gameManager.GetGame(gameID)
	if !ok {
		return
	}
	seat := g.Bot()
	if seat == nil {
		return
	}
	kind, err := search.ParseKind(seat.Strategy)
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID.String()).Msg("bot has unknown strategy")
		return
	}
	bot := game.NewBot(kind, seat.Depth)

	turn, err := h.gameManager.PlayBotTurn(gameID, bot)
	if err != nil {
		if errors.Is(err, game.ErrStaleGame) || errors.Is(err, game.ErrGameNotActive) || errors.Is(err, game.ErrNotBotTurn) {
			log.Debug().Err(err).Str("game_id", gameID.String()).Msg("bot turn skipped")
			return
		}
		log.Error().Err(err).Str("game_id", gameID.String()).Msg("bot turn failed")
		return
	}

	summary := bot.Summary(turn.Decision)
	h.gameManager.BroadcastToGame(gameID, models.NewWSMessage(models.MsgBotMove, models.BotMovePayload{
		GameID:    gameID,
		Move:      turn.Move,
		Conceded:  turn.Decision.Conceded(),
		Search:    summary,
		GameState: turn.Game,
	}))

	logEmit("search_completed", h.analyticsService.EmitSearchCompleted(gameID.String(), "bot", summary, turn.Decision.Column))
	if turn.Move != nil {
		logEmit("move_played", h.analyticsService.EmitMovePlayed(turn.Game, turn.Move, summary))
	}

	if turn.Game.IsFinished() {
		h.gameManager.BroadcastToGame(gameID, models.NewWSMessage(models.MsgGameEnd, models.NewGameEndPayload(turn.Game)))
	}
}

func logEmit(event string, err error) {
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("failed to send analytics event")
	}
}

func (h *GameHandler) write(conn game.WSConnection, msg models.WSMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Str("type", string(msg.Type)).Msg("failed to write message")
	}
}

func (h *GameHandler) sendError(conn game.WSConnection, code, message, details string) {
	h.write(conn, models.NewWSMessage(models.MsgError, models.ErrorPayload{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

func (h *GameHandler) sendGameError(conn game.WSConnection, err error) {
	code := "GAME_ERROR"
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		code = "GAME_NOT_FOUND"
	case errors.Is(err, game.ErrGameNotActive):
		code = "GAME_NOT_ACTIVE"
	case errors.Is(err, game.ErrPlayerNotInGame):
		code = "PLAYER_NOT_IN_GAME"
	}
	h.sendError(conn, code, err.Error(), "")
}
