package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"connect-four-engine/internal/board"
	"connect-four-engine/internal/models"
	"connect-four-engine/internal/search"
)

const (
	disconnectGracePeriod = 30 * time.Second
	finishedGameRetention = 10 * time.Minute
)

type Manager struct {
	games    map[uuid.UUID]*models.Game
	players  map[uuid.UUID]*PlayerConnection
	mutex    sync.RWMutex
	newBoard func() *board.Grid
	onFinish func(*models.Game)
	done     chan struct{}
	stopOnce sync.Once
}

type PlayerConnection struct {
	PlayerID uuid.UUID
	GameID   uuid.UUID
	Conn     WSConnection
	LastSeen time.Time
}

type WSConnection interface {
	WriteJSON(v interface{}) error
	Close() error
}

// BotTurn is the outcome of PlayBotTurn. Move is nil when the bot conceded.
type BotTurn struct {
	Move     *models.Move
	Decision search.Decision
	Game     *models.Game
}

type ManagerOption func(*Manager)

// WithBoardFactory sets how empty boards are built for new games.
func WithBoardFactory(f func() *board.Grid) ManagerOption {
	return func(m *Manager) { m.newBoard = f }
}

// WithFinishHook registers a callback run once for every game that ends,
// outside the manager's lock.
func WithFinishHook(f func(*models.Game)) ManagerOption {
	return func(m *Manager) { m.onFinish = f }
}

func NewManager(opts ...ManagerOption) *Manager {
	manager := &Manager{
		games:    make(map[uuid.UUID]*models.Game),
		players:  make(map[uuid.UUID]*PlayerConnection),
		newBoard: board.NewStandard,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(manager)
	}

	go manager.cleanupRoutine()

	return manager
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Manager) CreateGame(player1, player2 *models.Player) *models.Game {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	game := models.NewGame(m.newBoard(), player1, player2)
	m.games[game.ID] = game

	log.Info().
		Str("game_id", game.ID.String()).
		Str("player1", player1.Name).
		Str("player2", player2.Name).
		Msg("game created")

	return game.Snapshot()
}

// GetGame returns a copy of the game that is safe to serialize.
func (m *Manager) GetGame(gameID uuid.UUID) (*models.Game, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	game, exists := m.games[gameID]
	if !exists {
		return nil, false
	}
	return game.Snapshot(), true
}

func (m *Manager) MakeMove(gameID uuid.UUID, playerID uuid.UUID, column int) (*models.Move, *models.Game, error) {
	m.mutex.Lock()

	game, err := m.activeGame(gameID)
	if err != nil {
		m.mutex.Unlock()
		return nil, nil, err
	}

	player := game.PlayerByID(playerID)
	if player == nil {
		m.mutex.Unlock()
		return nil, nil, ErrPlayerNotInGame
	}
	if player.Piece != game.CurrentTurn {
		m.mutex.Unlock()
		return nil, nil, ErrNotPlayerTurn
	}

	move, err := game.Drop(player.Piece, column)
	if err != nil {
		m.mutex.Unlock()
		return nil, nil, errors.Join(ErrInvalidMove, err)
	}

	snapshot := game.Snapshot()
	m.mutex.Unlock()

	m.finished(snapshot)
	return move, snapshot, nil
}

// Concede ends the game in the opponent's favour.
func (m *Manager) Concede(gameID, playerID uuid.UUID) (*models.Game, error) {
	m.mutex.Lock()

	game, err := m.activeGame(gameID)
	if err != nil {
		m.mutex.Unlock()
		return nil, err
	}
	player := game.PlayerByID(playerID)
	if player == nil {
		m.mutex.Unlock()
		return nil, ErrPlayerNotInGame
	}

	game.Concede(player.Piece)
	snapshot := game.Snapshot()
	m.mutex.Unlock()

	log.Info().Str("game_id", gameID.String()).Str("player", player.Name).Msg("player conceded")
	m.finished(snapshot)
	return snapshot, nil
}

// PlayBotTurn lets bot move for the side to play. The search runs without
// holding the lock; if the game moved on meanwhile ErrStaleGame is returned.
// A bot with no legal move concedes.
func (m *Manager) PlayBotTurn(gameID uuid.UUID, bot *Bot) (*BotTurn, error) {
	m.mutex.RLock()
	game, err := m.activeGame(gameID)
	if err != nil {
		m.mutex.RUnlock()
		return nil, err
	}
	current := game.PlayerFor(game.CurrentTurn)
	if current == nil || !current.IsBot {
		m.mutex.RUnlock()
		return nil, ErrNotBotTurn
	}
	view := game.Snapshot()
	m.mutex.RUnlock()

	decision := bot.Decide(view)

	m.mutex.Lock()
	game, err = m.activeGame(gameID)
	if err != nil {
		m.mutex.Unlock()
		return nil, err
	}
	if game.MoveCount != view.MoveCount {
		m.mutex.Unlock()
		return nil, ErrStaleGame
	}

	turn := &BotTurn{Decision: decision}
	if decision.Conceded() {
		game.Concede(game.CurrentTurn)
	} else {
		turn.Move, err = game.Drop(game.CurrentTurn, decision.Column)
		if err != nil {
			m.mutex.Unlock()
			return nil, fmt.Errorf("bot chose column %d: %w", decision.Column, err)
		}
	}
	turn.Game = game.Snapshot()
	m.mutex.Unlock()

	log.Debug().
		Str("game_id", gameID.String()).
		Str("strategy", bot.Strategy().String()).
		Int("column", decision.Column).
		Float64("value", decision.Value).
		Int("leaves", decision.Leaves).
		Dur("elapsed", decision.Elapsed).
		Msg("bot moved")

	m.finished(turn.Game)
	return turn, nil
}

func (m *Manager) activeGame(gameID uuid.UUID) (*models.Game, error) {
	game, exists := m.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	if game.State != models.GameStatePlaying {
		return nil, ErrGameNotActive
	}
	return game, nil
}

func (m *Manager) finished(snapshot *models.Game) {
	if snapshot.IsFinished() && m.onFinish != nil {
		m.onFinish(snapshot)
	}
}

func (m *Manager) AddPlayerConnection(playerID, gameID uuid.UUID, conn WSConnection) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.players[playerID] = &PlayerConnection{
		PlayerID: playerID,
		GameID:   gameID,
		Conn:     conn,
		LastSeen: time.Now(),
	}

	if game, exists := m.games[gameID]; exists {
		if player := game.PlayerByID(playerID); player != nil {
			player.Connected = true
			player.LastSeen = time.Now()
		}
	}
}

func (m *Manager) RemovePlayerConnection(playerID uuid.UUID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if conn, exists := m.players[playerID]; exists {
		if game, exists := m.games[conn.GameID]; exists {
			if player := game.PlayerByID(playerID); player != nil {
				player.Connected = false
				player.LastSeen = time.Now()
			}
		}
		delete(m.players, playerID)
	}
}

func (m *Manager) GetPlayerConnection(playerID uuid.UUID) (*PlayerConnection, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	conn, exists := m.players[playerID]
	return conn, exists
}

func (m *Manager) BroadcastToGame(gameID uuid.UUID, message interface{}) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	m.broadcastLocked(gameID, message)
}

func (m *Manager) broadcastLocked(gameID uuid.UUID, message interface{}) {
	game, exists := m.games[gameID]
	if !exists {
		return
	}

	for _, player := range game.Players {
		if conn, exists := m.players[player.ID]; exists {
			if err := conn.Conn.WriteJSON(message); err != nil {
				log.Warn().Err(err).Str("player_id", player.ID.String()).Msg("broadcast failed")
			}
		}
	}
}

func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(disconnectGracePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			for _, g := range m.cleanupDisconnectedPlayers(now) {
				m.finished(g)
			}
		}
	}
}

// cleanupDisconnectedPlayers forfeits games whose human player has been
// gone longer than the grace period and forgets long-finished games. It
// returns snapshots of the games it ended.
func (m *Manager) cleanupDisconnectedPlayers(now time.Time) []*models.Game {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var ended []*models.Game
	for gameID, game := range m.games {
		if game.IsFinished() {
			if game.FinishedAt != nil && now.Sub(*game.FinishedAt) > finishedGameRetention {
				delete(m.games, gameID)
			}
			continue
		}

		for _, player := range game.Players {
			if player.Connected || now.Sub(player.LastSeen) <= disconnectGracePeriod {
				continue
			}

			game.Concede(player.Piece)
			snapshot := game.Snapshot()
			ended = append(ended, snapshot)

			log.Info().Str("game_id", gameID.String()).Str("player", player.Name).Msg("player forfeited after disconnect")
			m.broadcastLocked(gameID, models.NewWSMessage(models.MsgGameEnd, models.NewGameEndPayload(snapshot)))
			break
		}
	}
	return ended
}
