package matchmaking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"connect-four-engine/internal/game"
	"connect-four-engine/internal/models"
)

const maxNameLength = 32

// Matchmaker pairs waiting players and falls back to the search bot for a
// player who waits longer than the timeout.
type Matchmaker struct {
	queue       queue
	gameManager *game.Manager
	bot         *game.Bot
	timeout     time.Duration
	onMatch     func(g *models.Game, vsBot bool)
	mutex       sync.Mutex
}

func NewMatchmaker(gameManager *game.Manager, bot *game.Bot, timeout time.Duration) *Matchmaker {
	return &Matchmaker{
		gameManager: gameManager,
		bot:         bot,
		timeout:     timeout,
	}
}

// OnMatch registers a callback for every game the matchmaker starts. It is
// called with the matchmaker's lock held and must not call back into it.
func (m *Matchmaker) OnMatch(f func(g *models.Game, vsBot bool)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onMatch = f
}

func (m *Matchmaker) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.processQueue()
		}
	}
}

func (m *Matchmaker) JoinQueue(playerName string, conn game.WSConnection) (*models.Player, int, error) {
	name := strings.TrimSpace(playerName)
	if name == "" || len(name) > maxNameLength {
		return nil, 0, ErrInvalidUsername
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	player := &models.Player{
		ID:        uuid.New(),
		Name:      name,
		Connected: true,
		LastSeen:  time.Now(),
	}

	entry := &QueueEntry{
		Player:   player,
		Conn:     conn,
		JoinedAt: time.Now(),
	}
	entry.BotTimer = time.AfterFunc(m.timeout, func() {
		m.matchWithBot(player.ID)
	})

	position := m.queue.push(entry)
	log.Info().Str("player", name).Int("position", position).Msg("player joined queue")
	return player, position, nil
}

func (m *Matchmaker) LeaveQueue(playerID uuid.UUID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.queue.remove(playerID); !ok {
		return ErrPlayerNotInQueue
	}
	m.queue.stats.TotalLeft++
	return nil
}

func (m *Matchmaker) Stats() QueueStats {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.snapshot()
}

func (m *Matchmaker) processQueue() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for {
		first, second, ok := m.queue.popPair()
		if !ok {
			return
		}

		g := m.gameManager.CreateGame(first.Player, second.Player)
		m.gameManager.AddPlayerConnection(first.Player.ID, g.ID, first.Conn)
		m.gameManager.AddPlayerConnection(second.Player.ID, g.ID, second.Conn)

		m.queue.stats.TotalMatched += 2
		m.queue.matched(time.Now(), first, second)

		m.notifyGameFound(first, g)
		m.notifyGameFound(second, g)
		if m.onMatch != nil {
			m.onMatch(g, false)
		}
	}
}

func (m *Matchmaker) matchWithBot(playerID uuid.UUID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry, ok := m.queue.remove(playerID)
	if !ok {
		return // already matched or left
	}

	g := m.gameManager.CreateGame(entry.Player, m.bot.NewPlayer())
	m.gameManager.AddPlayerConnection(entry.Player.ID, g.ID, entry.Conn)

	m.queue.stats.TotalBotMatches++
	m.queue.matched(time.Now(), entry)

	log.Info().
		Str("player", entry.Player.Name).
		Str("strategy", m.bot.Strategy().String()).
		Int("depth", m.bot.Depth()).
		Msg("no opponent found, matched with bot")

	m.notifyGameFound(entry, g)
	if m.onMatch != nil {
		m.onMatch(g, true)
	}
}

func (m *Matchmaker) notifyGameFound(entry *QueueEntry, g *models.Game) {
	message := models.NewWSMessage(models.MsgGameFound, models.GameFoundPayload{
		Game:     g,
		PlayerID: entry.Player.ID,
	})
	if err := entry.Conn.WriteJSON(message); err != nil {
		log.Warn().Err(err).Str("player_id", entry.Player.ID.String()).Msg("failed to notify player")
	}
}
