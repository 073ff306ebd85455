package matchmaking

import (
	"time"

	"github.com/google/uuid"

	"connect-four-engine/internal/game"
	"connect-four-engine/internal/models"
)

// QueueEntry is a player waiting for an opponent.
type QueueEntry struct {
	Player   *models.Player
	Conn     game.WSConnection
	JoinedAt time.Time
	BotTimer *time.Timer
}

type QueueStats struct {
	TotalJoined     int64         `json:"total_joined"`
	TotalLeft       int64         `json:"total_left"`
	TotalMatched    int64         `json:"total_matched"`
	TotalBotMatches int64         `json:"total_bot_matches"`
	CurrentSize     int           `json:"current_size"`
	AverageWaitTime time.Duration `json:"average_wait_time"`
}

// queue keeps entries in arrival order. It is not safe for concurrent use;
// the Matchmaker serializes access.
type queue struct {
	entries []*QueueEntry
	stats   QueueStats
	waited  time.Duration
	served  int64
}

func (q *queue) push(entry *QueueEntry) int {
	q.entries = append(q.entries, entry)
	q.stats.TotalJoined++
	return len(q.entries)
}

// remove drops the entry for playerID and stops its bot timer.
func (q *queue) remove(playerID uuid.UUID) (*QueueEntry, bool) {
	for i, entry := range q.entries {
		if entry.Player.ID == playerID {
			if entry.BotTimer != nil {
				entry.BotTimer.Stop()
			}
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return entry, true
		}
	}
	return nil, false
}

func (q *queue) popPair() (*QueueEntry, *QueueEntry, bool) {
	if len(q.entries) < 2 {
		return nil, nil, false
	}
	first, second := q.entries[0], q.entries[1]
	q.remove(first.Player.ID)
	q.remove(second.Player.ID)
	return first, second, true
}

func (q *queue) matched(now time.Time, entries ...*QueueEntry) {
	for _, e := range entries {
		q.waited += now.Sub(e.JoinedAt)
		q.served++
	}
}

func (q *queue) snapshot() QueueStats {
	s := q.stats
	s.CurrentSize = len(q.entries)
	if q.served > 0 {
		s.AverageWaitTime = q.waited / time.Duration(q.served)
	}
	return s
}
