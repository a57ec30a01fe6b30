package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// liveMatch is the slice of the game engine the forfeit supervisor needs.
type liveMatch interface {
	IsPlaying(matchID string) bool
	OpponentOf(matchID, userID string) (string, bool)
	FinishByForfeit(ctx context.Context, matchID, winnerID, loserID string)
}

// ForfeitSupervisor tracks disconnected players per match and awards the
// match to the remaining player once the grace period runs out without a
// reconnect.
type ForfeitSupervisor struct {
	logger *slog.Logger

	engine liveMatch
	pusher Pusher
	grace  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewForfeitSupervisor(logger *slog.Logger, engine liveMatch, pusher Pusher, grace time.Duration) *ForfeitSupervisor {
	return &ForfeitSupervisor{
		logger: logger.With("component", "forfeit"),
		engine: engine,
		pusher: pusher,
		grace:  grace,
		timers: make(map[string]*time.Timer),
	}
}

func forfeitKey(matchID, userID string) string {
	return matchID + ":" + userID
}

// Schedule - starts the grace timer for a disconnected player and tells the
// match room about it. A second schedule for the same pair is a no-op.
func (that *ForfeitSupervisor) Schedule(matchID, userID string) {
	that.mu.Lock()

	if that.closed {
		that.mu.Unlock()
		return
	}

	key := forfeitKey(matchID, userID)
	if _, ok := that.timers[key]; ok {
		that.mu.Unlock()
		return
	}

	that.timers[key] = time.AfterFunc(that.grace, func() {
		that.fire(matchID, userID)
	})
	that.mu.Unlock()

	that.pusher.ToMatch(matchID, EventPlayerDisconnected, PlayerDisconnectedEvent{
		MatchID:          matchID,
		UserID:           userID,
		ForfeitInSeconds: int(that.grace / time.Second),
	})

	that.logger.Info("forfeit scheduled", "matchID", matchID, "userID", userID)
}

// Clear - cancels the pending timer for one player, called on reconnect.
func (that *ForfeitSupervisor) Clear(matchID, userID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clearLocked(forfeitKey(matchID, userID))
}

// ClearMatch - cancels every pending timer of a match, called on any
// conclusion so no stale timer can fire afterwards.
func (that *ForfeitSupervisor) ClearMatch(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	prefix := matchID + ":"
	for key := range that.timers {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			that.clearLocked(key)
		}
	}
}

// Close - stops every timer; used on shutdown and in tests.
func (that *ForfeitSupervisor) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	for key := range that.timers {
		that.clearLocked(key)
	}
}

func (that *ForfeitSupervisor) clearLocked(key string) {
	if timer, ok := that.timers[key]; ok {
		timer.Stop()
		delete(that.timers, key)
	}
}

// fire - the grace period elapsed. The match may have concluded by other
// means in the meantime, so status is re-checked before forfeiting.
func (that *ForfeitSupervisor) fire(matchID, userID string) {
	that.Clear(matchID, userID)

	if !that.engine.IsPlaying(matchID) {
		return
	}

	opponentID, ok := that.engine.OpponentOf(matchID, userID)
	if !ok {
		that.logger.Warn("forfeit for non-participant", "matchID", matchID, "userID", userID)
		return
	}

	that.engine.FinishByForfeit(context.Background(), matchID, opponentID, userID)

	that.logger.Info("match forfeited", "matchID", matchID, "loserID", userID)
}
