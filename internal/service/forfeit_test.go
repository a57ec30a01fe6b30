package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forfeitCall struct {
	matchID  string
	winnerID string
	loserID  string
}

type fakeLiveMatch struct {
	mu       sync.Mutex
	playing  map[string]bool
	players  map[string][2]string
	forfeits []forfeitCall
}

func newFakeLiveMatch() *fakeLiveMatch {
	return &fakeLiveMatch{
		playing: make(map[string]bool),
		players: make(map[string][2]string),
	}
}

func (that *fakeLiveMatch) addMatch(matchID, player1ID, player2ID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.playing[matchID] = true
	that.players[matchID] = [2]string{player1ID, player2ID}
}

func (that *fakeLiveMatch) IsPlaying(matchID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.playing[matchID]
}

func (that *fakeLiveMatch) OpponentOf(matchID, userID string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	pair, ok := that.players[matchID]
	if !ok {
		return "", false
	}

	switch userID {
	case pair[0]:
		return pair[1], true
	case pair[1]:
		return pair[0], true
	default:
		return "", false
	}
}

func (that *fakeLiveMatch) FinishByForfeit(_ context.Context, matchID, winnerID, loserID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.playing[matchID] = false
	that.forfeits = append(that.forfeits, forfeitCall{matchID: matchID, winnerID: winnerID, loserID: loserID})
}

func (that *fakeLiveMatch) allForfeits() []forfeitCall {
	that.mu.Lock()
	defer that.mu.Unlock()

	out := make([]forfeitCall, len(that.forfeits))
	copy(out, that.forfeits)

	return out
}

func newForfeitSupervisor(t *testing.T, engine *fakeLiveMatch, pusher *fakePusher, grace time.Duration) *ForfeitSupervisor {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	supervisor := NewForfeitSupervisor(logger, engine, pusher, grace)
	t.Cleanup(supervisor.Close)

	return supervisor
}

func TestForfeitSupervisor_GraceExpiryForfeits(t *testing.T) {
	engine := newFakeLiveMatch()
	engine.addMatch("m1", "alice", "bob")
	pusher := &fakePusher{}

	supervisor := newForfeitSupervisor(t, engine, pusher, 30*time.Millisecond)

	// When: bob drops
	supervisor.Schedule("m1", "bob")

	// Then: the room hears about the pending forfeit
	disconnected := pusher.byEvent(EventPlayerDisconnected)
	require.Len(t, disconnected, 1)
	assert.Equal(t, "m1", disconnected[0].target)

	// Then: after the grace period alice wins by forfeit
	require.Eventually(t, func() bool {
		return len(engine.allForfeits()) == 1
	}, time.Second, 10*time.Millisecond)

	forfeits := engine.allForfeits()
	assert.Equal(t, forfeitCall{matchID: "m1", winnerID: "alice", loserID: "bob"}, forfeits[0])
}

func TestForfeitSupervisor_ReconnectCancelsForfeit(t *testing.T) {
	engine := newFakeLiveMatch()
	engine.addMatch("m1", "alice", "bob")
	pusher := &fakePusher{}

	supervisor := newForfeitSupervisor(t, engine, pusher, 40*time.Millisecond)

	// Given: bob dropped and the timer is running
	supervisor.Schedule("m1", "bob")

	// When: he reconnects inside the grace period
	supervisor.Clear("m1", "bob")

	// Then: no forfeit ever fires
	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, engine.allForfeits())
	assert.True(t, engine.IsPlaying("m1"))
}

func TestForfeitSupervisor_ScheduleIsIdempotent(t *testing.T) {
	engine := newFakeLiveMatch()
	engine.addMatch("m1", "alice", "bob")
	pusher := &fakePusher{}

	supervisor := newForfeitSupervisor(t, engine, pusher, 30*time.Millisecond)

	// When: the same disconnect is reported twice
	supervisor.Schedule("m1", "bob")
	supervisor.Schedule("m1", "bob")

	// Then: only one announcement and one forfeit
	assert.Len(t, pusher.byEvent(EventPlayerDisconnected), 1)

	require.Eventually(t, func() bool {
		return len(engine.allForfeits()) > 0
	}, time.Second, 10*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, engine.allForfeits(), 1)
}

func TestForfeitSupervisor_ConcludedMatchIsLeftAlone(t *testing.T) {
	engine := newFakeLiveMatch()
	engine.addMatch("m1", "alice", "bob")
	pusher := &fakePusher{}

	supervisor := newForfeitSupervisor(t, engine, pusher, 30*time.Millisecond)

	// Given: bob dropped, then the match concluded another way
	supervisor.Schedule("m1", "bob")
	engine.mu.Lock()
	engine.playing["m1"] = false
	engine.mu.Unlock()

	// Then: the expired timer does not forfeit a finished match
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, engine.allForfeits())
}

func TestForfeitSupervisor_ClearMatchStopsAllTimers(t *testing.T) {
	engine := newFakeLiveMatch()
	engine.addMatch("m1", "alice", "bob")
	pusher := &fakePusher{}

	supervisor := newForfeitSupervisor(t, engine, pusher, 30*time.Millisecond)

	// Given: both players dropped
	supervisor.Schedule("m1", "alice")
	supervisor.Schedule("m1", "bob")

	// When: the match concludes and its timers are swept
	supervisor.ClearMatch("m1")

	// Then: neither timer fires
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, engine.allForfeits())
}
