package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawaplay/domino-backend/internal/entity"
	"github.com/sawaplay/domino-backend/internal/repository"
	"github.com/sawaplay/domino-backend/testing/suite"
)

type settlementFixture struct {
	service *SettlementService
	users   repository.UserRepository
	matches repository.MatchRepository
	players *fakePlayers
}

func newSettlementFixture(t *testing.T) (context.Context, *settlementFixture) {
	t.Helper()

	ctx, storage := suite.NewSQLite(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fixture := &settlementFixture{
		users:   repository.NewUserRepository(storage.Connection),
		matches: repository.NewMatchRepository(storage.Connection),
		players: newFakePlayers(),
	}

	fixture.service = NewSettlementService(logger, storage.Connection, fixture.users, fixture.matches, fixture.players)

	return ctx, fixture
}

func (that *settlementFixture) seed(t *testing.T, ctx context.Context) {
	t.Helper()

	require.NoError(t, that.users.Save(ctx, &entity.User{ID: "alice", Email: "alice@example.com", Sawa: 90}))
	require.NoError(t, that.users.Save(ctx, &entity.User{ID: "bob", Email: "bob@example.com", Sawa: 90}))

	require.NoError(t, that.matches.Create(ctx, &entity.MatchRecord{
		ID:        "m1",
		Player1ID: "alice",
		Player2ID: "bob",
		EntryFee:  10,
		WinFee:    18,
		Status:    entity.StatusPlaying,
	}))

	require.NoError(t, that.players.CreateOrUpdate(ctx, &entity.Player{ID: "alice", MatchID: "m1"}))
	require.NoError(t, that.players.CreateOrUpdate(ctx, &entity.Player{ID: "bob", MatchID: "m1"}))
}

func finishedState(winnerID string) *entity.MatchState {
	state := &entity.MatchState{
		MatchID:   "m1",
		Player1ID: "alice",
		Player2ID: "bob",
		Hands: map[string][]entity.Tile{
			"alice": {},
			"bob":   {{A: 2, B: 2}},
		},
		Board: entity.Board{Chain: []entity.Tile{{A: 6, B: 6}}, Left: 6, Right: 6},
	}
	state.Finish(winnerID)

	return state
}

func TestSettlement_WinnerIsPaid(t *testing.T) {
	ctx, fixture := newSettlementFixture(t)
	fixture.seed(t, ctx)

	// When: alice's win is settled
	err := fixture.service.RecordResult(ctx, finishedState("alice"), "player_win")
	require.NoError(t, err)

	// Then: the record is closed with the winner and the final snapshot
	record, err := fixture.matches.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinished, record.Status)
	assert.Equal(t, "alice", record.WinnerID)

	var snapshot finalSnapshot
	require.NoError(t, json.Unmarshal(record.StateJSON, &snapshot))
	assert.Equal(t, "player_win", snapshot.Reason)
	assert.Equal(t, "alice", snapshot.WinnerID)
	assert.Len(t, snapshot.Hands["bob"], 1)

	// Then: the winner gets the win fee, the loser nothing
	alice, err := fixture.users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(108), alice.Sawa)

	bob, err := fixture.users.GetByID(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(90), bob.Sawa)

	// Then: both sessions are gone
	_, err = fixture.players.GetByID(ctx, "alice")
	assert.ErrorIs(t, err, repository.ErrPlayerNotFound)
	_, err = fixture.players.GetByID(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrPlayerNotFound)
}

func TestSettlement_DrawRefundsBothStakes(t *testing.T) {
	ctx, fixture := newSettlementFixture(t)
	fixture.seed(t, ctx)

	// When: a blocked draw is settled
	err := fixture.service.RecordResult(ctx, finishedState(""), "blocked_draw")
	require.NoError(t, err)

	// Then: both entry fees come back
	for _, id := range []string{"alice", "bob"} {
		user, err := fixture.users.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(100), user.Sawa, "user %s", id)
	}

	record, err := fixture.matches.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinished, record.Status)
	assert.Empty(t, record.WinnerID)
}

func TestSettlement_MissingRecordFails(t *testing.T) {
	ctx, fixture := newSettlementFixture(t)

	// When: the durable record was never created
	err := fixture.service.RecordResult(ctx, finishedState("alice"), "player_win")

	// Then: settlement reports the failure instead of paying blind
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrMatchRecordNotFound)
}
