package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawaplay/domino-backend/internal/apperror"
	"github.com/sawaplay/domino-backend/internal/entity"
	"github.com/sawaplay/domino-backend/testing/suite"
)

func TestUserRepository(t *testing.T) {
	ctx, storage := suite.NewSQLite(t)
	users := NewUserRepository(storage.Connection)

	// When/Then: an unknown user is not found
	_, err := users.GetByID(ctx, "alice")
	require.ErrorIs(t, err, apperror.ErrUserNotFound)

	// When: the user is saved
	require.NoError(t, users.Save(ctx, &entity.User{ID: "alice", Email: "alice@example.com", Sawa: 100}))

	// Then: she reads back intact
	user, err := users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, int64(100), user.Sawa)

	// When: the same id is saved again
	require.NoError(t, users.Save(ctx, &entity.User{ID: "alice", Email: "new@example.com", Sawa: 50}))

	// Then: the row was replaced, not duplicated
	user, err = users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, int64(50), user.Sawa)
}

func TestUserRepository_AdjustBalance(t *testing.T) {
	ctx, storage := suite.NewSQLite(t)
	users := NewUserRepository(storage.Connection)

	require.NoError(t, users.Save(ctx, &entity.User{ID: "alice", Email: "alice@example.com", Sawa: 100}))

	// When: the balance moves both ways
	require.NoError(t, users.AdjustBalance(ctx, "alice", -10))
	require.NoError(t, users.AdjustBalance(ctx, "alice", 18))

	// Then: the deltas add up
	user, err := users.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(108), user.Sawa)

	// When/Then: adjusting a missing user fails
	err = users.AdjustBalance(ctx, "ghost", 10)
	require.ErrorIs(t, err, apperror.ErrUserNotFound)
}
