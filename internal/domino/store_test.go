package domino

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawaplay/domino-backend/internal/apperror"
	"github.com/sawaplay/domino-backend/internal/entity"
)

func TestStore_UpdateUnknownMatch(t *testing.T) {
	store := NewStore()

	// When/Then: touching a match that was never put fails
	err := store.Update("nope", func(*entity.MatchState) error { return nil })
	require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	assert.False(t, store.Has("nope"))
}

func TestStore_SerializesUpdatesPerMatch(t *testing.T) {
	store := NewStore()
	store.Put(&entity.MatchState{MatchID: "m1", PassStreak: 0})

	// When: many goroutines increment the same counter under Update
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_ = store.Update("m1", func(state *entity.MatchState) error {
				state.PassStreak++
				return nil
			})
		}()
	}
	wg.Wait()

	// Then: no increment was lost
	require.NoError(t, store.View("m1", func(state *entity.MatchState) {
		assert.Equal(t, 100, state.PassStreak)
	}))
}

func TestStore_DeleteInsideUpdate(t *testing.T) {
	store := NewStore()
	store.Put(&entity.MatchState{MatchID: "m1"})

	// When: the callback evicts its own match
	err := store.Update("m1", func(state *entity.MatchState) error {
		store.Delete(state.MatchID)
		return nil
	})

	// Then: the eviction sticks without deadlocking
	require.NoError(t, err)
	assert.False(t, store.Has("m1"))
}
