package domino

import (
	"sync"

	"github.com/sawaplay/domino-backend/internal/apperror"
	"github.com/sawaplay/domino-backend/internal/entity"
)

// Store is the process-wide registry of live match state. Each match sits
// behind its own mutex, so handlers for the same match are serialized while
// different matches run concurrently. State is volatile: a restart loses it.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

type slot struct {
	mu    sync.Mutex
	state *entity.MatchState
}

func NewStore() *Store {
	return &Store{
		slots: make(map[string]*slot),
	}
}

// Put - registers a newly created match.
func (that *Store) Put(state *entity.MatchState) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.slots[state.MatchID] = &slot{state: state}
}

// Update - runs fn against the match state under its exclusive lock. All
// state mutation goes through here.
func (that *Store) Update(matchID string, fn func(state *entity.MatchState) error) error {
	that.mu.RLock()
	s, ok := that.slots[matchID]
	that.mu.RUnlock()

	if !ok {
		return apperror.ErrMatchNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.state)
}

// View - runs fn read-only under the match lock. Callers must not retain
// references to the state.
func (that *Store) View(matchID string, fn func(state *entity.MatchState)) error {
	return that.Update(matchID, func(state *entity.MatchState) error {
		fn(state)
		return nil
	})
}

// Delete - evicts a match from the registry. Safe to call from inside an
// Update callback on the same match.
func (that *Store) Delete(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.slots, matchID)
}

// Has - reports whether the match has live state.
func (that *Store) Has(matchID string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	_, ok := that.slots[matchID]

	return ok
}
