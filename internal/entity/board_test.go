package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_Place(t *testing.T) {
	t.Run("first tile defines both open ends", func(t *testing.T) {
		// Given: an empty board
		board := Board{}

		// When: the first tile is placed
		board.Place(Tile{A: 2, B: 5}, SideLeft)

		// Then: both ends come from the tile's own faces
		require.Len(t, board.Chain, 1)
		assert.Equal(t, 2, board.Left)
		assert.Equal(t, 5, board.Right)
	})

	t.Run("left placement prepends and moves the left end", func(t *testing.T) {
		// Given: a board with open ends 2 and 5
		board := Board{}
		board.Place(Tile{A: 2, B: 5}, SideLeft)

		// When: an oriented (6,2) tile lands on the left
		oriented, ok := board.OrientFor(Tile{A: 2, B: 6}, SideLeft)
		require.True(t, ok)
		board.Place(oriented, SideLeft)

		// Then: the chain grew at the front and the left end is now 6
		require.Len(t, board.Chain, 2)
		assert.Equal(t, Tile{A: 6, B: 2}, board.Chain[0])
		assert.Equal(t, 6, board.Left)
		assert.Equal(t, 5, board.Right)
	})

	t.Run("right placement appends and moves the right end", func(t *testing.T) {
		// Given: a board with open ends 2 and 5
		board := Board{}
		board.Place(Tile{A: 2, B: 5}, SideRight)

		// When: a (3,5) tile lands on the right
		oriented, ok := board.OrientFor(Tile{A: 3, B: 5}, SideRight)
		require.True(t, ok)
		board.Place(oriented, SideRight)

		// Then: the tile was flipped to (5,3) and the right end is now 3
		assert.Equal(t, Tile{A: 5, B: 3}, board.Chain[1])
		assert.Equal(t, 3, board.Right)
	})
}

func TestBoard_CanPlay(t *testing.T) {
	// Given: an empty board
	board := Board{}

	// Then: anything goes on an empty board
	assert.True(t, board.CanPlay(Tile{A: 0, B: 0}, SideLeft))
	assert.True(t, board.CanPlay(Tile{A: 6, B: 6}, SideRight))

	// Given: open ends 2 (left) and 5 (right)
	board.Place(Tile{A: 2, B: 5}, SideLeft)

	// Then: only matching faces fit
	assert.True(t, board.CanPlay(Tile{A: 2, B: 6}, SideLeft))
	assert.False(t, board.CanPlay(Tile{A: 3, B: 6}, SideLeft))
	assert.True(t, board.CanPlay(Tile{A: 5, B: 5}, SideRight))
	assert.False(t, board.CanPlay(Tile{A: 2, B: 6}, SideRight))
}

func TestBoard_OrientFor(t *testing.T) {
	// Given: open ends 2 (left) and 5 (right)
	board := Board{}
	board.Place(Tile{A: 2, B: 5}, SideLeft)

	t.Run("tile already oriented stays put", func(t *testing.T) {
		oriented, ok := board.OrientFor(Tile{A: 5, B: 1}, SideRight)
		require.True(t, ok)
		assert.Equal(t, Tile{A: 5, B: 1}, oriented)
	})

	t.Run("tile gets flipped to touch the end", func(t *testing.T) {
		oriented, ok := board.OrientFor(Tile{A: 1, B: 5}, SideRight)
		require.True(t, ok)
		assert.Equal(t, Tile{A: 5, B: 1}, oriented)
	})

	t.Run("no matching face fails", func(t *testing.T) {
		_, ok := board.OrientFor(Tile{A: 3, B: 4}, SideRight)
		assert.False(t, ok)
	})
}

func TestBoard_HasAnyPlay(t *testing.T) {
	// Given: open ends 2 and 5
	board := Board{}
	board.Place(Tile{A: 2, B: 5}, SideLeft)

	// Then: a hand with a matching face has a play
	assert.True(t, board.HasAnyPlay([]Tile{{A: 3, B: 4}, {A: 5, B: 0}}))

	// Then: a hand with no matching face is stuck
	assert.False(t, board.HasAnyPlay([]Tile{{A: 3, B: 4}, {A: 6, B: 0}}))
}

func TestBoard_ChainInvariant(t *testing.T) {
	// Given: a board grown by several legal placements
	board := Board{}
	board.Place(Tile{A: 3, B: 3}, SideLeft)

	for _, step := range []struct {
		tile Tile
		side string
	}{
		{Tile{A: 3, B: 5}, SideRight},
		{Tile{A: 5, B: 1}, SideRight},
		{Tile{A: 2, B: 3}, SideLeft},
		{Tile{A: 2, B: 2}, SideLeft},
	} {
		oriented, ok := board.OrientFor(step.tile, step.side)
		require.True(t, ok)
		board.Place(oriented, step.side)
	}

	// Then: neighbouring faces match along the whole chain
	for i := 1; i < len(board.Chain); i++ {
		assert.Equal(t, board.Chain[i-1].B, board.Chain[i].A, "chain break at %d", i)
	}

	// Then: the open ends equal the exposed faces
	assert.Equal(t, board.Chain[0].A, board.Left)
	assert.Equal(t, board.Chain[len(board.Chain)-1].B, board.Right)
}
