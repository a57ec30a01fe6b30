package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullSet(t *testing.T) {
	// When: the canonical set is generated
	tiles := FullSet()

	// Then: there are exactly 28 unique tiles
	require.Len(t, tiles, FullSetSize)

	seen := make(map[Tile]bool)
	doubles := 0
	for _, tile := range tiles {
		require.False(t, seen[tile], "tile %v appears twice", tile)
		seen[tile] = true

		assert.GreaterOrEqual(t, tile.A, 0)
		assert.LessOrEqual(t, tile.B, MaxPip)
		assert.LessOrEqual(t, tile.A, tile.B)

		if tile.IsDouble() {
			doubles++
		}
	}

	// Then: 7 doubles and 21 non-doubles
	assert.Equal(t, 7, doubles)
}

func TestShuffledSet(t *testing.T) {
	// When: a shuffled set is generated
	tiles := ShuffledSet()

	// Then: it is a permutation of the full set, nothing repeated or lost
	require.Len(t, tiles, FullSetSize)

	seen := make(map[Tile]bool)
	for _, tile := range tiles {
		canonical := tile
		if canonical.A > canonical.B {
			canonical = canonical.Flipped()
		}
		require.False(t, seen[canonical])
		seen[canonical] = true
	}
	assert.Len(t, seen, FullSetSize)
}

func TestTile_Equals(t *testing.T) {
	// Given: the same tile in both orientations
	a := Tile{A: 2, B: 5}
	b := Tile{A: 5, B: 2}

	// Then: equality ignores orientation
	assert.True(t, a.Equals(b))
	assert.True(t, a.Equals(a))
	assert.False(t, a.Equals(Tile{A: 2, B: 4}))
}

func TestDeal(t *testing.T) {
	// Given: a fresh set
	tiles := FullSet()

	// When: two hands of seven are dealt
	hand1, rest := Deal(tiles, HandSize)
	hand2, boneyard := Deal(rest, HandSize)

	// Then: the pool splits 7/7/14
	require.Len(t, hand1, 7)
	require.Len(t, hand2, 7)
	require.Len(t, boneyard, 14)

	// Then: the first hand took the first seven tiles
	assert.Equal(t, tiles[:7], hand1)
}

func TestChooseStarter(t *testing.T) {
	t.Run("double beats any pip sum", func(t *testing.T) {
		// Given: A holds the (6,6) double, B holds no double at all
		handA := []Tile{{A: 0, B: 1}, {A: 6, B: 6}}
		handB := []Tile{{A: 5, B: 6}, {A: 4, B: 6}}

		// When: the starter is chosen
		starter := ChooseStarter("A", handA, "B", handB)

		// Then: A starts regardless of B's pip sums
		assert.Equal(t, "A", starter)
	})

	t.Run("higher double wins among doubles", func(t *testing.T) {
		// Given: both hold doubles, B's is higher
		handA := []Tile{{A: 3, B: 3}}
		handB := []Tile{{A: 5, B: 5}}

		assert.Equal(t, "B", ChooseStarter("A", handA, "B", handB))
	})

	t.Run("highest pip sum when neither has a double", func(t *testing.T) {
		// Given: no doubles anywhere
		handA := []Tile{{A: 1, B: 2}}
		handB := []Tile{{A: 5, B: 6}}

		assert.Equal(t, "B", ChooseStarter("A", handA, "B", handB))
	})

	t.Run("full tie goes to the first player", func(t *testing.T) {
		// Given: identical best tiles
		handA := []Tile{{A: 2, B: 4}}
		handB := []Tile{{A: 2, B: 4}}

		assert.Equal(t, "A", ChooseStarter("A", handA, "B", handB))
	})
}
