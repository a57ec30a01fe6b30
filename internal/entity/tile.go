package entity

import "math/rand"

const (
	// MaxPip is the highest face value in a double-six set.
	MaxPip = 6

	// FullSetSize is the number of tiles in a complete set: 7 doubles
	// plus 21 non-doubles.
	FullSetSize = 28

	// HandSize is the number of tiles dealt to each player.
	HandSize = 7
)

// Tile is a domino piece: an unordered pair of pip values in [0,6].
type Tile struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Equals - order-independent tile equality: (2,5) and (5,2) are the same tile.
func (that Tile) Equals(other Tile) bool {
	return (that.A == other.A && that.B == other.B) ||
		(that.A == other.B && that.B == other.A)
}

func (that Tile) IsDouble() bool {
	return that.A == that.B
}

func (that Tile) Sum() int {
	return that.A + that.B
}

func (that Tile) Has(pip int) bool {
	return that.A == pip || that.B == pip
}

// Flipped - returns the tile with its faces swapped.
func (that Tile) Flipped() Tile {
	return Tile{A: that.B, B: that.A}
}

// FullSet - returns the canonical 28-tile double-six set in a fixed order.
func FullSet() []Tile {
	tiles := make([]Tile, 0, FullSetSize)
	for a := 0; a <= MaxPip; a++ {
		for b := a; b <= MaxPip; b++ {
			tiles = append(tiles, Tile{A: a, B: b})
		}
	}

	return tiles
}

// ShuffledSet - returns the full set in uniformly random order.
func ShuffledSet() []Tile {
	tiles := FullSet()
	rand.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})

	return tiles
}

// Deal - splits off the first n tiles as a hand, returning the hand and the
// remaining pool.
func Deal(tiles []Tile, n int) ([]Tile, []Tile) {
	if n > len(tiles) {
		n = len(tiles)
	}

	hand := make([]Tile, n)
	copy(hand, tiles[:n])

	return hand, tiles[n:]
}

// ChooseStarter - picks the starting player: the best opening tile of each
// hand is compared, a double beating any non-double and higher pip sum
// breaking ties. A full tie goes to the first-listed player.
func ChooseStarter(p1 string, hand1 []Tile, p2 string, hand2 []Tile) string {
	best1, ok1 := bestOpeningTile(hand1)
	best2, ok2 := bestOpeningTile(hand2)

	switch {
	case !ok2:
		return p1
	case !ok1:
		return p2
	case best1.IsDouble() && !best2.IsDouble():
		return p1
	case !best1.IsDouble() && best2.IsDouble():
		return p2
	case best2.Sum() > best1.Sum():
		return p2
	default:
		return p1
	}
}

func bestOpeningTile(hand []Tile) (Tile, bool) {
	var best Tile
	found := false

	for _, tile := range hand {
		if !found {
			best, found = tile, true
			continue
		}

		if tile.IsDouble() != best.IsDouble() {
			if tile.IsDouble() {
				best = tile
			}
			continue
		}

		if tile.Sum() > best.Sum() {
			best = tile
		}
	}

	return best, found
}
