package entity

const (
	SideLeft  = "left"
	SideRight = "right"
)

// Board is the chain of placed tiles plus the two open end values. Every
// tile in the chain is oriented so its faces match its neighbours, and
// Left/Right always equal the exposed pips at the extremities.
type Board struct {
	Chain []Tile `json:"chain"`
	Left  int    `json:"left"`
	Right int    `json:"right"`
}

func (that *Board) IsEmpty() bool {
	return len(that.Chain) == 0
}

// OpenEnd - returns the open pip value on the given side.
func (that *Board) OpenEnd(side string) int {
	if side == SideLeft {
		return that.Left
	}

	return that.Right
}

// CanPlay - reports whether the tile fits on the given side. Any tile fits
// on an empty board.
func (that *Board) CanPlay(tile Tile, side string) bool {
	if that.IsEmpty() {
		return true
	}

	return tile.Has(that.OpenEnd(side))
}

// OrientFor - arranges the tile so the matching face touches the open end
// on the given side. On the left the tile's B face must equal the current
// left end; on the right the tile's A face must equal the current right end.
func (that *Board) OrientFor(tile Tile, side string) (Tile, bool) {
	end := that.OpenEnd(side)

	if side == SideLeft {
		if tile.B == end {
			return tile, true
		}
		if tile.A == end {
			return tile.Flipped(), true
		}
		return Tile{}, false
	}

	if tile.A == end {
		return tile, true
	}
	if tile.B == end {
		return tile.Flipped(), true
	}

	return Tile{}, false
}

// Place - appends or prepends an already-oriented tile and updates the open
// end. The first tile defines both open ends from its own faces.
func (that *Board) Place(oriented Tile, side string) {
	if that.IsEmpty() {
		that.Chain = []Tile{oriented}
		that.Left = oriented.A
		that.Right = oriented.B
		return
	}

	if side == SideLeft {
		that.Chain = append([]Tile{oriented}, that.Chain...)
		that.Left = oriented.A
		return
	}

	that.Chain = append(that.Chain, oriented)
	that.Right = oriented.B
}

// HasAnyPlay - reports whether any tile in the hand legally fits either side.
func (that *Board) HasAnyPlay(hand []Tile) bool {
	for _, tile := range hand {
		if that.CanPlay(tile, SideLeft) || that.CanPlay(tile, SideRight) {
			return true
		}
	}

	return false
}
