package entity

import "time"

const (
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

const (
	MoveTypePlay = "play"
	MoveTypeDraw = "draw"
	MoveTypePass = "pass"
)

// Move is a single player action: play a tile on a side, draw from the
// boneyard, or pass.
type Move struct {
	Type string `json:"type"`
	Tile *Tile  `json:"tile,omitempty"`
	Side string `json:"side,omitempty"`
}

// MatchState is the authoritative live state of one match. It is owned by
// the game engine; nothing else mutates it.
type MatchState struct {
	MatchID   string
	Player1ID string
	Player2ID string

	Hands    map[string][]Tile
	Boneyard []Tile
	Board    Board

	TurnUserID    string
	TurnExpiresAt time.Time
	LastMoveAt    time.Time

	Status   string
	WinnerID string

	// PassStreak counts consecutive passes; two in a row with an empty
	// boneyard means the match is blocked.
	PassStreak int
}

// NewMatchState - shuffles a fresh set, deals two hands of seven, leaves the
// remainder as the boneyard and picks the starting player.
func NewMatchState(matchID, player1ID, player2ID string, turnDuration time.Duration) *MatchState {
	tiles := ShuffledSet()

	hand1, tiles := Deal(tiles, HandSize)
	hand2, boneyard := Deal(tiles, HandSize)

	now := time.Now()

	return &MatchState{
		MatchID:   matchID,
		Player1ID: player1ID,
		Player2ID: player2ID,
		Hands: map[string][]Tile{
			player1ID: hand1,
			player2ID: hand2,
		},
		Boneyard:      boneyard,
		TurnUserID:    ChooseStarter(player1ID, hand1, player2ID, hand2),
		TurnExpiresAt: now.Add(turnDuration),
		LastMoveAt:    now,
		Status:        StatusPlaying,
	}
}

func (that *MatchState) IsPlaying() bool {
	return that.Status == StatusPlaying
}

func (that *MatchState) IsFinished() bool {
	return that.Status == StatusFinished
}

// HasPlayer - reports whether the user participates in this match.
func (that *MatchState) HasPlayer(userID string) bool {
	return that.Player1ID == userID || that.Player2ID == userID
}

// Opponent - returns the other participant's id.
func (that *MatchState) Opponent(userID string) string {
	if that.Player1ID == userID {
		return that.Player2ID
	}

	return that.Player1ID
}

// Hand - returns the player's current hand.
func (that *MatchState) Hand(userID string) []Tile {
	return that.Hands[userID]
}

// RemoveFromHand - removes one instance of the tile from the player's hand,
// matching order-independently.
func (that *MatchState) RemoveFromHand(userID string, tile Tile) bool {
	hand := that.Hands[userID]

	for i, held := range hand {
		if held.Equals(tile) {
			that.Hands[userID] = append(hand[:i], hand[i+1:]...)
			return true
		}
	}

	return false
}

// DrawTile - moves the top boneyard tile into the player's hand.
func (that *MatchState) DrawTile(userID string) (Tile, bool) {
	if len(that.Boneyard) == 0 {
		return Tile{}, false
	}

	drawn := that.Boneyard[0]
	that.Boneyard = that.Boneyard[1:]
	that.Hands[userID] = append(that.Hands[userID], drawn)

	return drawn, true
}

// AdvanceTurn - flips the turn to the other player and resets the expiry.
func (that *MatchState) AdvanceTurn(turnDuration time.Duration) {
	that.TurnUserID = that.Opponent(that.TurnUserID)
	that.LastMoveAt = time.Now()
	that.TurnExpiresAt = that.LastMoveAt.Add(turnDuration)
}

// Finish - marks the match concluded. An empty winner id records a draw.
func (that *MatchState) Finish(winnerID string) {
	that.Status = StatusFinished
	that.WinnerID = winnerID
}

// PipTotal - the sum of all pips in the player's hand, used to resolve a
// blocked match.
func (that *MatchState) PipTotal(userID string) int {
	total := 0
	for _, tile := range that.Hands[userID] {
		total += tile.Sum()
	}

	return total
}

// PublicState is a per-viewer projection of a match: the opponent's hand is
// reduced to a count and the boneyard to its size. Full hands never leave
// the engine.
type PublicState struct {
	MatchID       string    `json:"matchId"`
	Player1ID     string    `json:"player1Id"`
	Player2ID     string    `json:"player2Id"`
	Hand          []Tile    `json:"hand"`
	OpponentTiles int       `json:"opponentTiles"`
	BoneyardCount int       `json:"boneyardCount"`
	Board         Board     `json:"board"`
	TurnUserID    string    `json:"turnUserId"`
	TurnExpiresAt time.Time `json:"turnExpiresAt"`
	Status        string    `json:"status"`
	WinnerID      string    `json:"winnerId,omitempty"`
}

// PublicView - builds the redacted snapshot for one viewer.
func (that *MatchState) PublicView(viewerID string) *PublicState {
	hand := make([]Tile, len(that.Hands[viewerID]))
	copy(hand, that.Hands[viewerID])

	chain := make([]Tile, len(that.Board.Chain))
	copy(chain, that.Board.Chain)

	return &PublicState{
		MatchID:       that.MatchID,
		Player1ID:     that.Player1ID,
		Player2ID:     that.Player2ID,
		Hand:          hand,
		OpponentTiles: len(that.Hands[that.Opponent(viewerID)]),
		BoneyardCount: len(that.Boneyard),
		Board:         Board{Chain: chain, Left: that.Board.Left, Right: that.Board.Right},
		TurnUserID:    that.TurnUserID,
		TurnExpiresAt: that.TurnExpiresAt,
		Status:        that.Status,
		WinnerID:      that.WinnerID,
	}
}
