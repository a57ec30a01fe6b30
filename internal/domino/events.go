package domino

import "github.com/sawaplay/domino-backend/internal/entity"

// Gateway event names pushed by the engine.
const (
	EventState         = "domino:state"
	EventMatchFinished = "domino:match_finished"
)

// Broadcast reason tags.
const (
	ReasonPlayerMove         = "player_move"
	ReasonPlayerWin          = "player_win"
	ReasonTimeoutAutoPlay    = "timeout_auto_play"
	ReasonTimeoutAutoPlayWin = "timeout_auto_play_win"
	ReasonTimeoutAutoDraw    = "timeout_auto_draw"
	ReasonTimeoutAutoPass    = "timeout_auto_pass"
	ReasonBlockedLowestPips  = "blocked_lowest_pips"
	ReasonBlockedDraw        = "blocked_draw"
	ReasonForfeitDisconnect  = "forfeit_disconnect"
)

// StateEvent is pushed to each participant individually and carries only
// that viewer's redacted projection. A hand never travels to the other
// player's connection.
type StateEvent struct {
	MatchID  string              `json:"matchId"`
	Reason   string              `json:"reason"`
	State    *entity.PublicState `json:"state"`
	WinnerID string              `json:"winnerId,omitempty"`
}

// MatchFinishedEvent is the terminal push for any conclusion, also
// per-viewer.
type MatchFinishedEvent struct {
	MatchID  string              `json:"matchId"`
	WinnerID string              `json:"winnerId,omitempty"`
	LoserID  string              `json:"loserId,omitempty"`
	Reason   string              `json:"reason"`
	State    *entity.PublicState `json:"state"`
}

// MoveResult is returned to the caller of OnPlayerMove.
type MoveResult struct {
	Finished bool   `json:"finished,omitempty"`
	WinnerID string `json:"winnerId,omitempty"`
}
