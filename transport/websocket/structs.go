package websocket

import (
	"encoding/json"

	"github.com/sawaplay/domino-backend/internal/entity"
)

// Message is the envelope for every client/server exchange.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client actions.
const (
	ActionFindMatch    = "domino:find_match"
	ActionCancelSearch = "domino:cancel_search"
	ActionResume       = "domino:resume"
	ActionJoinMatch    = "domino:join_match"
	ActionMove         = "domino:move"
)

type JoinMatchPayload struct {
	MatchID string `json:"matchId"`
}

type MovePayload struct {
	MatchID string      `json:"matchId"`
	Move    entity.Move `json:"move"`
}

// ErrorResponse carries the machine-readable reason code for a rejected
// action.
type ErrorResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

type FindMatchResponse struct {
	OK      bool   `json:"ok"`
	Status  string `json:"status"`
	MatchID string `json:"matchId,omitempty"`
}

type CancelSearchResponse struct {
	OK       bool   `json:"ok"`
	Status   string `json:"status"`
	Refunded int64  `json:"refunded"`
}

type ResumeResponse struct {
	OK      bool                `json:"ok"`
	Mode    string              `json:"mode"`
	MatchID string              `json:"matchId,omitempty"`
	State   *entity.PublicState `json:"state,omitempty"`
}

type JoinMatchResponse struct {
	OK    bool                `json:"ok"`
	State *entity.PublicState `json:"state"`
}

type MoveResponse struct {
	OK       bool   `json:"ok"`
	Finished bool   `json:"finished,omitempty"`
	WinnerID string `json:"winnerId,omitempty"`
}
