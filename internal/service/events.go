package service

import "github.com/sawaplay/domino-backend/internal/entity"

// Gateway event names pushed by the services.
const (
	EventMatchFound         = "domino:match_found"
	EventPlayerDisconnected = "domino:player_disconnected"
	EventPlayerReconnected  = "domino:player_reconnected"
)

// Pusher delivers events to connected clients, addressed by user id or
// match room. Implemented by the websocket hub.
type Pusher interface {
	ToUser(userID, event string, payload any)
	ToMatch(matchID, event string, payload any)
}

type MatchFoundEvent struct {
	MatchID string              `json:"matchId"`
	State   *entity.PublicState `json:"state"`
}

type PlayerDisconnectedEvent struct {
	MatchID          string `json:"matchId"`
	UserID           string `json:"userId"`
	ForfeitInSeconds int    `json:"forfeitInSeconds"`
}

type PlayerReconnectedEvent struct {
	MatchID string `json:"matchId"`
	UserID  string `json:"userId"`
}
