package entity

import "time"

// User is the durable account record. Sawa is the platform currency that
// entry fees and win payouts move through.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Sawa  int64  `json:"sawa"`
}

// Player is the live session record kept in Redis: which match, if any, a
// connected user currently belongs to.
type Player struct {
	ID      string `json:"id"`
	MatchID string `json:"match_id,omitempty"`
}

const (
	QueueStatusSearching = "searching"
	QueueStatusMatched   = "matched"
	QueueStatusCanceled  = "canceled"
)

// QueueEntry is the durable matchmaking record, one per user.
type QueueEntry struct {
	UserID    string
	EntryFee  int64
	Status    string
	CreatedAt time.Time
}

// MatchRecord is the durable match metadata; the live state stays in memory
// and only a final snapshot is persisted on conclusion.
type MatchRecord struct {
	ID        string
	Player1ID string
	Player2ID string
	EntryFee  int64
	WinFee    int64
	Status    string
	WinnerID  string
	StateJSON []byte
	CreatedAt time.Time
}
