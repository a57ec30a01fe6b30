package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// client is one connected user. gorilla allows a single concurrent writer,
// so every write goes through the client's own mutex.
type client struct {
	conn   *websocket.Conn
	userID string

	writeMutex sync.Mutex
	matches    map[string]struct{}
}

func newClient(conn *websocket.Conn, userID string) *client {
	return &client{
		conn:    conn,
		userID:  userID,
		matches: make(map[string]struct{}),
	}
}

func (that *client) send(action string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	return that.conn.WriteJSON(Message{Action: action, Payload: raw})
}

// Hub owns the connection registry: one connection per user plus the
// match broadcast rooms. It is the push-delivery channel the engine and
// services publish through.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	users map[string]*client
	rooms map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "ws_hub"),
		users:  make(map[string]*client),
		rooms:  make(map[string]map[*client]struct{}),
	}
}

// register - attaches a connection; a newer connection for the same user
// replaces the old one.
func (that *Hub) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if old, ok := that.users[c.userID]; ok {
		_ = old.conn.Close()
	}

	that.users[c.userID] = c
}

// unregister - detaches a connection and removes it from every room.
func (that *Hub) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.users[c.userID]; ok && current == c {
		delete(that.users, c.userID)
	}

	for matchID := range c.matches {
		if room, ok := that.rooms[matchID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(that.rooms, matchID)
			}
		}
	}
}

// joinRoom - adds the connection to a match's broadcast group.
func (that *Hub) joinRoom(matchID string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[matchID]; !ok {
		that.rooms[matchID] = make(map[*client]struct{})
	}

	that.rooms[matchID][c] = struct{}{}
}

// ToUser - pushes an event to one user's connection, if present.
func (that *Hub) ToUser(userID, event string, payload any) {
	that.mu.RLock()
	c, ok := that.users[userID]
	that.mu.RUnlock()

	if !ok {
		return
	}

	if err := c.send(event, payload); err != nil {
		that.logger.Error("failed to push to user", "userID", userID, "event", event, "error", err)
	}
}

// ToMatch - pushes an event to every connection in the match room.
func (that *Hub) ToMatch(matchID, event string, payload any) {
	that.mu.RLock()
	room := that.rooms[matchID]
	members := make([]*client, 0, len(room))
	for c := range room {
		members = append(members, c)
	}
	that.mu.RUnlock()

	for _, c := range members {
		if err := c.send(event, payload); err != nil {
			that.logger.Error("failed to push to room", "matchID", matchID, "event", event, "error", err)
		}
	}
}
