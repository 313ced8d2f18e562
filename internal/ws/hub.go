// internal/ws/hub.go
//
// WebSocket fan-out for live sessions.
// Responsibilities:
//   - Track every open connection, grouped by session and user.
//   - Broadcast event frames session-wide or scoped to one room.
//   - Serialize writes per connection (gorilla allows one writer at a time).
//
// The hub knows nothing about game rules. It receives already-derived
// events from the session layer and moves bytes.

package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fredrikpaulin/DUNGEONS/internal/session"
)

// Frame is one server-to-client message envelope.
type Frame struct {
	Type    string                `json:"type"`
	Event   *session.Event        `json:"event,omitempty"`
	Events  []session.Event       `json:"events,omitempty"`
	View    *session.RoomView     `json:"view,omitempty"`
	Scene   *session.NpcScene     `json:"scene,omitempty"`
	Report  *session.ChoiceReport `json:"report,omitempty"`
	Finale  *session.FinaleReport `json:"finale,omitempty"`
	Error   *session.Failure      `json:"error,omitempty"`
	Prompt  string                `json:"prompt,omitempty"`
	Options []string              `json:"options,omitempty"`
}

type client struct {
	conn   *websocket.Conn
	userID string
	room   string

	writeMu sync.Mutex
}

func (c *client) send(f *Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Str("frame", f.Type).Msg("frame marshal failed")
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Debug().Err(err).Str("user", c.userID).Msg("frame write failed")
	}
}

// Hub holds every live connection, grouped by session id.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*client // session id → user id → client
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[string]*client)}
}

// attach registers a connection. A second connection for the same user
// replaces the first; the old socket is closed.
func (h *Hub) attach(sessionID, userID string, conn *websocket.Conn) *client {
	c := &client{conn: conn, userID: userID}
	h.mu.Lock()
	clients, ok := h.sessions[sessionID]
	if !ok {
		clients = make(map[string]*client)
		h.sessions[sessionID] = clients
	}
	if old, ok := clients[userID]; ok {
		_ = old.conn.Close()
	}
	clients[userID] = c
	h.mu.Unlock()
	return c
}

// detach removes a connection, pruning the session bucket when emptied.
// Only the exact client is removed, so a replaced connection's deferred
// detach does not evict its successor.
func (h *Hub) detach(sessionID string, c *client) {
	h.mu.Lock()
	if clients, ok := h.sessions[sessionID]; ok {
		if cur, ok := clients[c.userID]; ok && cur == c {
			delete(clients, c.userID)
		}
		if len(clients) == 0 {
			delete(h.sessions, sessionID)
		}
	}
	h.mu.Unlock()
}

// setRoom records which room a user's connection is watching.
func (h *Hub) setRoom(sessionID, userID, room string) {
	h.mu.Lock()
	if clients, ok := h.sessions[sessionID]; ok {
		if c, ok := clients[userID]; ok {
			c.room = room
		}
	}
	h.mu.Unlock()
}

func (h *Hub) snapshot(sessionID string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]*client, 0, len(clients))
	for _, c := range clients {
		out = append(out, c)
	}
	return out
}

// BroadcastSession sends a frame to every connection in a session.
func (h *Hub) BroadcastSession(sessionID string, f *Frame) {
	for _, c := range h.snapshot(sessionID) {
		c.send(f)
	}
}

// BroadcastRoom sends a frame only to connections watching one room.
func (h *Hub) BroadcastRoom(sessionID, room string, f *Frame) {
	for _, c := range h.snapshot(sessionID) {
		if c.room == room {
			c.send(f)
		}
	}
}

// Send delivers a frame to a single user's connection, if present.
func (h *Hub) Send(sessionID, userID string, f *Frame) {
	h.mu.RLock()
	var c *client
	if clients, ok := h.sessions[sessionID]; ok {
		c = clients[userID]
	}
	h.mu.RUnlock()
	if c != nil {
		c.send(f)
	}
}

// BroadcastEvents fans out a batch of derived events session-wide.
// Narrative and clue events are scoped to the acting player's room, and
// entered/left notices to the room they name: players elsewhere should
// not read what they cannot see.
func (h *Hub) BroadcastEvents(sessionID, room string, events []session.Event) {
	for i := range events {
		ev := events[i]
		f := &Frame{Type: ev.Type, Event: &ev}
		switch ev.Type {
		case session.EventNarrative, session.EventClueFound:
			h.BroadcastRoom(sessionID, room, f)
		case session.EventPlayerEntered, session.EventPlayerLeft:
			h.BroadcastRoom(sessionID, ev.Room, f)
		default:
			h.BroadcastSession(sessionID, f)
		}
	}
}
