// internal/ws/handler.go
//
// Per-connection protocol handling.
// Responsibilities:
//   - Upgrade HTTP requests and run the read loop for one player.
//   - Drive the three-step choice exchange: the client names a choice,
//     is prompted for an approach, then for a verb; only the complete
//     triple reaches the game.
//   - Translate session results into frames and fan events out via the hub.
//
// The partial choice lives only on the connection. Dropping the socket
// drops the half-made choice, never the game state.

package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fredrikpaulin/DUNGEONS/internal/engine"
	"github.com/fredrikpaulin/DUNGEONS/internal/session"
)

type clientMessage struct {
	Type     string `json:"type"`
	Room     string `json:"room,omitempty"`
	Choice   string `json:"choice,omitempty"`
	Approach string `json:"approach,omitempty"`
	Verb     string `json:"verb,omitempty"`
	NPC      string `json:"npc,omitempty"`
	Culprit  string `json:"culprit,omitempty"`
	Hideout  string `json:"hideout,omitempty"`
}

// Handler runs the websocket protocol against the session store.
type Handler struct {
	hub      *Hub
	sessions *session.Store
	upgrader websocket.Upgrader
}

// NewHandler constructs a Handler over a hub and the session store.
func NewHandler(hub *Hub, sessions *session.Store) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and runs the connection until it closes.
// The caller has already authenticated userID and checked membership.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request, sessionID, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("user", userID).Msg("ws upgrade failed")
		return
	}

	c := h.hub.attach(sessionID, userID, conn)
	defer func() {
		h.hub.detach(sessionID, c)
		_ = conn.Close()
	}()

	// Partial choice state for this connection only.
	var pendingChoice, pendingApproach string

	// Opening view, when the game is already underway.
	if view, err := h.sessions.BuildRoomView(sessionID, userID); err == nil {
		h.hub.setRoom(sessionID, userID, view.Room)
		c.send(&Frame{Type: "view", View: view})
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Debug().Err(err).Str("user", userID).Msg("malformed ws message")
			continue
		}

		switch msg.Type {
		case "view":
			h.sendView(c, sessionID, userID)

		case "move":
			pendingChoice, pendingApproach = "", ""
			res, err := h.sessions.MovePlayer(r.Context(), sessionID, userID, msg.Room)
			if err != nil {
				c.send(&Frame{Type: "error", Error: session.AsFailure(err)})
				continue
			}
			h.hub.setRoom(sessionID, userID, msg.Room)
			h.hub.BroadcastEvents(sessionID, msg.Room, res.Events)
			h.sendView(c, sessionID, userID)

		case "choice":
			sess, err := h.sessions.Get(sessionID)
			if err != nil {
				c.send(&Frame{Type: "error", Error: session.AsFailure(err)})
				continue
			}
			pendingChoice = msg.Choice
			pendingApproach = ""
			options := make([]string, 0, len(sess.Story.Config.Approaches))
			for _, a := range sess.Story.Config.Approaches {
				options = append(options, a.ID)
			}
			c.send(&Frame{Type: "approach_prompt", Prompt: "how do you go about it?", Options: options})

		case "approach":
			if pendingChoice == "" {
				c.send(&Frame{Type: "error", Error: session.AsFailure(errNoPendingChoice)})
				continue
			}
			sess, err := h.sessions.Get(sessionID)
			if err != nil {
				c.send(&Frame{Type: "error", Error: session.AsFailure(err)})
				continue
			}
			pendingApproach = msg.Approach
			c.send(&Frame{Type: "verb_prompt", Prompt: "with which word?", Options: sess.Story.Config.VerbMenu})

		case "verb":
			if pendingChoice == "" || pendingApproach == "" {
				c.send(&Frame{Type: "error", Error: session.AsFailure(errNoPendingChoice)})
				continue
			}
			choice, approach := pendingChoice, pendingApproach
			pendingChoice, pendingApproach = "", ""
			report, err := h.sessions.DoChoice(r.Context(), sessionID, userID, choice, approach, msg.Verb)
			if err != nil {
				c.send(&Frame{Type: "error", Error: session.AsFailure(err)})
				continue
			}
			c.send(&Frame{Type: "choice_result", Report: report})
			if view, err := h.sessions.BuildRoomView(sessionID, userID); err == nil {
				h.hub.setRoom(sessionID, userID, view.Room)
				h.hub.BroadcastEvents(sessionID, view.Room, report.Events)
				c.send(&Frame{Type: "view", View: view})
			}

		case "talk":
			scene, err := h.sessions.TalkToNPC(r.Context(), sessionID, userID, msg.NPC)
			if err != nil {
				c.send(&Frame{Type: "error", Error: session.AsFailure(err)})
				continue
			}
			c.send(&Frame{Type: "npc_scene", Scene: scene})

		case "trick":
			res, err := h.sessions.UseTrick(r.Context(), sessionID, userID)
			if err != nil {
				c.send(&Frame{Type: "error", Error: session.AsFailure(err)})
				continue
			}
			h.hub.BroadcastEvents(sessionID, "", res.Events)
			h.sendView(c, sessionID, userID)

		case "finale":
			report, err := h.sessions.DoFinale(r.Context(), sessionID, userID, engine.FinaleAnswers{
				Culprit: msg.Culprit,
				Hideout: msg.Hideout,
			})
			if err != nil {
				c.send(&Frame{Type: "error", Error: session.AsFailure(err)})
				continue
			}
			h.hub.BroadcastSession(sessionID, &Frame{Type: "finale", Finale: report})

		default:
			log.Debug().Str("type", msg.Type).Str("user", userID).Msg("unknown ws message type")
		}
	}
}

func (h *Handler) sendView(c *client, sessionID, userID string) {
	view, err := h.sessions.BuildRoomView(sessionID, userID)
	if err != nil {
		c.send(&Frame{Type: "error", Error: session.AsFailure(err)})
		return
	}
	c.send(&Frame{Type: "view", View: view})
}

var errNoPendingChoice = &session.Failure{
	Code:   session.CodePrecondition,
	Reason: "name a choice before an approach or verb",
}
