// internal/httpserver/routes_sessions.go
//
// HTTP routes for session lifecycle and gameplay.
// Exposes endpoints under /sessions:
//   - POST /sessions                    → create a session (creator hosts)
//   - GET  /sessions                    → list open sessions
//   - GET  /sessions/{id}               → roster + status
//   - POST /sessions/{id}/join          → join the lobby
//   - POST /sessions/{id}/leave         → leave (host hands off)
//   - POST /sessions/{id}/role          → pick a role
//   - POST /sessions/{id}/start         → host starts the game
//   - POST /sessions/{id}/move          → walk through an exit
//   - POST /sessions/{id}/choice        → choice + approach + verb
//   - POST /sessions/{id}/npc           → talk to a hub NPC
//   - POST /sessions/{id}/trick         → spend the role trick
//   - POST /sessions/{id}/finale        → submit the accusation
//   - POST /sessions/{id}/restore       → revive a stored session
//   - GET  /sessions/{id}/view          → per-player room view
//   - GET  /sessions/{id}/ws            → websocket upgrade
//
// Registered users play under their account; guests play under the
// anonymous cookie with a display name from the request body.

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fredrikpaulin/DUNGEONS/internal/engine"
	"github.com/fredrikpaulin/DUNGEONS/internal/session"
	"github.com/fredrikpaulin/DUNGEONS/internal/ws"
)

// mountSessionRoutes registers all /sessions routes.
func (s *Server) mountSessionRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionDetail)
			r.Post("/join", s.handleJoin)
			r.Post("/leave", s.handleLeave)
			r.Post("/role", s.handleSelectRole)
			r.Post("/start", s.handleStart)
			r.Post("/move", s.handleMove)
			r.Post("/choice", s.handleChoice)
			r.Post("/npc", s.handleTalk)
			r.Post("/trick", s.handleTrick)
			r.Post("/finale", s.handleFinale)
			r.Post("/restore", s.handleRestore)
			r.Get("/view", s.handleView)
			r.Get("/ws", s.handleWS)
		})
	})
}

// identity resolves who is acting: the authed account, or the anonymous
// cookie id with the caller-supplied display name.
func (s *Server) identity(w http.ResponseWriter, r *http.Request, name string) (string, string) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID, me.Username
	}
	if name == "" {
		name = "guest"
	}
	return s.ensureAnonID(w, r), name
}

// writeFailure maps a session failure onto an HTTP status and renders it.
func writeFailure(w http.ResponseWriter, err error) {
	f := session.AsFailure(err)
	status := http.StatusConflict
	if f.Code == session.CodeNotFound {
		status = http.StatusNotFound
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": f.Reason, "failure": f})
}

// broadcast fans derived events out to the session's connections.
func (s *Server) broadcast(sessionID, room string, events []session.Event) {
	if s.hub == nil || len(events) == 0 {
		return
	}
	s.hub.BroadcastEvents(sessionID, room, events)
}

// ----------------------------- adventures ----------------------------------

// handleListAdventures lists every loaded adventure.
func (s *Server) handleListAdventures(w http.ResponseWriter, r *http.Request) {
	type adventure struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Version    string `json:"version"`
		MinPlayers int    `json:"minPlayers"`
		MaxPlayers int    `json:"maxPlayers"`
	}
	out := []adventure{}
	for _, story := range s.sessions.Adventures() {
		out = append(out, adventure{
			ID:         story.Meta.ID,
			Title:      story.Meta.Title,
			Version:    story.Meta.Version,
			MinPlayers: story.MinPlayers(),
			MaxPlayers: story.MaxPlayers(),
		})
	}
	_ = json.NewEncoder(w).Encode(out)
}

// ------------------------------- lobby -------------------------------------

type createSessionReq struct {
	AdventureID string `json:"adventureId"`
	Name        string `json:"name"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	userID, userName := s.identity(w, r, req.Name)
	sess, err := s.sessions.Create(r.Context(), req.AdventureID, userID, userName)
	if err != nil {
		writeFailure(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": sess.ID, "adventureId": sess.AdventureID, "hostId": sess.HostID})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.sessions.List())
}

func (s *Server) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":          sess.ID,
		"adventureId": sess.AdventureID,
		"hostId":      sess.HostID,
		"status":      sess.Status,
		"members":     sess.Members,
	})
}

type joinReq struct {
	Name string `json:"name"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	userID, userName := s.identity(w, r, req.Name)
	id := chi.URLParam(r, "id")
	events, err := s.sessions.Join(r.Context(), id, userID, userName)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.broadcast(id, "", events)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "userId": userID})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.identity(w, r, "")
	id := chi.URLParam(r, "id")
	events, err := s.sessions.Leave(r.Context(), id, userID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.broadcast(id, "", events)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

type roleReq struct {
	Role string `json:"role"`
}

func (s *Server) handleSelectRole(w http.ResponseWriter, r *http.Request) {
	var req roleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	userID, _ := s.identity(w, r, "")
	id := chi.URLParam(r, "id")
	events, err := s.sessions.SelectRole(r.Context(), id, userID, req.Role)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.broadcast(id, "", events)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.identity(w, r, "")
	id := chi.URLParam(r, "id")
	events, err := s.sessions.Start(r.Context(), id, userID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.broadcast(id, "", events)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ------------------------------ gameplay -----------------------------------

type moveReq struct {
	Room string `json:"room"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	userID, _ := s.identity(w, r, "")
	id := chi.URLParam(r, "id")
	res, err := s.sessions.MovePlayer(r.Context(), id, userID, req.Room)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.broadcast(id, req.Room, res.Events)
	view, err := s.sessions.BuildRoomView(id, userID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"result": res, "view": view})
}

type choiceReq struct {
	Choice   string `json:"choice"`
	Approach string `json:"approach"`
	Verb     string `json:"verb"`
}

func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	var req choiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	userID, _ := s.identity(w, r, "")
	id := chi.URLParam(r, "id")
	report, err := s.sessions.DoChoice(r.Context(), id, userID, req.Choice, req.Approach, req.Verb)
	if err != nil {
		writeFailure(w, err)
		return
	}
	view, err := s.sessions.BuildRoomView(id, userID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.broadcast(id, view.Room, report.Events)
	_ = json.NewEncoder(w).Encode(map[string]any{"report": report, "view": view})
}

type talkReq struct {
	NPC string `json:"npc"`
}

func (s *Server) handleTalk(w http.ResponseWriter, r *http.Request) {
	var req talkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	userID, _ := s.identity(w, r, "")
	scene, err := s.sessions.TalkToNPC(r.Context(), chi.URLParam(r, "id"), userID, req.NPC)
	if err != nil {
		writeFailure(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(scene)
}

func (s *Server) handleTrick(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.identity(w, r, "")
	id := chi.URLParam(r, "id")
	res, err := s.sessions.UseTrick(r.Context(), id, userID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.broadcast(id, "", res.Events)
	_ = json.NewEncoder(w).Encode(res)
}

type finaleReq struct {
	Culprit string `json:"culprit"`
	Hideout string `json:"hideout"`
}

func (s *Server) handleFinale(w http.ResponseWriter, r *http.Request) {
	var req finaleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	userID, _ := s.identity(w, r, "")
	id := chi.URLParam(r, "id")
	report, err := s.sessions.DoFinale(r.Context(), id, userID, engine.FinaleAnswers{
		Culprit: req.Culprit,
		Hideout: req.Hideout,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if s.hub != nil {
		s.hub.BroadcastSession(id, &ws.Frame{Type: "finale", Finale: report})
	}
	// Record the outcome for every registered member.
	if sess, err := s.sessions.Get(id); err == nil {
		for _, m := range sess.Members {
			if _, err := s.findUserByID(m.UserID); err != nil {
				continue // guest
			}
			if err := s.bumpStats(m.UserID, report.Win); err != nil {
				log.Warn().Err(err).Str("user", m.UserID).Msg("bump stats")
			}
		}
	}
	_ = json.NewEncoder(w).Encode(report)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": sess.ID, "status": sess.Status})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.identity(w, r, "")
	view, err := s.sessions.BuildRoomView(chi.URLParam(r, "id"), userID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(view)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.identity(w, r, r.URL.Query().Get("name"))
	s.wsh.Handle(w, r, chi.URLParam(r, "id"), userID)
}
