// internal/session/store.go
//
// Session lifecycle and gameplay entry points.
// Responsibilities:
//   - Hold every live session in memory and serialize access per session.
//   - Lobby management: create, join, leave, role selection, start.
//   - Gameplay: movement, choices, NPC talks, tricks, the finale.
//   - Persist after every mutation and restore sessions from the repository.
//
// The store owns concurrency; the engine beneath it is pure. Each session
// has its own mutex so two sessions never contend, and every public method
// locks exactly one session for its whole duration.

package session

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fredrikpaulin/DUNGEONS/internal/engine"
	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// Coarse session status, tracked alongside the finer engine phase.
const (
	StatusLobby   = "lobby"
	StatusPlaying = "playing"
	StatusEnded   = "ended"
)

// Session is one live game: roster, static content, and engine state.
type Session struct {
	ID          string
	AdventureID string
	Story       *story.Story
	HostID      string
	Status      string
	Members     []*Member
	Game        *engine.GameState
	CreatedAt   int64

	mu sync.Mutex
}

func (s *Session) member(userID string) *Member {
	for _, m := range s.Members {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}

// record snapshots the session for persistence. Static content is kept
// out; the adventure id is enough to re-attach it on restore.
func (s *Session) record() *Record {
	members := make([]Member, len(s.Members))
	for i, m := range s.Members {
		members[i] = *m
	}
	return &Record{
		ID:          s.ID,
		AdventureID: s.AdventureID,
		HostID:      s.HostID,
		Phase:       s.Status,
		Members:     members,
		Game:        s.Game,
		CreatedAt:   s.CreatedAt,
	}
}

// Store manages every live session.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	adventures map[string]*story.Story
	repo       Repository

	// rng drives secret and complication picks. nil selects
	// deterministically (first candidate), which tests rely on.
	rng *rand.Rand
}

// NewStore builds a Store over a loaded adventure library and a session
// repository. Pass a nil rng for deterministic selection.
func NewStore(adventures map[string]*story.Story, repo Repository, rng *rand.Rand) *Store {
	if repo == nil {
		repo = NewMemoryRepository()
	}
	return &Store{
		sessions:   make(map[string]*Session),
		adventures: adventures,
		repo:       repo,
		rng:        rng,
	}
}

// Adventure returns the loaded story for an adventure id, or nil.
func (st *Store) Adventure(id string) *story.Story {
	return st.adventures[id]
}

// Adventures lists every loaded adventure, sorted by id.
func (st *Store) Adventures() []*story.Story {
	out := make([]*story.Story, 0, len(st.adventures))
	for _, s := range st.adventures {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta.ID < out[j].Meta.ID })
	return out
}

// storeNow is swapped out by tests that need stable timestamps.
var storeNow = func() int64 { return time.Now().UnixMilli() }

// persist writes the session record. Persistence failures are logged and
// swallowed: in-memory state stays authoritative and a later mutation
// retries naturally.
func (st *Store) persist(ctx context.Context, s *Session) {
	if err := st.repo.Save(ctx, s.record()); err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("session persist failed")
	}
}

// Create opens a new session in the lobby with the creator as host.
func (st *Store) Create(ctx context.Context, adventureID, hostID, hostName string) (*Session, error) {
	adv, ok := st.adventures[adventureID]
	if !ok {
		return nil, notFound("unknown adventure: " + adventureID)
	}

	sess := &Session{
		ID:          uuid.NewString(),
		AdventureID: adventureID,
		Story:       adv,
		HostID:      hostID,
		Status:      StatusLobby,
		Members:     []*Member{{UserID: hostID, UserName: hostName}},
		CreatedAt:   storeNow(),
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	st.persist(ctx, sess)
	log.Info().Str("session", sess.ID).Str("adventure", adventureID).Msg("session created")
	return sess, nil
}

// Get returns a live session by id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.sessions[id]; ok {
		return s, nil
	}
	f := notFound("unknown session")
	f.Session = id
	return nil, f
}

// Info is the listing projection of one session.
type Info struct {
	ID          string `json:"id"`
	AdventureID string `json:"adventureId"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Players     int    `json:"players"`
	MaxPlayers  int    `json:"maxPlayers"`
	CreatedAt   int64  `json:"createdAt"`
}

// List summarizes every live session, newest first.
func (st *Store) List() []Info {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Info, 0, len(st.sessions))
	for _, s := range st.sessions {
		s.mu.Lock()
		out = append(out, Info{
			ID:          s.ID,
			AdventureID: s.AdventureID,
			Title:       s.Story.Meta.Title,
			Status:      s.Status,
			Players:     len(s.Members),
			MaxPlayers:  s.Story.MaxPlayers(),
			CreatedAt:   s.CreatedAt,
		})
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Join adds a user to a lobby. Joining a session you are already in is
// a no-op success, so reconnecting clients can always re-join.
func (st *Store) Join(ctx context.Context, id, userID, userName string) ([]Event, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.member(userID) != nil {
		return nil, nil
	}
	if s.Status != StatusLobby {
		return nil, precondition("session already started")
	}
	if len(s.Members) >= s.Story.MaxPlayers() {
		return nil, precondition("session is full")
	}

	s.Members = append(s.Members, &Member{UserID: userID, UserName: userName})
	st.persist(ctx, s)
	return []Event{{Type: EventPlayerJoined, PlayerID: userID, PlayerName: userName}}, nil
}

// Leave removes a user. The host role passes to the longest-standing
// remaining member; an emptied session is discarded entirely.
func (st *Store) Leave(ctx context.Context, id, userID string) ([]Event, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, m := range s.Members {
		if m.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, notFound("not a session member")
	}

	left := s.Members[idx]
	s.Members = append(s.Members[:idx], s.Members[idx+1:]...)

	if len(s.Members) == 0 {
		st.mu.Lock()
		delete(st.sessions, id)
		st.mu.Unlock()
		if err := st.repo.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("session delete failed")
		}
		return nil, nil
	}

	if s.HostID == userID {
		s.HostID = s.Members[0].UserID
	}
	st.persist(ctx, s)
	return []Event{{Type: EventPlayerDeparted, PlayerID: userID, PlayerName: left.UserName}}, nil
}

// SelectRole assigns an adventure role to a member. Roles are exclusive
// within a session; picking one marks the member ready.
func (st *Store) SelectRole(ctx context.Context, id, userID, roleID string) ([]Event, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusLobby {
		return nil, precondition("roles are fixed once the session starts")
	}
	m := s.member(userID)
	if m == nil {
		return nil, notFound("not a session member")
	}
	if s.Story.RoleDef(roleID) == nil {
		return nil, notFound("unknown role: " + roleID)
	}
	for _, other := range s.Members {
		if other.UserID != userID && other.Role == roleID {
			return nil, precondition("role already taken")
		}
	}

	m.Role = roleID
	m.Ready = true
	st.persist(ctx, s)
	return []Event{{Type: EventRoleSelected, PlayerID: userID, PlayerName: m.UserName, Role: roleID}}, nil
}

// pickCombination chooses the session's hidden solution. With no authored
// combinations the placeholder secret stands and every accusation loses.
func (st *Store) pickCombination(s *story.Story) *story.Combination {
	combos := s.Secrets.Combinations
	if len(combos) == 0 {
		return nil
	}
	i := 0
	if st.rng != nil {
		i = st.rng.Intn(len(combos))
	}
	return &combos[i]
}

// Start begins play: host-only, needs the lobby minimum met and a role on
// every member. It draws the secret, builds the party, and walks everyone
// into the start room.
func (st *Store) Start(ctx context.Context, id, userID string) ([]Event, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusLobby {
		return nil, precondition("session already started")
	}
	if userID != s.HostID {
		return nil, precondition("only the host can start the session")
	}
	if len(s.Members) < s.Story.MinPlayers() {
		return nil, precondition("not enough players")
	}
	for _, m := range s.Members {
		if m.Role == "" {
			return nil, precondition("every player must pick a role first")
		}
	}

	players := make(map[string]*engine.Player, len(s.Members))
	for _, m := range s.Members {
		trick := ""
		if role := s.Story.RoleDef(m.Role); role != nil && len(role.Tricks) > 0 {
			trick = role.Tricks[0].ID
		}
		p := engine.NewPlayer(m.UserID, m.UserName, m.Role, engine.DefaultStatValues(s.Story.Config.Stats), trick)
		p.IsLeader = m.UserID == s.HostID
		players[m.UserID] = p
	}

	game := engine.NewGameState(s.Story, st.pickCombination(s.Story), players)
	game = engine.TransitionPhase(game, engine.PhasePlaying)
	for _, m := range s.Members {
		game = engine.EnterHub(game, m.UserID, s.Story, engine.EnterOpts{})
	}

	s.Game = game
	s.Status = StatusPlaying
	st.persist(ctx, s)
	log.Info().Str("session", s.ID).Int("players", len(s.Members)).Msg("session started")
	return []Event{{Type: EventSessionStarted}}, nil
}

// ActionResult is the shared shape of gameplay responses: derived events
// plus whether the group may now call the finale.
type ActionResult struct {
	Events      []Event `json:"events,omitempty"`
	FinaleReady bool    `json:"finaleReady"`
}

// canReach reports whether roomID is an exit of the player's current room.
func canReach(s *story.Story, p *engine.Player, roomID string) bool {
	cur := s.Room(p.CurrentRoom)
	if cur == nil {
		return roomID == s.StartRoom()
	}
	for _, exit := range cur.Exits {
		if exit.Target == roomID {
			return true
		}
	}
	return false
}

// MovePlayer walks one player through an exit into an adjacent room.
func (st *Store) MovePlayer(ctx context.Context, id, userID, roomID string) (*ActionResult, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p, err := st.lockedPlaying(s, userID)
	if err != nil {
		return nil, err
	}

	room := s.Story.Room(roomID)
	if room == nil {
		f := notFound("unknown room")
		f.Room = roomID
		return nil, f
	}
	if !canReach(s.Story, p, roomID) {
		f := precondition("no exit leads there")
		f.Room = roomID
		return nil, f
	}

	before := s.Game
	since := len(before.Log)
	from := p.CurrentRoom
	game := engine.EnterRoom(before, userID, roomID, s.Story, engine.EnterOpts{})
	if zone := room.Zone; zone != "" && zone != "hub" {
		game = engine.RecordZoneVisit(game, zone)
	}
	s.Game = game

	var events []Event
	if from != "" && from != roomID {
		events = append(events, Event{Type: EventPlayerLeft, PlayerID: userID, PlayerName: p.Name, Room: from})
	}
	events = append(events, Event{Type: EventPlayerEntered, PlayerID: userID, PlayerName: p.Name, Room: roomID})
	events = append(events, collectEvents(game, s.Story, since, userID)...)
	events = append(events, diffConditionEvents(before, game)...)
	events = append(events, diffTrackEvents(before, game)...)
	st.persist(ctx, s)
	return &ActionResult{Events: events, FinaleReady: engine.ShouldTriggerFinale(game, s.Story)}, nil
}

// lockedPlaying is playingSession for callers already holding s.mu.
func (st *Store) lockedPlaying(s *Session, userID string) (*Session, *engine.Player, error) {
	if s.Status != StatusPlaying {
		f := precondition("session is not in play")
		f.Session = s.ID
		return nil, nil, f
	}
	p, ok := s.Game.Players[userID]
	if !ok {
		return nil, nil, notFound("not a session member")
	}
	return s, p, nil
}

// ChoiceReport is the response to a resolved choice.
type ChoiceReport struct {
	ActionResult
	Narrative    string `json:"narrative,omitempty"`
	VerbApt      bool   `json:"verbApt"`
	Complication string `json:"complication,omitempty"` // complication id, "" when none fired
}

// DoChoice resolves one player's choice with its approach and verb, in
// the room they are standing in. A staged complication is materialized
// here: the concrete complication is selected against the session history,
// recorded, narrated, and its effects applied to the acting player.
func (st *Store) DoChoice(ctx context.Context, id, userID, choiceID, approachID, verb string) (*ChoiceReport, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p, err := st.lockedPlaying(s, userID)
	if err != nil {
		return nil, err
	}

	before := s.Game
	since := len(before.Log)
	roomID := p.CurrentRoom

	game, outcome := engine.ProcessChoice(before, userID, roomID, choiceID, approachID, verb, s.Story, engine.EnterOpts{})
	if outcome == nil {
		f := notFound("unknown choice")
		f.Room = roomID
		f.Choice = choiceID
		return nil, f
	}

	report := &ChoiceReport{Narrative: outcome.Narrative, VerbApt: outcome.VerbApt}

	if size := outcome.StagedComplication; size != "" {
		comp := engine.SelectComplicationRandom(s.Story, size, game.ComplicationHistory, st.rng)
		if comp != nil {
			game = engine.RecordComplication(game, comp.ID)
			if comp.Narrative != "" {
				game = engine.AddLogEntry(game, engine.LogEntry{Type: "narrative", Text: comp.Narrative, PlayerID: userID})
			}
			game, _ = engine.ApplyEffects(game, comp.Effects, s.Story, engine.Context{PlayerID: userID})
			report.Complication = comp.ID
		}
	}

	s.Game = game
	report.Events = collectEvents(game, s.Story, since, userID)
	report.Events = append(report.Events, diffConditionEvents(before, game)...)
	report.Events = append(report.Events, diffTrackEvents(before, game)...)
	report.FinaleReady = engine.ShouldTriggerFinale(game, s.Story)
	st.persist(ctx, s)
	return report, nil
}

// NpcScene is the response to talking with an NPC: the scene played plus
// any info tags it newly revealed.
type NpcScene struct {
	NPC       string   `json:"npc"`
	Name      string   `json:"name"`
	Narrative string   `json:"narrative"`
	Reveals   []string `json:"reveals,omitempty"`
	Visits    int      `json:"visits"`
}

// TalkToNPC plays the next scene for a hub NPC. Scenes advance with the
// visit count; past the authored run the NPC has nothing new to say.
func (st *Store) TalkToNPC(ctx context.Context, id, userID, npcID string) (*NpcScene, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p, err := st.lockedPlaying(s, userID)
	if err != nil {
		return nil, err
	}

	npc := s.Story.NPCDef(npcID)
	if npc == nil {
		f := notFound("unknown npc")
		f.NPC = npcID
		return nil, f
	}
	if room := s.Story.Room(p.CurrentRoom); room == nil || room.Zone != "hub" {
		f := precondition("npcs can only be approached from the hub")
		f.NPC = npcID
		return nil, f
	}

	game := engine.VisitNpc(s.Game, npcID)
	visits := game.NPCState[npcID].Visits

	scene := engine.GetNpcScene(npc, visits, game)
	out := &NpcScene{NPC: npcID, Name: npc.Name, Visits: visits}
	if scene != nil {
		out.Narrative = scene.Narrative
		for _, info := range scene.Reveals {
			already := false
			for _, r := range game.NPCState[npcID].Revealed {
				if r == info {
					already = true
					break
				}
			}
			game = engine.RevealNpcInfo(game, npcID, info)
			if !already {
				out.Reveals = append(out.Reveals, info)
			}
		}
		game = engine.AddLogEntry(game, engine.LogEntry{Type: "npc_talk", PlayerID: userID, NPC: npcID})
	}

	s.Game = game
	st.persist(ctx, s)
	return out, nil
}

// UseTrick spends the player's role trick, subject to its use-count rule.
func (st *Store) UseTrick(ctx context.Context, id, userID string) (*ActionResult, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p, err := st.lockedPlaying(s, userID)
	if err != nil {
		return nil, err
	}

	trick := engine.PlayerTrick(p, s.Story)
	if trick == nil {
		return nil, precondition("no trick to use")
	}
	if !engine.CanUseTrick(p, trick, s.Game) {
		return nil, precondition("trick is spent")
	}

	game := engine.UseTrick(s.Game, userID)
	game = engine.AddLogEntry(game, engine.LogEntry{Type: "trick_used", PlayerID: userID, Name: trick.ID})
	s.Game = game
	st.persist(ctx, s)
	return &ActionResult{FinaleReady: engine.ShouldTriggerFinale(game, s.Story)}, nil
}

// FinaleReport is the outcome of a submitted accusation.
type FinaleReport struct {
	Win      bool                 `json:"win"`
	Correct  engine.FinaleCorrect `json:"correct"`
	Epilogue string               `json:"epilogue"`
	Events   []Event              `json:"events,omitempty"`
}

// DoFinale submits the group's accusation and ends the session. Any
// member may submit, but only once the finale condition holds.
func (st *Store) DoFinale(ctx context.Context, id, userID string, answers engine.FinaleAnswers) (*FinaleReport, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _, err = st.lockedPlaying(s, userID)
	if err != nil {
		return nil, err
	}
	if !engine.ShouldTriggerFinale(s.Game, s.Story) {
		return nil, precondition("the finale is not yet in reach")
	}

	game := engine.TransitionPhase(s.Game, engine.PhaseFinale)
	game, result := engine.ResolveFinale(game, answers, s.Story)
	game = engine.TransitionPhase(game, engine.PhaseEnded)
	s.Game = game
	s.Status = StatusEnded

	epilogue := ""
	if ep, ok := s.Story.Epilogues[result.EpilogueID]; ok {
		epilogue = ep.Narrative
	} else if result.Win {
		epilogue = s.Story.Strings["epilogue_win_default"]
	} else {
		epilogue = s.Story.Strings["epilogue_loss_default"]
	}

	st.persist(ctx, s)
	log.Info().Str("session", s.ID).Bool("win", result.Win).Msg("session finished")

	ev := Event{Type: EventGameOver, Epilogue: result.EpilogueID, Text: epilogue}
	return &FinaleReport{
		Win:      result.Win,
		Correct:  result.Correct,
		Epilogue: epilogue,
		Events:   []Event{ev},
	}, nil
}

// Save flushes one session to the repository on demand.
func (st *Store) Save(ctx context.Context, id string) error {
	s, err := st.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return st.repo.Save(ctx, s.record())
}

// Restore rebuilds a live session from its persisted record. The stored
// snapshot carries the full roster and GameState; only the static story
// needs re-attaching. Restoring a session that is already live replaces it.
func (st *Store) Restore(ctx context.Context, id string) (*Session, error) {
	rec, err := st.repo.Load(ctx, id)
	if err != nil {
		if err == ErrRecordNotFound {
			f := notFound("no stored session")
			f.Session = id
			return nil, f
		}
		return nil, err
	}

	adv, ok := st.adventures[rec.AdventureID]
	if !ok {
		return nil, notFound("stored session references unknown adventure: " + rec.AdventureID)
	}

	members := make([]*Member, len(rec.Members))
	for i := range rec.Members {
		m := rec.Members[i]
		members[i] = &m
	}

	sess := &Session{
		ID:          rec.ID,
		AdventureID: rec.AdventureID,
		Story:       adv,
		HostID:      rec.HostID,
		Status:      rec.Phase,
		Members:     members,
		Game:        rec.Game,
		CreatedAt:   rec.CreatedAt,
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	log.Info().Str("session", sess.ID).Str("adventure", sess.AdventureID).Msg("session restored")
	return sess, nil
}
