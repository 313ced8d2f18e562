// internal/engine/state.go
//
// GameState: the single authoritative snapshot of shared game progress.
// Responsibilities:
//   - Define GameState, Player, and the embedded record types.
//   - Construct the initial state from a story and a chosen secret.
//   - Provide the update helpers every other engine file builds on.
//
// Every transition produces a new GameState value from an old one. Helpers
// deep-clone before mutating; a no-op (unknown id, absent entity) returns
// the input state unchanged. Nothing here is safe for concurrent mutation —
// callers serialize access per session.

package engine

import (
	"sort"
	"time"

	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// Phase is the macro game phase. Monotonic: no transition ever loops back.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhaseLobby   Phase = "lobby"
	PhaseOpening Phase = "opening" // reserved, not reached in normal play
	PhasePlaying Phase = "playing"
	PhaseFinale  Phase = "finale"
	PhaseEpilog  Phase = "epilog"
	PhaseEnded   Phase = "ended"
)

// Phases lists every phase in transition order.
var Phases = []Phase{PhaseSetup, PhaseLobby, PhaseOpening, PhasePlaying, PhaseFinale, PhaseEpilog, PhaseEnded}

// Track is the live value of one bounded shared resource.
type Track struct {
	Value     int    `json:"value"`
	Min       int    `json:"min"`
	Max       int    `json:"max"`
	Direction string `json:"direction"`
	TriggerAt *int   `json:"triggerAt,omitempty"`
}

// Secret is the hidden solution chosen at session start. Immutable once
// the game is playing.
type Secret struct {
	Culprit         string            `json:"culprit"`
	Hideout         string            `json:"hideout"`
	ClueAssignments map[string]string `json:"clueAssignments"`
	RoomOverrides   map[string]string `json:"roomOverrides"`
}

// NPCState tracks per-NPC progress: how often the group has talked to
// them and which info tags they have revealed.
type NPCState struct {
	Visits   int      `json:"visits"`
	Revealed []string `json:"revealed"`
}

// ComplicationRecord logs one drawn complication for repeat avoidance.
type ComplicationRecord struct {
	ID   string `json:"id"`
	Turn int    `json:"turn"`
}

// FinaleCorrect reports which halves of a finale answer matched.
type FinaleCorrect struct {
	Culprit bool `json:"culprit"`
	Hideout bool `json:"hideout"`
}

// FinaleAnswers is a submitted accusation.
type FinaleAnswers struct {
	Culprit string `json:"culprit"`
	Hideout string `json:"hideout"`
}

// LogEntry is one record in the authoritative history. Type selects which
// optional fields are populated.
type LogEntry struct {
	Turn int    `json:"turn"`
	At   int64  `json:"at"` // unix milliseconds
	Type string `json:"type"`

	Text     string `json:"text,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Room     string `json:"room,omitempty"`
	Name     string `json:"name,omitempty"`
	ClueID   string `json:"clueId,omitempty"`
	ClueType string `json:"clueType,omitempty"`
	Phase    Phase  `json:"phase,omitempty"`
	Track    string `json:"track,omitempty"`
	Size     string `json:"size,omitempty"`
	NPC      string `json:"npc,omitempty"`

	Win     *bool          `json:"win,omitempty"`
	Correct *FinaleCorrect `json:"correct,omitempty"`
	Answers *FinaleAnswers `json:"answers,omitempty"`
}

// Player is one participant's in-game record. Created at session start,
// mutated throughout play, never deleted.
type Player struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Role          string         `json:"role"`
	Stats         map[string]int `json:"stats"`
	Conditions    []string       `json:"conditions"`
	Items         []string       `json:"items"`
	Trick         string         `json:"trick,omitempty"` // trick id, "" = none
	TrickUsed     bool           `json:"trickUsed"`
	IsLeader      bool           `json:"isLeader"`
	LeaderFlipped bool           `json:"leaderFlipped"`
	CurrentRoom   string         `json:"currentRoom,omitempty"`
	PreviousRoom  string         `json:"previousRoom,omitempty"`
}

// GameState is the single source of truth for one running session.
type GameState struct {
	Phase        Phase    `json:"phase"`
	HubVisits    int      `json:"hubVisits"`
	ZonesVisited []string `json:"zonesVisited"`

	Tracks map[string]Track `json:"tracks"`
	Tokens map[string]int   `json:"tokens"`

	Players map[string]*Player `json:"players"`

	CluesFound      []string `json:"cluesFound"`
	BonusCluesFound []string `json:"bonusCluesFound"`
	ItemPool        []string `json:"itemPool"`

	Secret Secret `json:"secret"`

	NPCState map[string]*NPCState `json:"npcState"`

	ComplicationHistory []ComplicationRecord `json:"complicationHistory"`

	Log       []LogEntry `json:"log"`
	TurnCount int        `json:"turnCount"`
}

// nowMillis is swapped out by tests that need stable log timestamps.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// NewPlayer builds a fresh player record.
func NewPlayer(id, name, role string, stats map[string]int, trick string) *Player {
	copied := make(map[string]int, len(stats))
	for k, v := range stats {
		copied[k] = v
	}
	return &Player{
		ID:         id,
		Name:       name,
		Role:       role,
		Stats:      copied,
		Conditions: []string{},
		Items:      []string{},
		Trick:      trick,
	}
}

// NewGameState builds the initial state for a story under a chosen secret.
// A nil combo yields the "unsolved" placeholder secret: empty culprit and
// hideout, so any finale answer loses.
func NewGameState(s *story.Story, combo *story.Combination, players map[string]*Player) *GameState {
	tracks := make(map[string]Track, len(s.Config.Tracks))
	for _, def := range s.Config.Tracks {
		var trig *int
		if def.TriggerAt != nil {
			v := *def.TriggerAt
			trig = &v
		}
		tracks[def.ID] = Track{Value: def.Start, Min: def.Min, Max: def.Max, Direction: def.Direction, TriggerAt: trig}
	}

	tokens := make(map[string]int, len(s.Config.Tokens))
	for _, def := range s.Config.Tokens {
		tokens[def.ID] = def.Pool
	}

	pool := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		pool = append(pool, it.ID)
	}

	secret := Secret{ClueAssignments: map[string]string{}, RoomOverrides: map[string]string{}}
	if combo != nil {
		secret.Culprit = combo.Culprit
		secret.Hideout = combo.Hideout
		for k, v := range combo.ClueAssignments {
			secret.ClueAssignments[k] = v
		}
		for k, v := range combo.RoomOverrides {
			secret.RoomOverrides[k] = v
		}
	}

	npcs := make(map[string]*NPCState, len(s.NPCs))
	for _, n := range s.NPCs {
		npcs[n.ID] = &NPCState{Revealed: []string{}}
	}

	if players == nil {
		players = map[string]*Player{}
	}

	return &GameState{
		Phase:               PhaseSetup,
		ZonesVisited:        []string{},
		Tracks:              tracks,
		Tokens:              tokens,
		Players:             players,
		CluesFound:          []string{},
		BonusCluesFound:     []string{},
		ItemPool:            pool,
		Secret:              secret,
		NPCState:            npcs,
		ComplicationHistory: []ComplicationRecord{},
		Log:                 []LogEntry{},
	}
}

// Clone returns a deep copy. The copy shares nothing mutable with the
// original, so mutating it cannot be observed through old references.
func (s *GameState) Clone() *GameState {
	next := *s

	next.ZonesVisited = append([]string(nil), s.ZonesVisited...)
	next.CluesFound = append([]string(nil), s.CluesFound...)
	next.BonusCluesFound = append([]string(nil), s.BonusCluesFound...)
	next.ItemPool = append([]string(nil), s.ItemPool...)
	next.ComplicationHistory = append([]ComplicationRecord(nil), s.ComplicationHistory...)
	next.Log = append([]LogEntry(nil), s.Log...)

	next.Tracks = make(map[string]Track, len(s.Tracks))
	for id, t := range s.Tracks {
		if t.TriggerAt != nil {
			v := *t.TriggerAt
			t.TriggerAt = &v
		}
		next.Tracks[id] = t
	}

	next.Tokens = make(map[string]int, len(s.Tokens))
	for id, v := range s.Tokens {
		next.Tokens[id] = v
	}

	next.Players = make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		next.Players[id] = p.clone()
	}

	next.NPCState = make(map[string]*NPCState, len(s.NPCState))
	for id, n := range s.NPCState {
		next.NPCState[id] = &NPCState{Visits: n.Visits, Revealed: append([]string(nil), n.Revealed...)}
	}

	next.Secret.ClueAssignments = make(map[string]string, len(s.Secret.ClueAssignments))
	for k, v := range s.Secret.ClueAssignments {
		next.Secret.ClueAssignments[k] = v
	}
	next.Secret.RoomOverrides = make(map[string]string, len(s.Secret.RoomOverrides))
	for k, v := range s.Secret.RoomOverrides {
		next.Secret.RoomOverrides[k] = v
	}

	return &next
}

func (p *Player) clone() *Player {
	next := *p
	next.Stats = make(map[string]int, len(p.Stats))
	for k, v := range p.Stats {
		next.Stats[k] = v
	}
	next.Conditions = append([]string(nil), p.Conditions...)
	next.Items = append([]string(nil), p.Items...)
	return &next
}

// --------------------------- update helpers --------------------------------

// UpdateTrack applies a delta to a track, clamping to [min,max]. Unknown
// track ids are a tolerated no-op: effects reference tracks by free-form id.
func UpdateTrack(s *GameState, trackID string, delta int) *GameState {
	t, ok := s.Tracks[trackID]
	if !ok {
		return s
	}
	v := t.Value + delta
	if v < t.Min {
		v = t.Min
	}
	if v > t.Max {
		v = t.Max
	}
	next := s.Clone()
	t.Value = v
	next.Tracks[trackID] = t
	return next
}

// UpdateToken applies a delta to a token pool, clamping at zero. Unknown
// token ids are a no-op.
func UpdateToken(s *GameState, tokenID string, delta int) *GameState {
	cur, ok := s.Tokens[tokenID]
	if !ok {
		return s
	}
	v := cur + delta
	if v < 0 {
		v = 0
	}
	next := s.Clone()
	next.Tokens[tokenID] = v
	return next
}

// AddLogEntry appends an entry stamped with the current turn and time.
func AddLogEntry(s *GameState, entry LogEntry) *GameState {
	entry.Turn = s.TurnCount
	entry.At = nowMillis()
	next := s.Clone()
	next.Log = append(next.Log, entry)
	return next
}

// SetPhase moves the game to a new macro phase.
func SetPhase(s *GameState, phase Phase) *GameState {
	next := s.Clone()
	next.Phase = phase
	return next
}

// SetPlayerRoom positions a player, recording their previous room and
// bumping the turn counter. Entering a hub-zone room also counts a hub
// visit for reveal predicates and NPC scene keys.
func SetPlayerRoom(s *GameState, playerID, roomID, zone string) *GameState {
	p, ok := s.Players[playerID]
	if !ok {
		return s
	}
	next := s.Clone()
	np := next.Players[playerID]
	np.PreviousRoom = p.CurrentRoom
	np.CurrentRoom = roomID
	next.TurnCount++
	if zone == "hub" {
		next.HubVisits++
	}
	return next
}

// PlayersInRoom returns every player currently positioned in roomID,
// in stable id order.
func PlayersInRoom(s *GameState, roomID string) []*Player {
	var out []*Player
	for _, id := range sortedPlayerIDs(s) {
		if p := s.Players[id]; p.CurrentRoom == roomID {
			out = append(out, p)
		}
	}
	return out
}

// UpdatePlayer applies fn to a copy of one player. Unknown ids no-op.
func UpdatePlayer(s *GameState, playerID string, fn func(*Player)) *GameState {
	if _, ok := s.Players[playerID]; !ok {
		return s
	}
	next := s.Clone()
	fn(next.Players[playerID])
	return next
}

// RecordZoneVisit marks a zone as entered by the group. Idempotent.
func RecordZoneVisit(s *GameState, zone string) *GameState {
	for _, z := range s.ZonesVisited {
		if z == zone {
			return s
		}
	}
	next := s.Clone()
	next.ZonesVisited = append(next.ZonesVisited, zone)
	return next
}

// Leader returns the current leader's id, or "" when nobody is marked.
func Leader(s *GameState) string {
	for _, id := range sortedPlayerIDs(s) {
		if s.Players[id].IsLeader {
			return id
		}
	}
	return ""
}

func sortedPlayerIDs(s *GameState) []string {
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
