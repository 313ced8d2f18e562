// internal/engine/machine.go
//
// The room/phase state machine: per-player room entry, choice processing,
// macro phase transitions, and finale resolution.
//
// Phases run setup → lobby → opening → playing → finale → epilog → ended.
// Room entry is per player: participants roam the graph independently
// while sharing one state.

package engine

import (
	"strings"

	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// EnterOpts tweaks room entry.
type EnterOpts struct {
	SkipClue bool // suppress automatic clue selection (e.g. for previews)
}

// TransitionPhase moves the game to a new phase and logs the change.
func TransitionPhase(state *GameState, phase Phase) *GameState {
	next := SetPhase(state, phase)
	return AddLogEntry(next, LogEntry{Type: "phase", Phase: phase})
}

// EnterRoom performs one player's room entry. Unknown rooms are a no-op.
// Order matters: the player is positioned and the entry logged, then the
// room's on-enter effects run (their narrative should describe the room
// before its rewards), then clue selection, then automatic item grants.
// Directives staged by on-enter effects are discarded; only ProcessChoice
// consumes them.
func EnterRoom(state *GameState, playerID, roomID string, s *story.Story, opts EnterOpts) *GameState {
	room := s.Room(roomID)
	if room == nil {
		return state
	}

	cur := SetPlayerRoom(state, playerID, roomID, room.Zone)
	if cur == state {
		// unknown player
		return state
	}
	cur = AddLogEntry(cur, LogEntry{Type: "enter_room", PlayerID: playerID, Room: roomID, Name: room.Name})

	ctx := Context{PlayerID: playerID}

	if len(room.OnEnter) > 0 {
		cur, _ = ApplyEffects(cur, room.OnEnter, s, ctx)
	}

	if !opts.SkipClue && room.Clue != nil && len(room.Clue.Pool) > 0 {
		if clueID := SelectClue(room, cur); clueID != "" {
			clueType := room.Clue.Type
			if clueType == "" {
				clueType = "core"
			}
			cur, _ = ApplyEffects(cur, []story.Effect{{Type: EffectClue, Action: clueType, ID: clueID}}, s, ctx)
			cur = AddLogEntry(cur, LogEntry{Type: "clue_found", PlayerID: playerID, ClueID: clueID, ClueType: clueType})
		}
	}

	if room.Items != nil {
		if room.Items.Guaranteed != "" {
			cur, _ = ApplyEffects(cur, []story.Effect{{Type: EffectItem, Action: "add", ID: room.Items.Guaranteed}}, s, ctx)
		}
		if room.Items.Draw > 0 {
			cur, _ = ApplyEffects(cur, []story.Effect{{Type: EffectItem, Action: "draw", Count: room.Items.Draw}}, s, ctx)
		}
	}

	return cur
}

// EnterHub moves a player to the adventure's start room.
func EnterHub(state *GameState, playerID string, s *story.Story, opts EnterOpts) *GameState {
	return EnterRoom(state, playerID, s.StartRoom(), s, opts)
}

// ChoiceOutcome is what ProcessChoice hands back to the session layer.
type ChoiceOutcome struct {
	ChoiceResult
	// StagedComplication is the size of the complication to materialize,
	// "" when none was staged. The session layer selects the concrete
	// instance and applies its effects; the machine only flags it.
	StagedComplication string
}

// ProcessChoice resolves and applies one player's choice. After the effect
// batch runs, every applied track effect is checked for a trigger on its
// clamped value; triggered tracks apply their authored trigger batch with a
// distinct log entry. A staged goto (preferred) or the choice's static
// target then re-enters the destination for the acting player only.
// Unknown room or choice ids return the state unchanged and a nil outcome.
func ProcessChoice(state *GameState, playerID, roomID, choiceID, approachID, verb string, s *story.Story, opts EnterOpts) (*GameState, *ChoiceOutcome) {
	room := s.Room(roomID)
	if room == nil {
		return state, nil
	}

	result := ResolveChoice(state, room, choiceID, approachID, verb, s)
	if result == nil {
		return state, nil
	}

	ctx := Context{PlayerID: playerID}
	cur, pending := ApplyEffects(state, result.Effects, s, ctx)

	for _, e := range result.Effects {
		if e.Type != EffectTrack {
			continue
		}
		t, ok := cur.Tracks[e.Track]
		if !ok || !IsTriggered(t) {
			continue
		}
		triggerFx := TriggerEffects(s, e.Track)
		if len(triggerFx) == 0 {
			continue
		}
		var p Pending
		cur, p = ApplyEffects(cur, triggerFx, s, ctx)
		if p.GotoRoom != "" {
			pending.GotoRoom = p.GotoRoom
		}
		if p.Complication != "" {
			pending.Complication = p.Complication
		}
		cur = AddLogEntry(cur, LogEntry{Type: "track_trigger", Track: e.Track})
	}

	if pending.GotoRoom != "" {
		cur = EnterRoom(cur, playerID, pending.GotoRoom, s, opts)
	} else if result.Target != "" && result.Target != roomID {
		cur = EnterRoom(cur, playerID, result.Target, s, opts)
	}

	outcome := &ChoiceOutcome{ChoiceResult: *result}
	if result.Complication || pending.Complication != "" {
		size := pending.Complication
		if size == "" {
			size = "small"
		}
		outcome.StagedComplication = size
		cur = AddLogEntry(cur, LogEntry{Type: "complication", PlayerID: playerID, Size: size})
	}

	return cur, outcome
}

// dungeonZones collects every zone name with the "dungeon" prefix.
func dungeonZones(s *story.Story) []string {
	seen := map[string]bool{}
	var zones []string
	for _, r := range s.Rooms {
		if strings.HasPrefix(r.Zone, "dungeon") && !seen[r.Zone] {
			seen[r.Zone] = true
			zones = append(zones, r.Zone)
		}
	}
	return zones
}

// AllDungeonsVisited reports whether every dungeon-prefixed zone has had
// at least one room entered by any player.
func AllDungeonsVisited(state *GameState, s *story.Story) bool {
	visited := make(map[string]bool, len(state.ZonesVisited))
	for _, z := range state.ZonesVisited {
		visited[z] = true
	}
	for _, z := range dungeonZones(s) {
		if !visited[z] {
			return false
		}
	}
	return true
}

// ShouldTriggerFinale is true once every dungeon zone has been entered,
// or once the weather budget has run down to its minimum. Either alone
// suffices.
func ShouldTriggerFinale(state *GameState, s *story.Story) bool {
	if AllDungeonsVisited(state, s) {
		return true
	}
	if t, ok := state.Tracks[restTrack]; ok && t.Value <= t.Min {
		return true
	}
	return false
}

// FinaleResult reports the outcome of a submitted accusation.
type FinaleResult struct {
	Win        bool
	Correct    FinaleCorrect
	EpilogueID string
}

// ResolveFinale compares the submitted answers against the secret. A win
// needs both halves exact, and plays the matched solution combination's
// own epilogue (falling back to "win"); anything else plays "loss". The
// phase moves to epilog and the result is logged either way.
//
// An unsolved placeholder secret (no authored combinations) has empty
// halves; those never match anything, so every accusation loses.
func ResolveFinale(state *GameState, answers FinaleAnswers, s *story.Story) (*GameState, FinaleResult) {
	correct := FinaleCorrect{
		Culprit: state.Secret.Culprit != "" && answers.Culprit == state.Secret.Culprit,
		Hideout: state.Secret.Hideout != "" && answers.Hideout == state.Secret.Hideout,
	}
	win := correct.Culprit && correct.Hideout

	epilogueID := "loss"
	if win {
		epilogueID = "win"
		for _, combo := range s.Secrets.Combinations {
			if combo.Culprit == state.Secret.Culprit && combo.Hideout == state.Secret.Hideout && combo.Epilogue != "" {
				epilogueID = combo.Epilogue
				break
			}
		}
	}

	cur := SetPhase(state, PhaseEpilog)
	cur = AddLogEntry(cur, LogEntry{
		Type:    "finale_result",
		Win:     &win,
		Correct: &correct,
		Answers: &answers,
	})

	return cur, FinaleResult{Win: win, Correct: correct, EpilogueID: epilogueID}
}
