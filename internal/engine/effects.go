// internal/engine/effects.go
//
// The effect interpreter: a closed vocabulary of tagged transformations
// applied against the shared state. Unknown effect kinds return the state
// unchanged — authored content from a newer toolchain must keep working.
//
// Effects that direct the caller rather than mutate state (goto,
// complication) come back in a Pending value. Pending is consumed by the
// state machine within the same call and is never part of steady state.

package engine

import "github.com/fredrikpaulin/DUNGEONS/internal/story"

// Effect kind tags. The vocabulary is closed; anything else is a no-op.
const (
	EffectTrack        = "track"
	EffectToken        = "token"
	EffectCondition    = "condition"
	EffectItem         = "item"
	EffectClue         = "clue"
	EffectInsight      = "insight"
	EffectNarrative    = "narrative"
	EffectGoto         = "goto"
	EffectComplication = "complication"
	EffectNpcReveal    = "npc_reveal"
	EffectVerbReward   = "verb_reward"
	EffectLeaderFlip   = "leader_flip"
	EffectRest         = "rest"
)

// restTrack is the time/weather budget the rest effect charges.
const restTrack = "weather"

// Context carries the acting player for effect resolution.
type Context struct {
	PlayerID string
}

// Pending holds directives staged by effects for the caller to resolve.
type Pending struct {
	GotoRoom     string // room to enter after the batch, "" = none
	Complication string // complication size to draw, "" = none
}

// resolveActor returns the acting player id, falling back to an arbitrary
// player when the context leaves it unset. Callers should always set it.
func resolveActor(state *GameState, ctx Context) string {
	if ctx.PlayerID != "" {
		return ctx.PlayerID
	}
	ids := sortedPlayerIDs(state)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// resolveTarget maps an effect target spec to a player id:
// "" / "self" → the acting player, "leader" → the current leader (or the
// actor when nobody leads), a known player id → itself, anything else →
// the acting player. "all" is expanded by ApplyEffects before dispatch.
func resolveTarget(state *GameState, target, actorID string) string {
	switch target {
	case "", "self":
		return actorID
	case "leader":
		if id := Leader(state); id != "" {
			return id
		}
		return actorID
	}
	if _, ok := state.Players[target]; ok {
		return target
	}
	return actorID
}

// ApplyEffect applies one effect, returning the next state and any staged
// directive. Tolerant by design: whatever does not resolve returns the
// input state unchanged.
func ApplyEffect(state *GameState, e story.Effect, s *story.Story, ctx Context) (*GameState, Pending) {
	actorID := resolveActor(state, ctx)
	var pending Pending

	switch e.Type {
	case EffectTrack:
		return UpdateTrack(state, e.Track, e.Delta), pending

	case EffectToken:
		return UpdateToken(state, e.Token, e.Delta), pending

	case EffectCondition:
		targetID := resolveTarget(state, e.Target, actorID)
		p, ok := state.Players[targetID]
		if !ok {
			return state, pending
		}
		var updated *Player
		if e.Action == "add" {
			updated = AddCondition(p, e.Condition)
		} else {
			updated = RemoveCondition(p, e.Condition)
		}
		if updated == p {
			return state, pending
		}
		next := state.Clone()
		next.Players[targetID] = updated
		return next, pending

	case EffectItem:
		switch e.Action {
		case "draw":
			count := e.Count
			if count <= 0 {
				count = 1
			}
			return DrawItems(state, actorID, count), pending
		case "add":
			if e.ID == "" {
				return state, pending
			}
			return GrantItem(state, actorID, e.ID), pending
		case "lose":
			targetID := resolveTarget(state, e.Target, actorID)
			p, ok := state.Players[targetID]
			if !ok || len(p.Items) == 0 {
				return state, pending
			}
			itemID := e.ID
			if itemID == "" {
				itemID = p.Items[len(p.Items)-1] // most recently added
			}
			updated := RemoveItem(p, itemID)
			if updated == p {
				return state, pending
			}
			next := state.Clone()
			next.Players[targetID] = updated
			return next, pending
		}
		return state, pending

	case EffectClue:
		if e.ID == "" || IsClueFound(state, e.ID) {
			return state, pending
		}
		next := state.Clone()
		if e.Action == "bonus" {
			next.BonusCluesFound = append(next.BonusCluesFound, e.ID)
		} else {
			next.CluesFound = append(next.CluesFound, e.ID)
		}
		return next, pending

	case EffectInsight:
		delta := e.Delta
		if delta == 0 {
			delta = 1
		}
		return UpdateToken(state, "insight", delta), pending

	case EffectNarrative:
		return AddLogEntry(state, LogEntry{Type: "narrative", Text: e.Text, PlayerID: actorID}), pending

	case EffectGoto:
		pending.GotoRoom = e.Target
		return state, pending

	case EffectComplication:
		size := e.Size
		if size == "" {
			size = "small"
		}
		pending.Complication = size
		return state, pending

	case EffectNpcReveal:
		if e.NPC == "" {
			return state, pending
		}
		return RevealNpcInfo(state, e.NPC, e.Info), pending

	case EffectVerbReward:
		// marker effect, interpreted by the choice resolver's caller
		return state, pending

	case EffectLeaderFlip:
		leaderID := Leader(state)
		if leaderID == "" {
			return state, pending
		}
		return UpdatePlayer(state, leaderID, func(p *Player) { p.LeaderFlipped = true }), pending

	case EffectRest:
		next := ApplyCureAllRest(state, s)
		return UpdateTrack(next, restTrack, -1), pending
	}

	// Unknown effect kind: forward-compatible no-op.
	return state, pending
}

// ApplyEffects applies a batch in order. A condition effect targeting
// "all" expands into one effect per player before dispatch. Later staged
// directives of the same kind overwrite earlier ones.
func ApplyEffects(state *GameState, effects []story.Effect, s *story.Story, ctx Context) (*GameState, Pending) {
	cur := state
	var pending Pending
	for _, e := range effects {
		if e.Type == EffectCondition && e.Target == "all" {
			for _, pid := range sortedPlayerIDs(cur) {
				expanded := e
				expanded.Target = pid
				cur, _ = ApplyEffect(cur, expanded, s, ctx)
			}
			continue
		}
		var p Pending
		cur, p = ApplyEffect(cur, e, s, ctx)
		if p.GotoRoom != "" {
			pending.GotoRoom = p.GotoRoom
		}
		if p.Complication != "" {
			pending.Complication = p.Complication
		}
	}
	return cur, pending
}
