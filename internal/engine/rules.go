// internal/engine/rules.go
//
// The choice resolver: which authored interactions a player can take right
// now, and what a taken choice resolves into once an approach and a verb
// have been supplied.
//
// Requirements check against effective stats (after condition modifiers)
// and held items. Reveal predicates gate visibility separately:
//   clue:N   — at least N total clues found
//   npc:<id> — that NPC visited at least once
//   visit:N  — the hub visited at least N times

package engine

import (
	"strconv"
	"strings"

	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// MeetsRequirement checks a choice's stat requirement, if any.
func MeetsRequirement(p *Player, choice *story.Choice, s *story.Story) bool {
	if choice.Requires == nil {
		return true
	}
	return EffectiveStat(p, choice.Requires.Stat, s) >= choice.Requires.Min
}

// MeetsItemRequirement checks a choice's item requirement, if any.
func MeetsItemRequirement(p *Player, choice *story.Choice) bool {
	if choice.RequiresItem == "" {
		return true
	}
	return HasItem(p, choice.RequiresItem)
}

// MeetsRevealCondition evaluates one reveal predicate. Unrecognized
// predicates hold, keeping older servers tolerant of newer content.
func MeetsRevealCondition(state *GameState, cond string) bool {
	switch {
	case strings.HasPrefix(cond, "clue:"):
		needed, err := strconv.Atoi(cond[len("clue:"):])
		if err != nil {
			return true
		}
		return len(state.CluesFound)+len(state.BonusCluesFound) >= needed
	case strings.HasPrefix(cond, "npc:"):
		npcID := cond[len("npc:"):]
		n, ok := state.NPCState[npcID]
		return ok && n.Visits > 0
	case strings.HasPrefix(cond, "visit:"):
		needed, err := strconv.Atoi(cond[len("visit:"):])
		if err != nil {
			return true
		}
		return state.HubVisits >= needed
	}
	return true
}

// IsChoiceRevealed reports whether all of a choice's reveal predicates hold.
func IsChoiceRevealed(choice *story.Choice, state *GameState) bool {
	for _, cond := range choice.RevealAfter {
		if !MeetsRevealCondition(state, cond) {
			return false
		}
	}
	return true
}

// AvailableChoices returns the choices the player can take right now:
// revealed, and with both requirements met.
func AvailableChoices(room *story.Room, p *Player, state *GameState, s *story.Story) []story.Choice {
	var out []story.Choice
	for _, c := range room.Choices {
		c := c
		if IsChoiceRevealed(&c, state) && MeetsRequirement(p, &c, s) && MeetsItemRequirement(p, &c) {
			out = append(out, c)
		}
	}
	return out
}

// ChoiceStatus is a revealed choice annotated with availability, for
// displays that show locked options.
type ChoiceStatus struct {
	story.Choice
	Available bool `json:"available"`
}

// ChoicesWithStatus returns every revealed choice with an availability
// flag instead of filtering.
func ChoicesWithStatus(room *story.Room, p *Player, state *GameState, s *story.Story) []ChoiceStatus {
	var out []ChoiceStatus
	for _, c := range room.Choices {
		c := c
		if !IsChoiceRevealed(&c, state) {
			continue
		}
		out = append(out, ChoiceStatus{
			Choice:    c,
			Available: MeetsRequirement(p, &c, s) && MeetsItemRequirement(p, &c),
		})
	}
	return out
}

// ChoiceResult is a fully resolved choice: the combined effect batch and
// the directives the state machine needs.
type ChoiceResult struct {
	Effects      []story.Effect
	Complication bool   // the approach mandates a complication
	Target       string // static target room, "" = stay
	Narrative    string
	VerbApt      bool
}

// ResolveApproach combines a choice's own effects with the approach's
// static effects and records whether the approach forces a complication.
// Unknown approach ids contribute nothing.
func ResolveApproach(choice *story.Choice, approachID string, s *story.Story) ChoiceResult {
	effects := append([]story.Effect(nil), choice.Effects...)
	complication := false
	if def := s.ApproachDef(approachID); def != nil {
		effects = append(effects, def.Effects...)
		complication = def.RequiresComplication
	}
	return ChoiceResult{
		Effects:      effects,
		Complication: complication,
		Target:       choice.Target,
		Narrative:    choice.Narrative,
	}
}

// CheckVerbAptness reports whether the supplied verb matches the choice's
// tagged verb, case-insensitively.
func CheckVerbAptness(choice *story.Choice, verb string) bool {
	return choice.Verb != "" && verb != "" && strings.EqualFold(choice.Verb, verb)
}

// ResolveChoice resolves a choice id within a room against an approach and
// a verb. An apt verb appends the verb_reward marker effect and sets the
// flag — a pure bonus signal, never a gate. Unknown choice ids yield nil.
func ResolveChoice(state *GameState, room *story.Room, choiceID, approachID, verb string, s *story.Story) *ChoiceResult {
	var choice *story.Choice
	for i := range room.Choices {
		if room.Choices[i].ID == choiceID {
			choice = &room.Choices[i]
			break
		}
	}
	if choice == nil {
		return nil
	}

	result := ResolveApproach(choice, approachID, s)
	if CheckVerbAptness(choice, verb) {
		result.Effects = append(result.Effects, story.Effect{Type: EffectVerbReward})
		result.VerbApt = true
	}
	return &result
}
