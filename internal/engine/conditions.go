// internal/engine/conditions.go
//
// Status conditions: stat modifiers and cures. Condition order on a player
// is acquisition order; cures always remove the oldest matching condition.

package engine

import "github.com/fredrikpaulin/DUNGEONS/internal/story"

// AddCondition adds a condition to a player, once. Adding a condition the
// player already has returns the player unchanged.
func AddCondition(p *Player, conditionID string) *Player {
	if HasCondition(p, conditionID) {
		return p
	}
	next := p.clone()
	next.Conditions = append(next.Conditions, conditionID)
	return next
}

// RemoveCondition removes a condition from a player. Absent conditions
// are a no-op.
func RemoveCondition(p *Player, conditionID string) *Player {
	idx := -1
	for i, c := range p.Conditions {
		if c == conditionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return p
	}
	next := p.clone()
	next.Conditions = append(next.Conditions[:idx], next.Conditions[idx+1:]...)
	return next
}

// HasCondition reports whether the player currently has the condition.
func HasCondition(p *Player, conditionID string) bool {
	for _, c := range p.Conditions {
		if c == conditionID {
			return true
		}
	}
	return false
}

// ConditionModifier returns the delta one condition applies to one stat,
// or 0 when the condition does not touch that stat.
func ConditionModifier(conditionID, stat string, s *story.Story) int {
	def := s.ConditionDef(conditionID)
	if def == nil || def.StatModifier == nil {
		return 0
	}
	if def.StatModifier.Stat != stat {
		return 0
	}
	return def.StatModifier.Delta
}

// TotalConditionModifier sums the modifiers from every active condition
// affecting the stat. Conditions stack.
func TotalConditionModifier(p *Player, stat string, s *story.Story) int {
	sum := 0
	for _, c := range p.Conditions {
		sum += ConditionModifier(c, stat, s)
	}
	return sum
}

// CanCure reports whether a condition is curable by the given method
// (e.g. "rest" or "item:torch").
func CanCure(conditionID, method string, s *story.Story) bool {
	def := s.ConditionDef(conditionID)
	if def == nil {
		return false
	}
	for _, m := range def.CuredBy {
		if m == method {
			return true
		}
	}
	return false
}

// ApplyCureRest removes the oldest rest-curable condition from a player.
// No matching condition is a no-op.
func ApplyCureRest(p *Player, s *story.Story) *Player {
	for _, c := range p.Conditions {
		if CanCure(c, "rest", s) {
			return RemoveCondition(p, c)
		}
	}
	return p
}

// ApplyCureAllRest applies the rest cure independently to every player.
func ApplyCureAllRest(state *GameState, s *story.Story) *GameState {
	next := state.Clone()
	for id, p := range next.Players {
		next.Players[id] = ApplyCureRest(p, s)
	}
	return next
}
