// internal/engine/players.go
//
// Player helpers: stat allocation, effective stats, and trick (role
// ability) rules.

package engine

import "github.com/fredrikpaulin/DUNGEONS/internal/story"

// AllocateStats maps declared stats to values. Stats with no assignment
// default to zero.
func AllocateStats(statDefs []story.Stat, assignments map[string]int) map[string]int {
	stats := make(map[string]int, len(statDefs))
	for _, def := range statDefs {
		stats[def.ID] = assignments[def.ID]
	}
	return stats
}

// DefaultStatValues produces the standard descending allocation:
// 3, 2, 1, 0, 0, ... for count stats.
func DefaultStatValues(statDefs []story.Stat) map[string]int {
	assignments := make(map[string]int, len(statDefs))
	for i, def := range statDefs {
		v := 3 - i
		if v < 0 {
			v = 0
		}
		assignments[def.ID] = v
	}
	return assignments
}

// EffectiveStat is the base stat plus all condition modifiers, floored
// at zero.
func EffectiveStat(p *Player, statID string, s *story.Story) int {
	v := p.Stats[statID] + TotalConditionModifier(p, statID, s)
	if v < 0 {
		v = 0
	}
	return v
}

// CheckStat reports whether a player's effective stat meets a minimum.
func CheckStat(p *Player, statID string, min int, s *story.Story) bool {
	return EffectiveStat(p, statID, s) >= min
}

// PlayerTrick resolves a player's assigned trick definition from their
// role, or nil when the player has none.
func PlayerTrick(p *Player, s *story.Story) *story.Trick {
	role := s.RoleDef(p.Role)
	if role == nil {
		return nil
	}
	for i := range role.Tricks {
		if role.Tricks[i].ID == p.Trick {
			return &role.Tricks[i]
		}
	}
	return nil
}

// CanUseTrick applies the authored use-count rule for a trick.
func CanUseTrick(p *Player, trick *story.Trick, state *GameState) bool {
	if trick == nil || p.TrickUsed {
		return false
	}
	switch trick.Uses {
	case "once_per_dungeon":
		return state.Phase == PhasePlaying
	case "once_per_room":
		return true
	case "once":
		return !p.TrickUsed
	case "passive":
		// passive tricks apply automatically, never spent by hand
		return false
	}
	return true
}

// UseTrick marks a player's trick as spent.
func UseTrick(s *GameState, playerID string) *GameState {
	return UpdatePlayer(s, playerID, func(p *Player) { p.TrickUsed = true })
}

// ResetTricks clears the spent flag for every player.
func ResetTricks(s *GameState) *GameState {
	next := s.Clone()
	for _, p := range next.Players {
		p.TrickUsed = false
	}
	return next
}

// StatView pairs a base stat with its condition-adjusted value.
type StatView struct {
	Base      int `json:"base"`
	Effective int `json:"effective"`
}

// PlayerView is the display projection of one player.
type PlayerView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Role        string              `json:"role"`
	IsLeader    bool                `json:"isLeader"`
	CurrentRoom string              `json:"currentRoom,omitempty"`
	Stats       map[string]StatView `json:"stats"`
	Conditions  []string            `json:"conditions"`
	Items       []string            `json:"items"`
	Trick       string              `json:"trick,omitempty"`
	TrickUsed   bool                `json:"trickUsed"`
}

// SummarizePlayer builds the display projection for one player.
func SummarizePlayer(p *Player, s *story.Story) PlayerView {
	stats := make(map[string]StatView, len(p.Stats))
	for id, base := range p.Stats {
		stats[id] = StatView{Base: base, Effective: EffectiveStat(p, id, s)}
	}
	return PlayerView{
		ID:          p.ID,
		Name:        p.Name,
		Role:        p.Role,
		IsLeader:    p.IsLeader,
		CurrentRoom: p.CurrentRoom,
		Stats:       stats,
		Conditions:  append([]string(nil), p.Conditions...),
		Items:       append([]string(nil), p.Items...),
		Trick:       p.Trick,
		TrickUsed:   p.TrickUsed,
	}
}
