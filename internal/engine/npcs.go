// internal/engine/npcs.go
//
// NPC scenes and visit tracking. Scene keys derive from the visit number
// ("hub_visit_N"). When the NPC is the secret's culprit the guilty variant
// override wins for a key, otherwise the innocent variant; with no variant
// override the base scene applies; with nothing at all the NPC has no
// scene for that visit.

package engine

import (
	"fmt"

	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// GetNpcScene resolves the scene an NPC plays on a given visit, or nil
// when nothing is authored for that visit number.
func GetNpcScene(npc *story.NPC, visitNumber int, state *GameState) *story.Scene {
	key := fmt.Sprintf("hub_visit_%d", visitNumber)

	variant := npc.InnocentVariant
	if state.Secret.Culprit == npc.ID {
		variant = npc.GuiltyVariant
	}
	if variant != nil {
		if sc, ok := variant.SceneOverrides[key]; ok {
			return &sc
		}
	}
	if sc, ok := npc.Scenes[key]; ok {
		return &sc
	}
	return nil
}

// GetNpcReaction looks up a reaction scene (e.g. "accused"), or nil.
func GetNpcReaction(npc *story.NPC, reactionKey string) *story.Scene {
	if sc, ok := npc.Reactions[reactionKey]; ok {
		return &sc
	}
	return nil
}

// VisitNpc increments an NPC's visit count. Unknown NPCs no-op.
func VisitNpc(s *GameState, npcID string) *GameState {
	if _, ok := s.NPCState[npcID]; !ok {
		return s
	}
	next := s.Clone()
	next.NPCState[npcID].Visits++
	return next
}

// RevealNpcInfo idempotently adds an info tag to an NPC's revealed set.
func RevealNpcInfo(s *GameState, npcID, info string) *GameState {
	n, ok := s.NPCState[npcID]
	if !ok {
		return s
	}
	for _, r := range n.Revealed {
		if r == info {
			return s
		}
	}
	next := s.Clone()
	nn := next.NPCState[npcID]
	nn.Revealed = append(nn.Revealed, info)
	return next
}

// NpcView is the display projection of one NPC.
type NpcView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Visits   int      `json:"visits"`
	Revealed []string `json:"revealed"`
}

// NpcSummary lists every NPC with visit and reveal progress.
func NpcSummary(state *GameState, s *story.Story) []NpcView {
	out := make([]NpcView, 0, len(s.NPCs))
	for _, n := range s.NPCs {
		view := NpcView{ID: n.ID, Name: n.Name, Role: n.Role, Revealed: []string{}}
		if st, ok := state.NPCState[n.ID]; ok {
			view.Visits = st.Visits
			view.Revealed = append(view.Revealed, st.Revealed...)
		}
		out = append(out, view)
	}
	return out
}
