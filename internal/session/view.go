// internal/session/view.go
//
// Per-player view projection. A view shows only what the recipient is
// entitled to see: their own sheet, the room they stand in, who shares it,
// and the group-level summaries. The secret never leaves this layer.

package session

import (
	"github.com/fredrikpaulin/DUNGEONS/internal/engine"
	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// ExitView is one outgoing edge of the current room.
type ExitView struct {
	Target string `json:"target"`
	Label  string `json:"label"`
}

// NpcListing is a hub NPC offered for conversation.
type NpcListing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// RoomView is everything one player needs to act from where they stand.
type RoomView struct {
	SessionID string       `json:"sessionId"`
	Phase     engine.Phase `json:"phase"`

	Room      string `json:"room"`
	RoomName  string `json:"roomName"`
	Zone      string `json:"zone,omitempty"`
	Narrative string `json:"narrative,omitempty"`

	Exits   []ExitView            `json:"exits"`
	Choices []engine.ChoiceStatus `json:"choices"`
	NPCs    []NpcListing          `json:"npcs,omitempty"`

	You    engine.PlayerView   `json:"you"`
	Others []engine.PlayerView `json:"others"`

	Tracks      []engine.TrackView     `json:"tracks"`
	Tokens      map[string]int         `json:"tokens"`
	Clues       engine.ClueSummaryView `json:"clues"`
	Approaches  []story.Approach       `json:"approaches"`
	VerbMenu    []string               `json:"verbMenu,omitempty"`
	FinaleReady bool                   `json:"finaleReady"`
}

// BuildRoomView projects the session for one player. Fails before the
// session is in play or for non-members.
func (st *Store) BuildRoomView(id, userID string) (*RoomView, error) {
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

	game := s.Game
	adv := s.Story
	room := adv.Room(p.CurrentRoom)
	if room == nil {
		f := notFound("player is nowhere known")
		f.Room = p.CurrentRoom
		return nil, f
	}

	view := &RoomView{
		SessionID: s.ID,
		Phase:     game.Phase,
		Room:      room.ID,
		RoomName:  room.Name,
		Zone:      room.Zone,
		Narrative: room.Narrative,

		Choices: engine.ChoicesWithStatus(room, p, game, adv),
		You:     engine.SummarizePlayer(p, adv),

		Tracks:      engine.TrackSummary(game, adv),
		Tokens:      tokensCopy(game),
		Clues:       engine.ClueSummary(game, adv),
		Approaches:  adv.Config.Approaches,
		VerbMenu:    adv.Config.VerbMenu,
		FinaleReady: engine.ShouldTriggerFinale(game, adv),
	}

	view.Exits = make([]ExitView, 0, len(room.Exits))
	for _, e := range room.Exits {
		label := e.Label
		if label == "" {
			if target := adv.Room(e.Target); target != nil {
				label = target.Name
			}
		}
		view.Exits = append(view.Exits, ExitView{Target: e.Target, Label: label})
	}

	for _, other := range engine.PlayersInRoom(game, room.ID) {
		if other.ID == userID {
			continue
		}
		view.Others = append(view.Others, engine.SummarizePlayer(other, adv))
	}

	if room.Zone == "hub" {
		for _, npc := range adv.NPCs {
			view.NPCs = append(view.NPCs, NpcListing{ID: npc.ID, Name: npc.Name, Role: npc.Role})
		}
	}

	return view, nil
}

func tokensCopy(game *engine.GameState) map[string]int {
	out := make(map[string]int, len(game.Tokens))
	for k, v := range game.Tokens {
		out[k] = v
	}
	return out
}
