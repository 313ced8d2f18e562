// internal/engine/clues.go
//
// Clue selection. Rooms declare a finite candidate pool; the secret's
// room→clue assignment wins when it is a pool member and still unfound,
// otherwise the first unfound pool member is chosen. An exhausted pool
// yields "" — a revisitable room with nothing new to offer, not an error.

package engine

import "github.com/fredrikpaulin/DUNGEONS/internal/story"

// SelectClue picks the clue a room should reveal under the current state,
// or "" when the room has no pool or the pool is exhausted.
func SelectClue(room *story.Room, state *GameState) string {
	if room.Clue == nil || len(room.Clue.Pool) == 0 {
		return ""
	}

	if assigned, ok := state.Secret.ClueAssignments[room.ID]; ok && assigned != "" {
		for _, id := range room.Clue.Pool {
			if id == assigned {
				if !IsClueFound(state, assigned) {
					return assigned
				}
				break
			}
		}
	}

	for _, id := range room.Clue.Pool {
		if !IsClueFound(state, id) {
			return id
		}
	}
	return ""
}

// IsClueFound reports whether a clue is in either found set.
func IsClueFound(state *GameState, clueID string) bool {
	for _, id := range state.CluesFound {
		if id == clueID {
			return true
		}
	}
	for _, id := range state.BonusCluesFound {
		if id == clueID {
			return true
		}
	}
	return false
}

// ClueDetail is a found clue with its definition and core/bonus type.
type ClueDetail struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	PointsTo string `json:"pointsTo,omitempty"`
	Type     string `json:"type"` // "core" or "bonus"
}

// GetClueDetail looks up a clue definition across both clue lists,
// or nil for an unknown id.
func GetClueDetail(s *story.Story, clueID string) *ClueDetail {
	for _, c := range s.Clues.Core {
		if c.ID == clueID {
			return &ClueDetail{ID: c.ID, Text: c.Text, PointsTo: c.PointsTo, Type: "core"}
		}
	}
	for _, c := range s.Clues.Bonus {
		if c.ID == clueID {
			return &ClueDetail{ID: c.ID, Text: c.Text, PointsTo: c.PointsTo, Type: "bonus"}
		}
	}
	return nil
}

// ClueSummaryView is the clue-count projection shown to players.
type ClueSummaryView struct {
	Core  []ClueDetail `json:"core"`
	Bonus []ClueDetail `json:"bonus"`
	Total int          `json:"total"`
}

// ClueSummary resolves every found clue to its detail. Ids that no longer
// resolve (content drift) are dropped silently.
func ClueSummary(state *GameState, s *story.Story) ClueSummaryView {
	view := ClueSummaryView{Core: []ClueDetail{}, Bonus: []ClueDetail{}}
	for _, id := range state.CluesFound {
		if d := GetClueDetail(s, id); d != nil {
			view.Core = append(view.Core, *d)
		}
	}
	for _, id := range state.BonusCluesFound {
		if d := GetClueDetail(s, id); d != nil {
			view.Bonus = append(view.Bonus, *d)
		}
	}
	view.Total = len(view.Core) + len(view.Bonus)
	return view
}
