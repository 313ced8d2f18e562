// internal/engine/tracks.go
//
// Track logic: trigger detection and display summaries. Value updates live
// in state.go (UpdateTrack); this file covers what happens around them.

package engine

import "github.com/fredrikpaulin/DUNGEONS/internal/story"

// IsTriggered reports whether a track sits exactly on its trigger value.
// Exact equality is deliberate: a delta that jumps past triggerAt without
// landing on it does not trigger. Clamping happens before this check, so
// an overshooting delta that clamps onto triggerAt does trigger.
func IsTriggered(t Track) bool {
	return t.TriggerAt != nil && t.Value == *t.TriggerAt
}

// TriggerEffects returns the authored effect batch for a track trigger,
// or nil when the track declares none.
func TriggerEffects(s *story.Story, trackID string) []story.Effect {
	def := s.TrackDef(trackID)
	if def == nil {
		return nil
	}
	return def.TriggerEffects
}

// TrackView is one track's display row.
type TrackView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Value     int    `json:"value"`
	Min       int    `json:"min"`
	Max       int    `json:"max"`
	Direction string `json:"direction"`
	Triggered bool   `json:"triggered"`
}

// TrackSummary lists every configured track with its live value, in the
// story's declaration order.
func TrackSummary(state *GameState, s *story.Story) []TrackView {
	out := make([]TrackView, 0, len(s.Config.Tracks))
	for _, def := range s.Config.Tracks {
		t, ok := state.Tracks[def.ID]
		if !ok {
			t = Track{Value: def.Start, Min: def.Min, Max: def.Max, Direction: def.Direction, TriggerAt: def.TriggerAt}
		}
		out = append(out, TrackView{
			ID:        def.ID,
			Name:      def.Name,
			Value:     t.Value,
			Min:       t.Min,
			Max:       t.Max,
			Direction: t.Direction,
			Triggered: IsTriggered(t),
		})
	}
	return out
}
