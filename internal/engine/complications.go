// internal/engine/complications.go
//
// Complication selection. The table is filtered by size; entries not in the
// recent history are preferred, but once everything of a size has been used
// repeats are allowed. Only a size with zero entries at all yields nothing.
//
// Two selection modes are part of the contract: a deterministic first-pick
// for tests, and a randomized pick for live play.

package engine

import (
	"math/rand"

	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// candidateComplications filters by size and removes recently used entries,
// falling back to the full size bucket when everything has been used.
func candidateComplications(s *story.Story, size string, history []ComplicationRecord) []story.Complication {
	var pool []story.Complication
	for _, c := range s.Complications {
		if c.Size == size {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	used := make(map[string]bool, len(history))
	for _, h := range history {
		used[h.ID] = true
	}
	var fresh []story.Complication
	for _, c := range pool {
		if !used[c.ID] {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) > 0 {
		return fresh
	}
	return pool
}

// SelectComplication picks deterministically: the first candidate in table
// order. Used in tests and anywhere reproducibility matters.
func SelectComplication(s *story.Story, size string, history []ComplicationRecord) *story.Complication {
	candidates := candidateComplications(s, size, history)
	if len(candidates) == 0 {
		return nil
	}
	c := candidates[0]
	return &c
}

// SelectComplicationRandom picks uniformly among the candidates using rng.
// A nil rng falls back to the deterministic pick.
func SelectComplicationRandom(s *story.Story, size string, history []ComplicationRecord, rng *rand.Rand) *story.Complication {
	candidates := candidateComplications(s, size, history)
	if len(candidates) == 0 {
		return nil
	}
	if rng == nil {
		c := candidates[0]
		return &c
	}
	c := candidates[rng.Intn(len(candidates))]
	return &c
}

// RecordComplication appends a complication to the history with the
// current turn number.
func RecordComplication(s *GameState, complicationID string) *GameState {
	next := s.Clone()
	next.ComplicationHistory = append(next.ComplicationHistory, ComplicationRecord{ID: complicationID, Turn: s.TurnCount})
	return next
}
