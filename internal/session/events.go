// internal/session/events.go
//
// Derived events for broadcast. The core only emits these; who receives
// them (session-wide vs room-scoped) is transport policy decided outside.

package session

import (
	"github.com/fredrikpaulin/DUNGEONS/internal/engine"
	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// Event types.
const (
	EventNarrative        = "narrative"
	EventClueFound        = "clue_found"
	EventTrackTrigger     = "track_trigger"
	EventTrackChanged     = "track_changed"
	EventComplication     = "complication"
	EventPlayerEntered    = "player_entered"
	EventPlayerLeft       = "player_left"
	EventConditionAdded   = "condition_added"
	EventConditionRemoved = "condition_removed"
	EventPlayerJoined     = "session_player_joined"
	EventPlayerDeparted   = "session_player_left"
	EventRoleSelected     = "session_role_selected"
	EventSessionStarted   = "session_started"
	EventGameOver         = "game_over"
)

// Event is one externally visible notice derived from a state transition.
type Event struct {
	Type string `json:"type"`

	Text       string             `json:"text,omitempty"`
	Clue       *engine.ClueDetail `json:"clue,omitempty"`
	Room       string             `json:"room,omitempty"`
	PlayerID   string             `json:"playerId,omitempty"`
	PlayerName string             `json:"playerName,omitempty"`
	Role       string             `json:"role,omitempty"`
	Track      string             `json:"track,omitempty"`
	Value      int                `json:"value,omitempty"`
	Condition  string             `json:"condition,omitempty"`
	Size       string             `json:"size,omitempty"`
	Epilogue   string             `json:"epilogue,omitempty"`
}

// collectEvents derives broadcastable events from the log entries appended
// since a previous log length, scoped to one acting player where the entry
// type is per-player.
func collectEvents(game *engine.GameState, st *story.Story, since int, playerID string) []Event {
	var events []Event
	for _, entry := range game.Log[since:] {
		switch entry.Type {
		case "narrative":
			events = append(events, Event{Type: EventNarrative, Text: entry.Text, PlayerID: entry.PlayerID})
		case "clue_found":
			if entry.PlayerID != playerID {
				continue
			}
			ev := Event{Type: EventClueFound, PlayerID: entry.PlayerID}
			if d := engine.GetClueDetail(st, entry.ClueID); d != nil {
				ev.Clue = d
			}
			events = append(events, ev)
		case "track_trigger":
			events = append(events, Event{Type: EventTrackTrigger, Track: entry.Track})
		case "complication":
			events = append(events, Event{Type: EventComplication, PlayerID: entry.PlayerID, Size: entry.Size})
		}
	}
	return events
}

// diffConditionEvents reports condition additions and removals per player
// between two states.
func diffConditionEvents(before, after *engine.GameState) []Event {
	var events []Event
	for id, prev := range before.Players {
		next, ok := after.Players[id]
		if !ok {
			continue
		}
		was := make(map[string]bool, len(prev.Conditions))
		for _, c := range prev.Conditions {
			was[c] = true
		}
		is := make(map[string]bool, len(next.Conditions))
		for _, c := range next.Conditions {
			is[c] = true
		}
		for _, c := range next.Conditions {
			if !was[c] {
				events = append(events, Event{Type: EventConditionAdded, PlayerID: id, PlayerName: next.Name, Condition: c})
			}
		}
		for _, c := range prev.Conditions {
			if !is[c] {
				events = append(events, Event{Type: EventConditionRemoved, PlayerID: id, PlayerName: next.Name, Condition: c})
			}
		}
	}
	return events
}

// diffTrackEvents reports tracks whose value changed between two states.
func diffTrackEvents(before, after *engine.GameState) []Event {
	var events []Event
	for id, next := range after.Tracks {
		if prev, ok := before.Tracks[id]; !ok || prev.Value != next.Value {
			events = append(events, Event{Type: EventTrackChanged, Track: id, Value: next.Value})
		}
	}
	return events
}
