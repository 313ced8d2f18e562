package engine

import (
	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// newTestStory builds the compact adventure the engine tests run against:
// a hub, a two-room cave, and a tower, with enough clues, NPCs, and
// complications to exercise every selector.
func newTestStory() *story.Story {
	trigger := 0
	return &story.Story{
		Meta: story.Meta{ID: "test", Title: "Test Hollow", Version: "1"},
		Config: story.Config{
			StartRoom: "hub",
			Stats: []story.Stat{
				{ID: "brawn", Name: "Brawn"},
				{ID: "wits", Name: "Wits"},
			},
			Approaches: []story.Approach{
				{ID: "careful", Name: "Careful"},
				{ID: "bold", Name: "Bold", Effects: []story.Effect{{Type: EffectTrack, Track: "weather", Delta: -1}}},
				{ID: "wild", Name: "Wild", RequiresComplication: true},
			},
			Tracks: []story.TrackDef{
				{ID: "weather", Name: "Storm", Start: 2, Min: 0, Max: 6, Direction: "down"},
				{ID: "doom", Name: "Doom", Start: 2, Min: 0, Max: 4, Direction: "down", TriggerAt: &trigger,
					TriggerEffects: []story.Effect{{Type: EffectNarrative, Text: "the bell tolls"}}},
			},
			Tokens: []story.TokenDef{
				{ID: "insight", Name: "Insight", Pool: 0},
				{ID: "supplies", Name: "Supplies", Pool: 2},
			},
			VerbMenu: []string{"pry", "listen", "climb"},
			Lobby:    story.Lobby{MinPlayers: 1, MaxPlayers: 4},
		},
		Rooms: map[string]story.Room{
			"hub": {
				ID: "hub", Name: "Square", Zone: "hub",
				Exits: []story.Exit{{Target: "cave_mouth"}, {Target: "tower"}},
				Choices: []story.Choice{
					{ID: "ask", Label: "Ask around", Verb: "listen",
						Effects: []story.Effect{{Type: EffectToken, Token: "insight", Delta: 1}}},
				},
			},
			"cave_mouth": {
				ID: "cave_mouth", Name: "Cave Mouth", Zone: "dungeon_a",
				Clue:  &story.ClueConfig{Pool: []string{"c1", "c2"}},
				Exits: []story.Exit{{Target: "hub"}, {Target: "cave_deep"}},
				Choices: []story.Choice{
					{ID: "pry", Label: "Pry the crate", Verb: "pry",
						Requires: &story.StatRequirement{Stat: "brawn", Min: 2},
						Effects:  []story.Effect{{Type: EffectItem, Action: "draw", Count: 1}}},
					{ID: "descend", Label: "Climb down", Verb: "climb", Target: "cave_deep"},
				},
			},
			"cave_deep": {
				ID: "cave_deep", Name: "Flooded Gallery", Zone: "dungeon_a",
				Clue:    &story.ClueConfig{Pool: []string{"c2", "c3"}},
				OnEnter: []story.Effect{{Type: EffectTrack, Track: "weather", Delta: -1}},
				Exits:   []story.Exit{{Target: "cave_mouth"}},
			},
			"tower": {
				ID: "tower", Name: "Watchtower", Zone: "dungeon_b",
				Clue:  &story.ClueConfig{Pool: []string{"c3", "c1"}},
				Items: &story.ItemConfig{Guaranteed: "lamp"},
				Exits: []story.Exit{{Target: "hub"}},
				Choices: []story.Choice{
					{ID: "trap", Label: "Step on the loose board", Verb: "climb",
						Effects: []story.Effect{{Type: EffectGoto, Target: "hub"}}},
					{ID: "risky", Label: "Ring the bell", Verb: "pry",
						Effects: []story.Effect{{Type: EffectTrack, Track: "doom", Delta: -2}}},
					{ID: "hidden", Label: "Open the sealed hatch", Verb: "pry",
						RevealAfter: []string{"clue:2"}},
				},
			},
		},
		NPCs: []story.NPC{
			{
				ID: "keeper", Name: "The Keeper",
				Scenes: map[string]story.Scene{
					"hub_visit_1": {Narrative: "base first visit"},
					"hub_visit_2": {Narrative: "base second visit", Reveals: []string{"secret_door"}},
				},
				GuiltyVariant: &story.NPCVariant{SceneOverrides: map[string]story.Scene{
					"hub_visit_1": {Narrative: "guilty first visit"},
				}},
				InnocentVariant: &story.NPCVariant{SceneOverrides: map[string]story.Scene{
					"hub_visit_2": {Narrative: "innocent second visit"},
				}},
				Reactions: map[string]story.Scene{
					"accused": {Narrative: "how dare you"},
				},
			},
		},
		Items: []story.Item{
			{ID: "rope", Name: "Rope"},
			{ID: "lamp", Name: "Lamp"},
		},
		Clues: story.ClueSet{
			Core: []story.Clue{
				{ID: "c1", Text: "a torn ledger", PointsTo: "culprit"},
				{ID: "c2", Text: "split-heel boot prints", PointsTo: "culprit"},
				{ID: "c3", Text: "hidden lamp oil", PointsTo: "hideout"},
			},
			Bonus: []story.Clue{
				{ID: "b1", Text: "a scorched cloth", PointsTo: "culprit"},
			},
		},
		Roles: []story.Role{
			{ID: "scout", Name: "Scout", Tricks: []story.Trick{{ID: "t1", Name: "Sharp Eyes", Uses: "once"}}},
			{ID: "brute", Name: "Brute", Tricks: []story.Trick{{ID: "t2", Name: "Shoulder", Uses: "passive"}}},
		},
		Conditions: []story.Condition{
			{ID: "soaked", Name: "Soaked",
				StatModifier: &story.StatModifier{Stat: "wits", Delta: -1},
				CuredBy:      []string{"rest", "item:lamp"}},
			{ID: "cursed", Name: "Cursed",
				StatModifier: &story.StatModifier{Stat: "brawn", Delta: -1},
				CuredBy:      []string{}},
		},
		Complications: []story.Complication{
			{ID: "comp_a", Name: "Rockfall", Size: "small",
				Effects: []story.Effect{{Type: EffectCondition, Action: "add", Target: "self", Condition: "soaked"}}},
			{ID: "comp_b", Name: "Snapped Plank", Size: "small"},
			{ID: "comp_big", Name: "Storm Surge", Size: "large",
				Effects: []story.Effect{{Type: EffectTrack, Track: "weather", Delta: -2}}},
		},
		Epilogues: map[string]story.Epilogue{
			"end_keeper": {Narrative: "the keeper confesses"},
			"loss":       {Narrative: "the trail goes cold"},
		},
		Secrets: story.Secrets{Combinations: []story.Combination{
			{Culprit: "keeper", Hideout: "cave_deep", Epilogue: "end_keeper",
				ClueAssignments: map[string]string{"cave_mouth": "c2", "tower": "c1"}},
		}},
	}
}

// newTestState builds a two-player state under the fixture's first secret.
func newTestState(s *story.Story) *GameState {
	p1 := NewPlayer("p1", "Ada", "scout", map[string]int{"brawn": 3, "wits": 2}, "t1")
	p1.IsLeader = true
	p2 := NewPlayer("p2", "Ben", "brute", map[string]int{"brawn": 2, "wits": 3}, "t2")
	state := NewGameState(s, &s.Secrets.Combinations[0], map[string]*Player{"p1": p1, "p2": p2})
	return SetPhase(state, PhasePlaying)
}
