package engine

import (
	"testing"

	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

func TestApplyEffectUnknownKindIsNoop(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)
	next, _ := ApplyEffect(state, story.Effect{Type: "summon_dragon"}, s, Context{PlayerID: "p1"})
	if next != state {
		t.Fatal("unknown effect kind must return the state unchanged")
	}
}

func TestApplyEffectConditionTargets(t *testing.T) {
	s := newTestStory()

	cases := []struct {
		name   string
		target string
		want   string // player who ends up soaked
	}{
		{name: "self", target: "self", want: "p2"},
		{name: "empty means self", target: "", want: "p2"},
		{name: "leader", target: "leader", want: "p1"},
		{name: "explicit id", target: "p1", want: "p1"},
		{name: "unknown id falls back to actor", target: "p9", want: "p2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := newTestState(s)
			next, _ := ApplyEffect(state, story.Effect{
				Type: EffectCondition, Action: "add", Target: tc.target, Condition: "soaked",
			}, s, Context{PlayerID: "p2"})
			if !HasCondition(next.Players[tc.want], "soaked") {
				t.Fatalf("%s should be soaked", tc.want)
			}
		})
	}
}

func TestApplyEffectsAllExpandsPerPlayer(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)
	next, _ := ApplyEffects(state, []story.Effect{
		{Type: EffectCondition, Action: "add", Target: "all", Condition: "soaked"},
	}, s, Context{PlayerID: "p1"})
	for id, p := range next.Players {
		if !HasCondition(p, "soaked") {
			t.Fatalf("player %s should be soaked", id)
		}
	}
}

func TestApplyEffectItemLose(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)
	state = GrantItem(state, "p1", "rope")
	state = GrantItem(state, "p1", "lamp")

	t.Run("named item", func(t *testing.T) {
		next, _ := ApplyEffect(state, story.Effect{Type: EffectItem, Action: "lose", ID: "rope"}, s, Context{PlayerID: "p1"})
		if HasItem(next.Players["p1"], "rope") {
			t.Fatal("rope should be lost")
		}
		if !HasItem(next.Players["p1"], "lamp") {
			t.Fatal("lamp should remain")
		}
	})

	t.Run("unnamed loses most recent", func(t *testing.T) {
		next, _ := ApplyEffect(state, story.Effect{Type: EffectItem, Action: "lose"}, s, Context{PlayerID: "p1"})
		if HasItem(next.Players["p1"], "lamp") {
			t.Fatal("most recently added lamp should be lost")
		}
	})

	t.Run("empty-handed is a no-op", func(t *testing.T) {
		next, _ := ApplyEffect(state, story.Effect{Type: EffectItem, Action: "lose"}, s, Context{PlayerID: "p2"})
		if next != state {
			t.Fatal("losing with no items should not change state")
		}
	})
}

func TestApplyEffectClueIdempotent(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)

	next, _ := ApplyEffect(state, story.Effect{Type: EffectClue, ID: "c1"}, s, Context{})
	again, _ := ApplyEffect(next, story.Effect{Type: EffectClue, ID: "c1"}, s, Context{})
	if again != next {
		t.Fatal("re-finding a clue should be a no-op")
	}
	if len(next.CluesFound) != 1 {
		t.Fatalf("clues found = %v", next.CluesFound)
	}

	bonus, _ := ApplyEffect(next, story.Effect{Type: EffectClue, Action: "bonus", ID: "b1"}, s, Context{})
	if len(bonus.BonusCluesFound) != 1 || bonus.BonusCluesFound[0] != "b1" {
		t.Fatalf("bonus clues = %v", bonus.BonusCluesFound)
	}
}

func TestApplyEffectInsightDefaultsToOne(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)
	next, _ := ApplyEffect(state, story.Effect{Type: EffectInsight}, s, Context{})
	if got := next.Tokens["insight"]; got != 1 {
		t.Fatalf("insight = %d, want 1", got)
	}
}

func TestApplyEffectsStagesDirectives(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)

	_, pending := ApplyEffects(state, []story.Effect{
		{Type: EffectGoto, Target: "tower"},
		{Type: EffectComplication, Size: "large"},
		{Type: EffectGoto, Target: "hub"}, // later goto overwrites
	}, s, Context{PlayerID: "p1"})

	if pending.GotoRoom != "hub" {
		t.Fatalf("pending goto = %q, want hub", pending.GotoRoom)
	}
	if pending.Complication != "large" {
		t.Fatalf("pending complication = %q, want large", pending.Complication)
	}
}

func TestApplyEffectRest(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)
	state, _ = ApplyEffect(state, story.Effect{Type: EffectCondition, Action: "add", Target: "all", Condition: "soaked"}, s, Context{PlayerID: "p1"})
	state, _ = ApplyEffect(state, story.Effect{Type: EffectCondition, Action: "add", Target: "p1", Condition: "cursed"}, s, Context{PlayerID: "p1"})

	next, _ := ApplyEffects(state, []story.Effect{{Type: EffectRest}}, s, Context{PlayerID: "p1"})

	for id, p := range next.Players {
		if HasCondition(p, "soaked") {
			t.Fatalf("rest should cure %s of soaked", id)
		}
	}
	if !HasCondition(next.Players["p1"], "cursed") {
		t.Fatal("cursed is not rest-curable")
	}
	if got := next.Tracks["weather"].Value; got != 1 {
		t.Fatalf("weather after rest = %d, want 1", got)
	}
}

func TestApplyEffectLeaderFlip(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)
	next, _ := ApplyEffect(state, story.Effect{Type: EffectLeaderFlip}, s, Context{PlayerID: "p2"})
	if !next.Players["p1"].LeaderFlipped {
		t.Fatal("leader flip should mark the current leader")
	}
}

func TestApplyEffectNpcReveal(t *testing.T) {
	s := newTestStory()
	state := newTestState(s)
	next, _ := ApplyEffect(state, story.Effect{Type: EffectNpcReveal, NPC: "keeper", Info: "secret_door"}, s, Context{})
	if got := next.NPCState["keeper"].Revealed; len(got) != 1 || got[0] != "secret_door" {
		t.Fatalf("revealed = %v", got)
	}
}
