package session

import (
	"context"
	"testing"

	"github.com/fredrikpaulin/DUNGEONS/internal/engine"
	"github.com/fredrikpaulin/DUNGEONS/internal/story"
)

// testAdventure builds the two-dungeon mystery the store tests play
// through: a hub, a mine, and a tower, one assigned clue per dungeon.
func testAdventure() *story.Story {
	return &story.Story{
		Meta: story.Meta{ID: "mill-mystery", Title: "The Mill Mystery", Version: "1"},
		Config: story.Config{
			StartRoom: "hub",
			Stats:     []story.Stat{{ID: "brawn"}, {ID: "wits"}},
			Approaches: []story.Approach{
				{ID: "careful", Name: "Careful"},
				{ID: "wild", Name: "Wild", RequiresComplication: true},
			},
			Tracks: []story.TrackDef{
				{ID: "weather", Name: "Storm", Start: 6, Min: 0, Max: 6, Direction: "down"},
			},
			Tokens:   []story.TokenDef{{ID: "insight", Pool: 0}},
			VerbMenu: []string{"listen", "search"},
			Lobby:    story.Lobby{MinPlayers: 2, MaxPlayers: 3},
		},
		Rooms: map[string]story.Room{
			"hub": {
				ID: "hub", Name: "Village Green", Zone: "hub",
				Exits: []story.Exit{{Target: "mine_entrance"}, {Target: "tower_base"}},
				Choices: []story.Choice{
					{ID: "gossip", Label: "Trade gossip", Verb: "listen",
						Effects: []story.Effect{{Type: engine.EffectToken, Token: "insight", Delta: 1}}},
				},
			},
			"mine_entrance": {
				ID: "mine_entrance", Name: "Mine Entrance", Zone: "dungeon_a",
				Clue:  &story.ClueConfig{Pool: []string{"c_mine", "c_spare"}},
				Exits: []story.Exit{{Target: "hub"}, {Target: "mine_deep"}},
			},
			"mine_deep": {
				ID: "mine_deep", Name: "Flooded Shaft", Zone: "dungeon_a",
				Exits: []story.Exit{{Target: "mine_entrance"}},
			},
			"tower_base": {
				ID: "tower_base", Name: "Tower Base", Zone: "dungeon_b",
				Clue:  &story.ClueConfig{Pool: []string{"c_tower"}},
				Exits: []story.Exit{{Target: "hub"}, {Target: "tower_top"}},
			},
			"tower_top": {
				ID: "tower_top", Name: "Tower Top", Zone: "dungeon_b",
				Exits: []story.Exit{{Target: "tower_base"}},
			},
		},
		NPCs: []story.NPC{
			{ID: "miller", Name: "The Miller", Scenes: map[string]story.Scene{
				"hub_visit_1": {Narrative: "flour on his boots", Reveals: []string{"boots"}},
			}},
		},
		Clues: story.ClueSet{Core: []story.Clue{
			{ID: "c_mine", Text: "a pick with fresh mud", PointsTo: "hideout"},
			{ID: "c_spare", Text: "an old lunch pail", PointsTo: "hideout"},
			{ID: "c_tower", Text: "a milling receipt", PointsTo: "culprit"},
		}},
		Roles: []story.Role{
			{ID: "sleuth", Name: "Sleuth", Tricks: []story.Trick{{ID: "hunch", Uses: "once"}}},
			{ID: "muscle", Name: "Muscle", Tricks: []story.Trick{{ID: "shove", Uses: "once"}}},
		},
		Complications: []story.Complication{
			{ID: "cave_in", Name: "Cave-in", Size: "small", Narrative: "dust everywhere"},
		},
		Epilogues: map[string]story.Epilogue{
			"ending_miller": {Narrative: "the miller confesses"},
			"loss":          {Narrative: "the trail goes cold"},
		},
		Secrets: story.Secrets{Combinations: []story.Combination{
			{Culprit: "miller", Hideout: "mine_deep", Epilogue: "ending_miller",
				ClueAssignments: map[string]string{
					"mine_entrance": "c_mine",
					"tower_base":    "c_tower",
				}},
		}},
	}
}

func newTestStore() *Store {
	adv := testAdventure()
	return NewStore(map[string]*story.Story{adv.Meta.ID: adv}, nil, nil)
}

// startedSession walks two members through the whole lobby.
func startedSession(t *testing.T, st *Store) *Session {
	t.Helper()
	ctx := context.Background()
	sess, err := st.Create(ctx, "mill-mystery", "host", "Ada")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.Join(ctx, sess.ID, "guest", "Ben"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := st.SelectRole(ctx, sess.ID, "host", "sleuth"); err != nil {
		t.Fatalf("host role: %v", err)
	}
	if _, err := st.SelectRole(ctx, sess.ID, "guest", "muscle"); err != nil {
		t.Fatalf("guest role: %v", err)
	}
	if _, err := st.Start(ctx, sess.ID, "host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	return sess
}

func TestCreateUnknownAdventure(t *testing.T) {
	st := newTestStore()
	_, err := st.Create(context.Background(), "nope", "host", "Ada")
	f := AsFailure(err)
	if f == nil || f.Code != CodeNotFound {
		t.Fatalf("err = %v, want not-found failure", err)
	}
}

func TestJoinRules(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess, _ := st.Create(ctx, "mill-mystery", "host", "Ada")

	t.Run("re-join is a silent success", func(t *testing.T) {
		events, err := st.Join(ctx, sess.ID, "host", "Ada")
		if err != nil || events != nil {
			t.Fatalf("re-join = (%v, %v), want silent success", events, err)
		}
	})

	t.Run("capacity", func(t *testing.T) {
		for i, id := range []string{"u2", "u3"} {
			if _, err := st.Join(ctx, sess.ID, id, "X"); err != nil {
				t.Fatalf("join %d: %v", i, err)
			}
		}
		_, err := st.Join(ctx, sess.ID, "u4", "Y")
		if f := AsFailure(err); f == nil || f.Code != CodePrecondition {
			t.Fatalf("fourth join = %v, want precondition failure", err)
		}
	})
}

func TestSelectRoleExclusive(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess, _ := st.Create(ctx, "mill-mystery", "host", "Ada")
	st.Join(ctx, sess.ID, "guest", "Ben")

	if _, err := st.SelectRole(ctx, sess.ID, "host", "sleuth"); err != nil {
		t.Fatalf("first pick: %v", err)
	}
	_, err := st.SelectRole(ctx, sess.ID, "guest", "sleuth")
	if f := AsFailure(err); f == nil || f.Code != CodePrecondition {
		t.Fatalf("duplicate pick = %v, want precondition failure", err)
	}
	if _, err := st.SelectRole(ctx, sess.ID, "host", "muscle"); err != nil {
		t.Fatalf("re-pick by the same member: %v", err)
	}
}

func TestStartPreconditions(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess, _ := st.Create(ctx, "mill-mystery", "host", "Ada")

	if _, err := st.Start(ctx, sess.ID, "host"); AsFailure(err) == nil {
		t.Fatal("start below the player minimum should fail")
	}

	st.Join(ctx, sess.ID, "guest", "Ben")
	st.SelectRole(ctx, sess.ID, "host", "sleuth")
	if _, err := st.Start(ctx, sess.ID, "host"); AsFailure(err) == nil {
		t.Fatal("start with a roleless member should fail")
	}

	st.SelectRole(ctx, sess.ID, "guest", "muscle")
	if _, err := st.Start(ctx, sess.ID, "guest"); AsFailure(err) == nil {
		t.Fatal("only the host can start")
	}
	if _, err := st.Start(ctx, sess.ID, "host"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := st.Start(ctx, sess.ID, "host"); AsFailure(err) == nil {
		t.Fatal("double start should fail")
	}
}

func TestStartBuildsParty(t *testing.T) {
	st := newTestStore()
	sess := startedSession(t, st)

	if sess.Status != StatusPlaying {
		t.Fatalf("status = %s, want playing", sess.Status)
	}
	host := sess.Game.Players["host"]
	if host == nil || !host.IsLeader || host.Role != "sleuth" || host.Trick != "hunch" {
		t.Fatalf("host player = %+v", host)
	}
	if host.CurrentRoom != "hub" {
		t.Fatalf("host room = %s, want hub", host.CurrentRoom)
	}
	if host.Stats["brawn"] != 3 || host.Stats["wits"] != 2 {
		t.Fatalf("host stats = %v, want descending defaults", host.Stats)
	}
	if sess.Game.Secret.Culprit != "miller" {
		t.Fatalf("secret = %+v", sess.Game.Secret)
	}
}

func TestFullPlaythrough(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess := startedSession(t, st)

	move := func(userID, roomID string) *ActionResult {
		t.Helper()
		res, err := st.MovePlayer(ctx, sess.ID, userID, roomID)
		if err != nil {
			t.Fatalf("move %s to %s: %v", userID, roomID, err)
		}
		return res
	}

	// The party splits: one per dungeon, each collecting the assigned clue.
	res := move("host", "mine_entrance")
	if res.FinaleReady {
		t.Fatal("finale should not be ready with one dungeon entered")
	}
	move("guest", "tower_base")
	move("host", "hub")
	move("guest", "hub")

	if got := sess.Game.CluesFound; len(got) != 2 {
		t.Fatalf("clues = %v, want both assigned clues", got)
	}
	if !engine.IsClueFound(sess.Game, "c_mine") || !engine.IsClueFound(sess.Game, "c_tower") {
		t.Fatalf("clues = %v", sess.Game.CluesFound)
	}

	view, err := st.BuildRoomView(sess.ID, "host")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !view.FinaleReady {
		t.Fatal("both dungeons entered should arm the finale")
	}

	report, err := st.DoFinale(ctx, sess.ID, "host", engine.FinaleAnswers{Culprit: "miller", Hideout: "mine_deep"})
	if err != nil {
		t.Fatalf("finale: %v", err)
	}
	if !report.Win || report.Epilogue != "the miller confesses" {
		t.Fatalf("report = %+v", report)
	}
	if sess.Status != StatusEnded || sess.Game.Phase != engine.PhaseEnded {
		t.Fatalf("status %s phase %s, want ended/ended", sess.Status, sess.Game.Phase)
	}
}

func TestFinaleBeforeReady(t *testing.T) {
	st := newTestStore()
	sess := startedSession(t, st)
	_, err := st.DoFinale(context.Background(), sess.ID, "host", engine.FinaleAnswers{Culprit: "miller", Hideout: "mine_deep"})
	if f := AsFailure(err); f == nil || f.Code != CodePrecondition {
		t.Fatalf("early finale = %v, want precondition failure", err)
	}
}

func TestFinaleUnsolvedAdventureAlwaysLoses(t *testing.T) {
	adv := testAdventure()
	adv.Secrets.Combinations = nil
	st := NewStore(map[string]*story.Story{adv.Meta.ID: adv}, nil, nil)
	ctx := context.Background()
	sess := startedSession(t, st)
	st.MovePlayer(ctx, sess.ID, "host", "mine_entrance")
	st.MovePlayer(ctx, sess.ID, "guest", "tower_base")

	report, err := st.DoFinale(ctx, sess.ID, "host", engine.FinaleAnswers{})
	if err != nil {
		t.Fatalf("finale: %v", err)
	}
	if report.Win || report.Correct.Culprit || report.Correct.Hideout {
		t.Fatalf("report = %+v, empty answers must not win an unsolved game", report)
	}
}

func TestFinaleWrongAnswerLoses(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess := startedSession(t, st)
	st.MovePlayer(ctx, sess.ID, "host", "mine_entrance")
	st.MovePlayer(ctx, sess.ID, "guest", "tower_base")

	report, err := st.DoFinale(ctx, sess.ID, "guest", engine.FinaleAnswers{Culprit: "miller", Hideout: "tower_top"})
	if err != nil {
		t.Fatalf("finale: %v", err)
	}
	if report.Win || !report.Correct.Culprit || report.Correct.Hideout {
		t.Fatalf("report = %+v", report)
	}
	if report.Epilogue != "the trail goes cold" {
		t.Fatalf("epilogue = %q", report.Epilogue)
	}
}

func TestMoveRules(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess := startedSession(t, st)

	_, err := st.MovePlayer(ctx, sess.ID, "host", "mine_deep")
	if f := AsFailure(err); f == nil || f.Code != CodePrecondition {
		t.Fatalf("skipping a room = %v, want precondition failure", err)
	}
	_, err = st.MovePlayer(ctx, sess.ID, "host", "nowhere")
	if f := AsFailure(err); f == nil || f.Code != CodeNotFound {
		t.Fatalf("unknown room = %v, want not-found failure", err)
	}
	_, err = st.MovePlayer(ctx, sess.ID, "stranger", "mine_entrance")
	if f := AsFailure(err); f == nil || f.Code != CodeNotFound {
		t.Fatalf("non-member move = %v, want not-found failure", err)
	}
}

func TestMovePlayerDerivesRoomEvents(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess := startedSession(t, st)

	res, err := st.MovePlayer(ctx, sess.ID, "host", "mine_entrance")
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	var left, entered *Event
	for i := range res.Events {
		switch res.Events[i].Type {
		case EventPlayerLeft:
			left = &res.Events[i]
		case EventPlayerEntered:
			entered = &res.Events[i]
		}
	}
	if left == nil || left.Room != "hub" || left.PlayerID != "host" || left.PlayerName != "Ada" {
		t.Fatalf("left = %+v, want a hub departure for the mover", left)
	}
	if entered == nil || entered.Room != "mine_entrance" || entered.PlayerID != "host" {
		t.Fatalf("entered = %+v, want a mine_entrance arrival", entered)
	}
}

func TestDoChoice(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess := startedSession(t, st)

	t.Run("token effect", func(t *testing.T) {
		report, err := st.DoChoice(ctx, sess.ID, "host", "gossip", "careful", "listen")
		if err != nil {
			t.Fatalf("choice: %v", err)
		}
		if !report.VerbApt {
			t.Fatal("listen is gossip's own verb")
		}
		if sess.Game.Tokens["insight"] != 1 {
			t.Fatalf("insight = %d, want 1", sess.Game.Tokens["insight"])
		}
	})

	t.Run("wild approach materializes a complication", func(t *testing.T) {
		report, err := st.DoChoice(ctx, sess.ID, "host", "gossip", "wild", "")
		if err != nil {
			t.Fatalf("choice: %v", err)
		}
		if report.Complication != "cave_in" {
			t.Fatalf("complication = %q, want cave_in", report.Complication)
		}
		hist := sess.Game.ComplicationHistory
		if len(hist) != 1 || hist[0].ID != "cave_in" {
			t.Fatalf("history = %+v", hist)
		}
	})

	t.Run("unknown choice", func(t *testing.T) {
		_, err := st.DoChoice(ctx, sess.ID, "host", "nope", "careful", "")
		f := AsFailure(err)
		if f == nil || f.Code != CodeNotFound || f.Choice != "nope" {
			t.Fatalf("err = %v, want not-found with the choice id", err)
		}
	})
}

func TestTalkToNPC(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess := startedSession(t, st)

	scene, err := st.TalkToNPC(ctx, sess.ID, "host", "miller")
	if err != nil {
		t.Fatalf("talk: %v", err)
	}
	if scene.Narrative != "flour on his boots" || scene.Visits != 1 {
		t.Fatalf("scene = %+v", scene)
	}
	if len(scene.Reveals) != 1 || scene.Reveals[0] != "boots" {
		t.Fatalf("reveals = %v", scene.Reveals)
	}

	// Past the authored run the NPC has nothing new to say.
	scene, err = st.TalkToNPC(ctx, sess.ID, "host", "miller")
	if err != nil {
		t.Fatalf("second talk: %v", err)
	}
	if scene.Visits != 2 || scene.Narrative != "" || len(scene.Reveals) != 0 {
		t.Fatalf("second scene = %+v", scene)
	}

	st.MovePlayer(ctx, sess.ID, "host", "mine_entrance")
	_, err = st.TalkToNPC(ctx, sess.ID, "host", "miller")
	if f := AsFailure(err); f == nil || f.Code != CodePrecondition {
		t.Fatalf("talk from a dungeon = %v, want precondition failure", err)
	}
}

func TestUseTrick(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess := startedSession(t, st)

	if _, err := st.UseTrick(ctx, sess.ID, "host"); err != nil {
		t.Fatalf("trick: %v", err)
	}
	if !sess.Game.Players["host"].TrickUsed {
		t.Fatal("trick should be marked spent")
	}
	_, err := st.UseTrick(ctx, sess.ID, "host")
	if f := AsFailure(err); f == nil || f.Code != CodePrecondition {
		t.Fatalf("second use = %v, want precondition failure", err)
	}
}

func TestLeave(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess, _ := st.Create(ctx, "mill-mystery", "host", "Ada")
	st.Join(ctx, sess.ID, "guest", "Ben")

	t.Run("host handoff", func(t *testing.T) {
		if _, err := st.Leave(ctx, sess.ID, "host"); err != nil {
			t.Fatalf("leave: %v", err)
		}
		if sess.HostID != "guest" {
			t.Fatalf("host = %s, want guest", sess.HostID)
		}
	})

	t.Run("empty session is discarded", func(t *testing.T) {
		if _, err := st.Leave(ctx, sess.ID, "guest"); err != nil {
			t.Fatalf("leave: %v", err)
		}
		if _, err := st.Get(sess.ID); AsFailure(err) == nil {
			t.Fatal("emptied session should be gone")
		}
	})
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	repo := NewMemoryRepository()
	adv := testAdventure()
	adventures := map[string]*story.Story{adv.Meta.ID: adv}
	ctx := context.Background()

	first := NewStore(adventures, repo, nil)
	sess := startedSession(t, first)
	if _, err := first.MovePlayer(ctx, sess.ID, "host", "mine_entrance"); err != nil {
		t.Fatalf("move: %v", err)
	}

	// A cold store, same repository: restore and keep playing.
	second := NewStore(adventures, repo, nil)
	restored, err := second.Restore(ctx, sess.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Status != StatusPlaying || restored.Story == nil {
		t.Fatalf("restored = status %s story %v", restored.Status, restored.Story != nil)
	}
	if restored.Game.Players["host"].CurrentRoom != "mine_entrance" {
		t.Fatalf("host room = %s, want mine_entrance", restored.Game.Players["host"].CurrentRoom)
	}
	if !engine.IsClueFound(restored.Game, "c_mine") {
		t.Fatalf("clues = %v, want the mine clue back", restored.Game.CluesFound)
	}
	if _, err := second.MovePlayer(ctx, sess.ID, "host", "mine_deep"); err != nil {
		t.Fatalf("move after restore: %v", err)
	}

	_, err = second.Restore(ctx, "missing")
	if f := AsFailure(err); f == nil || f.Code != CodeNotFound {
		t.Fatalf("restore missing = %v, want not-found failure", err)
	}
}

func TestBuildRoomView(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	sess := startedSession(t, st)

	t.Run("hub lists npcs and the co-located partner", func(t *testing.T) {
		view, err := st.BuildRoomView(sess.ID, "host")
		if err != nil {
			t.Fatalf("view: %v", err)
		}
		if view.Room != "hub" || len(view.NPCs) != 1 || view.NPCs[0].ID != "miller" {
			t.Fatalf("view = room %s npcs %+v", view.Room, view.NPCs)
		}
		if len(view.Others) != 1 || view.Others[0].ID != "guest" {
			t.Fatalf("others = %+v", view.Others)
		}
		if view.You.ID != "host" {
			t.Fatalf("you = %+v", view.You)
		}
		if len(view.Exits) != 2 || view.Exits[0].Label != "Mine Entrance" {
			t.Fatalf("exits = %+v", view.Exits)
		}
	})

	t.Run("dungeon view drops npcs and absent partners", func(t *testing.T) {
		st.MovePlayer(ctx, sess.ID, "host", "mine_entrance")
		view, err := st.BuildRoomView(sess.ID, "host")
		if err != nil {
			t.Fatalf("view: %v", err)
		}
		if len(view.NPCs) != 0 {
			t.Fatal("npcs belong to the hub only")
		}
		if len(view.Others) != 0 {
			t.Fatalf("others = %+v, want nobody in the mine", view.Others)
		}
	})
}

func TestList(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	base := int64(1000)
	orig := storeNow
	storeNow = func() int64 { base++; return base }
	defer func() { storeNow = orig }()

	a, _ := st.Create(ctx, "mill-mystery", "h1", "A")
	b, _ := st.Create(ctx, "mill-mystery", "h2", "B")

	infos := st.List()
	if len(infos) != 2 {
		t.Fatalf("infos = %+v", infos)
	}
	if infos[0].ID != b.ID || infos[1].ID != a.ID {
		t.Fatal("newest session should list first")
	}
	if infos[0].Title != "The Mill Mystery" || infos[0].MaxPlayers != 3 {
		t.Fatalf("info = %+v", infos[0])
	}
}
