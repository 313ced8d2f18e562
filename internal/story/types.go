// internal/story/types.go
//
// Type definitions for authored adventure content.
// A Story is static, read-only data: once loaded it is shared by every
// session playing that adventure and must never be mutated by the engine.
//
// Optional authored fields are modelled as pointers (or zero-value-means-unset
// where the zero value is never meaningful) so that "absent" is explicit.

package story

// Story is one complete authored adventure.
type Story struct {
	Meta          Meta                `yaml:"meta"`
	Config        Config              `yaml:"config"`
	Rooms         map[string]Room     `yaml:"rooms"`
	NPCs          []NPC               `yaml:"npcs"`
	Items         []Item              `yaml:"items"`
	Clues         ClueSet             `yaml:"clues"`
	Roles         []Role              `yaml:"roles"`
	Conditions    []Condition         `yaml:"conditions"`
	Complications []Complication      `yaml:"complications"`
	Epilogues     map[string]Epilogue `yaml:"epilogues"`
	Secrets       Secrets             `yaml:"secrets"`
	Strings       map[string]string   `yaml:"strings"`
}

// Meta identifies an adventure.
type Meta struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Version     string      `yaml:"version"`
	PlayerCount PlayerCount `yaml:"playerCount"`
}

// PlayerCount is the advertised participant range.
type PlayerCount struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Config holds the adventure-wide tunables: stats, approaches, tracks,
// token pools, the verb menu, and lobby limits.
type Config struct {
	Stats      []Stat     `yaml:"stats"`
	Approaches []Approach `yaml:"approaches"`
	Tracks     []TrackDef `yaml:"tracks"`
	Tokens     []TokenDef `yaml:"tokens"`
	VerbMenu   []string   `yaml:"verbMenu"`
	Lobby      Lobby      `yaml:"lobby"`
	StartRoom  string     `yaml:"startRoom"`
}

// Stat declares one player statistic (e.g. brawn, wits).
type Stat struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Approach is one of the ways a choice can be attempted. Wild approaches
// carry RequiresComplication and always stage a complication.
type Approach struct {
	ID                   string   `yaml:"id"`
	Name                 string   `yaml:"name"`
	Effects              []Effect `yaml:"effects"`
	RequiresComplication bool     `yaml:"requiresComplication"`
}

// TrackDef declares a bounded shared resource. TriggerAt is optional:
// a track without it never triggers.
type TrackDef struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Start          int      `yaml:"start"`
	Min            int      `yaml:"min"`
	Max            int      `yaml:"max"`
	Direction      string   `yaml:"direction"` // "up" or "down"
	TriggerAt      *int     `yaml:"triggerAt"`
	TriggerEffects []Effect `yaml:"triggerEffects"`
}

// TokenDef declares a shared consumable pool with its starting size.
type TokenDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Pool int    `yaml:"pool"`
}

// Lobby bounds the participant roster.
type Lobby struct {
	MinPlayers int `yaml:"minPlayers"`
	MaxPlayers int `yaml:"maxPlayers"`
}

// Effect is one atomic authored state transformation. Type selects the
// variant; the remaining fields are read per-variant and ignored otherwise.
// The engine treats unknown Type values as no-ops so that newer content
// keeps loading on older servers.
type Effect struct {
	Type string `yaml:"type"`

	Track string `yaml:"track"` // track: which track
	Token string `yaml:"token"` // token: which pool
	Delta int    `yaml:"delta"` // track/token/insight: signed amount

	Action    string `yaml:"action"`    // condition: add|remove; item: draw|add|lose; clue: core|bonus
	Target    string `yaml:"target"`    // condition/item: self|leader|all|<playerId>; goto: room id
	Condition string `yaml:"condition"` // condition: condition id

	ID    string `yaml:"id"`    // item/clue: entity id
	Count int    `yaml:"count"` // item draw: how many

	Text string `yaml:"text"` // narrative: story text
	Size string `yaml:"size"` // complication: small|large

	NPC  string `yaml:"npc"`  // npc_reveal: npc id
	Info string `yaml:"info"` // npc_reveal: info tag
}

// Room is one node in the adventure graph.
type Room struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	Zone      string      `yaml:"zone"`
	Narrative string      `yaml:"narrative"`
	Tags      []string    `yaml:"tags"`
	Exits     []Exit      `yaml:"exits"`
	Choices   []Choice    `yaml:"choices"`
	Clue      *ClueConfig `yaml:"clue"`
	Items     *ItemConfig `yaml:"items"`
	OnEnter   []Effect    `yaml:"onEnter"`
}

// Exit is a labelled edge to another room.
type Exit struct {
	Target string `yaml:"target"`
	Label  string `yaml:"label"`
}

// Choice is an authored interaction offered by a room.
type Choice struct {
	ID           string           `yaml:"id"`
	Label        string           `yaml:"label"`
	Verb         string           `yaml:"verb"`
	Requires     *StatRequirement `yaml:"requires"`
	RequiresItem string           `yaml:"requiresItem"`
	RevealAfter  []string         `yaml:"revealAfter"` // "clue:N", "npc:<id>", "visit:N"
	Effects      []Effect         `yaml:"effects"`
	Target       string           `yaml:"target"`
	Narrative    string           `yaml:"narrative"`
}

// StatRequirement gates a choice on an effective stat value.
type StatRequirement struct {
	Stat string `yaml:"stat"`
	Min  int    `yaml:"min"`
}

// ClueConfig declares a room's candidate clue pool.
type ClueConfig struct {
	Pool []string `yaml:"pool"`
	Type string   `yaml:"type"` // "core" (default) or "bonus"
}

// ItemConfig declares automatic item rewards on room entry.
type ItemConfig struct {
	Guaranteed string `yaml:"guaranteed"`
	Draw       int    `yaml:"draw"`
}

// NPC is a non-player character with per-visit scenes. Scene keys follow
// the form "hub_visit_N". Guilty/innocent variants override individual
// scene keys depending on whether the NPC is the session's culprit.
type NPC struct {
	ID              string           `yaml:"id"`
	Name            string           `yaml:"name"`
	Role            string           `yaml:"role"`
	Scenes          map[string]Scene `yaml:"scenes"`
	GuiltyVariant   *NPCVariant      `yaml:"guiltyVariant"`
	InnocentVariant *NPCVariant      `yaml:"innocentVariant"`
	Reactions       map[string]Scene `yaml:"reactions"`
}

// NPCVariant holds scene overrides for one guilt state.
type NPCVariant struct {
	SceneOverrides map[string]Scene `yaml:"sceneOverrides"`
}

// Scene is one unit of NPC dialogue, optionally revealing info tags.
type Scene struct {
	Narrative string   `yaml:"narrative"`
	Reveals   []string `yaml:"reveals"`
}

// Item is a drawable or grantable object.
type Item struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// ClueSet splits clues into the core trail and optional bonus finds.
type ClueSet struct {
	Core  []Clue `yaml:"core"`
	Bonus []Clue `yaml:"bonus"`
}

// Clue is a single discoverable fact. PointsTo annotates which part of
// the solution the clue implicates.
type Clue struct {
	ID       string `yaml:"id"`
	Text     string `yaml:"text"`
	PointsTo string `yaml:"pointsTo"`
}

// Role is a selectable character archetype with its special abilities.
type Role struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Tricks []Trick `yaml:"tricks"`
}

// Trick is a role ability. Uses is an authored use-count rule:
// "once", "once_per_dungeon", "once_per_room", or "passive".
type Trick struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Text string `yaml:"text"`
	Uses string `yaml:"uses"`
}

// Condition is a status effect definition.
type Condition struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	StatModifier *StatModifier `yaml:"statModifier"`
	CuredBy      []string      `yaml:"curedBy"` // e.g. "rest", "item:torch"
}

// StatModifier shifts one stat while the condition is active.
type StatModifier struct {
	Stat  string `yaml:"stat"`
	Delta int    `yaml:"delta"`
}

// Complication is a setback drawn when a wild approach (or an authored
// effect) demands one. Size buckets are "small" and "large".
type Complication struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Size      string   `yaml:"size"`
	Narrative string   `yaml:"narrative"`
	Effects   []Effect `yaml:"effects"`
}

// Epilogue is an ending text keyed by epilogue id.
type Epilogue struct {
	Narrative string `yaml:"narrative"`
}

// Secrets holds the authored solution space.
type Secrets struct {
	Combinations []Combination `yaml:"combinations"`
}

// Combination is one possible hidden solution: who did it, where they
// hide, which room reveals which clue under this solution, and which
// epilogue plays on a win.
type Combination struct {
	Culprit         string            `yaml:"culprit"`
	Hideout         string            `yaml:"hideout"`
	ClueAssignments map[string]string `yaml:"clueAssignments"`
	RoomOverrides   map[string]string `yaml:"roomOverrides"`
	Epilogue        string            `yaml:"epilogue"`
}

// --------------------------- lookup helpers --------------------------------

// Room returns the room for id, or nil if the adventure has no such room.
func (s *Story) Room(id string) *Room {
	if r, ok := s.Rooms[id]; ok {
		return &r
	}
	return nil
}

// ItemDef returns the item definition for id, or nil.
func (s *Story) ItemDef(id string) *Item {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	return nil
}

// NPCDef returns the NPC definition for id, or nil.
func (s *Story) NPCDef(id string) *NPC {
	for i := range s.NPCs {
		if s.NPCs[i].ID == id {
			return &s.NPCs[i]
		}
	}
	return nil
}

// RoleDef returns the role definition for id, or nil.
func (s *Story) RoleDef(id string) *Role {
	for i := range s.Roles {
		if s.Roles[i].ID == id {
			return &s.Roles[i]
		}
	}
	return nil
}

// ConditionDef returns the condition definition for id, or nil.
func (s *Story) ConditionDef(id string) *Condition {
	for i := range s.Conditions {
		if s.Conditions[i].ID == id {
			return &s.Conditions[i]
		}
	}
	return nil
}

// TrackDef returns the track definition for id, or nil.
func (s *Story) TrackDef(id string) *TrackDef {
	for i := range s.Config.Tracks {
		if s.Config.Tracks[i].ID == id {
			return &s.Config.Tracks[i]
		}
	}
	return nil
}

// ApproachDef returns the approach definition for id, or nil.
func (s *Story) ApproachDef(id string) *Approach {
	for i := range s.Config.Approaches {
		if s.Config.Approaches[i].ID == id {
			return &s.Config.Approaches[i]
		}
	}
	return nil
}

// MinPlayers returns the configured lobby minimum, defaulting to 1.
func (s *Story) MinPlayers() int {
	if s.Config.Lobby.MinPlayers > 0 {
		return s.Config.Lobby.MinPlayers
	}
	return 1
}

// MaxPlayers returns the configured lobby maximum, defaulting to 4.
func (s *Story) MaxPlayers() int {
	if s.Config.Lobby.MaxPlayers > 0 {
		return s.Config.Lobby.MaxPlayers
	}
	return 4
}

// StartRoom returns the configured start room, defaulting to "hub".
func (s *Story) StartRoom() string {
	if s.Config.StartRoom != "" {
		return s.Config.StartRoom
	}
	return "hub"
}
