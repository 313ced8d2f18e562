package story

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validStory = `
meta:
  id: test
  title: A Test
  version: "1"
config:
  startRoom: hub
  stats:
    - id: brawn
      name: Brawn
  tracks:
    - id: weather
      name: Storm
      start: 4
      min: 0
      max: 6
      direction: down
rooms:
  hub:
    name: The Square
    zone: hub
    exits:
      - target: cellar
    choices:
      - id: ask
        label: Ask around
  cellar:
    name: The Cellar
    zone: dungeon_a
`

func TestLoadBytes(t *testing.T) {
	s, err := LoadBytes([]byte(validStory))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Meta.Title != "A Test" || s.StartRoom() != "hub" {
		t.Fatalf("story = %+v", s.Meta)
	}

	// Room ids come from the map keys; the inline field is optional.
	room := s.Room("cellar")
	if room == nil || room.ID != "cellar" {
		t.Fatalf("room = %+v, want id backfilled from the key", room)
	}
}

func TestLoadBytesRejectsBadYAML(t *testing.T) {
	if _, err := LoadBytes([]byte("rooms: [not: a: map]")); err == nil {
		t.Fatal("malformed yaml should fail")
	}
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name  string
		mutil func(*Story)
		want  string
	}{
		{
			name:  "missing title",
			mutil: func(s *Story) { s.Meta.Title = "" },
			want:  "meta.title is required",
		},
		{
			name:  "no rooms",
			mutil: func(s *Story) { s.Rooms = nil },
			want:  "at least one room is required",
		},
		{
			name:  "track bounds inverted",
			mutil: func(s *Story) { s.Config.Tracks[0].Min = 7 },
			want:  "track weather: min > max",
		},
		{
			name:  "track start out of range",
			mutil: func(s *Story) { s.Config.Tracks[0].Start = 9 },
			want:  "track weather: start outside [min,max]",
		},
		{
			name: "bad complication size",
			mutil: func(s *Story) {
				s.Complications = []Complication{{ID: "c", Size: "huge"}}
			},
			want: `complication c: unknown size "huge"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := LoadBytes([]byte(validStory))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.mutil(s)
			errs := Check(s)
			for _, e := range errs {
				if e == tc.want {
					return
				}
			}
			t.Fatalf("errs = %v, want %q", errs, tc.want)
		})
	}
}

func TestScanDir(t *testing.T) {
	t.Run("missing directory is empty, not an error", func(t *testing.T) {
		stories, problems := ScanDir(filepath.Join(t.TempDir(), "absent"))
		if stories != nil || problems != nil {
			t.Fatalf("scan = (%v, %v), want empty", stories, problems)
		}
	})

	t.Run("loads yaml, reports broken files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "good.yaml", validStory)
		writeFile(t, dir, "broken.yaml", "meta: [")
		writeFile(t, dir, "notes.txt", "not an adventure")

		stories, problems := ScanDir(dir)
		if len(stories) != 1 || stories[0].Meta.ID != "test" {
			t.Fatalf("stories = %+v", stories)
		}
		if len(problems) != 1 {
			t.Fatalf("problems = %v, want the broken file reported", problems)
		}
	})

	t.Run("filename stands in for a missing id", func(t *testing.T) {
		dir := t.TempDir()
		anon := strings.Replace(validStory, "  id: test\n", "", 1)
		writeFile(t, dir, "cellar-run.yaml", anon)

		stories, problems := ScanDir(dir)
		if len(problems) != 0 {
			t.Fatalf("problems = %v", problems)
		}
		if len(stories) != 1 || stories[0].Meta.ID != "cellar-run" {
			t.Fatalf("id = %q, want cellar-run", stories[0].Meta.ID)
		}
	})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
