// internal/story/loader.go
//
// Loading and structural checking of authored adventure files.
// Responsibilities:
//   - Decode a Story from YAML bytes or a file path.
//   - Check the structural minimum an adventure needs to run (ids, names,
//     track bounds). This is a sanity pass, not full schema validation.
//   - Scan a directory for adventure files.

package story

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadBytes decodes and checks a Story from raw YAML.
func LoadBytes(data []byte) (*Story, error) {
	var s Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}
	// Room ids are authoritative in the map key; the inline field is
	// optional and filled in here so lookups can rely on it.
	for key, room := range s.Rooms {
		if room.ID == "" {
			room.ID = key
			s.Rooms[key] = room
		}
	}
	if errs := Check(&s); len(errs) > 0 {
		return nil, fmt.Errorf("invalid story: %s", strings.Join(errs, "; "))
	}
	return &s, nil
}

// LoadFile decodes and checks a Story from a YAML file.
func LoadFile(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story %s: %w", path, err)
	}
	s, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Check reports the structural problems that would make an adventure
// unplayable. It returns a list of human-readable messages; an empty
// list means the story is usable.
func Check(s *Story) []string {
	var errs []string

	if s.Meta.Title == "" {
		errs = append(errs, "meta.title is required")
	}
	if s.Meta.Version == "" {
		errs = append(errs, "meta.version is required")
	}
	if len(s.Rooms) == 0 {
		errs = append(errs, "at least one room is required")
	}

	for _, t := range s.Config.Tracks {
		if t.ID == "" {
			errs = append(errs, "track missing id")
			continue
		}
		if t.Min > t.Max {
			errs = append(errs, fmt.Sprintf("track %s: min > max", t.ID))
		}
		if t.Start < t.Min || t.Start > t.Max {
			errs = append(errs, fmt.Sprintf("track %s: start outside [min,max]", t.ID))
		}
	}
	for _, a := range s.Config.Approaches {
		if a.ID == "" {
			errs = append(errs, "approach missing id")
		}
	}
	for _, st := range s.Config.Stats {
		if st.ID == "" {
			errs = append(errs, "stat missing id")
		}
	}

	for roomID, room := range s.Rooms {
		if room.ID == "" {
			errs = append(errs, fmt.Sprintf("room %s: missing id", roomID))
		}
		if room.Name == "" {
			errs = append(errs, fmt.Sprintf("room %s: missing name", roomID))
		}
		for _, c := range room.Choices {
			if c.ID == "" {
				errs = append(errs, fmt.Sprintf("room %s: choice missing id", roomID))
			}
			if c.Label == "" {
				errs = append(errs, fmt.Sprintf("room %s: choice %s missing label", roomID, c.ID))
			}
		}
		for _, e := range room.Exits {
			if e.Target == "" {
				errs = append(errs, fmt.Sprintf("room %s: exit missing target", roomID))
			}
		}
	}

	for _, r := range s.Roles {
		if r.ID == "" {
			errs = append(errs, "role missing id")
		}
	}
	for _, c := range s.Complications {
		if c.Size != "" && c.Size != "small" && c.Size != "large" {
			errs = append(errs, fmt.Sprintf("complication %s: unknown size %q", c.ID, c.Size))
		}
	}

	return errs
}

// ScanDir loads every *.yaml / *.yml adventure under dir, sorted by path.
// Files that fail to load are skipped with their error reported in the
// second return value; a missing directory yields an empty result.
func ScanDir(dir string) ([]*Story, []error) {
	var stories []*Story
	var problems []error

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{err}
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	for _, p := range paths {
		s, err := LoadFile(p)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if s.Meta.ID == "" {
			s.Meta.ID = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		}
		stories = append(stories, s)
	}
	return stories, problems
}
