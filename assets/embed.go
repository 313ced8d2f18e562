package assets

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed adventures/*.yaml
var FS embed.FS

// AdventureFiles returns the embedded adventure YAML documents, sorted by
// filename so load order is stable.
func AdventureFiles() (map[string][]byte, error) {
	entries, err := fs.ReadDir(FS, "adventures")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(FS, "adventures/"+name)
		if err != nil {
			return nil, err
		}
		out[name] = data
	}
	return out, nil
}
