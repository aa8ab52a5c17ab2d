package output

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultManifestPath is where generated documents are recorded, relative to the working
// directory.
const DefaultManifestPath = ".delegen/manifest.yaml"

// Entry records one generated document.
type Entry struct {
	Source   string `yaml:"source"`
	Type     string `yaml:"type"`
	Output   string `yaml:"output"`
	Language string `yaml:"language"`
}

// Manifest lists every document generated from this workspace.
type Manifest struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// ReadManifest loads the manifest at path. A missing file is an empty manifest.
func ReadManifest(fsys FileSystem, path string) (*Manifest, error) {
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{Version: manifestVersion}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if m.Version == 0 {
		m.Version = manifestVersion
	}

	return &m, nil
}

// Record adds e, replacing any entry for the same source and type.
func (m *Manifest) Record(e Entry) {
	for i, old := range m.Entries {
		if old.Source == e.Source && old.Type == e.Type {
			m.Entries[i] = e

			return
		}
	}

	m.Entries = append(m.Entries, e)
}

// ForSource returns the entries generated from source. Paths are compared cleaned.
func (m *Manifest) ForSource(source string) []Entry {
	var out []Entry

	source = filepath.Clean(source)

	for _, e := range m.Entries {
		if filepath.Clean(e.Source) == source {
			out = append(out, e)
		}
	}

	return out
}

// Sources returns the distinct source paths, sorted.
func (m *Manifest) Sources() []string {
	var out []string

	for _, e := range m.Entries {
		if !slices.Contains(out, e.Source) {
			out = append(out, e.Source)
		}
	}

	slices.Sort(out)

	return out
}

// WriteManifest stores m at path with entries sorted by source then type.
func WriteManifest(fsys FileSystem, path string, m *Manifest) error {
	sorted := *m
	sorted.Entries = slices.Clone(m.Entries)
	slices.SortFunc(sorted.Entries, func(a, b Entry) int {
		if c := strings.Compare(a.Source, b.Source); c != 0 {
			return c
		}

		return strings.Compare(a.Type, b.Type)
	})

	data, err := yaml.Marshal(&sorted)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := fsys.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	if err := fsys.WriteFile(path, data, documentPermissions); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}

	return nil
}

const manifestVersion = 1
