// Package output decides where a generated mock goes and writes it there.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	load "github.com/toejough/mockdelegates/delegen/run/2_load"
)

// FileSystem is the file access output needs.
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// ProjectKind is the build system a project belongs to.
type ProjectKind int

// ProjectKind values.
const (
	CSharpProject ProjectKind = iota
	GoModule
)

// Project is a unit of build: a directory holding a .csproj or go.mod file.
type Project struct {
	// Name is the .csproj base name, or the last element of the Go module path.
	Name string
	// Dir is the directory holding the project file.
	Dir string
	// File is the project file itself.
	File string
	Kind ProjectKind
	// ModulePath is set for Go modules.
	ModulePath string
}

// ErrNoProject is returned when no project file is found above a source file.
var ErrNoProject = errors.New("no project file found")

// FindProject walks up from the directory of srcFile to the nearest project of the kind that
// builds lang sources.
func FindProject(fsys FileSystem, srcFile string, lang load.Language) (Project, error) {
	kind := kindFor(lang)
	dir := filepath.Dir(filepath.Clean(srcFile))

	for {
		project, ok, err := projectIn(fsys, dir, kind)
		if err != nil {
			return Project{}, err
		}

		if ok {
			return project, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Project{}, fmt.Errorf("%w above %s", ErrNoProject, srcFile)
		}

		dir = parent
	}
}

func kindFor(lang load.Language) ProjectKind {
	if lang == load.Go {
		return GoModule
	}

	return CSharpProject
}

// projectIn reports the project of the given kind declared directly in dir.
func projectIn(fsys FileSystem, dir string, kind ProjectKind) (Project, bool, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Project{}, false, nil
		}

		return Project{}, false, fmt.Errorf("reading %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		file := filepath.Join(dir, name)

		switch {
		case kind == CSharpProject && strings.EqualFold(filepath.Ext(name), ".csproj"):
			return Project{Name: strings.TrimSuffix(name, filepath.Ext(name)), Dir: dir, File: file, Kind: kind}, true, nil
		case kind == GoModule && name == "go.mod":
			data, err := fsys.ReadFile(file)
			if err != nil {
				return Project{}, false, fmt.Errorf("reading %s: %w", file, err)
			}

			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return Project{}, false, fmt.Errorf("%w: %s has no module statement", ErrNoProject, file)
			}

			return Project{
				Name:       modPath[strings.LastIndex(modPath, "/")+1:],
				Dir:        dir,
				File:       file,
				Kind:       kind,
				ModulePath: modPath,
			}, true, nil
		}
	}

	return Project{}, false, nil
}
