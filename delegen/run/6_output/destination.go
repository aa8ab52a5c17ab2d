package output

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// DefaultSiblingSuffix names the sibling project mocks go to.
const DefaultSiblingSuffix = ".Mock"

// Destination is the resolved target project.
type Destination struct {
	Project Project
	// Sibling is true when Project is the "<Name>.Mock" sibling rather than the source project.
	Sibling bool
	// Linked is true when a dependency on the source project was added to the sibling.
	Linked bool
}

// ResolveDestination looks for a sibling project named src.Name+suffix next to the source
// project. When one exists it is made to depend on src, adding the reference if missing, and
// becomes the destination. Otherwise the source project is the destination.
func ResolveDestination(fsys FileSystem, src Project, suffix string) (Destination, error) {
	dest, err := FindDestination(fsys, src, suffix)
	if err != nil || !dest.Sibling {
		return dest, err
	}

	switch src.Kind {
	case GoModule:
		dest.Linked, err = ensureModuleRequire(fsys, dest.Project, src)
	case CSharpProject:
		dest.Linked, err = ensureProjectReference(fsys, dest.Project, src)
	}

	if err != nil {
		return Destination{}, err
	}

	return dest, nil
}

// FindDestination is ResolveDestination without touching the sibling's project file.
func FindDestination(fsys FileSystem, src Project, suffix string) (Destination, error) {
	if suffix == "" {
		suffix = DefaultSiblingSuffix
	}

	siblingDir := filepath.Join(filepath.Dir(src.Dir), src.Name+suffix)

	sibling, ok, err := projectIn(fsys, siblingDir, src.Kind)
	if err != nil {
		return Destination{}, err
	}

	if !ok {
		return Destination{Project: src}, nil
	}

	return Destination{Project: sibling, Sibling: true}, nil
}

// unexported constants.
const (
	localVersion           = "v0.0.0"
	projectFilePermissions = 0o644
)

// unexported variables.
var (
	errMalformedProject = errors.New("malformed project file")
)

// csproj is the part of an MSBuild project file that holds project references.
type csproj struct {
	ItemGroups []struct {
		References []struct {
			Include string `xml:"Include,attr"`
		} `xml:"ProjectReference"`
	} `xml:"ItemGroup"`
}

func ensureProjectReference(fsys FileSystem, from, to Project) (bool, error) {
	data, err := fsys.ReadFile(from.File)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", from.File, err)
	}

	var proj csproj
	if err := xml.Unmarshal(data, &proj); err != nil {
		return false, fmt.Errorf("%w: %s: %w", errMalformedProject, from.File, err)
	}

	rel, err := filepath.Rel(from.Dir, to.File)
	if err != nil {
		return false, fmt.Errorf("relating %s to %s: %w", to.File, from.Dir, err)
	}

	for _, group := range proj.ItemGroups {
		for _, ref := range group.References {
			include := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(ref.Include, `\`, "/")))
			if include == rel {
				return false, nil
			}
		}
	}

	closing := bytes.LastIndex(data, []byte("</Project>"))
	if closing < 0 {
		return false, fmt.Errorf("%w: %s has no closing </Project>", errMalformedProject, from.File)
	}

	include := strings.ReplaceAll(filepath.ToSlash(rel), "/", `\`)
	group := "  <ItemGroup>\n    <ProjectReference Include=\"" + include + "\" />\n  </ItemGroup>\n"

	var out bytes.Buffer
	out.Write(data[:closing])
	out.WriteString(group)
	out.Write(data[closing:])

	if err := fsys.WriteFile(from.File, out.Bytes(), projectFilePermissions); err != nil {
		return false, fmt.Errorf("writing %s: %w", from.File, err)
	}

	return true, nil
}

// ensureModuleRequire makes from require to's module, replaced by its local directory.
func ensureModuleRequire(fsys FileSystem, from, to Project) (bool, error) {
	data, err := fsys.ReadFile(from.File)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", from.File, err)
	}

	file, err := modfile.Parse(from.File, data, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errMalformedProject, err)
	}

	required := false

	for _, r := range file.Require {
		if r.Mod.Path == to.ModulePath {
			required = true
		}
	}

	replaced := false

	for _, r := range file.Replace {
		if r.Old.Path == to.ModulePath {
			replaced = true
		}
	}

	if required && replaced {
		return false, nil
	}

	if !required {
		if err := file.AddRequire(to.ModulePath, localVersion); err != nil {
			return false, fmt.Errorf("adding require: %w", err)
		}
	}

	if !replaced {
		rel, err := filepath.Rel(from.Dir, to.Dir)
		if err != nil {
			return false, fmt.Errorf("relating %s to %s: %w", to.Dir, from.Dir, err)
		}

		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, "../") && !strings.HasPrefix(rel, "./") {
			rel = "./" + rel
		}

		if err := file.AddReplace(to.ModulePath, "", rel, ""); err != nil {
			return false, fmt.Errorf("adding replace: %w", err)
		}
	}

	file.Cleanup()

	if err := fsys.WriteFile(from.File, modfile.Format(file.Syntax), projectFilePermissions); err != nil {
		return false, fmt.Errorf("writing %s: %w", from.File, err)
	}

	return true, nil
}
