package output

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	load "github.com/toejough/mockdelegates/delegen/run/2_load"
)

// DocumentPath places the mock document in dest under the same folder path, relative to its
// project, that srcFile has in src. C# documents are named after the mock class; Go documents
// are generated_<Mock>.go, or generated_<Mock>_test.go when the source is a test file.
func DocumentPath(dest, src Project, srcFile, mockName string, lang load.Language) (string, error) {
	rel, err := filepath.Rel(src.Dir, filepath.Dir(filepath.Clean(srcFile)))
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s is outside %s", ErrNoProject, srcFile, src.Dir)
	}

	return filepath.Join(dest.Dir, rel, DocumentName(mockName, srcFile, lang)), nil
}

// DocumentName is the file name of a mock document.
func DocumentName(mockName, srcFile string, lang load.Language) string {
	if lang != load.Go {
		return mockName + ".cs"
	}

	if strings.HasSuffix(srcFile, "_test.go") {
		return "generated_" + mockName + "_test.go"
	}

	return "generated_" + mockName + ".go"
}

// ImportPath is the Go import path of dir inside module project p.
func ImportPath(p Project, dir string) (string, error) {
	rel, err := filepath.Rel(p.Dir, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s is outside %s", ErrNoProject, dir, p.Dir)
	}

	if rel == "." {
		return p.ModulePath, nil
	}

	return path.Join(p.ModulePath, filepath.ToSlash(rel)), nil
}

// PackageName derives a Go package name from an import path's last element.
func PackageName(importPath string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(path.Base(importPath)) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "mocks" + name
	}

	return name
}
