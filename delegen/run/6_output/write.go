package output

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/akedrou/textdiff"
	"github.com/toejough/go-reorder"

	load "github.com/toejough/mockdelegates/delegen/run/2_load"
)

// WriteOptions control how a document is written.
type WriteOptions struct {
	// DryRun prints the document instead of writing it.
	DryRun bool
	// Diff prints a unified diff against the current document.
	Diff bool
	// Reorder sorts Go declarations into the project's conventional order.
	Reorder bool
	// Logger receives warnings. Nil discards them.
	Logger *slog.Logger
}

// Write stores code at path. Messages for the user go to out and warnings to opts.Logger.
func Write(fsys FileSystem, path, code string, lang load.Language, opts WriteOptions, out io.Writer) error {
	if lang == load.Go && opts.Reorder {
		reordered, err := reorder.Source(code)
		if err != nil {
			// If reordering fails, warn but continue with original code
			if opts.Logger != nil {
				opts.Logger.Warn("failed to reorder", "path", path, "error", err)
			}
		} else {
			code = reordered
		}
	}

	if opts.Diff {
		current, err := fsys.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		if diff := textdiff.Unified(path, path, string(current), code); diff != "" {
			_, _ = io.WriteString(out, diff)
		} else {
			_, _ = fmt.Fprintf(out, "%s unchanged.\n", path)
		}
	}

	if opts.DryRun {
		if !opts.Diff {
			_, _ = io.WriteString(out, code)
		}

		return nil
	}

	if err := fsys.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("error creating %s: %w", filepath.Dir(path), err)
	}

	if err := fsys.WriteFile(path, []byte(code), documentPermissions); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(out, "%s written successfully.\n", path)

	return nil
}

// unexported constants.
const (
	dirPermissions      = 0o755
	documentPermissions = 0o644
)
