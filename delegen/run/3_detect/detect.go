// Package detect decides which declaration a selection refers to and whether a mock can be
// generated from it.
package detect

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// Title labels the offered action.
const Title = "Generate mock delegates"

// Exported variables.
var (
	// ErrNotFound is returned when nothing matches the selection.
	ErrNotFound = errors.New("no matching declaration")
	// ErrNotMockable is returned when the selection resolves to a declaration that is neither an
	// interface nor an abstract class.
	ErrNotMockable = errors.New("declaration is not an interface or abstract class")
	// ErrAmbiguous is returned when an empty selection leaves more than one candidate.
	ErrAmbiguous = errors.New("more than one candidate declaration")
)

// Action is an offered transformation of one declaration.
type Action struct {
	Title  string
	Target *syntax.TypeDecl
}

// Selection picks a declaration by name or by byte span. The zero Selection selects the only
// candidate in the unit, if there is exactly one.
type Selection struct {
	TypeName string
	Span     syntax.Span
}

// ByName selects the declaration called name.
func ByName(name string) Selection {
	return Selection{TypeName: strings.TrimSpace(name)}
}

// BySpan selects the innermost declaration enclosing span.
func BySpan(span syntax.Span) Selection {
	return Selection{Span: span}
}

// ByLine selects the innermost declaration enclosing the 1-based line of src.
func ByLine(src []byte, line int) (Selection, error) {
	if line < 1 {
		return Selection{}, fmt.Errorf("%w: line %d", ErrNotFound, line)
	}

	start := 0

	for range line - 1 {
		next := bytes.IndexByte(src[start:], '\n')
		if next < 0 {
			return Selection{}, fmt.Errorf("%w: line %d is past the end of the document", ErrNotFound, line)
		}

		start += next + 1
	}

	end := len(src)
	if next := bytes.IndexByte(src[start:], '\n'); next >= 0 {
		end = start + next
	}

	// skip indentation so the span starts inside the declaration
	for start < end && (src[start] == ' ' || src[start] == '\t') {
		start++
	}

	return BySpan(syntax.Span{Start: start, End: max(start, end)}), nil
}

// IsZero reports whether s selects nothing in particular.
func (s Selection) IsZero() bool {
	return s.TypeName == "" && s.Span == syntax.Span{}
}

// ComputeAction returns the action offered for sel, or false when none applies.
func ComputeAction(unit *syntax.CompilationUnit, sel Selection) (Action, bool) {
	decl, err := Find(unit, sel)
	if err != nil {
		return Action{}, false
	}

	return Action{Title: Title, Target: decl}, true
}

// Candidates returns every declaration in unit a mock can be generated from, in source order.
func Candidates(unit *syntax.CompilationUnit) []*syntax.TypeDecl {
	var out []*syntax.TypeDecl

	for _, d := range syntax.TypeDecls(unit) {
		if Mockable(d) {
			out = append(out, d)
		}
	}

	return out
}

// Find resolves sel to a mockable declaration, explaining why when it cannot.
func Find(unit *syntax.CompilationUnit, sel Selection) (*syntax.TypeDecl, error) {
	if unit == nil {
		return nil, ErrNotFound
	}

	var decl *syntax.TypeDecl

	switch {
	case sel.TypeName != "":
		decl = byName(unit, sel.TypeName)
	case sel.Span != syntax.Span{}:
		decl = enclosing(unit, sel.Span)
	default:
		candidates := Candidates(unit)

		switch len(candidates) {
		case 0:
			return nil, ErrNotFound
		case 1:
			return candidates[0], nil
		default:
			names := make([]string, len(candidates))
			for i, c := range candidates {
				names[i] = c.Name
			}

			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, strings.Join(names, ", "))
		}
	}

	if decl == nil {
		return nil, ErrNotFound
	}

	if !Mockable(decl) {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotMockable, decl.Name, decl.Kind)
	}

	return decl, nil
}

// Mockable reports whether d is an interface or an abstract class.
func Mockable(d *syntax.TypeDecl) bool {
	return d != nil && (d.Kind == syntax.Interface || d.Kind == syntax.AbstractClass)
}

func byName(unit *syntax.CompilationUnit, name string) *syntax.TypeDecl {
	for _, d := range syntax.TypeDecls(unit) {
		if d.Name == name {
			return d
		}
	}

	return nil
}

// enclosing returns the smallest declaration whose span contains span.
func enclosing(unit *syntax.CompilationUnit, span syntax.Span) *syntax.TypeDecl {
	var best *syntax.TypeDecl

	for _, d := range syntax.TypeDecls(unit) {
		if !d.Span.Contains(span) {
			continue
		}

		if best == nil || d.Span.Len() < best.Span.Len() {
			best = d
		}
	}

	return best
}
