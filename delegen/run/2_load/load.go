// Package load turns source documents into syntax trees.
package load

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// Exported variables.
var (
	// ErrParse is returned when a document has syntax errors.
	ErrParse = errors.New("parse error")
	// ErrUnsupportedLanguage is returned for documents no front-end can read.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Language selects a front-end.
type Language string

// Language values.
const (
	Auto   Language = "auto"
	CSharp Language = "csharp"
	Go     Language = "go"
)

// ParseLanguage validates a language name from flags or config. The empty string means Auto.
func ParseLanguage(name string) (Language, error) {
	switch lang := Language(strings.ToLower(strings.TrimSpace(name))); lang {
	case "", Auto:
		return Auto, nil
	case CSharp, Go:
		return lang, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
}

// DetectLanguage picks the front-end for path by extension.
func DetectLanguage(path string) (Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cs":
		return CSharp, nil
	case ".go":
		return Go, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}
}

// Resolve returns lang, or the language detected from path when lang is Auto.
func Resolve(lang Language, path string) (Language, error) {
	if lang == "" || lang == Auto {
		return DetectLanguage(path)
	}

	return ParseLanguage(string(lang))
}

// Source parses src as a document of the given language. path is only used for messages and
// for Go file registration.
func Source(ctx context.Context, lang Language, path string, src []byte) (*syntax.CompilationUnit, error) {
	lang, err := Resolve(lang, path)
	if err != nil {
		return nil, err
	}

	switch lang {
	case CSharp:
		return LoadCSharp(ctx, src)
	case Go:
		return LoadGo(path, src)
	case Auto:
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
}
