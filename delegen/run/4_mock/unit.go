package mock

import (
	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// AssembleUnit wraps class in a new compilation unit carrying every using directive found
// anywhere in src, in source order, and a namespace named after the first top-level namespace
// of src. None of the members of that namespace are copied. When src has no namespace the
// class is placed at the top level.
func AssembleUnit(src *syntax.CompilationUnit, class *syntax.TypeDecl) (*syntax.CompilationUnit, error) {
	if src == nil {
		return nil, errNilUnit
	}

	if class == nil {
		return nil, errNilType
	}

	unit := (&syntax.CompilationUnit{}).WithUsings(syntax.Usings(src)...)

	if len(src.Namespaces) == 0 {
		return unit.WithTypes(class), nil
	}

	first := src.Namespaces[0]
	ns := &syntax.Namespace{Name: first.Name, FileScoped: first.FileScoped}

	return unit.WithNamespaces(ns.WithTypes(class)), nil
}
