package load

import (
	"go/ast"
	"go/types"
	"strings"

	"github.com/dave/dst"
)

// typeText prints a type expression as Go source through the ast node it was decorated from.
func (r *goReader) typeText(expr dst.Expr) string {
	if expr == nil {
		return ""
	}

	node, ok := r.dec.Ast.Nodes[expr].(ast.Expr)
	if !ok {
		return ""
	}

	return types.ExprString(node)
}

// fieldTypes expands a field list to one type per declared name ("a, b int" gives two).
func (r *goReader) fieldTypes(fields *dst.FieldList) []string {
	if fields == nil {
		return nil
	}

	var texts []string

	for _, f := range fields.List {
		text := r.typeText(f.Type)

		for range max(len(f.Names), 1) {
			texts = append(texts, text)
		}
	}

	return texts
}

// typeParamsText renders a type parameter list as "[K comparable, V any]".
func (r *goReader) typeParamsText(fields *dst.FieldList) string {
	if fields == nil || len(fields.List) == 0 {
		return ""
	}

	parts := make([]string, 0, len(fields.List))

	for _, f := range fields.List {
		names := make([]string, len(f.Names))
		for i, n := range f.Names {
			names[i] = n.Name
		}

		parts = append(parts, strings.Join(names, ", ")+" "+r.typeText(f.Type))
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
