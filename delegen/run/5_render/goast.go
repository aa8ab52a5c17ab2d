package render

import (
	"go/ast"
	"go/types"

	"github.com/dave/jennifer/jen"
)

// astType converts a parsed type expression to jennifer code. Package selectors are resolved
// through the unit's imports; bare exported names belong to the source package.
//
//nolint:cyclop,funlen // Type-switch dispatcher over Go type expressions
func (g *goGen) astType(expr ast.Expr) jen.Code {
	switch x := expr.(type) {
	case *ast.Ident:
		return g.identType(x.Name)
	case *ast.SelectorExpr:
		if pkg, ok := x.X.(*ast.Ident); ok {
			if importPath, known := g.imports[pkg.Name]; known {
				return jen.Qual(importPath, x.Sel.Name)
			}
		}

		return jen.Id(types.ExprString(x))
	case *ast.StarExpr:
		return jen.Op("*").Add(g.astType(x.X))
	case *ast.ArrayType:
		if x.Len == nil {
			return jen.Index().Add(g.astType(x.Elt))
		}

		if lit, ok := x.Len.(*ast.BasicLit); ok {
			return jen.Index(basicLitText(lit)).Add(g.astType(x.Elt))
		}

		return jen.Index(g.astType(x.Len)).Add(g.astType(x.Elt))
	case *ast.MapType:
		return jen.Map(g.astType(x.Key)).Add(g.astType(x.Value))
	case *ast.ChanType:
		switch x.Dir {
		case ast.SEND:
			return jen.Chan().Op("<-").Add(g.astType(x.Value))
		case ast.RECV:
			return jen.Op("<-").Chan().Add(g.astType(x.Value))
		default:
			return jen.Chan().Add(g.astType(x.Value))
		}
	case *ast.FuncType:
		return jen.Func().Add(g.funcSignature(x))
	case *ast.Ellipsis:
		return jen.Op("...").Add(g.astType(x.Elt))
	case *ast.IndexExpr:
		return jen.Add(g.astType(x.X)).Index(g.astType(x.Index))
	case *ast.IndexListExpr:
		indices := make([]jen.Code, len(x.Indices))
		for i, idx := range x.Indices {
			indices[i] = g.astType(idx)
		}

		return jen.Add(g.astType(x.X)).Index(indices...)
	case *ast.ParenExpr:
		return jen.Parens(g.astType(x.X))
	case *ast.InterfaceType:
		if x.Methods == nil || len(x.Methods.List) == 0 {
			return jen.Interface()
		}

		return jen.Id(types.ExprString(x))
	case *ast.StructType:
		if x.Fields == nil || len(x.Fields.List) == 0 {
			return jen.Struct()
		}

		return jen.Id(types.ExprString(x))
	case *ast.UnaryExpr:
		return jen.Op(x.Op.String()).Add(g.astType(x.X))
	case *ast.BinaryExpr:
		return jen.Add(g.astType(x.X)).Op(x.Op.String()).Add(g.astType(x.Y))
	default:
		return jen.Id(types.ExprString(expr))
	}
}

func (g *goGen) fieldList(fields *ast.FieldList) []jen.Code {
	if fields == nil {
		return nil
	}

	var codes []jen.Code

	for _, f := range fields.List {
		t := g.astType(f.Type)
		if len(f.Names) == 0 {
			codes = append(codes, t)

			continue
		}

		for _, name := range f.Names {
			codes = append(codes, jen.Id(name.Name).Add(t))
		}
	}

	return codes
}

func (g *goGen) funcSignature(fn *ast.FuncType) jen.Code {
	sig := jen.Params(g.fieldList(fn.Params)...)

	results := g.fieldList(fn.Results)

	switch {
	case len(results) == 0:
		return sig
	case len(results) == 1 && len(fn.Results.List[0].Names) == 0:
		return sig.Add(results[0])
	default:
		return sig.Params(results...)
	}
}

func (g *goGen) identType(name string) jen.Code {
	if g.typeParams[name] || isPredeclared(name) || g.sourcePath == "" || !ast.IsExported(name) {
		return jen.Id(name)
	}

	return jen.Qual(g.sourcePath, name)
}
