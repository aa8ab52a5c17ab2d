package load

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"path"
	"strconv"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"golang.org/x/tools/go/packages"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// GoPackage identifies the package a directory belongs to.
type GoPackage struct {
	Name string
	Path string
}

// LoadGo parses one Go file. The package clause becomes the unit's single namespace, imports
// become usings, and every interface type with methods becomes an interface declaration.
// Interfaces embedded from the same file are flattened into their embedders; interfaces embedded
// from elsewhere are recorded as embeds. Type-set constraint interfaces are skipped.
func LoadGo(filename string, src []byte) (*syntax.CompilationUnit, error) {
	fset := token.NewFileSet()
	dec := decorator.NewDecorator(fset)

	file, err := dec.ParseFile(filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	r := &goReader{dec: dec, fset: fset, interfaces: make(map[string]*dst.InterfaceType)}

	ns := &syntax.Namespace{Name: file.Name.Name}
	if astFile, ok := dec.Ast.Nodes[file]; ok {
		ns.Span = r.span(astFile.Pos(), astFile.End())
	}

	var specs []*dst.TypeSpec

	for _, decl := range file.Decls {
		gen, ok := decl.(*dst.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}

		for _, s := range gen.Specs {
			spec, ok := s.(*dst.TypeSpec)
			if !ok {
				continue
			}

			if it, ok := spec.Type.(*dst.InterfaceType); ok {
				r.interfaces[spec.Name.Name] = it
				specs = append(specs, spec)
			}
		}
	}

	for _, spec := range specs {
		decl, ok, err := r.interfaceDecl(spec)
		if err != nil {
			return nil, err
		}

		if ok {
			ns.Types = append(ns.Types, decl)
		}
	}

	return &syntax.CompilationUnit{Usings: importUsings(file), Namespaces: []*syntax.Namespace{ns}}, nil
}

// ResolveGoPackage asks the go tool which package dir holds.
func ResolveGoPackage(ctx context.Context, dir string) (GoPackage, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName,
		Dir:     dir,
	}

	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return GoPackage{}, fmt.Errorf("resolving package in %s: %w", dir, err)
	}

	if len(pkgs) == 0 {
		return GoPackage{}, fmt.Errorf("%w: %s", errNoPackage, dir)
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 || pkg.Name == "" {
		return GoPackage{}, fmt.Errorf("%w: %s", errNoPackage, dir)
	}

	return GoPackage{Name: pkg.Name, Path: pkg.PkgPath}, nil
}

// unexported variables.
var (
	errNoPackage   = errors.New("no go package")
	errEmbedCycle  = errors.New("interface embeds itself")
	errUnnamedFunc = errors.New("interface method without a name")
)

type goReader struct {
	dec        *decorator.Decorator
	fset       *token.FileSet
	interfaces map[string]*dst.InterfaceType
}

func (r *goReader) interfaceDecl(spec *dst.TypeSpec) (*syntax.TypeDecl, bool, error) {
	if isConstraint(spec.Type.(*dst.InterfaceType)) {
		return nil, false, nil
	}

	decl := &syntax.TypeDecl{
		Kind:       syntax.Interface,
		Name:       spec.Name.Name,
		TypeParams: r.typeParamsText(spec.TypeParams),
	}

	if node, ok := r.dec.Ast.Nodes[spec]; ok {
		decl.Span = r.span(node.Pos(), node.End())
	}

	members, embeds, err := r.methods(spec.Name.Name, map[string]bool{})
	if err != nil {
		return nil, false, err
	}

	decl.Members = members
	decl.Embeds = embeds

	return decl, true, nil
}

// methods collects the methods of the named local interface, following local embeds. Embeds
// from other packages are returned as types.
func (r *goReader) methods(name string, seen map[string]bool) ([]syntax.Member, []syntax.TypeRef, error) {
	if seen[name] {
		return nil, nil, fmt.Errorf("%w: %s", errEmbedCycle, name)
	}

	seen[name] = true
	defer delete(seen, name)

	var (
		members []syntax.Member
		embeds  []syntax.TypeRef
	)

	it := r.interfaces[name]
	if it.Methods == nil {
		return nil, nil, nil
	}

	for _, field := range it.Methods.List {
		fn, isFunc := field.Type.(*dst.FuncType)

		switch {
		case isFunc && len(field.Names) == 0:
			return nil, nil, fmt.Errorf("%s: %w", name, errUnnamedFunc)
		case isFunc:
			for _, n := range field.Names {
				members = append(members, r.method(n.Name, fn))
			}
		default:
			ident, local := field.Type.(*dst.Ident)
			if local && r.interfaces[ident.Name] != nil {
				embedded, more, err := r.methods(ident.Name, seen)
				if err != nil {
					return nil, nil, err
				}

				members = append(members, embedded...)
				embeds = append(embeds, more...)

				continue
			}

			embeds = append(embeds, syntax.TypeRef{Name: r.typeText(field.Type)})
		}
	}

	return members, embeds, nil
}

func (r *goReader) span(start, end token.Pos) syntax.Span {
	return syntax.Span{Start: r.fset.Position(start).Offset, End: r.fset.Position(end).Offset}
}

func (r *goReader) method(name string, fn *dst.FuncType) *syntax.Method {
	m := &syntax.Method{Name: name, ReturnType: r.resultType(fn.Results)}

	if fn.Params == nil {
		return m
	}

	index := 0

	for _, field := range fn.Params.List {
		typ := field.Type
		variadic := false

		if ellipsis, ok := typ.(*dst.Ellipsis); ok {
			typ = ellipsis.Elt
			variadic = true
		}

		names := make([]string, 0, len(field.Names))
		for _, n := range field.Names {
			names = append(names, n.Name)
		}

		if len(names) == 0 {
			names = append(names, "")
		}

		for _, n := range names {
			index++

			if n == "" || n == "_" {
				n = "arg" + strconv.Itoa(index)
			}

			m.Params = append(m.Params, syntax.Parameter{
				Name:     n,
				Type:     syntax.TypeRef{Name: r.typeText(typ)},
				Variadic: variadic,
			})
		}
	}

	return m
}

func importUsings(file *dst.File) []syntax.Using {
	usings := make([]syntax.Using, 0, len(file.Imports))

	for _, spec := range file.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		u := syntax.Using{Path: importPath}
		if spec.Name != nil && spec.Name.Name != path.Base(importPath) {
			u.Alias = spec.Name.Name
		}

		usings = append(usings, u)
	}

	return usings
}

// isConstraint reports whether it is a type-set interface usable only as a constraint.
func isConstraint(it *dst.InterfaceType) bool {
	if it.Methods == nil {
		return false
	}

	for _, field := range it.Methods.List {
		switch field.Type.(type) {
		case *dst.UnaryExpr, *dst.BinaryExpr:
			return true
		}
	}

	return false
}

// resultType maps a result list to void, a single type, or a tuple.
func (r *goReader) resultType(results *dst.FieldList) syntax.TypeRef {
	texts := r.fieldTypes(results)

	switch len(texts) {
	case 0:
		return syntax.Tuple()
	case 1:
		return syntax.TypeRef{Name: texts[0]}
	default:
		elems := make([]syntax.TypeRef, len(texts))
		for i, t := range texts {
			elems[i] = syntax.TypeRef{Name: t}
		}

		return syntax.Tuple(elems...)
	}
}
