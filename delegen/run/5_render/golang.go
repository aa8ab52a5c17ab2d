package render

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"strconv"

	"github.com/dave/jennifer/jen"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// GoOptions control Go rendering.
type GoOptions struct {
	// PackageName overrides the package clause; the unit's namespace is used when empty.
	PackageName string
	// PackagePath is the import path of the destination package, if known.
	PackagePath string
	// SourcePath is the import path of the package declaring the mocked interface. Exported
	// identifiers from it are qualified unless it equals PackagePath.
	SourcePath string
	// Generator names the tool in the generated-code header.
	Generator string
}

// Go renders a mock unit as a Go file. Each handler type becomes a named func type prefixed with
// the mock's name, each event slot a struct field, and each overriding method a pointer-receiver
// method with the same check-then-fallback-or-invoke body. Interfaces embedded from other
// packages become embedded fields the test fills in. Properties, constructors and ref, in
// or out parameters have no Go form and yield ErrUnsupported.
func Go(unit *syntax.CompilationUnit, opts GoOptions) (string, error) {
	if unit == nil {
		return "", fmt.Errorf("%w: nil unit", ErrUnsupported)
	}

	pkgName := opts.PackageName
	classes := unit.Types

	if len(unit.Namespaces) > 0 {
		if pkgName == "" {
			pkgName = unit.Namespaces[0].Name
		}

		classes = append(append([]*syntax.TypeDecl{}, classes...), unit.Namespaces[0].Types...)
	}

	if pkgName == "" {
		return "", fmt.Errorf("%w: no package name", ErrUnsupported)
	}

	file := jen.NewFilePathName(opts.PackagePath, pkgName)
	file.HeaderComment(generatedHeader(opts.Generator))

	imports := map[string]string{}

	for _, u := range unit.Usings {
		name := u.Alias
		if name == "" {
			name = path.Base(u.Path)
		} else {
			file.ImportAlias(u.Path, u.Alias)
		}

		imports[name] = u.Path
	}

	for _, class := range classes {
		g := &goGen{imports: imports, sourcePath: opts.SourcePath}

		codes, err := g.class(class)
		if err != nil {
			return "", err
		}

		for _, code := range codes {
			file.Add(code)
		}
	}

	var buf bytes.Buffer

	err := file.Render(&buf)
	if err != nil {
		return "", fmt.Errorf("failed to render go source: %w", err)
	}

	return buf.String(), nil
}

// goGen lowers one mock class.
type goGen struct {
	imports    map[string]string
	sourcePath string
	typeParams map[string]bool
	slots      map[string]bool
	handlers   map[string]string
	className  string
	typeArgs   []jen.Code
}

func (g *goGen) assertion(class *syntax.TypeDecl) (jen.Code, error) {
	if len(class.Bases) == 0 || len(g.typeArgs) > 0 {
		return nil, nil //nolint:nilnil // generic mocks have no single instantiation to assert
	}

	base, err := g.typeCode(class.Bases[0])
	if err != nil {
		return nil, err
	}

	return jen.Var().Id("_").Add(base).Op("=").Parens(jen.Op("*").Id(class.Name)).Call(jen.Nil()), nil
}

//nolint:cyclop,funlen // one pass per member kind
func (g *goGen) class(class *syntax.TypeDecl) ([]jen.Code, error) {
	g.className = class.Name
	g.slots = map[string]bool{}
	g.handlers = map[string]string{}
	g.typeParams = map[string]bool{}

	typeParamCodes, err := g.typeParamList(class.TypeParams)
	if err != nil {
		return nil, fmt.Errorf("mock %s: %w", class.Name, err)
	}

	var (
		codes   []jen.Code
		fields  []jen.Code
		methods []jen.Code
	)

	for _, m := range class.Members {
		switch x := m.(type) {
		case *syntax.Delegate:
			g.handlers[x.Name] = class.Name + x.Name
		case *syntax.EventField:
			g.slots[x.Name] = true
		case *syntax.Method, *syntax.Property, *syntax.Constructor:
		}
	}

	for _, embed := range class.Embeds {
		embedType, err := g.typeCode(embed)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", embed, err)
		}

		fields = append(fields, embedType)
	}

	for _, m := range class.Members {
		switch x := m.(type) {
		case *syntax.Delegate:
			sig, err := g.signature(x.Params, x.ReturnType)
			if err != nil {
				return nil, fmt.Errorf("handler %s: %w", x.Name, err)
			}

			decl := jen.Type().Id(g.handlers[x.Name])
			if len(typeParamCodes) > 0 {
				decl = decl.Types(typeParamCodes...)
			}

			codes = append(codes, decl.Func().Add(sig))
		case *syntax.EventField:
			fieldType, err := g.handlerRef(x.Type)
			if err != nil {
				return nil, fmt.Errorf("slot %s: %w", x.Name, err)
			}

			fields = append(fields, jen.Id(x.Name).Add(fieldType))
		case *syntax.Method:
			method, err := g.method(x)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", x.Name, err)
			}

			methods = append(methods, method)
		case *syntax.Property:
			return nil, fmt.Errorf("%w: property %s", ErrUnsupported, x.Name)
		case *syntax.Constructor:
			return nil, fmt.Errorf("%w: constructor of %s", ErrUnsupported, class.Name)
		}
	}

	structDecl := jen.Type().Id(class.Name)
	if len(typeParamCodes) > 0 {
		structDecl = structDecl.Types(typeParamCodes...)
	}

	codes = append(codes, structDecl.Struct(fields...))

	assertion, err := g.assertion(class)
	if err != nil {
		return nil, fmt.Errorf("mock %s: %w", class.Name, err)
	}

	if assertion != nil {
		codes = append(codes, assertion)
	}

	return append(codes, methods...), nil
}

//nolint:cyclop // one case per expression type
func (g *goGen) expr(e syntax.Expr) (jen.Code, error) {
	switch x := e.(type) {
	case *syntax.Ident:
		if g.slots[x.Name] {
			return jen.Id(receiver).Dot(x.Name), nil
		}

		return jen.Id(x.Name), nil
	case *syntax.Null:
		return jen.Nil(), nil
	case *syntax.Binary:
		left, err := g.expr(x.X)
		if err != nil {
			return nil, err
		}

		right, err := g.expr(x.Y)
		if err != nil {
			return nil, err
		}

		return jen.Add(left).Op(x.Op).Add(right), nil
	case *syntax.Call:
		fun, err := g.expr(x.Fun)
		if err != nil {
			return nil, err
		}

		args := make([]jen.Code, 0, len(x.Args))

		for _, a := range x.Args {
			if a.Mode != syntax.ByValue {
				return nil, fmt.Errorf("%w: %s argument", ErrUnsupported, a.Mode.Keyword())
			}

			arg, err := g.expr(a.Value)
			if err != nil {
				return nil, err
			}

			if a.Spread {
				arg = jen.Add(arg).Op("...")
			}

			args = append(args, arg)
		}

		return jen.Add(fun).Call(args...), nil
	case *syntax.Default:
		return nil, fmt.Errorf("%w: default outside return", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: expression %T", ErrUnsupported, e)
	}
}

// handlerRef resolves a slot's type to the generated handler type, instantiated for generic mocks.
func (g *goGen) handlerRef(t syntax.TypeRef) (jen.Code, error) {
	name, ok := g.handlers[t.Name]
	if !ok {
		return g.typeCode(t)
	}

	if len(g.typeArgs) > 0 {
		return jen.Id(name).Types(g.typeArgs...), nil
	}

	return jen.Id(name), nil
}

func (g *goGen) method(m *syntax.Method) (jen.Code, error) {
	if m.TypeParams != "" {
		return nil, fmt.Errorf("%w: method type parameters", ErrUnsupported)
	}

	sig, err := g.signature(m.Params, m.ReturnType)
	if err != nil {
		return nil, err
	}

	recv := jen.Op("*").Id(g.className)
	if len(g.typeArgs) > 0 {
		recv = recv.Types(g.typeArgs...)
	}

	body, err := g.stmts(m.Body, m.ReturnType)
	if err != nil {
		return nil, err
	}

	return jen.Func().Params(jen.Id(receiver).Add(recv)).Id(m.Name).Add(sig).Block(body...), nil
}

// results renders a return type as a result list.
func (g *goGen) results(t syntax.TypeRef) (jen.Code, error) {
	if t.IsVoid() {
		return jen.Null(), nil
	}

	if !t.IsTuple() {
		return g.typeCode(t)
	}

	elems := make([]jen.Code, len(t.Elems))

	for i, e := range t.Elems {
		code, err := g.typeCode(e)
		if err != nil {
			return nil, err
		}

		elems[i] = code
	}

	return jen.Params(elems...), nil
}

func (g *goGen) signature(params []syntax.Parameter, ret syntax.TypeRef) (jen.Code, error) {
	list := make([]jen.Code, 0, len(params))

	for _, p := range params {
		if p.Mode != syntax.ByValue {
			return nil, fmt.Errorf("%w: %s parameter %s", ErrUnsupported, p.Mode.Keyword(), p.Name)
		}

		t, err := g.typeCode(p.Type)
		if err != nil {
			return nil, err
		}

		param := jen.Id(p.Name)
		if p.Variadic {
			param = param.Op("...")
		}

		list = append(list, param.Add(t))
	}

	results, err := g.results(ret)
	if err != nil {
		return nil, err
	}

	return jen.Params(list...).Add(results), nil
}

//nolint:cyclop // one case per statement type
func (g *goGen) stmt(s syntax.Stmt, ret syntax.TypeRef) (jen.Code, error) {
	switch x := s.(type) {
	case *syntax.If:
		cond, err := g.expr(x.Cond)
		if err != nil {
			return nil, err
		}

		body, err := g.stmts(x.Then, ret)
		if err != nil {
			return nil, err
		}

		return jen.If(cond).Block(body...), nil
	case *syntax.Return:
		if x.Value == nil {
			return jen.Return(), nil
		}

		if d, ok := x.Value.(*syntax.Default); ok {
			return g.zeroReturn(d.Type)
		}

		value, err := g.expr(x.Value)
		if err != nil {
			return nil, err
		}

		return jen.Return(value), nil
	case *syntax.ExprStmt:
		return g.expr(x.X)
	case *syntax.Block:
		body, err := g.stmts(x, ret)
		if err != nil {
			return nil, err
		}

		return jen.Block(body...), nil
	default:
		return nil, fmt.Errorf("%w: statement %T", ErrUnsupported, s)
	}
}

func (g *goGen) stmts(b *syntax.Block, ret syntax.TypeRef) ([]jen.Code, error) {
	if b == nil {
		return nil, nil
	}

	out := make([]jen.Code, 0, len(b.Stmts))

	for _, s := range b.Stmts {
		code, err := g.stmt(s, ret)
		if err != nil {
			return nil, err
		}

		out = append(out, code)
	}

	return out, nil
}

// typeCode converts type text to jennifer code so package references become tracked imports.
func (g *goGen) typeCode(t syntax.TypeRef) (jen.Code, error) {
	if t.IsTuple() {
		return nil, fmt.Errorf("%w: tuple type %s outside results", ErrUnsupported, t)
	}

	expr, err := parser.ParseExpr(t.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: type %q: %w", ErrUnsupported, t.Name, err)
	}

	return g.astType(expr), nil
}

// typeParamList parses "[K comparable, V any]" and records the parameter names.
func (g *goGen) typeParamList(text string) ([]jen.Code, error) {
	if text == "" {
		return nil, nil
	}

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, "", "package p\ntype _"+text+" struct{}", 0)
	if err != nil {
		return nil, fmt.Errorf("%w: type parameters %q: %w", ErrUnsupported, text, err)
	}

	spec, ok := file.Decls[0].(*ast.GenDecl).Specs[0].(*ast.TypeSpec)
	if !ok || spec.TypeParams == nil {
		return nil, fmt.Errorf("%w: type parameters %q", ErrUnsupported, text)
	}

	for _, field := range spec.TypeParams.List {
		for _, name := range field.Names {
			g.typeParams[name.Name] = true
			g.typeArgs = append(g.typeArgs, jen.Id(name.Name))
		}
	}

	codes := make([]jen.Code, 0, len(spec.TypeParams.List))

	for _, field := range spec.TypeParams.List {
		names := make([]jen.Code, len(field.Names))
		for i, name := range field.Names {
			names[i] = jen.Id(name.Name)
		}

		codes = append(codes, jen.List(names...).Add(g.astType(field.Type)))
	}

	return codes, nil
}

// zeroReturn returns the zero value of t, one per element for result tuples.
func (g *goGen) zeroReturn(t syntax.TypeRef) (jen.Code, error) {
	elems := []syntax.TypeRef{t}
	if t.IsTuple() {
		elems = t.Elems
	}

	values := make([]jen.Code, len(elems))

	for i, e := range elems {
		code, err := g.typeCode(e)
		if err != nil {
			return nil, err
		}

		values[i] = jen.Op("*").New(code)
	}

	return jen.Return(values...), nil
}

// unexported constants.
const receiver = "m"

func generatedHeader(generator string) string {
	if generator == "" {
		generator = "delegen"
	}

	return "Code generated by " + generator + ". DO NOT EDIT."
}

// basicLitText keeps literal array lengths as written.
func basicLitText(lit *ast.BasicLit) jen.Code {
	if n, err := strconv.Atoi(lit.Value); err == nil {
		return jen.Lit(n)
	}

	return jen.Op(lit.Value)
}

// isPredeclared reports whether name is a predeclared Go type.
func isPredeclared(name string) bool {
	obj := types.Universe.Lookup(name)
	if obj == nil {
		return false
	}

	_, ok := obj.(*types.TypeName)

	return ok
}
