package load

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
	csharp "github.com/alexaandru/go-sitter-forest/c_sharp"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// LoadCSharp parses C# source with tree-sitter. Only the declarations a mock can be built from
// are kept: usings, namespaces, interfaces and classes with their methods, properties and
// constructors. Member bodies are not translated; a concrete member gets an empty block so it
// stays distinguishable from an abstract one.
func LoadCSharp(ctx context.Context, src []byte) (*syntax.CompilationUnit, error) {
	parser := tree_sitter.NewParser()

	lang := tree_sitter.NewLanguage(csharp.GetLanguage())
	if !parser.SetLanguage(lang) {
		return nil, errCSharpGrammar
	}

	tree, err := parser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		if bad.IsNull() {
			return nil, fmt.Errorf("%w: malformed C# source", ErrParse)
		}

		return nil, fmt.Errorf("%w: line %d column %d: unexpected %q",
			ErrParse, bad.StartPoint().Row+1, bad.StartPoint().Column+1, snippet(nodeText(bad, src)))
	}

	r := &csReader{src: src}

	return r.unit(root)
}

// unexported constants.
const (
	snippetLimit = 40
)

// unexported variables.
var (
	errCSharpGrammar = errors.New("c# grammar rejected by tree-sitter")
)

// csReader converts tree-sitter C# nodes. Nodes are located by kind rather than by grammar
// field so that minor grammar revisions keep working.
type csReader struct {
	src []byte
}

//nolint:cyclop // one case per declaration kind
func (r *csReader) declarations(parent tree_sitter.Node, ns *syntax.Namespace, unit *syntax.CompilationUnit) error {
	for _, child := range children(parent) {
		switch child.Type() {
		case "using_directive":
			u := parseUsing(nodeText(child, r.src))
			if ns != nil {
				ns.Usings = append(ns.Usings, u)
			} else {
				unit.Usings = append(unit.Usings, u)
			}
		case "namespace_declaration", "file_scoped_namespace_declaration":
			nested, err := r.namespace(child)
			if err != nil {
				return err
			}

			if ns != nil {
				ns.Namespaces = append(ns.Namespaces, nested)
			} else {
				unit.Namespaces = append(unit.Namespaces, nested)
			}
		case "interface_declaration", "class_declaration":
			decl, err := r.typeDecl(child)
			if err != nil {
				return err
			}

			switch {
			case ns != nil:
				ns.Types = append(ns.Types, decl)
			case len(unit.Namespaces) > 0 && unit.Namespaces[len(unit.Namespaces)-1].FileScoped:
				// older grammars leave the declarations after "namespace X;" as siblings
				last := unit.Namespaces[len(unit.Namespaces)-1]
				last.Types = append(last.Types, decl)
			default:
				unit.Types = append(unit.Types, decl)
			}
		}
	}

	return nil
}

func (r *csReader) member(n tree_sitter.Node) (syntax.Member, bool, error) {
	switch n.Type() {
	case "method_declaration":
		m, err := r.method(n)

		return m, true, err
	case "property_declaration":
		p, err := r.property(n)

		return p, true, err
	case "constructor_declaration":
		c, err := r.constructor(n)

		return c, true, err
	default:
		return nil, false, nil
	}
}

func (r *csReader) constructor(n tree_sitter.Node) (*syntax.Constructor, error) {
	kids := children(n)
	nameAt := indexOf(kids, "identifier")

	if nameAt < 0 {
		return nil, fmt.Errorf("%w: constructor without a name", ErrParse)
	}

	params, err := r.params(kids)
	if err != nil {
		return nil, err
	}

	c := &syntax.Constructor{
		Name:      nodeText(kids[nameAt], r.src),
		Modifiers: r.modifiers(kids),
		Params:    params,
		Body:      r.body(kids),
	}

	if at := indexOf(kids, "constructor_initializer"); at >= 0 {
		c.Initializer = &syntax.Initializer{Base: strings.Contains(nodeText(kids[at], r.src), "base")}
	}

	return c, nil
}

func (r *csReader) method(n tree_sitter.Node) (*syntax.Method, error) {
	kids := children(n)

	retAt, nameAt := r.typeAndName(kids, "type_parameter_list", "parameter_list")
	if nameAt < 0 || retAt < 0 {
		return nil, fmt.Errorf("%w: method %q", ErrParse, snippet(nodeText(n, r.src)))
	}

	name := nodeText(kids[nameAt], r.src)

	ret, err := syntax.NewTypeRef(nodeText(kids[retAt], r.src))
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}

	params, err := r.params(kids)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}

	m := &syntax.Method{
		Name:        name,
		Modifiers:   r.modifiers(kids),
		ReturnType:  ret,
		Constraints: r.constraints(kids),
		Params:      params,
		Body:        r.body(kids),
	}

	if at := indexOf(kids, "type_parameter_list"); at >= 0 {
		m.TypeParams = nodeText(kids[at], r.src)
	}

	return m, nil
}

func (r *csReader) namespace(n tree_sitter.Node) (*syntax.Namespace, error) {
	ns := &syntax.Namespace{
		FileScoped: n.Type() == "file_scoped_namespace_declaration",
		Span:       span(n),
	}

	for _, child := range children(n) {
		switch child.Type() {
		case "identifier", "qualified_name":
			if ns.Name == "" {
				ns.Name = nodeText(child, r.src)
			}
		case "declaration_list":
			if err := r.declarations(child, ns, nil); err != nil {
				return nil, err
			}
		}
	}

	if ns.FileScoped {
		// newer grammars nest the rest of the file under the declaration
		if err := r.declarations(n, ns, nil); err != nil {
			return nil, err
		}
	}

	return ns, nil
}

func (r *csReader) parameter(n tree_sitter.Node) (syntax.Parameter, error) {
	kids := children(n)

	typeAt, nameAt := r.typeAndName(kids, "equals_value_clause")
	if nameAt < 0 || typeAt < 0 {
		return syntax.Parameter{}, fmt.Errorf("%w: parameter %q", ErrParse, snippet(nodeText(n, r.src)))
	}

	typ, err := syntax.NewTypeRef(nodeText(kids[typeAt], r.src))
	if err != nil {
		return syntax.Parameter{}, err
	}

	p := syntax.Parameter{Name: nodeText(kids[nameAt], r.src), Type: typ, Variadic: n.Type() == "parameter_array"}

	for _, k := range kids[:typeAt] {
		for word := range strings.FieldsSeq(nodeText(k, r.src)) {
			if word == "params" {
				p.Variadic = true
			}

			if mode, ok := syntax.ParsePassingMode(word); ok {
				p.Mode = mode
			}
		}
	}

	return p, nil
}

func (r *csReader) params(kids []tree_sitter.Node) ([]syntax.Parameter, error) {
	at := indexOf(kids, "parameter_list")
	if at < 0 {
		return nil, nil
	}

	var params []syntax.Parameter

	list := children(kids[at])

	for i, child := range list {
		if child.Type() == "params" && i+2 < len(list) && list[i+2].Type() == "identifier" {
			// some grammar versions inline the params array into the list
			typ, err := syntax.NewTypeRef(nodeText(list[i+1], r.src))
			if err != nil {
				return nil, err
			}

			params = append(params, syntax.Parameter{Name: nodeText(list[i+2], r.src), Type: typ, Variadic: true})

			continue
		}

		if child.Type() != "parameter" && child.Type() != "parameter_array" {
			continue
		}

		p, err := r.parameter(child)
		if err != nil {
			return nil, err
		}

		params = append(params, p)
	}

	return params, nil
}

func (r *csReader) property(n tree_sitter.Node) (*syntax.Property, error) {
	kids := children(n)

	typeAt, nameAt := r.typeAndName(kids, "accessor_list", "arrow_expression_clause")
	if nameAt < 0 || typeAt < 0 {
		return nil, fmt.Errorf("%w: property %q", ErrParse, snippet(nodeText(n, r.src)))
	}

	typ, err := syntax.NewTypeRef(nodeText(kids[typeAt], r.src))
	if err != nil {
		return nil, err
	}

	p := &syntax.Property{
		Name:      nodeText(kids[nameAt], r.src),
		Modifiers: r.modifiers(kids),
		Type:      typ,
	}

	if at := indexOf(kids, "arrow_expression_clause"); at >= 0 {
		p.Accessors = []syntax.Accessor{{Kind: syntax.Get, Body: syntax.NewBlock()}}

		return p, nil
	}

	if at := indexOf(kids, "accessor_list"); at >= 0 {
		for _, acc := range children(kids[at]) {
			if acc.Type() != "accessor_declaration" {
				continue
			}

			if a, ok := r.accessor(acc); ok {
				p.Accessors = append(p.Accessors, a)
			}
		}
	}

	return p, nil
}

// accessor reads a get or set accessor. init, add and remove accessors are dropped.
func (r *csReader) accessor(n tree_sitter.Node) (syntax.Accessor, bool) {
	kids := children(n)
	a := syntax.Accessor{Body: r.body(kids)}

	for _, k := range kids {
		switch nodeText(k, r.src) {
		case "get":
			a.Kind = syntax.Get

			return a, true
		case "set":
			a.Kind = syntax.Set

			return a, true
		}
	}

	return a, false
}

func (r *csReader) body(kids []tree_sitter.Node) *syntax.Block {
	if indexOf(kids, "block") >= 0 || indexOf(kids, "arrow_expression_clause") >= 0 {
		return syntax.NewBlock()
	}

	return nil
}

func (r *csReader) constraints(kids []tree_sitter.Node) []string {
	var out []string

	for _, k := range kids {
		if k.Type() == "type_parameter_constraints_clause" {
			out = append(out, strings.Join(strings.Fields(nodeText(k, r.src)), " "))
		}
	}

	return out
}

func (r *csReader) modifiers(kids []tree_sitter.Node) []syntax.Modifier {
	var mods []syntax.Modifier

	for _, k := range kids {
		if k.Type() == "modifier" {
			mods = append(mods, syntax.Modifier(nodeText(k, r.src)))
		}
	}

	return mods
}

func (r *csReader) typeDecl(n tree_sitter.Node) (*syntax.TypeDecl, error) {
	kids := children(n)
	decl := &syntax.TypeDecl{
		Kind:        syntax.Interface,
		Modifiers:   r.modifiers(kids),
		Constraints: r.constraints(kids),
		Span:        span(n),
	}

	if n.Type() == "class_declaration" {
		decl.Kind = syntax.Class

		if slices.Contains(decl.Modifiers, syntax.Abstract) {
			decl.Kind = syntax.AbstractClass
		}
	}

	for _, k := range kids {
		switch k.Type() {
		case "identifier":
			if decl.Name == "" {
				decl.Name = nodeText(k, r.src)
			}
		case "type_parameter_list":
			decl.TypeParams = nodeText(k, r.src)
		case "base_list":
			decl.Bases = r.bases(k)
		case "declaration_list":
			for _, child := range children(k) {
				m, ok, err := r.member(child)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", decl.Name, err)
				}

				if ok {
					decl.Members = append(decl.Members, m)
				}
			}
		}
	}

	if decl.Name == "" {
		return nil, fmt.Errorf("%w: %s without a name", ErrParse, decl.Kind)
	}

	return decl, nil
}

func (r *csReader) bases(n tree_sitter.Node) []syntax.TypeRef {
	var out []syntax.TypeRef

	for _, k := range children(n) {
		switch k.Type() {
		case ":", ",", "argument_list":
			continue
		}

		if t, err := syntax.NewTypeRef(nodeText(k, r.src)); err == nil {
			out = append(out, t)
		}
	}

	return out
}

// typeAndName finds the declared name and the type in front of it: the name is the last
// identifier before the first of the stop kinds, the type is the node just before the name.
func (r *csReader) typeAndName(kids []tree_sitter.Node, stops ...string) (int, int) {
	end := len(kids)

	for i, k := range kids {
		if slices.Contains(stops, k.Type()) {
			end = i

			break
		}
	}

	nameAt := -1

	for i := end - 1; i >= 0; i-- {
		if kids[i].Type() == "identifier" {
			nameAt = i

			break
		}
	}

	if nameAt <= 0 {
		return -1, nameAt
	}

	typeAt := nameAt - 1
	if kind := kids[typeAt].Type(); kind == "modifier" || kind == "attribute_list" {
		return -1, nameAt
	}

	return typeAt, nameAt
}

func (r *csReader) unit(root tree_sitter.Node) (*syntax.CompilationUnit, error) {
	unit := &syntax.CompilationUnit{}

	if err := r.declarations(root, nil, unit); err != nil {
		return nil, err
	}

	return unit, nil
}

func children(n tree_sitter.Node) []tree_sitter.Node {
	out := make([]tree_sitter.Node, 0, n.ChildCount())

	for i := range n.ChildCount() {
		child := n.Child(i)
		if child.IsNull() || child.Type() == "comment" {
			continue
		}

		out = append(out, child)
	}

	return out
}

func firstError(n tree_sitter.Node) tree_sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}

	for i := range n.ChildCount() {
		if bad := firstError(n.Child(i)); !bad.IsNull() {
			return bad
		}
	}

	return tree_sitter.Node{}
}

func indexOf(kids []tree_sitter.Node, kind string) int {
	for i, k := range kids {
		if k.Type() == kind {
			return i
		}
	}

	return -1
}

func nodeText(n tree_sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

// parseUsing reads "using [global] [static] [Alias =] Path;" from the directive text.
func parseUsing(text string) syntax.Using {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	text = strings.TrimPrefix(text, "global ")
	text = strings.TrimSpace(strings.TrimPrefix(text, "using"))

	var u syntax.Using

	if rest, ok := strings.CutPrefix(text, "static "); ok {
		u.Static = true
		text = strings.TrimSpace(rest)
	}

	if alias, target, ok := strings.Cut(text, "="); ok {
		u.Alias = strings.TrimSpace(alias)
		text = target
	}

	u.Path = strings.TrimSpace(text)

	return u
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > snippetLimit {
		return text[:snippetLimit] + "..."
	}

	return text
}

func span(n tree_sitter.Node) syntax.Span {
	return syntax.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}
