// Package render turns syntax trees back into source text.
package render

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// ErrUnsupported is returned for tree shapes a back-end cannot express.
var ErrUnsupported = errors.New("unsupported by renderer")

// CSharp renders unit as C# source: four-space indentation, braces on their own lines and a
// blank line between members.
func CSharp(unit *syntax.CompilationUnit) (string, error) {
	if unit == nil {
		return "", fmt.Errorf("%w: nil unit", ErrUnsupported)
	}

	p := &csPrinter{}
	p.unit(unit)

	if p.err != nil {
		return "", p.err
	}

	return p.buf.String(), nil
}

// csPrinter accumulates output and the first error hit along the way.
type csPrinter struct {
	buf   strings.Builder
	depth int
	err   error
}

func (p *csPrinter) accessor(a syntax.Accessor) {
	if a.Body == nil {
		p.line(a.Kind.String() + ";")

		return
	}

	p.line(a.Kind.String())
	p.block(a.Body)
}

func (p *csPrinter) args(args []syntax.Argument) string {
	parts := make([]string, len(args))

	for i, a := range args {
		text := p.expr(a.Value)
		if kw := a.Mode.Keyword(); kw != "" {
			text = kw + " " + text
		}

		parts[i] = text
	}

	return strings.Join(parts, ", ")
}

func (p *csPrinter) block(b *syntax.Block) {
	p.line("{")
	p.depth++

	if b != nil {
		for _, s := range b.Stmts {
			p.stmt(s)
		}
	}

	p.depth--
	p.line("}")
}

func (p *csPrinter) blank() {
	p.buf.WriteString("\n")
}

//nolint:cyclop // one case per expression type
func (p *csPrinter) expr(e syntax.Expr) string {
	switch x := e.(type) {
	case *syntax.Ident:
		return x.Name
	case *syntax.Default:
		return "default(" + x.Type.String() + ")"
	case *syntax.Assign:
		return p.expr(x.Left) + " = " + p.expr(x.Right)
	case *syntax.Call:
		return p.expr(x.Fun) + "(" + p.args(x.Args) + ")"
	case *syntax.Binary:
		return p.expr(x.X) + " " + x.Op + " " + p.expr(x.Y)
	case *syntax.Null:
		return "null"
	default:
		p.fail("%w: expression %T", ErrUnsupported, e)

		return ""
	}
}

func (p *csPrinter) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

func (p *csPrinter) line(text string) {
	p.buf.WriteString(strings.Repeat(indent, p.depth))
	p.buf.WriteString(text)
	p.buf.WriteString("\n")
}

//nolint:cyclop,funlen // one case per member type
func (p *csPrinter) member(m syntax.Member) {
	switch x := m.(type) {
	case *syntax.Delegate:
		p.line(modifierPrefix(x.Modifiers) + "delegate " + x.ReturnType.String() + " " + x.Name +
			x.TypeParams + "(" + params(x.Params) + ")" + constraints(x.Constraints) + ";")
	case *syntax.EventField:
		p.line(modifierPrefix(x.Modifiers) + "event " + x.Type.String() + " " + x.Name + ";")
	case *syntax.Method:
		sig := modifierPrefix(x.Modifiers) + x.ReturnType.String() + " " + x.Name + x.TypeParams +
			"(" + params(x.Params) + ")" + constraints(x.Constraints)
		if x.Body == nil {
			p.line(sig + ";")

			return
		}

		p.line(sig)
		p.block(x.Body)
	case *syntax.Property:
		p.line(modifierPrefix(x.Modifiers) + x.Type.String() + " " + x.Name)
		p.line("{")
		p.depth++

		for _, a := range x.Accessors {
			p.accessor(a)
		}

		p.depth--
		p.line("}")
	case *syntax.Constructor:
		sig := modifierPrefix(x.Modifiers) + x.Name + "(" + params(x.Params) + ")"
		if x.Initializer != nil {
			target := "this"
			if x.Initializer.Base {
				target = "base"
			}

			sig += " : " + target + "(" + p.args(x.Initializer.Args) + ")"
		}

		p.line(sig)

		if x.Body == nil {
			p.block(syntax.NewBlock())

			return
		}

		p.block(x.Body)
	default:
		p.fail("%w: member %T", ErrUnsupported, m)
	}
}

func (p *csPrinter) namespace(ns *syntax.Namespace) {
	for _, u := range ns.Usings {
		p.line(usingText(u))
	}

	if ns.FileScoped {
		p.line("namespace " + ns.Name + ";")
		p.blank()
		p.types(ns.Types)

		return
	}

	p.line("namespace " + ns.Name)
	p.line("{")
	p.depth++
	p.types(ns.Types)

	for i, child := range ns.Namespaces {
		if i > 0 || len(ns.Types) > 0 {
			p.blank()
		}

		p.namespace(child)
	}

	p.depth--
	p.line("}")
}

func (p *csPrinter) stmt(s syntax.Stmt) {
	switch x := s.(type) {
	case *syntax.Block:
		p.block(x)
	case *syntax.If:
		p.line("if (" + p.expr(x.Cond) + ")")
		p.block(x.Then)
	case *syntax.Return:
		if x.Value == nil {
			p.line("return;")

			return
		}

		p.line("return " + p.expr(x.Value) + ";")
	case *syntax.ExprStmt:
		p.line(p.expr(x.X) + ";")
	default:
		p.fail("%w: statement %T", ErrUnsupported, s)
	}
}

func (p *csPrinter) typeDecl(d *syntax.TypeDecl) {
	keyword := "class"
	mods := d.Modifiers

	switch d.Kind {
	case syntax.Interface:
		keyword = "interface"
	case syntax.AbstractClass:
		if !slices.Contains(mods, syntax.Abstract) {
			mods = append(append([]syntax.Modifier{}, mods...), syntax.Abstract)
		}
	case syntax.Class:
	}

	header := modifierPrefix(mods) + keyword + " " + d.Name + d.TypeParams

	if len(d.Bases) > 0 {
		bases := make([]string, len(d.Bases))
		for i, b := range d.Bases {
			bases[i] = b.String()
		}

		header += " : " + strings.Join(bases, ", ")
	}

	p.line(header + constraints(d.Constraints))
	p.line("{")
	p.depth++

	for i, m := range d.Members {
		if i > 0 {
			p.blank()
		}

		p.member(m)
	}

	p.depth--
	p.line("}")
}

func (p *csPrinter) types(types []*syntax.TypeDecl) {
	for i, d := range types {
		if i > 0 {
			p.blank()
		}

		p.typeDecl(d)
	}
}

func (p *csPrinter) unit(u *syntax.CompilationUnit) {
	for _, using := range u.Usings {
		p.line(usingText(using))
	}

	if len(u.Usings) > 0 && (len(u.Namespaces) > 0 || len(u.Types) > 0) {
		p.blank()
	}

	for i, ns := range u.Namespaces {
		if i > 0 {
			p.blank()
		}

		p.namespace(ns)
	}

	if len(u.Namespaces) > 0 && len(u.Types) > 0 {
		p.blank()
	}

	p.types(u.Types)
}

// unexported constants.
const indent = "    "

func constraints(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}

	return " " + strings.Join(clauses, " ")
}

func modifierPrefix(mods []syntax.Modifier) string {
	if len(mods) == 0 {
		return ""
	}

	parts := make([]string, len(mods))
	for i, m := range mods {
		parts[i] = string(m)
	}

	return strings.Join(parts, " ") + " "
}

func params(list []syntax.Parameter) string {
	parts := make([]string, len(list))

	for i, p := range list {
		text := p.Type.String() + " " + p.Name

		switch {
		case p.Variadic:
			text = "params " + text
		case p.Mode != syntax.ByValue:
			text = p.Mode.Keyword() + " " + text
		}

		parts[i] = text
	}

	return strings.Join(parts, ", ")
}

func usingText(u syntax.Using) string {
	text := "using "
	if u.Static {
		text += "static "
	}

	if u.Alias != "" {
		text += u.Alias + " = "
	}

	return text + u.Path + ";"
}
