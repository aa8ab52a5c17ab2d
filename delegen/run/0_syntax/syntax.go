// Package syntax provides the structural tree that mock synthesis reads from and builds into.
//
// Nodes are built once and then treated as values: every edit goes through a With* method that
// returns a copy with freshly allocated slices, so a fragment handed to one caller can never be
// changed underneath it by another.
package syntax

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// AccessorKind identifies a property accessor.
type AccessorKind int

// AccessorKind values.
const (
	Get AccessorKind = iota
	Set
)

// Title returns the accessor kind as used inside generated names ("Get" or "Set").
func (k AccessorKind) Title() string {
	if k == Set {
		return "Set"
	}

	return "Get"
}

// String returns the accessor keyword.
func (k AccessorKind) String() string {
	return strings.ToLower(k.Title())
}

// Modifier is a declaration modifier keyword such as public or override.
type Modifier string

// Modifiers the synthesizer reads or writes.
const (
	Public   Modifier = "public"
	Override Modifier = "override"
	Abstract Modifier = "abstract"
	Virtual  Modifier = "virtual"
	Static   Modifier = "static"
)

// PassingMode is how a parameter is transmitted.
type PassingMode int

// PassingMode values.
const (
	ByValue PassingMode = iota
	Ref
	In
	Out
)

// Keyword returns the source keyword for the mode, empty for by-value.
func (m PassingMode) Keyword() string {
	switch m {
	case Ref:
		return "ref"
	case In:
		return "in"
	case Out:
		return "out"
	case ByValue:
		return ""
	default:
		return ""
	}
}

// ParsePassingMode maps a modifier keyword to a PassingMode.
func ParsePassingMode(keyword string) (PassingMode, bool) {
	switch keyword {
	case "ref":
		return Ref, true
	case "in":
		return In, true
	case "out":
		return Out, true
	default:
		return ByValue, false
	}
}

// Span is a half-open byte range in the source text.
type Span struct {
	Start int
	End   int
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Len returns the number of bytes covered.
func (s Span) Len() int {
	return s.End - s.Start
}

// TypeKind distinguishes the declarations a mock can be built from.
type TypeKind int

// TypeKind values.
const (
	Interface TypeKind = iota
	AbstractClass
	Class
)

func (k TypeKind) String() string {
	switch k {
	case Interface:
		return "interface"
	case AbstractClass:
		return "abstract class"
	case Class:
		return "class"
	default:
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
}

// TypeRef is opaque type text. Elems is set only for tuple types, which carry the results of
// methods that return more than one value.
type TypeRef struct {
	Name  string
	Elems []TypeRef
}

// IsTuple reports whether t is a tuple of result types.
func (t TypeRef) IsTuple() bool {
	return t.Name == "" && t.Elems != nil
}

// IsVoid reports whether t produces no value.
func (t TypeRef) IsVoid() bool {
	if t.IsTuple() {
		return len(t.Elems) == 0
	}

	return t.Name == voidName
}

// IsZero reports whether t was never set.
func (t TypeRef) IsZero() bool {
	return t.Name == "" && t.Elems == nil
}

func (t TypeRef) String() string {
	if !t.IsTuple() {
		return t.Name
	}

	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// Parameter is one entry of a parameter list.
type Parameter struct {
	Name     string
	Type     TypeRef
	Mode     PassingMode
	Variadic bool
}

// Member is one declaration inside a type. It is implemented by *Method, *Property,
// *Constructor, *Delegate and *EventField.
type Member interface {
	MemberName() string
	member()
}

// Method is a method declaration. Body is nil for abstract and interface methods.
type Method struct {
	Name        string
	Modifiers   []Modifier
	ReturnType  TypeRef
	TypeParams  string
	Constraints []string
	Params      []Parameter
	Body        *Block
}

// MemberName returns the method name.
func (m *Method) MemberName() string { return m.Name }

// IsAbstract reports whether the method carries the abstract modifier.
func (m *Method) IsAbstract() bool { return slices.Contains(m.Modifiers, Abstract) }

// WithModifiers returns a copy of m with the given modifiers.
func (m *Method) WithModifiers(mods ...Modifier) *Method {
	out := *m
	out.Modifiers = slices.Clone(mods)

	return &out
}

// WithBody returns a copy of m with the given body.
func (m *Method) WithBody(body *Block) *Method {
	out := *m
	out.Body = body

	return &out
}

func (*Method) member() {}

// Accessor is a get or set accessor. Body is nil for auto accessors.
type Accessor struct {
	Kind AccessorKind
	Body *Block
}

// Property is a property declaration.
type Property struct {
	Name      string
	Modifiers []Modifier
	Type      TypeRef
	Accessors []Accessor
}

// MemberName returns the property name.
func (p *Property) MemberName() string { return p.Name }

// IsAbstract reports whether the property carries the abstract modifier.
func (p *Property) IsAbstract() bool { return slices.Contains(p.Modifiers, Abstract) }

// Has reports whether p declares an accessor of the given kind.
func (p *Property) Has(kind AccessorKind) bool {
	return slices.ContainsFunc(p.Accessors, func(a Accessor) bool { return a.Kind == kind })
}

// WithAccessors returns a copy of p with the given accessors.
func (p *Property) WithAccessors(accessors ...Accessor) *Property {
	out := *p
	out.Accessors = slices.Clone(accessors)

	return &out
}

// WithModifiers returns a copy of p with the given modifiers.
func (p *Property) WithModifiers(mods ...Modifier) *Property {
	out := *p
	out.Modifiers = slices.Clone(mods)

	return &out
}

func (*Property) member() {}

// Initializer is a constructor initializer such as `: base(x)`.
type Initializer struct {
	Base bool
	Args []Argument
}

// Constructor is a constructor declaration.
type Constructor struct {
	Name        string
	Modifiers   []Modifier
	Params      []Parameter
	Initializer *Initializer
	Body        *Block
}

// MemberName returns the constructor name, which is the declaring type's name.
func (c *Constructor) MemberName() string { return c.Name }

func (*Constructor) member() {}

// Delegate is a callable type declaration.
type Delegate struct {
	Name        string
	Modifiers   []Modifier
	ReturnType  TypeRef
	TypeParams  string
	Constraints []string
	Params      []Parameter
}

// MemberName returns the delegate name.
func (d *Delegate) MemberName() string { return d.Name }

func (*Delegate) member() {}

// EventField is an event declaration holding a delegate instance.
type EventField struct {
	Name      string
	Modifiers []Modifier
	Type      TypeRef
}

// MemberName returns the event name.
func (e *EventField) MemberName() string { return e.Name }

func (*EventField) member() {}

// TypeDecl is an interface or class declaration. Embeds are types whose members it inherits
// without a base list, such as interfaces a Go interface embeds from other packages.
type TypeDecl struct {
	Kind        TypeKind
	Name        string
	Modifiers   []Modifier
	TypeParams  string
	Constraints []string
	Bases       []TypeRef
	Embeds      []TypeRef
	Members     []Member
	Span        Span
}

// WithMembers returns a copy of d with members appended.
func (d *TypeDecl) WithMembers(members ...Member) *TypeDecl {
	out := *d
	out.Members = append(slices.Clone(d.Members), members...)

	return &out
}

// WithBases returns a copy of d with base types appended.
func (d *TypeDecl) WithBases(bases ...TypeRef) *TypeDecl {
	out := *d
	out.Bases = append(slices.Clone(d.Bases), bases...)

	return &out
}

// Using is an import directive. Alias is empty when none was given.
type Using struct {
	Path   string
	Alias  string
	Static bool
}

// Namespace is a namespace declaration. For Go sources it holds the package clause.
type Namespace struct {
	Name       string
	FileScoped bool
	Usings     []Using
	Types      []*TypeDecl
	Namespaces []*Namespace
	Span       Span
}

// WithTypes returns a copy of ns with type declarations appended.
func (ns *Namespace) WithTypes(types ...*TypeDecl) *Namespace {
	out := *ns
	out.Types = append(slices.Clone(ns.Types), types...)

	return &out
}

// CompilationUnit is the root of one source document.
type CompilationUnit struct {
	Usings     []Using
	Namespaces []*Namespace
	Types      []*TypeDecl
}

// WithUsings returns a copy of u with usings appended.
func (u *CompilationUnit) WithUsings(usings ...Using) *CompilationUnit {
	out := *u
	out.Usings = append(slices.Clone(u.Usings), usings...)

	return &out
}

// WithNamespaces returns a copy of u with namespaces appended.
func (u *CompilationUnit) WithNamespaces(namespaces ...*Namespace) *CompilationUnit {
	out := *u
	out.Namespaces = append(slices.Clone(u.Namespaces), namespaces...)

	return &out
}

// WithTypes returns a copy of u with top-level types appended.
func (u *CompilationUnit) WithTypes(types ...*TypeDecl) *CompilationUnit {
	out := *u
	out.Types = append(slices.Clone(u.Types), types...)

	return &out
}

// NewIdent builds an identifier expression.
func NewIdent(name string) (*Ident, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidNode)
	}

	return &Ident{Name: name}, nil
}

// NewTypeRef builds a type reference from source text.
func NewTypeRef(text string) (TypeRef, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TypeRef{}, fmt.Errorf("%w: empty type reference", ErrInvalidNode)
	}

	return TypeRef{Name: text}, nil
}

// Tuple builds a tuple type from its element types.
func Tuple(elems ...TypeRef) TypeRef {
	return TypeRef{Elems: append([]TypeRef{}, elems...)}
}

// Void is the type of a member that produces no value.
func Void() TypeRef {
	return TypeRef{Name: voidName}
}

// CloneParams returns a copy of params.
func CloneParams(params []Parameter) []Parameter {
	return slices.Clone(params)
}

// ErrInvalidNode is returned when a node cannot be constructed from the given parts.
var ErrInvalidNode = errors.New("invalid syntax node")

const voidName = "void"
