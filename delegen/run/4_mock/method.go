// Package mock synthesizes event-hookable mock types from interface and abstract class
// declarations.
//
// Every mocked member gets a handler type, an event slot of that type, and an overriding member
// whose body runs the handler when one is attached and falls back to default values otherwise.
// All functions here are pure: they read the source tree and return new fragments.
package mock

import (
	"errors"
	"fmt"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// HandlerName returns the handler type name for a mocked member, e.g. OnAreaHandler.
func HandlerName(member string) string {
	return SlotName(member) + handlerSuffix
}

// MockConstructor builds a constructor for the mock class named newName that takes the same
// parameters as c and forwards each of them by name to the base constructor.
func MockConstructor(c *syntax.Constructor, newName string) (*syntax.Constructor, error) {
	if c == nil {
		return nil, errNilMember
	}

	if newName == "" {
		return nil, fmt.Errorf("constructor of %s: %w", c.Name, errEmptyClassName)
	}

	args := make([]syntax.Argument, 0, len(c.Params))

	for _, p := range c.Params {
		ident, err := syntax.NewIdent(p.Name)
		if err != nil {
			return nil, fmt.Errorf("constructor of %s: %w", c.Name, err)
		}

		args = append(args, syntax.Argument{Value: ident})
	}

	return &syntax.Constructor{
		Name:        newName,
		Modifiers:   []syntax.Modifier{syntax.Public},
		Params:      syntax.CloneParams(c.Params),
		Initializer: &syntax.Initializer{Base: true, Args: args},
		Body:        syntax.NewBlock(),
	}, nil
}

// MockMethod mocks one method. It returns the handler type, the event slot and the overriding
// method, in that order. needsOverride adds the override modifier, which abstract class members
// need and interface members must not have.
func MockMethod(m *syntax.Method, needsOverride bool) ([]syntax.Member, error) {
	if m == nil {
		return nil, errNilMember
	}

	if m.Name == "" {
		return nil, fmt.Errorf("method: %w", errEmptyMemberName)
	}

	if m.ReturnType.IsZero() {
		return nil, fmt.Errorf("method %s: %w", m.Name, errMissingType)
	}

	slotName := SlotName(m.Name)

	handler := &syntax.Delegate{
		Name:        HandlerName(m.Name),
		Modifiers:   []syntax.Modifier{syntax.Public},
		ReturnType:  m.ReturnType,
		TypeParams:  m.TypeParams,
		Constraints: cloneStrings(m.Constraints),
		Params:      syntax.CloneParams(m.Params),
	}

	slot, err := eventSlot(slotName, handler.Name)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}

	fallback, err := fallbackBlock(m.Params, m.ReturnType)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}

	args, err := forwardArgs(m.Params)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}

	body, err := guardedBody(slotName, fallback, invokeStmts(slotName, args, m.ReturnType)...)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}

	override := &syntax.Method{
		Name:       m.Name,
		Modifiers:  memberModifiers(needsOverride),
		ReturnType: m.ReturnType,
		TypeParams: m.TypeParams,
		Params:     syntax.CloneParams(m.Params),
		Body:       body,
	}

	// Overrides inherit their constraints; implementations restate them.
	if !needsOverride {
		override.Constraints = cloneStrings(m.Constraints)
	}

	return []syntax.Member{handler, slot, override}, nil
}

// SlotName returns the event slot name for a mocked member, e.g. OnArea.
func SlotName(member string) string {
	return slotPrefix + member
}

// unexported constants.
const (
	handlerSuffix = "Handler"
	slotPrefix    = "On"
)

// unexported variables.
var (
	errEmptyClassName  = errors.New("empty mock class name")
	errEmptyMemberName = errors.New("empty member name")
	errMissingType     = errors.New("missing type")
	errNilMember       = errors.New("nil member")
	errNilType         = errors.New("nil type declaration")
	errNilUnit         = errors.New("nil compilation unit")
	errUnknownMember   = errors.New("unknown member kind")
	errUnknownAccessor = errors.New("unknown accessor kind")
)

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}

	return append([]string{}, in...)
}

// defaultAssign builds `name = default(typ);`.
func defaultAssign(name string, typ syntax.TypeRef) (syntax.Stmt, error) {
	ident, err := syntax.NewIdent(name)
	if err != nil {
		return nil, err
	}

	if typ.IsZero() {
		return nil, fmt.Errorf("parameter %s: %w", name, errMissingType)
	}

	return &syntax.ExprStmt{X: &syntax.Assign{Left: ident, Right: &syntax.Default{Type: typ}}}, nil
}

func eventSlot(slotName, handlerName string) (*syntax.EventField, error) {
	handlerType, err := syntax.NewTypeRef(handlerName)
	if err != nil {
		return nil, err
	}

	return &syntax.EventField{
		Name:      slotName,
		Modifiers: []syntax.Modifier{syntax.Public},
		Type:      handlerType,
	}, nil
}

// fallbackBlock assigns every out parameter its default and then returns the default of ret.
func fallbackBlock(params []syntax.Parameter, ret syntax.TypeRef) (*syntax.Block, error) {
	stmts := make([]syntax.Stmt, 0, len(params)+1)

	for _, p := range params {
		if p.Mode != syntax.Out {
			continue
		}

		assign, err := defaultAssign(p.Name, p.Type)
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, assign)
	}

	return syntax.NewBlock(append(stmts, returnDefault(ret))...), nil
}

// forwardArgs passes every parameter through by name with its passing mode intact.
func forwardArgs(params []syntax.Parameter) ([]syntax.Argument, error) {
	args := make([]syntax.Argument, 0, len(params))

	for _, p := range params {
		ident, err := syntax.NewIdent(p.Name)
		if err != nil {
			return nil, err
		}

		args = append(args, syntax.Argument{Mode: p.Mode, Value: ident, Spread: p.Variadic})
	}

	return args, nil
}

// guardedBody builds `if (slot == null) { fallback } rest...`.
func guardedBody(slotName string, fallback *syntax.Block, rest ...syntax.Stmt) (*syntax.Block, error) {
	slot, err := syntax.NewIdent(slotName)
	if err != nil {
		return nil, err
	}

	guard := &syntax.If{
		Cond: &syntax.Binary{X: slot, Op: "==", Y: &syntax.Null{}},
		Then: fallback,
	}

	return syntax.NewBlock(append([]syntax.Stmt{guard}, rest...)...), nil
}

// invokeStmts calls the handler in slotName. A void result is invoked as a statement followed by
// a bare return; anything else is returned directly.
func invokeStmts(slotName string, args []syntax.Argument, ret syntax.TypeRef) []syntax.Stmt {
	call := &syntax.Call{Fun: &syntax.Ident{Name: slotName}, Args: args}

	if ret.IsVoid() {
		return []syntax.Stmt{&syntax.ExprStmt{X: call}, &syntax.Return{}}
	}

	return []syntax.Stmt{&syntax.Return{Value: call}}
}

func memberModifiers(needsOverride bool) []syntax.Modifier {
	if needsOverride {
		return []syntax.Modifier{syntax.Public, syntax.Override}
	}

	return []syntax.Modifier{syntax.Public}
}

func returnDefault(ret syntax.TypeRef) *syntax.Return {
	if ret.IsVoid() {
		return &syntax.Return{}
	}

	return &syntax.Return{Value: &syntax.Default{Type: ret}}
}
