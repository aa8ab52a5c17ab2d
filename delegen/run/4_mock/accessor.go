package mock

import (
	"fmt"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// AccessorName returns the member name used for one accessor of a property, e.g. SizeGet.
func AccessorName(kind syntax.AccessorKind, property string) string {
	return property + kind.Title()
}

// MockAccessor mocks one accessor of p. It returns the generated accessor and the handler type
// and event slot backing it.
func MockAccessor(kind syntax.AccessorKind, p *syntax.Property) (syntax.Accessor, []syntax.Member, error) {
	if p == nil {
		return syntax.Accessor{}, nil, errNilMember
	}

	if p.Name == "" {
		return syntax.Accessor{}, nil, fmt.Errorf("property: %w", errEmptyMemberName)
	}

	if p.Type.IsZero() {
		return syntax.Accessor{}, nil, fmt.Errorf("property %s: %w", p.Name, errMissingType)
	}

	name := AccessorName(kind, p.Name)
	slotName := SlotName(name)

	handler := &syntax.Delegate{
		Name:      HandlerName(name),
		Modifiers: []syntax.Modifier{syntax.Public},
	}

	var (
		fallback *syntax.Block
		invoke   []syntax.Stmt
	)

	switch kind {
	case syntax.Get:
		handler.ReturnType = p.Type
		fallback = syntax.NewBlock(returnDefault(p.Type))
		invoke = invokeStmts(slotName, nil, p.Type)
	case syntax.Set:
		handler.ReturnType = syntax.Void()
		handler.Params = []syntax.Parameter{{Name: valueParam, Type: p.Type}}

		reset, err := defaultAssign(valueParam, p.Type)
		if err != nil {
			return syntax.Accessor{}, nil, fmt.Errorf("property %s: %w", p.Name, err)
		}

		// The setter keeps no state, so without a handler it only resets its own argument.
		fallback = syntax.NewBlock(reset, &syntax.Return{})
		invoke = []syntax.Stmt{&syntax.ExprStmt{X: &syntax.Call{
			Fun:  &syntax.Ident{Name: slotName},
			Args: []syntax.Argument{{Value: &syntax.Ident{Name: valueParam}}},
		}}}
	default:
		return syntax.Accessor{}, nil, fmt.Errorf("property %s: %w: %d", p.Name, errUnknownAccessor, kind)
	}

	slot, err := eventSlot(slotName, handler.Name)
	if err != nil {
		return syntax.Accessor{}, nil, fmt.Errorf("property %s: %w", p.Name, err)
	}

	body, err := guardedBody(slotName, fallback, invoke...)
	if err != nil {
		return syntax.Accessor{}, nil, fmt.Errorf("property %s: %w", p.Name, err)
	}

	return syntax.Accessor{Kind: kind, Body: body}, []syntax.Member{handler, slot}, nil
}

// MockProperty mocks every accessor p declares, get before set. The overriding property comes
// last, after the handler types and event slots of its accessors. A property without accessors
// yields a property without accessors.
func MockProperty(p *syntax.Property, needsOverride bool) ([]syntax.Member, error) {
	if p == nil {
		return nil, errNilMember
	}

	var (
		accessors []syntax.Accessor
		members   []syntax.Member
	)

	for _, kind := range []syntax.AccessorKind{syntax.Get, syntax.Set} {
		if !p.Has(kind) {
			continue
		}

		accessor, generated, err := MockAccessor(kind, p)
		if err != nil {
			return nil, err
		}

		accessors = append(accessors, accessor)
		members = append(members, generated...)
	}

	prop := p.WithModifiers(memberModifiers(needsOverride)...).WithAccessors(accessors...)

	return append(members, prop), nil
}

// unexported constants.
const valueParam = "value"
