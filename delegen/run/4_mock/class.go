package mock

import (
	"fmt"
	"slices"
	"strings"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

// AssembleClass builds the mock class for src. Interface members are implemented; abstract
// class members are overridden and concrete ones are left to inheritance. Every declared
// constructor is forwarded. Generated members keep the order of the source members they come
// from. Embedded types carry over unchanged.
func AssembleClass(src *syntax.TypeDecl) (*syntax.TypeDecl, error) {
	if src == nil {
		return nil, errNilType
	}

	if src.Name == "" {
		return nil, fmt.Errorf("type: %w", errEmptyMemberName)
	}

	name := ClassName(src.Name)

	base, err := syntax.NewTypeRef(src.Name + typeArgs(src.TypeParams))
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", src.Name, err)
	}

	isAbstractClass := src.Kind == syntax.AbstractClass

	var members []syntax.Member

	for _, member := range src.Members {
		generated, err := mockMember(member, name, isAbstractClass)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", src.Name, err)
		}

		members = append(members, generated...)
	}

	class := &syntax.TypeDecl{
		Kind:        syntax.Class,
		Name:        name,
		Modifiers:   []syntax.Modifier{syntax.Public},
		TypeParams:  src.TypeParams,
		Constraints: cloneStrings(src.Constraints),
		Embeds:      slices.Clone(src.Embeds),
	}

	return class.WithBases(base).WithMembers(members...), nil
}

// ClassName derives the mock class name: a leading interface prefix I is replaced by Mock,
// anything else just gets Mock in front.
func ClassName(source string) string {
	return mockPrefix + strings.TrimPrefix(source, interfacePrefix)
}

// unexported constants.
const (
	interfacePrefix = "I"
	mockPrefix      = "Mock"
)

// mockMember dispatches one source member. Members that are not mocked yield nothing.
func mockMember(member syntax.Member, className string, isAbstractClass bool) ([]syntax.Member, error) {
	switch m := member.(type) {
	case *syntax.Method:
		if isAbstractClass && !m.IsAbstract() {
			return nil, nil
		}

		return MockMethod(m, isAbstractClass)
	case *syntax.Property:
		if isAbstractClass && !m.IsAbstract() {
			return nil, nil
		}

		return MockProperty(m, isAbstractClass)
	case *syntax.Constructor:
		ctor, err := MockConstructor(m, className)
		if err != nil {
			return nil, err
		}

		return []syntax.Member{ctor}, nil
	case *syntax.Delegate, *syntax.EventField:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %T", errUnknownMember, member)
	}
}

// typeArgs turns a type parameter list into the matching type argument list: "<TKey, in TValue>"
// becomes "<TKey, TValue>" and "[K comparable, V any]" becomes "[K, V]".
func typeArgs(typeParams string) string {
	text := strings.TrimSpace(typeParams)
	if len(text) < len("<>") {
		return ""
	}

	open, end := text[:1], text[len(text)-1:]
	// Go lists name first ("K comparable"); C# lists variance first ("in TValue").
	nameFirst := open == "["

	var names []string

	for part := range strings.SplitSeq(text[1:len(text)-1], ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}

		if nameFirst {
			names = append(names, fields[0])
		} else {
			names = append(names, fields[len(fields)-1])
		}
	}

	if len(names) == 0 {
		return ""
	}

	return open + strings.Join(names, ", ") + end
}
