package mock_test

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pgregory.net/rapid"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
	mock "github.com/toejough/mockdelegates/delegen/run/4_mock"
)

// TestMockMethod_VoidShape_Property proves a void method with N non-out parameters yields a
// handler with N parameters, a slot of that handler, and a guarded invoke-then-return body.
func TestMockMethod_VoidShape_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		method := genMethod(rt, syntax.Void(), rapid.SampledFrom([]syntax.PassingMode{
			syntax.ByValue, syntax.Ref, syntax.In,
		}))

		members, err := mock.MockMethod(method, false)
		if err != nil {
			rt.Fatalf("MockMethod: %v", err)
		}

		if len(members) != 3 {
			rt.Fatalf("got %d members, want 3", len(members))
		}

		handler := members[0].(*syntax.Delegate)
		slot := members[1].(*syntax.EventField)
		override := members[2].(*syntax.Method)

		if len(handler.Params) != len(method.Params) || !handler.ReturnType.IsVoid() {
			rt.Fatalf("handler signature %v -> %v does not mirror method", handler.Params, handler.ReturnType)
		}

		if slot.Type.Name != handler.Name {
			rt.Fatalf("slot type %q, want %q", slot.Type.Name, handler.Name)
		}

		stmts := override.Body.Stmts
		if len(stmts) != 3 {
			rt.Fatalf("body has %d statements, want guard, invoke, return", len(stmts))
		}

		if _, ok := stmts[0].(*syntax.If); !ok {
			rt.Fatalf("first statement is %T, want *syntax.If", stmts[0])
		}

		call := stmts[1].(*syntax.ExprStmt).X.(*syntax.Call)
		for i, arg := range call.Args {
			if arg.Mode != method.Params[i].Mode {
				rt.Fatalf("argument %d forwarded as %v, want %v", i, arg.Mode, method.Params[i].Mode)
			}
		}

		if ret := stmts[2].(*syntax.Return); ret.Value != nil {
			rt.Fatalf("trailing return carries a value")
		}
	})
}

// TestMockMethod_OutParamsDefaulted_Property proves every out parameter is assigned its
// default in the fallback block, in order, before the return.
func TestMockMethod_OutParamsDefaulted_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		ret := rapid.SampledFrom([]syntax.TypeRef{syntax.Void(), typ("int"), typ("List<T>")}).Draw(rt, "ret")
		method := genMethod(rt, ret, rapid.SampledFrom([]syntax.PassingMode{
			syntax.ByValue, syntax.Ref, syntax.In, syntax.Out,
		}))

		members, err := mock.MockMethod(method, rapid.Bool().Draw(rt, "override"))
		if err != nil {
			rt.Fatalf("MockMethod: %v", err)
		}

		fallback := members[2].(*syntax.Method).Body.Stmts[0].(*syntax.If).Then.Stmts

		var want []syntax.Stmt

		for _, p := range method.Params {
			if p.Mode == syntax.Out {
				want = append(want, assignDefault(p.Name, p.Type.Name))
			}
		}

		if diff := cmp.Diff(want, fallback[:len(fallback)-1], cmpopts.EquateEmpty()); diff != "" {
			rt.Fatalf("out assignments mismatch (-want +got):\n%s", diff)
		}

		last, ok := fallback[len(fallback)-1].(*syntax.Return)
		if !ok {
			rt.Fatalf("fallback ends with %T, want *syntax.Return", fallback[len(fallback)-1])
		}

		if ret.IsVoid() != (last.Value == nil) {
			rt.Fatalf("fallback return value %v does not match return type %v", last.Value, ret)
		}
	})
}

// TestAssembleClass_Modifiers_Property proves overriding members carry override exactly when the
// source is an abstract class, and public always.
func TestAssembleClass_Modifiers_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		kind := rapid.SampledFrom([]syntax.TypeKind{syntax.Interface, syntax.AbstractClass}).Draw(rt, "kind")
		source := genTypeDecl(rt, kind)

		class, err := mock.AssembleClass(source)
		if err != nil {
			rt.Fatalf("AssembleClass: %v", err)
		}

		for _, m := range class.Members {
			var mods []syntax.Modifier

			switch typed := m.(type) {
			case *syntax.Method:
				mods = typed.Modifiers
			case *syntax.Property:
				mods = typed.Modifiers
			default:
				continue
			}

			if !slices.Contains(mods, syntax.Public) {
				rt.Fatalf("%s is not public", m.MemberName())
			}

			if slices.Contains(mods, syntax.Override) != (kind == syntax.AbstractClass) {
				rt.Fatalf("%s has modifiers %v for a %v source", m.MemberName(), mods, kind)
			}
		}
	})
}

// TestAssembleClass_Filtering_Property proves concrete abstract-class members are never mocked and
// interface members always are.
func TestAssembleClass_Filtering_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		kind := rapid.SampledFrom([]syntax.TypeKind{syntax.Interface, syntax.AbstractClass}).Draw(rt, "kind")
		source := genTypeDecl(rt, kind)

		class, err := mock.AssembleClass(source)
		if err != nil {
			rt.Fatalf("AssembleClass: %v", err)
		}

		generated := map[string]bool{}
		for _, m := range class.Members {
			generated[m.MemberName()] = true
		}

		for _, m := range source.Members {
			var abstract bool

			switch typed := m.(type) {
			case *syntax.Method:
				abstract = typed.IsAbstract()
			case *syntax.Property:
				abstract = typed.IsAbstract()
			default:
				continue
			}

			wantMocked := kind == syntax.Interface || abstract
			if generated[m.MemberName()] != wantMocked {
				rt.Fatalf("member %s mocked=%v, want %v", m.MemberName(), generated[m.MemberName()], wantMocked)
			}
		}
	})
}

// TestMockProperty_Counts_Property proves each accessor contributes one handler and one slot and
// exactly one property comes out, last.
func TestMockProperty_Counts_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		prop := genProperty(rt, "P", true)

		members, err := mock.MockProperty(prop, rapid.Bool().Draw(rt, "override"))
		if err != nil {
			rt.Fatalf("MockProperty: %v", err)
		}

		var handlers, slots, props int

		for _, m := range members {
			switch m.(type) {
			case *syntax.Delegate:
				handlers++
			case *syntax.EventField:
				slots++
			case *syntax.Property:
				props++
			}
		}

		if handlers != len(prop.Accessors) || slots != len(prop.Accessors) || props != 1 {
			rt.Fatalf("got %d handlers, %d slots, %d properties for %d accessors",
				handlers, slots, props, len(prop.Accessors))
		}

		out, ok := members[len(members)-1].(*syntax.Property)
		if !ok {
			rt.Fatalf("last member is %T, want *syntax.Property", members[len(members)-1])
		}

		if len(out.Accessors) != len(prop.Accessors) {
			rt.Fatalf("property has %d accessors, want %d", len(out.Accessors), len(prop.Accessors))
		}
	})
}

// TestAssembleClass_Idempotent_Property proves two runs over the same source agree.
func TestAssembleClass_Idempotent_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		kind := rapid.SampledFrom([]syntax.TypeKind{syntax.Interface, syntax.AbstractClass}).Draw(rt, "kind")
		source := genTypeDecl(rt, kind)

		first, err := mock.AssembleClass(source)
		if err != nil {
			rt.Fatalf("AssembleClass: %v", err)
		}

		second, err := mock.AssembleClass(source)
		if err != nil {
			rt.Fatalf("AssembleClass: %v", err)
		}

		if diff := cmp.Diff(first, second); diff != "" {
			rt.Fatalf("runs differ (-first +second):\n%s", diff)
		}
	})
}

func genMethod(rt *rapid.T, ret syntax.TypeRef, modes *rapid.Generator[syntax.PassingMode]) *syntax.Method {
	count := rapid.IntRange(0, 5).Draw(rt, "paramCount")
	params := make([]syntax.Parameter, count)

	for i := range params {
		params[i] = syntax.Parameter{
			Name: fmt.Sprintf("p%d", i),
			Type: rapid.SampledFrom([]syntax.TypeRef{typ("int"), typ("string"), typ("T[]")}).Draw(rt, "paramType"),
			Mode: modes.Draw(rt, "mode"),
		}
	}

	return &syntax.Method{
		Name:       rapid.StringMatching(`[A-Z][A-Za-z0-9]{0,10}`).Draw(rt, "name"),
		Modifiers:  []syntax.Modifier{syntax.Public, syntax.Abstract},
		ReturnType: ret,
		Params:     params,
	}
}

func genProperty(rt *rapid.T, name string, abstract bool) *syntax.Property {
	accessors := rapid.SampledFrom([][]syntax.Accessor{
		{},
		{{Kind: syntax.Get}},
		{{Kind: syntax.Set}},
		{{Kind: syntax.Get}, {Kind: syntax.Set}},
	}).Draw(rt, "accessors")

	mods := []syntax.Modifier{syntax.Public}
	if abstract {
		mods = append(mods, syntax.Abstract)
	}

	return &syntax.Property{Name: name, Modifiers: mods, Type: typ("int"), Accessors: accessors}
}

// genTypeDecl builds a source type with uniquely named members, some of them concrete.
func genTypeDecl(rt *rapid.T, kind syntax.TypeKind) *syntax.TypeDecl {
	count := rapid.IntRange(0, 6).Draw(rt, "memberCount")
	members := make([]syntax.Member, 0, count)

	for i := range count {
		abstract := kind == syntax.Interface || rapid.Bool().Draw(rt, "abstract")
		name := fmt.Sprintf("M%d", i)

		if rapid.Bool().Draw(rt, "isProperty") {
			members = append(members, genProperty(rt, name, abstract))

			continue
		}

		method := genMethod(rt, typ("int"), rapid.Just(syntax.ByValue))
		method.Name = name

		if !abstract {
			method.Modifiers = []syntax.Modifier{syntax.Public}
			method.Body = syntax.NewBlock()
		}

		members = append(members, method)
	}

	return &syntax.TypeDecl{Kind: kind, Name: "ISubject", Members: members}
}
