package mock_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/onsi/gomega" //nolint:revive // gomega convention

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
	mock "github.com/toejough/mockdelegates/delegen/run/4_mock"
)

func TestMockMethod_NonVoidInterfaceMethod(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	area := &syntax.Method{Name: "Area", ReturnType: typ("int")}

	members, err := mock.MockMethod(area, false)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(members).To(HaveLen(3))

	handler, slot, method := splitMethodMock(t, members)

	g.Expect(handler.Name).To(Equal("OnAreaHandler"))
	g.Expect(handler.ReturnType).To(Equal(typ("int")))
	g.Expect(handler.Params).To(BeEmpty())
	g.Expect(handler.Modifiers).To(Equal([]syntax.Modifier{syntax.Public}))

	g.Expect(slot.Name).To(Equal("OnArea"))
	g.Expect(slot.Type).To(Equal(typ("OnAreaHandler")))

	g.Expect(method.Name).To(Equal("Area"))
	g.Expect(method.Modifiers).To(Equal([]syntax.Modifier{syntax.Public}))

	want := syntax.NewBlock(
		nullGuard("OnArea", &syntax.Return{Value: &syntax.Default{Type: typ("int")}}),
		&syntax.Return{Value: &syntax.Call{Fun: &syntax.Ident{Name: "OnArea"}}},
	)
	if diff := cmp.Diff(want, method.Body, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestMockMethod_VoidInvokesThenReturns(t *testing.T) {
	t.Parallel()

	draw := &syntax.Method{
		Name:       "Draw",
		ReturnType: syntax.Void(),
		Params: []syntax.Parameter{
			{Name: "x", Type: typ("int")},
			{Name: "buf", Type: typ("Span<byte>"), Mode: syntax.Ref},
			{Name: "opts", Type: typ("Options"), Mode: syntax.In},
		},
	}

	members, err := mock.MockMethod(draw, false)
	if err != nil {
		t.Fatalf("MockMethod: %v", err)
	}

	_, _, method := splitMethodMock(t, members)

	want := syntax.NewBlock(
		nullGuard("OnDraw", &syntax.Return{}),
		&syntax.ExprStmt{X: &syntax.Call{
			Fun: &syntax.Ident{Name: "OnDraw"},
			Args: []syntax.Argument{
				{Value: &syntax.Ident{Name: "x"}},
				{Mode: syntax.Ref, Value: &syntax.Ident{Name: "buf"}},
				{Mode: syntax.In, Value: &syntax.Ident{Name: "opts"}},
			},
		}},
		&syntax.Return{},
	)
	if diff := cmp.Diff(want, method.Body, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestMockMethod_OutParamsDefaultedBeforeReturn(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	tryGet := &syntax.Method{
		Name:       "TryGet",
		ReturnType: typ("bool"),
		Params: []syntax.Parameter{
			{Name: "key", Type: typ("string")},
			{Name: "value", Type: typ("T"), Mode: syntax.Out},
			{Name: "count", Type: typ("int"), Mode: syntax.Out},
		},
	}

	members, err := mock.MockMethod(tryGet, true)
	g.Expect(err).NotTo(HaveOccurred())

	_, _, method := splitMethodMock(t, members)
	guard, ok := method.Body.Stmts[0].(*syntax.If)
	g.Expect(ok).To(BeTrue())

	want := syntax.NewBlock(
		assignDefault("value", "T"),
		assignDefault("count", "int"),
		&syntax.Return{Value: &syntax.Default{Type: typ("bool")}},
	)
	if diff := cmp.Diff(want, guard.Then, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestMockMethod_OverrideModifiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		needsOverride bool
		want          []syntax.Modifier
	}{
		{name: "interface member", needsOverride: false, want: []syntax.Modifier{syntax.Public}},
		{name: "abstract member", needsOverride: true, want: []syntax.Modifier{syntax.Public, syntax.Override}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			source := &syntax.Method{
				Name:       "Run",
				Modifiers:  []syntax.Modifier{syntax.Public, syntax.Abstract},
				ReturnType: typ("int"),
			}

			members, err := mock.MockMethod(source, tt.needsOverride)
			g.Expect(err).NotTo(HaveOccurred())

			_, _, method := splitMethodMock(t, members)
			g.Expect(method.Modifiers).To(Equal(tt.want))
		})
	}
}

func TestMockMethod_CarriesGenericsAndConstraints(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source := &syntax.Method{
		Name:        "Convert",
		ReturnType:  typ("TOut"),
		TypeParams:  "<TIn, TOut>",
		Constraints: []string{"where TOut : new()"},
		Params:      []syntax.Parameter{{Name: "input", Type: typ("TIn")}},
	}

	implemented, err := mock.MockMethod(source, false)
	g.Expect(err).NotTo(HaveOccurred())

	handler, _, method := splitMethodMock(t, implemented)
	g.Expect(handler.TypeParams).To(Equal("<TIn, TOut>"))
	g.Expect(handler.Constraints).To(Equal([]string{"where TOut : new()"}))
	g.Expect(method.TypeParams).To(Equal("<TIn, TOut>"))
	g.Expect(method.Constraints).To(Equal([]string{"where TOut : new()"}))

	overridden, err := mock.MockMethod(source, true)
	g.Expect(err).NotTo(HaveOccurred())

	_, _, method = splitMethodMock(t, overridden)
	g.Expect(method.Constraints).To(BeEmpty())
}

func TestMockMethod_VariadicForwardedAsSpread(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source := &syntax.Method{
		Name:       "Log",
		ReturnType: syntax.Void(),
		Params:     []syntax.Parameter{{Name: "args", Type: typ("any"), Variadic: true}},
	}

	members, err := mock.MockMethod(source, false)
	g.Expect(err).NotTo(HaveOccurred())

	_, _, method := splitMethodMock(t, members)
	call := method.Body.Stmts[1].(*syntax.ExprStmt).X.(*syntax.Call)
	g.Expect(call.Args).To(HaveLen(1))
	g.Expect(call.Args[0].Spread).To(BeTrue())
}

func TestMockMethod_DoesNotShareSourceSlices(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	params := []syntax.Parameter{{Name: "x", Type: typ("int")}}
	source := &syntax.Method{Name: "F", ReturnType: syntax.Void(), Params: params}

	members, err := mock.MockMethod(source, false)
	g.Expect(err).NotTo(HaveOccurred())

	handler, _, method := splitMethodMock(t, members)
	handler.Params[0].Name = "changed"

	g.Expect(source.Params[0].Name).To(Equal("x"))
	g.Expect(method.Params[0].Name).To(Equal("x"))
}

func TestMockMethod_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method *syntax.Method
	}{
		{name: "nil method", method: nil},
		{name: "empty name", method: &syntax.Method{ReturnType: typ("int")}},
		{name: "missing return type", method: &syntax.Method{Name: "F"}},
		{
			name: "unnamed parameter",
			method: &syntax.Method{
				Name: "F", ReturnType: syntax.Void(),
				Params: []syntax.Parameter{{Type: typ("int")}},
			},
		},
		{
			name: "untyped out parameter",
			method: &syntax.Method{
				Name: "F", ReturnType: syntax.Void(),
				Params: []syntax.Parameter{{Name: "x", Mode: syntax.Out}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			members, err := mock.MockMethod(tt.method, false)
			if err == nil {
				t.Fatal("expected an error")
			}

			if members != nil {
				t.Errorf("expected no partial output, got %d members", len(members))
			}
		})
	}
}

func TestMockConstructor_ForwardsParameters(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	source := &syntax.Constructor{
		Name:      "Base",
		Modifiers: []syntax.Modifier{"protected"},
		Params: []syntax.Parameter{
			{Name: "x", Type: typ("int")},
			{Name: "name", Type: typ("string"), Mode: syntax.In},
		},
		Body: syntax.NewBlock(&syntax.ExprStmt{X: &syntax.Ident{Name: "Init"}}),
	}

	ctor, err := mock.MockConstructor(source, "MockBase")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ctor.Name).To(Equal("MockBase"))
	g.Expect(ctor.Modifiers).To(Equal([]syntax.Modifier{syntax.Public}))
	g.Expect(ctor.Params).To(Equal(source.Params))
	g.Expect(ctor.Body.Stmts).To(BeEmpty())
	g.Expect(ctor.Initializer).To(Equal(&syntax.Initializer{
		Base: true,
		Args: []syntax.Argument{
			{Value: &syntax.Ident{Name: "x"}},
			{Value: &syntax.Ident{Name: "name"}},
		},
	}))
}

func TestMockConstructor_Errors(t *testing.T) {
	t.Parallel()

	if _, err := mock.MockConstructor(nil, "MockX"); err == nil {
		t.Error("nil constructor should fail")
	}

	if _, err := mock.MockConstructor(&syntax.Constructor{Name: "X"}, ""); err == nil {
		t.Error("empty class name should fail")
	}
}

func TestNames(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(mock.SlotName("Area")).To(Equal("OnArea"))
	g.Expect(mock.HandlerName("Area")).To(Equal("OnAreaHandler"))
	g.Expect(mock.AccessorName(syntax.Get, "Size")).To(Equal("SizeGet"))
	g.Expect(mock.HandlerName(mock.AccessorName(syntax.Set, "Size"))).To(Equal("OnSizeSetHandler"))
}
