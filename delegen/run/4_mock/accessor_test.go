package mock_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/onsi/gomega" //nolint:revive // gomega convention

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
	mock "github.com/toejough/mockdelegates/delegen/run/4_mock"
)

func TestMockAccessor(t *testing.T) {
	t.Parallel()

	size := &syntax.Property{
		Name:      "Size",
		Modifiers: []syntax.Modifier{syntax.Public},
		Type:      typ("int"),
		Accessors: []syntax.Accessor{{Kind: syntax.Get}, {Kind: syntax.Set}},
	}

	tests := []struct {
		name        string
		kind        syntax.AccessorKind
		wantHandler *syntax.Delegate
		wantBody    *syntax.Block
	}{
		{
			name: "get",
			kind: syntax.Get,
			wantHandler: &syntax.Delegate{
				Name:       "OnSizeGetHandler",
				Modifiers:  []syntax.Modifier{syntax.Public},
				ReturnType: typ("int"),
			},
			wantBody: syntax.NewBlock(
				nullGuard("OnSizeGet", &syntax.Return{Value: &syntax.Default{Type: typ("int")}}),
				&syntax.Return{Value: &syntax.Call{Fun: &syntax.Ident{Name: "OnSizeGet"}}},
			),
		},
		{
			name: "set",
			kind: syntax.Set,
			wantHandler: &syntax.Delegate{
				Name:       "OnSizeSetHandler",
				Modifiers:  []syntax.Modifier{syntax.Public},
				ReturnType: syntax.Void(),
				Params:     []syntax.Parameter{{Name: "value", Type: typ("int"), Mode: syntax.ByValue}},
			},
			wantBody: syntax.NewBlock(
				nullGuard("OnSizeSet", assignDefault("value", "int"), &syntax.Return{}),
				&syntax.ExprStmt{X: &syntax.Call{
					Fun:  &syntax.Ident{Name: "OnSizeSet"},
					Args: []syntax.Argument{{Value: &syntax.Ident{Name: "value"}}},
				}},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			accessor, members, err := mock.MockAccessor(tt.kind, size)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(accessor.Kind).To(Equal(tt.kind))
			g.Expect(members).To(HaveLen(2))

			if diff := cmp.Diff(tt.wantHandler, members[0], cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("handler mismatch (-want +got):\n%s", diff)
			}

			slot, ok := members[1].(*syntax.EventField)
			g.Expect(ok).To(BeTrue())
			g.Expect(slot.Name).To(Equal(mock.SlotName(mock.AccessorName(tt.kind, "Size"))))
			g.Expect(slot.Type).To(Equal(typ(tt.wantHandler.Name)))

			if diff := cmp.Diff(tt.wantBody, accessor.Body, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMockAccessor_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     syntax.AccessorKind
		property *syntax.Property
		wantMsg  string
	}{
		{name: "nil property", kind: syntax.Get, wantMsg: "nil member"},
		{name: "empty name", kind: syntax.Get, property: &syntax.Property{Type: typ("int")}, wantMsg: "empty member name"},
		{name: "missing type", kind: syntax.Set, property: &syntax.Property{Name: "Size"}, wantMsg: "missing type"},
		{
			name:     "unknown kind",
			kind:     syntax.AccessorKind(7),
			property: &syntax.Property{Name: "Size", Type: typ("int")},
			wantMsg:  "unknown accessor kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, members, err := mock.MockAccessor(tt.kind, tt.property)
			g.Expect(err).To(MatchError(ContainSubstring(tt.wantMsg)))
			g.Expect(members).To(BeNil())
		})
	}
}

func TestMockProperty_WithoutAccessors(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	bare := &syntax.Property{Name: "Size", Modifiers: []syntax.Modifier{syntax.Public, syntax.Abstract}, Type: typ("int")}

	members, err := mock.MockProperty(bare, true)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(members).To(HaveLen(1))

	prop, ok := members[0].(*syntax.Property)
	g.Expect(ok).To(BeTrue())
	g.Expect(prop.Name).To(Equal("Size"))
	g.Expect(prop.Accessors).To(BeEmpty())
	g.Expect(prop.Modifiers).To(Equal([]syntax.Modifier{syntax.Public, syntax.Override}))
}
