package mock_test

import (
	"testing"

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
)

func assignDefault(name, typeName string) syntax.Stmt {
	return &syntax.ExprStmt{X: &syntax.Assign{
		Left:  &syntax.Ident{Name: name},
		Right: &syntax.Default{Type: typ(typeName)},
	}}
}

func nullGuard(slot string, fallback ...syntax.Stmt) *syntax.If {
	return &syntax.If{
		Cond: &syntax.Binary{X: &syntax.Ident{Name: slot}, Op: "==", Y: &syntax.Null{}},
		Then: syntax.NewBlock(fallback...),
	}
}

// splitMethodMock unpacks the handler, slot and method produced for one method.
func splitMethodMock(t *testing.T, members []syntax.Member) (*syntax.Delegate, *syntax.EventField, *syntax.Method) {
	t.Helper()

	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}

	handler, ok := members[0].(*syntax.Delegate)
	if !ok {
		t.Fatalf("member 0 is %T, want *syntax.Delegate", members[0])
	}

	slot, ok := members[1].(*syntax.EventField)
	if !ok {
		t.Fatalf("member 1 is %T, want *syntax.EventField", members[1])
	}

	method, ok := members[2].(*syntax.Method)
	if !ok {
		t.Fatalf("member 2 is %T, want *syntax.Method", members[2])
	}

	return handler, slot, method
}

func typ(name string) syntax.TypeRef {
	return syntax.TypeRef{Name: name}
}
