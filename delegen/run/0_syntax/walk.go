package syntax

// Inspect traverses the tree rooted at node depth-first in source order, calling fn for each
// node. If fn returns false, the children of that node are skipped. Usings, accessors,
// parameters and arguments are visited as values.
//
//nolint:cyclop // one case per node type
func Inspect(node any, fn func(any) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *CompilationUnit:
		for _, u := range n.Usings {
			Inspect(u, fn)
		}

		for _, ns := range n.Namespaces {
			Inspect(ns, fn)
		}

		for _, t := range n.Types {
			Inspect(t, fn)
		}
	case *Namespace:
		for _, u := range n.Usings {
			Inspect(u, fn)
		}

		for _, t := range n.Types {
			Inspect(t, fn)
		}

		for _, child := range n.Namespaces {
			Inspect(child, fn)
		}
	case *TypeDecl:
		for _, m := range n.Members {
			Inspect(m, fn)
		}
	case *Method:
		inspectParams(n.Params, fn)
		inspectBlock(n.Body, fn)
	case *Property:
		for _, a := range n.Accessors {
			Inspect(a, fn)
		}
	case Accessor:
		inspectBlock(n.Body, fn)
	case *Constructor:
		inspectParams(n.Params, fn)

		if n.Initializer != nil {
			inspectArgs(n.Initializer.Args, fn)
		}

		inspectBlock(n.Body, fn)
	case *Delegate:
		inspectParams(n.Params, fn)
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, fn)
		}
	case *If:
		Inspect(n.Cond, fn)
		inspectBlock(n.Then, fn)
	case *Return:
		if n.Value != nil {
			Inspect(n.Value, fn)
		}
	case *ExprStmt:
		Inspect(n.X, fn)
	case *Assign:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *Call:
		Inspect(n.Fun, fn)
		inspectArgs(n.Args, fn)
	case Argument:
		Inspect(n.Value, fn)
	case *Binary:
		Inspect(n.X, fn)
		Inspect(n.Y, fn)
	}
}

// Usings returns every using directive in the unit in source order, however deeply nested.
func Usings(unit *CompilationUnit) []Using {
	var usings []Using

	Inspect(unit, func(n any) bool {
		if u, ok := n.(Using); ok {
			usings = append(usings, u)
		}

		return true
	})

	return usings
}

// TypeDecls returns every type declaration in the unit in source order.
func TypeDecls(unit *CompilationUnit) []*TypeDecl {
	var decls []*TypeDecl

	Inspect(unit, func(n any) bool {
		if d, ok := n.(*TypeDecl); ok {
			decls = append(decls, d)

			return false
		}

		return true
	})

	return decls
}

func inspectArgs(args []Argument, fn func(any) bool) {
	for _, a := range args {
		Inspect(a, fn)
	}
}

func inspectBlock(b *Block, fn func(any) bool) {
	if b != nil {
		Inspect(b, fn)
	}
}

func inspectParams(params []Parameter, fn func(any) bool) {
	for _, p := range params {
		Inspect(p, fn)
	}
}
