package syntax

import "slices"

// Stmt is a statement. It is implemented by *Block, *If, *Return and *ExprStmt.
type Stmt interface {
	stmt()
}

// Expr is an expression. It is implemented by *Ident, *Default, *Assign, *Call, *Binary and *Null.
type Expr interface {
	expr()
}

// Block is a braced statement list.
type Block struct {
	Stmts []Stmt
}

// NewBlock builds a block holding stmts.
func NewBlock(stmts ...Stmt) *Block {
	return &Block{Stmts: slices.Clone(stmts)}
}

// WithStmts returns a copy of b with stmts appended.
func (b *Block) WithStmts(stmts ...Stmt) *Block {
	return &Block{Stmts: append(slices.Clone(b.Stmts), stmts...)}
}

func (*Block) stmt() {}

// If is a conditional without an else branch.
type If struct {
	Cond Expr
	Then *Block
}

func (*If) stmt() {}

// Return is a return statement. Value is nil for a bare return.
type Return struct {
	Value Expr
}

func (*Return) stmt() {}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	X Expr
}

func (*ExprStmt) stmt() {}

// Ident is a name reference.
type Ident struct {
	Name string
}

func (*Ident) expr() {}

// Default is the default value of a type.
type Default struct {
	Type TypeRef
}

func (*Default) expr() {}

// Assign is a simple assignment.
type Assign struct {
	Left  Expr
	Right Expr
}

func (*Assign) expr() {}

// Argument is one call argument. Spread marks a variadic parameter forwarded as a whole.
type Argument struct {
	Mode   PassingMode
	Value  Expr
	Spread bool
}

// Call invokes Fun with Args.
type Call struct {
	Fun  Expr
	Args []Argument
}

func (*Call) expr() {}

// Binary is a binary operation such as `x == null`.
type Binary struct {
	X  Expr
	Op string
	Y  Expr
}

func (*Binary) expr() {}

// Null is the null literal.
type Null struct{}

func (*Null) expr() {}
