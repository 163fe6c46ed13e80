// Package lang parses Qubic dispatch-dialect contract source into a small
// tagged statement tree. The grammar is deliberately restricted: one entry
// function, chained `if (in.functionName == "...")` arms, straight-line
// statements and simple conditionals, no loops.
package lang

// ContractUnit is one parsed contract. Immutable once built.
type ContractUnit struct {
	Source     string
	Branches   []*FunctionBranch
	Duplicates []string // function-name literals that appear on more than one arm
}

// Branch returns the first dispatch arm with the given function-name literal.
func (u *ContractUnit) Branch(name string) *FunctionBranch {
	for _, b := range u.Branches {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// FunctionBranch is one `if (in.functionName == "...")` dispatch arm.
// Arms are kept in source order and are not mutually exclusive; overlapping
// matches are observable behavior and surface through Duplicates.
type FunctionBranch struct {
	Name      string
	Line      int
	Body      []Statement
	StateKeys []string // state keys referenced by read/write primitives, source order
}

type Statement interface {
	Pos() int
}

// CallStmt is a bare primitive call, e.g. `send_funds(in.sender, amount);`.
type CallStmt struct {
	Line int
	Call *CallExpr
}

// AssignStmt covers declarations and assignments. Value is nil for a bare
// declaration like `outputStruct out;`.
type AssignStmt struct {
	Line   int
	Target string
	Value  Expr
	Decl   bool
}

// CondStmt is a simple conditional. The restricted grammar admits no loops,
// so Then/Else are the only control structure below the dispatch arms.
type CondStmt struct {
	Line int
	Cond Expr
	Then []Statement
	Else []Statement
}

type ReturnStmt struct {
	Line  int
	Value Expr // may be nil
}

func (s *CallStmt) Pos() int   { return s.Line }
func (s *AssignStmt) Pos() int { return s.Line }
func (s *CondStmt) Pos() int   { return s.Line }
func (s *ReturnStmt) Pos() int { return s.Line }

type Expr interface {
	exprNode()
}

// Ident may be dotted, e.g. `in.sender` or `out.success`.
type Ident struct {
	Name string
}

type StringLit struct {
	Value string
}

type IntLit struct {
	Value int64
}

type BoolLit struct {
	Value bool
}

type CallExpr struct {
	Line int
	Name string
	Prim PrimitiveKind
	Args []Expr
}

type UnaryExpr struct {
	Op string // "!"
	X  Expr
}

type BinaryExpr struct {
	Op   string // == != < > <= >= && || + - * /
	X, Y Expr
}

func (*Ident) exprNode()      {}
func (*StringLit) exprNode()  {}
func (*IntLit) exprNode()     {}
func (*BoolLit) exprNode()    {}
func (*CallExpr) exprNode()   {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
