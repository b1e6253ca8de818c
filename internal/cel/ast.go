package cel

// The AST mirrors the surface grammar. Nodes are immutable after parsing
// and safe to share across evaluations.

// RelationOp enumerates the relational operators.
type RelationOp int

const (
	OpLess RelationOp = iota
	OpLessEq
	OpGreater
	OpGreaterEq
	OpEqual
	OpNotEqual
	OpIn
)

func (op RelationOp) String() string {
	switch op {
	case OpLess:
		return "<"
	case OpLessEq:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEq:
		return ">="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpIn:
		return "in"
	}
	return "?"
}

// ArithmeticOp enumerates the arithmetic operators.
type ArithmeticOp int

const (
	OpAdd ArithmeticOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulus
)

func (op ArithmeticOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpModulus:
		return "%"
	}
	return "?"
}

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpDoubleNot
	OpMinus
	OpDoubleMinus
)

// Expr is an expression tree node.
type Expr interface {
	isExpr()
}

type TernaryExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

type OrExpr struct {
	Left  Expr
	Right Expr
}

type AndExpr struct {
	Left  Expr
	Right Expr
}

type RelationExpr struct {
	Op    RelationOp
	Left  Expr
	Right Expr
}

type ArithmeticExpr struct {
	Op    ArithmeticOp
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
}

// MemberExpr applies a member operation (attribute, call or index) to a
// target expression.
type MemberExpr struct {
	Target Expr
	Member Member
}

// Member is one postfix member operation.
type Member interface {
	isMember()
}

type AttributeMember struct {
	Name string
}

type CallMember struct {
	Args []Expr
}

type IndexMember struct {
	Index Expr
}

func (AttributeMember) isMember() {}
func (CallMember) isMember()      {}
func (IndexMember) isMember()     {}

type ListExpr struct {
	Elems []Expr
}

type MapEntry struct {
	Key   Expr
	Value Expr
}

type MapExpr struct {
	Entries []MapEntry
}

type StructField struct {
	Name  string
	Value Expr
}

// StructExpr is a named construction literal, e.g. Money{units: 1}.
type StructExpr struct {
	TypeName string
	Fields   []StructField
}

// LiteralExpr holds a literal value of one of the base kinds.
type LiteralExpr struct {
	Value Value
}

type IdentExpr struct {
	Name string
}

func (TernaryExpr) isExpr()    {}
func (OrExpr) isExpr()         {}
func (AndExpr) isExpr()        {}
func (RelationExpr) isExpr()   {}
func (ArithmeticExpr) isExpr() {}
func (UnaryExpr) isExpr()      {}
func (MemberExpr) isExpr()     {}
func (ListExpr) isExpr()       {}
func (MapExpr) isExpr()        {}
func (StructExpr) isExpr()     {}
func (LiteralExpr) isExpr()    {}
func (IdentExpr) isExpr()      {}
