package ast

import "github.com/mastercyb/trident/internal/token"

// BinOpKind enumerates the binary operators of §3.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpMul
	OpEq
	OpLt
	OpBitAnd
	OpBitXor
	OpDivMod // u32 /%, returns a pair
	OpXMul   // *. , XField x Field
)

func (k BinOpKind) String() string {
	switch k {
	case OpAdd:
		return "+"
	case OpMul:
		return "*"
	case OpEq:
		return "=="
	case OpLt:
		return "<"
	case OpBitAnd:
		return "&"
	case OpBitXor:
		return "^"
	case OpDivMod:
		return "/%"
	case OpXMul:
		return "*."
	default:
		return "?"
	}
}

// Literal is an integer or boolean literal.
type IntLiteral struct {
	Value uint64
	Tok   token.Token
	SpanV Span
}

func (e *IntLiteral) Pos() Span { return e.SpanV }
func (*IntLiteral) exprNode()   {}

type BoolLiteral struct {
	Value bool
	Tok   token.Token
	SpanV Span
}

func (e *BoolLiteral) Pos() Span { return e.SpanV }
func (*BoolLiteral) exprNode()   {}

// Var references a (possibly dotted) name.
type Var struct {
	Path  []string
	Tok   token.Token
	SpanV Span
}

func (e *Var) Pos() Span { return e.SpanV }
func (*Var) exprNode()   {}

func (e *Var) Name() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[len(e.Path)-1]
}

func (e *Var) IsDotted() bool { return len(e.Path) > 1 }

// BinOp is a binary operation.
type BinOp struct {
	Op    BinOpKind
	Lhs   Expression
	Rhs   Expression
	SpanV Span
}

func (e *BinOp) Pos() Span { return e.SpanV }
func (*BinOp) exprNode()   {}

// Call is a function or builtin call, possibly with explicit generic size
// arguments: f<3>(args).
type Call struct {
	Path        []string
	GenericArgs []Size
	Args        []Expression
	Tok         token.Token
	SpanV       Span
}

func (e *Call) Pos() Span { return e.SpanV }
func (*Call) exprNode()   {}

func (e *Call) Name() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[len(e.Path)-1]
}

func (e *Call) IsDotted() bool { return len(e.Path) > 1 }

// FieldAccess is `expr.field`.
type FieldAccess struct {
	Base  Expression
	Field string
	SpanV Span
}

func (e *FieldAccess) Pos() Span { return e.SpanV }
func (*FieldAccess) exprNode()   {}

// Index is `expr[index]`.
type Index struct {
	Base  Expression
	Idx   Expression
	SpanV Span
}

func (e *Index) Pos() Span { return e.SpanV }
func (*Index) exprNode()   {}

// StructInit is `Path { field: expr, ... }`.
type StructInitField struct {
	Name  string
	Value Expression
}

type StructInit struct {
	Path  []string
	Fields []StructInitField
	SpanV Span
}

func (e *StructInit) Pos() Span { return e.SpanV }
func (*StructInit) exprNode()   {}

func (e *StructInit) Name() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[len(e.Path)-1]
}

// ArrayInit is `[e1, e2, ...]`.
type ArrayInit struct {
	Elems []Expression
	SpanV Span
}

func (e *ArrayInit) Pos() Span { return e.SpanV }
func (*ArrayInit) exprNode()   {}

// TupleExpr is `(e1, e2, ...)`.
type TupleExpr struct {
	Elems []Expression
	SpanV Span
}

func (e *TupleExpr) Pos() Span { return e.SpanV }
func (*TupleExpr) exprNode()   {}

// ─── Place (assignment targets) ─────────────────────────────────────

type Place interface {
	Node
	placeNode()
}

type VarPlace struct {
	Name  string
	SpanV Span
}

func (p *VarPlace) Pos() Span { return p.SpanV }
func (*VarPlace) placeNode()  {}

type FieldPlace struct {
	Base  Place
	Field string
	SpanV Span
}

func (p *FieldPlace) Pos() Span { return p.SpanV }
func (*FieldPlace) placeNode()  {}

type IndexPlace struct {
	Base  Place
	Idx   Expression
	SpanV Span
}

func (p *IndexPlace) Pos() Span { return p.SpanV }
func (*IndexPlace) placeNode()  {}

// Pattern is a let-binding pattern: a simple name or a tuple destructure.
type Pattern interface {
	Node
	patternNode()
}

type NamePattern struct {
	Name  string
	SpanV Span
}

func (p *NamePattern) Pos() Span  { return p.SpanV }
func (*NamePattern) patternNode() {}

type TuplePattern struct {
	Names []string
	SpanV Span
}

func (p *TuplePattern) Pos() Span  { return p.SpanV }
func (*TuplePattern) patternNode() {}

// MatchArm is one arm of a Match statement: either a literal pattern or the
// wildcard `_`.
type MatchArm struct {
	Wildcard bool
	Lit      uint64
	Body     []Statement
	SpanV    Span
}
