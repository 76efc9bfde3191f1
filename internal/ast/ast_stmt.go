package ast

import "github.com/mastercyb/trident/internal/token"

// Let is `let [mut] pattern [: Ty] = init`.
type Let struct {
	Mutable bool
	Pattern Pattern
	Ty      Type // optional
	Init    Expression
	SpanV   Span
}

func (s *Let) Pos() Span { return s.SpanV }
func (*Let) stmtNode()   {}

// Assign is `place = value`.
type Assign struct {
	Place Place
	Value Expression
	SpanV Span
}

func (s *Assign) Pos() Span { return s.SpanV }
func (*Assign) stmtNode()   {}

// TupleAssign is `(a, b) = value`.
type TupleAssign struct {
	Names []string
	Value Expression
	SpanV Span
}

func (s *TupleAssign) Pos() Span { return s.SpanV }
func (*TupleAssign) stmtNode()   {}

// If is `if cond { then } [else { else }]`.
type If struct {
	Cond  Expression
	Then  []Statement
	Else  []Statement // nil if no else branch
	SpanV Span
}

func (s *If) Pos() Span { return s.SpanV }
func (*If) stmtNode()   {}

// For is `for var in start..end [bounded B] { body }`.
type For struct {
	Var   string
	Start Expression
	End   Expression
	Bound *uint64 // optional declared upper bound on iteration count
	Body  []Statement
	SpanV Span
}

func (s *For) Pos() Span { return s.SpanV }
func (*For) stmtNode()   {}

// ExprStmt wraps an expression used for its side effect.
type ExprStmt struct {
	Expr  Expression
	SpanV Span
}

func (s *ExprStmt) Pos() Span { return s.SpanV }
func (*ExprStmt) stmtNode()   {}

// Return is `return [value]`.
type Return struct {
	Value Expression // nil for bare return
	SpanV Span
}

func (s *Return) Pos() Span { return s.SpanV }
func (*Return) stmtNode()   {}

// Reveal is `reveal EventName(field: expr, ...)`.
type Reveal struct {
	Event  string
	Fields []StructInitField
	SpanV  Span
}

func (s *Reveal) Pos() Span { return s.SpanV }
func (*Reveal) stmtNode()   {}

// Seal is `seal EventName(field: expr, ...)`.
type Seal struct {
	Event  string
	Fields []StructInitField
	SpanV  Span
}

func (s *Seal) Pos() Span { return s.SpanV }
func (*Seal) stmtNode()   {}

// Asm is an inline-assembly escape hatch.
type Asm struct {
	Body        []string
	StackEffect int
	Target      string // optional; empty means "all targets"
	SpanV       Span
}

func (s *Asm) Pos() Span { return s.SpanV }
func (*Asm) stmtNode()   {}

// Match is `match expr { lit => { ... } ... _ => { ... } }`.
type Match struct {
	Scrutinee Expression
	Arms      []MatchArm
	SpanV     Span
}

func (s *Match) Pos() Span { return s.SpanV }
func (*Match) stmtNode()   {}

// ─── Top-level items ────────────────────────────────────────────────

// Const is a top-level constant declaration (integer literal only).
type Const struct {
	IsPub bool
	Name  string
	Ty    Type
	Value uint64
	CfgV  string
	SpanV Span
}

func (i *Const) Pos() Span        { return i.SpanV }
func (*Const) itemNode()          {}
func (i *Const) ItemName() string { return i.Name }
func (i *Const) Cfg() string      { return i.CfgV }

// StructField is one field of a struct declaration.
type StructField struct {
	Name  string
	Ty    Type
	IsPub bool
}

// Struct is a top-level struct declaration.
type Struct struct {
	IsPub  bool
	Name   string
	Fields []StructField
	CfgV   string
	SpanV  Span
}

func (i *Struct) Pos() Span        { return i.SpanV }
func (*Struct) itemNode()          {}
func (i *Struct) ItemName() string { return i.Name }
func (i *Struct) Cfg() string      { return i.CfgV }

// Event is a top-level event declaration (at most 9 Field-typed fields).
type Event struct {
	Name   string
	Fields []StructField
	CfgV   string
	SpanV  Span
}

func (i *Event) Pos() Span        { return i.SpanV }
func (*Event) itemNode()          {}
func (i *Event) ItemName() string { return i.Name }
func (i *Event) Cfg() string      { return i.CfgV }

// Param is one function parameter.
type Param struct {
	Name string
	Ty   Type
}

// Contract is a `#[requires(...)]` / `#[ensures(...)]` expression attached
// to a function for documentation/verification metadata; it never affects
// codegen or hashing.
type Contract struct {
	Expr Expression
	Raw  string
}

// Fn is a top-level function declaration.
type Fn struct {
	IsPub       bool
	IsTest      bool
	IsPure      bool
	CfgV        string
	Intrinsic   string // non-empty if #[intrinsic(TASM_OP)] with no body
	Requires    []Contract
	Ensures     []Contract
	Name        string
	TypeParams  []string // size-generic parameters, e.g. ["N"]
	Params      []Param
	ReturnTy    Type // nil for unit return
	Body        []Statement
	Tok         token.Token
	SpanV       Span
}

func (i *Fn) Pos() Span        { return i.SpanV }
func (*Fn) itemNode()          {}
func (i *Fn) ItemName() string { return i.Name }
func (i *Fn) Cfg() string      { return i.CfgV }

func (i *Fn) IsGeneric() bool { return len(i.TypeParams) > 0 }
func (i *Fn) HasBody() bool   { return i.Intrinsic == "" }
