// Package ast defines the syntax tree produced by the parser. Every node
// type is a member of a small closed sum (Statement, Expression, Type,
// Item); downstream passes dispatch on concrete type with a type switch
// rather than through a visitor/inheritance hierarchy, per the language's
// own design constraint of owned, Box-indirected trees with no back edges.
package ast

import "github.com/mastercyb/trident/internal/token"

// Span is a byte range within a single source file; every node carries one
// for diagnostic rendering.
type Span struct {
	Start, End int
	Line, Col  int
}

func SpanOf(tok token.Token) Span {
	return Span{Start: tok.Span.Start, End: tok.Span.End, Line: tok.Line, Col: tok.Column}
}

// Node is the base interface every AST node satisfies.
type Node interface {
	Pos() Span
}

// Statement is a Node that appears in a function body.
type Statement interface {
	Node
	stmtNode()
}

// Expression is a Node that evaluates to a value.
type Expression interface {
	Node
	exprNode()
}

// Type is a syntactic type as written in source (pre-resolution).
type Type interface {
	Node
	typeNode()
}

// Item is a top-level declaration: Const, Struct, Event, or Fn.
type Item interface {
	Node
	itemNode()
	ItemName() string
	Cfg() string
}

// FileKind distinguishes the one Program file from Module files.
type FileKind int

const (
	KindModule FileKind = iota
	KindProgram
)

// ModulePath is a dotted module name, e.g. std.hash.
type ModulePath struct {
	Segments []string
	Span     Span
}

func (m ModulePath) String() string {
	s := ""
	for i, seg := range m.Segments {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// IODecl is a `pub input: T` / `sec input: T` / `pub output: T` declaration.
type IODecl struct {
	Public bool
	Kind   string // "input" or "output"
	Ty     Type
	SpanV  Span
}

func (d *IODecl) Pos() Span { return d.SpanV }

// RAMDecl is the `sec ram: { addr: T, ... }` declaration.
type RAMCell struct {
	Addr uint64
	Ty   Type
}

type RAMDecl struct {
	Cells []RAMCell
	SpanV Span
}

func (d *RAMDecl) Pos() Span { return d.SpanV }

// File is the root node produced by the parser for one source file.
type File struct {
	Kind         FileKind
	Name         string // dotted program/module name
	Path         string // source file path, set by the resolver
	Source       string // raw source text, kept for diagnostics rendering
	Uses         []ModulePath
	IODecls      []*IODecl
	RAM          *RAMDecl
	Declarations []Statement // top-level declarations that are not Items (reserved)
	Items        []Item
	SpanV        Span
}

func (f *File) Pos() Span { return f.SpanV }

// Attribute is a `#[name(arg)]` annotation preceding an item.
type Attribute struct {
	Name string
	Arg  string
	Span Span
}
