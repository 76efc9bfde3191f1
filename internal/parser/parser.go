// Package parser builds an *ast.File from a Trident token stream. Structured
// the way funvibe-funxy/internal/parser is: a single Parser type threading
// cursor state through files split by grammar concern (expressions,
// statements, types, items), generalized from Funxy's dynamic grammar to
// Trident's smaller, statically-typed surface syntax.
package parser

import (
	"fmt"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/lexer"
	"github.com/mastercyb/trident/internal/token"
)

// Parser holds cursor state over a pre-lexed token buffer.
type Parser struct {
	tokens   []token.Token
	pos      int
	file     string
	source   string
	errors   []*diagnostics.DiagnosticError
	noStruct bool // true while parsing if/for conditions, where `{` opens a block
}

// New constructs a Parser over the given token buffer.
func New(tokens []token.Token, file, source string) *Parser {
	return &Parser{tokens: tokens, file: file, source: source}
}

// Parse lexes and parses a whole source string in one call.
func Parse(source, file string) (*ast.File, []*diagnostics.DiagnosticError) {
	toks := lexer.Tokenize(source)
	p := New(toks, file, source)
	f := p.ParseFile()
	return f, p.errors
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

// skipNewlines consumes any run of NEWLINE tokens; statements are
// newline-terminated but blank lines and trailing newlines are noise.
func (p *Parser) skipNewlines() {
	for p.cur().Type == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) at(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) accept(t token.Type) (token.Token, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(t token.Type) token.Token {
	if p.at(t) {
		return p.advance()
	}
	tok := p.cur()
	p.errorf(tok, "expected %s, found %s %q", t, tok.Type, tok.Lexeme)
	return tok
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d := diagnostics.NewError(diagnostics.ErrInternal, tok, msg)
	d.File = p.file
	p.errors = append(p.errors, d)
}

func (p *Parser) errAt(tok token.Token, code diagnostics.Code, msg string) {
	d := diagnostics.NewError(code, tok, msg)
	d.File = p.file
	p.errors = append(p.errors, d)
}

// parseDottedPath parses `ident(.ident)*` and returns the segments.
func (p *Parser) parseDottedPath() ([]string, token.Token) {
	first := p.expect(token.IDENT)
	path := []string{first.Lexeme}
	for p.at(token.DOT) {
		p.advance()
		seg := p.expect(token.IDENT)
		path = append(path, seg.Lexeme)
	}
	return path, first
}
