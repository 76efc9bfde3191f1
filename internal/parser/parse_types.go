package parser

import (
	"strconv"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/token"
)

// parseType parses a single type expression.
func (p *Parser) parseType() ast.Type {
	tok := p.cur()
	switch tok.Type {
	case token.TY_FIELD:
		p.advance()
		return &ast.FieldType{SpanV: ast.SpanOf(tok)}
	case token.TY_XFIELD:
		p.advance()
		return &ast.XFieldType{SpanV: ast.SpanOf(tok)}
	case token.TY_BOOL:
		p.advance()
		return &ast.BoolType{SpanV: ast.SpanOf(tok)}
	case token.TY_U32:
		p.advance()
		return &ast.U32Type{SpanV: ast.SpanOf(tok)}
	case token.TY_DIGEST:
		p.advance()
		return &ast.DigestType{SpanV: ast.SpanOf(tok)}
	case token.LBRACKET:
		p.advance()
		elem := p.parseType()
		p.expect(token.SEMI)
		size := p.parseSize()
		p.expect(token.RBRACKET)
		return &ast.ArrayType{Elem: elem, Size: size, SpanV: ast.SpanOf(tok)}
	case token.LPAREN:
		p.advance()
		var elems []ast.Type
		for !p.at(token.RPAREN) {
			elems = append(elems, p.parseType())
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RPAREN)
		return &ast.TupleType{Elems: elems, SpanV: ast.SpanOf(tok)}
	case token.IDENT:
		path, _ := p.parseDottedPath()
		return &ast.NamedType{Path: path, SpanV: ast.SpanOf(tok)}
	default:
		p.errorf(tok, "expected a type, found %s", tok.Type)
		p.advance()
		return &ast.FieldType{SpanV: ast.SpanOf(tok)}
	}
}

// parseSize parses an array/width size: either a u64 literal or a generic
// parameter name.
func (p *Parser) parseSize() ast.Size {
	if p.at(token.INT) {
		tok := p.advance()
		n, _ := strconv.ParseUint(tok.Literal, 10, 64)
		return ast.LitSize(n)
	}
	tok := p.expect(token.IDENT)
	return ast.ParamSize(tok.Lexeme)
}
