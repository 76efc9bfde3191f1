package parser

import (
	"strconv"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/token"
)

// binPrec gives each binary operator's precedence; a higher number binds
// tighter. Comparisons are lowest, multiplicative forms highest.
var binPrec = map[token.Type]int{
	token.EQ:     1,
	token.LT:     1,
	token.AMP:    2,
	token.CARET:  2,
	token.PLUS:   3,
	token.STAR:   4,
	token.XMUL:   4,
	token.DIVMOD: 4,
}

var binKind = map[token.Type]ast.BinOpKind{
	token.EQ:     ast.OpEq,
	token.LT:     ast.OpLt,
	token.AMP:    ast.OpBitAnd,
	token.CARET:  ast.OpBitXor,
	token.PLUS:   ast.OpAdd,
	token.STAR:   ast.OpMul,
	token.XMUL:   ast.OpXMul,
	token.DIVMOD: ast.OpDivMod,
}

// parseExpr parses a full expression using precedence climbing.
func (p *Parser) parseExpr() ast.Expression {
	return p.parseBinExpr(0)
}

func (p *Parser) parseBinExpr(minPrec int) ast.Expression {
	lhs := p.parsePostfix()
	for {
		prec, ok := binPrec[p.cur().Type]
		if !ok || prec < minPrec {
			return lhs
		}
		opTok := p.advance()
		rhs := p.parseBinExpr(prec + 1)
		lhs = &ast.BinOp{Op: binKind[opTok.Type], Lhs: lhs, Rhs: rhs, SpanV: ast.SpanOf(opTok)}
	}
}

// parsePostfix parses a primary expression followed by any run of `.field`
// and `[index]` suffixes.
func (p *Parser) parsePostfix() ast.Expression {
	e := p.parsePrimary()
	for {
		switch p.cur().Type {
		case token.DOT:
			p.advance()
			f := p.expect(token.IDENT)
			e = &ast.FieldAccess{Base: e, Field: f.Lexeme, SpanV: ast.SpanOf(f)}
		case token.LBRACKET:
			p.advance()
			idx := p.parseExpr()
			closeTok := p.expect(token.RBRACKET)
			e = &ast.Index{Base: e, Idx: idx, SpanV: ast.SpanOf(closeTok)}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Type {
	case token.INT:
		p.advance()
		n, _ := strconv.ParseUint(tok.Literal, 10, 64)
		return &ast.IntLiteral{Value: n, Tok: tok, SpanV: ast.SpanOf(tok)}
	case token.TRUE:
		p.advance()
		return &ast.BoolLiteral{Value: true, Tok: tok, SpanV: ast.SpanOf(tok)}
	case token.FALSE:
		p.advance()
		return &ast.BoolLiteral{Value: false, Tok: tok, SpanV: ast.SpanOf(tok)}
	case token.LBRACKET:
		p.advance()
		var elems []ast.Expression
		for !p.at(token.RBRACKET) {
			elems = append(elems, p.parseExpr())
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RBRACKET)
		return &ast.ArrayInit{Elems: elems, SpanV: ast.SpanOf(tok)}
	case token.LPAREN:
		p.advance()
		if p.at(token.RPAREN) {
			p.advance()
			return &ast.TupleExpr{SpanV: ast.SpanOf(tok)}
		}
		first := p.parseExpr()
		if !p.at(token.COMMA) {
			p.expect(token.RPAREN)
			return first
		}
		elems := []ast.Expression{first}
		for p.at(token.COMMA) {
			p.advance()
			if p.at(token.RPAREN) {
				break
			}
			elems = append(elems, p.parseExpr())
		}
		p.expect(token.RPAREN)
		return &ast.TupleExpr{Elems: elems, SpanV: ast.SpanOf(tok)}
	case token.IDENT:
		return p.parseIdentExpr()
	default:
		p.errorf(tok, "expected an expression, found %s", tok.Type)
		p.advance()
		return &ast.IntLiteral{Value: 0, Tok: tok, SpanV: ast.SpanOf(tok)}
	}
}

// parseIdentExpr parses a dotted name and, depending on what follows,
// resolves it into a Var, a Call (optionally with explicit generic size
// arguments), or a StructInit literal.
func (p *Parser) parseIdentExpr() ast.Expression {
	path, tok := p.parseDottedPath()

	var generics []ast.Size
	if p.at(token.LT) && p.looksLikeGenericCall() {
		p.advance()
		for !p.at(token.GT) && !p.at(token.EOF) {
			generics = append(generics, p.parseSize())
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.GT)
	}

	if p.at(token.LPAREN) {
		p.advance()
		var args []ast.Expression
		for !p.at(token.RPAREN) {
			args = append(args, p.parseExpr())
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RPAREN)
		return &ast.Call{Path: path, GenericArgs: generics, Args: args, Tok: tok, SpanV: ast.SpanOf(tok)}
	}

	if !p.noStruct && p.at(token.LBRACE) {
		p.advance()
		p.skipNewlines()
		var fields []ast.StructInitField
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			fname := p.expect(token.IDENT)
			p.expect(token.COLON)
			fval := p.parseExpr()
			fields = append(fields, ast.StructInitField{Name: fname.Lexeme, Value: fval})
			if p.at(token.COMMA) {
				p.advance()
			}
			p.skipNewlines()
		}
		p.expect(token.RBRACE)
		return &ast.StructInit{Path: path, Fields: fields, SpanV: ast.SpanOf(tok)}
	}

	return &ast.Var{Path: path, Tok: tok, SpanV: ast.SpanOf(tok)}
}

// looksLikeGenericCall disambiguates `f<3>(...)` from a `<` comparison by
// scanning ahead for a matching `>` directly followed by `(`, without
// consuming any tokens.
func (p *Parser) looksLikeGenericCall() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case token.LT:
			depth++
		case token.GT:
			depth--
			if depth == 0 {
				return i+1 < len(p.tokens) && p.tokens[i+1].Type == token.LPAREN
			}
		case token.IDENT, token.INT, token.COMMA:
			// part of a size-argument list, keep scanning
		case token.NEWLINE:
			// generic argument lists never span lines
			return false
		default:
			return false
		}
	}
	return false
}
