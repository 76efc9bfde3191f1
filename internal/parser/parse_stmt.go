package parser

import (
	"strconv"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/token"
)

// parseBlock parses a `{ stmt* }` block.
func (p *Parser) parseBlock() []ast.Statement {
	p.expect(token.LBRACE)
	p.skipNewlines()
	var stmts []ast.Statement
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStatement())
		p.skipNewlines()
	}
	p.expect(token.RBRACE)
	return stmts
}

// parseCond parses an expression in a context where `{` must close the
// condition rather than open a struct literal.
func (p *Parser) parseCond() ast.Expression {
	prev := p.noStruct
	p.noStruct = true
	e := p.parseExpr()
	p.noStruct = prev
	return e
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Type {
	case token.LET:
		return p.parseLet()
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.REVEAL:
		return p.parseReveal()
	case token.SEAL:
		return p.parseSeal()
	case token.ASM:
		return p.parseAsm()
	case token.MATCH:
		return p.parseMatch()
	case token.LPAREN:
		return p.parseTupleAssignOrExpr()
	default:
		return p.parseAssignOrExpr()
	}
}

func (p *Parser) parseLet() *ast.Let {
	tok := p.expect(token.LET)
	mutable := false
	if p.at(token.MUT) {
		mutable = true
		p.advance()
	}
	pattern := p.parsePattern()
	var ty ast.Type
	if p.at(token.COLON) {
		p.advance()
		ty = p.parseType()
	}
	p.expect(token.ASSIGN)
	init := p.parseExpr()
	return &ast.Let{Mutable: mutable, Pattern: pattern, Ty: ty, Init: init, SpanV: ast.SpanOf(tok)}
}

func (p *Parser) parsePattern() ast.Pattern {
	if p.at(token.LPAREN) {
		tok := p.advance()
		var names []string
		for !p.at(token.RPAREN) {
			n := p.expect(token.IDENT)
			names = append(names, n.Lexeme)
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RPAREN)
		return &ast.TuplePattern{Names: names, SpanV: ast.SpanOf(tok)}
	}
	n := p.expect(token.IDENT)
	return &ast.NamePattern{Name: n.Lexeme, SpanV: ast.SpanOf(n)}
}

func (p *Parser) parseIf() *ast.If {
	tok := p.expect(token.IF)
	cond := p.parseCond()
	then := p.parseBlock()
	var elseBody []ast.Statement
	p.skipNewlines()
	if p.at(token.ELSE) {
		p.advance()
		if p.at(token.IF) {
			elseBody = []ast.Statement{p.parseIf()}
		} else {
			elseBody = p.parseBlock()
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: elseBody, SpanV: ast.SpanOf(tok)}
}

func (p *Parser) parseFor() *ast.For {
	tok := p.expect(token.FOR)
	name := p.expect(token.IDENT)
	p.expect(token.IN)
	prev := p.noStruct
	p.noStruct = true
	start := p.parseExpr()
	p.expect(token.DOTDOT)
	end := p.parseExpr()
	var bound *uint64
	if p.at(token.BOUNDED) {
		p.advance()
		n := p.expect(token.INT)
		v, _ := strconv.ParseUint(n.Literal, 10, 64)
		bound = &v
	}
	p.noStruct = prev
	body := p.parseBlock()
	return &ast.For{Var: name.Lexeme, Start: start, End: end, Bound: bound, Body: body, SpanV: ast.SpanOf(tok)}
}

func (p *Parser) parseReturn() *ast.Return {
	tok := p.expect(token.RETURN)
	var val ast.Expression
	if !p.at(token.NEWLINE) && !p.at(token.RBRACE) && !p.at(token.EOF) {
		val = p.parseExpr()
	}
	return &ast.Return{Value: val, SpanV: ast.SpanOf(tok)}
}

func (p *Parser) parseEventFields() (string, []ast.StructInitField) {
	name := p.expect(token.IDENT)
	p.expect(token.LPAREN)
	var fields []ast.StructInitField
	for !p.at(token.RPAREN) {
		fname := p.expect(token.IDENT)
		p.expect(token.COLON)
		fval := p.parseExpr()
		fields = append(fields, ast.StructInitField{Name: fname.Lexeme, Value: fval})
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RPAREN)
	return name.Lexeme, fields
}

func (p *Parser) parseReveal() *ast.Reveal {
	tok := p.expect(token.REVEAL)
	name, fields := p.parseEventFields()
	return &ast.Reveal{Event: name, Fields: fields, SpanV: ast.SpanOf(tok)}
}

func (p *Parser) parseSeal() *ast.Seal {
	tok := p.expect(token.SEAL)
	name, fields := p.parseEventFields()
	return &ast.Seal{Event: name, Fields: fields, SpanV: ast.SpanOf(tok)}
}

// parseAsm parses an inline-assembly escape hatch: `asm [target T] (effect) { ... }`
// where the body is taken as raw lines up to the closing brace.
func (p *Parser) parseAsm() *ast.Asm {
	tok := p.expect(token.ASM)
	target := ""
	if p.at(token.TARGET) {
		p.advance()
		t := p.expect(token.IDENT)
		target = t.Lexeme
	}
	stackEffect := 0
	if p.at(token.LPAREN) {
		p.advance()
		sign := 1
		if p.cur().Lexeme == "-" {
			sign = -1
			p.advance()
		}
		n := p.expect(token.INT)
		v, _ := strconv.ParseUint(n.Literal, 10, 64)
		stackEffect = sign * int(v)
		p.expect(token.RPAREN)
	}
	p.expect(token.LBRACE)
	p.skipNewlines()
	var lines []string
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		line := ""
		for !p.at(token.NEWLINE) && !p.at(token.RBRACE) && !p.at(token.EOF) {
			if line != "" {
				line += " "
			}
			line += p.advance().Lexeme
		}
		if line != "" {
			lines = append(lines, line)
		}
		p.skipNewlines()
	}
	p.expect(token.RBRACE)
	return &ast.Asm{Body: lines, StackEffect: stackEffect, Target: target, SpanV: ast.SpanOf(tok)}
}

func (p *Parser) parseMatch() *ast.Match {
	tok := p.expect(token.MATCH)
	scrut := p.parseCond()
	p.expect(token.LBRACE)
	p.skipNewlines()
	var arms []ast.MatchArm
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		var arm ast.MatchArm
		argTok := p.cur()
		if p.cur().Lexeme == "_" {
			arm.Wildcard = true
			p.advance()
		} else {
			n := p.expect(token.INT)
			v, _ := strconv.ParseUint(n.Literal, 10, 64)
			arm.Lit = v
		}
		arm.SpanV = ast.SpanOf(argTok)
		p.expect(token.FATARROW)
		arm.Body = p.parseBlock()
		arms = append(arms, arm)
		if p.at(token.COMMA) {
			p.advance()
		}
		p.skipNewlines()
	}
	p.expect(token.RBRACE)
	return &ast.Match{Scrutinee: scrut, Arms: arms, SpanV: ast.SpanOf(tok)}
}

// parseTupleAssignOrExpr disambiguates `(a, b) = expr` destructuring
// assignment from a parenthesized expression statement by scanning ahead
// for a matching `)` directly followed by `=`.
func (p *Parser) parseTupleAssignOrExpr() ast.Statement {
	if p.looksLikeTupleAssign() {
		tok := p.advance() // '('
		var names []string
		for !p.at(token.RPAREN) {
			n := p.expect(token.IDENT)
			names = append(names, n.Lexeme)
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RPAREN)
		p.expect(token.ASSIGN)
		val := p.parseExpr()
		return &ast.TupleAssign{Names: names, Value: val, SpanV: ast.SpanOf(tok)}
	}
	return p.parseAssignOrExpr()
}

func (p *Parser) looksLikeTupleAssign() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return i+1 < len(p.tokens) && p.tokens[i+1].Type == token.ASSIGN
			}
		case token.IDENT, token.COMMA:
		default:
			return false
		}
	}
	return false
}

// parseAssignOrExpr parses either `place = value` or a bare expression
// statement, distinguishing the two by whether `=` follows the expression.
func (p *Parser) parseAssignOrExpr() ast.Statement {
	tok := p.cur()
	expr := p.parseExpr()
	if p.at(token.ASSIGN) {
		place := exprToPlace(expr, p)
		p.advance()
		val := p.parseExpr()
		return &ast.Assign{Place: place, Value: val, SpanV: ast.SpanOf(tok)}
	}
	return &ast.ExprStmt{Expr: expr, SpanV: ast.SpanOf(tok)}
}

// exprToPlace converts an already-parsed expression into an assignment
// place; only Var, FieldAccess, and Index expressions are valid places.
func exprToPlace(e ast.Expression, p *Parser) ast.Place {
	switch v := e.(type) {
	case *ast.Var:
		if v.IsDotted() {
			// The parser folds `q.x.y` into one dotted Var; as a place it is
			// a field chain rooted at the first segment.
			var place ast.Place = &ast.VarPlace{Name: v.Path[0], SpanV: v.SpanV}
			for _, seg := range v.Path[1:] {
				place = &ast.FieldPlace{Base: place, Field: seg, SpanV: v.SpanV}
			}
			return place
		}
		return &ast.VarPlace{Name: v.Name(), SpanV: v.SpanV}
	case *ast.FieldAccess:
		return &ast.FieldPlace{Base: exprToPlace(v.Base, p), Field: v.Field, SpanV: v.SpanV}
	case *ast.Index:
		return &ast.IndexPlace{Base: exprToPlace(v.Base, p), Idx: v.Idx, SpanV: v.SpanV}
	default:
		p.errorf(p.cur(), "invalid assignment target")
		return &ast.VarPlace{Name: "", SpanV: e.Pos()}
	}
}
