package parser

import (
	"strconv"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/token"
)

// parseAttributes parses a run of `#[name(arg)]` annotations preceding an
// item.
func (p *Parser) parseAttributes() []ast.Attribute {
	var attrs []ast.Attribute
	for p.at(token.ATTR) {
		tok := p.advance()
		p.expect(token.LBRACKET)
		name := p.expect(token.IDENT)
		arg := ""
		if p.at(token.LPAREN) {
			p.advance()
			if (p.at(token.IDENT) || p.at(token.INT)) && p.peekAt(1).Type == token.RPAREN {
				arg = p.advance().Lexeme
			} else {
				// Raw token text for complex attribute args like requires/ensures
				// expressions; the text is kept as-is and the checker does not parse it.
				depth := 1
				for depth > 0 && !p.at(token.EOF) {
					if p.at(token.LPAREN) {
						depth++
					} else if p.at(token.RPAREN) {
						depth--
						if depth == 0 {
							break
						}
					}
					arg += p.advance().Lexeme
				}
			}
			p.expect(token.RPAREN)
		}
		p.expect(token.RBRACKET)
		p.skipNewlines()
		attrs = append(attrs, ast.Attribute{Name: name.Lexeme, Arg: arg, Span: ast.SpanOf(tok)})
	}
	return attrs
}

func attrValue(attrs []ast.Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Arg, true
		}
	}
	return "", false
}

func hasAttr(attrs []ast.Attribute, name string) bool {
	_, ok := attrValue(attrs, name)
	return ok
}

// parseItem dispatches on the next keyword to parse one top-level item.
func (p *Parser) parseItem(attrs []ast.Attribute) ast.Item {
	isPub := false
	if p.at(token.PUB) {
		isPub = true
		p.advance()
	}

	cfg, _ := attrValue(attrs, "cfg")

	switch p.cur().Type {
	case token.CONST:
		return p.parseConst(isPub, cfg)
	case token.STRUCT:
		return p.parseStruct(isPub, cfg)
	case token.EVENT:
		return p.parseEvent(cfg)
	case token.FN:
		return p.parseFn(isPub, attrs, cfg)
	default:
		p.errorf(p.cur(), "expected an item (const/struct/event/fn), found %s", p.cur().Type)
		p.advance()
		return nil
	}
}

func (p *Parser) parseConst(isPub bool, cfg string) *ast.Const {
	tok := p.expect(token.CONST)
	name := p.expect(token.IDENT)
	var ty ast.Type
	if p.at(token.COLON) {
		p.advance()
		ty = p.parseType()
	}
	if p.at(token.BIND) {
		p.advance()
	} else {
		p.expect(token.ASSIGN)
	}
	valTok := p.expect(token.INT)
	val, _ := strconv.ParseUint(valTok.Literal, 10, 64)
	return &ast.Const{IsPub: isPub, Name: name.Lexeme, Ty: ty, Value: val, CfgV: cfg, SpanV: ast.SpanOf(tok)}
}

func (p *Parser) parseStruct(isPub bool, cfg string) *ast.Struct {
	tok := p.expect(token.STRUCT)
	name := p.expect(token.IDENT)
	p.expect(token.LBRACE)
	p.skipNewlines()
	s := &ast.Struct{IsPub: isPub, Name: name.Lexeme, CfgV: cfg, SpanV: ast.SpanOf(tok)}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		fpub := false
		if p.at(token.PUB) {
			fpub = true
			p.advance()
		}
		fname := p.expect(token.IDENT)
		p.expect(token.COLON)
		fty := p.parseType()
		s.Fields = append(s.Fields, ast.StructField{Name: fname.Lexeme, Ty: fty, IsPub: fpub})
		if p.at(token.COMMA) {
			p.advance()
		}
		p.skipNewlines()
	}
	p.expect(token.RBRACE)
	return s
}

func (p *Parser) parseEvent(cfg string) *ast.Event {
	tok := p.expect(token.EVENT)
	name := p.expect(token.IDENT)
	p.expect(token.LBRACE)
	p.skipNewlines()
	e := &ast.Event{Name: name.Lexeme, CfgV: cfg, SpanV: ast.SpanOf(tok)}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		fname := p.expect(token.IDENT)
		p.expect(token.COLON)
		fty := p.parseType()
		e.Fields = append(e.Fields, ast.StructField{Name: fname.Lexeme, Ty: fty})
		if p.at(token.COMMA) {
			p.advance()
		}
		p.skipNewlines()
	}
	p.expect(token.RBRACE)
	return e
}

func (p *Parser) parseFn(isPub bool, attrs []ast.Attribute, cfg string) *ast.Fn {
	tok := p.expect(token.FN)
	name := p.expect(token.IDENT)

	fn := &ast.Fn{
		IsPub:  isPub,
		IsTest: hasAttr(attrs, "test"),
		IsPure: hasAttr(attrs, "pure"),
		CfgV:   cfg,
		Name:   name.Lexeme,
		Tok:    tok,
		SpanV:  ast.SpanOf(tok),
	}
	if intr, ok := attrValue(attrs, "intrinsic"); ok {
		fn.Intrinsic = intr
	}
	for _, a := range attrs {
		switch a.Name {
		case "requires":
			fn.Requires = append(fn.Requires, ast.Contract{Raw: a.Arg})
		case "ensures":
			fn.Ensures = append(fn.Ensures, ast.Contract{Raw: a.Arg})
		}
	}

	// Generic size parameters: fn sum<N>(...)
	if p.at(token.LT) {
		p.advance()
		for !p.at(token.GT) && !p.at(token.EOF) {
			pTok := p.expect(token.IDENT)
			fn.TypeParams = append(fn.TypeParams, pTok.Lexeme)
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.GT)
	}

	p.expect(token.LPAREN)
	for !p.at(token.RPAREN) {
		pname := p.expect(token.IDENT)
		p.expect(token.COLON)
		pty := p.parseType()
		fn.Params = append(fn.Params, ast.Param{Name: pname.Lexeme, Ty: pty})
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RPAREN)

	if p.at(token.ARROW) {
		p.advance()
		fn.ReturnTy = p.parseType()
	}

	if fn.Intrinsic != "" {
		return fn
	}

	fn.Body = p.parseBlock()
	return fn
}
