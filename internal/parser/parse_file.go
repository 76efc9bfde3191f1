package parser

import (
	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/token"
)

// ParseFile parses a complete source file: the program/module header, use
// statements, I/O and RAM declarations, then the item list.
func (p *Parser) ParseFile() *ast.File {
	p.skipNewlines()
	f := &ast.File{Source: p.source, Path: p.file}

	switch p.cur().Type {
	case token.PROGRAM:
		p.advance()
		path, tok := p.parseDottedPath()
		f.Kind = ast.KindProgram
		f.Name = joinPath(path)
		f.SpanV = ast.SpanOf(tok)
	case token.MODULE:
		p.advance()
		path, tok := p.parseDottedPath()
		f.Kind = ast.KindModule
		f.Name = joinPath(path)
		f.SpanV = ast.SpanOf(tok)
	default:
		p.errorf(p.cur(), "file must begin with 'program' or 'module'")
	}
	p.skipNewlines()

	for p.at(token.USE) {
		p.advance()
		path, tok := p.parseDottedPath()
		f.Uses = append(f.Uses, ast.ModulePath{Segments: path, Span: ast.SpanOf(tok)})
		p.skipNewlines()
	}

	for (p.at(token.PUB) || p.at(token.SEC)) && p.ioDeclAhead() {
		p.parseIODecl(f)
		p.skipNewlines()
	}

	for !p.at(token.EOF) {
		attrs := p.parseAttributes()
		if p.at(token.EOF) {
			break
		}
		item := p.parseItem(attrs)
		if item != nil {
			f.Items = append(f.Items, item)
		}
		p.skipNewlines()
	}

	return f
}

func joinPath(path []string) string {
	s := ""
	for i, seg := range path {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// ioDeclAhead distinguishes `pub input:`/`sec ram:` declarations from a
// `pub fn`/`pub const` item that happens to open the item list.
func (p *Parser) ioDeclAhead() bool {
	switch p.peekAt(1).Type {
	case token.INPUT, token.OUTPUT, token.RAM:
		return true
	default:
		return false
	}
}

// parseIODecl parses one `pub input: T`, `sec input: T`, `pub output: T`
// line, or a `sec ram: { addr: T, ... }` block, appending it to f.
func (p *Parser) parseIODecl(f *ast.File) {
	pubTok := p.advance() // 'pub' or 'sec'
	isPub := pubTok.Type == token.PUB

	switch p.cur().Type {
	case token.INPUT, token.OUTPUT:
		kindTok := p.advance()
		p.expect(token.COLON)
		ty := p.parseType()
		kind := "input"
		if kindTok.Type == token.OUTPUT {
			kind = "output"
		}
		f.IODecls = append(f.IODecls, &ast.IODecl{Public: isPub, Kind: kind, Ty: ty, SpanV: ast.SpanOf(pubTok)})
	case token.RAM:
		p.advance()
		p.expect(token.COLON)
		p.expect(token.LBRACE)
		p.skipNewlines()
		ram := &ast.RAMDecl{SpanV: ast.SpanOf(pubTok)}
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			nameTok := p.expect(token.IDENT)
			p.expect(token.COLON)
			ty := p.parseType()
			addr := uint64(len(ram.Cells))
			_ = nameTok
			ram.Cells = append(ram.Cells, ast.RAMCell{Addr: addr, Ty: ty})
			if p.at(token.COMMA) {
				p.advance()
			}
			p.skipNewlines()
		}
		p.expect(token.RBRACE)
		f.RAM = ram
	default:
		p.errorf(p.cur(), "expected 'input', 'output', or 'ram' after %s", pubTok.Lexeme)
	}
}
