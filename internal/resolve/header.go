// Package resolve discovers the transitive set of modules reachable from an
// entry file and orders them topologically, the way funvibe-funxy's
// internal/modules.Loader walks directory-based packages — generalized here
// to Trident's dotted-name-to-single-file mapping and explicit stdlib root.
package resolve

import (
	"github.com/mastercyb/trident/internal/token"
)

// usedModule is one `use a.b.c` clause extracted by the header pre-scan.
type usedModule struct {
	Segments []string
	Tok      token.Token
}

// header is the result of a header-only pre-scan: just enough to discover a
// file's declared name and its dependencies, without a full parse.
type header struct {
	Kind FileKindOrNone
	Name string
	Uses []usedModule
}

// FileKindOrNone mirrors ast.FileKind but tolerates a missing header.
type FileKindOrNone int

const (
	KindNone FileKindOrNone = iota
	KindModule
	KindProgram
)

// scanHeader walks a token stream linearly, extracting the program/module
// declaration and the run of `use` clauses that must precede the first item
// keyword. It never builds an AST; this is the "header-only pre-scan" of
// spec.md §4.1, kept deliberately separate from the real parser so module
// discovery never pays for a full parse of files that may not even be
// reachable from the entry point.
func scanHeader(toks []token.Token) header {
	var h header
	i := 0
	skipNL := func() {
		for i < len(toks) && toks[i].Type == token.NEWLINE {
			i++
		}
	}
	dotted := func() ([]string, token.Token) {
		if i >= len(toks) || toks[i].Type != token.IDENT {
			return nil, token.Token{}
		}
		first := toks[i]
		segs := []string{first.Lexeme}
		i++
		for i < len(toks) && toks[i].Type == token.DOT {
			i++
			if i >= len(toks) || toks[i].Type != token.IDENT {
				break
			}
			segs = append(segs, toks[i].Lexeme)
			i++
		}
		return segs, first
	}

	skipNL()
	if i < len(toks) {
		switch toks[i].Type {
		case token.PROGRAM:
			i++
			segs, _ := dotted()
			h.Kind = KindProgram
			h.Name = joinDotted(segs)
		case token.MODULE:
			i++
			segs, _ := dotted()
			h.Kind = KindModule
			h.Name = joinDotted(segs)
		}
	}
	skipNL()

	for i < len(toks) && toks[i].Type == token.USE {
		i++
		segs, tok := dotted()
		if segs != nil {
			h.Uses = append(h.Uses, usedModule{Segments: segs, Tok: tok})
		}
		skipNL()
	}

	return h
}

func joinDotted(segs []string) string {
	s := ""
	for i, seg := range segs {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}
