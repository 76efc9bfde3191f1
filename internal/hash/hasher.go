package hash

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/mastercyb/trident/internal/ast"
)

// HashFunction canonicalizes one function and hashes the result. deps maps
// callee names (short or dotted) to their already-computed hashes; a
// missing callee serializes as the zero hash plus its name. consts names
// the module constants in scope, so a constant reference and a genuinely
// free name never hash identically.
func HashFunction(fn *ast.Fn, deps map[string]ContentHash, consts map[string]bool) ContentHash {
	c := newCanonicalizer(deps, consts)
	return sumBytes(c.fn(fn))
}

// HashFile hashes every function in a file, two-pass (spec.md §4.5): the
// first pass hashes each function with unknown callees; the second re-hashes
// with the first pass's results filled in. The input call graph is acyclic
// (the checker rejects recursion), so two passes suffice for a fixpoint.
func HashFile(file *ast.File) map[string]ContentHash {
	consts := constNames(file)
	fns := fileFns(file)

	pass1 := make(map[string]ContentHash, len(fns))
	for _, fn := range fns {
		pass1[fn.Name] = HashFunction(fn, nil, consts)
	}

	pass2 := make(map[string]ContentHash, len(fns))
	for _, fn := range fns {
		pass2[fn.Name] = HashFunction(fn, pass1, consts)
	}
	return pass2
}

// HashFileContent computes the file-level hash: the version byte, the file
// name, then every (function name, function hash) pair in sorted order.
func HashFileContent(file *ast.File) ContentHash {
	fnHashes := HashFile(file)

	names := make([]string, 0, len(fnHashes))
	for name := range fnHashes {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte(canonVersion)
	writeStr(&buf, file.Name)
	for _, name := range names {
		writeStr(&buf, name)
		h := fnHashes[name]
		buf.Write(h[:])
	}
	return sumBytes(buf.Bytes())
}

// Dependencies returns the content hashes, looked up by short name in
// known, of every function a body calls, deduplicated in first-call order —
// the dependency list the definition store records per definition. Callees
// missing from known are left out.
func Dependencies(fn *ast.Fn, known map[string]ContentHash) []ContentHash {
	seen := make(map[string]bool)
	var out []ContentHash
	var walkExpr func(e ast.Expression)
	var walkBlock func(stmts []ast.Statement)

	walkExpr = func(e ast.Expression) {
		switch v := e.(type) {
		case *ast.BinOp:
			walkExpr(v.Lhs)
			walkExpr(v.Rhs)
		case *ast.Call:
			name := v.Name()
			if h, ok := known[name]; ok && !seen[name] {
				seen[name] = true
				out = append(out, h)
			}
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.FieldAccess:
			walkExpr(v.Base)
		case *ast.Index:
			walkExpr(v.Base)
			walkExpr(v.Idx)
		case *ast.StructInit:
			for _, f := range v.Fields {
				walkExpr(f.Value)
			}
		case *ast.ArrayInit:
			for _, el := range v.Elems {
				walkExpr(el)
			}
		case *ast.TupleExpr:
			for _, el := range v.Elems {
				walkExpr(el)
			}
		}
	}
	walkBlock = func(stmts []ast.Statement) {
		for _, s := range stmts {
			switch v := s.(type) {
			case *ast.Let:
				walkExpr(v.Init)
			case *ast.Assign:
				walkExpr(v.Value)
			case *ast.TupleAssign:
				walkExpr(v.Value)
			case *ast.If:
				walkExpr(v.Cond)
				walkBlock(v.Then)
				walkBlock(v.Else)
			case *ast.For:
				walkExpr(v.Start)
				walkExpr(v.End)
				walkBlock(v.Body)
			case *ast.ExprStmt:
				walkExpr(v.Expr)
			case *ast.Return:
				if v.Value != nil {
					walkExpr(v.Value)
				}
			case *ast.Reveal:
				for _, f := range v.Fields {
					walkExpr(f.Value)
				}
			case *ast.Seal:
				for _, f := range v.Fields {
					walkExpr(f.Value)
				}
			case *ast.Match:
				walkExpr(v.Scrutinee)
				for _, arm := range v.Arms {
					walkBlock(arm.Body)
				}
			}
		}
	}

	walkBlock(fn.Body)
	return out
}

func fileFns(file *ast.File) []*ast.Fn {
	var out []*ast.Fn
	for _, item := range file.Items {
		if fn, ok := item.(*ast.Fn); ok && fn.HasBody() {
			out = append(out, fn)
		}
	}
	return out
}

func constNames(file *ast.File) map[string]bool {
	out := make(map[string]bool)
	for _, item := range file.Items {
		if c, ok := item.(*ast.Const); ok {
			out[c.Name] = true
		}
	}
	return out
}

func writeStr(buf *bytes.Buffer, s string) {
	var lenb [2]byte
	binary.LittleEndian.PutUint16(lenb[:], uint16(len(s)))
	buf.Write(lenb[:])
	buf.WriteString(s)
}
