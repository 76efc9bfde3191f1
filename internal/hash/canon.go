package hash

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/mastercyb/trident/internal/ast"
)

// canonVersion is the 1-byte format prefix; bump on any serialization
// change so old and new canonical forms can never collide.
const canonVersion = 0x01

// Tag bytes, one per AST construct (spec.md §4.5). Spec annotations,
// comments, and formatting have no tags: they are not serialized.
const (
	tagFn       = 0x10
	tagParam    = 0x11
	tagLet      = 0x20
	tagAssign   = 0x21
	tagTupAsgn  = 0x22
	tagIf       = 0x23
	tagFor      = 0x24
	tagExpr     = 0x25
	tagReturn   = 0x26
	tagReveal   = 0x27
	tagSeal     = 0x28
	tagAsm      = 0x29
	tagMatch    = 0x2A
	tagMatchArm = 0x2B

	tagIntLit   = 0x40
	tagBoolLit  = 0x41
	tagVar      = 0x42
	tagBinOp    = 0x43 // + op kind byte
	tagCall     = 0x44
	tagField    = 0x45
	tagIndex    = 0x46
	tagStruct   = 0x47
	tagArray    = 0x48
	tagTuple    = 0x49
	tagConstRef = 0x4A // a free name known to be a module constant

	tagTyField  = 0x60
	tagTyXField = 0x61
	tagTyBool   = 0x62
	tagTyU32    = 0x63
	tagTyDigest = 0x64
	tagTyArray  = 0x65
	tagTyTuple  = 0x66
	tagTyNamed  = 0x67
	tagTyNone   = 0x68 // unit return

	tagSizeLit   = 0x70
	tagSizeParam = 0x71
)

// freeVarDepth is the sentinel de-Bruijn depth marking a name not bound in
// the current environment; the name bytes follow.
const freeVarDepth = 0xFFFF

// canonicalizer serializes one function into its name-independent byte
// form: bound names become de-Bruijn indices, callee names become their
// own content hashes, and struct-init fields are sorted.
type canonicalizer struct {
	buf    bytes.Buffer
	env    []string // de-Bruijn stack, innermost binding last
	deps   map[string]ContentHash
	consts map[string]bool
}

func newCanonicalizer(deps map[string]ContentHash, consts map[string]bool) *canonicalizer {
	return &canonicalizer{deps: deps, consts: consts}
}

func (c *canonicalizer) byte(b byte)      { c.buf.WriteByte(b) }
func (c *canonicalizer) u16(v uint16)     { _ = binary.Write(&c.buf, binary.LittleEndian, v) }
func (c *canonicalizer) u64(v uint64)     { _ = binary.Write(&c.buf, binary.LittleEndian, v) }
func (c *canonicalizer) str(s string) {
	c.u16(uint16(len(s)))
	c.buf.WriteString(s)
}

func (c *canonicalizer) push(name string) { c.env = append(c.env, name) }
func (c *canonicalizer) popTo(depth int)  { c.env = c.env[:depth] }

// lookup returns the de-Bruijn index of name (0 = innermost binding).
func (c *canonicalizer) lookup(name string) (uint16, bool) {
	for i := len(c.env) - 1; i >= 0; i-- {
		if c.env[i] == name {
			return uint16(len(c.env) - 1 - i), true
		}
	}
	return 0, false
}

// fn serializes a whole function: version prefix, parameter types, body.
// #[requires]/#[ensures] contracts are deliberately absent (spec.md §4.5
// property: adding or removing them leaves the hash unchanged).
func (c *canonicalizer) fn(fn *ast.Fn) []byte {
	c.byte(canonVersion)
	c.byte(tagFn)
	c.byte(byte(len(fn.TypeParams)))
	for _, tp := range fn.TypeParams {
		// Size parameters are positional in the canonical form; record
		// only that one exists, not what it was called.
		_ = tp
		c.byte(tagSizeParam)
	}

	mark := len(c.env)
	c.byte(byte(len(fn.Params)))
	for _, p := range fn.Params {
		c.byte(tagParam)
		c.typ(p.Ty, fn.TypeParams)
		c.push(p.Name)
	}
	if fn.ReturnTy != nil {
		c.typ(fn.ReturnTy, fn.TypeParams)
	} else {
		c.byte(tagTyNone)
	}

	c.block(fn.Body, fn.TypeParams)
	c.popTo(mark)
	return c.buf.Bytes()
}

func (c *canonicalizer) block(stmts []ast.Statement, typeParams []string) {
	mark := len(c.env)
	c.u16(uint16(len(stmts)))
	for _, s := range stmts {
		c.stmt(s, typeParams)
	}
	c.popTo(mark)
}

func (c *canonicalizer) stmt(s ast.Statement, typeParams []string) {
	switch v := s.(type) {
	case *ast.Let:
		c.byte(tagLet)
		c.expr(v.Init)
		switch pat := v.Pattern.(type) {
		case *ast.NamePattern:
			c.byte(1)
			c.push(pat.Name)
		case *ast.TuplePattern:
			c.byte(byte(len(pat.Names)))
			for _, n := range pat.Names {
				c.push(n)
			}
		}
	case *ast.Assign:
		c.byte(tagAssign)
		c.place(v.Place)
		c.expr(v.Value)
	case *ast.TupleAssign:
		c.byte(tagTupAsgn)
		c.byte(byte(len(v.Names)))
		for _, n := range v.Names {
			c.varRef(n)
		}
		c.expr(v.Value)
	case *ast.If:
		c.byte(tagIf)
		c.expr(v.Cond)
		c.block(v.Then, typeParams)
		c.block(v.Else, typeParams)
	case *ast.For:
		c.byte(tagFor)
		c.expr(v.Start)
		c.expr(v.End)
		if v.Bound != nil {
			c.byte(1)
			c.u64(*v.Bound)
		} else {
			c.byte(0)
		}
		mark := len(c.env)
		c.push(v.Var)
		c.block(v.Body, typeParams)
		c.popTo(mark)
	case *ast.ExprStmt:
		c.byte(tagExpr)
		c.expr(v.Expr)
	case *ast.Return:
		c.byte(tagReturn)
		if v.Value != nil {
			c.byte(1)
			c.expr(v.Value)
		} else {
			c.byte(0)
		}
	case *ast.Reveal:
		c.byte(tagReveal)
		c.eventFields(v.Event, v.Fields)
	case *ast.Seal:
		c.byte(tagSeal)
		c.eventFields(v.Event, v.Fields)
	case *ast.Asm:
		c.byte(tagAsm)
		c.u16(uint16(len(v.Body)))
		for _, line := range v.Body {
			c.str(line)
		}
		c.u64(uint64(int64(v.StackEffect)))
		c.str(v.Target)
	case *ast.Match:
		c.byte(tagMatch)
		c.expr(v.Scrutinee)
		c.byte(byte(len(v.Arms)))
		for _, arm := range v.Arms {
			c.byte(tagMatchArm)
			if arm.Wildcard {
				c.byte(1)
			} else {
				c.byte(0)
				c.u64(arm.Lit)
			}
			c.block(arm.Body, typeParams)
		}
	}
}

func (c *canonicalizer) eventFields(event string, fields []ast.StructInitField) {
	c.str(event)
	sorted := make([]ast.StructInitField, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	c.byte(byte(len(sorted)))
	for _, f := range sorted {
		c.str(f.Name)
		c.expr(f.Value)
	}
}

func (c *canonicalizer) place(p ast.Place) {
	switch v := p.(type) {
	case *ast.VarPlace:
		c.varRef(v.Name)
	case *ast.FieldPlace:
		c.byte(tagField)
		c.place(v.Base)
		c.str(v.Field)
	case *ast.IndexPlace:
		c.byte(tagIndex)
		c.place(v.Base)
		c.expr(v.Idx)
	}
}

// varRef serializes a reference to name: a de-Bruijn index if bound, a
// distinct constant-reference tag if the free name matches a known module
// constant, and the free-variable fallback otherwise.
func (c *canonicalizer) varRef(name string) {
	if depth, ok := c.lookup(name); ok {
		c.byte(tagVar)
		c.u16(depth)
		return
	}
	if c.consts[name] {
		c.byte(tagConstRef)
		c.str(name)
		return
	}
	c.byte(tagVar)
	c.u16(freeVarDepth)
	c.str(name)
}

func (c *canonicalizer) expr(e ast.Expression) {
	switch v := e.(type) {
	case *ast.IntLiteral:
		c.byte(tagIntLit)
		c.u64(v.Value)
	case *ast.BoolLiteral:
		c.byte(tagBoolLit)
		if v.Value {
			c.byte(1)
		} else {
			c.byte(0)
		}
	case *ast.Var:
		if v.IsDotted() {
			// A dotted name is module-level: constant reference or a field
			// chain on a bound root.
			if _, ok := c.lookup(v.Path[0]); ok {
				c.varRef(v.Path[0])
				for _, seg := range v.Path[1:] {
					c.byte(tagField)
					c.str(seg)
				}
				return
			}
			c.byte(tagConstRef)
			c.str(ast.ModulePath{Segments: v.Path}.String())
			return
		}
		c.varRef(v.Name())
	case *ast.BinOp:
		c.byte(tagBinOp)
		c.byte(byte(v.Op))
		c.expr(v.Lhs)
		c.expr(v.Rhs)
	case *ast.Call:
		c.call(v)
	case *ast.FieldAccess:
		c.byte(tagField)
		c.expr(v.Base)
		c.str(v.Field)
	case *ast.Index:
		c.byte(tagIndex)
		c.expr(v.Base)
		c.expr(v.Idx)
	case *ast.StructInit:
		c.byte(tagStruct)
		c.str(v.Name())
		sorted := make([]ast.StructInitField, len(v.Fields))
		copy(sorted, v.Fields)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		c.byte(byte(len(sorted)))
		for _, f := range sorted {
			c.str(f.Name)
			c.expr(f.Value)
		}
	case *ast.ArrayInit:
		c.byte(tagArray)
		c.u16(uint16(len(v.Elems)))
		for _, el := range v.Elems {
			c.expr(el)
		}
	case *ast.TupleExpr:
		c.byte(tagTuple)
		c.byte(byte(len(v.Elems)))
		for _, el := range v.Elems {
			c.expr(el)
		}
	}
}

// call serializes a call site: the callee by content hash when known
// (spec.md §4.5 step 3), the zero hash plus name otherwise, then any
// generic size arguments inline, then the arguments.
func (c *canonicalizer) call(v *ast.Call) {
	c.byte(tagCall)
	name := ast.ModulePath{Segments: v.Path}.String()
	if h, ok := c.deps[name]; ok {
		c.buf.Write(h[:])
	} else if h, ok := c.deps[v.Name()]; ok {
		c.buf.Write(h[:])
	} else {
		c.buf.Write(ZeroHash[:])
		c.str(name)
	}
	c.byte(byte(len(v.GenericArgs)))
	for _, sz := range v.GenericArgs {
		c.size(sz)
	}
	c.byte(byte(len(v.Args)))
	for _, a := range v.Args {
		c.expr(a)
	}
}

func (c *canonicalizer) size(sz ast.Size) {
	if sz.IsParam {
		c.byte(tagSizeParam)
		c.str(sz.Param)
	} else {
		c.byte(tagSizeLit)
		c.u64(sz.Lit)
	}
}

// typ serializes a syntactic type. Size parameters serialize positionally
// against the function's own parameter list so renaming `N` to `M` leaves
// the canonical form unchanged.
func (c *canonicalizer) typ(t ast.Type, typeParams []string) {
	switch v := t.(type) {
	case *ast.FieldType:
		c.byte(tagTyField)
	case *ast.XFieldType:
		c.byte(tagTyXField)
	case *ast.BoolType:
		c.byte(tagTyBool)
	case *ast.U32Type:
		c.byte(tagTyU32)
	case *ast.DigestType:
		c.byte(tagTyDigest)
	case *ast.ArrayType:
		c.byte(tagTyArray)
		c.typ(v.Elem, typeParams)
		if v.Size.IsParam {
			c.byte(tagSizeParam)
			idx := byte(0xFF)
			for i, tp := range typeParams {
				if tp == v.Size.Param {
					idx = byte(i)
					break
				}
			}
			c.byte(idx)
		} else {
			c.byte(tagSizeLit)
			c.u64(v.Size.Lit)
		}
	case *ast.TupleType:
		c.byte(tagTyTuple)
		c.byte(byte(len(v.Elems)))
		for _, el := range v.Elems {
			c.typ(el, typeParams)
		}
	case *ast.NamedType:
		c.byte(tagTyNamed)
		c.str(v.Name())
	default:
		c.byte(tagTyNone)
	}
}
