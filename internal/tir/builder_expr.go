package tir

import (
	"fmt"
	"strings"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/types"
)

// lowerExpr lowers one expression, leaving its value as the top model
// entry. The builder runs on an already-typed AST, so any lookup failure
// here is an internal inconsistency: emit a Comment marker and continue
// (spec.md §4.4 "Failure semantics").
func (b *Builder) lowerExpr(e ast.Expression) {
	switch v := e.(type) {
	case *ast.IntLiteral:
		b.emit(b.stack.EnsureSpace(1)...)
		b.emit(Push{Value: v.Value})
		b.stack.PushTemp(1)
	case *ast.BoolLiteral:
		b.emit(b.stack.EnsureSpace(1)...)
		val := uint64(0)
		if v.Value {
			val = 1
		}
		b.emit(Push{Value: val})
		b.stack.PushTemp(1)
	case *ast.Var:
		b.lowerVar(v)
	case *ast.BinOp:
		b.lowerBinOp(v)
	case *ast.Call:
		b.lowerCall(v)
	case *ast.FieldAccess:
		b.lowerFieldAccess(v)
	case *ast.Index:
		b.lowerIndex(v)
	case *ast.StructInit:
		b.lowerStructInit(v)
	case *ast.ArrayInit:
		b.lowerSequence(v.Elems)
	case *ast.TupleExpr:
		b.lowerSequence(v.Elems)
	default:
		b.emit(Comment{Text: "internal: unknown expression form"})
	}
}

// lowerVar duplicates a stack variable's cells to the top (reloading it
// first if spilled), resolves a dotted name as a module constant, or
// re-dispatches it as a field-access chain (spec.md §4.4).
func (b *Builder) lowerVar(v *ast.Var) {
	if v.IsDotted() {
		if _, onStack := b.varTys[v.Path[0]]; onStack {
			b.lowerFieldChain(v.Path)
			return
		}
		full := ast.ModulePath{Segments: v.Path}.String()
		if cs, ok := b.exports.Constants[full]; ok {
			b.emit(b.stack.EnsureSpace(1)...)
			b.emit(Push{Value: cs.Value})
			b.stack.PushTemp(1)
			return
		}
		if cs, ok := b.exports.Constants[v.Name()]; ok {
			b.emit(b.stack.EnsureSpace(1)...)
			b.emit(Push{Value: cs.Value})
			b.stack.PushTemp(1)
			return
		}
		b.emit(Comment{Text: fmt.Sprintf("internal: unresolved name %q", full)})
		return
	}

	name := v.Name()
	if cs, ok := b.exports.Constants[name]; ok {
		if _, isVar := b.varTys[name]; !isVar {
			b.emit(b.stack.EnsureSpace(1)...)
			b.emit(Push{Value: cs.Value})
			b.stack.PushTemp(1)
			return
		}
	}

	ops, found := b.stack.AccessVar(name)
	if !found {
		b.emit(Comment{Text: fmt.Sprintf("internal: unresolved variable %q", name)})
		return
	}
	b.emit(ops...)

	w, _ := b.stack.VarWidth(name)
	b.emit(b.stack.EnsureSpace(w)...)
	d, _ := b.stack.FindVarDepth(name)
	for i := 0; i < w; i++ {
		b.emit(Dup{Depth: d + w - 1})
	}
	b.stack.PushTemp(w)
}

// lowerFieldChain lowers `base.f.g` rooted at a stack variable by first
// duplicating the root, then narrowing to each field in turn.
func (b *Builder) lowerFieldChain(path []string) {
	b.lowerVar(&ast.Var{Path: path[:1]})
	ty := b.varTys[path[0]]
	for _, seg := range path[1:] {
		s, ok := ty.(types.Struct)
		if !ok {
			b.emit(Comment{Text: fmt.Sprintf("internal: %q is not a struct", seg)})
			return
		}
		offset, fieldTy, found := structFieldOffset(s, seg, b)
		if !found {
			b.emit(Comment{Text: fmt.Sprintf("internal: unknown field %q", seg)})
			return
		}
		b.narrowTop(b.width(s), offset, b.width(fieldTy))
		ty = fieldTy
	}
}

// structFieldOffset returns a field's cell offset from the struct's
// bottom-most cell and its type.
func structFieldOffset(s types.Struct, field string, b *Builder) (int, types.Ty, bool) {
	offset := 0
	for _, f := range s.Fields {
		fw := b.width(f.Ty)
		if f.Name == field {
			return offset, f.Ty, true
		}
		offset += fw
	}
	return 0, nil, false
}

// narrowTop replaces the aggregate on top of the stack (width whole) by
// the w cells at the given offset from its bottom: dup the wanted cells
// to the top, then swap-pop the original aggregate away (spec.md §4.4).
func (b *Builder) narrowTop(whole, offset, w int) {
	b.emit(b.stack.EnsureSpace(w)...)
	top := whole - offset - w // depth of the wanted range's top cell
	for i := 0; i < w; i++ {
		b.emit(Dup{Depth: top + w - 1})
	}
	for i := 0; i < whole; i++ {
		b.emit(Swap{Depth: w}, Pop{N: 1})
	}
	b.stack.DropTop(1)
	b.stack.PushTemp(w)
}

func (b *Builder) lowerBinOp(v *ast.BinOp) {
	b.lowerExpr(v.Lhs)
	b.lowerExpr(v.Rhs)

	resultW := 1
	switch v.Op {
	case ast.OpAdd:
		b.emit(Add{})
		resultW = b.width(b.exprTy(v.Lhs))
	case ast.OpMul:
		b.emit(Mul{})
		resultW = b.width(b.exprTy(v.Lhs))
	case ast.OpEq:
		b.emit(Eq{})
	case ast.OpLt:
		b.emit(Lt{})
	case ast.OpBitAnd:
		b.emit(And{})
	case ast.OpBitXor:
		b.emit(Xor{})
	case ast.OpDivMod:
		b.emit(DivMod{})
		resultW = 2
	case ast.OpXMul:
		b.emit(XFieldMul{})
		resultW = b.tc.XFieldWidth
	}

	b.stack.DropTop(2)
	b.stack.PushTemp(resultW)
}

// lowerCall lowers arguments left to right, then dispatches on intrinsic
// mapping, generic resolution, builtin, or a plain Call (spec.md §4.4).
func (b *Builder) lowerCall(v *ast.Call) {
	for _, a := range v.Args {
		b.lowerExpr(a)
	}
	name := v.Name()

	if instr, ok := b.intrinsics[name]; ok && !v.IsDotted() {
		b.emit(Raw{Text: instr})
		b.finishCall(len(v.Args), b.callRetWidth(v))
		return
	}

	if _, isGeneric := b.generic[name]; isGeneric && !v.IsDotted() {
		inst, ok := b.nextResolution(name)
		if !ok {
			b.emit(Comment{Text: fmt.Sprintf("internal: no resolution for generic call %q", name)})
			b.finishCall(len(v.Args), 1)
			return
		}
		b.emit(Call{Label: inst.MangledName()})
		b.finishCall(len(v.Args), b.genericRetWidth(name, inst.SizeArgs))
		return
	}

	if sig, ok := b.builtins.Lookup(name); ok && !v.IsDotted() {
		b.emit(b.builtinOps(name)...)
		b.finishCall(len(v.Args), b.width(sig.ReturnTy()))
		return
	}

	label := name
	if v.IsDotted() {
		label = v.Name()
	}
	b.emit(Call{Label: label})
	b.finishCall(len(v.Args), b.callRetWidth(v))
}

// finishCall pops the argument entries from the model and pushes a temp
// of the callee's return width.
func (b *Builder) finishCall(argc, retW int) {
	b.stack.DropTop(argc)
	if retW > 0 {
		b.stack.PushTemp(retW)
	}
}

func (b *Builder) callRetWidth(v *ast.Call) int {
	full := ast.ModulePath{Segments: v.Path}.String()
	if sig, ok := b.exports.Functions[full]; ok {
		return b.width(sig.ReturnTy)
	}
	if sig, ok := b.exports.Functions[v.Name()]; ok {
		return b.width(sig.ReturnTy)
	}
	return 0
}

func (b *Builder) genericRetWidth(name string, sizeArgs []uint64) int {
	fn := b.generic[name]
	if fn == nil || fn.ReturnTy == nil {
		return 0
	}
	saved := b.sizeSubst
	subst := make(map[string]uint64, len(fn.TypeParams))
	for i, tp := range fn.TypeParams {
		if i < len(sizeArgs) {
			subst[tp] = sizeArgs[i]
		}
	}
	b.sizeSubst = subst
	w := b.width(b.resolveTy(fn.ReturnTy))
	b.sizeSubst = saved
	return w
}

// builtinOps maps a builtin call to its instruction sequence. Builtins
// with no target instruction of their own (xfield construction, as_field)
// are representation changes and emit nothing.
func (b *Builder) builtinOps(name string) []Op {
	switch {
	case name == "hash":
		return []Op{Hash{}}
	case name == "split":
		return []Op{Raw{Text: "split"}}
	case name == "divine":
		return []Op{Divine{N: 1}}
	case strings.HasPrefix(name, "divine"):
		return []Op{Divine{N: numSuffix(name, "divine")}}
	case strings.HasPrefix(name, "pub_read"):
		return []Op{PubRead{N: numSuffix(name, "pub_read")}}
	case strings.HasPrefix(name, "pub_write"):
		return []Op{PubWrite{N: numSuffix(name, "pub_write")}}
	case name == "ram_read":
		return []Op{ReadMem{N: 1}}
	case name == "ram_write":
		return []Op{WriteMem{N: 1}}
	case name == "ram_read_block":
		return []Op{ReadMem{N: b.tc.DigestWidth}}
	case name == "merkle_step":
		return []Op{MerkleStep{}}
	case name == "merkle_step_mem":
		return []Op{MerkleStep{Mem: true}}
	case name == "xinvert":
		return []Op{Raw{Text: "xinvert"}}
	case name == "xfield", name == "as_field":
		return nil
	case name == "assert":
		return []Op{Assert{}}
	case name == "assert_eq":
		return []Op{Eq{}, Assert{}}
	case name == "as_u32":
		// Range-check by splitting and discarding the (asserted-zero)
		// high limb.
		return []Op{Raw{Text: "split"}, Pop{N: 1}}
	case name == "u32_lt":
		return []Op{Lt{}}
	default:
		return []Op{Call{Label: name}}
	}
}

func numSuffix(name, prefix string) int {
	n := 0
	for _, r := range name[len(prefix):] {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return 1
	}
	return n
}

func (b *Builder) lowerFieldAccess(v *ast.FieldAccess) {
	baseTy := b.exprTy(v.Base)
	b.lowerExpr(v.Base)
	s, ok := baseTy.(types.Struct)
	if !ok {
		b.emit(Comment{Text: fmt.Sprintf("internal: field access on non-struct %s", baseTy)})
		return
	}
	offset, fieldTy, found := structFieldOffset(s, v.Field, b)
	if !found {
		b.emit(Comment{Text: fmt.Sprintf("internal: unknown field %q", v.Field)})
		return
	}
	b.narrowTop(b.width(s), offset, b.width(fieldTy))
}

// lowerIndex narrows to a constant offset when the index is a literal;
// a runtime index spills the aggregate to the reserved temp RAM region
// and reads the element back by computed address (spec.md §4.4).
func (b *Builder) lowerIndex(v *ast.Index) {
	baseTy := b.exprTy(v.Base)
	arr, ok := baseTy.(types.Array)
	if !ok {
		b.lowerExpr(v.Base)
		b.emit(Comment{Text: fmt.Sprintf("internal: index on non-array %s", baseTy)})
		return
	}
	ew := b.width(arr.Elem)
	whole := b.width(arr)

	b.lowerExpr(v.Base)

	if lit, isLit := v.Idx.(*ast.IntLiteral); isLit {
		b.narrowTop(whole, int(lit.Value)*ew, ew)
		return
	}

	// Runtime index: park the array in temp RAM, compute
	// base + idx*elem_width, read elem_width cells.
	base := b.tempRAM
	b.tempRAM += uint64(whole)
	b.emit(Push{Value: base}, WriteMem{N: whole})
	b.stack.DropTop(1)

	b.lowerExpr(v.Idx)
	b.emit(Push{Value: uint64(ew)}, Mul{}, Push{Value: base}, Add{}, ReadMem{N: ew})
	b.stack.DropTop(1)
	b.stack.PushTemp(ew)
}

// lowerStructInit lowers field values in declaration order, regardless of
// source order, so the aggregate layout matches the struct's.
func (b *Builder) lowerStructInit(v *ast.StructInit) {
	s, ok := b.exports.Structs[v.Name()]
	if !ok {
		b.emit(Comment{Text: fmt.Sprintf("internal: unknown struct %q", v.Name())})
		return
	}
	n := 0
	for _, f := range s.Fields {
		var init ast.Expression
		for _, fv := range v.Fields {
			if fv.Name == f.Name {
				init = fv.Value
				break
			}
		}
		if init == nil {
			b.emit(Comment{Text: fmt.Sprintf("internal: missing field %q", f.Name)})
			continue
		}
		b.lowerExpr(init)
		n++
	}
	b.stack.MergeTop(n)
}

func (b *Builder) lowerSequence(elems []ast.Expression) {
	for _, el := range elems {
		b.lowerExpr(el)
	}
	b.stack.MergeTop(len(elems))
}

// exprTy infers an expression's semantic type from the builder's local
// bindings and the checked exports; it mirrors the checker's rules but
// never records diagnostics (the AST is already checked).
func (b *Builder) exprTy(e ast.Expression) types.Ty {
	switch v := e.(type) {
	case *ast.IntLiteral:
		return types.Field{}
	case *ast.BoolLiteral:
		return types.Bool{}
	case *ast.Var:
		if !v.IsDotted() {
			if ty, ok := b.varTys[v.Name()]; ok {
				return ty
			}
			if cs, ok := b.exports.Constants[v.Name()]; ok {
				return cs.Ty
			}
			return types.Field{}
		}
		if ty, ok := b.varTys[v.Path[0]]; ok {
			for _, seg := range v.Path[1:] {
				if s, isStruct := ty.(types.Struct); isStruct {
					for _, f := range s.Fields {
						if f.Name == seg {
							ty = f.Ty
							break
						}
					}
				}
			}
			return ty
		}
		full := ast.ModulePath{Segments: v.Path}.String()
		if cs, ok := b.exports.Constants[full]; ok {
			return cs.Ty
		}
		return types.Field{}
	case *ast.BinOp:
		switch v.Op {
		case ast.OpEq, ast.OpLt:
			return types.Bool{}
		case ast.OpDivMod:
			return types.Tuple{Elems: []types.Ty{types.U32{}, types.U32{}}}
		case ast.OpXMul:
			return types.XField{}
		default:
			return b.exprTy(v.Lhs)
		}
	case *ast.Call:
		name := v.Name()
		if !v.IsDotted() {
			if sig, ok := b.builtins.Lookup(name); ok {
				return sig.ReturnTy()
			}
			if fn, ok := b.generic[name]; ok && fn.ReturnTy != nil {
				if inst, found := b.peekResolution(name); found {
					saved := b.sizeSubst
					subst := make(map[string]uint64, len(fn.TypeParams))
					for i, tp := range fn.TypeParams {
						if i < len(inst.SizeArgs) {
							subst[tp] = inst.SizeArgs[i]
						}
					}
					b.sizeSubst = subst
					ty := b.resolveTy(fn.ReturnTy)
					b.sizeSubst = saved
					return ty
				}
				return b.resolveTy(fn.ReturnTy)
			}
		}
		full := ast.ModulePath{Segments: v.Path}.String()
		if sig, ok := b.exports.Functions[full]; ok {
			return sig.ReturnTy
		}
		if sig, ok := b.exports.Functions[name]; ok {
			return sig.ReturnTy
		}
		return types.Unit{}
	case *ast.FieldAccess:
		if s, ok := b.exprTy(v.Base).(types.Struct); ok {
			for _, f := range s.Fields {
				if f.Name == v.Field {
					return f.Ty
				}
			}
		}
		return types.Field{}
	case *ast.Index:
		if arr, ok := b.exprTy(v.Base).(types.Array); ok {
			return arr.Elem
		}
		return types.Field{}
	case *ast.StructInit:
		if s, ok := b.exports.Structs[v.Name()]; ok {
			return s
		}
		return types.Field{}
	case *ast.ArrayInit:
		if len(v.Elems) == 0 {
			return types.Array{Elem: types.Field{}, Size: 0}
		}
		return types.Array{Elem: b.exprTy(v.Elems[0]), Size: uint64(len(v.Elems))}
	case *ast.TupleExpr:
		elems := make([]types.Ty, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = b.exprTy(el)
		}
		return types.Tuple{Elems: elems}
	default:
		return types.Field{}
	}
}
