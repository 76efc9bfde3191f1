package typecheck

import (
	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/types"
)

// inferExpr yields the semantic type of e, recording any mismatch as a
// diagnostic but never aborting — per spec.md §7 "Call arity or
// argument-type errors do not short-circuit the rest of the call site."
func (c *Checker) inferExpr(e ast.Expression, scope *symbols.Table) types.Ty {
	switch v := e.(type) {
	case *ast.IntLiteral:
		return types.Field{}
	case *ast.BoolLiteral:
		return types.Bool{}
	case *ast.Var:
		return c.inferVar(v, scope)
	case *ast.BinOp:
		return c.inferBinOp(v, scope)
	case *ast.Call:
		return c.inferCall(v, scope)
	case *ast.FieldAccess:
		return c.inferFieldAccess(v, scope)
	case *ast.Index:
		return c.inferIndex(v, scope)
	case *ast.StructInit:
		return c.inferStructInit(v, scope)
	case *ast.ArrayInit:
		return c.inferArrayInit(v, scope)
	case *ast.TupleExpr:
		elems := make([]types.Ty, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = c.inferExpr(el, scope)
		}
		if len(elems) == 0 {
			return types.Unit{}
		}
		return types.Tuple{Elems: elems}
	default:
		return types.Field{}
	}
}

func (c *Checker) inferVar(v *ast.Var, scope *symbols.Table) types.Ty {
	if !v.IsDotted() {
		if sym, ok := scope.Lookup(v.Name()); ok {
			return sym.Ty
		}
		if cs, ok := c.consts[v.Name()]; ok {
			return cs.Ty
		}
		c.errf(v.Tok, diagnostics.ErrUndefinedName, "undefined name %q", v.Name())
		return types.Field{}
	}

	c.markUsed(v.Path)
	full := ast.ModulePath{Segments: v.Path}.String()
	if cs, ok := c.consts[full]; ok {
		return cs.Ty
	}
	if cs, ok := c.consts[v.Name()]; ok {
		return cs.Ty
	}
	// A dotted Var naming a struct field chain is re-dispatched as repeated
	// field access rooted at the leading identifier.
	if sym, ok := scope.Lookup(v.Path[0]); ok {
		ty := sym.Ty
		for _, seg := range v.Path[1:] {
			ty = c.fieldTypeOf(ty, seg)
		}
		return ty
	}
	c.errf(v.Tok, diagnostics.ErrUndefinedName, "undefined name %q", full)
	return types.Field{}
}

func (c *Checker) fieldTypeOf(base types.Ty, field string) types.Ty {
	s, ok := base.(types.Struct)
	if !ok {
		return types.Field{}
	}
	for _, f := range s.Fields {
		if f.Name == field {
			return f.Ty
		}
	}
	return types.Field{}
}

func (c *Checker) inferBinOp(v *ast.BinOp, scope *symbols.Table) types.Ty {
	lhs := c.inferExpr(v.Lhs, scope)
	rhs := c.inferExpr(v.Rhs, scope)

	mismatch := func(expect string) types.Ty {
		c.errf(tokOf(v), diagnostics.ErrTypeMismatch,
			"operator %s expects %s, got %s and %s", v.Op, expect, lhs, rhs)
		return types.Field{}
	}

	switch v.Op {
	case ast.OpAdd, ast.OpMul:
		if !types.Equal(lhs, rhs) {
			return mismatch("matching operand types")
		}
		return lhs
	case ast.OpEq:
		if !types.Equal(lhs, rhs) {
			return mismatch("matching operand types")
		}
		return types.Bool{}
	case ast.OpLt:
		if _, ok := lhs.(types.U32); !ok {
			return mismatch("U32 operands")
		}
		if _, ok := rhs.(types.U32); !ok {
			return mismatch("U32 operands")
		}
		return types.Bool{}
	case ast.OpBitAnd, ast.OpBitXor:
		if _, ok := lhs.(types.U32); !ok {
			return mismatch("U32 operands")
		}
		if _, ok := rhs.(types.U32); !ok {
			return mismatch("U32 operands")
		}
		return types.U32{}
	case ast.OpDivMod:
		if _, ok := lhs.(types.U32); !ok {
			return mismatch("U32 operands")
		}
		if _, ok := rhs.(types.U32); !ok {
			return mismatch("U32 operands")
		}
		return types.Tuple{Elems: []types.Ty{types.U32{}, types.U32{}}}
	case ast.OpXMul:
		if _, ok := lhs.(types.XField); !ok {
			return mismatch("an XField left operand")
		}
		if _, ok := rhs.(types.Field); !ok {
			return mismatch("a Field right operand")
		}
		return types.XField{}
	default:
		return types.Field{}
	}
}

func (c *Checker) inferFieldAccess(v *ast.FieldAccess, scope *symbols.Table) types.Ty {
	base := c.inferExpr(v.Base, scope)
	s, ok := base.(types.Struct)
	if !ok {
		c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "cannot access field %q of non-struct type %s", v.Field, base)
		return types.Field{}
	}
	for _, f := range s.Fields {
		if f.Name == v.Field {
			return f.Ty
		}
	}
	c.errf(tokOf(v), diagnostics.ErrUnknownField, "struct %s has no field %q", s.Name, v.Field)
	return types.Field{}
}

func (c *Checker) inferIndex(v *ast.Index, scope *symbols.Table) types.Ty {
	base := c.inferExpr(v.Base, scope)
	idxTy := c.inferExpr(v.Idx, scope)
	if _, ok := idxTy.(types.U32); !ok {
		if _, ok := idxTy.(types.Field); !ok {
			c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "array index must be Field or U32, got %s", idxTy)
		}
	}
	arr, ok := base.(types.Array)
	if !ok {
		c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "cannot index non-array type %s", base)
		return types.Field{}
	}
	return arr.Elem
}

func (c *Checker) inferStructInit(v *ast.StructInit, scope *symbols.Table) types.Ty {
	name := v.Name()
	s, ok := c.structs[name]
	if !ok {
		c.errf(tokOf(v), diagnostics.ErrUndefinedName, "undefined struct %q", name)
		return types.Field{}
	}
	seen := make(map[string]bool, len(v.Fields))
	for _, fv := range v.Fields {
		seen[fv.Name] = true
		var declTy types.Ty
		found := false
		for _, f := range s.Fields {
			if f.Name == fv.Name {
				declTy, found = f.Ty, true
				break
			}
		}
		if !found {
			c.errf(tokOf(v), diagnostics.ErrUnknownField, "struct %s has no field %q", name, fv.Name)
			continue
		}
		valTy := c.inferExpr(fv.Value, scope)
		if !types.Equal(declTy, valTy) {
			c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "field %q expects %s, got %s", fv.Name, declTy, valTy)
		}
	}
	for _, f := range s.Fields {
		if !seen[f.Name] {
			c.errf(tokOf(v), diagnostics.ErrMissingField, "struct %s missing field %q", name, f.Name)
		}
	}
	return s
}

func (c *Checker) inferArrayInit(v *ast.ArrayInit, scope *symbols.Table) types.Ty {
	if len(v.Elems) == 0 {
		return types.Array{Elem: types.Field{}, Size: 0}
	}
	elem := c.inferExpr(v.Elems[0], scope)
	for _, e := range v.Elems[1:] {
		ty := c.inferExpr(e, scope)
		if !types.Equal(elem, ty) {
			c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "array elements must share a type: %s vs %s", elem, ty)
		}
	}
	return types.Array{Elem: elem, Size: uint64(len(v.Elems))}
}
