package typecheck

import (
	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/types"
)

// checkFn type-checks one function body with a fresh scope stack seeded
// with its parameters (spec.md §4.2 "Second pass (bodies)").
func (c *Checker) checkFn(fn *ast.Fn) {
	c.curFn = fn
	c.curTypeParams = nil
	if fn.IsGeneric() {
		c.curTypeParams = make(map[string]bool, len(fn.TypeParams))
		for _, p := range fn.TypeParams {
			c.curTypeParams[p] = true
		}
	}
	c.u32Proven = make(map[string]bool)

	scope := symbols.NewTable()
	for _, p := range fn.Params {
		ty, err := c.resolveType(p.Ty)
		if err != nil {
			c.diags = append(c.diags, err)
			ty = types.Field{}
		}
		scope.Define(p.Name, symbols.Symbol{Name: p.Name, Ty: ty})
		if _, ok := ty.(types.U32); ok {
			c.u32Proven[p.Name] = true
		}
	}

	c.checkBlock(fn.Body, scope)

	c.curFn = nil
}

func (c *Checker) checkBlock(stmts []ast.Statement, scope *symbols.Table) {
	scope.Push()
	for _, s := range stmts {
		c.checkStmt(s, scope)
	}
	scope.Pop()
}

func (c *Checker) checkStmt(s ast.Statement, scope *symbols.Table) {
	switch v := s.(type) {
	case *ast.Let:
		c.checkLet(v, scope)
	case *ast.Assign:
		c.checkAssign(v, scope)
	case *ast.TupleAssign:
		c.checkTupleAssign(v, scope)
	case *ast.If:
		c.inferExpr(v.Cond, scope)
		c.checkBlock(v.Then, scope)
		if v.Else != nil {
			c.checkBlock(v.Else, scope)
		}
	case *ast.For:
		c.checkFor(v, scope)
	case *ast.ExprStmt:
		c.inferExpr(v.Expr, scope)
	case *ast.Return:
		c.checkReturn(v, scope)
	case *ast.Reveal:
		c.checkEventFields(v.Event, v.Fields, scope, v)
	case *ast.Seal:
		c.checkEventFields(v.Event, v.Fields, scope, v)
	case *ast.Asm:
		// Raw target assembly; not type-checked.
	case *ast.Match:
		c.checkMatch(v, scope)
	}
}

func (c *Checker) checkLet(v *ast.Let, scope *symbols.Table) {
	initTy := c.inferExpr(v.Init, scope)
	if v.Ty != nil {
		declTy, err := c.resolveType(v.Ty)
		if err != nil {
			c.diags = append(c.diags, err)
		} else if !types.Equal(declTy, initTy) {
			c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "let binding expects %s, got %s", declTy, initTy)
		} else {
			initTy = declTy
		}
	}

	switch pat := v.Pattern.(type) {
	case *ast.NamePattern:
		if scope.Shadows(pat.Name) {
			c.warnf(tokOf(v), diagnostics.WarnShadowing, "binding %q shadows an outer variable", pat.Name)
		}
		if !scope.Define(pat.Name, symbols.Symbol{Name: pat.Name, Ty: initTy, Mutable: v.Mutable}) {
			c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "%q is already bound in this scope", pat.Name)
		}
		if isU32Proving(v.Init, initTy) {
			c.u32Proven[pat.Name] = true
		}
	case *ast.TuplePattern:
		tup, ok := initTy.(types.Tuple)
		if !ok || len(tup.Elems) != len(pat.Names) {
			c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "tuple pattern arity mismatch")
			for _, n := range pat.Names {
				scope.Define(n, symbols.Symbol{Name: n, Ty: types.Field{}, Mutable: v.Mutable})
			}
			return
		}
		for i, n := range pat.Names {
			scope.Define(n, symbols.Symbol{Name: n, Ty: tup.Elems[i], Mutable: v.Mutable})
			if _, isU32 := tup.Elems[i].(types.U32); isU32 {
				c.u32Proven[n] = true
			}
		}
	}
}

// isU32Proving reports whether an initializer expression proves its bound
// name is in the u32 range: the binding's resolved type is U32, or the
// initializer is an as_u32/split call (spec.md §4.2).
func isU32Proving(init ast.Expression, ty types.Ty) bool {
	if _, ok := ty.(types.U32); ok {
		return true
	}
	if call, ok := init.(*ast.Call); ok {
		return call.Name() == "as_u32" || call.Name() == "split"
	}
	return false
}

func (c *Checker) checkAssign(v *ast.Assign, scope *symbols.Table) {
	placeTy := c.placeType(v.Place, scope)
	valTy := c.inferExpr(v.Value, scope)
	if !types.Equal(placeTy, valTy) {
		c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "assignment expects %s, got %s", placeTy, valTy)
	}
}

func (c *Checker) checkTupleAssign(v *ast.TupleAssign, scope *symbols.Table) {
	valTy := c.inferExpr(v.Value, scope)
	tup, ok := valTy.(types.Tuple)
	if !ok || len(tup.Elems) != len(v.Names) {
		c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "tuple assignment arity mismatch")
		return
	}
	for i, n := range v.Names {
		sym, ok := scope.Lookup(n)
		if !ok {
			c.errf(tokOf(v), diagnostics.ErrUndefinedName, "undefined name %q", n)
			continue
		}
		if !types.Equal(sym.Ty, tup.Elems[i]) {
			c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "assigning to %q: expected %s, got %s", n, sym.Ty, tup.Elems[i])
		}
	}
}

func (c *Checker) placeType(p ast.Place, scope *symbols.Table) types.Ty {
	switch v := p.(type) {
	case *ast.VarPlace:
		if sym, ok := scope.Lookup(v.Name); ok {
			return sym.Ty
		}
		c.errf(tokOf(v), diagnostics.ErrUndefinedName, "undefined name %q", v.Name)
		return types.Field{}
	case *ast.FieldPlace:
		base := c.placeType(v.Base, scope)
		return c.fieldTypeOf(base, v.Field)
	case *ast.IndexPlace:
		base := c.placeType(v.Base, scope)
		c.inferExpr(v.Idx, scope)
		arr, ok := base.(types.Array)
		if !ok {
			c.errf(tokOf(v), diagnostics.ErrTypeMismatch, "cannot index non-array type %s", base)
			return types.Field{}
		}
		return arr.Elem
	default:
		return types.Field{}
	}
}

func (c *Checker) checkFor(v *ast.For, scope *symbols.Table) {
	startTy := c.inferExpr(v.Start, scope)
	c.inferExpr(v.End, scope)
	scope.Push()
	scope.Define(v.Var, symbols.Symbol{Name: v.Var, Ty: startTy})
	for _, s := range v.Body {
		c.checkStmt(s, scope)
	}
	scope.Pop()
}

func (c *Checker) checkReturn(v *ast.Return, scope *symbols.Table) {
	var gotTy types.Ty = types.Unit{}
	if v.Value != nil {
		gotTy = c.inferExpr(v.Value, scope)
	}
	if c.curFn == nil {
		return
	}
	var wantTy types.Ty = types.Unit{}
	if c.curFn.ReturnTy != nil {
		if rt, err := c.resolveType(c.curFn.ReturnTy); err == nil {
			wantTy = rt
		}
	}
	if !types.Equal(wantTy, gotTy) {
		c.errf(tokOf(v), diagnostics.ErrTypeMismatch,
			"function %q returns %s, got %s", c.curFn.Name, wantTy, gotTy)
	}
}

func (c *Checker) checkEventFields(event string, fields []ast.StructInitField, scope *symbols.Table, node ast.Node) {
	sig, ok := c.events[event]
	if !ok {
		c.errf(tokOf(node), diagnostics.ErrUndefinedName, "undefined event %q", event)
		return
	}
	if len(fields) != len(sig.Fields) {
		c.errf(tokOf(node), diagnostics.ErrEventArity,
			"event %q expects %d field(s), got %d", event, len(sig.Fields), len(fields))
	}
	for _, f := range fields {
		ty := c.inferExpr(f.Value, scope)
		if _, ok := ty.(types.Field); !ok {
			c.errf(tokOf(node), diagnostics.ErrTypeMismatch, "event field %q must be Field, got %s", f.Name, ty)
		}
	}
}

func (c *Checker) checkMatch(v *ast.Match, scope *symbols.Table) {
	c.inferExpr(v.Scrutinee, scope)
	for _, arm := range v.Arms {
		c.checkBlock(arm.Body, scope)
	}
}
