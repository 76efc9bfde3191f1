package typecheck

import (
	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/types"
)

// inferCall resolves a call site against builtins, this module's (or an
// imported module's) non-generic signatures, or the generic-instantiation
// machinery in generics.go, and enforces the #[pure] no-I/O rule.
func (c *Checker) inferCall(v *ast.Call, scope *symbols.Table) types.Ty {
	argTys := make([]types.Ty, len(v.Args))
	for i, a := range v.Args {
		argTys[i] = c.inferExpr(a, scope)
	}

	name := v.Name()

	if !v.IsDotted() {
		if bi, ok := c.builtins.Lookup(name); ok {
			c.checkPurity(bi.IsIO, name, v)
			c.checkArity(v, len(bi.Params), len(argTys))
			c.checkRedundantAsU32(v, scope)
			return bi.ReturnTy()
		}
		if fn, ok := c.generic[name]; ok {
			return c.resolveGenericCall(v, fn, argTys)
		}
	}

	c.markUsed(v.Path)
	full := ast.ModulePath{Segments: v.Path}.String()
	sig, ok := c.sigs[full]
	if !ok {
		sig, ok = c.sigs[name]
	}
	if !ok {
		c.errf(v.Tok, diagnostics.ErrUndefinedName, "undefined function %q", name)
		return types.Field{}
	}
	c.checkArity(v, len(sig.Params), len(argTys))
	for i := 0; i < len(sig.Params) && i < len(argTys); i++ {
		if !types.Equal(sig.Params[i], argTys[i]) {
			c.errf(v.Tok, diagnostics.ErrTypeMismatch,
				"argument %d of %q: expected %s, got %s", i+1, name, sig.Params[i], argTys[i])
		}
	}
	return sig.ReturnTy
}

func (c *Checker) checkArity(v *ast.Call, want, got int) {
	if want != got {
		c.errf(v.Tok, diagnostics.ErrArityMismatch,
			"%q expects %d argument(s), got %d", v.Name(), want, got)
	}
}

// checkPurity implements spec.md §4.2's "#[pure] functions may not call I/O
// builtins": any I/O call made while checking a #[pure] function's body is
// an error, regardless of what the call resolves to.
func (c *Checker) checkPurity(calleeIsIO bool, name string, v *ast.Call) {
	if c.curFn != nil && c.curFn.IsPure && calleeIsIO {
		c.errf(v.Tok, diagnostics.ErrPureViolation,
			"#[pure] function %q may not call I/O builtin %q", c.curFn.Name, name)
	}
}

// checkRedundantAsU32 implements the H0003 warning: calling as_u32 on a
// variable already known to be in the u32 range (proven by an earlier
// as_u32/split binding, or by its declared type) is redundant.
func (c *Checker) checkRedundantAsU32(v *ast.Call, scope *symbols.Table) {
	if v.Name() != "as_u32" || len(v.Args) != 1 {
		return
	}
	argVar, ok := v.Args[0].(*ast.Var)
	if !ok || argVar.IsDotted() {
		return
	}
	if c.u32Proven[argVar.Name()] {
		c.warnf(v.Tok, diagnostics.WarnRedundantAsU32, "redundant as_u32 on already-proven variable %q", argVar.Name())
	}
}
