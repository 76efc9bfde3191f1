package typecheck

import (
	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/types"
)

// resolveGenericCall implements spec.md §4.2's "Generic resolution": an
// explicit `f<3>(args)` binds sizes directly; a bare `f(args)` infers them
// by unifying each parameter's declared (possibly size-parameterized) type
// against the concrete argument type. Every successful call appends a
// MonoInstance (deduplicated by first occurrence) and a CallResolution (one
// per call site, in AST walk order) for the TIR builder to consume later.
func (c *Checker) resolveGenericCall(call *ast.Call, fn *ast.Fn, argTys []types.Ty) types.Ty {
	sizeMap := make(map[string]uint64, len(fn.TypeParams))

	if len(call.GenericArgs) > 0 {
		for i, tp := range fn.TypeParams {
			if i >= len(call.GenericArgs) {
				break
			}
			sz := call.GenericArgs[i]
			if sz.IsParam {
				c.errf(call.Tok, diagnostics.ErrUnboundSizeParam,
					"explicit generic argument %d of %q must be a literal size", i+1, fn.Name)
				continue
			}
			sizeMap[tp] = sz.Lit
		}
	} else {
		for i, p := range fn.Params {
			if i >= len(argTys) {
				break
			}
			unifySize(p.Ty, argTys[i], sizeMap)
		}
	}

	var missing []string
	for _, tp := range fn.TypeParams {
		if _, ok := sizeMap[tp]; !ok {
			missing = append(missing, tp)
		}
	}
	if len(missing) > 0 {
		c.errf(call.Tok, diagnostics.ErrUnboundSizeParam,
			"cannot infer size parameter(s) %v for call to %q", missing, fn.Name)
		return types.Field{}
	}

	c.checkArity(call, len(fn.Params), len(argTys))
	for i, p := range fn.Params {
		if i >= len(argTys) {
			break
		}
		declTy, err := c.resolveTypeWithSizes(p.Ty, sizeMap)
		if err != nil {
			c.diags = append(c.diags, err)
			continue
		}
		if !types.Equal(declTy, argTys[i]) {
			c.errf(call.Tok, diagnostics.ErrTypeMismatch,
				"argument %d of %q: expected %s, got %s", i+1, fn.Name, declTy, argTys[i])
		}
	}

	sizeArgs := make([]uint64, len(fn.TypeParams))
	for i, tp := range fn.TypeParams {
		sizeArgs[i] = sizeMap[tp]
	}
	inst := symbols.MonoInstance{Name: fn.Name, SizeArgs: sizeArgs}

	if !c.monoSeen[inst.Key()] {
		c.monoSeen[inst.Key()] = true
		c.monoInstances = append(c.monoInstances, inst)
	}
	c.callResolutions = append(c.callResolutions, symbols.CallResolution{Instance: inst})

	var ret types.Ty = types.Unit{}
	if fn.ReturnTy != nil {
		if rt, err := c.resolveTypeWithSizes(fn.ReturnTy, sizeMap); err == nil {
			ret = rt
		} else {
			c.diags = append(c.diags, err)
		}
	}
	return ret
}

// unifySize pattern-matches a declared (syntactic) type against a concrete
// argument type, binding any size parameter it finds along the way. It
// recurses into array element types and tuple positions per spec.md §4.2.
func unifySize(declared ast.Type, arg types.Ty, sizeMap map[string]uint64) {
	switch d := declared.(type) {
	case *ast.ArrayType:
		a, ok := arg.(types.Array)
		if !ok {
			return
		}
		if d.Size.IsParam {
			sizeMap[d.Size.Param] = a.Size
		}
		unifySize(d.Elem, a.Elem, sizeMap)
	case *ast.TupleType:
		a, ok := arg.(types.Tuple)
		if !ok || len(a.Elems) != len(d.Elems) {
			return
		}
		for i, elemTy := range d.Elems {
			unifySize(elemTy, a.Elems[i], sizeMap)
		}
	}
}
