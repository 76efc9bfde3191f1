package typecheck

import (
	"fmt"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/token"
	"github.com/mastercyb/trident/internal/types"
)

// tokOf builds the minimal token.Token a diagnostic needs (line/column for
// rendering) from any AST node's span.
func tokOf(n ast.Node) token.Token {
	s := n.Pos()
	return token.Token{Line: s.Line, Column: s.Col}
}

// resolveType turns a syntactic ast.Type into a semantic types.Ty. A size
// parameter of the generic function whose body is being checked resolves
// to genericSizeSentinel; any other size parameter is an unbound-size
// error. The monomorphizer (generics.go) substitutes the real value per
// call site before the TIR builder runs.
func (c *Checker) resolveType(t ast.Type) (types.Ty, *diagnostics.DiagnosticError) {
	switch v := t.(type) {
	case *ast.FieldType:
		return types.Field{}, nil
	case *ast.XFieldType:
		return types.XField{}, nil
	case *ast.BoolType:
		return types.Bool{}, nil
	case *ast.U32Type:
		return types.U32{}, nil
	case *ast.DigestType:
		return types.Digest{}, nil
	case *ast.ArrayType:
		elem, err := c.resolveType(v.Elem)
		if err != nil {
			return nil, err
		}
		size := v.Size.Lit
		if v.Size.IsParam {
			if c.curTypeParams != nil && c.curTypeParams[v.Size.Param] {
				size = genericSizeSentinel
			} else {
				d := diagnostics.NewError(diagnostics.ErrUnboundSizeParam, tokOf(v),
					fmt.Sprintf("unbound size parameter %q", v.Size.Param))
				d.File = c.file
				return nil, d
			}
		}
		return types.Array{Elem: elem, Size: size}, nil
	case *ast.TupleType:
		elems := make([]types.Ty, len(v.Elems))
		for i, e := range v.Elems {
			ty, err := c.resolveType(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ty
		}
		return types.Tuple{Elems: elems}, nil
	case *ast.NamedType:
		name := v.Name()
		if s, ok := c.structs[name]; ok {
			return s, nil
		}
		d := diagnostics.NewError(diagnostics.ErrUndefinedName, tokOf(v),
			fmt.Sprintf("undefined type %q", v.Name()))
		d.File = c.file
		return nil, d
	default:
		return types.Unit{}, nil
	}
}

// resolveTypeWithSizes is resolveType specialized for a generic function's
// parameter and return types at a concrete call site: every size parameter in sizeMap is
// substituted with its inferred concrete value.
func (c *Checker) resolveTypeWithSizes(t ast.Type, sizeMap map[string]uint64) (types.Ty, *diagnostics.DiagnosticError) {
	switch v := t.(type) {
	case *ast.ArrayType:
		elem, err := c.resolveTypeWithSizes(v.Elem, sizeMap)
		if err != nil {
			return nil, err
		}
		size := v.Size.Lit
		if v.Size.IsParam {
			n, ok := sizeMap[v.Size.Param]
			if !ok {
				d := diagnostics.NewError(diagnostics.ErrUnboundSizeParam, tokOf(v),
					fmt.Sprintf("unbound size parameter %q", v.Size.Param))
				d.File = c.file
				return nil, d
			}
			size = n
		}
		return types.Array{Elem: elem, Size: size}, nil
	case *ast.TupleType:
		elems := make([]types.Ty, len(v.Elems))
		for i, e := range v.Elems {
			ty, err := c.resolveTypeWithSizes(e, sizeMap)
			if err != nil {
				return nil, err
			}
			elems[i] = ty
		}
		return types.Tuple{Elems: elems}, nil
	default:
		return c.resolveType(t)
	}
}
