// Package types is the semantic type system the checker resolves syntactic
// ast.Type nodes into: a small closed sum with no type variables. Generic
// size parameters never appear here as variables: the checker's
// monomorphizer binds them per call site (typecheck/generics.go) and builds
// concrete types, unlike funvibe-funxy's typesystem package, which this one
// is deliberately NOT modeled on for that reason.
// Every type is structurally comparable and carries a pure Width function
// used throughout the cost model and stack manager.
package types

import (
	"fmt"
	"strings"

	"github.com/mastercyb/trident/internal/target"
)

// Ty is the interface every semantic type satisfies.
type Ty interface {
	String() string
	tyNode()
}

// Field is the Goldilocks base field element type; width 1.
type Field struct{}

func (Field) String() string { return "Field" }
func (Field) tyNode()        {}

// XField is the cubic extension field type; width is target-configured.
type XField struct{}

func (XField) String() string { return "XField" }
func (XField) tyNode()        {}

// Bool is width 1.
type Bool struct{}

func (Bool) String() string { return "Bool" }
func (Bool) tyNode()        {}

// U32 is width 1, range-checked at runtime unless proven.
type U32 struct{}

func (U32) String() string { return "U32" }
func (U32) tyNode()        {}

// Digest is a hash output; width is target-configured.
type Digest struct{}

func (Digest) String() string { return "Digest" }
func (Digest) tyNode()        {}

// Unit is the zero-width type of statements and bare returns.
type Unit struct{}

func (Unit) String() string { return "()" }
func (Unit) tyNode()        {}

// Array is a fixed-size homogeneous sequence.
type Array struct {
	Elem Ty
	Size uint64
}

func (a Array) String() string { return fmt.Sprintf("[%s; %d]", a.Elem, a.Size) }
func (Array) tyNode()          {}

// Tuple is a fixed, heterogeneous product type.
type Tuple struct {
	Elems []Ty
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (Tuple) tyNode() {}

// StructField is one resolved field of a Struct type.
type StructField struct {
	Name  string
	Ty    Ty
	IsPub bool
}

// Struct is a named product type declared by a Struct item.
type Struct struct {
	Name   string
	Fields []StructField
}

func (s Struct) String() string { return s.Name }
func (Struct) tyNode()          {}

// Width returns a type's size in base-field elements, per spec.md §3:
// Field/Bool/U32 are 1; XField and Digest are target-configured; arrays and
// tuples compose their element widths; structs sum their fields' widths.
func Width(t Ty, tc target.TargetConfig) int {
	switch v := t.(type) {
	case Field, Bool, U32:
		return 1
	case XField:
		return tc.XFieldWidth
	case Digest:
		return tc.DigestWidth
	case Unit:
		return 0
	case Array:
		return Width(v.Elem, tc) * int(v.Size)
	case Tuple:
		total := 0
		for _, e := range v.Elems {
			total += Width(e, tc)
		}
		return total
	case Struct:
		total := 0
		for _, f := range v.Fields {
			total += Width(f.Ty, tc)
		}
		return total
	default:
		return 0
	}
}

// Equal reports structural equality between two semantic types.
func Equal(a, b Ty) bool {
	switch av := a.(type) {
	case Field:
		_, ok := b.(Field)
		return ok
	case XField:
		_, ok := b.(XField)
		return ok
	case Bool:
		_, ok := b.(Bool)
		return ok
	case U32:
		_, ok := b.(U32)
		return ok
	case Digest:
		_, ok := b.(Digest)
		return ok
	case Unit:
		_, ok := b.(Unit)
		return ok
	case Array:
		bv, ok := b.(Array)
		return ok && av.Size == bv.Size && Equal(av.Elem, bv.Elem)
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case Struct:
		bv, ok := b.(Struct)
		return ok && av.Name == bv.Name
	default:
		return false
	}
}
