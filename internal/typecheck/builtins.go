package typecheck

import (
	"fmt"

	"github.com/mastercyb/trident/internal/target"
	"github.com/mastercyb/trident/internal/types"
)

// BuiltinSig is the resolved signature of a pre-registered library
// function. The few builtins whose arity is target-configured (hash,
// divine, pub_readN) get their Params and Returns sized from the target
// when the registry is built.
type BuiltinSig struct {
	Name     string
	Params   []types.Ty
	Returns  []types.Ty // more than one for builtins that yield a tuple (split)
	IsIO     bool        // side-effecting: pub/sec I/O, RAM, divine — forbidden in #[pure] functions
}

func (b BuiltinSig) ReturnTy() types.Ty {
	switch len(b.Returns) {
	case 0:
		return types.Unit{}
	case 1:
		return b.Returns[0]
	default:
		elems := make([]types.Ty, len(b.Returns))
		copy(elems, b.Returns)
		return types.Tuple{Elems: elems}
	}
}

// Builtins is the registry of library functions spec.md §4.2 mandates,
// keyed by name. Arities and result widths depend on the target
// configuration, so the registry is built fresh per compile rather than
// held as a package-level singleton — a different target (different
// digest_width, hash_rate, field_limbs, xfield_width) yields a different
// registry.
type Builtins struct {
	sigs map[string]BuiltinSig
}

// NewBuiltins constructs the builtin registry for one target configuration.
func NewBuiltins(tc target.TargetConfig) *Builtins {
	b := &Builtins{sigs: make(map[string]BuiltinSig)}

	hashParams := make([]types.Ty, tc.HashRate)
	for i := range hashParams {
		hashParams[i] = types.Field{}
	}
	b.def(BuiltinSig{Name: "hash", Params: hashParams, Returns: []types.Ty{types.Digest{}}})

	splitReturns := make([]types.Ty, tc.FieldLimbs)
	for i := range splitReturns {
		splitReturns[i] = types.U32{}
	}
	b.def(BuiltinSig{Name: "split", Params: []types.Ty{types.Field{}}, Returns: splitReturns})

	for n := 1; n <= tc.DigestWidth; n++ {
		b.def(BuiltinSig{Name: fmt.Sprintf("pub_read%d", n), Returns: repeatTy(types.Field{}, n), IsIO: true})
		b.def(BuiltinSig{Name: fmt.Sprintf("pub_write%d", n), Params: repeatTy(types.Field{}, n), IsIO: true})
	}
	b.def(BuiltinSig{Name: "pub_write5", Params: repeatTy(types.Field{}, 5), IsIO: true})

	// Unsuffixed aliases for the single-cell forms.
	b.def(BuiltinSig{Name: "pub_read", Returns: []types.Ty{types.Field{}}, IsIO: true})
	b.def(BuiltinSig{Name: "pub_write", Params: []types.Ty{types.Field{}}, IsIO: true})

	b.def(BuiltinSig{Name: "divine", Returns: []types.Ty{types.Field{}}, IsIO: true})
	b.def(BuiltinSig{Name: fmt.Sprintf("divine%d", tc.DigestWidth), Returns: repeatTy(types.Field{}, tc.DigestWidth), IsIO: true})

	b.def(BuiltinSig{Name: "ram_read", Params: []types.Ty{types.U32{}}, Returns: []types.Ty{types.Field{}}, IsIO: true})
	b.def(BuiltinSig{Name: "ram_write", Params: []types.Ty{types.U32{}, types.Field{}}, IsIO: true})
	b.def(BuiltinSig{Name: "ram_read_block", Params: []types.Ty{types.U32{}, types.U32{}}, Returns: []types.Ty{types.Digest{}}, IsIO: true})

	b.def(BuiltinSig{Name: "merkle_step", Params: []types.Ty{types.Digest{}, types.U32{}}, Returns: []types.Ty{types.Digest{}}, IsIO: true})

	b.def(BuiltinSig{Name: "xfield", Params: []types.Ty{types.Field{}, types.Field{}, types.Field{}}, Returns: []types.Ty{types.XField{}}})
	b.def(BuiltinSig{Name: "xinvert", Params: []types.Ty{types.XField{}}, Returns: []types.Ty{types.XField{}}})

	b.def(BuiltinSig{Name: "assert", Params: []types.Ty{types.Bool{}}})
	b.def(BuiltinSig{Name: "assert_eq", Params: []types.Ty{types.Field{}, types.Field{}}})

	b.def(BuiltinSig{Name: "as_u32", Params: []types.Ty{types.Field{}}, Returns: []types.Ty{types.U32{}}})
	b.def(BuiltinSig{Name: "as_field", Params: []types.Ty{types.U32{}}, Returns: []types.Ty{types.Field{}}})
	b.def(BuiltinSig{Name: "u32_lt", Params: []types.Ty{types.U32{}, types.U32{}}, Returns: []types.Ty{types.Bool{}}})

	return b
}

func repeatTy(t types.Ty, n int) []types.Ty {
	out := make([]types.Ty, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func (b *Builtins) def(sig BuiltinSig) { b.sigs[sig.Name] = sig }

// Lookup returns a builtin's signature by name.
func (b *Builtins) Lookup(name string) (BuiltinSig, bool) {
	sig, ok := b.sigs[name]
	return sig, ok
}

// IsIOBuiltin implements spec.md's `is_io_builtin(name)` predicate, used by
// the #[pure] check.
func (b *Builtins) IsIOBuiltin(name string) bool {
	sig, ok := b.sigs[name]
	return ok && sig.IsIO
}
