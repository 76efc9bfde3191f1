package tir

import (
	"fmt"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/target"
	"github.com/mastercyb/trident/internal/typecheck"
	"github.com/mastercyb/trident/internal/types"
)

// Builder translates one type-checked file into the linear TIR sequence
// (spec.md §4.4). It is created per file and carries transient state: the
// stack model and temp RAM cursor reset at function boundaries, while the
// generic-call resolution cursor runs across the whole file.
type Builder struct {
	tc       target.TargetConfig
	cfgFlags map[string]bool
	exports  *symbols.ModuleExports
	builtins *typecheck.Builtins

	file       *ast.File
	generic    map[string]*ast.Fn
	intrinsics map[string]string
	eventTags  map[string]uint64
	eventArity map[string]int

	// sizeSubst binds the active generic copy's size parameters to their
	// concrete values during width resolution; nil outside generic copies.
	sizeSubst map[string]uint64
	cursor    int

	stack   *Manager
	varTys  map[string]types.Ty
	tempRAM uint64
	ops     []Op
}

// NewBuilder constructs a Builder for one target configuration, the
// checked file's exports (which carry the mono-instance list and the
// per-call-site resolution log), and the active cfg flag set.
func NewBuilder(tc target.TargetConfig, exports *symbols.ModuleExports, cfgFlags []string) *Builder {
	flags := make(map[string]bool, len(cfgFlags))
	for _, f := range cfgFlags {
		flags[f] = true
	}
	return &Builder{
		tc:       tc,
		cfgFlags: flags,
		exports:  exports,
		builtins: typecheck.NewBuiltins(tc),
	}
}

func (b *Builder) active(item ast.Item) bool {
	cfg := item.Cfg()
	return cfg == "" || b.cfgFlags[cfg]
}

func (b *Builder) emit(ops ...Op) {
	b.ops = append(b.ops, ops...)
}

// capture redirects emission into a fresh op list for the duration of fn,
// returning what was emitted — used to build the nested bodies of IfElse,
// IfOnly, Loop, and Match arms.
func (b *Builder) capture(fn func()) []Op {
	saved := b.ops
	b.ops = nil
	fn()
	out := b.ops
	b.ops = saved
	return out
}

// BuildFile implements the §4.4 contract: pre-scan, RAM metadata, entry
// marker, each non-generic non-test function, then each monomorphized
// copy of each generic function under its mangled name.
func (b *Builder) BuildFile(file *ast.File) []Op {
	b.file = file
	b.ops = nil
	b.cursor = 0
	b.preScan(file)

	if file.RAM != nil {
		b.emit(Comment{Text: "sec ram"})
		for _, cell := range file.RAM.Cells {
			b.emit(Comment{Text: fmt.Sprintf("  %d: %s", cell.Addr, typeText(cell.Ty))})
		}
	}

	if file.Kind == ast.KindProgram {
		b.emit(Entry{Label: "main"})
	}

	for _, item := range file.Items {
		if !b.active(item) {
			continue
		}
		fn, ok := item.(*ast.Fn)
		if !ok || !fn.HasBody() || fn.IsGeneric() || fn.IsTest {
			continue
		}
		b.emitFn(fn, fn.Name, nil)
	}

	for _, inst := range b.exports.MonoInstances {
		fn, ok := b.generic[inst.Name]
		if !ok {
			continue
		}
		subst := make(map[string]uint64, len(fn.TypeParams))
		for i, tp := range fn.TypeParams {
			if i < len(inst.SizeArgs) {
				subst[tp] = inst.SizeArgs[i]
			}
		}
		b.emitFn(fn, inst.MangledName(), subst)
	}

	return b.ops
}

// preScan records generic templates, intrinsic mappings, and sequential
// event tags in declaration order (spec.md §4.4 step 1). Function return
// widths and struct layouts come resolved from the checker's exports.
func (b *Builder) preScan(file *ast.File) {
	b.generic = make(map[string]*ast.Fn)
	b.intrinsics = make(map[string]string)
	b.eventTags = make(map[string]uint64)
	b.eventArity = make(map[string]int)

	tag := uint64(0)
	for _, item := range file.Items {
		if !b.active(item) {
			continue
		}
		switch it := item.(type) {
		case *ast.Fn:
			if it.IsGeneric() {
				b.generic[it.Name] = it
			}
			if it.Intrinsic != "" {
				b.intrinsics[it.Name] = it.Intrinsic
			}
		case *ast.Event:
			b.eventTags[it.Name] = tag
			b.eventArity[it.Name] = len(it.Fields)
			tag++
		}
	}
}

// emitFn lowers one function (or one monomorphized copy of one) under the
// given label, with subst binding any size parameters.
func (b *Builder) emitFn(fn *ast.Fn, label string, subst map[string]uint64) {
	b.stack = NewManager(b.tc)
	b.varTys = make(map[string]types.Ty)
	b.sizeSubst = subst
	b.tempRAM = b.tc.SpillRAMBase + (1 << 16)

	b.emit(FnStart{Label: label})

	// Parameters are already on the real stack at entry, pushed left to
	// right by the caller; register them in the model in the same order.
	for _, p := range fn.Params {
		ty := b.resolveTy(p.Ty)
		b.varTys[p.Name] = ty
		b.stack.PushNamed(p.Name, b.width(ty))
	}

	for _, s := range fn.Body {
		b.lowerStmt(s)
	}

	if fn.ReturnTy != nil {
		// Swap-pop everything below the return value.
		retW := b.width(b.resolveTy(fn.ReturnTy))
		junk := b.stack.Depth() - retW
		for i := 0; i < junk; i++ {
			b.emit(Swap{Depth: retW}, Pop{N: 1})
		}
		for b.stack.EntryCount() > 1 {
			b.stack.DropTop(1)
		}
	} else {
		b.emit(b.stack.Pop(b.stack.EntryCount())...)
	}

	b.emit(Return{}, FnEnd{})
}

// width is types.Width against the builder's target configuration.
func (b *Builder) width(ty types.Ty) int {
	return types.Width(ty, b.tc)
}

// resolveTy converts a syntactic type into a semantic one, substituting
// active size parameters (spec.md §4.4 "Generic monomorphization in L").
// Lookup failures fall back to Field per the builder's internal-
// inconsistency failure semantics.
func (b *Builder) resolveTy(t ast.Type) types.Ty {
	switch v := t.(type) {
	case *ast.FieldType:
		return types.Field{}
	case *ast.XFieldType:
		return types.XField{}
	case *ast.BoolType:
		return types.Bool{}
	case *ast.U32Type:
		return types.U32{}
	case *ast.DigestType:
		return types.Digest{}
	case *ast.ArrayType:
		size := v.Size.Lit
		if v.Size.IsParam {
			if n, ok := b.sizeSubst[v.Size.Param]; ok {
				size = n
			} else {
				size = 1
			}
		}
		return types.Array{Elem: b.resolveTy(v.Elem), Size: size}
	case *ast.TupleType:
		elems := make([]types.Ty, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = b.resolveTy(e)
		}
		return types.Tuple{Elems: elems}
	case *ast.NamedType:
		if s, ok := b.exports.Structs[v.Name()]; ok {
			return s
		}
		return types.Field{}
	default:
		return types.Unit{}
	}
}

// nextResolution consumes the next entry of the per-call-site resolution
// log (spec.md §5: AST walk order, one cursor advance per generic call
// site). A cursor/name mismatch re-synchronizes by scanning, keeping the
// builder robust against a checker walk that visited items differently.
func (b *Builder) nextResolution(name string) (symbols.MonoInstance, bool) {
	rs := b.exports.CallResolutions
	if b.cursor < len(rs) && rs[b.cursor].Instance.Name == name {
		inst := rs[b.cursor].Instance
		b.cursor++
		return inst, true
	}
	for i := b.cursor; i < len(rs); i++ {
		if rs[i].Instance.Name == name {
			b.cursor = i + 1
			return rs[i].Instance, true
		}
	}
	for i := 0; i < len(rs); i++ {
		if rs[i].Instance.Name == name {
			return rs[i].Instance, true
		}
	}
	return symbols.MonoInstance{}, false
}

// peekResolution is nextResolution without the cursor advance, used by
// type queries that precede the actual lowering of a call site.
func (b *Builder) peekResolution(name string) (symbols.MonoInstance, bool) {
	saved := b.cursor
	inst, ok := b.nextResolution(name)
	b.cursor = saved
	return inst, ok
}

func typeText(t ast.Type) string {
	switch v := t.(type) {
	case *ast.FieldType:
		return "Field"
	case *ast.XFieldType:
		return "XField"
	case *ast.BoolType:
		return "Bool"
	case *ast.U32Type:
		return "U32"
	case *ast.DigestType:
		return "Digest"
	case *ast.ArrayType:
		if v.Size.IsParam {
			return fmt.Sprintf("[%s; %s]", typeText(v.Elem), v.Size.Param)
		}
		return fmt.Sprintf("[%s; %d]", typeText(v.Elem), v.Size.Lit)
	case *ast.NamedType:
		return v.Name()
	default:
		return "?"
	}
}
