// Package symbols implements the scope stack the type checker pushes and
// pops as it walks into blocks and function bodies, generalized from
// funvibe-funxy's internal/symbols.SymbolTable — Trident drops the
// trait/instance/dispatch machinery entirely (the language has no traits)
// and keeps only what a first-order, monomorphic checker needs: variable
// scoping, shadowing detection, and a flat constant/struct/function
// registry per module.
package symbols

import (
	"fmt"
	"strings"

	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/types"
)

// Symbol is one name bound in a scope: a local variable, a function
// parameter, or a loop variable.
type Symbol struct {
	Name    string
	Ty      types.Ty
	Mutable bool
}

// Scope is one lexical level of variable bindings.
type Scope struct {
	vars   map[string]Symbol
	parent *Scope
}

func newScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]Symbol), parent: parent}
}

// Table is a stack of scopes, innermost last. A fresh Table has a single
// base scope (the function's parameter scope).
type Table struct {
	top *Scope
}

// NewTable creates a Table with one base scope.
func NewTable() *Table {
	return &Table{top: newScope(nil)}
}

// Push enters a new nested scope (e.g. a block body, a for-loop body).
func (t *Table) Push() {
	t.top = newScope(t.top)
}

// Pop leaves the innermost scope.
func (t *Table) Pop() {
	if t.top.parent != nil {
		t.top = t.top.parent
	}
}

// Define binds name in the innermost scope, returning false if it was
// already bound in that exact scope (a hard redefinition error, not
// shadowing — shadowing across scope boundaries is merely a warning the
// checker reports via Shadows).
func (t *Table) Define(name string, sym Symbol) bool {
	if _, exists := t.top.vars[name]; exists {
		return false
	}
	t.top.vars[name] = sym
	return true
}

// Lookup searches from the innermost scope outward.
func (t *Table) Lookup(name string) (Symbol, bool) {
	for s := t.top; s != nil; s = s.parent {
		if sym, ok := s.vars[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// Shadows reports whether name is already bound in an enclosing (not the
// current) scope — used to emit WarnShadowing without rejecting the
// rebinding outright.
func (t *Table) Shadows(name string) bool {
	for s := t.top.parent; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			return true
		}
	}
	return false
}

// ModuleExports is the set of names (and their resolved types) a checked
// module makes visible to importers: functions, constants, structs, and
// events, indexed both by their qualified dotted name and by the short
// alias spec.md §4.2 requires ("std.hash.tip5" and "hash.tip5" both
// resolve to the same export).
type ModuleExports struct {
	ModuleName string
	Functions  map[string]FuncSig
	Constants  map[string]ConstSig
	Structs    map[string]types.Struct
	Events     map[string]EventSig

	// Warnings is every advisory diagnostic collected while checking this
	// module (unused imports, redundant as_u32, loop-bound waste, ...).
	Warnings []*diagnostics.DiagnosticError

	// MonoInstances is the deduplicated, first-occurrence-order list of
	// generic instantiations this module's bodies call for (spec.md §4.2,
	// §5 "deduplicated (first occurrence kept)").
	MonoInstances []MonoInstance

	// CallResolutions is every generic call site's resolution, in AST walk
	// order; the TIR builder consumes this list with a single advancing
	// cursor, one entry per generic call site encountered (spec.md §5).
	CallResolutions []CallResolution
}

// MonoInstance uniquely identifies one monomorphized copy of a generic
// function by its name and its concrete size arguments (spec.md §3
// invariants).
type MonoInstance struct {
	Name     string
	SizeArgs []uint64
}

// MangledName computes the deterministic label spec.md §4.4 requires for a
// monomorphized function copy: "<fn>__N<size1>_<size2>_...".
func (m MonoInstance) MangledName() string {
	parts := make([]string, len(m.SizeArgs))
	for i, s := range m.SizeArgs {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return m.Name + "__N" + strings.Join(parts, "_")
}

// Key is a comparable identity used to deduplicate MonoInstances.
func (m MonoInstance) Key() string {
	return m.MangledName()
}

// CallResolution is one generic call site's resolved instance, recorded in
// the order the checker's AST walk encounters it.
type CallResolution struct {
	Instance MonoInstance
}

// FuncSig is the resolved, non-generic signature of an exported function;
// generic functions are exported in unresolved form and only gain a
// concrete FuncSig per call site via monomorphization.
type FuncSig struct {
	Name       string
	TypeParams []string
	Params     []types.Ty
	ReturnTy   types.Ty
	IsPure     bool
}

// ConstSig is an exported integer constant.
type ConstSig struct {
	Name  string
	Ty    types.Ty
	Value uint64
}

// EventSig is an exported event's field list (every field is a Field).
type EventSig struct {
	Name   string
	Fields []string
}

// NewModuleExports builds an empty export set for a module name.
func NewModuleExports(moduleName string) *ModuleExports {
	return &ModuleExports{
		ModuleName: moduleName,
		Functions:  make(map[string]FuncSig),
		Constants:  make(map[string]ConstSig),
		Structs:    make(map[string]types.Struct),
		Events:     make(map[string]EventSig),
	}
}

// Merge folds another module's exports into the importer's lookup space
// under both its qualified name (modName.symbol) and an unqualified short
// alias (symbol), per spec.md §4.2. A short-alias collision is left to the
// caller to detect (the second Merge silently wins, matching declaration
// order — checked modules are processed in topological order so this
// matches "last import wins" for diamond dependencies).
func Merge(into *ModuleExports, from *ModuleExports) {
	for name, f := range from.Functions {
		into.Functions[from.ModuleName+"."+name] = f
		into.Functions[name] = f
	}
	for name, c := range from.Constants {
		into.Constants[from.ModuleName+"."+name] = c
		into.Constants[name] = c
	}
	for name, s := range from.Structs {
		into.Structs[from.ModuleName+"."+name] = s
		into.Structs[name] = s
	}
	for name, e := range from.Events {
		into.Events[from.ModuleName+"."+name] = e
		into.Events[name] = e
	}
}
