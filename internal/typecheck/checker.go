// Package typecheck implements the type checker and monomorphizer (T in
// spec.md §1), generalized from funvibe-funxy's internal/analyzer —
// specifically its SemanticAnalyzerProcessor, which accumulates diagnostics
// onto a shared context instead of aborting on the first error. Trident
// keeps that accumulate-and-continue shape but drops Funxy's dynamic-typing
// inference entirely: every expression here resolves to exactly one of the
// small closed set of types.Ty values, not a runtime-checked dynamic type.
package typecheck

import (
	"fmt"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/config"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/target"
	"github.com/mastercyb/trident/internal/token"
	"github.com/mastercyb/trident/internal/types"
)

// genericSizeSentinel marks an Array width that depends on an as-yet-
// unresolved generic size parameter, used only while type-checking a
// generic function's own (unmonomorphized) body. It is never exposed past
// the checker: every call site's concrete instantiation substitutes real
// values before the TIR builder ever sees a width.
const genericSizeSentinel = ^uint64(0)

// Checker holds all per-file state for one CheckFile call. A fresh Checker
// is constructed per file per spec.md §3 ("A TypeChecker instance is
// created per file").
type Checker struct {
	tc       target.TargetConfig
	cfgFlags map[string]bool
	builtins *Builtins

	file string // file path, for diagnostics

	structs map[string]types.Struct
	consts  map[string]symbols.ConstSig
	events  map[string]symbols.EventSig
	sigs    map[string]symbols.FuncSig // resolved: imports + this module's non-generic fns
	generic map[string]*ast.Fn         // this module's generic fn templates, by short name

	curFn         *ast.Fn
	curTypeParams map[string]bool
	u32Proven     map[string]bool

	monoSeen        map[string]bool
	monoInstances   []symbols.MonoInstance
	callResolutions []symbols.CallResolution

	usedPrefixes map[string]bool

	diags []*diagnostics.DiagnosticError
}

// NewChecker constructs a Checker for one target configuration and active
// cfg flag set.
func NewChecker(tc target.TargetConfig, cfgFlags []string) *Checker {
	flags := make(map[string]bool, len(cfgFlags))
	for _, f := range cfgFlags {
		flags[f] = true
	}
	return &Checker{
		tc:       tc,
		cfgFlags: flags,
		builtins: NewBuiltins(tc),
	}
}

// CheckFile implements spec.md §4.2's contract: imported exports are folded
// in, declarations are registered, recursion is checked, bodies are
// checked, and a ModuleExports (or a fatal diagnostic list) is produced.
func (c *Checker) CheckFile(file *ast.File, imports []*symbols.ModuleExports) (*symbols.ModuleExports, []*diagnostics.DiagnosticError) {
	c.file = file.Path
	c.structs = make(map[string]types.Struct)
	c.consts = make(map[string]symbols.ConstSig)
	c.events = make(map[string]symbols.EventSig)
	c.sigs = make(map[string]symbols.FuncSig)
	c.generic = make(map[string]*ast.Fn)
	c.monoSeen = make(map[string]bool)
	c.usedPrefixes = make(map[string]bool)
	c.diags = nil

	merged := symbols.NewModuleExports(file.Name)
	for _, imp := range imports {
		symbols.Merge(merged, imp)
	}
	for k, v := range merged.Functions {
		c.sigs[k] = v
	}
	for k, v := range merged.Constants {
		c.consts[k] = v
	}
	for k, v := range merged.Structs {
		c.structs[k] = v
	}
	for k, v := range merged.Events {
		c.events[k] = v
	}

	c.firstPass(file)
	if diagnostics.HasErrors(c.diags) {
		return nil, c.diags
	}

	if d := c.checkRecursion(file); d != nil {
		c.diags = append(c.diags, d)
		return nil, c.diags
	}

	for _, item := range file.Items {
		if !c.active(item) {
			continue
		}
		if fn, ok := item.(*ast.Fn); ok && fn.HasBody() {
			c.checkFn(fn)
		}
	}

	c.checkUnusedImports(file)

	if diagnostics.HasErrors(c.diags) {
		return nil, c.diags
	}

	out := c.buildExports(file.Name)
	return out, c.diags
}

// active reports whether an item's optional cfg tag is absent or present in
// the checker's active flag set (spec.md §4.2 "Conditional compilation").
func (c *Checker) active(item ast.Item) bool {
	cfg := item.Cfg()
	return cfg == "" || c.cfgFlags[cfg]
}

func (c *Checker) errf(tok token.Token, code diagnostics.Code, format string, args ...interface{}) {
	d := diagnostics.NewError(code, tok, fmt.Sprintf(format, args...))
	d.File = c.file
	c.diags = append(c.diags, d)
}

func (c *Checker) warnf(tok token.Token, code diagnostics.Code, format string, args ...interface{}) {
	d := diagnostics.NewWarning(code, tok, fmt.Sprintf(format, args...))
	d.File = c.file
	c.diags = append(c.diags, d)
}

// firstPass registers struct layouts, constants, events, and function
// signatures (spec.md §4.2 "First pass (declarations)").
func (c *Checker) firstPass(file *ast.File) {
	// Structs are pre-registered empty so mutually referencing field types
	// (including self-forward references across items) resolve; fields are
	// filled in a second sweep.
	for _, item := range file.Items {
		if !c.active(item) {
			continue
		}
		if s, ok := item.(*ast.Struct); ok {
			c.structs[s.Name] = types.Struct{Name: s.Name}
		}
	}
	for _, item := range file.Items {
		if !c.active(item) {
			continue
		}
		if s, ok := item.(*ast.Struct); ok {
			fields := make([]types.StructField, 0, len(s.Fields))
			for _, f := range s.Fields {
				ty, err := c.resolveType(f.Ty)
				if err != nil {
					c.diags = append(c.diags, err)
					continue
				}
				fields = append(fields, types.StructField{Name: f.Name, Ty: ty, IsPub: f.IsPub})
			}
			c.structs[s.Name] = types.Struct{Name: s.Name, Fields: fields}
		}
	}

	for _, item := range file.Items {
		if !c.active(item) {
			continue
		}
		switch it := item.(type) {
		case *ast.Const:
			ty := types.Ty(types.Field{})
			if it.Ty != nil {
				if rt, err := c.resolveType(it.Ty); err == nil {
					ty = rt
				} else {
					c.diags = append(c.diags, err)
				}
			}
			c.consts[it.Name] = symbols.ConstSig{Name: it.Name, Ty: ty, Value: it.Value}
		case *ast.Event:
			if len(it.Fields) > 9 {
				d := diagnostics.NewError(diagnostics.ErrEventArity, token.Token{},
					fmt.Sprintf("event %q declares %d fields, at most 9 allowed", it.Name, len(it.Fields)))
				d.File = c.file
				c.diags = append(c.diags, d)
			}
			names := make([]string, len(it.Fields))
			for i, f := range it.Fields {
				names[i] = f.Name
				if _, ok := f.Ty.(*ast.FieldType); !ok {
					d := diagnostics.NewError(diagnostics.ErrEventArity, token.Token{},
						fmt.Sprintf("event %q field %q must be of type Field", it.Name, f.Name))
					d.File = c.file
					c.diags = append(c.diags, d)
				}
			}
			c.events[it.Name] = symbols.EventSig{Name: it.Name, Fields: names}
		case *ast.Fn:
			c.registerFn(it, file.Name)
		}
	}
}

func (c *Checker) registerFn(fn *ast.Fn, moduleName string) {
	if fn.Intrinsic != "" {
		allowed := false
		for _, p := range config.AllowedIntrinsicPrefixes {
			if len(moduleName) >= len(p) && moduleName[:len(p)] == p {
				allowed = true
				break
			}
		}
		if !allowed {
			c.errf(fn.Tok, diagnostics.ErrIntrinsicModule,
				"#[intrinsic] is only allowed in vm.*, std.*, os.*, ext.* modules, not %q", moduleName)
		}
	}

	if fn.IsGeneric() {
		c.generic[fn.Name] = fn
		return
	}

	params := make([]types.Ty, len(fn.Params))
	for i, p := range fn.Params {
		ty, err := c.resolveType(p.Ty)
		if err != nil {
			c.diags = append(c.diags, err)
			ty = types.Field{}
		}
		params[i] = ty
	}
	var ret types.Ty = types.Unit{}
	if fn.ReturnTy != nil {
		if rt, err := c.resolveType(fn.ReturnTy); err == nil {
			ret = rt
		} else {
			c.diags = append(c.diags, err)
		}
	}
	c.sigs[fn.Name] = symbols.FuncSig{Name: fn.Name, Params: params, ReturnTy: ret, IsPure: fn.IsPure}
}

// buildExports assembles the ModuleExports returned to callers: every
// registered function signature, constant, struct, and event, pub or not
// (the TIR builder reads private ones too).
func (c *Checker) buildExports(moduleName string) *symbols.ModuleExports {
	out := symbols.NewModuleExports(moduleName)
	for name, sig := range c.sigs {
		out.Functions[name] = sig
	}
	for name, s := range c.consts {
		out.Constants[name] = s
	}
	for name, s := range c.structs {
		out.Structs[name] = s
	}
	for name, e := range c.events {
		out.Events[name] = e
	}
	out.Warnings = filterWarnings(c.diags)
	out.MonoInstances = c.monoInstances
	out.CallResolutions = c.callResolutions
	return out
}

func filterWarnings(diags []*diagnostics.DiagnosticError) []*diagnostics.DiagnosticError {
	var out []*diagnostics.DiagnosticError
	for _, d := range diags {
		if d.Severity == diagnostics.Warning {
			out = append(out, d)
		}
	}
	return out
}

// checkUnusedImports implements spec.md §4.2's "Unused-import warning":
// after checking, every `use` not referenced by full or short name in any
// Call or dotted Var is flagged.
func (c *Checker) checkUnusedImports(file *ast.File) {
	for _, u := range file.Uses {
		full := u.String()
		short := u.Segments[len(u.Segments)-1]
		if c.usedPrefixes[full] || c.usedPrefixes[short] {
			continue
		}
		tok := token.Token{Line: u.Span.Line, Column: u.Span.Col}
		c.warnf(tok, diagnostics.WarnUnusedImport, "unused import %q", full)
	}
}

func (c *Checker) markUsed(path []string) {
	if len(path) < 2 {
		return
	}
	prefix := path[0]
	for i := 1; i < len(path)-1; i++ {
		prefix += "." + path[i]
	}
	c.usedPrefixes[prefix] = true
	c.usedPrefixes[path[0]] = true
}
