package compiler

import (
	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/emit"
	"github.com/mastercyb/trident/internal/parser"
	"github.com/mastercyb/trident/internal/pipeline"
	"github.com/mastercyb/trident/internal/resolve"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/tir"
	"github.com/mastercyb/trident/internal/typecheck"
)

// resolveStage discovers the transitive module set from the entry file
// and orders it topologically.
type resolveStage struct{}

func (resolveStage) Name() string { return "resolve" }

func (resolveStage) Process(ctx *pipeline.Context) *pipeline.Context {
	r := resolve.NewResolver(ctx.DepDirs)
	modules, err := r.Resolve(ctx.Entry)
	if err != nil {
		if d, ok := err.(*diagnostics.DiagnosticError); ok {
			ctx.Diags = append(ctx.Diags, d)
		} else {
			ctx.Err = err
		}
		return ctx
	}
	ctx.Modules = modules
	return ctx
}

// parseStage parses every resolved module into its AST, accumulating
// parse diagnostics across all files before the check stage runs.
type parseStage struct{}

func (parseStage) Name() string { return "parse" }

func (parseStage) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Failed() {
		return ctx
	}
	for _, m := range ctx.Modules {
		f, errs := parser.Parse(m.Source, m.FilePath)
		f.Path = m.FilePath
		f.Source = m.Source
		ctx.Diags = append(ctx.Diags, errs...)
		ctx.Files = append(ctx.Files, f)
	}
	return ctx
}

// checkStage type-checks each file in topological order, feeding every
// module's exports to its dependents and recording the per-call-site
// resolution logs the build stage consumes.
type checkStage struct{}

func (checkStage) Name() string { return "check" }

func (checkStage) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Failed() {
		return ctx
	}
	ctx.Exports = make(map[string]*symbols.ModuleExports, len(ctx.Files))
	for i, f := range ctx.Files {
		var imports []*symbols.ModuleExports
		for _, depName := range ctx.Modules[i].Dependencies {
			if exp, ok := ctx.Exports[depName]; ok {
				imports = append(imports, exp)
			}
		}
		c := typecheck.NewChecker(ctx.Target, ctx.CfgFlags)
		exports, diags := c.CheckFile(f, imports)
		for _, d := range diags {
			if d.File == "" {
				d.File = f.Path
			}
		}
		ctx.Diags = append(ctx.Diags, diags...)
		if exports == nil {
			return ctx
		}
		ctx.Exports[f.Name] = exports
		if f.Kind == ast.KindProgram {
			ctx.ProgramFile = f
			ctx.ProgramExports = exports
		}
	}
	// A module-only compile (check/analyze of a library file) treats the
	// entry file as the subject.
	if ctx.ProgramFile == nil && len(ctx.Files) > 0 {
		last := ctx.Files[len(ctx.Files)-1]
		ctx.ProgramFile = last
		ctx.ProgramExports = ctx.Exports[last.Name]
	}
	return ctx
}

// buildStage lowers every file to TIR: the program file first, then each
// dependency module in resolution order.
type buildStage struct{}

func (buildStage) Name() string { return "build" }

func (buildStage) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Failed() {
		return ctx
	}
	// The program file leads so its entry dispatch is the first
	// instruction executed; dependency modules follow as labeled
	// subroutines.
	ordered := make([]*ast.File, 0, len(ctx.Files))
	if ctx.ProgramFile != nil {
		ordered = append(ordered, ctx.ProgramFile)
	}
	for _, f := range ctx.Files {
		if f != ctx.ProgramFile {
			ordered = append(ordered, f)
		}
	}
	for _, f := range ordered {
		exports := ctx.Exports[f.Name]
		if exports == nil {
			continue
		}
		b := tir.NewBuilder(ctx.Target, exports, ctx.CfgFlags)
		ctx.Ops = append(ctx.Ops, b.BuildFile(f)...)
	}
	return ctx
}

// emitStage renders the TIR as target assembly text.
type emitStage struct{}

func (emitStage) Name() string { return "emit" }

func (emitStage) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Failed() {
		return ctx
	}
	ctx.Assembly = emit.Program(ctx.Ops)
	return ctx
}
