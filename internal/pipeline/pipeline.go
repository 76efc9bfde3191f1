// Package pipeline threads a compile through a fixed sequence of stages,
// the way funvibe-funxy's pipeline.Pipeline runs its Processor chain: each
// stage reads and extends a shared context, and the chain keeps running
// after diagnostics so every stage's findings are collected in one pass.
// Stages that cannot proceed without earlier results guard on the
// context's error state themselves.
package pipeline

import (
	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/resolve"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/target"
	"github.com/mastercyb/trident/internal/tir"
)

// Context carries one compile's inputs, intermediate results, and
// accumulated diagnostics through the stage chain.
type Context struct {
	Entry    string
	Target   target.TargetConfig
	CfgFlags []string
	DepDirs  []string

	Modules []resolve.ModuleInfo
	Files   []*ast.File
	Exports map[string]*symbols.ModuleExports

	ProgramFile    *ast.File
	ProgramExports *symbols.ModuleExports

	Ops      []tir.Op
	Assembly string

	Diags []*diagnostics.DiagnosticError
	Err   error // non-diagnostic failure (I/O, internal)
}

// Failed reports whether a fatal diagnostic or a hard error has been
// recorded; downstream stages use it to skip work that needs sound input.
func (c *Context) Failed() bool {
	return c.Err != nil || diagnostics.HasErrors(c.Diags)
}

// Processor is one compile stage.
type Processor interface {
	Name() string
	Process(ctx *Context) *Context
}

// Pipeline is an ordered Processor chain.
type Pipeline struct {
	processors []Processor
}

// New builds a Pipeline from stages in execution order.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage in order. Stages run even after diagnostics so
// all findings from independent stages surface at once; a hard Err stops
// the chain.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, proc := range p.processors {
		if ctx.Err != nil {
			return ctx
		}
		ctx = proc.Process(ctx)
	}
	return ctx
}
