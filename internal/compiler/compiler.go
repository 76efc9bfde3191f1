// Package compiler is the library facade of spec.md §6: compile, check,
// cost-analyze, document, and hash a project rooted at one entry file.
// Orchestration runs through internal/pipeline the way funvibe-funxy's
// pipeline chains its lexer/parser/analyzer processors.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/cost"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/hash"
	"github.com/mastercyb/trident/internal/pipeline"
)

// BuildError carries the diagnostic set of a failed compile; it renders
// as the first diagnostic's message with a count of the rest.
type BuildError struct {
	Diags []*diagnostics.DiagnosticError
}

func (e *BuildError) Error() string {
	if len(e.Diags) == 0 {
		return "compile failed"
	}
	first := e.Diags[0].Error()
	if len(e.Diags) == 1 {
		return first
	}
	return fmt.Sprintf("%s (and %d more)", first, len(e.Diags)-1)
}

func newPipeline() *pipeline.Pipeline {
	return pipeline.New(resolveStage{}, parseStage{}, checkStage{}, buildStage{}, emitStage{})
}

func run(entry string, opts CompileOptions) (*pipeline.Context, error) {
	ctx := &pipeline.Context{
		Entry:    entry,
		Target:   opts.Target,
		CfgFlags: opts.CfgFlags,
		DepDirs:  opts.DepDirs,
	}
	ctx = newPipeline().Run(ctx)
	if ctx.Err != nil {
		return ctx, ctx.Err
	}
	if diagnostics.HasErrors(ctx.Diags) {
		return ctx, &BuildError{Diags: ctx.Diags}
	}
	return ctx, nil
}

// CompileProject compiles the project rooted at entry to target assembly.
func CompileProject(entry string, opts CompileOptions) (string, error) {
	ctx, err := run(entry, opts)
	if err != nil {
		return "", err
	}
	return ctx.Assembly, nil
}

// CheckProject type-checks the project without emitting anything,
// returning nil when no fatal diagnostic was produced.
func CheckProject(entry string, opts CompileOptions) error {
	_, err := run(entry, opts)
	return err
}

// Warnings runs a check and returns the advisory diagnostics alongside
// any fatal failure, for callers that render both.
func Warnings(entry string, opts CompileOptions) ([]*diagnostics.DiagnosticError, error) {
	ctx, err := run(entry, opts)
	var warns []*diagnostics.DiagnosticError
	if ctx != nil {
		for _, d := range ctx.Diags {
			if d.Severity == diagnostics.Warning {
				warns = append(warns, d)
			}
		}
	}
	return warns, err
}

// AnalyzeCosts type-checks the project, then runs the cost analyzer over
// the program file with the Triton cost model (opts.Target does not select
// a different model).
func AnalyzeCosts(entry string, opts CompileOptions) (cost.ProgramCost, error) {
	ctx, err := run(entry, opts)
	if err != nil {
		return cost.ProgramCost{}, err
	}
	az := cost.NewAnalyzer(cost.Triton, opts.CfgFlags)
	return az.AnalyzeFile(ctx.ProgramFile), nil
}

// HashEntry computes per-function content hashes for the entry file.
func HashEntry(entry string, opts CompileOptions) (map[string]hash.ContentHash, error) {
	ctx, err := run(entry, opts)
	if err != nil {
		return nil, err
	}
	return hash.HashFile(ctx.ProgramFile), nil
}

// GenerateDocs renders a minimal markdown summary of the entry file's
// public surface — the thin collaborator stub of the documentation
// emitter, which is out of scope (spec.md §1).
func GenerateDocs(entry string, opts CompileOptions) (string, error) {
	ctx, err := run(entry, opts)
	if err != nil {
		return "", err
	}
	f := ctx.ProgramFile

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", f.Name)

	var names []string
	fns := make(map[string]*ast.Fn)
	for _, item := range f.Items {
		if fn, ok := item.(*ast.Fn); ok && fn.IsPub {
			names = append(names, fn.Name)
			fns[fn.Name] = fn
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fn := fns[name]
		fmt.Fprintf(&b, "## %s\n\n", name)
		for _, r := range fn.Requires {
			fmt.Fprintf(&b, "- requires: `%s`\n", r.Raw)
		}
		for _, e := range fn.Ensures {
			fmt.Fprintf(&b, "- ensures: `%s`\n", e.Raw)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
