package typecheck

import (
	"strings"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/diagnostics"
)

// checkRecursion implements spec.md §4.2's "Recursion check": a name→callee
// graph is built from every function body in the file (generic templates
// included, checked by their unmangled name since a cycle exists at the
// template level regardless of instantiation), then DFS'd for back edges.
// A cycle is a fatal error; the caller must stop before checking bodies.
func (c *Checker) checkRecursion(file *ast.File) *diagnostics.DiagnosticError {
	graph := make(map[string][]string)
	known := make(map[string]bool)
	for _, item := range file.Items {
		if fn, ok := item.(*ast.Fn); ok && fn.HasBody() {
			known[fn.Name] = true
		}
	}
	for _, item := range file.Items {
		fn, ok := item.(*ast.Fn)
		if !ok || !fn.HasBody() {
			continue
		}
		graph[fn.Name] = collectCallees(fn.Body, known)
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(graph))
	var stack []string

	var visit func(name string) *diagnostics.DiagnosticError
	visit = func(name string) *diagnostics.DiagnosticError {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), name)
			d := diagnostics.NewError(diagnostics.ErrRecursionCycle,
				tokOf(findFnByName(file, name)),
				"recursive call cycle detected: "+strings.Join(cycle, " -> "))
			d.File = c.file
			d.Help = "stack-machine targets do not support recursion; use loops instead"
			return d
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, callee := range graph[name] {
			if err := visit(callee); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

func findFnByName(file *ast.File, name string) *ast.Fn {
	for _, item := range file.Items {
		if fn, ok := item.(*ast.Fn); ok && fn.Name == name {
			return fn
		}
	}
	return &ast.Fn{}
}

// collectCallees walks a function body collecting the names of every
// locally-defined function it calls (builtins and cross-module calls are
// excluded: cross-module cycles are caught by the module resolver's own
// topological sort, and builtins cannot recurse).
func collectCallees(body []ast.Statement, known map[string]bool) []string {
	var out []string
	var walkExpr func(ast.Expression)
	var walkStmt func(ast.Statement)

	walkExpr = func(e ast.Expression) {
		switch v := e.(type) {
		case *ast.BinOp:
			walkExpr(v.Lhs)
			walkExpr(v.Rhs)
		case *ast.Call:
			if !v.IsDotted() && known[v.Name()] {
				out = append(out, v.Name())
			}
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.FieldAccess:
			walkExpr(v.Base)
		case *ast.Index:
			walkExpr(v.Base)
			walkExpr(v.Idx)
		case *ast.StructInit:
			for _, f := range v.Fields {
				walkExpr(f.Value)
			}
		case *ast.ArrayInit:
			for _, el := range v.Elems {
				walkExpr(el)
			}
		case *ast.TupleExpr:
			for _, el := range v.Elems {
				walkExpr(el)
			}
		}
	}

	walkStmt = func(s ast.Statement) {
		switch v := s.(type) {
		case *ast.Let:
			walkExpr(v.Init)
		case *ast.Assign:
			walkExpr(v.Value)
		case *ast.TupleAssign:
			walkExpr(v.Value)
		case *ast.If:
			walkExpr(v.Cond)
			for _, st := range v.Then {
				walkStmt(st)
			}
			for _, st := range v.Else {
				walkStmt(st)
			}
		case *ast.For:
			walkExpr(v.Start)
			walkExpr(v.End)
			for _, st := range v.Body {
				walkStmt(st)
			}
		case *ast.ExprStmt:
			walkExpr(v.Expr)
		case *ast.Return:
			if v.Value != nil {
				walkExpr(v.Value)
			}
		case *ast.Reveal:
			for _, f := range v.Fields {
				walkExpr(f.Value)
			}
		case *ast.Seal:
			for _, f := range v.Fields {
				walkExpr(f.Value)
			}
		case *ast.Match:
			walkExpr(v.Scrutinee)
			for _, arm := range v.Arms {
				for _, st := range arm.Body {
					walkStmt(st)
				}
			}
		}
	}

	for _, s := range body {
		walkStmt(s)
	}
	return out
}
