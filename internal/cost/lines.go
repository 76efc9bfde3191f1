package cost

import (
	"sort"

	"github.com/mastercyb/trident/internal/ast"
)

// LineCost is one statement's cost attributed to a 1-based source line,
// the per-statement variant of spec.md §4.3 used for code-lens
// annotations.
type LineCost struct {
	Line int
	Cost Vector
}

// AnalyzeLines walks every function body attributing each top-level
// statement's cost to its source line. Statements sharing a line
// accumulate. Line numbers come from the line a span records; a span
// without one falls back to its byte offset binary-searched against
// precomputed line starts.
func (a *Analyzer) AnalyzeLines(file *ast.File) []LineCost {
	a.cache = make(map[string]Vector)
	a.inFlight = make(map[string]bool)
	a.fns = make(map[string]*ast.Fn)
	for _, item := range file.Items {
		if !a.active(item) {
			continue
		}
		if fn, ok := item.(*ast.Fn); ok && fn.HasBody() && !fn.IsGeneric() {
			a.fns[fn.Name] = fn
		}
	}

	starts := lineStarts(file.Source)
	byLine := make(map[int]Vector)
	for _, item := range file.Items {
		if !a.active(item) {
			continue
		}
		fn, ok := item.(*ast.Fn)
		if !ok || !fn.HasBody() || fn.IsGeneric() {
			continue
		}
		for _, s := range fn.Body {
			line := lineOf(s.Pos(), starts)
			byLine[line] = byLine[line].Add(a.stmtCost(s))
		}
	}

	lines := make([]int, 0, len(byLine))
	for line := range byLine {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	out := make([]LineCost, len(lines))
	for i, line := range lines {
		out[i] = LineCost{Line: line, Cost: byLine[line]}
	}
	return out
}

// lineStarts precomputes the byte offset of each line's first character.
func lineStarts(source string) []int {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf maps a span to its 1-based line: the carried line number when the
// parser recorded one, else a binary search of the span start offset
// against the line starts.
func lineOf(span ast.Span, starts []int) int {
	if span.Line > 0 {
		return span.Line
	}
	idx := sort.Search(len(starts), func(i int) bool { return starts[i] > span.Start })
	return idx
}
