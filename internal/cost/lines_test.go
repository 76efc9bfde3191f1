package cost

import (
	"testing"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/parser"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeLinesAttributesStatementCosts(t *testing.T) {
	src := "module test\n\nfn f() {\n  let x = 1\n  let y = 2\n}\n"
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)

	az := NewAnalyzer(Triton, nil)
	lines := az.AnalyzeLines(f)

	require.Len(t, lines, 2)
	require.Equal(t, 4, lines[0].Line)
	require.Equal(t, 5, lines[1].Line)
	require.Equal(t, uint64(2), lines[0].Cost[TblProcessor]) // push + stack_op
}

func TestAnalyzeLinesSkipsGenericTemplates(t *testing.T) {
	src := "module test\n\nfn g<N>(a: [Field; N]) -> Field {\n  return a[0]\n}\n"
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)

	az := NewAnalyzer(Triton, nil)
	require.Empty(t, az.AnalyzeLines(f))
}

func TestLineOfFallsBackToBinarySearch(t *testing.T) {
	starts := lineStarts("ab\ncd\nef\n")
	require.Equal(t, []int{0, 3, 6, 9}, starts)
	require.Equal(t, 1, lineOf(ast.Span{Start: 1}, starts))
	require.Equal(t, 2, lineOf(ast.Span{Start: 3}, starts))
	require.Equal(t, 3, lineOf(ast.Span{Start: 8}, starts))
}
