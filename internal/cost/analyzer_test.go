package cost

import (
	"testing"

	"github.com/mastercyb/trident/internal/parser"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeFileSimpleFunction(t *testing.T) {
	src := "module test\n\nfn add(a: Field, b: Field) -> Field {\n  return a + b\n}\n"
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)

	az := NewAnalyzer(Triton, nil)
	pc := az.AnalyzeFile(f)

	require.Len(t, pc.Functions, 1)
	require.Equal(t, "add", pc.Functions[0].Name)
	require.Greater(t, pc.Functions[0].Cost[TblProcessor], uint64(0))
}

func TestAnalyzeFileMainGetsCallOverheadOnce(t *testing.T) {
	src := "module test\n\nfn main() {\n  let x = 1\n}\n"
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)

	az := NewAnalyzer(Triton, nil)
	pc := az.AnalyzeFile(f)

	require.Equal(t, uint64(4), pc.Total[TblProcessor]) // main body 2 + CallOverhead 2
}

func TestAnalyzeFileForLoopScalesByIterationCount(t *testing.T) {
	src := "module test\n\nfn sum() {\n  for i in 0..5 {\n    let x = 1\n  }\n}\n"
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)

	az := NewAnalyzer(Triton, nil)
	pc := az.AnalyzeFile(f)
	require.Len(t, pc.Functions, 1)

	bodyCost := pc.Functions[0].Cost
	require.GreaterOrEqual(t, bodyCost[TblProcessor], uint64(5*2))
}

func TestAnalyzeFileAttestationAndPaddedHeight(t *testing.T) {
	src := "module test\n\nfn main() {\n  let x = 1\n  let y = 2\n}\n"
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)

	az := NewAnalyzer(Triton, nil)
	pc := az.AnalyzeFile(f)

	require.Greater(t, pc.PaddedHeight, uint64(0))
	require.Equal(t, pc.PaddedHeight&(pc.PaddedHeight-1), uint64(0), "padded height must be a power of two")
	require.Greater(t, pc.EstimatedProvingSecs, 0.0)
}

func TestAnalyzeFileLoopBoundWasteReportsAllLoops(t *testing.T) {
	src := "module test\n\n" +
		"fn a() {\n  for i in 0..1 bounded 100 {\n    let x = 1\n  }\n}\n\n" +
		"fn b() {\n  for i in 0..1 bounded 200 {\n    let x = 1\n  }\n}\n"
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)

	az := NewAnalyzer(Triton, nil)
	pc := az.AnalyzeFile(f)
	require.Len(t, pc.LoopBoundWaste, 2)
	require.Equal(t, "a", pc.LoopBoundWaste[0].Function)
	require.Equal(t, "b", pc.LoopBoundWaste[1].Function)
}

func TestNextPowerOfTwo(t *testing.T) {
	require.Equal(t, uint64(1), nextPowerOfTwo(0))
	require.Equal(t, uint64(1), nextPowerOfTwo(1))
	require.Equal(t, uint64(8), nextPowerOfTwo(5))
	require.Equal(t, uint64(8), nextPowerOfTwo(8))
	require.Equal(t, uint64(16), nextPowerOfTwo(9))
}

func TestCeilDiv(t *testing.T) {
	require.Equal(t, uint64(0), ceilDiv(10, 0))
	require.Equal(t, uint64(1), ceilDiv(10, 10))
	require.Equal(t, uint64(2), ceilDiv(11, 10))
}
