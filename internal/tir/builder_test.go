package tir

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/parser"
	"github.com/mastercyb/trident/internal/symbols"
	"github.com/mastercyb/trident/internal/target"
	"github.com/mastercyb/trident/internal/typecheck"
	"github.com/stretchr/testify/require"
)

// buildSource parses, checks, and lowers one source string.
func buildSource(t *testing.T, src string) ([]Op, *symbols.ModuleExports) {
	t.Helper()
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)
	checker := typecheck.NewChecker(target.Triton(), nil)
	exports, diags := checker.CheckFile(f, nil)
	require.False(t, diagnostics.HasErrors(diags), "check failed: %v", diags)
	b := NewBuilder(target.Triton(), exports, nil)
	return b.BuildFile(f), exports
}

func countOps[T Op](ops []Op) int {
	n := 0
	var walk func([]Op)
	walk = func(list []Op) {
		for _, op := range list {
			if _, ok := op.(T); ok {
				n++
			}
			switch v := op.(type) {
			case IfElse:
				walk(v.Cond)
				walk(v.Then)
				walk(v.Else)
			case IfOnly:
				walk(v.Cond)
				walk(v.Then)
			case Loop:
				walk(v.Body)
			}
		}
	}
	walk(ops)
	return n
}

func fnLabels(ops []Op) []string {
	var out []string
	for _, op := range ops {
		if fs, ok := op.(FnStart); ok {
			out = append(out, fs.Label)
		}
	}
	return out
}

func TestBuildProgramEmitsEntry(t *testing.T) {
	ops, _ := buildSource(t, "program p\nfn main() {\n  let x = 1\n}\n")
	require.IsType(t, Entry{}, ops[0])
	require.Equal(t, "main", ops[0].(Entry).Label)
}

func TestBuildModuleHasNoEntry(t *testing.T) {
	ops, _ := buildSource(t, "module m\npub fn f() -> Field {\n  return 1\n}\n")
	require.Zero(t, countOps[Entry](ops))
}

func TestFunctionBracketedByStartEnd(t *testing.T) {
	ops, _ := buildSource(t, "module m\nfn f() -> Field {\n  return 7\n}\n")
	require.Equal(t, []string{"f"}, fnLabels(ops))
	require.Equal(t, 1, countOps[FnEnd](ops))
	require.Equal(t, 1, countOps[Return](ops))
}

func TestSpillTriggeredByTwentyBindings(t *testing.T) {
	var b strings.Builder
	b.WriteString("module m\nfn f() {\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "  let v%d = %d\n", i, i)
	}
	// Reading the first binding forces a reload of the spilled value.
	b.WriteString("  let z = v0 + 1\n}\n")

	ops, _ := buildSource(t, b.String())
	require.GreaterOrEqual(t, countOps[WriteMem](ops), 1, "expected at least one spill")
	require.GreaterOrEqual(t, countOps[ReadMem](ops), 1, "expected at least one reload")
}

func TestMonomorphizationEmitsDistinctCopies(t *testing.T) {
	src := "program p\n" +
		"fn sum<N>(a: [Field; N]) -> Field {\n  return a[0]\n}\n" +
		"fn main() {\n  let x = sum([1, 2, 3])\n  let y = sum([4, 5, 6, 7])\n}\n"
	ops, exports := buildSource(t, src)

	require.Len(t, exports.MonoInstances, 2)
	require.Equal(t, []uint64{3}, exports.MonoInstances[0].SizeArgs)
	require.Equal(t, []uint64{4}, exports.MonoInstances[1].SizeArgs)
	require.Len(t, exports.CallResolutions, 2)

	labels := fnLabels(ops)
	require.Contains(t, labels, "sum__N3")
	require.Contains(t, labels, "sum__N4")
	require.Contains(t, labels, "main")
}

func TestGenericCallSitesUseMangledLabels(t *testing.T) {
	src := "program p\n" +
		"fn first<N>(a: [Field; N]) -> Field {\n  return a[0]\n}\n" +
		"fn main() {\n  let x = first([1, 2])\n}\n"
	ops, _ := buildSource(t, src)

	var calls []string
	var walk func([]Op)
	walk = func(list []Op) {
		for _, op := range list {
			if c, ok := op.(Call); ok {
				calls = append(calls, c.Label)
			}
		}
	}
	walk(ops)
	require.Contains(t, calls, "first__N2")
}

func TestIfElseBuildsNestedBodies(t *testing.T) {
	src := "module m\nfn f(c: Bool) -> Field {\n" +
		"  let mut x = 0\n  if c {\n    x = 1\n  } else {\n    x = 2\n  }\n  return x\n}\n"
	ops, _ := buildSource(t, src)
	require.Equal(t, 1, countOps[IfElse](ops))
}

func TestForLoopBuildsNestedLoop(t *testing.T) {
	src := "module m\nfn f() {\n  for i in 0..5 {\n    let x = i + 1\n  }\n}\n"
	ops, _ := buildSource(t, src)
	require.Equal(t, 1, countOps[Loop](ops))
	for _, op := range ops {
		if l, ok := op.(Loop); ok {
			require.Equal(t, uint64(5), l.Count)
		}
	}
}

func TestForLoopBoundOverridesConstantEnd(t *testing.T) {
	src := "module m\nfn f(n: Field) {\n  for i in 0..n bounded 8 {\n    let x = i\n  }\n}\n"
	ops, _ := buildSource(t, src)
	found := false
	for _, op := range ops {
		if l, ok := op.(Loop); ok {
			found = true
			require.Equal(t, uint64(8), l.Count)
		}
	}
	require.True(t, found)
}

func TestRuntimeIndexUsesTempRAM(t *testing.T) {
	src := "module m\nfn f(a: [Field; 4], i: U32) -> Field {\n  return a[i]\n}\n"
	ops, _ := buildSource(t, src)
	require.GreaterOrEqual(t, countOps[WriteMem](ops), 1)
	require.GreaterOrEqual(t, countOps[ReadMem](ops), 1)
}

func TestConstantIndexStaysOnStack(t *testing.T) {
	src := "module m\nfn f(a: [Field; 4]) -> Field {\n  return a[1]\n}\n"
	ops, _ := buildSource(t, src)
	require.Zero(t, countOps[WriteMem](ops))
	require.GreaterOrEqual(t, countOps[Dup](ops), 1)
}

func TestIntrinsicInlinesRawInstruction(t *testing.T) {
	src := "module std.vm\n#[intrinsic(xinvert)]\nfn xinv(x: XField) -> XField\n" +
		"fn f(x: XField) -> XField {\n  return xinv(x)\n}\n"
	ops, _ := buildSource(t, src)
	var raws []string
	for _, op := range ops {
		if r, ok := op.(Raw); ok {
			raws = append(raws, r.Text)
		}
	}
	require.Contains(t, raws, "xinvert")
}

func TestSealPadsToHashRate(t *testing.T) {
	src := "program p\nevent Done { a: Field }\nfn main() {\n  seal Done(a: 7)\n}\n"
	ops, _ := buildSource(t, src)
	require.Equal(t, 1, countOps[Hash](ops))
	require.GreaterOrEqual(t, countOps[PubWrite](ops), 1)
	// tag + 1 field + 8 zero pads = hash rate 10.
	pushes := 0
	var walk func([]Op)
	walk = func(list []Op) {
		for _, op := range list {
			if p, ok := op.(Push); ok && p.Value == 0 {
				pushes++
			}
		}
	}
	walk(ops)
	require.GreaterOrEqual(t, pushes, 8)
}

func TestRevealWritesTagThenFields(t *testing.T) {
	src := "program p\nevent Hit { x: Field, y: Field }\nfn main() {\n  reveal Hit(x: 1, y: 2)\n}\n"
	ops, _ := buildSource(t, src)
	require.Equal(t, 3, countOps[PubWrite](ops)) // tag + two fields
}

func TestEventTagsFollowDeclarationOrder(t *testing.T) {
	src := "program p\nevent A { x: Field }\nevent B { x: Field }\n" +
		"fn main() {\n  reveal B(x: 1)\n}\n"
	ops, _ := buildSource(t, src)
	// The first push of main's body is B's tag, which is 1.
	var tag *uint64
	seenMain := false
	for _, op := range ops {
		if fs, ok := op.(FnStart); ok && fs.Label == "main" {
			seenMain = true
			continue
		}
		if !seenMain {
			continue
		}
		if p, ok := op.(Push); ok {
			v := p.Value
			tag = &v
			break
		}
	}
	require.NotNil(t, tag)
	require.Equal(t, uint64(1), *tag)
}

func TestAsmForOtherTargetOmitted(t *testing.T) {
	src := "module m\nfn f() {\n  asm target other (0) {\n    nop nop\n  }\n}\n"
	ops, _ := buildSource(t, src)
	require.Zero(t, countOps[Raw](ops))
}

func TestAsmForCurrentTargetEmitted(t *testing.T) {
	src := "module m\nfn f() {\n  asm target triton (0) {\n    hash\n  }\n}\n"
	ops, _ := buildSource(t, src)
	require.Equal(t, 1, countOps[Raw](ops))
}

func TestMatchLowersDispatchPerLiteralArm(t *testing.T) {
	src := "module m\nfn f(x: Field) {\n  match x {\n    1 => {\n      let a = 1\n    }\n    _ => {\n      let b = 2\n    }\n  }\n}\n"
	ops, _ := buildSource(t, src)
	require.Equal(t, 1, countOps[IfOnly](ops))
}
