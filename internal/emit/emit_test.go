package emit

import (
	"strings"
	"testing"

	"github.com/mastercyb/trident/internal/tir"
	"github.com/stretchr/testify/require"
)

func TestSimpleOpsRender(t *testing.T) {
	asm := Program([]tir.Op{
		tir.Push{Value: 7},
		tir.Dup{Depth: 2},
		tir.Swap{Depth: 1},
		tir.Pop{N: 3},
		tir.Add{},
		tir.Mul{},
		tir.Eq{},
	})
	require.Equal(t, "push 7\ndup 2\nswap 1\npop 3\nadd\nmul\neq\n", asm)
}

func TestEntryRendersDispatchAndHalt(t *testing.T) {
	asm := Program([]tir.Op{tir.Entry{Label: "main"}})
	require.Equal(t, "call main\nhalt\n", asm)
}

func TestFunctionLabelAndReturn(t *testing.T) {
	asm := Program([]tir.Op{
		tir.FnStart{Label: "f"},
		tir.Push{Value: 1},
		tir.Return{},
		tir.FnEnd{},
	})
	require.Contains(t, asm, "f:\npush 1\nreturn\n")
}

func TestIOAndMemoryOps(t *testing.T) {
	asm := Program([]tir.Op{
		tir.PubRead{N: 1},
		tir.PubWrite{N: 5},
		tir.ReadMem{N: 2},
		tir.WriteMem{N: 1},
		tir.Divine{N: 5},
	})
	require.Equal(t, "read_io 1\nwrite_io 5\nread_mem 2\nwrite_mem 1\ndivine 5\n", asm)
}

func TestCommentAndRaw(t *testing.T) {
	asm := Program([]tir.Op{tir.Comment{Text: "sec ram"}, tir.Raw{Text: "xinvert"}})
	require.Equal(t, "// sec ram\nxinvert\n", asm)
}

func TestIfElseExpansion(t *testing.T) {
	asm := Program([]tir.Op{
		tir.FnStart{Label: "f"},
		tir.IfElse{
			Cond: []tir.Op{tir.Push{Value: 1}},
			Then: []tir.Op{tir.Push{Value: 10}, tir.Pop{N: 1}},
			Else: []tir.Op{tir.Push{Value: 20}, tir.Pop{N: 1}},
		},
		tir.Return{},
		tir.FnEnd{},
	})

	// Dispatch: flag + cond + two skiz-guarded calls.
	require.Contains(t, asm, "push 1\npush 1\nswap 1\nskiz\ncall _then_1\nskiz\ncall _else_2")
	// The subroutines come after the function's return.
	retIdx := strings.Index(asm, "return")
	thenIdx := strings.Index(asm, "_then_1:")
	require.Greater(t, thenIdx, retIdx)
	// The then body cancels the else dispatch flag.
	require.Contains(t, asm, "_then_1:\npop 1\npush 10\npop 1\npush 0\nreturn\n")
	require.Contains(t, asm, "_else_2:\npush 20\npop 1\nreturn\n")
}

func TestIfOnlyExpansion(t *testing.T) {
	asm := Program([]tir.Op{
		tir.IfOnly{
			Cond: []tir.Op{tir.Push{Value: 1}},
			Then: []tir.Op{tir.Push{Value: 42}, tir.Pop{N: 1}},
		},
	})
	require.Contains(t, asm, "push 1\nskiz\ncall _then_1")
	require.Contains(t, asm, "_then_1:\npush 42\npop 1\nreturn\n")
}

func TestLoopExpansionUsesRecurse(t *testing.T) {
	asm := Program([]tir.Op{
		tir.Loop{Count: 5, Body: []tir.Op{tir.Push{Value: 9}, tir.Pop{N: 1}}},
	})
	require.Contains(t, asm, "push 5\ncall _loop_1\npop 1")
	require.Contains(t, asm, "_loop_1:\ndup 0\npush 0\neq\nskiz\nreturn\npush 9\npop 1")
	require.Contains(t, asm, "push 18446744069414584320\nadd\nrecurse")
}

func TestNestedStructuredOpsFlushAllSubroutines(t *testing.T) {
	asm := Program([]tir.Op{
		tir.FnStart{Label: "f"},
		tir.Loop{Count: 2, Body: []tir.Op{
			tir.IfOnly{Cond: []tir.Op{tir.Push{Value: 1}}, Then: []tir.Op{tir.Push{Value: 3}, tir.Pop{N: 1}}},
		}},
		tir.Return{},
		tir.FnEnd{},
	})
	require.Contains(t, asm, "_loop_1:")
	require.Contains(t, asm, "_then_2:")
}

func TestSpongeAndMerkleOps(t *testing.T) {
	asm := Program([]tir.Op{
		tir.Sponge{Kind: tir.SpongeInit},
		tir.Sponge{Kind: tir.SpongeAbsorb},
		tir.Sponge{Kind: tir.SpongeSqueeze},
		tir.Sponge{Kind: tir.SpongeAbsorbMem},
		tir.MerkleStep{},
		tir.MerkleStep{Mem: true},
		tir.Hash{},
	})
	require.Equal(t,
		"sponge_init\nsponge_absorb\nsponge_squeeze\nsponge_absorb_mem\nmerkle_step\nmerkle_step_mem\nhash\n",
		asm)
}
