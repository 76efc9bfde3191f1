package symbols

import (
	"testing"

	"github.com/mastercyb/trident/internal/types"
	"github.com/stretchr/testify/require"
)

func TestScopeLookupThroughParents(t *testing.T) {
	tbl := NewTable()
	require.True(t, tbl.Define("x", Symbol{Name: "x", Ty: types.Field{}}))
	tbl.Push()
	sym, ok := tbl.Lookup("x")
	require.True(t, ok)
	require.Equal(t, "x", sym.Name)
	tbl.Pop()
}

func TestRedefinitionInSameScopeFails(t *testing.T) {
	tbl := NewTable()
	require.True(t, tbl.Define("x", Symbol{Name: "x"}))
	require.False(t, tbl.Define("x", Symbol{Name: "x"}))
}

func TestShadowingAcrossScopes(t *testing.T) {
	tbl := NewTable()
	tbl.Define("x", Symbol{Name: "x"})
	tbl.Push()
	require.True(t, tbl.Shadows("x"))
	require.True(t, tbl.Define("x", Symbol{Name: "x"}))
	tbl.Pop()
	require.False(t, tbl.Shadows("x"))
}

func TestPopForgetsInnerBindings(t *testing.T) {
	tbl := NewTable()
	tbl.Push()
	tbl.Define("inner", Symbol{Name: "inner"})
	tbl.Pop()
	_, ok := tbl.Lookup("inner")
	require.False(t, ok)
}

func TestMangledNameDeterministic(t *testing.T) {
	m := MonoInstance{Name: "sum", SizeArgs: []uint64{3, 7}}
	require.Equal(t, "sum__N3_7", m.MangledName())
	require.Equal(t, m.MangledName(), m.Key())
}

func TestMergeRegistersQualifiedAndShortNames(t *testing.T) {
	from := NewModuleExports("std.hash")
	from.Functions["tip5"] = FuncSig{Name: "tip5", ReturnTy: types.Digest{}}
	from.Constants["RATE"] = ConstSig{Name: "RATE", Ty: types.Field{}, Value: 10}

	into := NewModuleExports("main")
	Merge(into, from)

	require.Contains(t, into.Functions, "std.hash.tip5")
	require.Contains(t, into.Functions, "tip5")
	require.Contains(t, into.Constants, "std.hash.RATE")
	require.Contains(t, into.Constants, "RATE")
}
