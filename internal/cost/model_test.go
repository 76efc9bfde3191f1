package cost

import (
	"testing"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestVectorAdd(t *testing.T) {
	a := Vector{1, 2, 3, 4, 5, 6}
	b := Vector{10, 20, 30, 40, 50, 60}
	require.Equal(t, Vector{11, 22, 33, 44, 55, 66}, a.Add(b))
}

func TestVectorMax(t *testing.T) {
	a := Vector{1, 20, 3, 40, 5, 60}
	b := Vector{10, 2, 30, 4, 50, 6}
	require.Equal(t, Vector{10, 20, 30, 40, 50, 60}, a.Max(b))
}

func TestVectorScale(t *testing.T) {
	v := Vector{1, 2, 3, 0, 0, 0}
	require.Equal(t, Vector{3, 6, 9, 0, 0, 0}, v.Scale(3))
}

func TestVectorScaleSaturates(t *testing.T) {
	v := Vector{}
	v[TblProcessor] = ^uint64(0) / 2
	scaled := v.Scale(3)
	require.Equal(t, ^uint64(0), scaled[TblProcessor])
}

func TestVectorMaxHeight(t *testing.T) {
	v := Vector{3, 9, 1, 7, 0, 2}
	require.Equal(t, uint64(9), v.MaxHeight())
}

func TestTritonModelStackOp(t *testing.T) {
	v := Triton.StackOp()
	require.Equal(t, uint64(1), v[TblProcessor])
}

func TestTritonModelBuiltinCostHash(t *testing.T) {
	v := Triton.BuiltinCost("hash")
	require.Equal(t, uint64(6), v[TblHash])
	require.Equal(t, uint64(1), v[TblProcessor])
}

func TestTritonModelBuiltinCostAsU32(t *testing.T) {
	v := Triton.BuiltinCost("as_u32")
	require.Equal(t, uint64(u32Worst), v[TblProcessor])
	require.Equal(t, uint64(1), v[TblRange])
}

func TestTritonModelBuiltinCostUnknownDefaultsToBaseline(t *testing.T) {
	v := Triton.BuiltinCost("pub_read3")
	require.Equal(t, Vector{1, 0, 0, 0, 0, 0}, v)
}

func TestTritonModelBinOpCostDivMod(t *testing.T) {
	v := Triton.BinOpCost(ast.OpDivMod)
	require.Equal(t, uint64(u32Worst), v[TblProcessor])
	require.Equal(t, uint64(2), v[TblRange])
}

func TestTritonModelCallOverhead(t *testing.T) {
	v := Triton.CallOverhead()
	require.Equal(t, uint64(2), v[TblProcessor])
	require.Equal(t, uint64(2), v[TblControl])
}
