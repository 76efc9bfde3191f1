// Package cost implements the cost model and analyzer (C in spec.md §1),
// generalized from funvibe-funxy's internal/analyzer — specifically the
// shape of a pluggable, target-agnostic capability the analyzer never holds
// target-specific state against (spec.md §9 "Cost model as a capability").
// Funxy has no cost accounting of its own; this package's algorithm is
// grounded on original_source's `cost/model` and `cost/analyzer` modules,
// expressed with the same AST-walk-and-memoize shape funvibe-funxy's
// analyzer uses for its own per-node passes.
package cost

import (
	"github.com/mastercyb/trident/internal/ast"
)

// TableCount is the number of execution tables the analyzer tracks:
// processor, hash, range-check, stack, RAM, and control-stack rows.
const TableCount = 6

const (
	TblProcessor = iota
	TblHash
	TblRange
	TblStack
	TblRAM
	TblControl
)

// Vector is a fixed-arity cost tuple, one slot per execution table.
type Vector [TableCount]uint64

// Zero is the additive identity.
var Zero = Vector{}

// Add returns the componentwise sum.
func (v Vector) Add(o Vector) Vector {
	var r Vector
	for i := range v {
		r[i] = v[i] + o[i]
	}
	return r
}

// Max returns the componentwise maximum.
func (v Vector) Max(o Vector) Vector {
	var r Vector
	for i := range v {
		if v[i] > o[i] {
			r[i] = v[i]
		} else {
			r[i] = o[i]
		}
	}
	return r
}

// Scale multiplies every slot by k (saturating on overflow).
func (v Vector) Scale(k uint64) Vector {
	var r Vector
	for i := range v {
		prod := v[i] * k
		if v[i] != 0 && prod/v[i] != k {
			prod = ^uint64(0) // saturate
		}
		r[i] = prod
	}
	return r
}

// MaxHeight is the maximum over every slot.
func (v Vector) MaxHeight() uint64 {
	m := uint64(0)
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

// Model is the cost-model capability spec.md §4.3 describes: one
// implementation per target VM, exposing a cost vector per builtin and
// binop plus a handful of fixed per-construct overheads. The analyzer
// never branches on which Model it was given.
type Model interface {
	TableNames() []string
	TableShortNames() []string
	TargetName() string
	BuiltinCost(name string) Vector
	BinOpCost(op ast.BinOpKind) Vector
	CallOverhead() Vector
	StackOp() Vector
	IfOverhead() Vector
	LoopOverhead() Vector
	HashRowsPerPermutation() uint64
}

// tritonModel is the concrete cost model for the Triton VM: 6 tables,
// U32_WORST = 33 processor cycles for the worst-case u32 operation, a hash
// op costing one processor row plus six hash rows plus one stack row, and a
// call overhead that bumps the processor table by 2 and the control-stack
// table by 2 (push/pop the return address).
type tritonModel struct{}

// Triton is the default cost model, grounded on original_source's
// `cost/model` constants for the Triton VM target.
var Triton Model = tritonModel{}

const u32Worst = 33

func (tritonModel) TargetName() string { return "triton" }

func (tritonModel) TableNames() []string {
	return []string{"processor", "hash", "range-check", "stack", "ram", "control-stack"}
}

func (tritonModel) TableShortNames() []string {
	return []string{"proc", "hash", "range", "stack", "ram", "ctrl"}
}

func (tritonModel) StackOp() Vector {
	var v Vector
	v[TblProcessor] = 1
	return v
}

func (m tritonModel) CallOverhead() Vector {
	var v Vector
	v[TblProcessor] = 2
	v[TblControl] = 2
	return v
}

func (tritonModel) IfOverhead() Vector {
	var v Vector
	v[TblProcessor] = 2
	v[TblControl] = 2
	return v
}

func (tritonModel) LoopOverhead() Vector {
	var v Vector
	v[TblProcessor] = 1
	return v
}

func (tritonModel) HashRowsPerPermutation() uint64 { return 6 }

func (m tritonModel) BinOpCost(op ast.BinOpKind) Vector {
	var v Vector
	switch op {
	case ast.OpAdd, ast.OpMul, ast.OpEq, ast.OpBitAnd, ast.OpBitXor:
		v[TblProcessor] = 1
	case ast.OpLt:
		v[TblProcessor] = 1
		v[TblRange] = 1
	case ast.OpDivMod:
		v[TblProcessor] = u32Worst
		v[TblRange] = 2
	case ast.OpXMul:
		v[TblProcessor] = 3
	default:
		v[TblProcessor] = 1
	}
	return v
}

func (m tritonModel) BuiltinCost(name string) Vector {
	var v Vector
	switch name {
	case "hash":
		v[TblProcessor] = 1
		v[TblHash] = 6
		v[TblStack] = 1
	case "split":
		v[TblProcessor] = 1
		v[TblRange] = 2
	case "divine", "divine5":
		v[TblProcessor] = 1
	case "ram_read", "ram_write":
		v[TblProcessor] = 1
		v[TblRAM] = 1
	case "ram_read_block":
		v[TblProcessor] = 1
		v[TblRAM] = 5
	case "merkle_step", "merkle_step_mem":
		v[TblProcessor] = 1
		v[TblHash] = 6
	case "xfield", "xinvert":
		v[TblProcessor] = 4
	case "assert", "assert_eq":
		v[TblProcessor] = 1
	case "as_u32":
		v[TblProcessor] = u32Worst
		v[TblRange] = 1
	case "as_field":
		v[TblProcessor] = 1
	case "u32_lt":
		v[TblProcessor] = 1
		v[TblRange] = 1
	default:
		// pub_readN / pub_writeN and any other unlisted builtin: one
		// processor row, the target-wide baseline.
		v[TblProcessor] = 1
	}
	return v
}
