// Package emit renders the linear TIR into textual assembly for a
// concrete stack VM (spec.md §2 component 10). Structured ops (IfElse,
// IfOnly, Loop) expand into skiz/call/recurse choreography with generated
// subroutine labels; subroutines are flushed after the enclosing
// function's return so no unreachable fallthrough is ever emitted.
package emit

import (
	"fmt"
	"strings"

	"github.com/mastercyb/trident/internal/tir"
)

// fieldNegOne is -1 in the Goldilocks field, used to decrement loop
// counters with the target's add instruction.
const fieldNegOne uint64 = 0xFFFFFFFF00000000

type emitter struct {
	b       strings.Builder
	labels  int
	pending []pendingSub
}

type pendingSub struct {
	label string
	body  func(*emitter)
}

// Program renders a whole TIR sequence as assembly text.
func Program(ops []tir.Op) string {
	e := &emitter{}
	e.ops(ops)
	e.flushPending() // structured ops outside any function
	return e.b.String()
}

func (e *emitter) line(s string) {
	e.b.WriteString(s)
	e.b.WriteByte('\n')
}

func (e *emitter) nextLabel(kind string) string {
	e.labels++
	return fmt.Sprintf("_%s_%d", kind, e.labels)
}

func (e *emitter) ops(ops []tir.Op) {
	for _, op := range ops {
		e.op(op)
	}
}

func (e *emitter) op(op tir.Op) {
	switch v := op.(type) {
	case tir.Push:
		e.line(fmt.Sprintf("push %d", v.Value))
	case tir.Dup:
		e.line(fmt.Sprintf("dup %d", v.Depth))
	case tir.Swap:
		e.line(fmt.Sprintf("swap %d", v.Depth))
	case tir.Pop:
		e.line(fmt.Sprintf("pop %d", v.N))
	case tir.Add:
		e.line("add")
	case tir.Mul:
		e.line("mul")
	case tir.Eq:
		e.line("eq")
	case tir.Lt:
		e.line("lt")
	case tir.And:
		e.line("and")
	case tir.Xor:
		e.line("xor")
	case tir.DivMod:
		e.line("div_mod")
	case tir.XFieldMul:
		e.line("xb_mul")
	case tir.Call:
		e.line("call " + v.Label)
	case tir.Return:
		e.line("return")
	case tir.Entry:
		e.line("call " + v.Label)
		e.line("halt")
	case tir.FnStart:
		e.line("")
		e.line(v.Label + ":")
	case tir.FnEnd:
		e.flushPending()
	case tir.ReadMem:
		e.line(fmt.Sprintf("read_mem %d", v.N))
	case tir.WriteMem:
		e.line(fmt.Sprintf("write_mem %d", v.N))
	case tir.PubRead:
		e.line(fmt.Sprintf("read_io %d", v.N))
	case tir.PubWrite:
		e.line(fmt.Sprintf("write_io %d", v.N))
	case tir.Divine:
		e.line(fmt.Sprintf("divine %d", v.N))
	case tir.Assert:
		e.line("assert")
	case tir.Hash:
		e.line("hash")
	case tir.Sponge:
		switch v.Kind {
		case tir.SpongeInit:
			e.line("sponge_init")
		case tir.SpongeAbsorb:
			e.line("sponge_absorb")
		case tir.SpongeSqueeze:
			e.line("sponge_squeeze")
		case tir.SpongeAbsorbMem:
			e.line("sponge_absorb_mem")
		}
	case tir.MerkleStep:
		if v.Mem {
			e.line("merkle_step_mem")
		} else {
			e.line("merkle_step")
		}
	case tir.Halt:
		e.line("halt")
	case tir.Recurse:
		e.line("recurse")
	case tir.Skiz:
		e.line("skiz")
	case tir.Label:
		e.line(fmt.Sprintf("_L%d:", v.ID))
	case tir.Jump:
		e.line(fmt.Sprintf("call _L%d", v.ID))
	case tir.IfElse:
		e.ifElse(v)
	case tir.IfOnly:
		e.ifOnly(v)
	case tir.Loop:
		e.loop(v)
	case tir.Raw:
		e.line(v.Text)
	case tir.Comment:
		e.line("// " + v.Text)
	}
}

// ifElse expands two-way branching: the condition selects the then
// subroutine, whose trailing push 0 cancels the else dispatch; the
// untaken path's flag drives the second skiz instead.
func (e *emitter) ifElse(v tir.IfElse) {
	thenLbl := e.nextLabel("then")
	elseLbl := e.nextLabel("else")

	e.ops(v.Cond)
	e.line("push 1")
	e.line("swap 1")
	e.line("skiz")
	e.line("call " + thenLbl)
	e.line("skiz")
	e.line("call " + elseLbl)

	thenBody, elseBody := v.Then, v.Else
	e.pending = append(e.pending,
		pendingSub{label: thenLbl, body: func(e *emitter) {
			e.line("pop 1")
			e.ops(thenBody)
			e.line("push 0")
			e.line("return")
		}},
		pendingSub{label: elseLbl, body: func(e *emitter) {
			e.ops(elseBody)
			e.line("return")
		}},
	)
}

func (e *emitter) ifOnly(v tir.IfOnly) {
	thenLbl := e.nextLabel("then")
	e.ops(v.Cond)
	e.line("skiz")
	e.line("call " + thenLbl)

	thenBody := v.Then
	e.pending = append(e.pending, pendingSub{label: thenLbl, body: func(e *emitter) {
		e.ops(thenBody)
		e.line("return")
	}})
}

// loop expands a fixed-count loop into the target's recurse idiom: a
// counter on top of the stack, decremented per iteration, with the body
// in a recursing subroutine.
func (e *emitter) loop(v tir.Loop) {
	loopLbl := e.nextLabel("loop")
	e.line(fmt.Sprintf("push %d", v.Count))
	e.line("call " + loopLbl)
	e.line("pop 1")

	body := v.Body
	e.pending = append(e.pending, pendingSub{label: loopLbl, body: func(e *emitter) {
		e.line("dup 0")
		e.line("push 0")
		e.line("eq")
		e.line("skiz")
		e.line("return")
		e.ops(body)
		e.line(fmt.Sprintf("push %d", fieldNegOne))
		e.line("add")
		e.line("recurse")
	}})
}

// flushPending renders generated subroutines after the enclosing
// function; bodies may themselves append further subroutines, so drain
// until empty.
func (e *emitter) flushPending() {
	for len(e.pending) > 0 {
		sub := e.pending[0]
		e.pending = e.pending[1:]
		e.line("")
		e.line(sub.label + ":")
		sub.body(e)
	}
}
