package tir

import (
	"testing"

	"github.com/mastercyb/trident/internal/target"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(target.Triton())
}

func TestPushAndFindDepth(t *testing.T) {
	m := testManager()
	m.PushNamed("a", 1)
	m.PushNamed("b", 2)
	m.PushNamed("c", 1)

	d, ok := m.FindVarDepth("c")
	require.True(t, ok)
	require.Equal(t, 0, d)

	d, ok = m.FindVarDepth("b")
	require.True(t, ok)
	require.Equal(t, 1, d)

	d, ok = m.FindVarDepth("a")
	require.True(t, ok)
	require.Equal(t, 3, d)

	require.Equal(t, 4, m.Depth())
}

func TestEnsureSpaceSpillsLRUFirst(t *testing.T) {
	m := testManager()
	for i := 0; i < 16; i++ {
		m.PushNamed(string(rune('a'+i)), 1)
	}
	require.Equal(t, 16, m.Depth())

	ops := m.EnsureSpace(1)
	require.NotEmpty(t, ops)
	require.LessOrEqual(t, m.Depth()+1, 16)

	// The oldest binding is the victim and is no longer resident.
	_, resident := m.FindVarDepth("a")
	require.False(t, resident)
	w, known := m.VarWidth("a")
	require.True(t, known)
	require.Equal(t, 1, w)

	var wrote bool
	for _, op := range ops {
		if _, ok := op.(WriteMem); ok {
			wrote = true
		}
	}
	require.True(t, wrote)
}

func TestAccessVarReloadsSpilled(t *testing.T) {
	m := testManager()
	for i := 0; i < 17; i++ {
		m.EnsureSpace(1)
		m.PushNamed(string(rune('a'+i)), 1)
	}
	_, resident := m.FindVarDepth("a")
	require.False(t, resident)

	ops, found := m.AccessVar("a")
	require.True(t, found)
	var read bool
	for _, op := range ops {
		if _, ok := op.(ReadMem); ok {
			read = true
		}
	}
	require.True(t, read)

	// Reloaded and back on top.
	d, resident := m.FindVarDepth("a")
	require.True(t, resident)
	require.Equal(t, 0, d)
}

func TestSpillAddressStableAcrossReload(t *testing.T) {
	m := testManager()
	for i := 0; i < 17; i++ {
		m.EnsureSpace(1)
		m.PushNamed(string(rune('a'+i)), 1)
	}
	first := collectAddrs(m.AccessVarOps(t, "a"))

	// Force it out and back again; the reload reads the same region.
	m.EnsureSpace(16)
	second := collectAddrs(m.AccessVarOps(t, "a"))
	require.Equal(t, first, second)
}

// AccessVarOps is a test helper unwrapping the (ops, found) pair.
func (m *Manager) AccessVarOps(t *testing.T, name string) []Op {
	t.Helper()
	ops, found := m.AccessVar(name)
	require.True(t, found)
	return ops
}

// collectAddrs gathers the addresses of reload reads (a push immediately
// followed by read_mem), ignoring any spill writes interleaved by
// EnsureSpace.
func collectAddrs(ops []Op) []uint64 {
	var out []uint64
	for i, op := range ops {
		p, ok := op.(Push)
		if !ok || i+1 >= len(ops) {
			continue
		}
		if _, isRead := ops[i+1].(ReadMem); isRead {
			out = append(out, p.Value)
		}
	}
	return out
}

func TestAssignVarResidentSwapsAndPops(t *testing.T) {
	m := testManager()
	m.PushNamed("x", 1)
	m.PushTemp(1) // the value
	ops, ok := m.AssignVar("x")
	require.True(t, ok)
	require.NotEmpty(t, ops)
	require.Equal(t, 1, m.EntryCount())
}

func TestAssignVarSpilledWritesRAM(t *testing.T) {
	m := testManager()
	for i := 0; i < 17; i++ {
		m.EnsureSpace(1)
		m.PushNamed(string(rune('a'+i)), 1)
	}
	m.PushTemp(1)
	ops, ok := m.AssignVar("a")
	require.True(t, ok)
	var wrote bool
	for _, op := range ops {
		if _, isW := op.(WriteMem); isW {
			wrote = true
		}
	}
	require.True(t, wrote)
}

func TestSnapshotRestoreAndShape(t *testing.T) {
	m := testManager()
	m.PushNamed("a", 2)
	snap := m.Snapshot()
	m.PushTemp(3)
	require.False(t, SameShape(snap, m.Snapshot()))
	m.Restore(snap)
	require.True(t, SameShape(snap, m.Snapshot()))
}

func TestPopSkipsSpilledCells(t *testing.T) {
	m := testManager()
	for i := 0; i < 17; i++ {
		m.EnsureSpace(1)
		m.PushNamed(string(rune('a'+i)), 1)
	}
	before := m.Depth()
	require.LessOrEqual(t, before, 16)
	ops := m.Pop(m.EntryCount())
	require.Equal(t, 0, m.EntryCount())
	// Only resident cells produce pops.
	total := 0
	for _, op := range ops {
		if p, ok := op.(Pop); ok {
			total += p.N
		}
	}
	require.Equal(t, before, total)
}
